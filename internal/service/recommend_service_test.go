package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stylist-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	products []models.Product
	ops      *[]string
	err      error
}

func (f *fakeCatalog) QueryProducts(_ context.Context, filter models.Filter) ([]models.Product, error) {
	if f.ops != nil {
		*f.ops = append(*f.ops, fmt.Sprintf("query(tags=%d,budget=%v)", len(filter.Tags), filter.Budget != nil))
	}
	if f.err != nil {
		return nil, f.err
	}
	var matched []models.Product
	for _, p := range f.products {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

type fakeIngester struct {
	ops     *[]string
	catalog *fakeCatalog
	yield   []models.Product
	brands  []string
}

func (f *fakeIngester) Ingest(_ context.Context, brands []string, _ string) (int, error) {
	if f.ops != nil {
		*f.ops = append(*f.ops, "ingest")
	}
	f.brands = brands
	f.catalog.products = append(f.catalog.products, f.yield...)
	return len(f.yield), nil
}

type identityRanker struct {
	called bool
	err    error
}

func (r *identityRanker) Rank(_ context.Context, _ string, products []models.Product) ([]models.Product, error) {
	r.called = true
	if r.err != nil {
		return nil, r.err
	}
	return products, nil
}

func floatPtr(v float64) *float64 { return &v }

func zaraProduct() models.Product {
	return models.Product{
		ID:           "p1",
		Title:        "Maxi Dress",
		Retailer:     "zara.com",
		Tags:         []string{"dress", "maxi"},
		PriceNumeric: floatPtr(80),
	}
}

func newTestService(catalog *fakeCatalog, ingester *fakeIngester, ranker *identityRanker) *RecommendService {
	return NewRecommendService(catalog, ranker, ingester, RecommendConfig{
		DefaultLimit:   10,
		ShuffleResults: false,
	})
}

func TestRecommendStrictHit(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Product{zaraProduct()}}
	ingester := &fakeIngester{catalog: catalog}
	svc := newTestService(catalog, ingester, &identityRanker{})

	results, err := svc.Recommend(context.Background(), RecommendRequest{
		Style:  "maxi",
		Brands: []string{"zara.com"},
		Budget: floatPtr(100),
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
	assert.Empty(t, ingester.brands, "no reingest when strict query matches")
}

func TestRecommendRelaxDropsTagsAndBudget(t *testing.T) {
	// Over budget, so the strict stage misses; the relaxed stage drops the
	// budget along with the tags and still serves the brand's product.
	catalog := &fakeCatalog{products: []models.Product{zaraProduct()}}
	ingester := &fakeIngester{catalog: catalog}
	svc := newTestService(catalog, ingester, &identityRanker{})

	results, err := svc.Recommend(context.Background(), RecommendRequest{
		Style:  "maxi",
		Brands: []string{"zara.com"},
		Budget: floatPtr(50),
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
}

func TestRecommendCascadeOrderOnEmptyStore(t *testing.T) {
	var ops []string
	catalog := &fakeCatalog{ops: &ops}
	ingester := &fakeIngester{ops: &ops, catalog: catalog}
	svc := newTestService(catalog, ingester, &identityRanker{})

	results, err := svc.Recommend(context.Background(), RecommendRequest{
		Style:  "maxi",
		Brands: []string{"zara.com"},
		Budget: floatPtr(100),
	})
	require.NoError(t, err)

	// Strict (tagged, budgeted), relaxed, reingest, relaxed retry - in that
	// order, no stage skipped.
	assert.Equal(t, []string{
		"query(tags=1,budget=true)",
		"query(tags=0,budget=false)",
		"ingest",
		"query(tags=0,budget=false)",
	}, ops)

	require.Len(t, results, 1)
	assert.Equal(t, "No products found", results[0].Title)
	assert.Equal(t, models.UnresolvableLink, results[0].Link)
	assert.Equal(t, []string{"zara.com"}, ingester.brands)
}

func TestRecommendReingestRecovers(t *testing.T) {
	catalog := &fakeCatalog{}
	ingester := &fakeIngester{catalog: catalog, yield: []models.Product{zaraProduct()}}
	svc := newTestService(catalog, ingester, &identityRanker{})

	results, err := svc.Recommend(context.Background(), RecommendRequest{
		Brands: []string{"zara.com"},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID, "freshly ingested product served")
}

func TestRecommendNeverReturnsEmpty(t *testing.T) {
	catalog := &fakeCatalog{}
	ingester := &fakeIngester{catalog: catalog}
	svc := newTestService(catalog, ingester, &identityRanker{})

	results, err := svc.Recommend(context.Background(), RecommendRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "No products found", results[0].Title)
}

func TestRecommendDegradesToUnrankedOnRankerFailure(t *testing.T) {
	products := []models.Product{
		{ID: "a", Title: "Shirt A", Retailer: "zara.com"},
		{ID: "b", Title: "Shirt B", Retailer: "zara.com"},
	}
	catalog := &fakeCatalog{products: products}
	ingester := &fakeIngester{catalog: catalog}
	ranker := &identityRanker{err: errors.New("embedding service down")}
	svc := newTestService(catalog, ingester, ranker)

	results, err := svc.Recommend(context.Background(), RecommendRequest{Style: "casual"})
	require.NoError(t, err, "ranking failure must not fail the request")

	assert.True(t, ranker.called)
	assert.Len(t, results, 2)
}

func TestRecommendSkipsRankingWithoutProfile(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Product{
		{ID: "a", Retailer: "zara.com"},
		{ID: "b", Retailer: "zara.com"},
	}}
	ingester := &fakeIngester{catalog: catalog}
	ranker := &identityRanker{}
	svc := newTestService(catalog, ingester, ranker)

	_, err := svc.Recommend(context.Background(), RecommendRequest{})
	require.NoError(t, err)
	assert.False(t, ranker.called, "no profile text, no embedding calls")
}

func TestRecommendTrimsToLimit(t *testing.T) {
	var products []models.Product
	for i := 0; i < 25; i++ {
		products = append(products, models.Product{
			ID:       fmt.Sprintf("p%d", i),
			Retailer: "zara.com",
		})
	}
	catalog := &fakeCatalog{products: products}
	ingester := &fakeIngester{catalog: catalog}
	svc := newTestService(catalog, ingester, &identityRanker{})

	results, err := svc.Recommend(context.Background(), RecommendRequest{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, results, 5)

	results, err = svc.Recommend(context.Background(), RecommendRequest{})
	require.NoError(t, err)
	assert.Len(t, results, 10, "default limit applies when none requested")
}

func TestRecommendShuffleKeepsMembership(t *testing.T) {
	var products []models.Product
	for i := 0; i < 10; i++ {
		products = append(products, models.Product{
			ID:       fmt.Sprintf("p%d", i),
			Retailer: "zara.com",
		})
	}
	catalog := &fakeCatalog{products: products}
	ingester := &fakeIngester{catalog: catalog}
	svc := NewRecommendService(catalog, &identityRanker{}, ingester, RecommendConfig{
		DefaultLimit:   10,
		ShuffleResults: true,
	})

	results, err := svc.Recommend(context.Background(), RecommendRequest{})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range results {
		seen[p.ID] = true
	}
	assert.Len(t, seen, 10, "shuffle reorders, never drops or duplicates")
}

func TestRecommendPropagatesStoreFailure(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("connection refused")}
	ingester := &fakeIngester{catalog: catalog}
	svc := newTestService(catalog, ingester, &identityRanker{})

	_, err := svc.Recommend(context.Background(), RecommendRequest{})
	require.Error(t, err)
}
