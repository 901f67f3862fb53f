package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stylist-service/internal/models"
	"stylist-service/internal/tags"
)

const (
	storefrontPageSize = 50
	storefrontMaxPages = 20
)

// StorefrontAdapter pulls a storefront's paginated JSON product feed and
// maps each entry into a Product. Items without a stable handle are skipped:
// without one there is no canonical link to dedup on.
type StorefrontAdapter struct {
	httpClient *http.Client
	baseURL    string
	domain     string
}

// NewStorefrontAdapter creates a feed adapter for one storefront domain.
// baseURL is normally "https://"+domain; tests point it at a local server.
func NewStorefrontAdapter(baseURL, domain string) *StorefrontAdapter {
	return &StorefrontAdapter{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		domain:  domain,
	}
}

func (a *StorefrontAdapter) Name() string {
	return a.domain
}

type storefrontFeed struct {
	Products []json.RawMessage `json:"products"`
}

type storefrontItem struct {
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	Vendor   string `json:"vendor"`
	Variants []struct {
		Price string `json:"price"`
	} `json:"variants"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
}

// Fetch walks feed pages until max products are collected or a page comes
// back empty. The query text is ignored: a storefront feed is already scoped
// to its own catalog.
func (a *StorefrontAdapter) Fetch(ctx context.Context, _ string, max int) ([]models.Product, error) {
	products := make([]models.Product, 0, max)

	for page := 1; page <= storefrontMaxPages && len(products) < max; page++ {
		items, err := a.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		for _, raw := range items {
			var item storefrontItem
			if err := json.Unmarshal(raw, &item); err != nil {
				continue
			}
			if item.Handle == "" {
				continue
			}
			products = append(products, a.mapItem(item, raw))
			if len(products) == max {
				break
			}
		}
	}
	return products, nil
}

func (a *StorefrontAdapter) fetchPage(ctx context.Context, page int) ([]json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/products.json?limit=%d&page=%d", a.baseURL, storefrontPageSize, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("storefront returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed storefrontFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	return feed.Products, nil
}

func (a *StorefrontAdapter) mapItem(item storefrontItem, raw json.RawMessage) models.Product {
	link := fmt.Sprintf("https://%s/products/%s", a.domain, item.Handle)

	price := ""
	if len(item.Variants) > 0 {
		price = item.Variants[0].Price
	}

	image := models.PlaceholderImageURL
	if len(item.Images) > 0 && item.Images[0].Src != "" {
		image = item.Images[0].Src
	}

	return models.Product{
		ID:           models.ProductID(link, item.Title, item.Vendor),
		Title:        item.Title,
		Brand:        item.Vendor,
		PriceDisplay: price,
		PriceNumeric: models.ParsePrice(price),
		Link:         link,
		ImageURL:     image,
		Tags:         tags.Extract(item.Title),
		Retailer:     a.domain,
		Raw:          []byte(raw),
	}
}
