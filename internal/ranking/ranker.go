package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"stylist-service/internal/models"
)

// Embedder turns text into a dense vector. The caching client from the
// embedding package satisfies this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CosineSimilarity scores two vectors in [-1, 1]. Mismatched lengths and
// zero vectors score 0 rather than NaN.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Ranker orders products by semantic similarity to a profile text.
type Ranker struct {
	embedder Embedder
}

// NewRanker creates a similarity ranker backed by the given embedder
func NewRanker(embedder Embedder) *Ranker {
	return &Ranker{embedder: embedder}
}

// Rank returns the products sorted by descending similarity between the
// profile text and each product title. The sort is stable, so equal scores
// keep their input order. Any embedding failure aborts the whole ranking:
// the caller decides whether to degrade, never this layer.
func (r *Ranker) Rank(ctx context.Context, profileText string, products []models.Product) ([]models.Product, error) {
	if len(products) == 0 {
		return products, nil
	}

	profileVector, err := r.embedder.Embed(ctx, profileText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed profile: %w", err)
	}

	scores := make([]float64, len(products))
	for i, p := range products {
		vector, err := r.embedder.Embed(ctx, p.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to embed product %s: %w", p.ID, err)
		}
		scores[i] = CosineSimilarity(profileVector, vector)
	}

	ranked := make([]models.Product, len(products))
	order := make([]int, len(products))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	for i, idx := range order {
		ranked[i] = products[idx]
	}

	return ranked, nil
}
