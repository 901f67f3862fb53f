package embedding

import (
	"context"
	"errors"

	"stylist-service/internal/util"

	"go.uber.org/zap"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CachingClient fronts an Embedder with a content-addressed cache. A cache
// failure is logged and treated as a miss: the cache accelerates, it never
// gates.
type CachingClient struct {
	inner  Embedder
	cache  Cache
	logger *zap.Logger
}

// NewCachingClient wraps an embedder with a cache
func NewCachingClient(inner Embedder, cache Cache) *CachingClient {
	return &CachingClient{
		inner:  inner,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

func (c *CachingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vector, err := c.cache.Get(ctx, text)
	if err == nil {
		util.EmbeddingCacheHits.Inc()
		return vector, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Embedding cache read failed", zap.Error(err))
	}
	util.EmbeddingCacheMisses.Inc()

	vector, err = c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, text, vector); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.Error(err))
	}
	return vector, nil
}
