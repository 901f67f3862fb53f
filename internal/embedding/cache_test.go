package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	cache := NewMemoryCache(8)
	ctx := context.Background()

	_, err := cache.Get(ctx, "linen blazer")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "linen blazer", []float64{0.1, 0.2}))

	vector, err := cache.Get(ctx, "linen blazer")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, vector)
}

func TestMemoryCacheBoundedEviction(t *testing.T) {
	cache := NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "first", []float64{1}))
	require.NoError(t, cache.Set(ctx, "second", []float64{2}))
	require.NoError(t, cache.Set(ctx, "third", []float64{3}))

	assert.Equal(t, 2, cache.Len())

	_, err := cache.Get(ctx, "first")
	assert.ErrorIs(t, err, ErrCacheMiss, "oldest entry evicted")

	_, err = cache.Get(ctx, "third")
	assert.NoError(t, err)
}

func TestMemoryCacheOverwriteDoesNotGrow(t *testing.T) {
	cache := NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "same", []float64{1}))
	require.NoError(t, cache.Set(ctx, "same", []float64{2}))

	assert.Equal(t, 1, cache.Len())

	vector, err := cache.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, vector)
}

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float64{float64(len(text))}, nil
}

func TestCachingClientHitsCacheOnRepeat(t *testing.T) {
	inner := &countingEmbedder{}
	client := NewCachingClient(inner, NewMemoryCache(8))
	ctx := context.Background()

	first, err := client.Embed(ctx, "maxi dress")
	require.NoError(t, err)

	second, err := client.Embed(ctx, "maxi dress")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "repeated text embeds once")
}

func TestCachingClientPropagatesServiceError(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("service down")}
	client := NewCachingClient(inner, NewMemoryCache(8))

	_, err := client.Embed(context.Background(), "maxi dress")
	require.Error(t, err)
}
