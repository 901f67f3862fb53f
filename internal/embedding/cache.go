package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when no vector is stored for a text.
var ErrCacheMiss = errors.New("embedding cache miss")

// Cache stores vectors content-addressed by their exact source text, so
// repeated titles never hit the embedding service twice.
type Cache interface {
	Get(ctx context.Context, text string) ([]float64, error)
	Set(ctx context.Context, text string, vector []float64) error
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// RedisCache persists vectors in Redis with a TTL, shared across requests
// and across process restarts.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates a Redis-backed embedding cache
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) Get(ctx context.Context, text string) ([]float64, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(text)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, fmt.Errorf("failed to decode cached vector: %w", err)
	}
	return vector, nil
}

func (c *RedisCache) Set(ctx context.Context, text string, vector []float64) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode vector: %w", err)
	}
	return c.rdb.Set(ctx, cacheKey(text), raw, c.ttl).Err()
}

// MemoryCache is a bounded in-process cache used when Redis is not
// configured, and in tests. Eviction is FIFO by insertion order.
type MemoryCache struct {
	mu       sync.RWMutex
	data     map[string][]float64
	order    []string
	maxItems int
}

// NewMemoryCache creates an in-memory embedding cache holding at most
// maxItems vectors.
func NewMemoryCache(maxItems int) *MemoryCache {
	if maxItems <= 0 {
		maxItems = 1024
	}
	return &MemoryCache{
		data:     make(map[string][]float64),
		maxItems: maxItems,
	}
}

func (c *MemoryCache) Get(_ context.Context, text string) ([]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vector, ok := c.data[cacheKey(text)]
	if !ok {
		return nil, ErrCacheMiss
	}
	return vector, nil
}

func (c *MemoryCache) Set(_ context.Context, text string, vector []float64) error {
	key := cacheKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists {
		if len(c.order) >= c.maxItems {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.data, oldest)
		}
		c.order = append(c.order, key)
	}
	c.data[key] = vector
	return nil
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
