package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON caching under a key prefix
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes cached values
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.client.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	return c.client.Redis().Del(ctx, full...).Err()
}

func (c *Cache) generationKey(key string) string {
	return fmt.Sprintf("%s:gen:%s", c.prefix, key)
}

// Generation returns the current generation of key, 0 if it was never bumped
func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	gen, err := c.client.Redis().Get(ctx, c.generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation failed: %w", err)
	}
	return gen, nil
}

// Bump advances the generation of each key so values cached under an older
// generation are never read again. keep must outlive the data TTL.
func (c *Cache) Bump(ctx context.Context, keep time.Duration, keys ...string) error {
	if !c.client.Enabled() || len(keys) == 0 {
		return nil
	}

	pipe := c.client.Redis().TxPipeline()
	for _, k := range keys {
		pipe.Incr(ctx, c.generationKey(k))
		pipe.Expire(ctx, c.generationKey(k), keep)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache bump failed: %w", err)
	}
	return nil
}

// VersionedKey is key scoped to generation gen
func VersionedKey(key string, gen int64) string {
	return fmt.Sprintf("%s:v%d", key, gen)
}

// GetOrSet retrieves from cache or calls fn to populate it.
// A failed cache write does not fail the call.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var cached T
	found, err := c.Get(ctx, key, &cached)
	if err == nil && found {
		return cached, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute
	TTLMedium = 10 * time.Minute
	TTLLong   = 1 * time.Hour
)

// HoldingsKey is the cache key of a user's holdings
func HoldingsKey(userID string) string {
	return fmt.Sprintf("portfolio:%s:holdings", userID)
}

// HistoryKey is the cache key of a user's full history
func HistoryKey(userID string) string {
	return fmt.Sprintf("portfolio:%s:history", userID)
}
