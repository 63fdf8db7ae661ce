package portfolio

import (
	"context"
	"time"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/pkg/logger"
	"github.com/wonny/risklens/pkg/redis"
)

// CachedStore wraps a Store with a Redis read-through cache of holdings and history.
// Entries live under generation-versioned keys. Every write bumps the affected
// generations, so a read that raced the write caches its result under a key
// that is no longer read. Cache failures fall back to the inner store.
type CachedStore struct {
	Store
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedStore creates a caching wrapper around inner
func NewCachedStore(inner Store, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	return &CachedStore{
		Store:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("portfolio-cache"),
	}
}

func (c *CachedStore) ListHoldings(ctx context.Context, userID string) ([]contracts.Holding, error) {
	key, ok := c.versioned(ctx, redis.HoldingsKey(userID))
	if !ok {
		return c.Store.ListHoldings(ctx, userID)
	}
	return redis.GetOrSet(ctx, c.cache, key, c.ttl, func() ([]contracts.Holding, error) {
		return c.Store.ListHoldings(ctx, userID)
	})
}

// ListHistory caches the full log and filters by since locally
func (c *CachedStore) ListHistory(ctx context.Context, userID string, since time.Time) ([]contracts.HistoryEntry, error) {
	key, ok := c.versioned(ctx, redis.HistoryKey(userID))
	if !ok {
		return c.Store.ListHistory(ctx, userID, since)
	}
	all, err := redis.GetOrSet(ctx, c.cache, key, c.ttl, func() ([]contracts.HistoryEntry, error) {
		return c.Store.ListHistory(ctx, userID, time.Time{})
	})
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		return all, nil
	}
	return contracts.Since(all, since), nil
}

func (c *CachedStore) SaveHolding(ctx context.Context, userID string, h contracts.Holding) error {
	defer c.invalidate(ctx, redis.HoldingsKey(userID))
	return c.Store.SaveHolding(ctx, userID, h)
}

func (c *CachedStore) DeleteHolding(ctx context.Context, userID, holdingID string) error {
	defer c.invalidate(ctx, redis.HoldingsKey(userID))
	return c.Store.DeleteHolding(ctx, userID, holdingID)
}

func (c *CachedStore) AddHoldingWithEntry(ctx context.Context, userID string, h contracts.Holding, entry contracts.HistoryEntry) error {
	defer c.invalidate(ctx, redis.HoldingsKey(userID), redis.HistoryKey(userID))
	return c.Store.AddHoldingWithEntry(ctx, userID, h, entry)
}

func (c *CachedStore) RemoveHoldingWithEntry(ctx context.Context, userID, holdingID string, entry contracts.HistoryEntry) error {
	defer c.invalidate(ctx, redis.HoldingsKey(userID), redis.HistoryKey(userID))
	return c.Store.RemoveHoldingWithEntry(ctx, userID, holdingID, entry)
}

func (c *CachedStore) UpdatePrices(ctx context.Context, userID string, prices map[string]float64) (int, error) {
	defer c.invalidate(ctx, redis.HoldingsKey(userID))
	return c.Store.UpdatePrices(ctx, userID, prices)
}

func (c *CachedStore) AppendHistory(ctx context.Context, userID string, entry contracts.HistoryEntry) error {
	defer c.invalidate(ctx, redis.HistoryKey(userID))
	return c.Store.AppendHistory(ctx, userID, entry)
}

func (c *CachedStore) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	pruned, err := c.Store.PruneHistory(ctx, before)
	if err != nil || pruned == 0 {
		return pruned, err
	}

	users, err := c.Store.ListUsers(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to list users for cache invalidation")
		return pruned, nil
	}
	keys := make([]string, len(users))
	for i, u := range users {
		keys[i] = redis.HistoryKey(u)
	}
	c.invalidate(ctx, keys...)
	return pruned, nil
}

// versioned resolves key to its current generation.
// false means the generation is unknown and the cache must be bypassed.
func (c *CachedStore) versioned(ctx context.Context, key string) (string, bool) {
	gen, err := c.cache.Generation(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache generation lookup failed")
		return "", false
	}
	return redis.VersionedKey(key, gen), true
}

func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := c.cache.Bump(ctx, 2*c.ttl, keys...); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("Cache invalidation failed")
	}
}
