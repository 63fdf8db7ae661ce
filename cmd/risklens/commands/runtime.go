package commands

import (
	"context"
	"fmt"

	"github.com/wonny/risklens/internal/api/handlers"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/config"
	"github.com/wonny/risklens/pkg/database"
	"github.com/wonny/risklens/pkg/logger"
	"github.com/wonny/risklens/pkg/redis"
)

// runtime holds the long-lived resources shared by the api and worker commands
type runtime struct {
	store  portfolio.Store
	policy *policy.Policy
	db     *database.DB
	redis  *redis.Client
}

// newRuntime opens the configured store, optional Redis cache and scoring policy
func newRuntime(cfg *config.Config, log *logger.Logger) (*runtime, error) {
	p, err := policy.LoadOrDefault(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	rt := &runtime{policy: p, redis: redis.NewFromClient(nil)}

	switch cfg.Store {
	case config.StorePostgres:
		db, err := database.Open(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.db = db
		rt.store = portfolio.NewPostgresStore(db.Pool)
		log.Info("Connected to database")
	default:
		rt.store = portfolio.NewMemoryStore()
		log.Warn("Using in-memory store; data is lost on exit")
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		rt.redis = client
		rt.store = portfolio.NewCachedStore(rt.store, redis.NewCache(client, "risklens"), cfg.Redis.CacheTTL, log)
		log.Info("Connected to Redis")
	}

	return rt, nil
}

// healthChecks returns one check per backing service
func (rt *runtime) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if rt.db != nil {
		checks["database"] = rt.db.Check
	}
	if rt.redis.Enabled() {
		checks["redis"] = rt.redis.Ping
	}
	return checks
}

// Close releases the database pool and Redis client
func (rt *runtime) Close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
}
