package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/risklens/pkg/config"
)

const connectTimeout = 5 * time.Second

// DB is the RiskLens connection pool. Every pool in the process is created here.
type DB struct {
	Pool *pgxpool.Pool
}

// Open creates a pool with the configured limits and verifies it with a ping
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool. Safe to call more than once.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Status is the reachability, schema state and pool usage of the database
type Status struct {
	Latency       time.Duration `json:"latency"`
	MissingTables []string      `json:"missing_tables,omitempty"`
	TotalConns    int32         `json:"total_conns"`
	IdleConns     int32         `json:"idle_conns"`
	AcquiredConns int32         `json:"acquired_conns"`
	MaxConns      int32         `json:"max_conns"`
}

// Ready reports whether every portfolio table exists
func (s Status) Ready() bool {
	return len(s.MissingTables) == 0
}

// Status pings the database and looks up the portfolio tables
func (db *DB) Status(ctx context.Context) (Status, error) {
	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		return Status{}, fmt.Errorf("failed to ping database: %w", err)
	}
	latency := time.Since(start)

	missing, err := db.MissingTables(ctx)
	if err != nil {
		return Status{}, err
	}

	stat := db.Pool.Stat()
	return Status{
		Latency:       latency,
		MissingTables: missing,
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}, nil
}

// Check backs the database health check. It fails when the database is unreachable
// or when migrate has not been run
func (db *DB) Check(ctx context.Context) error {
	status, err := db.Status(ctx)
	if err != nil {
		return err
	}
	if !status.Ready() {
		return fmt.Errorf("schema not migrated, missing %s", strings.Join(status.MissingTables, ", "))
	}
	return nil
}
