package database

import (
	"context"
	"fmt"
)

// Tables are the relations the portfolio store reads and writes
var Tables = []string{
	"portfolio.holdings",
	"portfolio.history",
	"portfolio.score_snapshots",
}

// migrationLockID serializes Migrate across replicas starting at the same time
const migrationLockID = 0x5249534b // "RISK"

// Schema is applied in order by Migrate. Every statement is idempotent.
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS portfolio`,
	`CREATE TABLE IF NOT EXISTS portfolio.holdings (
		user_id       TEXT NOT NULL,
		id            TEXT NOT NULL,
		symbol        TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		quantity      DOUBLE PRECISION NOT NULL,
		buy_price     DOUBLE PRECISION NOT NULL,
		current_price DOUBLE PRECISION NOT NULL,
		sector        TEXT NOT NULL,
		pe_ratio      DOUBLE PRECISION NOT NULL DEFAULT 0,
		debt_equity   DOUBLE PRECISION NOT NULL DEFAULT 0,
		roe           DOUBLE PRECISION NOT NULL DEFAULT 0,
		beta          DOUBLE PRECISION NOT NULL DEFAULT 0,
		added_at      TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio.history (
		user_id     TEXT NOT NULL,
		id          TEXT NOT NULL,
		action      TEXT NOT NULL CHECK (action IN ('ADD', 'REMOVE')),
		symbol      TEXT NOT NULL,
		quantity    DOUBLE PRECISION NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_user_time ON portfolio.history (user_id, occurred_at)`,
	`CREATE TABLE IF NOT EXISTS portfolio.score_snapshots (
		user_id      TEXT NOT NULL,
		taken_at     TIMESTAMPTZ NOT NULL,
		risk_score   DOUBLE PRECISION NOT NULL,
		risk_level   TEXT NOT NULL,
		behavior     DOUBLE PRECISION NOT NULL,
		behavior_lvl TEXT NOT NULL,
		total_value  DOUBLE PRECISION NOT NULL,
		policy_hash  TEXT NOT NULL,
		PRIMARY KEY (user_id, taken_at)
	)`,
}

// Migrate creates the tables the portfolio store needs
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	for i, stmt := range Schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MissingTables returns the entries of Tables that do not exist yet
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT t FROM unnest($1::text[]) AS t WHERE to_regclass(t) IS NULL ORDER BY t",
		Tables,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tables: %w", err)
	}
	defer rows.Close()

	missing := make([]string, 0)
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		missing = append(missing, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return missing, nil
}
