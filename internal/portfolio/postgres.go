package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/risklens/internal/contracts"
)

// PostgresStore persists portfolios in the portfolio schema (see database.Schema)
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const holdingColumns = `id, symbol, name, quantity, buy_price, current_price, sector,
	pe_ratio, debt_equity, roe, beta, added_at`

func scanHolding(row pgx.Row) (contracts.Holding, error) {
	var h contracts.Holding
	var sector string
	err := row.Scan(
		&h.ID, &h.Symbol, &h.Name, &h.Quantity, &h.BuyPrice, &h.CurrentPrice, &sector,
		&h.PERatio, &h.DebtEquity, &h.ROE, &h.Beta, &h.AddedAt,
	)
	h.Sector = contracts.Sector(sector)
	return h, err
}

func (s *PostgresStore) ListHoldings(ctx context.Context, userID string) ([]contracts.Holding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM portfolio.holdings
		WHERE user_id = $1
		ORDER BY added_at, id`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]contracts.Holding, 0)
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return holdings, nil
}

func (s *PostgresStore) GetHolding(ctx context.Context, userID, holdingID string) (contracts.Holding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM portfolio.holdings
		WHERE user_id = $1 AND id = $2`

	h, err := scanHolding(s.pool.QueryRow(ctx, query, userID, holdingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Holding{}, ErrHoldingNotFound
	}
	if err != nil {
		return contracts.Holding{}, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// execer is satisfied by both the pool and a transaction
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func saveHolding(ctx context.Context, db execer, userID string, h contracts.Holding) error {
	query := `
		INSERT INTO portfolio.holdings (
			user_id, id, symbol, name, quantity, buy_price, current_price, sector,
			pe_ratio, debt_equity, roe, beta, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			quantity = EXCLUDED.quantity,
			buy_price = EXCLUDED.buy_price,
			current_price = EXCLUDED.current_price,
			sector = EXCLUDED.sector,
			pe_ratio = EXCLUDED.pe_ratio,
			debt_equity = EXCLUDED.debt_equity,
			roe = EXCLUDED.roe,
			beta = EXCLUDED.beta
	`

	_, err := db.Exec(ctx, query,
		userID, h.ID, h.Symbol, h.Name, h.Quantity, h.BuyPrice, h.CurrentPrice, string(h.Sector),
		h.PERatio, h.DebtEquity, h.ROE, h.Beta, h.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	return nil
}

func deleteHolding(ctx context.Context, db execer, userID, holdingID string) error {
	tag, err := db.Exec(ctx,
		"DELETE FROM portfolio.holdings WHERE user_id = $1 AND id = $2",
		userID, holdingID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHoldingNotFound
	}
	return nil
}

func appendHistory(ctx context.Context, db execer, userID string, e contracts.HistoryEntry) error {
	query := `
		INSERT INTO portfolio.history (user_id, id, action, symbol, quantity, price, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Exec(ctx, query,
		userID, e.ID, string(e.Action), e.Symbol, e.Quantity, e.Price, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveHolding(ctx context.Context, userID string, h contracts.Holding) error {
	return saveHolding(ctx, s.pool, userID, h)
}

func (s *PostgresStore) DeleteHolding(ctx context.Context, userID, holdingID string) error {
	return deleteHolding(ctx, s.pool, userID, holdingID)
}

// inTx runs fn in a transaction and commits when it returns nil
func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddHoldingWithEntry(ctx context.Context, userID string, h contracts.Holding, entry contracts.HistoryEntry) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := saveHolding(ctx, tx, userID, h); err != nil {
			return err
		}
		return appendHistory(ctx, tx, userID, entry)
	})
}

func (s *PostgresStore) RemoveHoldingWithEntry(ctx context.Context, userID, holdingID string, entry contracts.HistoryEntry) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := deleteHolding(ctx, tx, userID, holdingID); err != nil {
			return err
		}
		return appendHistory(ctx, tx, userID, entry)
	})
}

func (s *PostgresStore) UpdatePrices(ctx context.Context, userID string, prices map[string]float64) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updated := 0
	for symbol, price := range prices {
		tag, err := tx.Exec(ctx,
			"UPDATE portfolio.holdings SET current_price = $3 WHERE user_id = $1 AND symbol = $2",
			userID, symbol, price,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update price for %s: %w", symbol, err)
		}
		updated += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, userID string, e contracts.HistoryEntry) error {
	return appendHistory(ctx, s.pool, userID, e)
}

func (s *PostgresStore) ListHistory(ctx context.Context, userID string, since time.Time) ([]contracts.HistoryEntry, error) {
	query := `
		SELECT id, action, symbol, quantity, price, occurred_at
		FROM portfolio.history
		WHERE user_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at, id
	`

	rows, err := s.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	history := make([]contracts.HistoryEntry, 0)
	for rows.Next() {
		var e contracts.HistoryEntry
		var action string
		if err := rows.Scan(&e.ID, &action, &e.Symbol, &e.Quantity, &e.Price, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Action = contracts.Action(action)
		history = append(history, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return history, nil
}

func (s *PostgresStore) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM portfolio.history WHERE occurred_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]string, error) {
	query := `
		SELECT user_id FROM portfolio.holdings
		UNION
		SELECT user_id FROM portfolio.history
		ORDER BY user_id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) SaveScoreSnapshot(ctx context.Context, snap ScoreSnapshot) error {
	query := `
		INSERT INTO portfolio.score_snapshots (
			user_id, taken_at, risk_score, risk_level, behavior, behavior_lvl, total_value, policy_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, taken_at) DO UPDATE SET
			risk_score = EXCLUDED.risk_score,
			risk_level = EXCLUDED.risk_level,
			behavior = EXCLUDED.behavior,
			behavior_lvl = EXCLUDED.behavior_lvl,
			total_value = EXCLUDED.total_value,
			policy_hash = EXCLUDED.policy_hash
	`

	_, err := s.pool.Exec(ctx, query,
		snap.UserID, snap.TakenAt, snap.RiskScore, string(snap.RiskLevel),
		snap.BehaviorScore, string(snap.BehaviorLevel), snap.TotalValue, snap.PolicyHash,
	)
	if err != nil {
		return fmt.Errorf("failed to save score snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListScoreSnapshots(ctx context.Context, userID string, limit int) ([]ScoreSnapshot, error) {
	query := `
		SELECT user_id, taken_at, risk_score, risk_level, behavior, behavior_lvl, total_value, policy_hash
		FROM portfolio.score_snapshots
		WHERE user_id = $1
		ORDER BY taken_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query score snapshots: %w", err)
	}
	defer rows.Close()

	snaps := make([]ScoreSnapshot, 0)
	for rows.Next() {
		var snap ScoreSnapshot
		var riskLevel, behaviorLevel string
		err := rows.Scan(
			&snap.UserID, &snap.TakenAt, &snap.RiskScore, &riskLevel,
			&snap.BehaviorScore, &behaviorLevel, &snap.TotalValue, &snap.PolicyHash,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score snapshot: %w", err)
		}
		snap.RiskLevel = contracts.Level(riskLevel)
		snap.BehaviorLevel = contracts.Level(behaviorLevel)
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return snaps, nil
}
