package portfolio

import (
	"context"
	"time"

	"github.com/wonny/risklens/internal/contracts"
)

// Store persists holdings, history and score snapshots per user.
// Implementations return copies; callers may mutate what they receive.
type Store interface {
	ListHoldings(ctx context.Context, userID string) ([]contracts.Holding, error)
	GetHolding(ctx context.Context, userID, holdingID string) (contracts.Holding, error)
	SaveHolding(ctx context.Context, userID string, h contracts.Holding) error
	DeleteHolding(ctx context.Context, userID, holdingID string) error
	// UpdatePrices sets CurrentPrice on every holding whose symbol is in prices
	// and returns how many holdings changed.
	UpdatePrices(ctx context.Context, userID string, prices map[string]float64) (int, error)

	// AddHoldingWithEntry saves a new holding and appends its ADD entry atomically.
	AddHoldingWithEntry(ctx context.Context, userID string, h contracts.Holding, entry contracts.HistoryEntry) error
	// RemoveHoldingWithEntry deletes a holding and appends its REMOVE entry atomically.
	// A missing holding returns ErrHoldingNotFound and appends nothing.
	RemoveHoldingWithEntry(ctx context.Context, userID, holdingID string, entry contracts.HistoryEntry) error

	AppendHistory(ctx context.Context, userID string, entry contracts.HistoryEntry) error
	// ListHistory returns entries with Timestamp >= since in log order. A zero since returns all.
	ListHistory(ctx context.Context, userID string, since time.Time) ([]contracts.HistoryEntry, error)
	// PruneHistory deletes entries older than before for every user.
	PruneHistory(ctx context.Context, before time.Time) (int64, error)

	ListUsers(ctx context.Context) ([]string, error)

	SaveScoreSnapshot(ctx context.Context, snap ScoreSnapshot) error
	// ListScoreSnapshots returns the newest snapshots first, at most limit (0 = all).
	ListScoreSnapshots(ctx context.Context, userID string, limit int) ([]ScoreSnapshot, error)
}

// ScoreSnapshot is a persisted point-in-time score
type ScoreSnapshot struct {
	UserID        string          `json:"user_id"`
	TakenAt       time.Time       `json:"taken_at"`
	RiskScore     float64         `json:"risk_score"`
	RiskLevel     contracts.Level `json:"risk_level"`
	BehaviorScore float64         `json:"behavior_score"`
	BehaviorLevel contracts.Level `json:"behavior_level"`
	TotalValue    float64         `json:"total_value"`
	PolicyHash    string          `json:"policy_hash"`
}
