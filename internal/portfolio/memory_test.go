package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/risklens/internal/contracts"
)

func TestMemoryStoreHoldings(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	empty, err := store.ListHoldings(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a := contracts.Holding{ID: "a", Symbol: "A", Quantity: 1}
	b := contracts.Holding{ID: "b", Symbol: "B", Quantity: 2}
	require.NoError(t, store.SaveHolding(ctx, "u1", a))
	require.NoError(t, store.SaveHolding(ctx, "u1", b))

	a.Quantity = 5
	require.NoError(t, store.SaveHolding(ctx, "u1", a))

	list, err := store.ListHoldings(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 5.0, list[0].Quantity, "save replaces by id in place")

	list[1].Quantity = 99
	got, err := store.GetHolding(ctx, "u1", "b")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Quantity, "returned slices are copies")

	require.NoError(t, store.DeleteHolding(ctx, "u1", "a"))
	assert.ErrorIs(t, store.DeleteHolding(ctx, "u1", "a"), ErrHoldingNotFound)
	_, err = store.GetHolding(ctx, "u2", "b")
	assert.ErrorIs(t, err, ErrHoldingNotFound)

	updated, err := store.UpdatePrices(ctx, "u1", map[string]float64{"B": 7, "Z": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
}

func TestMemoryStoreHistory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendHistory(ctx, "u1", contracts.HistoryEntry{
			ID: string(rune('a' + i)), Action: contracts.ActionAdd, Symbol: "A", Timestamp: base.AddDate(0, 0, i),
		}))
	}
	require.NoError(t, store.AppendHistory(ctx, "u2", contracts.HistoryEntry{ID: "z", Timestamp: base}))

	all, err := store.ListHistory(ctx, "u1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	since, err := store.ListHistory(ctx, "u1", base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "c", since[0].ID, "since is inclusive")

	pruned, err := store.PruneHistory(ctx, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned, "prunes across users")

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, users)
}

func TestMemoryStoreScoreSnapshots(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveScoreSnapshot(ctx, ScoreSnapshot{
			UserID: "u1", TakenAt: base.Add(time.Duration(i) * time.Hour), RiskScore: float64(i),
		}))
	}

	snaps, err := store.ListScoreSnapshots(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2.0, snaps[0].RiskScore, "newest first")
	assert.Equal(t, 1.0, snaps[1].RiskScore)

	all, err := store.ListScoreSnapshots(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStoreAtomicMutations(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	h := contracts.Holding{ID: "a", Symbol: "A", Quantity: 1}
	require.NoError(t, store.AddHoldingWithEntry(ctx, "u1", h,
		contracts.HistoryEntry{ID: "e1", Action: contracts.ActionAdd, Symbol: "A", Timestamp: ts}))

	err := store.RemoveHoldingWithEntry(ctx, "u1", "missing",
		contracts.HistoryEntry{ID: "e2", Action: contracts.ActionRemove, Symbol: "A", Timestamp: ts})
	assert.ErrorIs(t, err, ErrHoldingNotFound)

	history, err := store.ListHistory(ctx, "u1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, history, 1, "a failed remove appends nothing")

	require.NoError(t, store.RemoveHoldingWithEntry(ctx, "u1", "a",
		contracts.HistoryEntry{ID: "e3", Action: contracts.ActionRemove, Symbol: "A", Timestamp: ts}))

	holdings, _ := store.ListHoldings(ctx, "u1")
	assert.Empty(t, holdings)
	history, _ = store.ListHistory(ctx, "u1", time.Time{})
	require.Len(t, history, 2)
	assert.Equal(t, contracts.ActionRemove, history[1].Action)
}
