package portfolio

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/risklens/internal/contracts"
)

type userData struct {
	holdings  []contracts.Holding
	history   []contracts.HistoryEntry
	snapshots []ScoreSnapshot
}

// MemoryStore keeps everything in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userData
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*userData)}
}

func (m *MemoryStore) user(userID string) *userData {
	u, ok := m.users[userID]
	if !ok {
		u = &userData{}
		m.users[userID] = u
	}
	return u
}

// ListHoldings returns a copy of the user's holdings in insertion order
func (m *MemoryStore) ListHoldings(_ context.Context, userID string) ([]contracts.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return []contracts.Holding{}, nil
	}
	out := make([]contracts.Holding, len(u.holdings))
	copy(out, u.holdings)
	return out, nil
}

func (m *MemoryStore) GetHolding(_ context.Context, userID, holdingID string) (contracts.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return contracts.Holding{}, ErrHoldingNotFound
	}
	h, found := contracts.FindHolding(u.holdings, holdingID)
	if !found {
		return contracts.Holding{}, ErrHoldingNotFound
	}
	return h, nil
}

// SaveHolding inserts h or replaces the holding with the same id
func (m *MemoryStore) SaveHolding(_ context.Context, userID string, h contracts.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.user(userID)
	for i := range u.holdings {
		if u.holdings[i].ID == h.ID {
			u.holdings[i] = h
			return nil
		}
	}
	u.holdings = append(u.holdings, h)
	return nil
}

func (m *MemoryStore) DeleteHolding(_ context.Context, userID, holdingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteLocked(userID, holdingID)
}

func (m *MemoryStore) deleteLocked(userID, holdingID string) error {
	u, ok := m.users[userID]
	if !ok {
		return ErrHoldingNotFound
	}
	for i := range u.holdings {
		if u.holdings[i].ID == holdingID {
			u.holdings = append(u.holdings[:i:i], u.holdings[i+1:]...)
			return nil
		}
	}
	return ErrHoldingNotFound
}

// AddHoldingWithEntry appends h and its history entry under one lock
func (m *MemoryStore) AddHoldingWithEntry(_ context.Context, userID string, h contracts.Holding, entry contracts.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.user(userID)
	u.holdings = append(u.holdings, h)
	u.history = append(u.history, entry)
	return nil
}

// RemoveHoldingWithEntry deletes the holding and appends entry under one lock
func (m *MemoryStore) RemoveHoldingWithEntry(_ context.Context, userID, holdingID string, entry contracts.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.deleteLocked(userID, holdingID); err != nil {
		return err
	}
	u := m.user(userID)
	u.history = append(u.history, entry)
	return nil
}

func (m *MemoryStore) UpdatePrices(_ context.Context, userID string, prices map[string]float64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return 0, nil
	}
	updated := 0
	for i := range u.holdings {
		if price, ok := prices[u.holdings[i].Symbol]; ok {
			u.holdings[i].CurrentPrice = price
			updated++
		}
	}
	return updated, nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, userID string, entry contracts.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.user(userID)
	u.history = append(u.history, entry)
	return nil
}

func (m *MemoryStore) ListHistory(_ context.Context, userID string, since time.Time) ([]contracts.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return []contracts.HistoryEntry{}, nil
	}
	if since.IsZero() {
		out := make([]contracts.HistoryEntry, len(u.history))
		copy(out, u.history)
		return out, nil
	}
	return contracts.Since(u.history, since), nil
}

func (m *MemoryStore) PruneHistory(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned int64
	for _, u := range m.users {
		kept := contracts.Since(u.history, before)
		pruned += int64(len(u.history) - len(kept))
		u.history = kept
	}
	return pruned, nil
}

// ListUsers returns every user with stored data, sorted
func (m *MemoryStore) ListUsers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.users))
	for id := range m.users {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}

func (m *MemoryStore) SaveScoreSnapshot(_ context.Context, snap ScoreSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.user(snap.UserID)
	u.snapshots = append(u.snapshots, snap)
	return nil
}

func (m *MemoryStore) ListScoreSnapshots(_ context.Context, userID string, limit int) ([]ScoreSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return []ScoreSnapshot{}, nil
	}
	out := make([]ScoreSnapshot, len(u.snapshots))
	copy(out, u.snapshots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TakenAt.After(out[j].TakenAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
