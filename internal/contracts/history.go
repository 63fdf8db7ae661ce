package contracts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Action is the kind of a history entry (tagged variant)
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionRemove Action = "REMOVE"
)

// Valid reports whether a is ADD or REMOVE
func (a Action) Valid() bool {
	return a == ActionAdd || a == ActionRemove
}

// ParseAction parses ADD/REMOVE case-insensitively
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(raw))) {
	case ActionAdd:
		return ActionAdd, nil
	case ActionRemove:
		return ActionRemove, nil
	default:
		return "", fmt.Errorf("unknown action %q", raw)
	}
}

// UnmarshalJSON rejects anything but ADD/REMOVE
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("action must be a string: %w", err)
	}
	parsed, err := ParseAction(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// HistoryEntry is one immutable transaction log record
// Entries are append-only: created once when a holding is added or removed.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Since returns the entries with Timestamp >= cutoff, in input order.
// The input slice is not modified.
func Since(history []HistoryEntry, cutoff time.Time) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(history))
	for _, e := range history {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// SortedByTime returns a copy of history ordered by timestamp.
// Entries sharing a timestamp keep their log order.
func SortedByTime(history []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
