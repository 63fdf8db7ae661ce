package contracts

import "time"

// Trade pairs one ADD with a later REMOVE of the same symbol
// Derived from history by FIFO lot matching, never persisted.
// RemoveTimestamp/RemovePrice are nil while the lot is still open.
type Trade struct {
	Symbol          string     `json:"symbol"`
	AddTimestamp    time.Time  `json:"add_timestamp"`
	AddPrice        float64    `json:"add_price"`
	RemoveTimestamp *time.Time `json:"remove_timestamp,omitempty"`
	RemovePrice     *float64   `json:"remove_price,omitempty"`
}

// Closed reports whether the trade has been matched with a REMOVE
func (t Trade) Closed() bool {
	return t.RemoveTimestamp != nil && t.RemovePrice != nil
}

// HoldingPeriod returns the time between ADD and REMOVE, 0 for open trades
func (t Trade) HoldingPeriod() time.Duration {
	if !t.Closed() {
		return 0
	}
	return t.RemoveTimestamp.Sub(t.AddTimestamp)
}

// IsLoss reports whether a closed trade sold below its purchase price
func (t Trade) IsLoss() bool {
	if !t.Closed() {
		return false
	}
	return *t.RemovePrice < t.AddPrice
}
