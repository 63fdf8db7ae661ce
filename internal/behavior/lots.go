package behavior

import (
	"time"

	"github.com/wonny/risklens/internal/contracts"
)

type pendingLot struct {
	timestamp time.Time
	price     float64
}

// LotMatch is the outcome of FIFO lot matching
type LotMatch struct {
	Closed    []contracts.Trade        // ADD paired with a later REMOVE, in REMOVE order
	Open      []contracts.Trade        // ADDs still pending, oldest first per symbol
	Unmatched []contracts.HistoryEntry // REMOVEs with no pending ADD
}

// MatchLots pairs ADDs and REMOVEs per symbol, first in first out.
// Entries are processed in timestamp order (stable for ties). A REMOVE with
// no pending ADD for its symbol produces no trade and is reported in Unmatched.
func MatchLots(history []contracts.HistoryEntry) LotMatch {
	queues := make(map[string][]pendingLot)
	var symbols []string

	m := LotMatch{
		Closed:    make([]contracts.Trade, 0),
		Open:      make([]contracts.Trade, 0),
		Unmatched: make([]contracts.HistoryEntry, 0),
	}

	for _, e := range contracts.SortedByTime(history) {
		switch e.Action {
		case contracts.ActionAdd:
			if _, seen := queues[e.Symbol]; !seen {
				symbols = append(symbols, e.Symbol)
			}
			queues[e.Symbol] = append(queues[e.Symbol], pendingLot{timestamp: e.Timestamp, price: e.Price})

		case contracts.ActionRemove:
			q := queues[e.Symbol]
			if len(q) == 0 {
				m.Unmatched = append(m.Unmatched, e)
				continue
			}
			lot := q[0]
			queues[e.Symbol] = q[1:]

			removedAt := e.Timestamp
			removePrice := e.Price
			m.Closed = append(m.Closed, contracts.Trade{
				Symbol:          e.Symbol,
				AddTimestamp:    lot.timestamp,
				AddPrice:        lot.price,
				RemoveTimestamp: &removedAt,
				RemovePrice:     &removePrice,
			})
		}
	}

	for _, sym := range symbols {
		for _, lot := range queues[sym] {
			m.Open = append(m.Open, contracts.Trade{
				Symbol:       sym,
				AddTimestamp: lot.timestamp,
				AddPrice:     lot.price,
			})
		}
	}

	return m
}

// CountRepeatBuys counts ADDs that follow a REMOVE of the same symbol within
// window (inclusive). Each qualifying ADD counts once however many REMOVEs precede it.
func CountRepeatBuys(history []contracts.HistoryEntry, window time.Duration) int {
	sells := make(map[string][]time.Time)
	count := 0

	for _, e := range contracts.SortedByTime(history) {
		switch e.Action {
		case contracts.ActionRemove:
			sells[e.Symbol] = append(sells[e.Symbol], e.Timestamp)
		case contracts.ActionAdd:
			for _, soldAt := range sells[e.Symbol] {
				gap := e.Timestamp.Sub(soldAt)
				if gap >= 0 && gap <= window {
					count++
					break
				}
			}
		}
	}

	return count
}
