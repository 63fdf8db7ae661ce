package contracts

import "time"

// Holding is one portfolio position
// Quantity > 0 while the holding is active; a zero quantity means removed.
type Holding struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Quantity     float64   `json:"quantity"`
	BuyPrice     float64   `json:"buy_price"`
	CurrentPrice float64   `json:"current_price"`
	Sector       Sector    `json:"sector"`
	PERatio      float64   `json:"pe_ratio"`
	DebtEquity   float64   `json:"debt_equity"`
	ROE          float64   `json:"roe"`
	Beta         float64   `json:"beta"`
	AddedAt      time.Time `json:"added_at"`
}

// Active reports whether the holding still counts as a position
func (h Holding) Active() bool {
	return h.Quantity > 0
}

// WithQuantity returns a copy of the holding with a different quantity
func (h Holding) WithQuantity(qty float64) Holding {
	h.Quantity = qty
	return h
}

// CloneHoldings returns a shallow copy of the slice.
// Holding has no reference fields, so the copy is fully independent.
func CloneHoldings(holdings []Holding) []Holding {
	if holdings == nil {
		return nil
	}
	out := make([]Holding, len(holdings))
	copy(out, holdings)
	return out
}

// FindHolding finds a holding by id
func FindHolding(holdings []Holding, id string) (Holding, bool) {
	for _, h := range holdings {
		if h.ID == id {
			return h, true
		}
	}
	return Holding{}, false
}
