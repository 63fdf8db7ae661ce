package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/risklens/internal/contracts"
)

var hundred = decimal.NewFromInt(100)

// Invested returns quantity × buy price
func Invested(h contracts.Holding) decimal.Decimal {
	return decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(h.BuyPrice))
}

// Current returns quantity × current price
func Current(h contracts.Holding) decimal.Decimal {
	return decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(h.CurrentPrice))
}

// GainLoss returns current value minus invested value
func GainLoss(h contracts.Holding) decimal.Decimal {
	return Current(h).Sub(Invested(h))
}

// GainLossPercent returns the gain as a percentage of invested value, 0 when nothing was invested
func GainLossPercent(h contracts.Holding) decimal.Decimal {
	return Percent(GainLoss(h), Invested(h))
}

// TotalInvested sums Invested over holdings
func TotalInvested(holdings []contracts.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(Invested(h))
	}
	return total
}

// TotalCurrent sums Current over holdings
func TotalCurrent(holdings []contracts.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(Current(h))
	}
	return total
}

// TotalGainLoss returns TotalCurrent - TotalInvested
func TotalGainLoss(holdings []contracts.Holding) decimal.Decimal {
	return TotalCurrent(holdings).Sub(TotalInvested(holdings))
}

// PortfolioReturn returns the total gain as a percentage of total invested
func PortfolioReturn(holdings []contracts.Holding) decimal.Decimal {
	return Percent(TotalGainLoss(holdings), TotalInvested(holdings))
}

// Percent returns part/total×100, or 0 when total is not positive
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

// Allocation returns a holding's share of total current value in percent
func Allocation(h contracts.Holding, total decimal.Decimal) decimal.Decimal {
	return Percent(Current(h), total)
}

// SectorTotal is the current value held in one sector
type SectorTotal struct {
	Sector contracts.Sector
	Value  decimal.Decimal
}

// SectorTotals groups current value by sector, in order of first appearance
func SectorTotals(holdings []contracts.Holding) []SectorTotal {
	index := make(map[contracts.Sector]int)
	out := make([]SectorTotal, 0)
	for _, h := range holdings {
		i, ok := index[h.Sector]
		if !ok {
			i = len(out)
			index[h.Sector] = i
			out = append(out, SectorTotal{Sector: h.Sector, Value: decimal.Zero})
		}
		out[i].Value = out[i].Value.Add(Current(h))
	}
	return out
}

// LargestSector returns the sector with the highest value; ties keep the first seen
func LargestSector(totals []SectorTotal) (SectorTotal, bool) {
	if len(totals) == 0 {
		return SectorTotal{}, false
	}
	best := totals[0]
	for _, st := range totals[1:] {
		if st.Value.GreaterThan(best.Value) {
			best = st
		}
	}
	return best, true
}

// Largest returns the index of the holding with the highest current value.
// Ties keep the earliest holding; -1 for an empty slice.
func Largest(holdings []contracts.Holding) int {
	best := -1
	var bestValue decimal.Decimal
	for i, h := range holdings {
		v := Current(h)
		if best < 0 || v.GreaterThan(bestValue) {
			best = i
			bestValue = v
		}
	}
	return best
}

// WeightedAverage returns Σ value×metric / Σ value, or 0 when total value is not positive
func WeightedAverage(holdings []contracts.Holding, metric func(contracts.Holding) float64) decimal.Decimal {
	total := decimal.Zero
	weighted := decimal.Zero
	for _, h := range holdings {
		v := Current(h)
		total = total.Add(v)
		weighted = weighted.Add(v.Mul(decimal.NewFromFloat(metric(h))))
	}
	if !total.IsPositive() {
		return decimal.Zero
	}
	return weighted.Div(total)
}
