package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/valuation"
)

// Candidate IDs
const (
	CandidateReduceTopHolding = "reduce-top-holding"
	CandidateRemoveHighDebt   = "remove-high-debt"
	CandidateReduceOvervalued = "reduce-overvalued"
	CandidateBalanceSector    = "balance-sector"
)

// Candidate is a proposed mutation before it has been scored
type Candidate struct {
	Suggestion contracts.RebalanceSuggestion
	Mutated    []contracts.Holding
}

// Candidates runs the generators in order and returns the triggered ones.
// The input is never modified; each candidate owns its mutated copy.
func (e *Engine) Candidates(holdings []contracts.Holding) []Candidate {
	out := make([]Candidate, 0, 4)
	if len(holdings) == 0 {
		return out
	}

	total := valuation.TotalCurrent(holdings)
	generators := []func([]contracts.Holding, decimal.Decimal) (Candidate, bool){
		e.reduceTopHolding,
		e.removeHighDebt,
		e.reduceOvervalued,
		e.balanceSector,
	}
	for _, gen := range generators {
		if c, ok := gen(holdings, total); ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) reduceTopHolding(holdings []contracts.Holding, total decimal.Decimal) (Candidate, bool) {
	sp := e.policy.Simulation
	i := valuation.Largest(holdings)
	if i < 0 {
		return Candidate{}, false
	}
	top := holdings[i]
	alloc := valuation.Allocation(top, total)
	if alloc.InexactFloat64() <= sp.TopHoldingPct || top.CurrentPrice <= 0 {
		return Candidate{}, false
	}

	target := total.Mul(decimal.NewFromFloat(sp.TopHoldingPct)).Div(decimal.NewFromInt(100))
	qty := floorQuantity(target, top.CurrentPrice)

	return Candidate{
		Suggestion: contracts.RebalanceSuggestion{
			ID:    CandidateReduceTopHolding,
			Title: fmt.Sprintf("Reduce %s Allocation", displayName(top)),
			Description: fmt.Sprintf("Currently at %.1f%%. Reducing to %.0f%% would lower concentration risk and improve portfolio balance.",
				alloc.InexactFloat64(), sp.TopHoldingPct),
			Action:           contracts.SuggestReduce,
			TargetSymbol:     top.Symbol,
			TargetAllocation: sp.TopHoldingPct,
			TargetQuantity:   qty,
		},
		Mutated: withQuantity(holdings, i, qty),
	}, true
}

func (e *Engine) removeHighDebt(holdings []contracts.Holding, _ decimal.Decimal) (Candidate, bool) {
	sp := e.policy.Simulation
	best := -1
	for i, h := range holdings {
		if h.DebtEquity <= sp.HighDebtRatio {
			continue
		}
		if best < 0 || h.DebtEquity > holdings[best].DebtEquity {
			best = i
		}
	}
	if best < 0 || len(holdings) < 2 {
		return Candidate{}, false
	}
	target := holdings[best]

	mutated := make([]contracts.Holding, 0, len(holdings)-1)
	for i, h := range holdings {
		if i != best {
			mutated = append(mutated, h)
		}
	}

	return Candidate{
		Suggestion: contracts.RebalanceSuggestion{
			ID:    CandidateRemoveHighDebt,
			Title: "Remove High Debt Stock",
			Description: fmt.Sprintf("%s has a debt-to-equity ratio of %.2f. Removing it would reduce portfolio debt exposure.",
				displayName(target), target.DebtEquity),
			Action:       contracts.SuggestRemove,
			TargetSymbol: target.Symbol,
		},
		Mutated: mutated,
	}, true
}

func (e *Engine) reduceOvervalued(holdings []contracts.Holding, _ decimal.Decimal) (Candidate, bool) {
	sp := e.policy.Simulation
	best := -1
	for i, h := range holdings {
		if h.PERatio <= sp.OvervaluedPE {
			continue
		}
		if best < 0 || h.PERatio > holdings[best].PERatio {
			best = i
		}
	}
	if best < 0 || holdings[best].CurrentPrice <= 0 {
		return Candidate{}, false
	}
	target := holdings[best]

	value := valuation.Current(target).Mul(decimal.NewFromFloat(sp.OvervaluedShrink))
	qty := e.atLeastMin(floorQuantity(value, target.CurrentPrice))

	return Candidate{
		Suggestion: contracts.RebalanceSuggestion{
			ID:    CandidateReduceOvervalued,
			Title: "Reduce Overvalued Position",
			Description: fmt.Sprintf("%s has a P/E ratio of %.1f. Reducing exposure would lower valuation risk.",
				displayName(target), target.PERatio),
			Action:         contracts.SuggestReduce,
			TargetSymbol:   target.Symbol,
			TargetQuantity: qty,
		},
		Mutated: withQuantity(holdings, best, qty),
	}, true
}

func (e *Engine) balanceSector(holdings []contracts.Holding, total decimal.Decimal) (Candidate, bool) {
	sp := e.policy.Simulation
	top, ok := valuation.LargestSector(valuation.SectorTotals(holdings))
	if !ok {
		return Candidate{}, false
	}
	alloc := valuation.Percent(top.Value, total)
	if alloc.InexactFloat64() <= sp.SectorPct {
		return Candidate{}, false
	}

	best := -1
	var bestValue decimal.Decimal
	for i, h := range holdings {
		if h.Sector != top.Sector {
			continue
		}
		if v := valuation.Current(h); best < 0 || v.GreaterThan(bestValue) {
			best = i
			bestValue = v
		}
	}
	if best < 0 || holdings[best].CurrentPrice <= 0 {
		return Candidate{}, false
	}
	target := holdings[best]

	value := bestValue.Mul(decimal.NewFromFloat(sp.SectorShrink))
	qty := e.atLeastMin(floorQuantity(value, target.CurrentPrice))

	return Candidate{
		Suggestion: contracts.RebalanceSuggestion{
			ID:    CandidateBalanceSector,
			Title: fmt.Sprintf("Reduce %s Sector Exposure", top.Sector),
			Description: fmt.Sprintf("%s sector represents %.1f%% of portfolio. Reducing concentration would improve diversification.",
				top.Sector, alloc.InexactFloat64()),
			Action:         contracts.SuggestReduce,
			TargetSymbol:   target.Symbol,
			TargetQuantity: qty,
		},
		Mutated: withQuantity(holdings, best, qty),
	}, true
}

// floorQuantity returns floor(value / price) as whole shares
func floorQuantity(value decimal.Decimal, price float64) float64 {
	return value.Div(decimal.NewFromFloat(price)).Floor().InexactFloat64()
}

func (e *Engine) atLeastMin(qty float64) float64 {
	if qty < e.policy.Simulation.MinQuantity {
		return e.policy.Simulation.MinQuantity
	}
	return qty
}

// withQuantity copies holdings with the quantity at index i replaced
func withQuantity(holdings []contracts.Holding, i int, qty float64) []contracts.Holding {
	out := contracts.CloneHoldings(holdings)
	out[i] = out[i].WithQuantity(qty)
	return out
}

func displayName(h contracts.Holding) string {
	if h.Name != "" {
		return h.Name
	}
	return h.Symbol
}
