package simulation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/risk"
)

// Engine evaluates hypothetical portfolio mutations against the risk engine
type Engine struct {
	risk   *risk.Engine
	policy *policy.Policy
}

// NewEngine creates a simulation engine on top of a risk engine.
// The risk engine's policy also drives candidate generation.
func NewEngine(riskEngine *risk.Engine) *Engine {
	return &Engine{risk: riskEngine, policy: riskEngine.Policy()}
}

// SimulateAdjustment scores mutated against original.
// Delta is original minus mutated composite, so a positive delta means less risk.
func (e *Engine) SimulateAdjustment(original, mutated []contracts.Holding, history []contracts.HistoryEntry) contracts.SimulationResult {
	current := e.risk.ComputeRiskBreakdown(original, history)
	return e.simulateAgainst(current, mutated, history)
}

func (e *Engine) simulateAgainst(current contracts.RiskBreakdown, mutated []contracts.Holding, history []contracts.HistoryEntry) contracts.SimulationResult {
	next := e.risk.ComputeRiskBreakdown(mutated, history)
	delta := decimal.NewFromFloat(current.Composite).
		Sub(decimal.NewFromFloat(next.Composite)).
		Round(1).
		InexactFloat64()

	return contracts.SimulationResult{
		NewScore:     next.Composite,
		NewLevel:     next.Level,
		Delta:        delta,
		Improved:     delta > 0,
		NewBreakdown: next,
	}
}

// GenerateRebalanceSuggestions evaluates every triggered candidate on the
// unmutated portfolio and returns the improving ones, best first.
// Suggestions with equal deltas keep candidate order.
func (e *Engine) GenerateRebalanceSuggestions(holdings []contracts.Holding, history []contracts.HistoryEntry) []contracts.RebalanceSuggestion {
	out := make([]contracts.RebalanceSuggestion, 0)
	if len(holdings) == 0 {
		return out
	}

	current := e.risk.ComputeRiskBreakdown(holdings, history)
	for _, c := range e.Candidates(holdings) {
		sim := e.simulateAgainst(current, c.Mutated, history)
		if !sim.Improved {
			continue
		}
		s := c.Suggestion
		s.SimulatedScore = sim.NewScore
		s.Delta = sim.Delta
		s.Improved = sim.Improved
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Delta > out[j].Delta
	})
	if limit := e.policy.Simulation.MaxSuggestions; len(out) > limit {
		out = out[:limit]
	}
	return out
}
