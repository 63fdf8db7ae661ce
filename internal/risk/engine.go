package risk

import (
	"time"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/scoring"
	"github.com/wonny/risklens/internal/valuation"
)

// =============================================================================
// Engine - pure calculator
// =============================================================================

// Engine scores portfolio risk.
// It holds only an immutable policy and a clock, so it is safe for concurrent use.
type Engine struct {
	policy *policy.Policy
	now    func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the clock used for the activity window
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a risk engine; a nil policy means policy.Default()
func NewEngine(p *policy.Policy, opts ...Option) *Engine {
	if p == nil {
		p = policy.Default()
	}
	e := &Engine{policy: p, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's policy
func (e *Engine) Policy() *policy.Policy {
	return e.policy
}

// =============================================================================
// Risk breakdown
// =============================================================================

// ComputeRiskBreakdown scores the five risk factors and their weighted composite.
// An empty portfolio scores 0 everywhere. A portfolio with zero total value
// scores 0 on the four holdings factors but still scores recent activity.
func (e *Engine) ComputeRiskBreakdown(holdings []contracts.Holding, history []contracts.HistoryEntry) contracts.RiskBreakdown {
	if len(holdings) == 0 {
		return contracts.RiskBreakdown{Level: scoring.LevelFor(0, e.policy.Levels)}
	}

	rp := e.policy.Risk
	stats := e.ComputeStats(holdings, history)

	var b contracts.RiskBreakdown
	if stats.TotalValue > 0 {
		b.Concentration = rp.Concentration.Score(stats.MaxHoldingPct)
		b.Sector = rp.Sector.Score(stats.MaxSectorPct)
		b.Debt = rp.Debt.Score(stats.WeightedDebtEquity)
		b.Valuation = rp.Valuation.Score(stats.ValuationPremiumPct)
	}
	b.Behavioral = rp.Behavioral.Score(float64(stats.WindowTransactions))

	b.Composite = scoring.Composite(scoring.Weighted(b.Scores(), rp.Weights.Values()))
	b.Level = scoring.LevelFor(b.Composite, e.policy.Levels)
	return b
}

// Stats are the raw statistics behind the risk factors
type Stats struct {
	TotalValue          float64          `json:"total_value"`
	MaxHoldingPct       float64          `json:"max_holding_pct"`
	TopHoldingSymbol    string           `json:"top_holding_symbol"`
	TopHoldingName      string           `json:"top_holding_name"`
	MaxSectorPct        float64          `json:"max_sector_pct"`
	TopSector           contracts.Sector `json:"top_sector"`
	WeightedDebtEquity  float64          `json:"weighted_debt_equity"`
	WeightedPE          float64          `json:"weighted_pe"`
	WeightedSectorPE    float64          `json:"weighted_sector_pe"`
	ValuationPremiumPct float64          `json:"valuation_premium_pct"`
	WindowTransactions  int              `json:"window_transactions"`
}

// ComputeStats derives the factor statistics.
// History is filtered to the trailing window here, so pre-filtered input gives the same result.
func (e *Engine) ComputeStats(holdings []contracts.Holding, history []contracts.HistoryEntry) Stats {
	rp := e.policy.Risk
	cutoff := e.now().Add(-time.Duration(rp.WindowDays) * 24 * time.Hour)

	s := Stats{WindowTransactions: len(contracts.Since(history, cutoff))}

	total := valuation.TotalCurrent(holdings)
	if !total.IsPositive() {
		return s
	}
	s.TotalValue = total.InexactFloat64()

	if i := valuation.Largest(holdings); i >= 0 {
		s.TopHoldingSymbol = holdings[i].Symbol
		s.TopHoldingName = holdings[i].Name
		if s.TopHoldingName == "" {
			s.TopHoldingName = holdings[i].Symbol
		}
		s.MaxHoldingPct = valuation.Allocation(holdings[i], total).InexactFloat64()
	}

	if top, ok := valuation.LargestSector(valuation.SectorTotals(holdings)); ok {
		s.TopSector = top.Sector
		s.MaxSectorPct = valuation.Percent(top.Value, total).InexactFloat64()
	}

	s.WeightedDebtEquity = valuation.WeightedAverage(holdings, func(h contracts.Holding) float64 {
		return h.DebtEquity
	}).InexactFloat64()

	pe := valuation.WeightedAverage(holdings, func(h contracts.Holding) float64 {
		return h.PERatio
	})
	sectorPE := valuation.WeightedAverage(holdings, func(h contracts.Holding) float64 {
		return rp.ReferencePE(h.Sector)
	})
	s.WeightedPE = pe.InexactFloat64()
	s.WeightedSectorPE = sectorPE.InexactFloat64()
	s.ValuationPremiumPct = valuation.Percent(pe.Sub(sectorPE), sectorPE).InexactFloat64()

	return s
}
