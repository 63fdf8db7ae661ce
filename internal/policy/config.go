package policy

import "github.com/wonny/risklens/internal/contracts"

// Policy is the full set of thresholds, bucket scores and weights used by the engines
type Policy struct {
	Risk       RiskPolicy       `yaml:"risk" json:"risk"`
	Behavior   BehaviorPolicy   `yaml:"behavior" json:"behavior"`
	Simulation SimulationPolicy `yaml:"simulation" json:"simulation"`
	Levels     LevelCutoffs     `yaml:"levels" json:"levels"`
}

// =============================================================================
// Risk
// =============================================================================

// RiskPolicy configures the multi-factor risk engine
type RiskPolicy struct {
	WindowDays    int         `yaml:"window_days" json:"window_days"`
	Concentration Ladder      `yaml:"concentration" json:"concentration"` // max holding %
	Sector        Ladder      `yaml:"sector" json:"sector"`               // max sector %
	Debt          Ladder      `yaml:"debt" json:"debt"`                   // weighted D/E
	Valuation     Ladder      `yaml:"valuation" json:"valuation"`         // P/E premium %
	Behavioral    Ladder      `yaml:"behavioral" json:"behavioral"`       // window tx count
	Weights       RiskWeights `yaml:"weights" json:"weights"`

	SectorPE   map[contracts.Sector]float64 `yaml:"sector_pe" json:"sector_pe"`
	FallbackPE float64                      `yaml:"fallback_pe" json:"fallback_pe"`
}

// RiskWeights are the composite weights of the five risk factors
type RiskWeights struct {
	Concentration float64 `yaml:"concentration" json:"concentration"`
	Sector        float64 `yaml:"sector" json:"sector"`
	Debt          float64 `yaml:"debt" json:"debt"`
	Valuation     float64 `yaml:"valuation" json:"valuation"`
	Behavioral    float64 `yaml:"behavioral" json:"behavioral"`
}

// Values returns the weights in factor order
func (w RiskWeights) Values() []float64 {
	return []float64{w.Concentration, w.Sector, w.Debt, w.Valuation, w.Behavioral}
}

// ReferencePE returns the sector P/E benchmark, or the fallback for unknown sectors
func (r RiskPolicy) ReferencePE(sector contracts.Sector) float64 {
	if pe, ok := r.SectorPE[sector]; ok {
		return pe
	}
	return r.FallbackPE
}

// =============================================================================
// Behavior
// =============================================================================

// BehaviorPolicy configures the behavior engine
type BehaviorPolicy struct {
	WindowDays       int             `yaml:"window_days" json:"window_days"`
	TimingWindowDays int             `yaml:"timing_window_days" json:"timing_window_days"`
	Overtrading      Ladder          `yaml:"overtrading" json:"overtrading"`     // window tx count
	ShortHolding     Ladder          `yaml:"short_holding" json:"short_holding"` // mean days held
	LossSelling      Ladder          `yaml:"loss_selling" json:"loss_selling"`   // loss %
	Timing           Ladder          `yaml:"timing" json:"timing"`               // repeat buys
	NoTradesScore    contracts.Score `yaml:"no_trades_score" json:"no_trades_score"`
	Weights          BehaviorWeights `yaml:"weights" json:"weights"`
}

// BehaviorWeights are the composite weights of the four behavior scores
type BehaviorWeights struct {
	Overtrading  float64 `yaml:"overtrading" json:"overtrading"`
	ShortHolding float64 `yaml:"short_holding" json:"short_holding"`
	LossSelling  float64 `yaml:"loss_selling" json:"loss_selling"`
	Timing       float64 `yaml:"timing" json:"timing"`
}

// Values returns the weights in score order
func (w BehaviorWeights) Values() []float64 {
	return []float64{w.Overtrading, w.ShortHolding, w.LossSelling, w.Timing}
}

// =============================================================================
// Simulation
// =============================================================================

// SimulationPolicy configures the rebalance candidate generators
type SimulationPolicy struct {
	TopHoldingPct    float64 `yaml:"top_holding_pct" json:"top_holding_pct"`       // trigger and target
	HighDebtRatio    float64 `yaml:"high_debt_ratio" json:"high_debt_ratio"`       // D/E trigger
	OvervaluedPE     float64 `yaml:"overvalued_pe" json:"overvalued_pe"`           // P/E trigger
	OvervaluedShrink float64 `yaml:"overvalued_shrink" json:"overvalued_shrink"`   // value kept
	SectorPct        float64 `yaml:"sector_pct" json:"sector_pct"`                 // sector trigger
	SectorShrink     float64 `yaml:"sector_shrink" json:"sector_shrink"`           // value kept
	MinQuantity      float64 `yaml:"min_quantity" json:"min_quantity"`             // floor for shrink candidates
	MaxSuggestions   int     `yaml:"max_suggestions" json:"max_suggestions"`
}

// =============================================================================
// Levels
// =============================================================================

// LevelCutoffs are the lower bounds of Moderate, High and Very High
type LevelCutoffs struct {
	Moderate float64 `yaml:"moderate" json:"moderate"`
	High     float64 `yaml:"high" json:"high"`
	VeryHigh float64 `yaml:"very_high" json:"very_high"`
}
