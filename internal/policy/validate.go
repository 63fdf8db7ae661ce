package policy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError is a policy constraint violation
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every policy constraint and returns the first violation
func Validate(p *Policy) error {
	// === Risk ===
	if p.Risk.WindowDays <= 0 {
		return ValidationError{"risk.window_days", "must be > 0"}
	}
	riskLadders := []struct {
		field  string
		ladder Ladder
	}{
		{"risk.concentration", p.Risk.Concentration},
		{"risk.sector", p.Risk.Sector},
		{"risk.debt", p.Risk.Debt},
		{"risk.valuation", p.Risk.Valuation},
		{"risk.behavioral", p.Risk.Behavioral},
	}
	for _, rl := range riskLadders {
		if err := validateLadder(rl.field, rl.ladder); err != nil {
			return err
		}
	}
	if err := validateWeightsSum(p.Risk.Weights.Values()); err != nil {
		return ValidationError{"risk.weights", err.Error()}
	}
	if p.Risk.FallbackPE <= 0 {
		return ValidationError{"risk.fallback_pe", "must be > 0"}
	}
	for sector, pe := range p.Risk.SectorPE {
		if pe <= 0 {
			return ValidationError{fmt.Sprintf("risk.sector_pe.%s", sector), "must be > 0"}
		}
	}

	// === Behavior ===
	if p.Behavior.WindowDays <= 0 {
		return ValidationError{"behavior.window_days", "must be > 0"}
	}
	if p.Behavior.TimingWindowDays < 0 {
		return ValidationError{"behavior.timing_window_days", "must be >= 0"}
	}
	behaviorLadders := []struct {
		field  string
		ladder Ladder
	}{
		{"behavior.overtrading", p.Behavior.Overtrading},
		{"behavior.short_holding", p.Behavior.ShortHolding},
		{"behavior.loss_selling", p.Behavior.LossSelling},
		{"behavior.timing", p.Behavior.Timing},
	}
	for _, bl := range behaviorLadders {
		if err := validateLadder(bl.field, bl.ladder); err != nil {
			return err
		}
	}
	if err := validateScore("behavior.no_trades_score", p.Behavior.NoTradesScore); err != nil {
		return err
	}
	if err := validateWeightsSum(p.Behavior.Weights.Values()); err != nil {
		return ValidationError{"behavior.weights", err.Error()}
	}

	// === Simulation ===
	s := p.Simulation
	if s.TopHoldingPct <= 0 || s.TopHoldingPct > 100 {
		return ValidationError{"simulation.top_holding_pct", "must be in (0, 100]"}
	}
	if s.SectorPct <= 0 || s.SectorPct > 100 {
		return ValidationError{"simulation.sector_pct", "must be in (0, 100]"}
	}
	if s.OvervaluedShrink <= 0 || s.OvervaluedShrink >= 1 {
		return ValidationError{"simulation.overvalued_shrink", "must be in (0, 1)"}
	}
	if s.SectorShrink <= 0 || s.SectorShrink >= 1 {
		return ValidationError{"simulation.sector_shrink", "must be in (0, 1)"}
	}
	if s.MinQuantity < 0 {
		return ValidationError{"simulation.min_quantity", "must be >= 0"}
	}
	if s.MaxSuggestions <= 0 {
		return ValidationError{"simulation.max_suggestions", "must be > 0"}
	}

	// === Levels ===
	l := p.Levels
	if !(0 < l.Moderate && l.Moderate < l.High && l.High < l.VeryHigh && l.VeryHigh <= float64(MaxScore)) {
		return ValidationError{"levels", fmt.Sprintf("must satisfy 0 < moderate < high < very_high <= %d", MaxScore)}
	}

	return nil
}

// validateWeightsSum requires the weights to sum to exactly 1 in decimal arithmetic
func validateWeightsSum(weights []float64) error {
	sum := decimal.Zero
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative weight %v", w)
		}
		sum = sum.Add(decimal.NewFromFloat(w))
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("must sum to 1, got %s", sum.String())
	}
	return nil
}
