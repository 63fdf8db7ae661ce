package contracts

// Score is a discrete factor score (3, 7 or 10 under the default policy, 0 when not computable)
type Score int

// Level is the ordinal bucket of a composite score
type Level string

const (
	LevelLow      Level = "Low"
	LevelModerate Level = "Moderate"
	LevelHigh     Level = "High"
	LevelVeryHigh Level = "Very High"
)

// RiskBreakdown is the result of the risk engine
type RiskBreakdown struct {
	Concentration Score   `json:"concentration_risk"`
	Sector        Score   `json:"sector_risk"`
	Debt          Score   `json:"debt_risk"`
	Valuation     Score   `json:"valuation_risk"`
	Behavioral    Score   `json:"behavioral_risk"`
	Composite     float64 `json:"final_score"` // weighted, one decimal
	Level         Level   `json:"risk_level"`
}

// Scores returns the sub-scores in factor order
func (b RiskBreakdown) Scores() []Score {
	return []Score{b.Concentration, b.Sector, b.Debt, b.Valuation, b.Behavioral}
}

// BehaviorBreakdown is the result of the behavior engine
type BehaviorBreakdown struct {
	Overtrading  Score   `json:"overtrading_score"`
	ShortHolding Score   `json:"short_holding_score"`
	LossSelling  Score   `json:"loss_selling_score"`
	TimingRisk   Score   `json:"timing_risk_score"`
	Composite    float64 `json:"final_behavior_score"`
	Level        Level   `json:"behavior_level"`

	// Informational, not part of the composite
	WindowTransactions int     `json:"window_transactions"`
	ClosedTrades       int     `json:"closed_trades"`
	UnmatchedRemovals  int     `json:"unmatched_removals"`
	OpenPositionDays   float64 `json:"open_position_days"` // mean age of current holdings
}

// Scores returns the sub-scores in factor order
func (b BehaviorBreakdown) Scores() []Score {
	return []Score{b.Overtrading, b.ShortHolding, b.LossSelling, b.TimingRisk}
}
