package contracts

// SuggestionAction is what a rebalance suggestion does to its target
type SuggestionAction string

const (
	SuggestReduce SuggestionAction = "reduce"
	SuggestAdd    SuggestionAction = "add"
	SuggestRemove SuggestionAction = "remove"
)

// SimulationResult compares a mutated portfolio with the original
// Delta = original composite - mutated composite; positive means less risk.
type SimulationResult struct {
	NewScore     float64       `json:"new_risk_score"`
	NewLevel     Level         `json:"new_risk_level"`
	Delta        float64       `json:"delta"`
	Improved     bool          `json:"improved"`
	NewBreakdown RiskBreakdown `json:"new_risk_breakdown"`
}

// RebalanceSuggestion is one proposed single-holding mutation
type RebalanceSuggestion struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	SimulatedScore   float64          `json:"simulated_risk_score"`
	Delta            float64          `json:"delta"`
	Improved         bool             `json:"improved"`
	Action           SuggestionAction `json:"action"`
	TargetSymbol     string           `json:"target_symbol,omitempty"`
	TargetAllocation float64          `json:"target_allocation,omitempty"` // percent, 0 when not applicable
	TargetQuantity   float64          `json:"target_quantity"`
}
