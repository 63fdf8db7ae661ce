package portfolio

import (
	"time"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/insights"
	"github.com/wonny/risklens/internal/metrics"
	"github.com/wonny/risklens/internal/risk"
)

// RiskReport is the risk breakdown with its statistics and explanations
type RiskReport struct {
	Breakdown   contracts.RiskBreakdown `json:"breakdown"`
	Stats       risk.Stats              `json:"stats"`
	Insights    []insights.Insight      `json:"insights"`
	Suggestions []string                `json:"suggestions"`
}

// BehaviorReport is the behavior breakdown with its explanations
type BehaviorReport struct {
	Breakdown   contracts.BehaviorBreakdown `json:"breakdown"`
	Insights    []insights.Insight          `json:"insights"`
	Suggestions []string                    `json:"suggestions"`
}

// Analysis is every engine output for one snapshot
type Analysis struct {
	ComputedAt  time.Time                       `json:"computed_at"`
	PolicyHash  string                          `json:"policy_hash"`
	Risk        RiskReport                      `json:"risk"`
	Behavior    BehaviorReport                  `json:"behavior"`
	Rebalancing []contracts.RebalanceSuggestion `json:"rebalancing"`
}

func (s *Service) riskReport(holdings []contracts.Holding, history []contracts.HistoryEntry) RiskReport {
	b := s.risk.ComputeRiskBreakdown(holdings, history)
	stats := s.risk.ComputeStats(holdings, history)

	metrics.AnalysesTotal.WithLabelValues("risk").Inc()
	metrics.CompositeScores.WithLabelValues("risk").Observe(b.Composite)

	return RiskReport{
		Breakdown:   b,
		Stats:       stats,
		Insights:    insights.RiskInsights(b, stats, s.policy.Levels),
		Suggestions: insights.DiversificationSuggestions(holdings, b, stats, s.policy.Levels),
	}
}

func (s *Service) behaviorReport(holdings []contracts.Holding, history []contracts.HistoryEntry) BehaviorReport {
	b := s.behavior.AnalyzeBehavior(holdings, history)

	metrics.AnalysesTotal.WithLabelValues("behavior").Inc()
	metrics.CompositeScores.WithLabelValues("behavior").Observe(b.Composite)

	return BehaviorReport{
		Breakdown:   b,
		Insights:    insights.BehaviorInsights(b, s.policy.Levels),
		Suggestions: insights.BehaviorSuggestions(b, s.policy.Levels),
	}
}

func (s *Service) rebalancing(holdings []contracts.Holding, history []contracts.HistoryEntry) []contracts.RebalanceSuggestion {
	out := s.sim.GenerateRebalanceSuggestions(holdings, history)

	metrics.AnalysesTotal.WithLabelValues("simulation").Inc()
	metrics.SuggestionsReturned.Observe(float64(len(out)))
	return out
}

// Evaluate runs every engine over a caller-supplied snapshot. Nothing is read or stored.
func (s *Service) Evaluate(holdings []contracts.Holding, history []contracts.HistoryEntry) Analysis {
	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	return Analysis{
		ComputedAt:  s.now(),
		PolicyHash:  s.policyHash,
		Risk:        s.riskReport(holdings, history),
		Behavior:    s.behaviorReport(holdings, history),
		Rebalancing: s.rebalancing(holdings, history),
	}
}
