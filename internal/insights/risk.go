package insights

import (
	"fmt"
	"strings"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/risk"
	"github.com/wonny/risklens/internal/valuation"
)

// Severity grades an insight
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
)

const (
	flagFrom              contracts.Score = 7 // sub-score that produces an insight
	highFrom              contracts.Score = 8 // sub-score graded High
	underrepresentedPct                   = 10.0
	maxSuggestedSectors                   = 3
	recommendedHoldingMin                 = 8
)

// Insight is a human-readable finding about a breakdown
type Insight struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

func severityOf(s contracts.Score) Severity {
	if s >= highFrom {
		return SeverityHigh
	}
	return SeverityModerate
}

// RiskInsights explains every flagged risk factor.
// A portfolio under the Moderate cutoff also gets a positive insight.
func RiskInsights(b contracts.RiskBreakdown, s risk.Stats, levels policy.LevelCutoffs) []Insight {
	out := make([]Insight, 0)

	if b.Concentration >= flagFrom {
		out = append(out, Insight{
			Title: "High Stock Concentration",
			Description: fmt.Sprintf("%.1f%% of your portfolio is allocated to %s. This increases volatility risk if the stock declines. "+
				"Consider rebalancing to reduce single-stock exposure below 30%%.", s.MaxHoldingPct, s.TopHoldingName),
			Severity: severityOf(b.Concentration),
		})
	}

	if b.Sector >= flagFrom {
		out = append(out, Insight{
			Title: fmt.Sprintf("Overexposure to %s Sector", s.TopSector),
			Description: fmt.Sprintf("%.1f%% of your portfolio is concentrated in the %s sector. Sector-specific downturns could significantly impact your returns. "+
				"Diversifying across multiple sectors reduces this risk.", s.MaxSectorPct, s.TopSector),
			Severity: severityOf(b.Sector),
		})
	}

	if b.Debt >= flagFrom {
		out = append(out, Insight{
			Title: "High Debt Exposure",
			Description: fmt.Sprintf("Your portfolio has an average debt-to-equity ratio of %.2f. Companies with high leverage are more vulnerable during economic downturns or rising interest rates. "+
				"Consider balancing with low-debt companies.", s.WeightedDebtEquity),
			Severity: severityOf(b.Debt),
		})
	}

	if b.Valuation >= flagFrom {
		out = append(out, Insight{
			Title: "Elevated Valuation Levels",
			Description: fmt.Sprintf("Your portfolio's average P/E ratio of %.1f is significantly above sector averages. High valuations may limit upside potential and increase downside risk during market corrections. "+
				"Consider adding value stocks.", s.WeightedPE),
			Severity: severityOf(b.Valuation),
		})
	}

	if b.Behavioral >= flagFrom {
		out = append(out, Insight{
			Title: "Frequent Trading Activity",
			Description: "Your portfolio shows high transaction frequency over the past 30 days. Frequent trading can erode returns through transaction costs and may indicate emotional decision-making. " +
				"Long-term holding typically yields better wealth creation.",
			Severity: severityOf(b.Behavioral),
		})
	}

	if b.Composite < levels.Moderate {
		out = append(out, Insight{
			Title: "Well-Diversified Portfolio",
			Description: "Your portfolio demonstrates balanced diversification across stocks and sectors. " +
				"This positioning helps manage volatility and provides stable long-term growth potential.",
			Severity: SeverityLow,
		})
	}

	return out
}

// UnderrepresentedSectors lists known sectors holding less than 10% of current value, in display order
func UnderrepresentedSectors(holdings []contracts.Holding) []contracts.Sector {
	total := valuation.TotalCurrent(holdings)
	if !total.IsPositive() {
		return nil
	}
	bySector := make(map[contracts.Sector]float64)
	for _, st := range valuation.SectorTotals(holdings) {
		bySector[st.Sector] = valuation.Percent(st.Value, total).InexactFloat64()
	}

	var out []contracts.Sector
	for _, sector := range contracts.AllSectors() {
		if bySector[sector] < underrepresentedPct {
			out = append(out, sector)
		}
	}
	return out
}

// DiversificationSuggestions returns actionable rebalancing advice for a breakdown
func DiversificationSuggestions(holdings []contracts.Holding, b contracts.RiskBreakdown, s risk.Stats, levels policy.LevelCutoffs) []string {
	out := make([]string, 0)

	if b.Concentration >= flagFrom {
		out = append(out, fmt.Sprintf("Reduce %s allocation from %.1f%% to below 30%% by rebalancing into other quality stocks",
			s.TopHoldingName, s.MaxHoldingPct))
	}

	if under := UnderrepresentedSectors(holdings); b.Sector >= flagFrom && len(under) > 0 {
		if len(under) > maxSuggestedSectors {
			under = under[:maxSuggestedSectors]
		}
		names := make([]string, len(under))
		for i, sector := range under {
			names[i] = sector.String()
		}
		out = append(out, "Consider adding exposure to underrepresented sectors: "+strings.Join(names, ", "))
	}

	if b.Debt >= flagFrom {
		out = append(out, "Balance high-leverage stocks with companies having strong balance sheets (debt-to-equity < 0.5)")
	}

	if b.Valuation >= flagFrom {
		out = append(out,
			"Mix growth stocks with value stocks (P/E < 20) to reduce valuation risk",
			"Consider defensive sectors like FMCG or Pharma with stable earnings",
		)
	}

	if b.Behavioral >= flagFrom {
		out = append(out,
			"Adopt a long-term investment horizon (3-5 years) to reduce transaction frequency",
			"Set clear investment criteria before making buy/sell decisions",
		)
	}

	if len(holdings) < recommendedHoldingMin {
		out = append(out, "Gradually build a portfolio of 8-12 quality stocks across different sectors")
	}

	if b.Composite < levels.Moderate && len(out) == 0 {
		out = append(out,
			"Maintain current diversification strategy and review quarterly",
			"Consider systematic investment to build positions during market corrections",
		)
	}

	return out
}
