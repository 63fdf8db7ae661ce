package insights

import (
	"fmt"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/policy"
)

// BehaviorInsights explains every flagged behavior score
func BehaviorInsights(b contracts.BehaviorBreakdown, levels policy.LevelCutoffs) []Insight {
	out := make([]Insight, 0)

	if b.Overtrading >= flagFrom {
		out = append(out, Insight{
			Title: "Frequent Trading Detected",
			Description: fmt.Sprintf("You executed %d transactions in the last 30 days. Frequent trading can reduce long-term compounding due to timing inefficiencies and transaction costs. "+
				"Research shows that long-term investors typically outperform active traders.", b.WindowTransactions),
			Severity: severityOf(b.Overtrading),
		})
	}

	if b.ShortHolding >= flagFrom {
		out = append(out, Insight{
			Title: "Short Holding Periods",
			Description: "Your average holding duration is less than 2 weeks. Quality stocks typically need 6-12 months to demonstrate their fundamental value. " +
				"Short-term trading often captures noise rather than genuine business performance.",
			Severity: severityOf(b.ShortHolding),
		})
	}

	if b.LossSelling >= flagFrom {
		out = append(out, Insight{
			Title: "Selling at Loss Pattern",
			Description: "A significant portion of your recent sells were at a loss. This may indicate emotional decision-making or insufficient research before buying. " +
				"Consider setting clear exit criteria before entering positions.",
			Severity: severityOf(b.LossSelling),
		})
	}

	if b.TimingRisk >= flagFrom {
		out = append(out, Insight{
			Title: "Repeat Trading Pattern",
			Description: "You have bought back stocks shortly after selling them. This pattern suggests uncertainty in decision-making and can lead to unnecessary transaction costs. " +
				"Develop a clear investment thesis before trading.",
			Severity: severityOf(b.TimingRisk),
		})
	}

	if b.Composite < levels.Moderate {
		out = append(out, Insight{
			Title: "Disciplined Investment Approach",
			Description: "Your trading patterns demonstrate patience and discipline. You maintain reasonable holding periods and avoid excessive trading. " +
				"This approach aligns with long-term wealth creation principles.",
			Severity: SeverityLow,
		})
	}

	return out
}

// BehaviorSuggestions returns habit changes for a behavior breakdown.
// A composite at the High level or above adds general habits.
func BehaviorSuggestions(b contracts.BehaviorBreakdown, levels policy.LevelCutoffs) []string {
	out := make([]string, 0)

	if b.Overtrading >= flagFrom {
		out = append(out,
			"Limit portfolio reviews to once per week to reduce impulsive trading decisions",
			"Set a maximum of 2-3 trades per month unless there are fundamental changes",
		)
	}

	if b.ShortHolding >= flagFrom {
		out = append(out,
			"Adopt a minimum holding period of 6 months for new positions",
			"Focus on business fundamentals rather than short-term price movements",
		)
	}

	if b.LossSelling >= flagFrom {
		out = append(out,
			"Define clear stop-loss levels (e.g., 15-20%) before buying to avoid emotional decisions",
			"Conduct thorough research before buying to increase conviction during volatility",
		)
	}

	if b.TimingRisk >= flagFrom {
		out = append(out,
			"Wait at least 30 days before re-entering a position you recently exited",
			"Document your investment thesis and exit reasons to avoid repeat mistakes",
		)
	}

	if b.Composite >= levels.High {
		out = append(out,
			"Consider systematic investment plans (SIP) to reduce timing-related decisions",
			"Maintain an investment journal to track decision-making patterns",
			"Review portfolio quarterly instead of daily to reduce emotional reactions",
		)
	}

	if b.Composite < levels.Moderate && len(out) == 0 {
		out = append(out,
			"Continue your disciplined approach with regular quarterly reviews",
			"Consider gradually increasing position sizes in high-conviction ideas",
		)
	}

	return out
}
