package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/policy"
)

// Component is one weighted sub-score of a composite
type Component struct {
	Score  contracts.Score
	Weight float64
}

// Weighted zips scores with weights; extra entries on either side are ignored
func Weighted(scores []contracts.Score, weights []float64) []Component {
	n := len(scores)
	if len(weights) < n {
		n = len(weights)
	}
	out := make([]Component, n)
	for i := 0; i < n; i++ {
		out[i] = Component{Score: scores[i], Weight: weights[i]}
	}
	return out
}

// Composite returns Σ score×weight rounded to one decimal, half away from zero.
// The sum is exact, so 6.45 rounds to 6.5 rather than 6.4.
func Composite(components []Component) float64 {
	sum := decimal.Zero
	for _, c := range components {
		sum = sum.Add(decimal.NewFromInt(int64(c.Score)).Mul(decimal.NewFromFloat(c.Weight)))
	}
	return sum.Round(1).InexactFloat64()
}

// LevelFor buckets a composite score
func LevelFor(score float64, cutoffs policy.LevelCutoffs) contracts.Level {
	switch {
	case score < cutoffs.Moderate:
		return contracts.LevelLow
	case score < cutoffs.High:
		return contracts.LevelModerate
	case score < cutoffs.VeryHigh:
		return contracts.LevelHigh
	default:
		return contracts.LevelVeryHigh
	}
}

// Round1 rounds to one decimal, half away from zero
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
