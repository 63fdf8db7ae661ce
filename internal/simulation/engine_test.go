package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/risk"
)

var fixedNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func newTestEngine(p *policy.Policy) *Engine {
	return NewEngine(risk.NewEngine(p, risk.WithClock(func() time.Time { return fixedNow })))
}

func stock(symbol string, sector contracts.Sector, qty, pe, de float64) contracts.Holding {
	return contracts.Holding{
		ID:           "h-" + symbol,
		Symbol:       symbol,
		Name:         symbol + " Ltd",
		Quantity:     qty,
		BuyPrice:     100,
		CurrentPrice: 100,
		Sector:       sector,
		PERatio:      pe,
		DebtEquity:   de,
	}
}

// overweightPortfolio triggers all four generators.
// Current composite is 7.0 (10, 7, 3, 10, 3).
func overweightPortfolio() []contracts.Holding {
	return []contracts.Holding{
		stock("A", contracts.SectorIT, 45, 60, 0.5),
		stock("B", contracts.SectorIT, 15, 28, 2.0),
		stock("C", contracts.SectorBanking, 20, 18, 0.5),
		stock("D", contracts.SectorPharma, 20, 32, 0.5),
	}
}

// moderatePortfolio has a 45% top holding and one high-debt stock.
// Current composite is 5.1.
func moderatePortfolio() []contracts.Holding {
	return []contracts.Holding{
		stock("A", contracts.SectorIT, 45, 30, 0.5),
		stock("B", contracts.SectorBanking, 20, 18, 1.8),
		stock("C", contracts.SectorPharma, 20, 32, 0.5),
		stock("D", contracts.SectorEnergy, 15, 20, 0.5),
	}
}

func TestCandidates(t *testing.T) {
	e := newTestEngine(nil)
	holdings := overweightPortfolio()

	cands := e.Candidates(holdings)

	require.Len(t, cands, 4)
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.Suggestion.ID
	}
	assert.Equal(t, []string{
		CandidateReduceTopHolding,
		CandidateRemoveHighDebt,
		CandidateReduceOvervalued,
		CandidateBalanceSector,
	}, ids)

	top := cands[0]
	assert.Equal(t, "Reduce A Ltd Allocation", top.Suggestion.Title)
	assert.Equal(t, "Currently at 45.0%. Reducing to 30% would lower concentration risk and improve portfolio balance.", top.Suggestion.Description)
	assert.Equal(t, 30.0, top.Suggestion.TargetQuantity)
	assert.Equal(t, 30.0, top.Suggestion.TargetAllocation)
	assert.Equal(t, 30.0, top.Mutated[0].Quantity)

	debt := cands[1]
	assert.Equal(t, contracts.SuggestRemove, debt.Suggestion.Action)
	assert.Equal(t, "B", debt.Suggestion.TargetSymbol)
	assert.Equal(t, "B Ltd has a debt-to-equity ratio of 2.00. Removing it would reduce portfolio debt exposure.", debt.Suggestion.Description)
	assert.Len(t, debt.Mutated, 3)

	over := cands[2]
	assert.Equal(t, "A", over.Suggestion.TargetSymbol)
	assert.Equal(t, 22.0, over.Suggestion.TargetQuantity) // floor(4500*0.5/100)
	assert.Equal(t, "A Ltd has a P/E ratio of 60.0. Reducing exposure would lower valuation risk.", over.Suggestion.Description)

	sector := cands[3]
	assert.Equal(t, "Reduce IT Sector Exposure", sector.Suggestion.Title)
	assert.Equal(t, "IT sector represents 60.0% of portfolio. Reducing concentration would improve diversification.", sector.Suggestion.Description)
	assert.Equal(t, 31.0, sector.Suggestion.TargetQuantity) // floor(4500*0.7/100)

	assert.Equal(t, overweightPortfolio(), holdings, "input must not be mutated")
}

func TestGenerateRebalanceSuggestions(t *testing.T) {
	e := newTestEngine(nil)
	holdings := overweightPortfolio()

	got := e.GenerateRebalanceSuggestions(holdings, nil)

	require.Len(t, got, 3)
	assert.Equal(t, CandidateReduceOvervalued, got[0].ID)
	assert.Equal(t, 2.1, got[0].Delta)
	assert.Equal(t, 4.9, got[0].SimulatedScore)

	// equal deltas keep generator order
	assert.Equal(t, CandidateReduceTopHolding, got[1].ID)
	assert.Equal(t, 0.9, got[1].Delta)
	assert.Equal(t, 6.1, got[1].SimulatedScore)
	assert.Equal(t, CandidateBalanceSector, got[2].ID)
	assert.Equal(t, 0.9, got[2].Delta)

	for i, s := range got {
		assert.True(t, s.Improved)
		assert.Greater(t, s.Delta, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Delta, s.Delta)
		}
	}
	assert.Equal(t, overweightPortfolio(), holdings, "input must not be mutated")
}

func TestGenerateRebalanceSuggestionsDropsNonImproving(t *testing.T) {
	got := newTestEngine(nil).GenerateRebalanceSuggestions(moderatePortfolio(), nil)

	require.Len(t, got, 1)
	assert.Equal(t, CandidateReduceTopHolding, got[0].ID)
	assert.Equal(t, 0.9, got[0].Delta)
	assert.Equal(t, 4.2, got[0].SimulatedScore)
}

func TestGenerateRebalanceSuggestionsRespectsLimit(t *testing.T) {
	p := policy.Default()
	p.Simulation.MaxSuggestions = 2

	got := newTestEngine(p).GenerateRebalanceSuggestions(overweightPortfolio(), nil)

	require.Len(t, got, 2)
	assert.Equal(t, CandidateReduceOvervalued, got[0].ID)
}

func TestGenerateRebalanceSuggestionsEmpty(t *testing.T) {
	e := newTestEngine(nil)

	tests := []struct {
		name     string
		holdings []contracts.Holding
	}{
		{"no holdings", nil},
		{"nothing triggers", []contracts.Holding{
			stock("A", contracts.SectorIT, 25, 28, 0.5),
			stock("B", contracts.SectorBanking, 25, 18, 0.5),
			stock("C", contracts.SectorPharma, 25, 32, 0.5),
			stock("D", contracts.SectorEnergy, 25, 20, 0.5),
		}},
		{"single holding cannot improve", []contracts.Holding{
			{ID: "1", Symbol: "TCS", Quantity: 10, BuyPrice: 100, CurrentPrice: 150, Sector: contracts.SectorIT, DebtEquity: 0.3, PERatio: 20},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.GenerateRebalanceSuggestions(tt.holdings, nil)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestRemoveHighDebtSkipsLastHolding(t *testing.T) {
	cands := newTestEngine(nil).Candidates([]contracts.Holding{stock("A", contracts.SectorIT, 10, 20, 3)})

	for _, c := range cands {
		assert.NotEqual(t, CandidateRemoveHighDebt, c.Suggestion.ID)
	}
}

func TestShrinkCandidatesKeepOneShare(t *testing.T) {
	h := stock("A", contracts.SectorIT, 1, 80, 0.2)
	cands := newTestEngine(nil).Candidates([]contracts.Holding{h})

	var over *Candidate
	for i := range cands {
		if cands[i].Suggestion.ID == CandidateReduceOvervalued {
			over = &cands[i]
		}
	}
	require.NotNil(t, over)
	assert.Equal(t, 1.0, over.Suggestion.TargetQuantity) // floor(0.5) raised to 1
}

func TestSimulateAdjustment(t *testing.T) {
	e := newTestEngine(nil)
	original := moderatePortfolio()

	t.Run("improving mutation", func(t *testing.T) {
		mutated := contracts.CloneHoldings(original)
		mutated[0].Quantity = 30

		res := e.SimulateAdjustment(original, mutated, nil)
		assert.Equal(t, 4.2, res.NewScore)
		assert.Equal(t, contracts.LevelModerate, res.NewLevel)
		assert.Equal(t, 0.9, res.Delta)
		assert.True(t, res.Improved)
		assert.Equal(t, contracts.Score(7), res.NewBreakdown.Concentration)
	})

	t.Run("worsening mutation has negative delta", func(t *testing.T) {
		mutated := []contracts.Holding{original[0], original[2], original[3]}

		res := e.SimulateAdjustment(original, mutated, nil)
		assert.Equal(t, 5.9, res.NewScore)
		assert.Equal(t, -0.8, res.Delta)
		assert.False(t, res.Improved)
	})

	t.Run("identity", func(t *testing.T) {
		res := e.SimulateAdjustment(original, original, nil)
		assert.Equal(t, 0.0, res.Delta)
		assert.False(t, res.Improved)
	})

	assert.Equal(t, moderatePortfolio(), original)
}

func TestGenerateRebalanceSuggestionsIsIdempotent(t *testing.T) {
	e := newTestEngine(nil)
	history := []contracts.HistoryEntry{
		{ID: "1", Action: contracts.ActionAdd, Symbol: "A", Quantity: 45, Price: 100, Timestamp: fixedNow.AddDate(0, 0, -3)},
	}

	first := e.GenerateRebalanceSuggestions(overweightPortfolio(), history)
	second := e.GenerateRebalanceSuggestions(overweightPortfolio(), history)
	assert.Equal(t, first, second)
}
