package portfolio

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/risklens/internal/contracts"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, testNow)

	assert.Zero(t, s.HoldingsCount)
	assert.Zero(t, s.TotalCurrent)
	assert.Zero(t, s.ReturnPercent)
	assert.Nil(t, s.TopHolding)
	assert.Nil(t, s.LargestGain)
	assert.Nil(t, s.LargestLoss)
	assert.Empty(t, s.SectorDistribution)
	assert.Zero(t, s.Activity.TotalTransactions)
	assert.Empty(t, s.Activity.RecentActivities)
	assert.Zero(t, s.AverageHoldingDays)
}

func TestSummarizeValuation(t *testing.T) {
	holdings := []contracts.Holding{
		{ID: "a", Symbol: "TCS", Quantity: 10, BuyPrice: 100, CurrentPrice: 150, Sector: contracts.SectorIT, AddedAt: testNow.AddDate(0, 0, -10)},
		{ID: "b", Symbol: "INFY", Quantity: 10, BuyPrice: 100, CurrentPrice: 50, Sector: contracts.SectorIT, AddedAt: testNow.AddDate(0, 0, -20)},
		{ID: "c", Symbol: "HDFC", Quantity: 20, BuyPrice: 100, CurrentPrice: 100, Sector: contracts.SectorBanking, AddedAt: testNow},
	}

	s := Summarize(holdings, nil, testNow)

	assert.Equal(t, 3, s.HoldingsCount)
	assert.Equal(t, 4000.0, s.TotalInvested)
	assert.Equal(t, 4000.0, s.TotalCurrent)
	assert.Zero(t, s.TotalGainLoss)
	assert.Zero(t, s.ReturnPercent)

	require.Len(t, s.SectorDistribution, 2)
	assert.Equal(t, SectorAllocation{Sector: contracts.SectorIT, Value: 2000, Percentage: 50}, s.SectorDistribution[0])
	assert.Equal(t, SectorAllocation{Sector: contracts.SectorBanking, Value: 2000, Percentage: 50}, s.SectorDistribution[1])

	require.NotNil(t, s.TopHolding)
	assert.Equal(t, "HDFC", s.TopHolding.Symbol)

	require.NotNil(t, s.LargestGain)
	assert.Equal(t, "TCS", s.LargestGain.Symbol)
	assert.Equal(t, 500.0, s.LargestGain.GainLoss)
	assert.Equal(t, 50.0, s.LargestGain.GainLossPercent)

	require.NotNil(t, s.LargestLoss)
	assert.Equal(t, "INFY", s.LargestLoss.Symbol)
	assert.Equal(t, -50.0, s.LargestLoss.GainLossPercent)

	assert.InDelta(t, 10.0, s.AverageHoldingDays, 1e-9)
}

func TestSummarizeActivity(t *testing.T) {
	var history []contracts.HistoryEntry
	entry := func(sym string, daysAgo int) {
		history = append(history, contracts.HistoryEntry{
			ID:        fmt.Sprintf("e%d", len(history)),
			Action:    contracts.ActionAdd,
			Symbol:    sym,
			Quantity:  1,
			Price:     1,
			Timestamp: testNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		})
	}

	entry("OLD", 45)
	for _, sym := range []string{"A", "B", "B", "C", "C", "C", "D", "E", "F"} {
		entry(sym, 3)
	}

	act := Summarize(nil, history, testNow).Activity

	assert.Equal(t, 9, act.TotalTransactions, "entries older than 30 days are excluded")

	require.Len(t, act.FrequentStocks, 5)
	assert.Equal(t, SymbolCount{Symbol: "C", Count: 3}, act.FrequentStocks[0])
	assert.Equal(t, SymbolCount{Symbol: "B", Count: 2}, act.FrequentStocks[1])
	assert.Equal(t, SymbolCount{Symbol: "A", Count: 1}, act.FrequentStocks[2], "ties keep first appearance")

	require.Len(t, act.RecentActivities, 5)
	assert.Equal(t, "F", act.RecentActivities[0].Symbol, "newest first")
	assert.Equal(t, "C", act.RecentActivities[4].Symbol)
}
