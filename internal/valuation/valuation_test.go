package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/wonny/risklens/internal/contracts"
)

func holding(symbol string, sector contracts.Sector, qty, buy, cur float64) contracts.Holding {
	return contracts.Holding{
		ID:           symbol,
		Symbol:       symbol,
		Quantity:     qty,
		BuyPrice:     buy,
		CurrentPrice: cur,
		Sector:       sector,
	}
}

func TestHoldingValues(t *testing.T) {
	h := holding("TCS", contracts.SectorIT, 10, 100, 150)

	assert.True(t, Invested(h).Equal(decimal.NewFromInt(1000)))
	assert.True(t, Current(h).Equal(decimal.NewFromInt(1500)))
	assert.True(t, GainLoss(h).Equal(decimal.NewFromInt(500)))
	assert.True(t, GainLossPercent(h).Equal(decimal.NewFromInt(50)))
}

func TestGainLossPercentZeroInvested(t *testing.T) {
	h := holding("FREE", contracts.SectorIT, 10, 0, 5)
	assert.True(t, GainLossPercent(h).IsZero())
}

func TestTotals(t *testing.T) {
	holdings := []contracts.Holding{
		holding("A", contracts.SectorIT, 10, 100, 150),
		holding("B", contracts.SectorBanking, 5, 200, 100),
	}

	assert.Equal(t, "2000", TotalInvested(holdings).String())
	assert.Equal(t, "2000", TotalCurrent(holdings).String())
	assert.True(t, TotalGainLoss(holdings).IsZero())
	assert.True(t, PortfolioReturn(holdings).IsZero())
}

func TestEmptySetsYieldZero(t *testing.T) {
	assert.True(t, TotalInvested(nil).IsZero())
	assert.True(t, TotalCurrent(nil).IsZero())
	assert.True(t, PortfolioReturn(nil).IsZero())
	assert.Empty(t, SectorTotals(nil))
	assert.Equal(t, -1, Largest(nil))

	_, ok := LargestSector(nil)
	assert.False(t, ok)
}

func TestAllocation(t *testing.T) {
	h := holding("A", contracts.SectorIT, 1, 1, 25)
	assert.Equal(t, "25", Allocation(h, decimal.NewFromInt(100)).String())
	assert.True(t, Allocation(h, decimal.Zero).IsZero())
}

func TestSectorTotalsFirstAppearanceOrder(t *testing.T) {
	holdings := []contracts.Holding{
		holding("A", contracts.SectorPharma, 1, 1, 50),
		holding("B", contracts.SectorIT, 1, 1, 50),
		holding("C", contracts.SectorPharma, 1, 1, 10),
	}

	totals := SectorTotals(holdings)
	assert.Len(t, totals, 2)
	assert.Equal(t, contracts.SectorPharma, totals[0].Sector)
	assert.Equal(t, "60", totals[0].Value.String())
	assert.Equal(t, contracts.SectorIT, totals[1].Sector)

	best, ok := LargestSector(totals)
	assert.True(t, ok)
	assert.Equal(t, contracts.SectorPharma, best.Sector)
}

func TestLargestTieKeepsFirst(t *testing.T) {
	holdings := []contracts.Holding{
		holding("A", contracts.SectorIT, 1, 1, 10),
		holding("B", contracts.SectorIT, 1, 1, 30),
		holding("C", contracts.SectorIT, 3, 1, 10),
	}
	assert.Equal(t, 1, Largest(holdings))
}

func TestWeightedAverage(t *testing.T) {
	a := holding("A", contracts.SectorIT, 1, 1, 100)
	a.DebtEquity = 2
	b := holding("B", contracts.SectorIT, 1, 1, 300)
	b.DebtEquity = 1

	got := WeightedAverage([]contracts.Holding{a, b}, func(h contracts.Holding) float64 { return h.DebtEquity })
	assert.Equal(t, "1.25", got.String())

	zero := WeightedAverage([]contracts.Holding{holding("Z", contracts.SectorIT, 0, 1, 1)}, func(h contracts.Holding) float64 { return 1 })
	assert.True(t, zero.IsZero())
}
