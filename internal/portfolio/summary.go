package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/valuation"
)

const (
	activityWindow      = 30 * 24 * time.Hour
	frequentSymbolLimit = 5
	recentActivityLimit = 5
)

// HoldingInfo is the valuation of one holding
type HoldingInfo struct {
	ID              string  `json:"id"`
	Symbol          string  `json:"symbol"`
	Value           float64 `json:"value"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
}

// SectorAllocation is one sector's share of current value
type SectorAllocation struct {
	Sector     contracts.Sector `json:"sector"`
	Value      float64          `json:"value"`
	Percentage float64          `json:"percentage"`
}

// SymbolCount is how often a symbol appears in recent history
type SymbolCount struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

// ActivitySummary describes the trailing 30 days of history
type ActivitySummary struct {
	TotalTransactions int                      `json:"total_transactions"`
	FrequentStocks    []SymbolCount            `json:"frequent_stocks"`
	RecentActivities  []contracts.HistoryEntry `json:"recent_activities"`
}

// Summary is the dashboard view of a portfolio
type Summary struct {
	HoldingsCount      int                `json:"holdings_count"`
	TotalInvested      float64            `json:"total_invested"`
	TotalCurrent       float64            `json:"total_current"`
	TotalGainLoss      float64            `json:"total_gain_loss"`
	ReturnPercent      float64            `json:"return_percent"`
	SectorDistribution []SectorAllocation `json:"sector_distribution"`
	TopHolding         *HoldingInfo       `json:"top_holding,omitempty"`
	LargestGain        *HoldingInfo       `json:"largest_gain,omitempty"`
	LargestLoss        *HoldingInfo       `json:"largest_loss,omitempty"`
	Activity           ActivitySummary    `json:"activity"`
	AverageHoldingDays float64            `json:"average_holding_days"`
}

// Summarize builds the summary of holdings and history as of now
func Summarize(holdings []contracts.Holding, history []contracts.HistoryEntry, now time.Time) Summary {
	s := Summary{
		HoldingsCount:      len(holdings),
		TotalInvested:      valuation.TotalInvested(holdings).InexactFloat64(),
		TotalCurrent:       valuation.TotalCurrent(holdings).InexactFloat64(),
		TotalGainLoss:      valuation.TotalGainLoss(holdings).InexactFloat64(),
		ReturnPercent:      valuation.PortfolioReturn(holdings).Round(2).InexactFloat64(),
		SectorDistribution: sectorDistribution(holdings),
		Activity:           summarizeActivity(history, now),
		AverageHoldingDays: averageHoldingDays(holdings, now),
	}

	infos := make([]HoldingInfo, len(holdings))
	for i, h := range holdings {
		infos[i] = HoldingInfo{
			ID:              h.ID,
			Symbol:          h.Symbol,
			Value:           valuation.Current(h).InexactFloat64(),
			GainLoss:        valuation.GainLoss(h).InexactFloat64(),
			GainLossPercent: valuation.GainLossPercent(h).Round(2).InexactFloat64(),
		}
	}

	for i := range infos {
		info := infos[i]
		if s.TopHolding == nil || info.Value > s.TopHolding.Value {
			s.TopHolding = &info
		}
		if info.GainLoss > 0 && (s.LargestGain == nil || info.GainLoss > s.LargestGain.GainLoss) {
			s.LargestGain = &info
		}
		if info.GainLoss < 0 && (s.LargestLoss == nil || info.GainLoss < s.LargestLoss.GainLoss) {
			s.LargestLoss = &info
		}
	}

	return s
}

func sectorDistribution(holdings []contracts.Holding) []SectorAllocation {
	totals := valuation.SectorTotals(holdings)
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Value)
	}

	out := make([]SectorAllocation, len(totals))
	for i, t := range totals {
		out[i] = SectorAllocation{
			Sector:     t.Sector,
			Value:      t.Value.InexactFloat64(),
			Percentage: valuation.Percent(t.Value, sum).Round(2).InexactFloat64(),
		}
	}
	return out
}

func summarizeActivity(history []contracts.HistoryEntry, now time.Time) ActivitySummary {
	recent := contracts.Since(history, now.Add(-activityWindow))

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, e := range recent {
		if counts[e.Symbol] == 0 {
			order = append(order, e.Symbol)
		}
		counts[e.Symbol]++
	}

	frequent := make([]SymbolCount, len(order))
	for i, sym := range order {
		frequent[i] = SymbolCount{Symbol: sym, Count: counts[sym]}
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return frequent[i].Count > frequent[j].Count
	})
	if len(frequent) > frequentSymbolLimit {
		frequent = frequent[:frequentSymbolLimit]
	}

	// last entries of the log, newest first
	n := len(recent)
	if n > recentActivityLimit {
		n = recentActivityLimit
	}
	latest := make([]contracts.HistoryEntry, n)
	for i := 0; i < n; i++ {
		latest[i] = recent[len(recent)-1-i]
	}

	return ActivitySummary{
		TotalTransactions: len(recent),
		FrequentStocks:    frequent,
		RecentActivities:  latest,
	}
}

func averageHoldingDays(holdings []contracts.Holding, now time.Time) float64 {
	if len(holdings) == 0 {
		return 0
	}
	days := make([]float64, len(holdings))
	for i, h := range holdings {
		days[i] = now.Sub(h.AddedAt).Hours() / 24
	}
	return stat.Mean(days, nil)
}
