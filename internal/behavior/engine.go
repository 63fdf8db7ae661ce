package behavior

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/scoring"
)

const day = 24 * time.Hour

// Engine scores trading behavior over a trailing window
type Engine struct {
	policy *policy.Policy
	now    func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the clock that anchors the window
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a behavior engine; a nil policy means policy.Default()
func NewEngine(p *policy.Policy, opts ...Option) *Engine {
	if p == nil {
		p = policy.Default()
	}
	e := &Engine{policy: p, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the entries inside the trailing window ending now
func (e *Engine) Window(history []contracts.HistoryEntry) []contracts.HistoryEntry {
	cutoff := e.now().Add(-time.Duration(e.policy.Behavior.WindowDays) * day)
	return contracts.Since(history, cutoff)
}

// AnalyzeBehavior scores overtrading, short holding, loss selling and timing risk.
// The window is applied before lot matching, so an ADD older than the window
// leaves its later REMOVE unmatched.
func (e *Engine) AnalyzeBehavior(holdings []contracts.Holding, history []contracts.HistoryEntry) contracts.BehaviorBreakdown {
	bp := e.policy.Behavior
	now := e.now()
	recent := e.Window(history)
	lots := MatchLots(recent)

	var b contracts.BehaviorBreakdown
	b.Overtrading = bp.Overtrading.Score(float64(len(recent)))
	b.ShortHolding = e.shortHoldingScore(lots.Closed)
	b.LossSelling = e.lossSellingScore(lots.Closed)
	b.TimingRisk = bp.Timing.Score(float64(CountRepeatBuys(recent, time.Duration(bp.TimingWindowDays)*day)))

	b.Composite = scoring.Composite(scoring.Weighted(b.Scores(), bp.Weights.Values()))
	b.Level = scoring.LevelFor(b.Composite, e.policy.Levels)

	b.WindowTransactions = len(recent)
	b.ClosedTrades = len(lots.Closed)
	b.UnmatchedRemovals = len(lots.Unmatched)
	b.OpenPositionDays = OpenPositionDays(holdings, now)
	return b
}

func (e *Engine) shortHoldingScore(closed []contracts.Trade) contracts.Score {
	if len(closed) == 0 {
		return e.policy.Behavior.NoTradesScore
	}
	return e.policy.Behavior.ShortHolding.Score(MeanHoldingDays(closed))
}

func (e *Engine) lossSellingScore(closed []contracts.Trade) contracts.Score {
	if len(closed) == 0 {
		return e.policy.Behavior.NoTradesScore
	}
	return e.policy.Behavior.LossSelling.Score(LossPercent(closed))
}

// MeanHoldingDays returns the mean holding period of closed trades in days
func MeanHoldingDays(closed []contracts.Trade) float64 {
	days := make([]float64, 0, len(closed))
	for _, t := range closed {
		if t.Closed() {
			days = append(days, t.HoldingPeriod().Hours()/24)
		}
	}
	if len(days) == 0 {
		return 0
	}
	return stat.Mean(days, nil)
}

// LossPercent returns the share of closed trades sold below cost, in percent
func LossPercent(closed []contracts.Trade) float64 {
	if len(closed) == 0 {
		return 0
	}
	losses := 0
	for _, t := range closed {
		if t.IsLoss() {
			losses++
		}
	}
	return float64(losses) / float64(len(closed)) * 100
}

// OpenPositionDays returns the mean age in days of active holdings with a known AddedAt
func OpenPositionDays(holdings []contracts.Holding, now time.Time) float64 {
	ages := make([]float64, 0, len(holdings))
	for _, h := range holdings {
		if !h.Active() || h.AddedAt.IsZero() {
			continue
		}
		ages = append(ages, now.Sub(h.AddedAt).Hours()/24)
	}
	if len(ages) == 0 {
		return 0
	}
	return stat.Mean(ages, nil)
}
