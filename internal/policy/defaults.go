package policy

import "github.com/wonny/risklens/internal/contracts"

// Bucket scores
const (
	ScoreBaseline contracts.Score = 3
	ScoreElevated contracts.Score = 7
	ScoreHigh     contracts.Score = 10
	MaxScore      contracts.Score = 10
)

// Risk defaults
const (
	DefaultWindowDays = 30

	ConcentrationHighPct     = 40.0
	ConcentrationElevatedPct = 30.0
	SectorHighPct            = 60.0
	SectorElevatedPct        = 45.0
	DebtHighRatio            = 1.5
	DebtElevatedRatio        = 1.0
	ValuationHighPct         = 30.0
	ValuationElevatedPct     = 15.0
	ActivityHighCount        = 8
	ActivityElevatedCount    = 5

	WeightConcentration = 0.30
	WeightSector        = 0.20
	WeightDebt          = 0.20
	WeightValuation     = 0.15
	WeightBehavioral    = 0.15

	FallbackSectorPE = 25.0
)

// Behavior defaults
const (
	DefaultTimingWindowDays = 5

	OvertradingHighCount     = 10
	OvertradingElevatedCount = 6
	ShortHoldingHighDays     = 7
	ShortHoldingElevatedDays = 15
	LossSellingHighPct       = 50.0
	LossSellingElevatedPct   = 30.0
	TimingHighCount          = 3
	TimingElevatedCount      = 1

	WeightOvertrading  = 0.4
	WeightShortHolding = 0.3
	WeightLossSelling  = 0.2
	WeightTiming       = 0.1
)

// Simulation defaults
const (
	TopHoldingPct      = 30.0
	HighDebtRatio      = 1.0
	OvervaluedPE       = 40.0
	OvervaluedShrink   = 0.5
	SectorOverweight   = 50.0
	SectorShrink       = 0.7
	MinSuggestQuantity = 1.0
	MaxSuggestions     = 3
)

// Level defaults
const (
	LevelModerateFrom = 3.0
	LevelHighFrom     = 6.0
	LevelVeryHighFrom = 8.0
)

// DefaultSectorPE returns the benchmark P/E per sector
func DefaultSectorPE() map[contracts.Sector]float64 {
	return map[contracts.Sector]float64{
		contracts.SectorIT:             28,
		contracts.SectorBanking:        18,
		contracts.SectorEnergy:         20,
		contracts.SectorFMCG:           45,
		contracts.SectorInfrastructure: 30,
		contracts.SectorPharma:         32,
		contracts.SectorAutomobile:     22,
		contracts.SectorMetals:         15,
	}
}

// Default returns the built-in policy
func Default() *Policy {
	return &Policy{
		Risk: RiskPolicy{
			WindowDays:    DefaultWindowDays,
			Concentration: descending(ConcentrationHighPct, ConcentrationElevatedPct),
			Sector:        descending(SectorHighPct, SectorElevatedPct),
			Debt:          descending(DebtHighRatio, DebtElevatedRatio),
			Valuation:     descending(ValuationHighPct, ValuationElevatedPct),
			Behavioral:    descending(ActivityHighCount, ActivityElevatedCount),
			Weights: RiskWeights{
				Concentration: WeightConcentration,
				Sector:        WeightSector,
				Debt:          WeightDebt,
				Valuation:     WeightValuation,
				Behavioral:    WeightBehavioral,
			},
			SectorPE:   DefaultSectorPE(),
			FallbackPE: FallbackSectorPE,
		},
		Behavior: BehaviorPolicy{
			WindowDays:       DefaultWindowDays,
			TimingWindowDays: DefaultTimingWindowDays,
			Overtrading:      descending(OvertradingHighCount, OvertradingElevatedCount),
			ShortHolding: Ladder{
				Steps: []Step{
					{Op: OpLT, Threshold: ShortHoldingHighDays, Score: ScoreHigh},
					{Op: OpLT, Threshold: ShortHoldingElevatedDays, Score: ScoreElevated},
				},
				Otherwise: ScoreBaseline,
			},
			LossSelling: descending(LossSellingHighPct, LossSellingElevatedPct),
			Timing: Ladder{
				Steps: []Step{
					{Op: OpGTE, Threshold: TimingHighCount, Score: ScoreHigh},
					{Op: OpGTE, Threshold: TimingElevatedCount, Score: ScoreElevated},
				},
				Otherwise: ScoreBaseline,
			},
			NoTradesScore: ScoreBaseline,
			Weights: BehaviorWeights{
				Overtrading:  WeightOvertrading,
				ShortHolding: WeightShortHolding,
				LossSelling:  WeightLossSelling,
				Timing:       WeightTiming,
			},
		},
		Simulation: SimulationPolicy{
			TopHoldingPct:    TopHoldingPct,
			HighDebtRatio:    HighDebtRatio,
			OvervaluedPE:     OvervaluedPE,
			OvervaluedShrink: OvervaluedShrink,
			SectorPct:        SectorOverweight,
			SectorShrink:     SectorShrink,
			MinQuantity:      MinSuggestQuantity,
			MaxSuggestions:   MaxSuggestions,
		},
		Levels: LevelCutoffs{
			Moderate: LevelModerateFrom,
			High:     LevelHighFrom,
			VeryHigh: LevelVeryHighFrom,
		},
	}
}
