package policy

import (
	"fmt"

	"github.com/wonny/risklens/internal/contracts"
)

// Op is a ladder comparison operator
type Op string

const (
	OpGT  Op = "gt"
	OpGTE Op = "gte"
	OpLT  Op = "lt"
)

// Valid reports whether o is a known operator
func (o Op) Valid() bool {
	switch o {
	case OpGT, OpGTE, OpLT:
		return true
	}
	return false
}

// Matches applies the comparison "value <op> threshold"
func (o Op) Matches(value, threshold float64) bool {
	switch o {
	case OpGT:
		return value > threshold
	case OpGTE:
		return value >= threshold
	case OpLT:
		return value < threshold
	}
	return false
}

// Step is one rung of a Ladder
type Step struct {
	Op        Op              `yaml:"op" json:"op"`
	Threshold float64         `yaml:"threshold" json:"threshold"`
	Score     contracts.Score `yaml:"score" json:"score"`
}

// Ladder maps a statistic to a discrete score. Steps are checked in order,
// the first match wins, and Otherwise applies when nothing matches.
type Ladder struct {
	Steps     []Step          `yaml:"steps" json:"steps"`
	Otherwise contracts.Score `yaml:"otherwise" json:"otherwise"`
}

// Score buckets value
func (l Ladder) Score(value float64) contracts.Score {
	for _, s := range l.Steps {
		if s.Op.Matches(value, s.Threshold) {
			return s.Score
		}
	}
	return l.Otherwise
}

func descending(gt1, gt2 float64) Ladder {
	return Ladder{
		Steps: []Step{
			{Op: OpGT, Threshold: gt1, Score: ScoreHigh},
			{Op: OpGT, Threshold: gt2, Score: ScoreElevated},
		},
		Otherwise: ScoreBaseline,
	}
}

func validateLadder(field string, l Ladder) error {
	if len(l.Steps) == 0 {
		return ValidationError{field + ".steps", "at least one step required"}
	}
	for i, s := range l.Steps {
		if !s.Op.Valid() {
			return ValidationError{fmt.Sprintf("%s.steps[%d].op", field, i), fmt.Sprintf("unknown operator %q", s.Op)}
		}
		if err := validateScore(fmt.Sprintf("%s.steps[%d].score", field, i), s.Score); err != nil {
			return err
		}
	}
	return validateScore(field+".otherwise", l.Otherwise)
}

func validateScore(field string, s contracts.Score) error {
	if s < 0 || s > MaxScore {
		return ValidationError{field, fmt.Sprintf("must be in [0, %d], got %d", MaxScore, s)}
	}
	return nil
}
