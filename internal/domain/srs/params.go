package srs

import (
	"errors"
	"time"
)

// Day is the unit every review interval is expressed in.
const Day = 24 * time.Hour

// ScheduleBucket maps mastery strictly below Below to a review interval.
type ScheduleBucket struct {
	Below    int
	Interval time.Duration
}

// BatchBand awards Delta when a batch score is at least MinScore.
type BatchBand struct {
	MinScore float64
	Delta    int
}

// Params defines the numeric policy of the mastery ledger.
type Params struct {
	// Binary outcomes on skill records
	SkillSuccessReward  int
	SkillFailurePenalty int

	// Vocabulary reviews
	VocabularyCorrectReward    int
	VocabularyIncorrectPenalty int

	// A failure always forces a short recheck regardless of mastery
	FailureRecheck time.Duration

	// Mastery-based schedule, checked in order; MaxInterval applies when no
	// bucket matches
	Schedule    []ScheduleBucket
	MaxInterval time.Duration

	// Batch grading bands, checked in order; BatchFloorDelta applies when
	// no band matches
	BatchBands      []BatchBand
	BatchFloorDelta int
}

// NewDefaultParams returns the production policy.
func NewDefaultParams() *Params {
	return &Params{
		SkillSuccessReward:  5,
		SkillFailurePenalty: 10,

		VocabularyCorrectReward:    15,
		VocabularyIncorrectPenalty: 10,

		FailureRecheck: 1 * Day,

		Schedule: []ScheduleBucket{
			{Below: 30, Interval: 1 * Day},
			{Below: 60, Interval: 3 * Day},
			{Below: 80, Interval: 7 * Day},
		},
		MaxInterval: 14 * Day,

		BatchBands: []BatchBand{
			{MinScore: 80, Delta: 10},
			{MinScore: 60, Delta: 5},
			{MinScore: 40, Delta: 2},
		},
		BatchFloorDelta: -5,
	}
}

// Validate checks that the schedule is monotonic in mastery.
func (p *Params) Validate() error {
	if p.FailureRecheck <= 0 || p.MaxInterval <= 0 {
		return errors.New("srs params: intervals must be positive")
	}
	prevBelow := -1
	var prevInterval time.Duration
	for _, b := range p.Schedule {
		if b.Below <= prevBelow || b.Interval < prevInterval || b.Interval > p.MaxInterval {
			return errors.New("srs params: schedule must be monotonic in mastery")
		}
		prevBelow, prevInterval = b.Below, b.Interval
	}
	prevScore := 101.0
	for _, band := range p.BatchBands {
		if band.MinScore >= prevScore {
			return errors.New("srs params: batch bands must be ordered by descending score")
		}
		prevScore = band.MinScore
	}
	return nil
}
