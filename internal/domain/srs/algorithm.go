package srs

import (
	"time"

	"github.com/phrazzld/linguist-api/internal/domain"
)

// intervalForMastery picks the review interval for a mastery level.
//
// The curve is a coarse step function: monotonic in mastery and independent
// of how many times the item was practiced. With the default params:
//
//	mastery < 30 → 1 day
//	mastery < 60 → 3 days
//	mastery < 80 → 7 days
//	otherwise    → 14 days
func intervalForMastery(mastery int, params *Params) time.Duration {
	for _, b := range params.Schedule {
		if mastery < b.Below {
			return b.Interval
		}
	}
	return params.MaxInterval
}

// calculateOutcome returns a copy of rec after one binary practice outcome.
// Success rewards mastery and reschedules from the new mastery; failure
// penalizes mastery, counts a failure and always reschedules to the short
// recheck, even when mastery is still high.
func calculateOutcome(rec *domain.SkillRecord, success bool, now time.Time, params *Params) *domain.SkillRecord {
	next := rec.Clone()
	next.PracticeCount++

	var nextReview time.Time
	if success {
		next.MasteryLevel = domain.ClampMastery(next.MasteryLevel + params.SkillSuccessReward)
		nextReview = now.Add(intervalForMastery(next.MasteryLevel, params))
	} else {
		next.FailCount++
		next.MasteryLevel = domain.ClampMastery(next.MasteryLevel - params.SkillFailurePenalty)
		nextReview = now.Add(params.FailureRecheck)
	}

	practicedAt := now
	next.LastPracticedAt = &practicedAt
	next.NextReviewAt = &nextReview
	next.UpdatedAt = now
	return next
}

// batchDelta maps a batch score (0-100) to a mastery delta.
func batchDelta(score float64, params *Params) int {
	for _, band := range params.BatchBands {
		if score >= band.MinScore {
			return band.Delta
		}
	}
	return params.BatchFloorDelta
}

// calculateBatch returns a copy of rec after grading a batch of exercises.
// NextReviewAt is carried over unchanged: batch grading refines the mastery
// estimate without resetting the review clock.
func calculateBatch(rec *domain.SkillRecord, correct, total int, now time.Time, params *Params) (*domain.SkillRecord, BatchResult) {
	score := float64(correct*100) / float64(total)
	delta := batchDelta(score, params)

	next := rec.Clone()
	next.MasteryLevel = domain.ClampMastery(rec.MasteryLevel + delta)
	next.PracticeCount += total
	next.FailCount += total - correct
	practicedAt := now
	next.LastPracticedAt = &practicedAt
	next.UpdatedAt = now

	return next, BatchResult{
		PreviousMastery: rec.MasteryLevel,
		NewMastery:      next.MasteryLevel,
		Delta:           delta,
		Score:           score,
	}
}

// calculateVocabularyReview returns a copy of card after one review.
// Vocabulary has a larger reward than skills and no failure counter.
func calculateVocabularyReview(card *domain.VocabularyCard, correct bool, now time.Time, params *Params) *domain.VocabularyCard {
	next := *card
	next.ReviewCount++
	if correct {
		next.MasteryLevel = domain.ClampMastery(card.MasteryLevel + params.VocabularyCorrectReward)
		next.NextReviewAt = now.Add(intervalForMastery(next.MasteryLevel, params))
	} else {
		next.MasteryLevel = domain.ClampMastery(card.MasteryLevel - params.VocabularyIncorrectPenalty)
		next.NextReviewAt = now.Add(params.FailureRecheck)
	}
	next.UpdatedAt = now
	return &next
}
