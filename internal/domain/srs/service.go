// Package srs implements the spaced-repetition policy of the mastery ledger:
// how a practice outcome moves a mastery level and when the item is due
// again. All calculations are pure and take the current time explicitly.
package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/linguist-api/internal/domain"
)

// Common errors
var (
	ErrNilRecord = errors.New("skill record cannot be nil")
	ErrNilCard   = errors.New("vocabulary card cannot be nil")
)

// BatchResult is the auditable outcome of grading a batch of exercises.
type BatchResult struct {
	PreviousMastery int     `json:"previous_mastery"`
	NewMastery      int     `json:"new_mastery"`
	Delta           int     `json:"delta"`
	Score           float64 `json:"score"`
}

// Service defines the interface for mastery ledger calculations.
type Service interface {
	// ScheduleFromMastery returns when an item at the given mastery is next due.
	ScheduleFromMastery(mastery int, now time.Time) time.Time

	// ApplyOutcome computes a skill record after a binary success/failure.
	ApplyOutcome(rec *domain.SkillRecord, success bool, now time.Time) (*domain.SkillRecord, error)

	// GradeBatch computes a skill record after correct out of total exercises.
	// The record's NextReviewAt is left unchanged.
	GradeBatch(rec *domain.SkillRecord, correct, total int, now time.Time) (*domain.SkillRecord, BatchResult, error)

	// ReviewVocabulary computes a vocabulary card after one review.
	ReviewVocabulary(card *domain.VocabularyCard, correct bool, now time.Time) (*domain.VocabularyCard, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, errors.New("srs params cannot be nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

func (s *defaultService) ScheduleFromMastery(mastery int, now time.Time) time.Time {
	return now.Add(intervalForMastery(mastery, s.params))
}

func (s *defaultService) ApplyOutcome(
	rec *domain.SkillRecord,
	success bool,
	now time.Time,
) (*domain.SkillRecord, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	return calculateOutcome(rec, success, now, s.params), nil
}

func (s *defaultService) GradeBatch(
	rec *domain.SkillRecord,
	correct, total int,
	now time.Time,
) (*domain.SkillRecord, BatchResult, error) {
	if rec == nil {
		return nil, BatchResult{}, ErrNilRecord
	}
	if err := ValidateBatch(correct, total); err != nil {
		return nil, BatchResult{}, err
	}
	next, result := calculateBatch(rec, correct, total, now, s.params)
	return next, result, nil
}

func (s *defaultService) ReviewVocabulary(
	card *domain.VocabularyCard,
	correct bool,
	now time.Time,
) (*domain.VocabularyCard, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	return calculateVocabularyReview(card, correct, now, s.params), nil
}

// ValidateBatch checks that total >= 1 and 0 <= correct <= total.
func ValidateBatch(correct, total int) error {
	if total < 1 || correct < 0 || correct > total {
		return domain.ErrInvalidBatchCount
	}
	return nil
}
