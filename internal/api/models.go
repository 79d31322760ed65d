package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/service/ledger"
)

// CreateLearnerRequest is the body of POST /api/learners. Every field is
// optional.
type CreateLearnerRequest struct {
	ID        *uuid.UUID `json:"id"`
	Level     string     `json:"level" validate:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	DailyGoal int        `json:"daily_goal" validate:"gte=0,lte=100"`
}

// RecordOutcomeRequest is the body of POST /api/learners/{learnerID}/outcomes.
// It carries either one outcome or a list of them.
type RecordOutcomeRequest struct {
	RuleName string           `json:"rule_name"`
	Success  *bool            `json:"success"`
	Outcomes []ledger.Outcome `json:"outcomes"`
}

// Validate implements the request validation hook.
func (r RecordOutcomeRequest) Validate() error {
	if len(r.Outcomes) > 0 {
		if r.RuleName != "" || r.Success != nil {
			return domain.NewValidationError("outcomes", "cannot be combined with rule_name", nil)
		}
		return nil
	}
	if r.Success == nil {
		return domain.NewValidationError("success", "is required", nil)
	}
	return nil
}

// GradeBatchRequest is the body of POST /api/skills/{skillID}/grade.
type GradeBatchRequest struct {
	CorrectCount *int `json:"correct_count" validate:"required"`
	TotalCount   int  `json:"total_count" validate:"required"`
}

// ImportVocabularyRequest is the body of
// POST /api/learners/{learnerID}/vocabulary. It carries either structured
// entries or lesson text in "word = translation" lines.
type ImportVocabularyRequest struct {
	Entries []domain.VocabularyEntry `json:"entries"`
	Text    string                   `json:"text"`
	Topic   string                   `json:"topic"`
}

// Validate implements the request validation hook.
func (r ImportVocabularyRequest) Validate() error {
	switch {
	case len(r.Entries) > 0 && r.Text != "":
		return domain.NewValidationError("entries", "cannot be combined with text", nil)
	case len(r.Entries) == 0 && r.Text == "":
		return domain.NewValidationError("entries", "or text is required", nil)
	}
	return nil
}

// ReviewVocabularyRequest is the body of POST /api/vocabulary/{cardID}/review.
type ReviewVocabularyRequest struct {
	Correct *bool `json:"correct" validate:"required"`
}
