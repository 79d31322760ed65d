package domain

import (
	"time"

	"github.com/google/uuid"
)

// PracticeKind identifies the exercise that produced a session.
type PracticeKind string

const (
	PracticeKindLesson    PracticeKind = "lesson"
	PracticeKindWriting   PracticeKind = "writing"
	PracticeKindListening PracticeKind = "listening"
)

// IsValid reports whether k is a known practice kind.
func (k PracticeKind) IsValid() bool {
	switch k {
	case PracticeKindLesson, PracticeKindWriting, PracticeKindListening:
		return true
	}
	return false
}

// PracticeSession is the historical record of one completed exercise.
type PracticeSession struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	LessonID     *uuid.UUID   `json:"lesson_id,omitempty"`
	Kind         PracticeKind `json:"kind"`
	Accuracy     float64      `json:"accuracy"`
	ErrorCount   int          `json:"error_count"`
	Feedback     string       `json:"feedback,omitempty"`
	PracticeDate time.Time    `json:"practice_date"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewPracticeSession creates a session dated on now's calendar day.
func NewPracticeSession(
	userID uuid.UUID,
	lessonID *uuid.UUID,
	kind PracticeKind,
	accuracy float64,
	errorCount int,
	feedback string,
	now time.Time,
) (*PracticeSession, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if accuracy < 0 || accuracy > 100 {
		return nil, ErrInvalidAccuracy
	}
	if errorCount < 0 {
		return nil, NewValidationError("error_count", "cannot be negative", nil)
	}

	return &PracticeSession{
		ID:           uuid.New(),
		UserID:       userID,
		LessonID:     lessonID,
		Kind:         kind,
		Accuracy:     accuracy,
		ErrorCount:   errorCount,
		Feedback:     feedback,
		PracticeDate: DateOf(now),
		CreatedAt:    now,
	}, nil
}
