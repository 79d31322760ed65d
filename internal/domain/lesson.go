package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LessonPassAccuracy is the accuracy at which a lesson attempt completes
// the lesson.
const LessonPassAccuracy = 80.0

// Lesson is a unit of practice with a set of grammar rules in focus and a
// vocabulary list. Lesson content itself is produced upstream.
type Lesson struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Topic          string     `json:"topic"`
	GrammarFocus   []string   `json:"grammar_focus"`
	VocabularyList string     `json:"vocabulary_list,omitempty"`
	TimesAttempted int        `json:"times_attempted"`
	BestScore      float64    `json:"best_score"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewLesson creates a lesson. Grammar focus names are normalized and
// deduplicated; blank names are dropped.
func NewLesson(userID uuid.UUID, topic string, grammarFocus []string, vocabularyList string, now time.Time) (*Lesson, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, NewValidationError("topic", "cannot be blank", nil)
	}

	return &Lesson{
		ID:             uuid.New(),
		UserID:         userID,
		Topic:          topic,
		GrammarFocus:   NormalizeRuleNames(grammarFocus),
		VocabularyList: vocabularyList,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RecordAttempt registers one practice attempt. The best score only grows,
// and the lesson completes the first time accuracy reaches
// LessonPassAccuracy.
func (l *Lesson) RecordAttempt(accuracy float64, now time.Time) error {
	if accuracy < 0 || accuracy > 100 {
		return ErrInvalidAccuracy
	}
	l.TimesAttempted++
	if accuracy > l.BestScore {
		l.BestScore = accuracy
	}
	if accuracy >= LessonPassAccuracy && !l.Completed {
		l.Completed = true
		completedAt := now
		l.CompletedAt = &completedAt
	}
	l.UpdatedAt = now
	return nil
}

// NormalizeRuleNames normalizes each name, drops blanks and keeps the first
// occurrence of duplicates.
func NormalizeRuleNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		canonical := NormalizeRuleName(name)
		if canonical == "" {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}
