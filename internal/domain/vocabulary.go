package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VocabularyCard is a word the learner reviews with spaced repetition.
// Cards are unique per (UserID, Word) and live in a namespace separate
// from skill records.
type VocabularyCard struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Word         string    `json:"word"`
	Translation  string    `json:"translation"`
	ContextNote  string    `json:"context_note,omitempty"`
	MasteryLevel int       `json:"mastery_level"`
	ReviewCount  int       `json:"review_count"`
	NextReviewAt time.Time `json:"next_review_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VocabularyEntry is one word/translation pair offered for import.
type VocabularyEntry struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	ContextNote string `json:"context_note,omitempty"`
}

// NewVocabularyCard creates a card that is due immediately.
func NewVocabularyCard(userID uuid.UUID, entry VocabularyEntry, now time.Time) (*VocabularyCard, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	word := strings.TrimSpace(entry.Word)
	if word == "" {
		return nil, ErrBlankWord
	}
	translation := strings.TrimSpace(entry.Translation)
	if translation == "" {
		return nil, ErrBlankTranslation
	}

	return &VocabularyCard{
		ID:           uuid.New(),
		UserID:       userID,
		Word:         word,
		Translation:  translation,
		ContextNote:  strings.TrimSpace(entry.ContextNote),
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsDue reports whether the card should be reviewed at now.
func (c *VocabularyCard) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

var vocabularySeparator = regexp.MustCompile(`\s*=\s*`)

// ParseVocabularyList reads lesson vocabulary in "word = translation" form,
// one pair per line. Blank lines and lines without a separator are skipped.
// Every entry gets contextNote as its context.
func ParseVocabularyList(text, contextNote string) []VocabularyEntry {
	var entries []VocabularyEntry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := vocabularySeparator.Split(line, 2)
		if len(parts) != 2 {
			continue
		}
		word := strings.TrimSpace(parts[0])
		translation := strings.TrimSpace(parts[1])
		if word == "" || translation == "" {
			continue
		}
		entries = append(entries, VocabularyEntry{
			Word:        word,
			Translation: translation,
			ContextNote: contextNote,
		})
	}
	return entries
}
