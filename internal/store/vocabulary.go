package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
)

// VocabularyStats summarizes a user's vocabulary cards.
type VocabularyStats struct {
	Total    int `json:"total"`
	Mastered int `json:"mastered"`
	Due      int `json:"due"`
}

// VocabularyStore persists vocabulary cards, unique per (user, word).
type VocabularyStore interface {
	// CreateIfAbsent inserts card unless the user already has a card for the
	// same word. It reports whether the card was inserted; an existing card
	// is never modified.
	CreateIfAbsent(ctx context.Context, card *domain.VocabularyCard) (bool, error)

	// GetByID retrieves a card.
	// Returns ErrVocabularyCardNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyCard, error)

	// GetByIDForUpdate retrieves and locks a card.
	// Returns ErrVocabularyCardNotFound if it does not exist.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.VocabularyCard, error)

	// Update saves mastery, review count and schedule.
	// Returns ErrVocabularyCardNotFound if it does not exist.
	Update(ctx context.Context, card *domain.VocabularyCard) error

	// Delete removes a card.
	// Returns ErrVocabularyCardNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByUser returns all of the user's cards, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]*domain.VocabularyCard, error)

	// ListDue returns cards due at now, most overdue first.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, page Page) ([]*domain.VocabularyCard, error)

	// Stats counts the user's cards, mastered cards and cards due at now.
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (VocabularyStats, error)

	// CountAllDue counts due cards across all users.
	CountAllDue(ctx context.Context, now time.Time) (int, error)

	// WithTx returns a VocabularyStore bound to tx.
	WithTx(tx *sql.Tx) VocabularyStore
}
