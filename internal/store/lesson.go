package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
)

// LessonStats counts a user's lessons.
type LessonStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// LessonStore persists lessons and their attempt history.
type LessonStore interface {
	// Create saves a new lesson.
	Create(ctx context.Context, lesson *domain.Lesson) error

	// GetByID retrieves a lesson.
	// Returns ErrLessonNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)

	// GetByIDForUpdate retrieves and locks a lesson.
	// Returns ErrLessonNotFound if it does not exist.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)

	// Update saves the attempt fields of a lesson.
	// Returns ErrLessonNotFound if it does not exist.
	Update(ctx context.Context, lesson *domain.Lesson) error

	// ListByUser returns the user's lessons, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]*domain.Lesson, error)

	// ListByRule returns the user's lessons whose grammar focus contains the
	// canonical rule name, newest first.
	ListByRule(ctx context.Context, userID uuid.UUID, ruleName string, page Page) ([]*domain.Lesson, error)

	// Stats counts total and completed lessons.
	Stats(ctx context.Context, userID uuid.UUID) (LessonStats, error)

	// WithTx returns a LessonStore bound to tx.
	WithTx(tx *sql.Tx) LessonStore
}
