package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
)

// SessionStats summarizes a user's practice history.
type SessionStats struct {
	Total           int     `json:"total"`
	AverageAccuracy float64 `json:"average_accuracy"`
	LastSevenDays   int     `json:"last_seven_days"`
	Today           int     `json:"today"`
}

// SessionStore persists practice sessions. Sessions are append-only.
type SessionStore interface {
	// Create saves a session.
	Create(ctx context.Context, session *domain.PracticeSession) error

	// Stats aggregates the user's sessions relative to the calendar day today.
	Stats(ctx context.Context, userID uuid.UUID, today time.Time) (SessionStats, error)

	// ListByUser returns sessions practiced on or after since, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, page Page) ([]*domain.PracticeSession, error)

	// ListByLesson returns the sessions recorded for a lesson, newest first.
	ListByLesson(ctx context.Context, lessonID uuid.UUID, page Page) ([]*domain.PracticeSession, error)

	// WithTx returns a SessionStore bound to tx.
	WithTx(tx *sql.Tx) SessionStore
}
