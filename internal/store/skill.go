package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
)

// SkillStore persists the skill ledger: one record per (user, rule name).
//
// List methods return records in a stable order; when mastery ties, records
// keep their insertion order.
type SkillStore interface {
	// GetOrCreateForUpdate returns the record for candidate's (UserID,
	// RuleName), inserting candidate first when no record exists, and locks
	// it until the surrounding transaction ends. Concurrent callers for the
	// same key are serialized and all observe the same record.
	GetOrCreateForUpdate(ctx context.Context, candidate *domain.SkillRecord) (*domain.SkillRecord, error)

	// GetByID retrieves a record.
	// Returns ErrSkillNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SkillRecord, error)

	// GetByIDForUpdate retrieves and locks a record.
	// Returns ErrSkillNotFound if it does not exist.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SkillRecord, error)

	// GetByRule retrieves the record for a canonical rule name.
	// Returns ErrSkillNotFound if it does not exist.
	GetByRule(ctx context.Context, userID uuid.UUID, ruleName string) (*domain.SkillRecord, error)

	// Update saves mastery, counters and schedule of an existing record.
	// Returns ErrSkillNotFound if it does not exist.
	Update(ctx context.Context, rec *domain.SkillRecord) error

	// ListByUser returns the user's records in insertion order.
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]*domain.SkillRecord, error)

	// ListWeak returns records with mastery below threshold, weakest first.
	ListWeak(ctx context.Context, userID uuid.UUID, threshold int, page Page) ([]*domain.SkillRecord, error)

	// ListDue returns records with NextReviewAt at or before now, most
	// overdue first.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, page Page) ([]*domain.SkillRecord, error)

	// CountDue counts the user's records due at now.
	CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// CountAllDue counts due records across all users.
	CountAllDue(ctx context.Context, now time.Time) (int, error)

	// WithTx returns a SkillStore bound to tx.
	WithTx(tx *sql.Tx) SkillStore
}
