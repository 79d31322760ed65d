package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
)

// LearnerStore persists learners: level, streak and daily goal.
type LearnerStore interface {
	// Create saves a new learner.
	// Returns ErrLearnerExists if the ID is taken.
	Create(ctx context.Context, learner *domain.Learner) error

	// GetByID retrieves a learner.
	// Returns ErrLearnerNotFound if the learner does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Learner, error)

	// GetByIDForUpdate retrieves a learner and locks the row until the
	// surrounding transaction ends. The lock does not block foreign key
	// checks of concurrent ledger inserts. Must be called on a store
	// returned by WithTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Learner, error)

	// Update saves level, streak and goal fields.
	// Returns ErrLearnerNotFound if the learner does not exist.
	Update(ctx context.Context, learner *domain.Learner) error

	// WithTx returns a LearnerStore bound to tx.
	WithTx(tx *sql.Tx) LearnerStore
}
