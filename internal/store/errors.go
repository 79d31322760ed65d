package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/linguist-api/internal/domain"
)

// Common store errors used across all store implementations. Each wraps the
// matching domain sentinel so the API layer only needs the domain taxonomy.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = fmt.Errorf("entity %w", domain.ErrNotFound)

	// ErrDuplicate is returned when a write would violate a uniqueness
	// constraint.
	ErrDuplicate = fmt.Errorf("entity already exists: %w", domain.ErrConflict)

	// ErrInvalidEntity is returned when the database rejects an entity
	// because of a check, foreign key or not-null constraint.
	ErrInvalidEntity = fmt.Errorf("invalid entity: %w", domain.ErrInvalidArgument)

	// Entity-specific "not found" errors. Each wraps ErrNotFound, so
	// errors.Is(err, ErrNotFound) matches all of them.

	// ErrLearnerNotFound indicates that the learner does not exist.
	ErrLearnerNotFound = fmt.Errorf("%w: learner", ErrNotFound)

	// ErrSkillNotFound indicates that the skill record does not exist.
	ErrSkillNotFound = fmt.Errorf("%w: skill record", ErrNotFound)

	// ErrVocabularyCardNotFound indicates that the vocabulary card does not exist.
	ErrVocabularyCardNotFound = fmt.Errorf("%w: vocabulary card", ErrNotFound)

	// ErrLessonNotFound indicates that the lesson does not exist.
	ErrLessonNotFound = fmt.Errorf("%w: lesson", ErrNotFound)

	// Entity-specific "duplicate" errors.

	// ErrLearnerExists indicates that a learner with the same ID already exists.
	ErrLearnerExists = fmt.Errorf("%w: learner", ErrDuplicate)
)

// IsNotFoundError reports whether err is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError wraps an unexpected persistence failure with the entity and
// operation it happened in. It is the opaque storage error surfaced to
// callers; the wrapped error is kept for logging only.
type StoreError struct {
	Entity    string // The entity type (e.g., "skill_record", "learner")
	Operation string // The operation that failed (e.g., "update", "lock")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// IsStoreError reports whether err carries a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
