package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Stores, services and the API map
// their failures onto these sentinels so callers can use errors.Is.
var (
	// ErrNotFound is returned when a learner, record or card does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for blank rule names, out-of-range
	// counts and other input that fails validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict is returned when a write collides with an existing entity.
	// Ledger writes never produce it in normal flow.
	ErrConflict = errors.New("conflict")
)

// Validation errors for individual fields.
var (
	ErrBlankRuleName     = NewValidationError("rule_name", "cannot be blank", nil)
	ErrEmptyUserID       = NewValidationError("user_id", "cannot be empty", nil)
	ErrInvalidMastery    = NewValidationError("mastery_level", "must be between 0 and 100", nil)
	ErrInvalidCounts     = NewValidationError("practice_count", "must be non-negative and not less than fail_count", nil)
	ErrBlankWord         = NewValidationError("word", "cannot be blank", nil)
	ErrBlankTranslation  = NewValidationError("translation", "cannot be blank", nil)
	ErrInvalidLevel      = NewValidationError("level", "must be one of A1, A2, B1, B2, C1, C2", nil)
	ErrInvalidAccuracy   = NewValidationError("accuracy", "must be between 0 and 100", nil)
	ErrInvalidBatchCount = NewValidationError("total_count", "requires total >= 1 and 0 <= correct <= total", nil)
	ErrInvalidDailyGoal  = NewValidationError("daily_goal", "must be at least 1", nil)
	ErrInvalidKind       = NewValidationError("kind", "unknown practice kind", nil)
)

// ValidationError describes a single invalid field. It always matches
// ErrInvalidArgument under errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap exposes both the wrapped cause and ErrInvalidArgument.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidArgument, e.Err}
	}
	return []error{ErrInvalidArgument}
}
