package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "nil error",
			err:            nil,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "learner not found",
			err:            store.ErrLearnerNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "not found wrapped by service",
			err:            service.Wrap("ledger", "grade", store.ErrSkillNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "validation error",
			err:            domain.NewValidationError("rule_name", "cannot be blank", nil),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid entity",
			err:            fmt.Errorf("insert: %w", store.ErrInvalidEntity),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "learner exists",
			err:            service.Wrap("learner", "create", store.ErrLearnerExists),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "storage failure",
			err:            errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"validation", domain.NewValidationError("total_count", "must be at least 1", nil), "Invalid total_count: must be at least 1"},
		{"learner", store.ErrLearnerNotFound, "Learner not found"},
		{"skill", service.Wrap("ledger", "grade", store.ErrSkillNotFound), "Skill record not found"},
		{"card", store.ErrVocabularyCardNotFound, "Vocabulary card not found"},
		{"lesson", store.ErrLessonNotFound, "Lesson not found"},
		{"generic not found", domain.ErrNotFound, "Resource not found"},
		{"learner exists", store.ErrLearnerExists, "Learner already exists"},
		{"conflict", domain.ErrConflict, "Resource already exists"},
		{"invalid argument", domain.ErrInvalidArgument, "Invalid request"},
		{"internal details hidden", errors.New("pq: relation \"skill_records\" does not exist"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	type request struct {
		Kind  string `validate:"required,oneof=writing listening"`
		Score int    `validate:"lte=100"`
	}

	v := validator.New()

	err := v.Struct(request{Score: 10})
	var errs validator.ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "Invalid Kind: required field", SanitizeValidationError(errs))

	err = v.Struct(request{Kind: "speaking"})
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "Invalid Kind: invalid value", SanitizeValidationError(errs))

	err = v.Struct(request{Kind: "writing", Score: 101})
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "Invalid Score: too large", SanitizeValidationError(errs))

	assert.Equal(t, "Validation error", SanitizeValidationError(nil))
}
