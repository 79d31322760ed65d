package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/store"
)

// MapErrorToStatusCode maps an error to an HTTP status through the domain
// taxonomy. Anything unrecognized is a 500.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message for err that is safe to show to a
// client. Field validation messages come from the domain and are passed
// through; storage details never are.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		validationErr  *domain.ValidationError
		validationErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)

	case errors.Is(err, store.ErrLearnerNotFound):
		return "Learner not found"
	case errors.Is(err, store.ErrSkillNotFound):
		return "Skill record not found"
	case errors.Is(err, store.ErrVocabularyCardNotFound):
		return "Vocabulary card not found"
	case errors.Is(err, store.ErrLessonNotFound):
		return "Lesson not found"
	case errors.Is(err, domain.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrLearnerExists):
		return "Learner already exists"
	case errors.Is(err, domain.ErrConflict):
		return "Resource already exists"

	case errors.Is(err, domain.ErrInvalidArgument):
		return "Invalid request"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError describes the first failed field of a struct
// validation without exposing Go type names.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid UUID"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the error response for err. fallback replaces the
// generic message of a 500 when it is not empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
