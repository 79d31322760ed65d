package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/store"
)

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", nil)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", nil)
	}
	return id, nil
}

// pathUUID is getPathUUID that writes the error response itself. It
// reports whether the handler should continue.
func pathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := getPathUUID(r, paramName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate decodes the request body into v and validates it,
// writing a 400 on failure. It reports whether the handler should
// continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(validationErrs), err)
			return false
		}
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", nil)
	}
	return v, nil
}

const maxPageLimit = 500

// pageFromQuery reads limit and offset. Both must be non-negative; a zero
// limit leaves the default to the service and larger limits are capped at
// maxPageLimit.
func pageFromQuery(r *http.Request) (store.Page, error) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return store.Page{}, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return store.Page{}, err
	}
	if limit < 0 {
		return store.Page{}, domain.NewValidationError("limit", "cannot be negative", nil)
	}
	if offset < 0 {
		return store.Page{}, domain.NewValidationError("offset", "cannot be negative", nil)
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return store.Page{Limit: limit, Offset: offset}, nil
}
