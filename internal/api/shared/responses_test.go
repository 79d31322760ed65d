package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, r, http.StatusCreated, map[string]int{"total": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"total":3}`, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(SetTraceID(r.Context()))
	w := httptest.NewRecorder()

	RespondWithError(w, r, http.StatusNotFound, "Learner not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Learner not found", body.Error)
	assert.Equal(t, GetTraceID(r.Context()), body.TraceID)
}

func TestRespondWithErrorAndLogRedacts(t *testing.T) {
	handler := testutils.NewTestSlogHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/learners", nil)
	r = r.WithContext(logger.WithLogger(r.Context(), slog.New(handler)))
	w := httptest.NewRecorder()

	err := errors.New("connect postgres://app:hunter2@db:5432/linguist: refused")
	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "An unexpected error occurred", err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.NotContains(t, w.Body.String(), "postgres")

	entries := handler.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, slog.LevelError.String(), entries[0]["level"])
	assert.NotContains(t, entries[0]["error"], "hunter2")
	assert.Equal(t, int64(http.StatusInternalServerError), entries[0]["status_code"])
}

func TestRespondWithErrorAndLogLevels(t *testing.T) {
	handler := testutils.NewTestSlogHandler()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(logger.WithLogger(r.Context(), slog.New(handler)))

	RespondWithErrorAndLog(httptest.NewRecorder(), r, http.StatusBadRequest, "Invalid request", errors.New("bad"))

	entries := handler.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, slog.LevelDebug.String(), entries[0]["level"])
}
