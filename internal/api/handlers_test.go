package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/api/middleware"
	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/domain/srs"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/service/ledger"
	"github.com/phrazzld/linguist-api/internal/service/practice"
	"github.com/phrazzld/linguist-api/internal/service/progress"
	"github.com/phrazzld/linguist-api/internal/service/vocabulary"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/phrazzld/linguist-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router http.Handler
	stores *testutils.Stores
	clock  *testutils.Clock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	stores := testutils.NewSQLiteStores(t)
	clock := testutils.NewClock(time.Time{})
	log := testutils.DiscardLogger()
	srsService := srs.NewDefaultService()

	ledgerService := ledger.NewService(stores.DB, stores.Learners, stores.Skills, srsService, nil, clock.Now, log)
	vocabularyService := vocabulary.NewService(stores.DB, stores.Learners, stores.Vocabulary, srsService, nil, clock.Now, log)

	r := chi.NewRouter()
	r.Use(middleware.Trace(log))
	RegisterRoutes(r, Handlers{
		Learners:   NewLearnerHandler(service.NewLearnerService(stores.DB, stores.Learners, clock.Now, log), log),
		Skills:     NewSkillHandler(ledgerService),
		Vocabulary: NewVocabularyHandler(vocabularyService),
		Progress:   NewProgressHandler(progress.NewService(stores.DB, stores.Stores, nil, clock.Now, log)),
		Practice: NewPracticeHandler(
			practice.NewService(stores.DB, stores.Stores, ledgerService, vocabularyService, clock.Now, log),
		),
	})

	return &testAPI{router: r, stores: stores, clock: clock}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	resp := decodeBody[shared.ErrorResponse](t, rec)
	if message != "" {
		assert.Equal(t, message, resp.Error)
	}
	assert.NotEmpty(t, resp.TraceID)
}

func TestLearnerEndpoints(t *testing.T) {
	a := newTestAPI(t)
	id := uuid.New()

	rec := a.do(t, http.MethodPost, "/api/learners", map[string]any{"id": id, "level": "B1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[domain.Learner](t, rec)
	assert.Equal(t, id, created.ID)
	assert.Equal(t, domain.LevelB1, created.Level)
	assert.Equal(t, domain.DefaultDailyGoal, created.DailyGoal)

	rec = a.do(t, http.MethodGet, "/api/learners/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decodeBody[domain.Learner](t, rec).ID)

	t.Run("duplicate id", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/learners", map[string]any{"id": id})
		assertError(t, rec, http.StatusConflict, "Learner already exists")
	})

	t.Run("unknown learner", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/learners/"+uuid.NewString(), nil)
		assertError(t, rec, http.StatusNotFound, "Learner not found")
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/learners/not-a-uuid", nil)
		assertError(t, rec, http.StatusBadRequest, "Invalid learnerID: has invalid format")
	})

	t.Run("invalid level", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/learners", map[string]any{"level": "Z9"})
		assertError(t, rec, http.StatusBadRequest, "Invalid Level: invalid value")
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/learners", `{"nickname":"x"}`)
		assertError(t, rec, http.StatusBadRequest, "Invalid request format")
	})
}

func TestSkillEndpoints(t *testing.T) {
	a := newTestAPI(t)
	learner := testutils.CreateLearner(t, a.stores, domain.LevelA1)
	base := "/api/learners/" + learner.ID.String()

	rec := a.do(t, http.MethodPost, base+"/outcomes", map[string]any{"rule_name": "  past   TENSE ", "success": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pastTense := decodeBody[domain.SkillRecord](t, rec)
	assert.Equal(t, "Past Tense", pastTense.RuleName)
	assert.Equal(t, 5, pastTense.MasteryLevel)
	assert.Equal(t, 1, pastTense.PracticeCount)

	rec = a.do(t, http.MethodPost, base+"/outcomes", map[string]any{
		"outcomes": []map[string]any{
			{"rule_name": "articles", "success": false},
			{"rule_name": "word order", "success": true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	batch := decodeBody[[]domain.SkillRecord](t, rec)
	names := make([]string, 0, len(batch))
	for _, r := range batch {
		names = append(names, r.RuleName)
	}
	assert.ElementsMatch(t, []string{"Articles", "Word Order"}, names)

	t.Run("rejects bad outcomes", func(t *testing.T) {
		assertError(t, a.do(t, http.MethodPost, base+"/outcomes", map[string]any{"rule_name": "   ", "success": true}),
			http.StatusBadRequest, "")
		assertError(t, a.do(t, http.MethodPost, base+"/outcomes", map[string]any{"rule_name": "Articles"}),
			http.StatusBadRequest, "Invalid success: is required")
		assertError(t, a.do(t, http.MethodPost, "/api/learners/"+uuid.NewString()+"/outcomes",
			map[string]any{"rule_name": "Articles", "success": true}),
			http.StatusNotFound, "Learner not found")
	})

	t.Run("lists", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, base+"/skills", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.SkillRecord](t, rec), 3)

		rec = a.do(t, http.MethodGet, base+"/skills?limit=1&offset=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.SkillRecord](t, rec), 1)

		rec = a.do(t, http.MethodGet, base+"/skills/weak", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		weak := decodeBody[[]domain.SkillRecord](t, rec)
		require.Len(t, weak, 3)
		assert.Equal(t, "Articles", weak[0].RuleName)

		rec = a.do(t, http.MethodGet, base+"/skills/weak?threshold=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.SkillRecord](t, rec), 1)

		assertError(t, a.do(t, http.MethodGet, base+"/skills?limit=-1", nil), http.StatusBadRequest, "")
		assertError(t, a.do(t, http.MethodGet, base+"/skills/weak?threshold=abc", nil), http.StatusBadRequest, "")
	})

	t.Run("due", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, base+"/skills/due", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[[]domain.SkillRecord](t, rec))

		a.clock.Advance(48 * time.Hour)
		rec = a.do(t, http.MethodGet, base+"/skills/due", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.SkillRecord](t, rec), 3)
	})

	t.Run("grade batch", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, fmt.Sprintf("/api/skills/%s/grade", pastTense.ID),
			map[string]any{"correct_count": 4, "total_count": 5})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		grade := decodeBody[ledger.BatchGrade](t, rec)
		assert.Equal(t, 5, grade.Result.PreviousMastery)
		assert.Equal(t, 15, grade.Result.NewMastery)
		assert.Equal(t, 10, grade.Result.Delta)
		assert.Equal(t, 6, grade.Record.PracticeCount)
		assert.Equal(t, 1, grade.Record.FailCount)

		assertError(t, a.do(t, http.MethodPost, fmt.Sprintf("/api/skills/%s/grade", pastTense.ID),
			map[string]any{"correct_count": 6, "total_count": 5}), http.StatusBadRequest, "")
		assertError(t, a.do(t, http.MethodPost, fmt.Sprintf("/api/skills/%s/grade", pastTense.ID),
			map[string]any{"total_count": 5}), http.StatusBadRequest, "Invalid CorrectCount: required field")
		assertError(t, a.do(t, http.MethodPost, fmt.Sprintf("/api/skills/%s/grade", uuid.New()),
			map[string]any{"correct_count": 1, "total_count": 5}), http.StatusNotFound, "Skill record not found")
	})
}

func TestVocabularyEndpoints(t *testing.T) {
	a := newTestAPI(t)
	learner := testutils.CreateLearner(t, a.stores, domain.LevelA1)
	base := "/api/learners/" + learner.ID.String()

	rec := a.do(t, http.MethodPost, base+"/vocabulary", map[string]any{
		"topic": "Animals",
		"entries": []map[string]string{
			{"word": "gato", "translation": "cat"},
			{"word": "perro", "translation": "dog"},
			{"word": "", "translation": "nothing"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, vocabulary.ImportResult{Imported: 2, Invalid: 1}, decodeBody[vocabulary.ImportResult](t, rec))

	rec = a.do(t, http.MethodPost, base+"/vocabulary", map[string]any{"text": "gato = kitten\ntren = train"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, vocabulary.ImportResult{Imported: 1, Skipped: 1}, decodeBody[vocabulary.ImportResult](t, rec))

	assertError(t, a.do(t, http.MethodPost, base+"/vocabulary", map[string]any{}), http.StatusBadRequest, "")

	rec = a.do(t, http.MethodGet, base+"/vocabulary/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.VocabularyStats{Total: 3, Mastered: 0, Due: 3}, decodeBody[store.VocabularyStats](t, rec))

	rec = a.do(t, http.MethodGet, base+"/vocabulary/due?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := decodeBody[[]domain.VocabularyCard](t, rec)
	require.Len(t, due, 3)

	var gato domain.VocabularyCard
	for _, c := range due {
		if c.Word == "gato" {
			gato = c
		}
	}
	assert.Equal(t, "cat", gato.Translation, "first import wins")

	rec = a.do(t, http.MethodPost, "/api/vocabulary/"+gato.ID.String()+"/review", map[string]any{"correct": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reviewed := decodeBody[domain.VocabularyCard](t, rec)
	assert.Equal(t, 15, reviewed.MasteryLevel)
	assert.Equal(t, 1, reviewed.ReviewCount)

	assertError(t, a.do(t, http.MethodPost, "/api/vocabulary/"+gato.ID.String()+"/review", map[string]any{}),
		http.StatusBadRequest, "Invalid Correct: required field")

	rec = a.do(t, http.MethodGet, base+"/vocabulary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	all := decodeBody[[]domain.VocabularyCard](t, rec)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"tren", "perro", "gato"}, []string{all[0].Word, all[1].Word, all[2].Word})

	assertError(t, a.do(t, http.MethodGet, "/api/learners/"+uuid.NewString()+"/vocabulary", nil),
		http.StatusNotFound, "Learner not found")

	rec = a.do(t, http.MethodDelete, "/api/vocabulary/"+gato.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, base+"/vocabulary?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.VocabularyCard](t, rec), 2)
	assertError(t, a.do(t, http.MethodDelete, "/api/vocabulary/"+gato.ID.String(), nil),
		http.StatusNotFound, "Vocabulary card not found")
}

func TestProgressEndpoints(t *testing.T) {
	a := newTestAPI(t)
	learner := testutils.CreateLearner(t, a.stores, domain.LevelA1)
	base := "/api/learners/" + learner.ID.String()

	ctx := context.Background()
	now := a.clock.Now()
	for _, rule := range []string{"Articles", "Past Tense", "Plural", "Word Order", "Gender"} {
		candidate, err := domain.NewSkillRecord(learner.ID, rule, now)
		require.NoError(t, err)
		rec, err := a.stores.Skills.GetOrCreateForUpdate(ctx, candidate)
		require.NoError(t, err)
		rec.MasteryLevel = 80
		rec.PracticeCount = 1
		rec.LastPracticedAt = &now
		rec.NextReviewAt = &now
		require.NoError(t, a.stores.Skills.Update(ctx, rec))
	}

	rec := a.do(t, http.MethodGet, base+"/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dashboard := decodeBody[progress.Dashboard](t, rec)
	assert.True(t, dashboard.EligibleForPromotion)
	assert.Equal(t, 5, dashboard.TotalRulesTracked)
	assert.Equal(t, 5, dashboard.DueReviewCount)

	rec = a.do(t, http.MethodPost, base+"/promotion", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decodeBody[progress.PromotionResult](t, rec)
	assert.True(t, first.Promoted)
	assert.Equal(t, domain.LevelA1, first.PreviousLevel)
	assert.Equal(t, domain.LevelA2, first.CurrentLevel)

	rec = a.do(t, http.MethodPost, base+"/promotion", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[progress.PromotionResult](t, rec)
	assert.False(t, second.Promoted)
	assert.Equal(t, domain.ReasonNoPracticeSincePromotion, second.Reason)
	assert.Equal(t, domain.LevelA2, second.CurrentLevel)
	assert.Equal(t, second.PreviousLevel, second.CurrentLevel)

	rec = a.do(t, http.MethodGet, base+"/timeline?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]domain.PracticeSession](t, rec))

	assertError(t, a.do(t, http.MethodPost, "/api/learners/"+uuid.NewString()+"/promotion", nil),
		http.StatusNotFound, "Learner not found")
	assertError(t, a.do(t, http.MethodGet, "/api/learners/"+uuid.NewString()+"/dashboard", nil),
		http.StatusNotFound, "Learner not found")
}

func TestPracticeEndpoints(t *testing.T) {
	a := newTestAPI(t)
	learner := testutils.CreateLearner(t, a.stores, domain.LevelA1)
	base := "/api/learners/" + learner.ID.String()

	rec := a.do(t, http.MethodPost, base+"/lessons", map[string]any{
		"topic":           "Travel",
		"grammar_focus":   []string{"past tense", "articles"},
		"vocabulary_list": "tren = train\nbillete = ticket",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[practice.LessonCreated](t, rec)
	assert.Equal(t, []string{"Past Tense", "Articles"}, created.Lesson.GrammarFocus)
	assert.Equal(t, 2, created.Vocabulary.Imported)

	assertError(t, a.do(t, http.MethodPost, base+"/lessons", map[string]any{"topic": ""}),
		http.StatusBadRequest, "Invalid Topic: required field")

	rec = a.do(t, http.MethodGet, base+"/lessons", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Lesson](t, rec), 1)

	lessonPath := "/api/lessons/" + created.Lesson.ID.String() + "/practice"
	rec = a.do(t, http.MethodPost, lessonPath, map[string]any{"accuracy": 85, "error_rules": []string{"articles"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[practice.Result](t, rec)
	require.NotNil(t, result.Lesson)
	assert.True(t, result.Lesson.Completed)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Len(t, result.Skills, 2)

	lessonURL := "/api/lessons/" + created.Lesson.ID.String()
	rec = a.do(t, http.MethodGet, lessonURL, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lesson := decodeBody[domain.Lesson](t, rec)
	assert.Equal(t, "Travel", lesson.Topic)
	assert.Equal(t, 1, lesson.TimesAttempted)

	rec = a.do(t, http.MethodGet, lessonURL+"/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sessions := decodeBody[[]domain.PracticeSession](t, rec)
	require.Len(t, sessions, 1)
	assert.Equal(t, result.Session.ID, sessions[0].ID)

	for _, skill := range result.Skills {
		rec = a.do(t, http.MethodGet, "/api/skills/"+skill.ID.String()+"/lessons", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		related := decodeBody[[]domain.Lesson](t, rec)
		require.Len(t, related, 1, skill.RuleName)
		assert.Equal(t, created.Lesson.ID, related[0].ID)
	}

	assertError(t, a.do(t, http.MethodGet, "/api/lessons/"+uuid.NewString(), nil),
		http.StatusNotFound, "Lesson not found")
	assertError(t, a.do(t, http.MethodGet, "/api/lessons/"+uuid.NewString()+"/sessions", nil),
		http.StatusNotFound, "Lesson not found")
	assertError(t, a.do(t, http.MethodGet, "/api/skills/"+uuid.NewString()+"/lessons", nil),
		http.StatusNotFound, "Skill record not found")

	assertError(t, a.do(t, http.MethodPost, lessonPath, map[string]any{"accuracy": 150}), http.StatusBadRequest, "")
	assertError(t, a.do(t, http.MethodPost, "/api/lessons/"+uuid.NewString()+"/practice", map[string]any{"accuracy": 50}),
		http.StatusNotFound, "Lesson not found")

	rec = a.do(t, http.MethodPost, base+"/challenges", map[string]any{"kind": "listening", "score": 75})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	challenge := decodeBody[practice.Result](t, rec)
	require.Len(t, challenge.Skills, 1)
	assert.Equal(t, practice.ListeningRule, challenge.Skills[0].RuleName)
	assert.Equal(t, 5, challenge.Skills[0].MasteryLevel)

	assertError(t, a.do(t, http.MethodPost, base+"/challenges", map[string]any{"kind": "speaking", "score": 75}),
		http.StatusBadRequest, "Invalid Kind: invalid value")

	rec = a.do(t, http.MethodGet, base+"/timeline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.PracticeSession](t, rec), 2)
}
