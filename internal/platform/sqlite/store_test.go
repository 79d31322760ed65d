package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/phrazzld/linguist-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = testutils.FixedTime

func TestLearnerStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stores := testutils.NewSQLiteStores(t)

	learner := testutils.CreateLearner(t, stores, domain.LevelB1)

	t.Run("get round trip", func(t *testing.T) {
		got, err := stores.Learners.GetByID(ctx, learner.ID)
		require.NoError(t, err)
		assert.Equal(t, learner.Level, got.Level)
		assert.Equal(t, domain.DefaultDailyGoal, got.DailyGoal)
		assert.Nil(t, got.LastPracticeDate)
		assert.True(t, learner.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := stores.Learners.Create(ctx, learner)
		assert.ErrorIs(t, err, store.ErrLearnerExists)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("update streak fields", func(t *testing.T) {
		got, err := stores.Learners.GetByID(ctx, learner.ID)
		require.NoError(t, err)
		got.ApplyPracticeEvent(now)
		got.Level = domain.LevelB2
		require.NoError(t, stores.Learners.Update(ctx, got))

		reloaded, err := stores.Learners.GetByID(ctx, learner.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LevelB2, reloaded.Level)
		assert.Equal(t, 1, reloaded.CurrentStreak)
		require.NotNil(t, reloaded.LastPracticeDate)
		assert.True(t, domain.DateOf(now).Equal(*reloaded.LastPracticeDate))
	})

	t.Run("missing learner", func(t *testing.T) {
		_, err := stores.Learners.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrLearnerNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		ghost, err := domain.NewLearner(uuid.New(), domain.LevelA1, 0, now)
		require.NoError(t, err)
		assert.ErrorIs(t, stores.Learners.Update(ctx, ghost), store.ErrLearnerNotFound)
	})
}

func newSkill(t *testing.T, userID uuid.UUID, rule string) *domain.SkillRecord {
	t.Helper()
	rec, err := domain.NewSkillRecord(userID, rule, now)
	require.NoError(t, err)
	return rec
}

func TestSkillStoreGetOrCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stores := testutils.NewSQLiteStores(t)
	learner := testutils.CreateLearner(t, stores, domain.LevelA1)

	first, err := stores.Skills.GetOrCreateForUpdate(ctx, newSkill(t, learner.ID, "past tense"))
	require.NoError(t, err)
	assert.Equal(t, "Past Tense", first.RuleName)

	second, err := stores.Skills.GetOrCreateForUpdate(ctx, newSkill(t, learner.ID, "  PAST   TENSE "))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same key must resolve to the same record")

	records, err := stores.Skills.ListByUser(ctx, learner.ID, store.Page{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSkillStoreListings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stores := testutils.NewSQLiteStores(t)
	learner := testutils.CreateLearner(t, stores, domain.LevelA1)

	type seed struct {
		rule    string
		mastery int
		due     *time.Time
	}
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)
	seeds := []seed{
		{"Articles", 40, &past},
		{"Plurals", 20, nil},
		{"Word Order", 40, &future},
		{"Subjunctive", 90, &now},
	}
	for _, s := range seeds {
		rec, err := stores.Skills.GetOrCreateForUpdate(ctx, newSkill(t, learner.ID, s.rule))
		require.NoError(t, err)
		rec.MasteryLevel = s.mastery
		rec.PracticeCount = 1
		rec.NextReviewAt = s.due
		require.NoError(t, stores.Skills.Update(ctx, rec))
	}

	t.Run("insertion order", func(t *testing.T) {
		all, err := stores.Skills.ListByUser(ctx, learner.ID, store.Page{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "Articles", all[0].RuleName)
		assert.Equal(t, "Subjunctive", all[3].RuleName)

		paged, err := stores.Skills.ListByUser(ctx, learner.ID, store.Page{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, paged, 2)
		assert.Equal(t, "Plurals", paged[0].RuleName)
	})

	t.Run("weak ties keep insertion order", func(t *testing.T) {
		weak, err := stores.Skills.ListWeak(ctx, learner.ID, 60, store.Page{})
		require.NoError(t, err)
		require.Len(t, weak, 3)
		assert.Equal(t, []string{"Plurals", "Articles", "Word Order"},
			[]string{weak[0].RuleName, weak[1].RuleName, weak[2].RuleName})
	})

	t.Run("due", func(t *testing.T) {
		due, err := stores.Skills.ListDue(ctx, learner.ID, now, store.Page{})
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, "Articles", due[0].RuleName)
		assert.Equal(t, "Subjunctive", due[1].RuleName)

		n, err := stores.Skills.CountDue(ctx, learner.ID, now)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		all, err := stores.Skills.CountAllDue(ctx, future)
		require.NoError(t, err)
		assert.Equal(t, 3, all)
	})

	t.Run("get by rule", func(t *testing.T) {
		rec, err := stores.Skills.GetByRule(ctx, learner.ID, "Plurals")
		require.NoError(t, err)
		assert.Equal(t, 20, rec.MasteryLevel)
		assert.Nil(t, rec.NextReviewAt)

		_, err = stores.Skills.GetByRule(ctx, learner.ID, "Gerunds")
		assert.ErrorIs(t, err, store.ErrSkillNotFound)
	})

	t.Run("update rejects invalid record", func(t *testing.T) {
		rec, err := stores.Skills.GetByRule(ctx, learner.ID, "Plurals")
		require.NoError(t, err)
		rec.MasteryLevel = 101
		assert.ErrorIs(t, stores.Skills.Update(ctx, rec), domain.ErrInvalidArgument)
	})
}

func TestVocabularyStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stores := testutils.NewSQLiteStores(t)
	learner := testutils.CreateLearner(t, stores, domain.LevelA1)

	card, err := domain.NewVocabularyCard(learner.ID, domain.VocabularyEntry{Word: "Haus", Translation: "house"}, now)
	require.NoError(t, err)

	created, err := stores.Vocabulary.CreateIfAbsent(ctx, card)
	require.NoError(t, err)
	assert.True(t, created)

	dup, err := domain.NewVocabularyCard(learner.ID, domain.VocabularyEntry{Word: "Haus", Translation: "home"}, now)
	require.NoError(t, err)
	created, err = stores.Vocabulary.CreateIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := stores.Vocabulary.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "house", got.Translation, "existing card must not change")

	got.MasteryLevel = 85
	got.ReviewCount = 3
	got.NextReviewAt = now.Add(72 * time.Hour)
	require.NoError(t, stores.Vocabulary.Update(ctx, got))

	second, err := domain.NewVocabularyCard(learner.ID, domain.VocabularyEntry{Word: "Baum", Translation: "tree"}, now)
	require.NoError(t, err)
	_, err = stores.Vocabulary.CreateIfAbsent(ctx, second)
	require.NoError(t, err)

	stats, err := stores.Vocabulary.Stats(ctx, learner.ID, now)
	require.NoError(t, err)
	assert.Equal(t, store.VocabularyStats{Total: 2, Mastered: 1, Due: 1}, stats)

	due, err := stores.Vocabulary.ListDue(ctx, learner.ID, now, store.Page{})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Baum", due[0].Word)

	total, err := stores.Vocabulary.CountAllDue(ctx, now.Add(96*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	all, err := stores.Vocabulary.ListByUser(ctx, learner.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Baum", all[0].Word, "newest card first")
	assert.Equal(t, "Haus", all[1].Word)

	paged, err := stores.Vocabulary.ListByUser(ctx, learner.ID, store.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Haus", paged[0].Word)

	require.NoError(t, stores.Vocabulary.Delete(ctx, second.ID))
	assert.ErrorIs(t, stores.Vocabulary.Delete(ctx, second.ID), store.ErrVocabularyCardNotFound)
}

func TestLessonAndSessionStores(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stores := testutils.NewSQLiteStores(t)
	learner := testutils.CreateLearner(t, stores, domain.LevelA2)

	lesson, err := domain.NewLesson(learner.ID, "Travel", []string{"past tense", "articles"}, "Zug = train", now)
	require.NoError(t, err)
	require.NoError(t, stores.Lessons.Create(ctx, lesson))

	require.NoError(t, lesson.RecordAttempt(85, now))
	require.NoError(t, stores.Lessons.Update(ctx, lesson))

	got, err := stores.Lessons.GetByID(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Past Tense", "Articles"}, got.GrammarFocus)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 85.0, got.BestScore)

	lessonStats, err := stores.Lessons.Stats(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, store.LessonStats{Total: 1, Completed: 1}, lessonStats)

	sessions := []struct {
		at       time.Time
		accuracy float64
	}{
		{now, 90},
		{now.AddDate(0, 0, -3), 70},
		{now.AddDate(0, 0, -7), 50},
	}
	for _, s := range sessions {
		ps, err := domain.NewPracticeSession(learner.ID, &lesson.ID, domain.PracticeKindLesson, s.accuracy, 0, "", s.at)
		require.NoError(t, err)
		require.NoError(t, stores.Sessions.Create(ctx, ps))
	}

	stats, err := stores.Sessions.Stats(ctx, learner.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, 70.0, stats.AverageAccuracy, 0.001)
	assert.Equal(t, 2, stats.LastSevenDays, "a session exactly seven days ago is outside the window")
	assert.Equal(t, 1, stats.Today)

	recent, err := stores.Sessions.ListByUser(ctx, learner.ID, now.AddDate(0, 0, -3), store.Page{})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 90.0, recent[0].Accuracy)
	require.NotNil(t, recent[0].LessonID)
	assert.Equal(t, lesson.ID, *recent[0].LessonID)

	challenge, err := domain.NewPracticeSession(learner.ID, nil, domain.PracticeKindWriting, 60, 2, "", now)
	require.NoError(t, err)
	require.NoError(t, stores.Sessions.Create(ctx, challenge))

	byLesson, err := stores.Sessions.ListByLesson(ctx, lesson.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, byLesson, 3)
	assert.Equal(t, 90.0, byLesson[0].Accuracy)
	assert.Equal(t, 50.0, byLesson[2].Accuracy)

	none, err := stores.Sessions.ListByLesson(ctx, uuid.New(), store.Page{})
	require.NoError(t, err)
	assert.Empty(t, none)

	t.Run("lessons by rule", func(t *testing.T) {
		second, err := domain.NewLesson(learner.ID, "Food", []string{"articles"}, "", now)
		require.NoError(t, err)
		require.NoError(t, stores.Lessons.Create(ctx, second))

		other := testutils.CreateLearner(t, stores, domain.LevelA2)
		foreign, err := domain.NewLesson(other.ID, "Food", []string{"articles"}, "", now)
		require.NoError(t, err)
		require.NoError(t, stores.Lessons.Create(ctx, foreign))

		articles, err := stores.Lessons.ListByRule(ctx, learner.ID, "Articles", store.Page{})
		require.NoError(t, err)
		require.Len(t, articles, 2)
		assert.Equal(t, second.ID, articles[0].ID)
		assert.Equal(t, lesson.ID, articles[1].ID)

		past, err := stores.Lessons.ListByRule(ctx, learner.ID, "Past Tense", store.Page{})
		require.NoError(t, err)
		require.Len(t, past, 1)
		assert.Equal(t, lesson.ID, past[0].ID)

		partial, err := stores.Lessons.ListByRule(ctx, learner.ID, "Past", store.Page{})
		require.NoError(t, err)
		assert.Empty(t, partial)
	})
}

func TestWithTxRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stores := testutils.NewSQLiteStores(t)
	learner := testutils.CreateLearner(t, stores, domain.LevelA1)

	errAbort := errors.New("abort")
	err := store.RunInTransaction(ctx, stores.DB, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := stores.Skills.WithTx(tx).GetOrCreateForUpdate(ctx, newSkill(t, learner.ID, "Cases")); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = stores.Skills.GetByRule(ctx, learner.ID, "Cases")
	assert.ErrorIs(t, err, store.ErrSkillNotFound)

	err = store.RunInTransaction(ctx, stores.DB, func(ctx context.Context, tx *sql.Tx) error {
		_, err := stores.Skills.WithTx(tx).GetOrCreateForUpdate(ctx, newSkill(t, learner.ID, "Cases"))
		return err
	})
	require.NoError(t, err)

	_, err = stores.Skills.GetByRule(ctx, learner.ID, "Cases")
	assert.NoError(t, err)
}
