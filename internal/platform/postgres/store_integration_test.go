//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/config"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/database"
	"github.com/phrazzld/linguist-api/internal/platform/postgres"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/phrazzld/linguist-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDatabaseURLEnv names the database integration tests run against.
const testDatabaseURLEnv = "LINGUIST_TEST_DATABASE_URL"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(testDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testutils.TestTimeout)
	defer cancel()

	cfg := config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		URL:             url,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	}
	db, err := database.Open(ctx, cfg, testutils.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db, cfg.Driver, database.MigrateUp, testutils.DiscardLogger()))
	return db
}

func TestSkillStoreConcurrentGetOrCreate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	stores := postgres.NewStores(db, testutils.DiscardLogger())
	now := time.Now().UTC().Truncate(time.Microsecond)

	learner, err := domain.NewLearner(uuid.New(), domain.LevelA1, 0, now)
	require.NoError(t, err)
	require.NoError(t, stores.Learners.Create(ctx, learner))

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
				candidate, err := domain.NewSkillRecord(learner.ID, "word order", now)
				if err != nil {
					return err
				}
				skills := stores.Skills.WithTx(tx)
				rec, err := skills.GetOrCreateForUpdate(ctx, candidate)
				if err != nil {
					return err
				}
				rec.PracticeCount++
				rec.MasteryLevel = domain.ClampMastery(rec.MasteryLevel + 5)
				return skills.Update(ctx, rec)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := stores.Skills.GetByRule(ctx, learner.ID, "Word Order")
	require.NoError(t, err)
	assert.Equal(t, workers, rec.PracticeCount)
	assert.Equal(t, domain.MaxMastery, rec.MasteryLevel)
}

func TestLearnerAndLessonRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	stores := postgres.NewStores(db, testutils.DiscardLogger())
	now := time.Now().UTC().Truncate(time.Microsecond)

	learner, err := domain.NewLearner(uuid.New(), domain.LevelB1, 5, now)
	require.NoError(t, err)
	require.NoError(t, stores.Learners.Create(ctx, learner))
	assert.ErrorIs(t, stores.Learners.Create(ctx, learner), store.ErrLearnerExists)

	learner.ApplyPracticeEvent(now)
	require.NoError(t, stores.Learners.Update(ctx, learner))

	got, err := stores.Learners.GetByID(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)
	require.NotNil(t, got.LastPracticeDate)
	assert.True(t, domain.DateOf(now).Equal(*got.LastPracticeDate))

	lesson, err := domain.NewLesson(learner.ID, "Food", []string{"articles"}, "", now)
	require.NoError(t, err)
	require.NoError(t, stores.Lessons.Create(ctx, lesson))

	loaded, err := stores.Lessons.GetByID(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Articles"}, loaded.GrammarFocus)

	related, err := stores.Lessons.ListByRule(ctx, learner.ID, "Articles", store.Page{})
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, lesson.ID, related[0].ID)

	unrelated, err := stores.Lessons.ListByRule(ctx, learner.ID, "Cases", store.Page{})
	require.NoError(t, err)
	assert.Empty(t, unrelated)

	session, err := domain.NewPracticeSession(learner.ID, &lesson.ID, domain.PracticeKindLesson, 80, 1, "", now)
	require.NoError(t, err)
	require.NoError(t, stores.Sessions.Create(ctx, session))

	sessions, err := stores.Sessions.ListByLesson(ctx, lesson.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, session.ID, sessions[0].ID)
}
