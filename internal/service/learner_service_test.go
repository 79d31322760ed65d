package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/phrazzld/linguist-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLearnerService(t *testing.T) service.LearnerService {
	t.Helper()

	stores := testutils.NewSQLiteStores(t)
	clock := testutils.NewClock(time.Time{})
	return service.NewLearnerService(stores.DB, stores.Learners, clock.Now, testutils.DiscardLogger())
}

func TestCreateLearnerDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newLearnerService(t)

	learner, err := svc.CreateLearner(ctx, service.CreateLearnerInput{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, learner.ID)
	assert.Equal(t, domain.LevelA1, learner.Level)
	assert.Equal(t, domain.DefaultDailyGoal, learner.DailyGoal)
	assert.Equal(t, 0, learner.CurrentStreak)
	assert.Nil(t, learner.LastPracticeDate)
	assert.Equal(t, testutils.FixedTime, learner.CreatedAt)

	got, err := svc.GetLearner(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, learner.ID, got.ID)
	assert.Equal(t, learner.Level, got.Level)
}

func TestCreateLearnerWithIDAndLevel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newLearnerService(t)
	id := uuid.New()

	learner, err := svc.CreateLearner(ctx, service.CreateLearnerInput{ID: id, Level: domain.LevelC1, DailyGoal: 5})
	require.NoError(t, err)
	assert.Equal(t, id, learner.ID)
	assert.Equal(t, domain.LevelC1, learner.Level)
	assert.Equal(t, 5, learner.DailyGoal)

	_, err = svc.CreateLearner(ctx, service.CreateLearnerInput{ID: id})
	assert.ErrorIs(t, err, store.ErrLearnerExists)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var serviceErr *service.ServiceError
	assert.True(t, errors.As(err, &serviceErr))
}

func TestCreateLearnerRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newLearnerService(t)

	_, err := svc.CreateLearner(ctx, service.CreateLearnerInput{DailyGoal: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.CreateLearner(ctx, service.CreateLearnerInput{Level: "D1"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGetLearnerNotFound(t *testing.T) {
	t.Parallel()
	svc := newLearnerService(t)

	_, err := svc.GetLearner(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrLearnerNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
