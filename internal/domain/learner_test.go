package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestNewLearnerDefaults(t *testing.T) {
	now := day(2025, time.March, 1, 9)
	l, err := NewLearner(uuid.Nil, "", 0, now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, l.ID)
	assert.Equal(t, LevelA1, l.Level)
	assert.Equal(t, DefaultDailyGoal, l.DailyGoal)
	assert.Nil(t, l.LastPracticeDate)

	_, err = NewLearner(uuid.New(), Level("X1"), 3, now)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestApplyPracticeEvent(t *testing.T) {
	l := &Learner{ID: uuid.New(), Level: LevelA1, DailyGoal: 3}

	// first practice starts the streak
	assert.True(t, l.ApplyPracticeEvent(day(2025, time.March, 1, 8)))
	assert.Equal(t, 1, l.CurrentStreak)
	assert.Equal(t, 1, l.LongestStreak)
	assert.Equal(t, 1, l.TotalPracticeDays)

	// same day is a no-op
	assert.False(t, l.ApplyPracticeEvent(day(2025, time.March, 1, 22)))
	assert.Equal(t, 1, l.CurrentStreak)
	assert.Equal(t, 1, l.TotalPracticeDays)

	// consecutive days extend
	assert.True(t, l.ApplyPracticeEvent(day(2025, time.March, 2, 7)))
	assert.True(t, l.ApplyPracticeEvent(day(2025, time.March, 3, 23)))
	assert.Equal(t, 3, l.CurrentStreak)
	assert.Equal(t, 3, l.LongestStreak)

	// a gap resets, longest is kept
	assert.True(t, l.ApplyPracticeEvent(day(2025, time.March, 6, 12)))
	assert.Equal(t, 1, l.CurrentStreak)
	assert.Equal(t, 3, l.LongestStreak)
	assert.Equal(t, 4, l.TotalPracticeDays)
	require.NotNil(t, l.LastPracticeDate)
	assert.Equal(t, day(2025, time.March, 6, 0), *l.LastPracticeDate)
}

func TestApplyPracticeEventAcrossMonthBoundary(t *testing.T) {
	l := &Learner{ID: uuid.New(), Level: LevelA1, DailyGoal: 3}
	l.ApplyPracticeEvent(day(2024, time.February, 29, 10))
	l.ApplyPracticeEvent(day(2024, time.March, 1, 10))
	assert.Equal(t, 2, l.CurrentStreak)
}

func TestStreakAsOf(t *testing.T) {
	l := &Learner{ID: uuid.New(), Level: LevelA1, DailyGoal: 3}
	assert.Equal(t, 0, l.StreakAsOf(day(2025, time.March, 1, 0)))

	l.ApplyPracticeEvent(day(2025, time.March, 1, 10))
	l.ApplyPracticeEvent(day(2025, time.March, 2, 10))

	assert.Equal(t, 2, l.StreakAsOf(day(2025, time.March, 2, 20)))
	assert.Equal(t, 2, l.StreakAsOf(day(2025, time.March, 3, 20)))
	assert.Equal(t, 0, l.StreakAsOf(day(2025, time.March, 4, 1)))
	// stored value is untouched
	assert.Equal(t, 2, l.CurrentStreak)
}
