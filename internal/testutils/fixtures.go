package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// FixedTime is the default instant used by Clock.
var FixedTime = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

// Clock is a settable time source for services under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to at, or to FixedTime when at is zero.
func NewClock(at time.Time) *Clock {
	if at.IsZero() {
		at = FixedTime
	}
	return &Clock{now: at}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to at.
func (c *Clock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// CreateLearner inserts a learner at level with the default daily goal.
func CreateLearner(t testing.TB, stores *Stores, level domain.Level) *domain.Learner {
	t.Helper()

	learner, err := domain.NewLearner(uuid.New(), level, 0, FixedTime)
	require.NoError(t, err)
	require.NoError(t, stores.Learners.Create(context.Background(), learner))
	return learner
}
