package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDailyGoal is the number of sessions per day a new learner aims for.
const DefaultDailyGoal = 3

// Learner is the per-user aggregate that owns the proficiency level and the
// practice streak. Identity and authentication live elsewhere; the learner
// shares the user's ID.
type Learner struct {
	ID                uuid.UUID  `json:"id"`
	Level             Level      `json:"level"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastPracticeDate  *time.Time `json:"last_practice_date,omitempty"`
	TotalPracticeDays int        `json:"total_practice_days"`
	DailyGoal         int        `json:"daily_goal"`
	PromotedAt        *time.Time `json:"promoted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewLearner creates a learner at the given level. A zero level means A1 and
// a non-positive daily goal means DefaultDailyGoal.
func NewLearner(id uuid.UUID, level Level, dailyGoal int, now time.Time) (*Learner, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if level == "" {
		level = LevelA1
	}
	if dailyGoal <= 0 {
		dailyGoal = DefaultDailyGoal
	}

	l := &Learner{
		ID:        id,
		Level:     level,
		DailyGoal: dailyGoal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the learner's fields.
func (l *Learner) Validate() error {
	if l.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if !l.Level.IsValid() {
		return ErrInvalidLevel
	}
	if l.DailyGoal < 1 {
		return ErrInvalidDailyGoal
	}
	return nil
}

// ApplyPracticeEvent is the only transition of the streak state machine.
// Practicing twice on the same calendar day is a no-op, practicing on the
// day after the last practice extends the streak, and any longer gap (or a
// first practice) restarts it at one. It reports whether anything changed.
func (l *Learner) ApplyPracticeEvent(at time.Time) bool {
	today := DateOf(at)

	if l.LastPracticeDate != nil {
		last := DateOf(*l.LastPracticeDate)
		switch {
		case last.Equal(today):
			return false
		case last.AddDate(0, 0, 1).Equal(today):
			l.CurrentStreak++
		default:
			l.CurrentStreak = 1
		}
	} else {
		l.CurrentStreak = 1
	}

	if l.CurrentStreak > l.LongestStreak {
		l.LongestStreak = l.CurrentStreak
	}
	l.LastPracticeDate = &today
	l.TotalPracticeDays++
	return true
}

// StreakAsOf returns the streak as it stands on the given day: a streak whose
// last practice is older than yesterday has lapsed and reads as zero.
func (l *Learner) StreakAsOf(at time.Time) int {
	if l.LastPracticeDate == nil {
		return 0
	}
	yesterday := DateOf(at).AddDate(0, 0, -1)
	if DateOf(*l.LastPracticeDate).Before(yesterday) {
		return 0
	}
	return l.CurrentStreak
}

// Promote advances the learner to level and stamps the promotion time.
func (l *Learner) Promote(level Level, now time.Time) {
	l.Level = level
	promotedAt := now
	l.PromotedAt = &promotedAt
	l.UpdatedAt = now
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
