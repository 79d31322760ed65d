package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mastery bounds shared by skill records and vocabulary cards.
const (
	MinMastery = 0
	MaxMastery = 100
)

// SkillRecord tracks a learner's command of one grammar rule. There is at
// most one record per (UserID, RuleName); RuleName is always canonical.
type SkillRecord struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	RuleName        string     `json:"rule_name"`
	MasteryLevel    int        `json:"mastery_level"`
	FailCount       int        `json:"fail_count"`
	PracticeCount   int        `json:"practice_count"`
	LastPracticedAt *time.Time `json:"last_practiced_at,omitempty"`
	NextReviewAt    *time.Time `json:"next_review_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewSkillRecord creates an unpracticed record for the given learner and
// rule. The rule name is normalized; a blank name is rejected.
func NewSkillRecord(userID uuid.UUID, ruleName string, now time.Time) (*SkillRecord, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	canonical, err := ParseRuleName(ruleName)
	if err != nil {
		return nil, err
	}

	return &SkillRecord{
		ID:        uuid.New(),
		UserID:    userID,
		RuleName:  canonical,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the record's invariants.
func (r *SkillRecord) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if r.RuleName == "" || NormalizeRuleName(r.RuleName) != r.RuleName {
		return ErrBlankRuleName
	}
	if r.MasteryLevel < MinMastery || r.MasteryLevel > MaxMastery {
		return ErrInvalidMastery
	}
	if r.FailCount < 0 || r.PracticeCount < r.FailCount {
		return ErrInvalidCounts
	}
	return nil
}

// IsDue reports whether the record should be reviewed at now. Records that
// have never been scheduled are not due.
func (r *SkillRecord) IsDue(now time.Time) bool {
	return r.NextReviewAt != nil && !r.NextReviewAt.After(now)
}

// Clone returns a deep copy of the record.
func (r *SkillRecord) Clone() *SkillRecord {
	c := *r
	if r.LastPracticedAt != nil {
		t := *r.LastPracticedAt
		c.LastPracticedAt = &t
	}
	if r.NextReviewAt != nil {
		t := *r.NextReviewAt
		c.NextReviewAt = &t
	}
	return &c
}

// ClampMastery bounds a mastery value to [MinMastery, MaxMastery].
func ClampMastery(v int) int {
	if v < MinMastery {
		return MinMastery
	}
	if v > MaxMastery {
		return MaxMastery
	}
	return v
}
