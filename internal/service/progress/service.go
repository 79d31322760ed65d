// Package progress evaluates level promotion and aggregates the learner
// dashboard and practice timeline.
package progress

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/platform/metrics"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName = "progress"

	weakestRulesLimit = 5

	// DefaultTimelineDays is the window used when a timeline request does
	// not specify one.
	DefaultTimelineDays = 30
)

// PromotionResult is the outcome of a promotion evaluation.
//
// When Promoted is false, Reason names the first gate that refused, checked
// in this order: insufficient_rules_tracked, at_maximum_level,
// insufficient_average_mastery, insufficient_rules_mastered, and
// no_practice_since_promotion. The last one refuses a learner who already
// qualifies but has not practiced any rule since their previous promotion,
// so repeating an evaluation cannot promote twice on the same ledger.
type PromotionResult struct {
	Promoted              bool                   `json:"promoted"`
	PreviousLevel         domain.Level           `json:"previous_level"`
	CurrentLevel          domain.Level           `json:"current_level"`
	AverageMastery        float64                `json:"average_mastery"`
	RulesTracked          int                    `json:"rules_tracked"`
	RulesMastered         int                    `json:"rules_mastered"`
	RequiredMastery       float64                `json:"required_mastery"`
	RequiredRulesMastered int                    `json:"required_rules_mastered"`
	Reason                domain.PromotionReason `json:"reason,omitempty"`
	Message               string                 `json:"message"`
}

// RuleMastery is a rule name with its mastery level.
type RuleMastery struct {
	RuleName     string `json:"rule_name"`
	MasteryLevel int    `json:"mastery_level"`
}

// Dashboard is a read-only summary of a learner's progress.
type Dashboard struct {
	CurrentLevel         domain.Level  `json:"current_level"`
	NextLevel            *domain.Level `json:"next_level,omitempty"`
	EligibleForPromotion bool          `json:"eligible_for_promotion"`

	AverageMastery    float64       `json:"average_mastery"`
	TotalRulesTracked int           `json:"total_rules_tracked"`
	RulesMastered     int           `json:"rules_mastered"`
	RulesWeak         int           `json:"rules_weak"`
	WeakestRules      []RuleMastery `json:"weakest_rules"`

	AverageAccuracy   float64 `json:"average_accuracy"`
	TotalSessions     int     `json:"total_sessions"`
	SessionsLast7Days int     `json:"sessions_last_7_days"`

	TotalLessons     int `json:"total_lessons"`
	LessonsCompleted int `json:"lessons_completed"`

	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastPracticeDate  *time.Time `json:"last_practice_date,omitempty"`
	TotalPracticeDays int        `json:"total_practice_days"`

	DueReviewCount     int `json:"due_review_count"`
	DueVocabularyCount int `json:"due_vocabulary_count"`

	DailyGoalTarget   int `json:"daily_goal_target"`
	DailyGoalProgress int `json:"daily_goal_progress"`
}

// Service evaluates promotions and builds progress views.
type Service interface {
	// Evaluate checks the learner against the promotion policy and advances
	// them one level when eligible. Promotion never happens implicitly; this
	// is the only operation that changes a learner's level.
	Evaluate(ctx context.Context, userID uuid.UUID) (*PromotionResult, error)

	// Dashboard summarizes the learner's progress without writing anything.
	Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error)

	// Timeline returns the learner's practice sessions of the last days
	// calendar days, newest first. A non-positive days means
	// DefaultTimelineDays.
	Timeline(ctx context.Context, userID uuid.UUID, days int, page store.Page) ([]*domain.PracticeSession, error)
}

type progressService struct {
	db         *sql.DB
	learners   store.LearnerStore
	skills     store.SkillStore
	sessions   store.SessionStore
	lessons    store.LessonStore
	vocabulary store.VocabularyStore
	metrics    *metrics.Recorder
	now        service.Clock
	logger     *slog.Logger
}

// NewService creates the progress service. recorder may be nil.
func NewService(
	db *sql.DB,
	stores store.Stores,
	recorder *metrics.Recorder,
	clock service.Clock,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if stores.Learners == nil || stores.Skills == nil || stores.Sessions == nil ||
		stores.Lessons == nil || stores.Vocabulary == nil {
		panic("stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &progressService{
		db:         db,
		learners:   stores.Learners,
		skills:     stores.Skills,
		sessions:   stores.Sessions,
		lessons:    stores.Lessons,
		vocabulary: stores.Vocabulary,
		metrics:    recorder,
		now:        clock.OrSystem(),
		logger:     logger.With(slog.String("component", "progress_service")),
	}
}

func (s *progressService) Evaluate(ctx context.Context, userID uuid.UUID) (*PromotionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *PromotionResult
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		learners := s.learners.WithTx(tx)

		learner, err := learners.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		records, err := s.skills.WithTx(tx).ListByUser(ctx, userID, store.Page{})
		if err != nil {
			return err
		}

		decision := domain.EvaluateLearnerPromotion(records, learner)
		result = newPromotionResult(decision)
		if !decision.Eligible {
			return nil
		}

		learner.Promote(decision.NextLevel, s.now())
		if err := learners.Update(ctx, learner); err != nil {
			return err
		}
		result.Promoted = true
		result.CurrentLevel = decision.NextLevel
		result.Message = fmt.Sprintf("Promoted from %s to %s.", decision.CurrentLevel, decision.NextLevel)
		return nil
	})
	if err != nil {
		log.Warn("promotion evaluation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, service.Wrap(serviceName, "evaluate", err)
	}

	if result.Promoted {
		s.metrics.ObservePromotion("promoted")
		log.Info("learner promoted",
			slog.String("user_id", userID.String()),
			slog.String("from", result.PreviousLevel.String()),
			slog.String("to", result.CurrentLevel.String()))
	} else {
		s.metrics.ObservePromotion(string(result.Reason))
		log.Debug("learner not promoted",
			slog.String("user_id", userID.String()),
			slog.String("reason", string(result.Reason)))
	}
	return result, nil
}

func newPromotionResult(d domain.PromotionDecision) *PromotionResult {
	r := &PromotionResult{
		PreviousLevel:         d.CurrentLevel,
		CurrentLevel:          d.CurrentLevel,
		AverageMastery:        round2(d.AverageMastery),
		RulesTracked:          d.RulesTracked,
		RulesMastered:         d.RulesMastered,
		RequiredMastery:       domain.PromotionMasteryThreshold,
		RequiredRulesMastered: domain.PromotionMinRulesMastered,
		Reason:                d.Reason,
	}
	switch d.Reason {
	case domain.ReasonInsufficientRulesTracked:
		r.Message = fmt.Sprintf("Need at least %d tracked rules, currently tracking %d.",
			domain.PromotionMinRulesTracked, d.RulesTracked)
	case domain.ReasonAtMaximumLevel:
		r.Message = fmt.Sprintf("Already at the maximum level (%s).", d.CurrentLevel)
	case domain.ReasonInsufficientAverageMastery:
		r.Message = fmt.Sprintf("Average mastery is %.1f%%, %.0f%% is needed for promotion.",
			d.AverageMastery, domain.PromotionMasteryThreshold)
	case domain.ReasonInsufficientRulesMastered:
		r.Message = fmt.Sprintf("Mastered %d rules, at least %d at %d%% mastery are needed.",
			d.RulesMastered, domain.PromotionMinRulesMastered, domain.MasteredThreshold)
	case domain.ReasonNoPracticeSincePromotion:
		r.Message = fmt.Sprintf("Promoted to %s already, keep practicing at this level.", d.CurrentLevel)
	}
	return r
}

func (s *progressService) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	now := s.now()
	today := domain.DateOf(now)

	var (
		learner      *domain.Learner
		records      []*domain.SkillRecord
		sessionStats store.SessionStats
		lessonStats  store.LessonStats
		vocabStats   store.VocabularyStats
		dueReviews   int
	)

	// The learner read doubles as the existence check; the other reads
	// return empty aggregates for an unknown learner.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		learner, err = s.learners.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.skills.ListByUser(gctx, userID, store.Page{})
		return err
	})
	g.Go(func() error {
		var err error
		dueReviews, err = s.skills.CountDue(gctx, userID, now)
		return err
	})
	g.Go(func() error {
		var err error
		sessionStats, err = s.sessions.Stats(gctx, userID, today)
		return err
	})
	g.Go(func() error {
		var err error
		lessonStats, err = s.lessons.Stats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		vocabStats, err = s.vocabulary.Stats(gctx, userID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, service.Wrap(serviceName, "dashboard", err)
	}

	decision := domain.EvaluateLearnerPromotion(records, learner)
	d := &Dashboard{
		CurrentLevel:         learner.Level,
		EligibleForPromotion: decision.Eligible,

		AverageMastery:    round2(decision.AverageMastery),
		TotalRulesTracked: decision.RulesTracked,
		RulesMastered:     decision.RulesMastered,
		WeakestRules:      weakestRules(records, weakestRulesLimit),

		AverageAccuracy:   round2(sessionStats.AverageAccuracy),
		TotalSessions:     sessionStats.Total,
		SessionsLast7Days: sessionStats.LastSevenDays,

		TotalLessons:     lessonStats.Total,
		LessonsCompleted: lessonStats.Completed,

		CurrentStreak:     learner.StreakAsOf(now),
		LongestStreak:     learner.LongestStreak,
		LastPracticeDate:  learner.LastPracticeDate,
		TotalPracticeDays: learner.TotalPracticeDays,

		DueReviewCount:     dueReviews,
		DueVocabularyCount: vocabStats.Due,

		DailyGoalTarget:   learner.DailyGoal,
		DailyGoalProgress: sessionStats.Today,
	}
	if decision.Eligible {
		next := decision.NextLevel
		d.NextLevel = &next
	}
	for _, r := range records {
		if r.MasteryLevel < domain.WeakThreshold {
			d.RulesWeak++
		}
	}
	return d, nil
}

func (s *progressService) Timeline(
	ctx context.Context,
	userID uuid.UUID,
	days int,
	page store.Page,
) ([]*domain.PracticeSession, error) {
	if days <= 0 {
		days = DefaultTimelineDays
	}
	if _, err := s.learners.GetByID(ctx, userID); err != nil {
		return nil, service.Wrap(serviceName, "timeline", err)
	}
	since := domain.DateOf(s.now()).AddDate(0, 0, -days)
	sessions, err := s.sessions.ListByUser(ctx, userID, since, page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "timeline", err)
	}
	return sessions, nil
}

// weakestRules returns up to limit records by ascending mastery. records is
// in insertion order and the sort is stable, so ties keep that order.
func weakestRules(records []*domain.SkillRecord, limit int) []RuleMastery {
	sorted := make([]*domain.SkillRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MasteryLevel < sorted[j].MasteryLevel
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]RuleMastery, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, RuleMastery{RuleName: r.RuleName, MasteryLevel: r.MasteryLevel})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
