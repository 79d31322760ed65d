// Package practice records completed exercises: lesson attempts and
// writing or listening challenges. Each one updates the skill ledger, saves
// a practice session and advances the learner's streak in a single
// transaction.
package practice

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/service/ledger"
	"github.com/phrazzld/linguist-api/internal/service/vocabulary"
	"github.com/phrazzld/linguist-api/internal/store"
)

const (
	serviceName = "practice"

	// ListeningRule is the rule a listening challenge is recorded against.
	ListeningRule = "Listening Comprehension"

	// ListeningPassScore is the score at which a listening challenge counts
	// as a success.
	ListeningPassScore = 70.0
)

// CreateLessonInput describes a lesson produced upstream.
type CreateLessonInput struct {
	Topic          string   `json:"topic" validate:"required"`
	GrammarFocus   []string `json:"grammar_focus"`
	VocabularyList string   `json:"vocabulary_list"`
}

// LessonCreated is a new lesson with the result of importing its
// vocabulary list.
type LessonCreated struct {
	Lesson     *domain.Lesson          `json:"lesson"`
	Vocabulary vocabulary.ImportResult `json:"vocabulary"`
}

// LessonPracticeInput is the graded result of one lesson attempt.
type LessonPracticeInput struct {
	Accuracy   float64  `json:"accuracy" validate:"gte=0,lte=100"`
	ErrorRules []string `json:"error_rules"`
	Feedback   string   `json:"feedback"`
}

// ChallengeInput is the graded result of a writing or listening challenge.
type ChallengeInput struct {
	Kind       domain.PracticeKind `json:"kind" validate:"required,oneof=writing listening"`
	Score      float64             `json:"score" validate:"gte=0,lte=100"`
	ErrorRules []string            `json:"error_rules"`
	Feedback   string              `json:"feedback"`
}

// Result is what recording an exercise changed.
type Result struct {
	Session       *domain.PracticeSession `json:"session"`
	Lesson        *domain.Lesson          `json:"lesson,omitempty"`
	Skills        []*domain.SkillRecord   `json:"skills"`
	CurrentStreak int                     `json:"current_streak"`
}

// Service records practice.
type Service interface {
	// CreateLesson registers a lesson and imports its vocabulary list.
	CreateLesson(ctx context.Context, userID uuid.UUID, in CreateLessonInput) (*LessonCreated, error)

	// ListLessons returns the learner's lessons, newest first.
	ListLessons(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.Lesson, error)

	// GetLesson retrieves a lesson.
	GetLesson(ctx context.Context, lessonID uuid.UUID) (*domain.Lesson, error)

	// LessonSessions returns the sessions recorded for a lesson, newest
	// first.
	LessonSessions(ctx context.Context, lessonID uuid.UUID, page store.Page) ([]*domain.PracticeSession, error)

	// RelatedLessons returns the lessons whose grammar focus contains the
	// rule of a skill record, newest first.
	RelatedLessons(ctx context.Context, skillID uuid.UUID, page store.Page) ([]*domain.Lesson, error)

	// RecordLessonPractice records an attempt at a lesson. Every distinct
	// error rule is recorded as a failure and every grammar focus rule
	// without an error as a success.
	RecordLessonPractice(ctx context.Context, lessonID uuid.UUID, in LessonPracticeInput) (*Result, error)

	// RecordChallenge records a writing or listening challenge. Writing
	// records a failure per error rule; listening records one outcome for
	// ListeningRule.
	RecordChallenge(ctx context.Context, userID uuid.UUID, in ChallengeInput) (*Result, error)
}

type practiceService struct {
	db         *sql.DB
	learners   store.LearnerStore
	lessons    store.LessonStore
	sessions   store.SessionStore
	skills     store.SkillStore
	ledger     ledger.Service
	vocabulary vocabulary.Service
	now        service.Clock
	logger     *slog.Logger
}

// NewService creates the practice service.
func NewService(
	db *sql.DB,
	stores store.Stores,
	ledgerService ledger.Service,
	vocabularyService vocabulary.Service,
	clock service.Clock,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if stores.Learners == nil || stores.Lessons == nil || stores.Sessions == nil || stores.Skills == nil {
		panic("stores cannot be nil")
	}
	if ledgerService == nil || vocabularyService == nil {
		panic("services cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &practiceService{
		db:         db,
		learners:   stores.Learners,
		lessons:    stores.Lessons,
		sessions:   stores.Sessions,
		skills:     stores.Skills,
		ledger:     ledgerService,
		vocabulary: vocabularyService,
		now:        clock.OrSystem(),
		logger:     logger.With(slog.String("component", "practice_service")),
	}
}

func (s *practiceService) CreateLesson(ctx context.Context, userID uuid.UUID, in CreateLessonInput) (*LessonCreated, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	lesson, err := domain.NewLesson(userID, in.Topic, in.GrammarFocus, in.VocabularyList, s.now())
	if err != nil {
		return nil, err
	}

	created := &LessonCreated{Lesson: lesson}
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.learners.WithTx(tx).GetByID(ctx, userID); err != nil {
			return err
		}
		if err := s.lessons.WithTx(tx).Create(ctx, lesson); err != nil {
			return err
		}
		entries := domain.ParseVocabularyList(in.VocabularyList, lesson.Topic)
		created.Vocabulary, err = s.vocabulary.ImportTx(ctx, tx, userID, entries, lesson.Topic)
		return err
	})
	if err != nil {
		log.Warn("failed to create lesson",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, service.Wrap(serviceName, "create_lesson", err)
	}

	log.Info("lesson created",
		slog.String("user_id", userID.String()),
		slog.String("lesson_id", lesson.ID.String()),
		slog.Int("grammar_focus", len(lesson.GrammarFocus)),
		slog.Int("vocabulary_imported", created.Vocabulary.Imported))
	return created, nil
}

func (s *practiceService) ListLessons(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.Lesson, error) {
	if _, err := s.learners.GetByID(ctx, userID); err != nil {
		return nil, service.Wrap(serviceName, "list_lessons", err)
	}
	lessons, err := s.lessons.ListByUser(ctx, userID, page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "list_lessons", err)
	}
	return lessons, nil
}

func (s *practiceService) GetLesson(ctx context.Context, lessonID uuid.UUID) (*domain.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, service.Wrap(serviceName, "get_lesson", err)
	}
	return lesson, nil
}

func (s *practiceService) LessonSessions(
	ctx context.Context,
	lessonID uuid.UUID,
	page store.Page,
) ([]*domain.PracticeSession, error) {
	if _, err := s.lessons.GetByID(ctx, lessonID); err != nil {
		return nil, service.Wrap(serviceName, "lesson_sessions", err)
	}
	sessions, err := s.sessions.ListByLesson(ctx, lessonID, page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "lesson_sessions", err)
	}
	return sessions, nil
}

func (s *practiceService) RelatedLessons(ctx context.Context, skillID uuid.UUID, page store.Page) ([]*domain.Lesson, error) {
	rec, err := s.skills.GetByID(ctx, skillID)
	if err != nil {
		return nil, service.Wrap(serviceName, "related_lessons", err)
	}
	lessons, err := s.lessons.ListByRule(ctx, rec.UserID, rec.RuleName, page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "related_lessons", err)
	}
	return lessons, nil
}

func (s *practiceService) RecordLessonPractice(
	ctx context.Context,
	lessonID uuid.UUID,
	in LessonPracticeInput,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if in.Accuracy < 0 || in.Accuracy > 100 {
		return nil, domain.ErrInvalidAccuracy
	}
	errorRules := domain.NormalizeRuleNames(in.ErrorRules)

	var result *Result
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		lessons := s.lessons.WithTx(tx)

		lesson, err := lessons.GetByIDForUpdate(ctx, lessonID)
		if err != nil {
			return err
		}
		now := s.now()

		outcomes := lessonOutcomes(lesson.GrammarFocus, errorRules)
		id := lesson.ID
		result, err = s.record(ctx, tx, lesson.UserID, &id, domain.PracticeKindLesson,
			in.Accuracy, len(errorRules), in.Feedback, outcomes)
		if err != nil {
			return err
		}

		if err := lesson.RecordAttempt(in.Accuracy, now); err != nil {
			return err
		}
		if err := lessons.Update(ctx, lesson); err != nil {
			return err
		}
		result.Lesson = lesson
		return nil
	})
	if err != nil {
		log.Warn("failed to record lesson practice",
			slog.String("error", err.Error()),
			slog.String("lesson_id", lessonID.String()))
		return nil, service.Wrap(serviceName, "record_lesson_practice", err)
	}

	log.Info("lesson practice recorded",
		slog.String("lesson_id", lessonID.String()),
		slog.Float64("accuracy", in.Accuracy),
		slog.Int("error_rules", len(errorRules)))
	return result, nil
}

func (s *practiceService) RecordChallenge(ctx context.Context, userID uuid.UUID, in ChallengeInput) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if in.Score < 0 || in.Score > 100 {
		return nil, domain.ErrInvalidAccuracy
	}
	errorRules := domain.NormalizeRuleNames(in.ErrorRules)

	var outcomes []ledger.Outcome
	switch in.Kind {
	case domain.PracticeKindWriting:
		for _, rule := range errorRules {
			outcomes = append(outcomes, ledger.Outcome{RuleName: rule, Success: false})
		}
	case domain.PracticeKindListening:
		outcomes = []ledger.Outcome{{RuleName: ListeningRule, Success: in.Score >= ListeningPassScore}}
	default:
		return nil, domain.ErrInvalidKind
	}

	var result *Result
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		result, err = s.record(ctx, tx, userID, nil, in.Kind, in.Score, len(errorRules), in.Feedback, outcomes)
		return err
	})
	if err != nil {
		log.Warn("failed to record challenge",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("kind", string(in.Kind)))
		return nil, service.Wrap(serviceName, "record_challenge", err)
	}

	log.Info("challenge recorded",
		slog.String("user_id", userID.String()),
		slog.String("kind", string(in.Kind)),
		slog.Float64("score", in.Score))
	return result, nil
}

// record locks the learner, applies outcomes to the ledger, saves the
// session and advances the streak.
func (s *practiceService) record(
	ctx context.Context,
	tx *sql.Tx,
	userID uuid.UUID,
	lessonID *uuid.UUID,
	kind domain.PracticeKind,
	accuracy float64,
	errorCount int,
	feedback string,
	outcomes []ledger.Outcome,
) (*Result, error) {
	learners := s.learners.WithTx(tx)
	now := s.now()

	learner, err := learners.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	skills := []*domain.SkillRecord{}
	if len(outcomes) > 0 {
		skills, err = s.ledger.ApplyOutcomesTx(ctx, tx, userID, outcomes)
		if err != nil {
			return nil, err
		}
	}

	session, err := domain.NewPracticeSession(userID, lessonID, kind, accuracy, errorCount, feedback, now)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.WithTx(tx).Create(ctx, session); err != nil {
		return nil, err
	}

	if learner.ApplyPracticeEvent(now) {
		learner.UpdatedAt = now
		if err := learners.Update(ctx, learner); err != nil {
			return nil, err
		}
	}

	return &Result{
		Session:       session,
		Skills:        skills,
		CurrentStreak: learner.CurrentStreak,
	}, nil
}

// lessonOutcomes fails every error rule and passes every focus rule that
// has no error. Both inputs are already canonical.
func lessonOutcomes(focus, errorRules []string) []ledger.Outcome {
	failed := make(map[string]struct{}, len(errorRules))
	outcomes := make([]ledger.Outcome, 0, len(focus)+len(errorRules))
	for _, rule := range errorRules {
		failed[rule] = struct{}{}
		outcomes = append(outcomes, ledger.Outcome{RuleName: rule, Success: false})
	}
	for _, rule := range focus {
		if _, ok := failed[rule]; ok {
			continue
		}
		outcomes = append(outcomes, ledger.Outcome{RuleName: rule, Success: true})
	}
	return outcomes
}
