package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// CreateLearnerInput describes a learner to provision. A nil ID is
// generated, an empty level means A1 and a zero goal means the default.
type CreateLearnerInput struct {
	ID        uuid.UUID
	Level     domain.Level
	DailyGoal int
}

// LearnerService provisions and reads learners.
type LearnerService interface {
	// CreateLearner saves a new learner.
	// Returns store.ErrLearnerExists when the ID is taken.
	CreateLearner(ctx context.Context, in CreateLearnerInput) (*domain.Learner, error)

	// GetLearner retrieves a learner by ID.
	GetLearner(ctx context.Context, id uuid.UUID) (*domain.Learner, error)
}

type learnerService struct {
	db       *sql.DB
	learners store.LearnerStore
	now      Clock
	logger   *slog.Logger
}

// NewLearnerService creates a LearnerService.
func NewLearnerService(db *sql.DB, learners store.LearnerStore, clock Clock, logger *slog.Logger) LearnerService {
	if db == nil {
		panic("db cannot be nil")
	}
	if learners == nil {
		panic("learners cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &learnerService{
		db:       db,
		learners: learners,
		now:      clock.OrSystem(),
		logger:   logger.With(slog.String("component", "learner_service")),
	}
}

func (s *learnerService) CreateLearner(ctx context.Context, in CreateLearnerInput) (*domain.Learner, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if in.DailyGoal < 0 {
		return nil, domain.ErrInvalidDailyGoal
	}
	learner, err := domain.NewLearner(in.ID, in.Level, in.DailyGoal, s.now())
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.learners.WithTx(tx).Create(ctx, learner)
	})
	if err != nil {
		if errors.Is(err, store.ErrLearnerExists) {
			log.Debug("learner already exists", slog.String("user_id", learner.ID.String()))
		} else {
			log.Error("failed to create learner",
				slog.String("error", err.Error()),
				slog.String("user_id", learner.ID.String()))
		}
		return nil, Wrap("learner", "create", err)
	}

	log.Info("learner created",
		slog.String("user_id", learner.ID.String()),
		slog.String("level", learner.Level.String()))
	return learner, nil
}

func (s *learnerService) GetLearner(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	learner, err := s.learners.GetByID(ctx, id)
	if err != nil {
		return nil, Wrap("learner", "get", err)
	}
	return learner, nil
}
