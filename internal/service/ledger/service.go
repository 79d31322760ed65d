// Package ledger records practice outcomes against the skill ledger. Every
// write runs in a transaction that locks the affected (learner, rule) keys,
// so concurrent outcomes for one key are applied one after another and none
// is lost.
package ledger

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/domain/srs"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/platform/metrics"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/store"
)

const serviceName = "ledger"

// Outcome is one binary practice result for a grammar rule.
type Outcome struct {
	RuleName string `json:"rule_name"`
	Success  bool   `json:"success"`
}

// BatchGrade is the record after grading a batch together with the audit
// of the mastery change.
type BatchGrade struct {
	Record *domain.SkillRecord `json:"record"`
	Result srs.BatchResult     `json:"result"`
}

// Service is the skill ledger.
type Service interface {
	// RecordOutcome applies one outcome to the learner's record for ruleName,
	// creating the record on first use.
	RecordOutcome(ctx context.Context, userID uuid.UUID, ruleName string, success bool) (*domain.SkillRecord, error)

	// RecordOutcomes applies several outcomes in one transaction and returns
	// the final record of every distinct rule, in order of first appearance.
	RecordOutcomes(ctx context.Context, userID uuid.UUID, outcomes []Outcome) ([]*domain.SkillRecord, error)

	// ApplyOutcomesTx is RecordOutcomes inside a transaction owned by the
	// caller, which must already have checked that the learner exists.
	ApplyOutcomesTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID, outcomes []Outcome) ([]*domain.SkillRecord, error)

	// GradeBatch grades correct out of total exercises against a record.
	GradeBatch(ctx context.Context, recordID uuid.UUID, correct, total int) (*BatchGrade, error)

	// ListSkills returns the learner's records in insertion order.
	ListSkills(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.SkillRecord, error)

	// ListWeak returns records below threshold, weakest first.
	ListWeak(ctx context.Context, userID uuid.UUID, threshold int, page store.Page) ([]*domain.SkillRecord, error)

	// ListDue returns records due now, most overdue first.
	ListDue(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.SkillRecord, error)
}

type ledgerService struct {
	db       *sql.DB
	learners store.LearnerStore
	skills   store.SkillStore
	srs      srs.Service
	metrics  *metrics.Recorder
	now      service.Clock
	logger   *slog.Logger
}

// NewService creates the ledger service. recorder may be nil.
func NewService(
	db *sql.DB,
	learners store.LearnerStore,
	skills store.SkillStore,
	srsService srs.Service,
	recorder *metrics.Recorder,
	clock service.Clock,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if learners == nil || skills == nil {
		panic("stores cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerService{
		db:       db,
		learners: learners,
		skills:   skills,
		srs:      srsService,
		metrics:  recorder,
		now:      clock.OrSystem(),
		logger:   logger.With(slog.String("component", "ledger_service")),
	}
}

func (s *ledgerService) RecordOutcome(
	ctx context.Context,
	userID uuid.UUID,
	ruleName string,
	success bool,
) (*domain.SkillRecord, error) {
	records, err := s.RecordOutcomes(ctx, userID, []Outcome{{RuleName: ruleName, Success: success}})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

func (s *ledgerService) RecordOutcomes(
	ctx context.Context,
	userID uuid.UUID,
	outcomes []Outcome,
) ([]*domain.SkillRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(outcomes) == 0 {
		return nil, domain.NewValidationError("outcomes", "at least one outcome is required", nil)
	}
	if _, err := canonicalize(outcomes); err != nil {
		return nil, err
	}

	var records []*domain.SkillRecord
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.learners.WithTx(tx).GetByID(ctx, userID); err != nil {
			return err
		}
		var err error
		records, err = s.ApplyOutcomesTx(ctx, tx, userID, outcomes)
		return err
	})
	if err != nil {
		log.Warn("failed to record outcomes",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("outcomes", len(outcomes)))
		return nil, service.Wrap(serviceName, "record_outcome", err)
	}

	for _, o := range outcomes {
		s.metrics.ObserveOutcome(metrics.LedgerSkill, o.Success)
	}
	log.Debug("outcomes recorded",
		slog.String("user_id", userID.String()),
		slog.Int("outcomes", len(outcomes)),
		slog.Int("rules", len(records)))
	return records, nil
}

func (s *ledgerService) ApplyOutcomesTx(
	ctx context.Context,
	tx *sql.Tx,
	userID uuid.UUID,
	outcomes []Outcome,
) ([]*domain.SkillRecord, error) {
	canonical, err := canonicalize(outcomes)
	if err != nil {
		return nil, err
	}
	if len(canonical) == 0 {
		return nil, nil
	}

	now := s.now()
	skills := s.skills.WithTx(tx)

	// Rules in first-appearance order, locked in sorted order.
	var order []string
	seen := make(map[string]bool)
	for _, o := range canonical {
		if !seen[o.RuleName] {
			seen[o.RuleName] = true
			order = append(order, o.RuleName)
		}
	}
	lockOrder := append([]string(nil), order...)
	sort.Strings(lockOrder)

	current := make(map[string]*domain.SkillRecord, len(order))
	for _, rule := range lockOrder {
		candidate, err := domain.NewSkillRecord(userID, rule, now)
		if err != nil {
			return nil, err
		}
		rec, err := skills.GetOrCreateForUpdate(ctx, candidate)
		if err != nil {
			return nil, err
		}
		current[rule] = rec
	}

	for _, o := range canonical {
		next, err := s.srs.ApplyOutcome(current[o.RuleName], o.Success, now)
		if err != nil {
			return nil, err
		}
		current[o.RuleName] = next
	}

	for _, rule := range lockOrder {
		if err := skills.Update(ctx, current[rule]); err != nil {
			return nil, err
		}
	}

	records := make([]*domain.SkillRecord, 0, len(order))
	for _, rule := range order {
		records = append(records, current[rule])
	}
	return records, nil
}

// canonicalize normalizes every rule name, rejecting blank ones before any
// storage call.
func canonicalize(outcomes []Outcome) ([]Outcome, error) {
	out := make([]Outcome, len(outcomes))
	for i, o := range outcomes {
		name, err := domain.ParseRuleName(o.RuleName)
		if err != nil {
			return nil, err
		}
		out[i] = Outcome{RuleName: name, Success: o.Success}
	}
	return out, nil
}

func (s *ledgerService) GradeBatch(
	ctx context.Context,
	recordID uuid.UUID,
	correct, total int,
) (*BatchGrade, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := srs.ValidateBatch(correct, total); err != nil {
		return nil, err
	}

	var grade BatchGrade
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		skills := s.skills.WithTx(tx)

		rec, err := skills.GetByIDForUpdate(ctx, recordID)
		if err != nil {
			return err
		}

		now := s.now()
		next, result, err := s.srs.GradeBatch(rec, correct, total, now)
		if err != nil {
			return err
		}
		if err := skills.Update(ctx, next); err != nil {
			return err
		}

		grade = BatchGrade{Record: next, Result: result}
		return nil
	})
	if err != nil {
		log.Warn("failed to grade batch",
			slog.String("error", err.Error()),
			slog.String("skill_id", recordID.String()))
		return nil, service.Wrap(serviceName, "grade_batch", err)
	}

	s.metrics.ObserveBatch(grade.Result.Score)
	log.Debug("batch graded",
		slog.String("skill_id", recordID.String()),
		slog.Int("previous_mastery", grade.Result.PreviousMastery),
		slog.Int("new_mastery", grade.Result.NewMastery))
	return &grade, nil
}

func (s *ledgerService) ListSkills(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.SkillRecord, error) {
	if err := s.ensureLearner(ctx, userID); err != nil {
		return nil, service.Wrap(serviceName, "list_skills", err)
	}
	records, err := s.skills.ListByUser(ctx, userID, page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "list_skills", err)
	}
	return records, nil
}

func (s *ledgerService) ListWeak(
	ctx context.Context,
	userID uuid.UUID,
	threshold int,
	page store.Page,
) ([]*domain.SkillRecord, error) {
	if threshold < domain.MinMastery || threshold > domain.MaxMastery {
		return nil, domain.NewValidationError("threshold", "must be between 0 and 100", nil)
	}
	if err := s.ensureLearner(ctx, userID); err != nil {
		return nil, service.Wrap(serviceName, "list_weak", err)
	}
	records, err := s.skills.ListWeak(ctx, userID, threshold, page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "list_weak", err)
	}
	return records, nil
}

func (s *ledgerService) ListDue(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.SkillRecord, error) {
	if err := s.ensureLearner(ctx, userID); err != nil {
		return nil, service.Wrap(serviceName, "list_due", err)
	}
	records, err := s.skills.ListDue(ctx, userID, s.now(), page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "list_due", err)
	}
	return records, nil
}

func (s *ledgerService) ensureLearner(ctx context.Context, userID uuid.UUID) error {
	_, err := s.learners.GetByID(ctx, userID)
	return err
}
