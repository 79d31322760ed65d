// Package vocabulary manages a learner's vocabulary cards: imports with
// first-import-wins semantics, spaced-repetition reviews and due queries.
package vocabulary

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/domain/srs"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/platform/metrics"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/store"
)

const serviceName = "vocabulary"

// ImportResult counts what happened to each entry of an import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// Service manages vocabulary cards.
type Service interface {
	// Import inserts entries for the learner. An entry whose word already
	// has a card is skipped and the existing card is left unchanged; entries
	// with a blank word or translation are counted as invalid. topic is used
	// as the context note of entries that have none.
	Import(ctx context.Context, userID uuid.UUID, entries []domain.VocabularyEntry, topic string) (ImportResult, error)

	// ImportLessonList parses "word = translation" lines and imports them.
	ImportLessonList(ctx context.Context, userID uuid.UUID, text, topic string) (ImportResult, error)

	// ImportTx is Import inside a transaction owned by the caller.
	ImportTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID, entries []domain.VocabularyEntry, topic string) (ImportResult, error)

	// RecordCorrect applies a correct review to a card.
	RecordCorrect(ctx context.Context, cardID uuid.UUID) (*domain.VocabularyCard, error)

	// RecordIncorrect applies an incorrect review to a card.
	RecordIncorrect(ctx context.Context, cardID uuid.UUID) (*domain.VocabularyCard, error)

	// List returns all of the learner's cards, newest first.
	List(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.VocabularyCard, error)

	// DueCards returns the learner's cards due now, most overdue first.
	DueCards(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.VocabularyCard, error)

	// Stats counts the learner's cards, mastered cards and due cards.
	Stats(ctx context.Context, userID uuid.UUID) (store.VocabularyStats, error)

	// Delete removes a card.
	Delete(ctx context.Context, cardID uuid.UUID) error
}

type vocabularyService struct {
	db       *sql.DB
	learners store.LearnerStore
	cards    store.VocabularyStore
	srs      srs.Service
	metrics  *metrics.Recorder
	now      service.Clock
	logger   *slog.Logger
}

// NewService creates the vocabulary service. recorder may be nil.
func NewService(
	db *sql.DB,
	learners store.LearnerStore,
	cards store.VocabularyStore,
	srsService srs.Service,
	recorder *metrics.Recorder,
	clock service.Clock,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if learners == nil || cards == nil {
		panic("stores cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &vocabularyService{
		db:       db,
		learners: learners,
		cards:    cards,
		srs:      srsService,
		metrics:  recorder,
		now:      clock.OrSystem(),
		logger:   logger.With(slog.String("component", "vocabulary_service")),
	}
}

func (s *vocabularyService) Import(
	ctx context.Context,
	userID uuid.UUID,
	entries []domain.VocabularyEntry,
	topic string,
) (ImportResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result ImportResult
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.learners.WithTx(tx).GetByID(ctx, userID); err != nil {
			return err
		}
		var err error
		result, err = s.ImportTx(ctx, tx, userID, entries, topic)
		return err
	})
	if err != nil {
		log.Warn("vocabulary import failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return ImportResult{}, service.Wrap(serviceName, "import", err)
	}

	s.metrics.ObserveImport(result.Imported, result.Skipped, result.Invalid)
	log.Info("vocabulary imported",
		slog.String("user_id", userID.String()),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("invalid", result.Invalid))
	return result, nil
}

func (s *vocabularyService) ImportTx(
	ctx context.Context,
	tx *sql.Tx,
	userID uuid.UUID,
	entries []domain.VocabularyEntry,
	topic string,
) (ImportResult, error) {
	cards := s.cards.WithTx(tx)
	now := s.now()

	var result ImportResult
	for _, entry := range entries {
		if entry.ContextNote == "" {
			entry.ContextNote = topic
		}
		card, err := domain.NewVocabularyCard(userID, entry, now)
		if err != nil {
			result.Invalid++
			continue
		}
		created, err := cards.CreateIfAbsent(ctx, card)
		if err != nil {
			return ImportResult{}, err
		}
		if created {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

func (s *vocabularyService) ImportLessonList(
	ctx context.Context,
	userID uuid.UUID,
	text, topic string,
) (ImportResult, error) {
	return s.Import(ctx, userID, domain.ParseVocabularyList(text, topic), topic)
}

func (s *vocabularyService) RecordCorrect(ctx context.Context, cardID uuid.UUID) (*domain.VocabularyCard, error) {
	return s.review(ctx, cardID, true)
}

func (s *vocabularyService) RecordIncorrect(ctx context.Context, cardID uuid.UUID) (*domain.VocabularyCard, error) {
	return s.review(ctx, cardID, false)
}

func (s *vocabularyService) review(ctx context.Context, cardID uuid.UUID, correct bool) (*domain.VocabularyCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var reviewed *domain.VocabularyCard
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetByIDForUpdate(ctx, cardID)
		if err != nil {
			return err
		}
		next, err := s.srs.ReviewVocabulary(card, correct, s.now())
		if err != nil {
			return err
		}
		if err := cards.Update(ctx, next); err != nil {
			return err
		}
		reviewed = next
		return nil
	})
	if err != nil {
		log.Warn("vocabulary review failed",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, service.Wrap(serviceName, "review", err)
	}

	s.metrics.ObserveOutcome(metrics.LedgerVocabulary, correct)
	return reviewed, nil
}

func (s *vocabularyService) List(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.VocabularyCard, error) {
	if _, err := s.learners.GetByID(ctx, userID); err != nil {
		return nil, service.Wrap(serviceName, "list", err)
	}
	cards, err := s.cards.ListByUser(ctx, userID, page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "list", err)
	}
	return cards, nil
}

func (s *vocabularyService) DueCards(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.VocabularyCard, error) {
	if _, err := s.learners.GetByID(ctx, userID); err != nil {
		return nil, service.Wrap(serviceName, "due_cards", err)
	}
	cards, err := s.cards.ListDue(ctx, userID, s.now(), page.Normalize(store.DefaultPageLimit))
	if err != nil {
		return nil, service.Wrap(serviceName, "due_cards", err)
	}
	return cards, nil
}

func (s *vocabularyService) Stats(ctx context.Context, userID uuid.UUID) (store.VocabularyStats, error) {
	if _, err := s.learners.GetByID(ctx, userID); err != nil {
		return store.VocabularyStats{}, service.Wrap(serviceName, "stats", err)
	}
	stats, err := s.cards.Stats(ctx, userID, s.now())
	if err != nil {
		return store.VocabularyStats{}, service.Wrap(serviceName, "stats", err)
	}
	return stats, nil
}

func (s *vocabularyService) Delete(ctx context.Context, cardID uuid.UUID) error {
	if err := s.cards.Delete(ctx, cardID); err != nil {
		return service.Wrap(serviceName, "delete", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("vocabulary card deleted",
		slog.String("card_id", cardID.String()))
	return nil
}
