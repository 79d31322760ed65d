package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/platform/importer"
	"github.com/phrazzld/linguist-api/internal/service/vocabulary"
)

// importFileInput describes one vocabulary file import.
type importFileInput struct {
	LearnerID uuid.UUID
	Path      string
	Sheet     string
	Topic     string
}

// importVocabularyFile reads a spreadsheet or CSV file and imports its rows
// for the learner. Words the learner already has keep their translation.
func (app *application) importVocabularyFile(ctx context.Context, in importFileInput) (vocabulary.ImportResult, error) {
	entries, err := importer.ReadFile(in.Path, importer.Options{Sheet: in.Sheet, ContextNote: in.Topic})
	if err != nil {
		return vocabulary.ImportResult{}, fmt.Errorf("failed to read %s: %w", in.Path, err)
	}

	result, err := app.vocabularyService.Import(ctx, in.LearnerID, entries, in.Topic)
	if err != nil {
		return vocabulary.ImportResult{}, fmt.Errorf("failed to import vocabulary: %w", err)
	}

	app.logger.Info("vocabulary file imported",
		slog.String("user_id", in.LearnerID.String()),
		slog.String("file", in.Path),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("invalid", result.Invalid))
	return result, nil
}
