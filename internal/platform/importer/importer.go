// Package importer reads vocabulary lists from spreadsheet and CSV files.
//
// Column A holds the word, column B the translation and the optional
// column C a context note. The first row is a header and is skipped.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file extensions other than .xlsx and .csv.
var ErrUnsupportedFormat = errors.New("unsupported vocabulary file format")

// Options controls how a file is read.
type Options struct {
	// Sheet selects the worksheet of a spreadsheet. Empty means the first sheet.
	Sheet string
	// ContextNote is applied to rows that have no context column.
	ContextNote string
}

// ReadFile reads vocabulary entries from an .xlsx or .csv file. Rows that are
// entirely blank are dropped; rows with a missing word or translation are
// returned as-is so the caller can count them as invalid.
func ReadFile(path string, opts Options) ([]domain.VocabularyEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
		}
		defer func() { _ = f.Close() }()
		return readWorkbook(f, opts)
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer func() { _ = file.Close() }()
		return ReadCSV(file, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readWorkbook(f *excelize.File, opts Options) ([]domain.VocabularyEntry, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("spreadsheet has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return entriesFromRows(rows, opts), nil
}

// ReadCSV reads entries from CSV data.
func ReadCSV(r io.Reader, opts Options) ([]domain.VocabularyEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return entriesFromRows(rows, opts), nil
}

func entriesFromRows(rows [][]string, opts Options) []domain.VocabularyEntry {
	var entries []domain.VocabularyEntry
	for i, row := range rows {
		if i == 0 {
			continue
		}
		word := cell(row, 0)
		translation := cell(row, 1)
		note := cell(row, 2)
		if word == "" && translation == "" && note == "" {
			continue
		}
		if note == "" {
			note = opts.ContextNote
		}
		entries = append(entries, domain.VocabularyEntry{
			Word:        word,
			Translation: translation,
			ContextNote: note,
		})
	}
	return entries
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
