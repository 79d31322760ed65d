package testutils

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is a captured log record: level, message and attributes.
type LogEntry map[string]any

// TestSlogHandler is a memory-backed slog.Handler. Attributes added with
// WithAttrs are included in every captured entry.
type TestSlogHandler struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
}

// NewTestSlogHandler creates an empty handler.
func NewTestSlogHandler() *TestSlogHandler {
	return &TestSlogHandler{
		mu:      &sync.Mutex{},
		entries: &[]LogEntry{},
	}
}

// Enabled implements slog.Handler.
func (h *TestSlogHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *TestSlogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		"level":   r.Level.String(),
		"message": r.Message,
	}
	for _, attr := range h.attrs {
		entry[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attr.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = append(*h.entries, entry)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *TestSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TestSlogHandler{mu: h.mu, entries: h.entries, attrs: merged}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *TestSlogHandler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a copy of the captured entries.
func (h *TestSlogHandler) Entries() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]LogEntry, len(*h.entries))
	copy(result, *h.entries)
	return result
}

// Clear drops captured entries.
func (h *TestSlogHandler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = (*h.entries)[:0]
}
