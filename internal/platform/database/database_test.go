package database

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/phrazzld/linguist-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"file:/tmp/a.db?_txlock=immediate&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		SQLiteDSN("/tmp/a.db"))

	assert.Equal(t,
		"file:a.db?_busy_timeout=100&_txlock=immediate&_foreign_keys=on&_journal_mode=WAL",
		SQLiteDSN("file:a.db?_busy_timeout=100"))

	assert.Equal(t,
		":memory:?_txlock=immediate&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		SQLiteDSN(":memory:"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", URL: "x"}, nil)
	assert.Error(t, err)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	db, err := Open(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "linguist.db"),
	}, log)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, Migrate(ctx, db, config.DriverSQLite, MigrateUp, log))
	// a second run is a no-op
	require.NoError(t, Migrate(ctx, db, config.DriverSQLite, MigrateUp, log))
	require.NoError(t, Migrate(ctx, db, config.DriverSQLite, MigrateVersion, log))

	for _, table := range []string{"learners", "skill_records", "vocabulary_cards", "lessons", "practice_sessions"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	assert.Error(t, Migrate(ctx, db, config.DriverSQLite, "sideways", log))
	assert.Contains(t, logs.String(), "running migrations")
}

func TestSlogGooseLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &slogGooseLogger{log: slog.New(slog.NewTextHandler(&buf, nil))}

	assert.NotPanics(t, func() {
		l.Printf("OK   %s\n", "00001_create_schema.sql")
		l.Fatalf("failed: %v", "boom")
	})
	assert.Contains(t, buf.String(), "00001_create_schema.sql")
	assert.Contains(t, buf.String(), "level=ERROR")
}
