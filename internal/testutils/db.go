package testutils

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/linguist-api/internal/config"
	"github.com/phrazzld/linguist-api/internal/platform/database"
	"github.com/phrazzld/linguist-api/internal/platform/sqlite"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds database setup in tests.
const TestTimeout = 10 * time.Second

// Stores is a migrated test database together with its stores.
type Stores struct {
	store.Stores
	DB *sql.DB
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSQLiteDB opens a fresh SQLite database file in a temporary directory,
// applies all migrations and closes it when the test ends.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "linguist.db"),
	}
	db, err := database.Open(ctx, cfg, DiscardLogger())
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	err = database.Migrate(ctx, db, cfg.Driver, database.MigrateUp, DiscardLogger())
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// NewSQLiteStores returns the stores of a fresh test database.
func NewSQLiteStores(t testing.TB) *Stores {
	t.Helper()

	db := NewSQLiteDB(t)
	return &Stores{
		Stores: sqlite.NewStores(db, DiscardLogger()),
		DB:     db,
	}
}
