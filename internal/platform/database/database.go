package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
	"github.com/phrazzld/linguist-api/internal/config"
)

// Registered database/sql driver names.
const (
	PostgresDriverName = "pgx"
	SQLiteDriverName   = "sqlite3"
)

const pingTimeout = 5 * time.Second

// sqliteParams are appended to every SQLite DSN. _txlock=immediate makes
// BeginTx take the write lock up front, which serializes ledger
// read-modify-write transactions.
var sqliteParams = []string{
	"_txlock=immediate",
	"_foreign_keys=on",
	"_busy_timeout=5000",
	"_journal_mode=WAL",
}

// Open connects to the database described by cfg, applies pool settings and
// verifies the connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = sql.Open(PostgresDriverName, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	case config.DriverSQLite:
		db, err = sql.Open(SQLiteDriverName, SQLiteDSN(cfg.URL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		// SQLite has a single writer; one connection keeps transactions
		// strictly serial instead of failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("driver", cfg.Driver),
		slog.Int("max_open_conns", db.Stats().MaxOpenConnections))
	return db, nil
}

// SQLiteDSN adds the connection parameters the sqlite stores rely on to a
// file path or DSN, keeping any parameters the caller already set.
func SQLiteDSN(path string) string {
	base, query, _ := strings.Cut(path, "?")

	present := make(map[string]bool)
	var params []string
	if query != "" {
		for _, kv := range strings.Split(query, "&") {
			key, _, _ := strings.Cut(kv, "=")
			present[key] = true
			params = append(params, kv)
		}
	}
	for _, kv := range sqliteParams {
		key, _, _ := strings.Cut(kv, "=")
		if !present[key] {
			params = append(params, kv)
		}
	}

	if !strings.HasPrefix(base, "file:") && base != ":memory:" {
		base = "file:" + base
	}
	return base + "?" + strings.Join(params, "&")
}
