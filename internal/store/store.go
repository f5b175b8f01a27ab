// Package store persists the employee roster, verification log, admin
// accounts, and notification audit trail. SQLite is the zero-config default;
// PostgreSQL is supported for shared deployments.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// Options control how the store opens its backing database.
type Options struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is the PostgreSQL connection string. Ignored for SQLite.
	DSN string
	// DataDir is where the SQLite file lives. Empty means in-memory, which
	// is what the tests use.
	DataDir string
}

// Store wraps the roster database.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the configured database and runs migrations.
func Open(opts Options) (*Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = driverSQLite
	}

	var db *sqlx.DB
	var err error

	switch driver {
	case driverSQLite:
		var dsn string
		if opts.DataDir == "" {
			dsn = ":memory:?_journal_mode=WAL"
		} else {
			if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(opts.DataDir, "trustpass.db") + "?_journal_mode=WAL&_busy_timeout=5000"
		}
		db, err = sqlx.Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open roster database: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	case driverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		db, err = sqlx.Connect("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open roster database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate roster database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind translates ?-style placeholders to the driver's native form.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the value for key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.rebind("SELECT value FROM settings WHERE key = ?"), key)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting writes key=value, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	const q = `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
