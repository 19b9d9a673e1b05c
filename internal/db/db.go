// Package db manages the sqlite poll-cycle journal.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are stored so sqlite date functions work on them.
const timeLayout = "2006-01-02 15:04:05"

// pragmas are applied by the driver to every new connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
}

// schema is applied in a single transaction on open. Statements must be
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS poll_cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		committed_at DATETIME NOT NULL,
		duration_ms INTEGER DEFAULT 0,
		outcome TEXT NOT NULL,
		failed_sources TEXT,
		live_total INTEGER DEFAULT 0,
		alert_count INTEGER DEFAULT 0,
		congestion_avg REAL DEFAULT 0,
		UNIQUE(run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_cycles_committed ON poll_cycles(committed_at)`,
	`CREATE TABLE IF NOT EXISTS source_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id INTEGER NOT NULL REFERENCES poll_cycles(id) ON DELETE CASCADE,
		source TEXT NOT NULL,
		error TEXT,
		timestamp DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_source_failures_timestamp ON source_failures(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_source_failures_source ON source_failures(source)`,
}

// DB is the journal handle.
type DB struct {
	*sql.DB
	path string
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// New opens the journal at path, creating the file, its directory and the
// schema when missing.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers from the poll loop.
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) migrate(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}
