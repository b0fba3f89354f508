// Package db stores fetch diagnostics and quota samples in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-8000",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// schema lists the tables in creation order. Every statement is idempotent.
var schema = []struct {
	table string
	ddl   string
}{
	{"api_calls", `
	CREATE TABLE IF NOT EXISTS api_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		poll_id TEXT,
		endpoint TEXT NOT NULL,
		status_code INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		body_bytes INTEGER DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_api_calls_timestamp ON api_calls(timestamp);
	CREATE INDEX IF NOT EXISTS idx_api_calls_poll ON api_calls(poll_id);
	`},
	{"quota_samples", `
	CREATE TABLE IF NOT EXISTS quota_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		poll_id TEXT,
		limit_type TEXT NOT NULL,
		percentage REAL NOT NULL DEFAULT 0,
		current_value INTEGER DEFAULT 0,
		usage INTEGER DEFAULT 0,
		next_reset_time INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_quota_samples_timestamp ON quota_samples(timestamp);
	CREATE INDEX IF NOT EXISTS idx_quota_samples_type_time ON quota_samples(limit_type, timestamp);
	`},
}

// New opens the database at path, creating the file and its directory if
// needed, and brings the schema up to date.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}

	steps := []struct {
		what string
		run  func() error
	}{
		{"configure database", db.configure},
		{"create schema", db.createSchema},
		{"migrate database", db.migrate},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to %s: %w", step.what, err)
		}
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) configure() error {
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (db *DB) createSchema() error {
	for _, t := range schema {
		if _, err := db.ExecContext(context.Background(), t.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.table, err)
		}
	}
	return nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum rebuilds the database file to reclaim space after a cleanup.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
