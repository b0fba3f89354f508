package db

import (
	"context"
	"fmt"
)

// migrations[i] upgrades a database from user_version i to i+1. The schema
// list already creates the current layout, so a fresh database needs none.
var migrations []string

// SchemaVersion returns the stored schema version.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// migrate applies pending migrations in order.
func (db *DB) migrate() error {
	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for v := current; v < len(migrations); v++ {
		if _, err := db.ExecContext(context.Background(), migrations[v]); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	return nil
}
