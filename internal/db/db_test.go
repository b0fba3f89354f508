package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestNew_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("first New() failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	defer second.Close()

	v, err := second.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrations))
	}
}

func TestMigrate_AppliesPending(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	orig := migrations
	t.Cleanup(func() { migrations = orig })
	migrations = append(append([]string(nil), orig...),
		`CREATE INDEX IF NOT EXISTS idx_api_calls_endpoint ON api_calls(endpoint)`)

	if err := db.migrate(); err != nil {
		t.Fatalf("migrate() failed: %v", err)
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrations))
	}

	var name string
	err = db.QueryRowContext(context.Background(),
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_api_calls_endpoint'").Scan(&name)
	if err != nil {
		t.Errorf("migration index missing: %v", err)
	}

	// Applied migrations do not run again.
	migrations[len(migrations)-1] = `THIS IS NOT SQL`
	if err := db.migrate(); err != nil {
		t.Errorf("second migrate() = %v, want no-op", err)
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for _, tbl := range schema {
		var name string
		err := db.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", tbl.table).Scan(&name)
		if err != nil {
			t.Errorf("table %s does not exist: %v", tbl.table, err)
		}
	}
}

func TestConfigure_JournalMode(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	var mode string
	if err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestVacuum_AfterCleanup(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	old := time.Now().UTC().AddDate(0, 0, -40)
	samples := make([]models.QuotaSample, 50)
	for i := range samples {
		samples[i] = models.QuotaSample{Timestamp: old, LimitType: "Token usage (5 Hour)", Percentage: float64(i)}
	}
	if err := db.InsertQuotaSamples(samples); err != nil {
		t.Fatalf("InsertQuotaSamples failed: %v", err)
	}
	if n, err := db.CleanupOldSamples(30); err != nil || n != 50 {
		t.Fatalf("CleanupOldSamples = %d, %v", n, err)
	}

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	_, err := db.QueryContext(context.Background(), "SELECT 1")
	if err == nil {
		t.Error("Expected error querying closed database")
	}
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
