package test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"simpletodo/internal/adapter/database/sqlite"
	"simpletodo/pkg/config"
)

// InitTestDB opens a migrated sqlite database in a temporary directory.
// Each test gets its own file, closed when the test ends.
func InitTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	cfg := config.GetDefaultConfig().Database
	cfg.Path = filepath.Join(t.TempDir(), "test.db")

	db, err := sqlite.NewDB(cfg)

	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CleanDB removes every row from the application tables and resets the
// id sequence.
func CleanDB(t *testing.T, db *sql.DB) {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT IN ('sqlite_sequence', 'schema_migrations')")

	if err != nil {
		t.Fatalf("failed to query tables: %v", err)
	}

	var tables []string

	for rows.Next() {
		var table string

		if err := rows.Scan(&table); err != nil {
			rows.Close()
			t.Fatalf("failed to scan table name: %v", err)
		}

		tables = append(tables, table)
	}

	rows.Close()

	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("failed to clean table %s: %v", table, err)
		}

		if _, err := db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table); err != nil {
			t.Fatalf("failed to reset sequence for %s: %v", table, err)
		}
	}
}
