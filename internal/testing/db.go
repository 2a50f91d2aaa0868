// Package testing provides database helpers shared by package tests.
package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aristath/returns/internal/database"
)

// NewTestDB creates a temporary file-backed SQLite database for testing.
// Returns the database instance and a cleanup function that closes the connection.
// The file lives in t.TempDir() and is removed with it.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()
	return NewTestDBWithSchema(t, name, "")
}

// NewTestDBWithSchema creates a temporary SQLite database and executes schema on it
func NewTestDBWithSchema(t *testing.T, name string, schema string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    TempDBPath(t, name),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if schema != "" {
		if _, err := db.Conn().Exec(schema); err != nil {
			_ = db.Close()
			t.Fatalf("Failed to execute custom schema for test database %s: %v", name, err)
		}
	}

	return db, func() {
		if err := db.Close(); err != nil {
			// Log error but don't fail test - cleanup should be idempotent
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
}

// TempDBPath returns a path for a database file that does not exist yet
func TempDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name))
}

// WriteSourceDB creates a database file at path holding one table.
// Rows are inserted with their Go values, nil becomes NULL.
func WriteSourceDB(t *testing.T, path, tableName string, columns []string, rows [][]interface{}) {
	t.Helper()

	db, err := database.New(database.Config{Path: path, Profile: database.ProfileOutput, Name: "fixture"})
	if err != nil {
		t.Fatalf("Failed to create fixture database: %v", err)
	}
	defer db.Close()

	if _, err := db.Conn().Exec(CreateTableSQL(tableName, columns)); err != nil {
		t.Fatalf("Failed to create fixture table %s: %v", tableName, err)
	}

	insert := InsertSQL(tableName, len(columns))
	for i, row := range rows {
		if _, err := db.Conn().Exec(insert, row...); err != nil {
			t.Fatalf("Failed to insert fixture row %d: %v", i, err)
		}
	}
}
