package app_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/loom/internal/adapters/sqlite"
	"github.com/example/loom/internal/db"
)

// setupStore creates a plan store backed by an in-memory database with the
// authoritative schema.
func setupStore(t *testing.T) *sqlite.PlanStore {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return sqlite.NewPlanStore(testDB, nil)
}

func boolPtr(v bool) *bool { return &v }
