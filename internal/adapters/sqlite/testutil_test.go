// Package sqlite_test contains integration tests for the SQLite adapters.
// All setup goes through db.GetSchemaSQL() so the tests run against the
// authoritative schema.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/loom/internal/db"
	"github.com/example/loom/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// a second pool connection would see a fresh empty :memory: database
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

	return testDB
}

// samplePlanRecord builds a three-task snapshot with edges, owners and
// arguments exercising every persisted column.
func samplePlanRecord(id string) *secondary.PlanRecord {
	return &secondary.PlanRecord{
		ID:   id,
		Name: "sample",
		Tasks: []*secondary.TaskRecord{
			{
				ID:         "a",
				Ancestry:   []string{"fetch", "task"},
				State:      "running",
				Executable: true,
				Mission:    true,
				Owners:     []string{"peer-1"},
				Arguments:  map[string]any{"target": "camera"},
			},
			{
				ID:         "b",
				Ancestry:   []string{"task"},
				State:      "finished",
				Outcome:    "success",
				Executable: true,
			},
			{
				ID:       "c",
				Ancestry: []string{"task"},
				State:    "pending",
				Abstract: true,
			},
		},
		Edges: []*secondary.EdgeRecord{
			{Parent: "a", Child: "b", Relation: "hierarchy", Data: "dep"},
			{Parent: "b", Child: "c", Relation: "hierarchy"},
		},
	}
}
