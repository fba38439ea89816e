package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/loom/internal/adapters/sqlite"
)

func TestOperationLogWritesAllActions(t *testing.T) {
	database := setupTestDB(t)
	log := sqlite.NewOperationLog(database)
	ctx := context.Background()

	if err := log.LogCreate(ctx, "plan", "PLAN-001"); err != nil {
		t.Fatalf("LogCreate: %v", err)
	}
	if err := log.LogUpdate(ctx, "plan", "PLAN-001", "name", "old", "new"); err != nil {
		t.Fatalf("LogUpdate: %v", err)
	}
	if err := log.LogDelete(ctx, "plan", "PLAN-001"); err != nil {
		t.Fatalf("LogDelete: %v", err)
	}

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM operation_log WHERE entity_id = 'PLAN-001'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("%d log rows, want 3", count)
	}

	var field, oldValue, newValue string
	err := database.QueryRow(
		"SELECT field_name, old_value, new_value FROM operation_log WHERE action = 'update'",
	).Scan(&field, &oldValue, &newValue)
	if err != nil {
		t.Fatalf("query update row: %v", err)
	}
	if field != "name" || oldValue != "old" || newValue != "new" {
		t.Errorf("update row = %s/%s/%s", field, oldValue, newValue)
	}
}
