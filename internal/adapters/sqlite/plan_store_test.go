package sqlite_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/example/loom/internal/adapters/sqlite"
)

func TestPlanStoreSaveAndLoad(t *testing.T) {
	store := sqlite.NewPlanStore(setupTestDB(t), nil)
	ctx := context.Background()

	record := samplePlanRecord("PLAN-001")
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "PLAN-001")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "sample" {
		t.Errorf("Name = %q, want sample", loaded.Name)
	}
	if len(loaded.Tasks) != 3 {
		t.Fatalf("loaded %d tasks, want 3", len(loaded.Tasks))
	}
	if loaded.CreatedAt == "" || loaded.UpdatedAt == "" {
		t.Error("timestamps should be set on load")
	}

	// tasks come back ordered by ID
	a := loaded.Tasks[0]
	if a.ID != "a" || a.State != "running" || !a.Mission || !a.Executable {
		t.Errorf("task a round-trip wrong: %+v", a)
	}
	if !reflect.DeepEqual(a.Ancestry, []string{"fetch", "task"}) {
		t.Errorf("ancestry = %v", a.Ancestry)
	}
	if !reflect.DeepEqual(a.Owners, []string{"peer-1"}) {
		t.Errorf("owners = %v", a.Owners)
	}
	if a.Arguments["target"] != "camera" {
		t.Errorf("arguments = %v", a.Arguments)
	}

	b := loaded.Tasks[1]
	if b.State != "finished" || b.Outcome != "success" {
		t.Errorf("task b round-trip wrong: %+v", b)
	}
	c := loaded.Tasks[2]
	if !c.Abstract || c.Executable {
		t.Errorf("task c round-trip wrong: %+v", c)
	}

	if len(loaded.Edges) != 2 {
		t.Fatalf("loaded %d edges, want 2", len(loaded.Edges))
	}
	if loaded.Edges[0].Data != "dep" {
		t.Errorf("edge data = %q, want dep", loaded.Edges[0].Data)
	}
	if loaded.Edges[1].Data != "" {
		t.Errorf("edge without data came back as %q", loaded.Edges[1].Data)
	}
}

func TestPlanStoreSaveReplaces(t *testing.T) {
	store := sqlite.NewPlanStore(setupTestDB(t), nil)
	ctx := context.Background()

	if err := store.Save(ctx, samplePlanRecord("PLAN-001")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	smaller := samplePlanRecord("PLAN-001")
	smaller.Name = "revised"
	smaller.Tasks = smaller.Tasks[:1]
	smaller.Edges = nil
	if err := store.Save(ctx, smaller); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := store.Load(ctx, "PLAN-001")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "revised" {
		t.Errorf("Name = %q, want revised", loaded.Name)
	}
	if len(loaded.Tasks) != 1 || len(loaded.Edges) != 0 {
		t.Errorf("replace left %d tasks, %d edges", len(loaded.Tasks), len(loaded.Edges))
	}
}

func TestPlanStoreLoadMissing(t *testing.T) {
	store := sqlite.NewPlanStore(setupTestDB(t), nil)

	if _, err := store.Load(context.Background(), "PLAN-404"); err == nil {
		t.Error("loading a missing plan should fail")
	}
}

func TestPlanStoreList(t *testing.T) {
	store := sqlite.NewPlanStore(setupTestDB(t), nil)
	ctx := context.Background()

	if err := store.Save(ctx, samplePlanRecord("PLAN-001")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second := samplePlanRecord("PLAN-002")
	second.Tasks = second.Tasks[:2]
	second.Edges = second.Edges[:1]
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	summaries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("listed %d plans, want 2", len(summaries))
	}

	counts := make(map[string][2]int)
	for _, s := range summaries {
		counts[s.ID] = [2]int{s.TaskCount, s.EdgeCount}
	}
	if counts["PLAN-001"] != [2]int{3, 2} {
		t.Errorf("PLAN-001 counts = %v", counts["PLAN-001"])
	}
	if counts["PLAN-002"] != [2]int{2, 1} {
		t.Errorf("PLAN-002 counts = %v", counts["PLAN-002"])
	}
}

func TestPlanStoreDelete(t *testing.T) {
	database := setupTestDB(t)
	store := sqlite.NewPlanStore(database, nil)
	ctx := context.Background()

	if err := store.Save(ctx, samplePlanRecord("PLAN-001")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "PLAN-001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "PLAN-001"); err == nil {
		t.Error("plan still loadable after delete")
	}

	// cascade removed the child rows
	var taskCount int
	if err := database.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&taskCount); err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if taskCount != 0 {
		t.Errorf("%d task rows left after delete", taskCount)
	}

	if err := store.Delete(ctx, "PLAN-001"); err == nil {
		t.Error("deleting a missing plan should fail")
	}
}

func TestPlanStoreAuditLog(t *testing.T) {
	database := setupTestDB(t)
	store := sqlite.NewPlanStore(database, sqlite.NewOperationLog(database))
	ctx := context.Background()

	if err := store.Save(ctx, samplePlanRecord("PLAN-001")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "PLAN-001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rows, err := database.Query("SELECT entity_type, entity_id, action FROM operation_log ORDER BY id")
	if err != nil {
		t.Fatalf("query log: %v", err)
	}
	defer rows.Close()

	var entries [][3]string
	for rows.Next() {
		var e [3]string
		if err := rows.Scan(&e[0], &e[1], &e[2]); err != nil {
			t.Fatalf("scan log: %v", err)
		}
		entries = append(entries, e)
	}
	want := [][3]string{
		{"plan", "PLAN-001", "create"},
		{"plan", "PLAN-001", "delete"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("audit log = %v, want %v", entries, want)
	}
}
