package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPlanDocRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")

	executable := false
	doc := &PlanDoc{
		ID:   "PLAN-001",
		Name: "patrol",
		Tasks: []TaskDoc{
			{ID: "root", Model: "patrol", State: "running", Mission: true},
			{ID: "halt", Model: "move", Executable: &executable, Arguments: map[string]any{"speed": "slow"}},
		},
		Edges: []EdgeDoc{
			{Parent: "root", Child: "halt", Relation: "hierarchy", Data: "dep"},
		},
	}
	if err := WritePlanDoc(path, doc); err != nil {
		t.Fatalf("WritePlanDoc: %v", err)
	}

	loaded, err := ReadPlanDoc(path)
	if err != nil {
		t.Fatalf("ReadPlanDoc: %v", err)
	}
	if loaded.ID != "PLAN-001" || len(loaded.Tasks) != 2 || len(loaded.Edges) != 1 {
		t.Errorf("round-trip doc = %+v", loaded)
	}
	if loaded.Tasks[1].Executable == nil || *loaded.Tasks[1].Executable {
		t.Error("explicit executable=false should survive the round trip")
	}
	if loaded.Tasks[0].Executable != nil {
		t.Error("unset executable should stay nil, leaving the default to the importer")
	}
	if loaded.Tasks[1].Arguments["speed"] != "slow" {
		t.Errorf("arguments = %v", loaded.Tasks[1].Arguments)
	}
}

func TestReadPlanDocErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadPlanDoc(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("reading a missing file should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadPlanDoc(bad); err == nil {
		t.Error("reading malformed json should fail")
	}

	noID := filepath.Join(dir, "noid.json")
	if err := os.WriteFile(noID, []byte(`{"tasks": []}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadPlanDoc(noID); err == nil {
		t.Error("a document without an id should be rejected")
	}
}
