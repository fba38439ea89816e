package app_test

import (
	"context"
	"testing"

	"github.com/example/loom/internal/app"
	"github.com/example/loom/internal/models"
)

func samplePlanDoc() *models.PlanDoc {
	return &models.PlanDoc{
		ID:   "PLAN-001",
		Name: "patrol",
		Tasks: []models.TaskDoc{
			{ID: "root", Model: "patrol", Ancestry: []string{"patrol", "task"}, State: "running", Mission: true},
			{ID: "move", Model: "move", State: "running", Owners: []string{"peer-1"}, Arguments: map[string]any{"speed": "slow"}},
			{ID: "halt", Model: "move", State: "pending"},
		},
		Edges: []models.EdgeDoc{
			{Parent: "root", Child: "move", Relation: "hierarchy"},
			{Parent: "root", Child: "halt", Relation: "hierarchy"},
		},
	}
}

func TestImportAndShowPlan(t *testing.T) {
	svc := app.NewPlanService(setupStore(t))
	ctx := context.Background()

	resp, err := svc.ImportPlan(ctx, samplePlanDoc())
	if err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}
	if resp.PlanID != "PLAN-001" || resp.TaskCount != 3 || resp.EdgeCount != 2 {
		t.Errorf("import response = %+v", resp)
	}

	detail, err := svc.ShowPlan(ctx, "PLAN-001")
	if err != nil {
		t.Fatalf("ShowPlan: %v", err)
	}
	if detail.Name != "patrol" || len(detail.Tasks) != 3 || len(detail.Edges) != 2 {
		t.Errorf("detail = %+v", detail)
	}

	byID := make(map[string]string)
	for _, tv := range detail.Tasks {
		byID[tv.ID] = tv.State
	}
	if byID["root"] != "running" || byID["halt"] != "pending" {
		t.Errorf("states = %v", byID)
	}
}

func TestImportPlanValidates(t *testing.T) {
	svc := app.NewPlanService(setupStore(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.PlanDoc)
	}{
		{"edge to unknown task", func(d *models.PlanDoc) {
			d.Edges = append(d.Edges, models.EdgeDoc{Parent: "root", Child: "ghost", Relation: "hierarchy"})
		}},
		{"unknown relation", func(d *models.PlanDoc) {
			d.Edges[0].Relation = "teleport"
		}},
		{"unknown state", func(d *models.PlanDoc) {
			d.Tasks[0].State = "paused"
		}},
		{"unknown outcome", func(d *models.PlanDoc) {
			d.Tasks[0].State = "finished"
			d.Tasks[0].Outcome = "maybe"
		}},
		{"task without model", func(d *models.PlanDoc) {
			d.Tasks[0].Model = ""
			d.Tasks[0].Ancestry = nil
		}},
		{"duplicate task", func(d *models.PlanDoc) {
			d.Tasks = append(d.Tasks, d.Tasks[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := samplePlanDoc()
			tt.mutate(doc)
			if _, err := svc.ImportPlan(ctx, doc); err == nil {
				t.Error("import should have failed")
			}
		})
	}

	// nothing was stored
	plans, err := svc.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("%d plans stored after failed imports", len(plans))
	}
}

func TestListAndDeletePlans(t *testing.T) {
	svc := app.NewPlanService(setupStore(t))
	ctx := context.Background()

	if _, err := svc.ImportPlan(ctx, samplePlanDoc()); err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}
	other := samplePlanDoc()
	other.ID = "PLAN-002"
	other.Name = ""
	if _, err := svc.ImportPlan(ctx, other); err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}

	plans, err := svc.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("listed %d plans, want 2", len(plans))
	}
	for _, p := range plans {
		if p.ID == "PLAN-002" && p.Name != "PLAN-002" {
			t.Errorf("unnamed plan should default its name to the id, got %q", p.Name)
		}
	}

	if err := svc.DeletePlan(ctx, "PLAN-002"); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	plans, _ = svc.ListPlans(ctx)
	if len(plans) != 1 {
		t.Errorf("%d plans left after delete, want 1", len(plans))
	}
}
