package app

import (
	"context"
	"fmt"

	"github.com/example/loom/internal/models"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/ports/secondary"
)

// PlanService implements primary.PlanService.
type PlanService struct {
	store secondary.PlanStore
}

// NewPlanService creates a new PlanService.
func NewPlanService(store secondary.PlanStore) *PlanService {
	return &PlanService{store: store}
}

// ImportPlan validates a plan document and stores it as a snapshot. The
// document is validated by building the in-memory plan once, so a document
// that cannot be loaded later is rejected at import time.
func (s *PlanService) ImportPlan(ctx context.Context, doc *models.PlanDoc) (*primary.ImportPlanResponse, error) {
	record, err := recordFromDoc(doc)
	if err != nil {
		return nil, err
	}

	if _, _, err := buildPlan(record); err != nil {
		return nil, fmt.Errorf("invalid plan document: %w", err)
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, err
	}

	return &primary.ImportPlanResponse{
		PlanID:    record.ID,
		TaskCount: len(record.Tasks),
		EdgeCount: len(record.Edges),
	}, nil
}

// ListPlans lists stored plan summaries.
func (s *PlanService) ListPlans(ctx context.Context) ([]*primary.PlanInfo, error) {
	summaries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*primary.PlanInfo, 0, len(summaries))
	for _, sum := range summaries {
		infos = append(infos, &primary.PlanInfo{
			ID:        sum.ID,
			Name:      sum.Name,
			TaskCount: sum.TaskCount,
			EdgeCount: sum.EdgeCount,
			CreatedAt: sum.CreatedAt,
		})
	}
	return infos, nil
}

// ShowPlan retrieves a stored plan with its tasks and edges.
func (s *PlanService) ShowPlan(ctx context.Context, id string) (*primary.PlanDetail, error) {
	record, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &primary.PlanDetail{ID: record.ID, Name: record.Name}
	for _, t := range record.Tasks {
		model := ""
		if len(t.Ancestry) > 0 {
			model = t.Ancestry[0]
		}
		state := t.State
		if state == "" {
			state = "pending"
		}
		detail.Tasks = append(detail.Tasks, primary.TaskView{
			ID:        t.ID,
			Model:     model,
			State:     state,
			Outcome:   t.Outcome,
			Owners:    t.Owners,
			Mission:   t.Mission,
			Permanent: t.Permanent,
		})
	}
	for _, e := range record.Edges {
		detail.Edges = append(detail.Edges, primary.EdgeView{
			Parent:   e.Parent,
			Child:    e.Child,
			Relation: e.Relation,
			Data:     e.Data,
		})
	}
	return detail, nil
}

// DeletePlan removes a stored plan.
func (s *PlanService) DeletePlan(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// recordFromDoc maps a plan document onto a persistence record, applying
// the document defaults.
func recordFromDoc(doc *models.PlanDoc) (*secondary.PlanRecord, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("plan document has no id")
	}

	record := &secondary.PlanRecord{ID: doc.ID, Name: doc.Name}
	if record.Name == "" {
		record.Name = doc.ID
	}

	for _, t := range doc.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("plan %s has a task without an id", doc.ID)
		}
		if t.Model == "" && len(t.Ancestry) == 0 {
			return nil, fmt.Errorf("task %s has no model", t.ID)
		}

		ancestry := t.Ancestry
		if len(ancestry) == 0 {
			ancestry = []string{t.Model}
		} else if t.Model != "" && ancestry[0] != t.Model {
			return nil, fmt.Errorf("task %s: model %s does not head its ancestry", t.ID, t.Model)
		}

		state := t.State
		if state == "" {
			state = "pending"
		}

		executable := true
		if t.Executable != nil {
			executable = *t.Executable
		}

		record.Tasks = append(record.Tasks, &secondary.TaskRecord{
			ID:         t.ID,
			Ancestry:   ancestry,
			State:      state,
			Outcome:    t.Outcome,
			Abstract:   t.Abstract,
			Executable: executable,
			Mission:    t.Mission,
			Permanent:  t.Permanent,
			Owners:     t.Owners,
			Arguments:  t.Arguments,
		})
	}

	for _, e := range doc.Edges {
		record.Edges = append(record.Edges, &secondary.EdgeRecord{
			Parent:   e.Parent,
			Child:    e.Child,
			Relation: e.Relation,
			Data:     e.Data,
		})
	}

	return record, nil
}

// Ensure PlanService implements the interface
var _ primary.PlanService = (*PlanService)(nil)
