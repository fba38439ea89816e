package primary

import (
	"context"

	"github.com/example/loom/internal/models"
)

// PlanService defines the primary port for plan snapshot management.
type PlanService interface {
	// ImportPlan validates a plan document and stores it as a snapshot,
	// replacing any previous snapshot with the same ID.
	ImportPlan(ctx context.Context, doc *models.PlanDoc) (*ImportPlanResponse, error)

	// ListPlans lists stored plan summaries.
	ListPlans(ctx context.Context) ([]*PlanInfo, error)

	// ShowPlan retrieves a stored plan with its tasks and edges.
	ShowPlan(ctx context.Context, id string) (*PlanDetail, error)

	// DeletePlan removes a stored plan.
	DeletePlan(ctx context.Context, id string) error
}

// ImportPlanResponse contains the result of importing a plan document.
type ImportPlanResponse struct {
	PlanID    string
	TaskCount int
	EdgeCount int
}

// PlanInfo is the listing view of a stored plan.
type PlanInfo struct {
	ID        string
	Name      string
	TaskCount int
	EdgeCount int
	CreatedAt string
}

// PlanDetail is the full view of a stored plan.
type PlanDetail struct {
	ID    string
	Name  string
	Tasks []TaskView
	Edges []EdgeView
}

// EdgeView represents a relation edge at the port boundary.
type EdgeView struct {
	Parent   string
	Child    string
	Relation string
	Data     string
}
