// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// external systems.
package secondary

import "context"

// PlanStore defines the secondary port for plan snapshot persistence.
// Snapshots carry tasks, edges, state, owners and arguments. The
// classification index is never stored; it is rebuilt by replaying the
// snapshot on load.
type PlanStore interface {
	// Save persists a plan snapshot, replacing any previous snapshot with
	// the same ID.
	Save(ctx context.Context, plan *PlanRecord) error

	// Load retrieves a plan snapshot by its ID.
	Load(ctx context.Context, id string) (*PlanRecord, error)

	// List retrieves summaries of all stored plans.
	List(ctx context.Context) ([]*PlanSummary, error)

	// Delete removes a plan snapshot from persistence.
	Delete(ctx context.Context, id string) error
}

// PlanRecord represents a plan snapshot as stored in persistence.
type PlanRecord struct {
	ID        string
	Name      string
	CreatedAt string
	UpdatedAt string
	Tasks     []*TaskRecord
	Edges     []*EdgeRecord
}

// TaskRecord represents a task as stored in persistence.
type TaskRecord struct {
	ID         string
	Ancestry   []string // model names, most derived first
	State      string   // pending, starting, running, finishing or finished
	Outcome    string   // "", "success" or "failed"
	Abstract   bool
	Executable bool
	Mission    bool
	Permanent  bool
	Owners     []string
	Arguments  map[string]any
}

// EdgeRecord represents a relation edge as stored in persistence.
type EdgeRecord struct {
	Parent   string
	Child    string
	Relation string
	Data     string // optional edge label
}

// PlanSummary is the listing view of a stored plan.
type PlanSummary struct {
	ID        string
	Name      string
	TaskCount int
	EdgeCount int
	CreatedAt string
}
