// Package primary defines the primary ports (driving interfaces) for the
// application. CLI adapters talk to the engine exclusively through these.
package primary

import "context"

// QueryService defines the primary port for running matchers against stored
// plans.
type QueryService interface {
	// RunQuery loads a plan, builds the requested matcher and resolves it.
	RunQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error)
}

// QueryRequest is a declarative matcher description.
type QueryRequest struct {
	PlanID    string
	Model     string   // model name the tasks must conform to
	Require   []string // predicate names that must hold
	Forbid    []string // predicate names that must not hold
	Owner     string
	SelfOwned *bool
	Mission   *bool
	Permanent *bool
	Roots     string // relation name; non-empty narrows the result to its roots
}

// QueryResponse contains the resolved tasks, sorted by ID.
type QueryResponse struct {
	PlanID  string
	Indexed bool // the matcher was resolved from index buckets alone
	Tasks   []TaskView
}

// TaskView represents a matched task at the port boundary.
type TaskView struct {
	ID        string
	Model     string
	State     string
	Outcome   string
	Owners    []string
	Mission   bool
	Permanent bool
}
