package app

import (
	"context"
	"fmt"

	"github.com/example/loom/internal/core/match"
	"github.com/example/loom/internal/core/plan"
	"github.com/example/loom/internal/core/query"
	"github.com/example/loom/internal/core/task"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/ports/secondary"
)

// QueryService implements primary.QueryService.
type QueryService struct {
	store secondary.PlanStore
}

// NewQueryService creates a new QueryService.
func NewQueryService(store secondary.PlanStore) *QueryService {
	return &QueryService{store: store}
}

// RunQuery loads the requested plan, rebuilds it in memory, resolves the
// matcher against it and optionally narrows the result to its roots.
func (s *QueryService) RunQuery(ctx context.Context, req primary.QueryRequest) (*primary.QueryResponse, error) {
	if req.PlanID == "" {
		return nil, fmt.Errorf("no plan id given")
	}

	record, err := s.store.Load(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	p, planModels, err := buildPlan(record)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild plan %s: %w", req.PlanID, err)
	}

	matcher, err := buildMatcher(planModels, req)
	if err != nil {
		return nil, err
	}

	q := query.New(p, matcher)
	if req.Roots != "" {
		rel, err := relationOf(req.Roots)
		if err != nil {
			return nil, err
		}
		if err := q.Roots(rel); err != nil {
			return nil, err
		}
	}

	resp := &primary.QueryResponse{
		PlanID:  req.PlanID,
		Indexed: matcher.IndexedQuery(),
	}
	for _, tk := range q.ToSlice() {
		resp.Tasks = append(resp.Tasks, taskView(p, tk))
	}
	return resp, nil
}

// buildMatcher assembles a leaf matcher from the declarative request.
// Contradictory predicate demands panic inside the builder; the recover
// turns them into an error at the port boundary.
func buildMatcher(planModels map[string]*task.Model, req primary.QueryRequest) (m match.Matcher, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid matcher: %v", r)
		}
	}()

	tm := match.NewTaskMatcher()
	if req.Model != "" {
		model, ok := planModels[req.Model]
		if !ok {
			return nil, fmt.Errorf("plan %s has no model %s", req.PlanID, req.Model)
		}
		tm.WithModel(model)
	}
	for _, name := range req.Require {
		tm.WithPredicate(name)
	}
	for _, name := range req.Forbid {
		tm.WithoutPredicate(name)
	}
	if req.Owner != "" {
		tm.OwnedBy(task.Peer(req.Owner))
	}
	if req.SelfOwned != nil {
		if *req.SelfOwned {
			tm.SelfOwned()
		} else {
			tm.NotSelfOwned()
		}
	}
	if req.Mission != nil {
		if *req.Mission {
			tm.Mission()
		} else {
			tm.NotMission()
		}
	}
	if req.Permanent != nil {
		if *req.Permanent {
			tm.Permanent()
		} else {
			tm.NotPermanent()
		}
	}
	return tm, nil
}

func taskView(p *plan.Plan, tk *task.Task) primary.TaskView {
	outcome := ""
	if tk.Success() {
		outcome = "success"
	} else if tk.Failed() {
		outcome = "failed"
	}

	owners := make([]string, 0, len(tk.Owners()))
	for _, o := range tk.Owners() {
		owners = append(owners, string(o))
	}

	return primary.TaskView{
		ID:        tk.ID(),
		Model:     tk.Model().Name(),
		State:     tk.CurrentPhase().String(),
		Outcome:   outcome,
		Owners:    owners,
		Mission:   p.IsMission(tk),
		Permanent: p.IsPermanent(tk),
	}
}

// Ensure QueryService implements the interface
var _ primary.QueryService = (*QueryService)(nil)
