package query_test

import (
	"testing"

	"github.com/example/loom/internal/core/match"
	"github.com/example/loom/internal/core/plan"
	"github.com/example/loom/internal/core/query"
	"github.com/example/loom/internal/core/task"
)

func basePlanABC(t *testing.T) (*plan.Plan, *task.Task, *task.Task, *task.Task) {
	t.Helper()
	p := plan.New("base")
	model := task.NewModel("task")
	a := task.NewTask("a", model, nil)
	b := task.NewTask("b", model, nil)
	c := task.NewTask("c", model, nil)
	for _, tk := range []*task.Task{a, b, c} {
		if err := p.Add(tk); err != nil {
			t.Fatalf("Add(%s): %v", tk.ID(), err)
		}
	}
	if err := p.AddEdge(a, b, task.Hierarchy, nil); err != nil {
		t.Fatalf("AddEdge(a,b): %v", err)
	}
	if err := p.AddEdge(b, c, task.Hierarchy, nil); err != nil {
		t.Fatalf("AddEdge(b,c): %v", err)
	}
	return p, a, b, c
}

func ids(s task.Set) map[string]bool {
	out := make(map[string]bool, s.Len())
	for tk := range s {
		out[tk.ID()] = true
	}
	return out
}

func wantIDs(t *testing.T, got task.Set, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("result has %d tasks %v, want %d %v", len(gotIDs), gotIDs, len(want), want)
	}
	for _, id := range want {
		if !gotIDs[id] {
			t.Errorf("result missing %s: %v", id, gotIDs)
		}
	}
}

func TestResultCacheStability(t *testing.T) {
	p, _, _, _ := basePlanABC(t)
	q := query.New(p, match.NewTaskMatcher())

	first := q.ToSet()
	wantIDs(t, first, "a", "b", "c")

	// the plan mutates; the cached result must not move
	d := task.NewTask("d", task.NewModel("task"), nil)
	if err := p.Add(d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	second := q.ToSet()
	wantIDs(t, second, "a", "b", "c")

	// after reset the result reflects the current plan
	q.Reset()
	wantIDs(t, q.ToSet(), "a", "b", "c", "d")
}

func TestResultReflectsStateAfterReset(t *testing.T) {
	p, a, _, _ := basePlanABC(t)
	q := query.New(p, match.NewTaskMatcher().Pending())

	wantIDs(t, q.ToSet(), "a", "b", "c")

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// stale until reset
	wantIDs(t, q.ToSet(), "a", "b", "c")
	q.Reset()
	wantIDs(t, q.ToSet(), "b", "c")
}

func TestMatchesPostFilterApplied(t *testing.T) {
	p, a, _, _ := basePlanABC(t)
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := a.Started(); err != nil {
		t.Fatalf("Started: %v", err)
	}

	// negation filters nothing, so the exact pass must narrow the result
	q := query.New(p, match.NewTaskMatcher().Pending().Negate())
	wantIDs(t, q.ToSet(), "a")
}

func TestRootsOnBasePlan(t *testing.T) {
	p, _, _, _ := basePlanABC(t)
	q := query.New(p, match.NewTaskMatcher())
	if err := q.Roots(task.Hierarchy); err != nil {
		t.Fatalf("Roots: %v", err)
	}
	wantIDs(t, q.ToSet(), "a")
}

func TestRootsReplacesCachedResult(t *testing.T) {
	p, _, _, _ := basePlanABC(t)
	q := query.New(p, match.NewTaskMatcher())
	if err := q.Roots(task.Hierarchy); err != nil {
		t.Fatalf("Roots: %v", err)
	}
	// subsequent reads see the roots subset until reset
	wantIDs(t, q.ToSet(), "a")
	q.Reset()
	wantIDs(t, q.ToSet(), "a", "b", "c")
}

func TestRootsWithinResultSetOnly(t *testing.T) {
	// roots are computed within the result set: querying only b and c
	// makes b a root even though a is its parent in the plan
	p, _, b, c := basePlanABC(t)
	b.Arguments()["keep"] = true
	c.Arguments()["keep"] = true

	q := query.New(p, match.NewTaskMatcher().WithArgument("keep", true))
	if err := q.Roots(task.Hierarchy); err != nil {
		t.Fatalf("Roots: %v", err)
	}
	wantIDs(t, q.ToSet(), "b")
}

func TestRootsUsesReachabilityNotDirectParents(t *testing.T) {
	// a -> b -> c with only a and c in the result: c is excluded because a
	// reaches it, even though a is not its direct parent
	p, a, _, c := basePlanABC(t)
	a.Arguments()["keep"] = true
	c.Arguments()["keep"] = true

	q := query.New(p, match.NewTaskMatcher().WithArgument("keep", true))
	if err := q.Roots(task.Hierarchy); err != nil {
		t.Fatalf("Roots: %v", err)
	}
	wantIDs(t, q.ToSet(), "a")
}

func TestOverlayRootsScenario(t *testing.T) {
	// base: a -> b -> c; overlay adds d -> a; roots become {d}; removing d
	// restores {a}
	p, a, _, _ := basePlanABC(t)
	tx := plan.NewTransaction(p)

	d := task.NewTask("d", task.NewModel("task"), nil)
	if err := tx.Add(d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tx.AddEdge(d, a, task.Hierarchy, nil); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	q := query.New(tx, match.NewTaskMatcher())
	if err := q.Roots(task.Hierarchy); err != nil {
		t.Fatalf("Roots: %v", err)
	}
	wantIDs(t, q.ToSet(), "d")

	tx.Remove(d)
	q.Reset()
	if err := q.Roots(task.Hierarchy); err != nil {
		t.Fatalf("Roots: %v", err)
	}
	wantIDs(t, q.ToSet(), "a")
}

func TestStackResultShadowing(t *testing.T) {
	// the base-level a is shadowed by its proxy; the logical set contains
	// each task once
	p, a, _, _ := basePlanABC(t)
	tx := plan.NewTransaction(p)
	pa, err := tx.Wrap(a)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	q := query.New(tx, match.NewTaskMatcher())
	set := q.ToSet()
	wantIDs(t, set, "a", "b", "c")
	if !set.Include(pa) {
		t.Error("the proxy, not the shadowed task, represents a in the result")
	}
	if set.Include(a) {
		t.Error("shadowed task leaked into the logical result")
	}
}

func TestShadowedStateChangesResolution(t *testing.T) {
	// a runs inside the overlay only: a pending-query at the top excludes
	// it, while the base plan still sees it pending
	p, a, _, _ := basePlanABC(t)
	tx := plan.NewTransaction(p)
	pa, err := tx.Wrap(a)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if err := pa.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	top := query.New(tx, match.NewTaskMatcher().Pending())
	wantIDs(t, top.ToSet(), "b", "c")

	base := query.New(p, match.NewTaskMatcher().Pending())
	wantIDs(t, base.ToSet(), "a", "b", "c")
}

func TestLocalScope(t *testing.T) {
	p, a, _, _ := basePlanABC(t)
	tx := plan.NewTransaction(p)
	if _, err := tx.Wrap(a); err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	d := task.NewTask("d", task.NewModel("task"), nil)
	if err := tx.Add(d); err != nil {
		t.Fatalf("Add: %v", err)
	}

	q := query.New(tx, match.NewTaskMatcher()).WithScope(query.LocalScope)
	wantIDs(t, q.ToSet(), "a", "d")
}

func TestStackEquivalence(t *testing.T) {
	// base: a -> b -> c; overlay: drop b -> c, add d -> c. The flattened
	// graph is a -> b, d -> c: roots must be {a, d}. Verified against an
	// explicitly flattened single-level plan.
	p, _, b, c := basePlanABC(t)
	tx := plan.NewTransaction(p)

	if err := tx.RemoveEdge(b, c, task.Hierarchy); err != nil {
		t.Fatalf("RemoveEdge: %v", err)
	}
	d := task.NewTask("d", task.NewModel("task"), nil)
	if err := tx.Add(d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tx.AddEdge(d, c, task.Hierarchy, nil); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	stacked := query.New(tx, match.NewTaskMatcher())
	if err := stacked.Roots(task.Hierarchy); err != nil {
		t.Fatalf("Roots: %v", err)
	}

	// flatten by hand into a fresh plan
	flat := plan.New("flat")
	model := task.NewModel("task")
	fa := task.NewTask("a", model, nil)
	fb := task.NewTask("b", model, nil)
	fc := task.NewTask("c", model, nil)
	fd := task.NewTask("d", model, nil)
	for _, tk := range []*task.Task{fa, fb, fc, fd} {
		if err := flat.Add(tk); err != nil {
			t.Fatalf("flat Add: %v", err)
		}
	}
	if err := flat.AddEdge(fa, fb, task.Hierarchy, nil); err != nil {
		t.Fatalf("flat AddEdge: %v", err)
	}
	if err := flat.AddEdge(fd, fc, task.Hierarchy, nil); err != nil {
		t.Fatalf("flat AddEdge: %v", err)
	}
	flatQuery := query.New(flat, match.NewTaskMatcher())
	if err := flatQuery.Roots(task.Hierarchy); err != nil {
		t.Fatalf("flat Roots: %v", err)
	}

	got := ids(stacked.ToSet())
	want := ids(flatQuery.ToSet())
	if len(got) != len(want) {
		t.Fatalf("stacked roots %v, flattened roots %v", got, want)
	}
	for id := range want {
		if !got[id] {
			t.Errorf("stacked roots missing %s: got %v", id, got)
		}
	}
}

func TestScopeError(t *testing.T) {
	p, _, _, _ := basePlanABC(t)
	other := plan.New("other")

	q := query.New(p, match.NewTaskMatcher())
	res := q.Result()
	if _, err := res.Roots(other, task.Hierarchy); err == nil {
		t.Error("evaluating a result against a different plan should fail")
	}
	if _, err := res.Roots(p, task.Hierarchy); err != nil {
		t.Errorf("Roots against the owning plan failed: %v", err)
	}
}

func TestRebindResetsCache(t *testing.T) {
	p, _, _, _ := basePlanABC(t)
	other := plan.New("other")
	model := task.NewModel("task")
	x := task.NewTask("x", model, nil)
	if err := other.Add(x); err != nil {
		t.Fatalf("Add: %v", err)
	}

	q := query.New(p, match.NewTaskMatcher())
	wantIDs(t, q.ToSet(), "a", "b", "c")
	q.Rebind(other)
	wantIDs(t, q.ToSet(), "x")
}

func TestIndexedQueryThroughQuery(t *testing.T) {
	p, a, _, _ := basePlanABC(t)
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	q := query.New(p, match.NewTaskMatcher().Starting())
	wantIDs(t, q.ToSet(), "a")
}
