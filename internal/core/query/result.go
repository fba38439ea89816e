package query

import (
	"fmt"

	"github.com/example/loom/internal/core/plan"
	"github.com/example/loom/internal/core/task"
)

// levelResult is the flat resolution of one stack level: the matches within
// that level's own task set, filtered through that level's own index, plus a
// reference to the candidate set it was filtered from.
type levelResult struct {
	space   plan.Space
	matches task.Set
	initial task.Set
}

// Result is a resolved match set: one flat set per stack level, bottom
// first. The logical set the caller sees is the union of the levels with
// shadowed entries dropped: when a higher level proxies a task, only the
// proxy's own match status counts.
type Result struct {
	top    plan.Space
	levels []levelResult

	logical task.Set // lazily computed union
}

// Set returns the logical match set: top-most representatives only.
func (r *Result) Set() task.Set {
	if r.logical != nil {
		return r.logical
	}
	out := make(task.Set)
	for _, lv := range r.levels {
		for t := range lv.matches {
			rep, ok := plan.ResolveTop(r.top, t)
			if !ok || rep != t {
				// shadowed by a higher-level proxy
				continue
			}
			out.Add(t)
		}
	}
	r.logical = out
	return out
}

// Each enumerates the logical set. Returning false stops.
func (r *Result) Each(fn func(*task.Task) bool) {
	r.Set().Each(fn)
}

// Slice returns the logical set ordered by task ID.
func (r *Result) Slice() []*task.Task {
	return r.Set().Slice()
}

// Include reports logical membership.
func (r *Result) Include(t *task.Task) bool {
	return r.Set().Include(t)
}

// InitialSet returns the candidate set the given level was filtered from.
// Level 0 is the base plan.
func (r *Result) InitialSet(level int) task.Set {
	return r.levels[level].initial
}

// Levels returns the number of stack levels this result covers.
func (r *Result) Levels() int { return len(r.levels) }

// Roots computes the subset of the result with no ancestor inside the
// result along rel, resolved across the whole stack: a member is excluded
// as soon as the reversed depth-first visit reaches another member, hopping
// levels through proxies so that shadowed lower-level edges never count.
// space must be the level the result was built for.
func (r *Result) Roots(space plan.Space, rel task.Relation) (task.Set, error) {
	if space != r.top {
		return nil, fmt.Errorf("result was resolved against a different plan level")
	}
	members := r.Set()
	roots := make(task.Set)
	for t := range members {
		if !r.reachedByMember(t, members, rel) {
			roots.Add(t)
		}
	}
	return roots, nil
}

// reachedByMember reports whether the reversed visit from start encounters
// another member of the result set.
func (r *Result) reachedByMember(start *task.Task, members task.Set, rel task.Relation) bool {
	visited := task.NewSet(start)
	stack := []*task.Task{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		found := false
		plan.LogicalEachParent(r.top, cur, rel, func(parent *task.Task, _ any) bool {
			if visited.Include(parent) {
				return true
			}
			visited.Add(parent)
			if members.Include(parent) {
				found = true
				return false
			}
			stack = append(stack, parent)
			return true
		})
		if found {
			return true
		}
	}
	return false
}
