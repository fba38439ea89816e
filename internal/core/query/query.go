// Package query binds a matcher to a plan level and caches its resolution.
// A query bound to a transaction resolves against the whole stack by
// default: one flat result per level, composed on demand, so that answers
// are identical to flattening every overlay into the base plan without ever
// building the flattened graph.
//
// The cache is only invalidated explicitly (Reset) or by rebinding: the
// engine does not watch plan mutations, by design, so that reads never pay
// index-consistency costs. Callers own cache coherency across writes.
package query

import (
	"github.com/example/loom/internal/core/match"
	"github.com/example/loom/internal/core/plan"
	"github.com/example/loom/internal/core/task"
)

// Scope selects how much of a transaction stack a query sees.
type Scope int

const (
	// GlobalScope resolves against every level of the stack, as if the
	// overlays had been flattened into the base plan.
	GlobalScope Scope = iota
	// LocalScope resolves against the bound level only.
	LocalScope
)

// Query is a matcher bound to one plan level, with a cached result.
type Query struct {
	matcher match.Matcher
	space   plan.Space
	scope   Scope
	result  *Result
}

// New binds matcher to the given level with global scope.
func New(space plan.Space, matcher match.Matcher) *Query {
	return &Query{matcher: matcher, space: space}
}

// WithScope sets the resolution scope and returns the query for chaining.
// Changing the scope drops the cache.
func (q *Query) WithScope(scope Scope) *Query {
	q.scope = scope
	q.result = nil
	return q
}

// Matcher returns the bound matcher.
func (q *Query) Matcher() match.Matcher { return q.matcher }

// Result resolves the query, or returns the cached resolution. The result
// is stable until Reset, however the underlying plan mutates in between.
func (q *Query) Result() *Result {
	if q.result != nil {
		return q.result
	}
	var levels []levelResult
	if q.scope == LocalScope {
		levels = []levelResult{resolveLevel(q.space, q.matcher)}
	} else {
		for _, sp := range plan.Levels(q.space) {
			levels = append(levels, resolveLevel(sp, q.matcher))
		}
	}
	q.result = &Result{top: q.space, levels: levels}
	return q.result
}

// resolveLevel computes one level's flat result: index-accelerated filter,
// then the exact Matches pass whenever the filter alone is not exact. This
// is the single place that consumes Filter output, so the re-apply contract
// of the algebra is enforced structurally here.
func resolveLevel(sp plan.Space, m match.Matcher) levelResult {
	initial := sp.AllTasks()
	filtered := m.Filter(initial, sp.TaskIndex())
	if m.IndexedQuery() {
		filtered = filtered.Dup()
	} else {
		exact := make(task.Set)
		for t := range filtered {
			if m.Matches(t) {
				exact.Add(t)
			}
		}
		filtered = exact
	}
	return levelResult{space: sp, matches: filtered, initial: initial}
}

// Reset drops the cached result. The next Result call reflects the current
// plan state.
func (q *Query) Reset() *Query {
	q.result = nil
	return q
}

// Rebind points the query at another plan level and drops the cache.
func (q *Query) Rebind(space plan.Space) *Query {
	q.space = space
	q.result = nil
	return q
}

// Roots replaces the cached result with its roots along the given relation:
// the members no other member of the result reaches through rel.
func (q *Query) Roots(rel task.Relation) error {
	current := q.Result()
	roots, err := current.Roots(q.space, rel)
	if err != nil {
		return err
	}
	q.result = &Result{
		top: q.space,
		levels: []levelResult{{
			space:   q.space,
			matches: roots,
			initial: current.Set(),
		}},
	}
	return nil
}

// Each enumerates the resolved result. Returning false stops.
func (q *Query) Each(fn func(*task.Task) bool) {
	q.Result().Each(fn)
}

// ToSlice returns the resolved result ordered by task ID.
func (q *Query) ToSlice() []*task.Task {
	return q.Result().Slice()
}

// ToSet returns the resolved result as an identity set.
func (q *Query) ToSet() task.Set {
	return q.Result().Set()
}
