// Package match implements the predicate algebra over tasks: leaf matchers
// describing a task shape (model, arguments, state predicates, ownership,
// relation constraints) and the AND/OR/NOT combinators. Every matcher offers
// an exact per-task test and an index-accelerated set filter; IndexedQuery
// reports whether the filter alone is exact or callers must re-apply the
// exact test afterwards.
package match

import (
	"github.com/example/loom/internal/core/index"
	"github.com/example/loom/internal/core/task"
)

// Matcher is a composable predicate over tasks.
type Matcher interface {
	// Matches is the exact test. It is always correct, regardless of any
	// index state.
	Matches(t *task.Task) bool
	// Filter returns a superset of the matches within candidates, computed
	// from index buckets. When IndexedQuery reports true, the result is
	// exact; otherwise the caller must still apply Matches to every element.
	Filter(candidates task.Set, idx *index.Index) task.Set
	// IndexedQuery reports whether Filter alone gives the exact result.
	IndexedQuery() bool
}

// And matches tasks accepted by every child.
type And struct {
	children []Matcher
}

// NewAnd builds a conjunction. An empty conjunction matches everything.
func NewAnd(children ...Matcher) *And {
	return &And{children: children}
}

// Add appends a child and returns the conjunction for chaining.
func (a *And) Add(m Matcher) *And {
	a.children = append(a.children, m)
	return a
}

func (a *And) Matches(t *task.Task) bool {
	for _, c := range a.children {
		if !c.Matches(t) {
			return false
		}
	}
	return true
}

// Filter chains the children's filters: each child narrows the previous
// result. Chaining a superset-producing filter keeps the result a superset
// of the conjunction's matches, so this is sound whether or not every child
// is indexed-exact.
func (a *And) Filter(candidates task.Set, idx *index.Index) task.Set {
	result := candidates
	for _, c := range a.children {
		result = c.Filter(result, idx)
	}
	return result
}

func (a *And) IndexedQuery() bool {
	for _, c := range a.children {
		if !c.IndexedQuery() {
			return false
		}
	}
	return true
}

// And returns a conjunction of a and other.
func (a *And) And(other Matcher) *And { return a.Add(other) }

// Or returns a disjunction of a and other.
func (a *And) Or(other Matcher) *Or { return NewOr(a, other) }

// Negate returns the negation of a.
func (a *And) Negate() *Not { return NewNot(a) }

// Or matches tasks accepted by at least one child.
type Or struct {
	children []Matcher
}

// NewOr builds a disjunction. An empty disjunction matches nothing.
func NewOr(children ...Matcher) *Or {
	return &Or{children: children}
}

// Add appends a child and returns the disjunction for chaining.
func (o *Or) Add(m Matcher) *Or {
	o.children = append(o.children, m)
	return o
}

func (o *Or) Matches(t *task.Task) bool {
	for _, c := range o.children {
		if c.Matches(t) {
			return true
		}
	}
	return false
}

// Filter returns the union of the children's filter results. The union of
// supersets is a superset of the disjunction's matches, but never provably
// exact: a child's filter may retain tasks its own exact test rejects, and
// the union cannot exclude them.
func (o *Or) Filter(candidates task.Set, idx *index.Index) task.Set {
	result := make(task.Set)
	for _, c := range o.children {
		result.Merge(c.Filter(candidates, idx))
	}
	return result
}

// IndexedQuery is always false for a disjunction; see Filter.
func (o *Or) IndexedQuery() bool { return false }

// And returns a conjunction of o and other.
func (o *Or) And(other Matcher) *And { return NewAnd(o, other) }

// Or returns a disjunction of o and other.
func (o *Or) Or(other Matcher) *Or { return o.Add(other) }

// Negate returns the negation of o.
func (o *Or) Negate() *Not { return NewNot(o) }

// Not matches tasks rejected by its inner matcher.
type Not struct {
	inner Matcher
}

// NewNot builds a negation.
func NewNot(inner Matcher) *Not { return &Not{inner: inner} }

func (n *Not) Matches(t *task.Task) bool { return !n.inner.Matches(t) }

// Filter returns the candidate set unchanged. The inner filter returns a
// superset of the inner matches, and the complement of a superset is a
// subset of the true complement: using it would drop valid matches. The
// caller's Matches pass does the narrowing instead.
func (n *Not) Filter(candidates task.Set, _ *index.Index) task.Set {
	return candidates
}

// IndexedQuery is always false for a negation; see Filter.
func (n *Not) IndexedQuery() bool { return false }

// And returns a conjunction of n and other.
func (n *Not) And(other Matcher) *And { return NewAnd(n, other) }

// Or returns a disjunction of n and other.
func (n *Not) Or(other Matcher) *Or { return NewOr(n, other) }

// Negate returns the inner matcher back.
func (n *Not) Negate() Matcher { return n.inner }
