package match

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/example/loom/internal/core/index"
	"github.com/example/loom/internal/core/task"
)

// relationConstraint is one required parent or child: the neighbor must
// exist in the given relation (any relation when empty), match the
// sub-matcher, and carry edge data accepted by the data predicate.
type relationConstraint struct {
	rel     task.Relation
	child   bool
	matcher Matcher
	data    func(any) bool
}

// TaskMatcher is the leaf of the algebra: a mutably-built, then read-only
// description of a task shape. All builder methods return the matcher for
// chaining. Demanding a predicate both to hold and not to hold is a
// construction-time programming error and panics immediately.
type TaskMatcher struct {
	models    []*task.Model
	args      map[string]any
	required  map[string]struct{}
	forbidden map[string]struct{}

	owners    []task.Peer
	selfOwned *bool

	mission   *bool
	permanent *bool

	relations []relationConstraint
}

// NewTaskMatcher creates a matcher accepting every task.
func NewTaskMatcher() *TaskMatcher {
	return &TaskMatcher{
		args:      make(map[string]any),
		required:  make(map[string]struct{}),
		forbidden: make(map[string]struct{}),
	}
}

// WithModel requires the task's ancestry to include m.
func (m *TaskMatcher) WithModel(model *task.Model) *TaskMatcher {
	m.models = append(m.models, model)
	return m
}

// WithArguments requires the given argument values, on top of any already
// required.
func (m *TaskMatcher) WithArguments(args map[string]any) *TaskMatcher {
	for k, v := range args {
		m.args[k] = v
	}
	return m
}

// WithArgument requires one argument value.
func (m *TaskMatcher) WithArgument(key string, value any) *TaskMatcher {
	m.args[key] = value
	return m
}

// WithPredicate requires the named instance predicate to hold.
func (m *TaskMatcher) WithPredicate(name string) *TaskMatcher {
	if _, ok := task.Predicates[name]; !ok {
		panic(fmt.Sprintf("unknown task predicate %q", name))
	}
	if _, ok := m.forbidden[name]; ok {
		panic(fmt.Sprintf("predicate %q required both to hold and not to hold", name))
	}
	m.required[name] = struct{}{}
	return m
}

// WithoutPredicate requires the named instance predicate not to hold.
func (m *TaskMatcher) WithoutPredicate(name string) *TaskMatcher {
	if _, ok := task.Predicates[name]; !ok {
		panic(fmt.Sprintf("unknown task predicate %q", name))
	}
	if _, ok := m.required[name]; ok {
		panic(fmt.Sprintf("predicate %q required both to hold and not to hold", name))
	}
	m.forbidden[name] = struct{}{}
	return m
}

// State predicate shorthands, one pair per vocabulary entry.

func (m *TaskMatcher) Pending() *TaskMatcher      { return m.WithPredicate("pending") }
func (m *TaskMatcher) NotPending() *TaskMatcher   { return m.WithoutPredicate("pending") }
func (m *TaskMatcher) Starting() *TaskMatcher     { return m.WithPredicate("starting") }
func (m *TaskMatcher) NotStarting() *TaskMatcher  { return m.WithoutPredicate("starting") }
func (m *TaskMatcher) Running() *TaskMatcher      { return m.WithPredicate("running") }
func (m *TaskMatcher) NotRunning() *TaskMatcher   { return m.WithoutPredicate("running") }
func (m *TaskMatcher) Finishing() *TaskMatcher    { return m.WithPredicate("finishing") }
func (m *TaskMatcher) NotFinishing() *TaskMatcher { return m.WithoutPredicate("finishing") }
func (m *TaskMatcher) Finished() *TaskMatcher     { return m.WithPredicate("finished") }
func (m *TaskMatcher) NotFinished() *TaskMatcher  { return m.WithoutPredicate("finished") }
func (m *TaskMatcher) Success() *TaskMatcher      { return m.WithPredicate("success") }
func (m *TaskMatcher) NotSuccess() *TaskMatcher   { return m.WithoutPredicate("success") }
func (m *TaskMatcher) Failed() *TaskMatcher       { return m.WithPredicate("failed") }
func (m *TaskMatcher) NotFailed() *TaskMatcher    { return m.WithoutPredicate("failed") }

func (m *TaskMatcher) Abstract() *TaskMatcher      { return m.WithPredicate("abstract") }
func (m *TaskMatcher) NotAbstract() *TaskMatcher   { return m.WithoutPredicate("abstract") }
func (m *TaskMatcher) Executable() *TaskMatcher    { return m.WithPredicate("executable") }
func (m *TaskMatcher) NotExecutable() *TaskMatcher { return m.WithoutPredicate("executable") }

// OwnedBy requires p among the task's owners.
func (m *TaskMatcher) OwnedBy(p task.Peer) *TaskMatcher {
	m.owners = append(m.owners, p)
	return m
}

// SelfOwned requires the task to have no remote owner.
func (m *TaskMatcher) SelfOwned() *TaskMatcher {
	v := true
	m.selfOwned = &v
	return m
}

// NotSelfOwned requires at least one remote owner.
func (m *TaskMatcher) NotSelfOwned() *TaskMatcher {
	v := false
	m.selfOwned = &v
	return m
}

// Mission requires the task to be marked as a mission in its plan. This is
// a plan-scoped predicate: it is never tracked by the index.
func (m *TaskMatcher) Mission() *TaskMatcher {
	v := true
	m.mission = &v
	return m
}

// NotMission requires the task not to be a mission.
func (m *TaskMatcher) NotMission() *TaskMatcher {
	v := false
	m.mission = &v
	return m
}

// Permanent requires the task to be marked permanent in its plan.
func (m *TaskMatcher) Permanent() *TaskMatcher {
	v := true
	m.permanent = &v
	return m
}

// NotPermanent requires the task not to be marked permanent.
func (m *TaskMatcher) NotPermanent() *TaskMatcher {
	v := false
	m.permanent = &v
	return m
}

// WithChild requires a child in the given relation (any relation when
// empty) matching sub, with edge data accepted by dataPred (nil accepts
// anything).
func (m *TaskMatcher) WithChild(sub Matcher, rel task.Relation, dataPred func(any) bool) *TaskMatcher {
	m.relations = append(m.relations, relationConstraint{rel: rel, child: true, matcher: sub, data: dataPred})
	return m
}

// WithParent requires a parent in the given relation matching sub.
func (m *TaskMatcher) WithParent(sub Matcher, rel task.Relation, dataPred func(any) bool) *TaskMatcher {
	m.relations = append(m.relations, relationConstraint{rel: rel, child: false, matcher: sub, data: dataPred})
	return m
}

// Combinators.

// And returns a conjunction of m and other.
func (m *TaskMatcher) And(other Matcher) *And { return NewAnd(m, other) }

// Or returns a disjunction of m and other.
func (m *TaskMatcher) Or(other Matcher) *Or { return NewOr(m, other) }

// Negate returns the negation of m.
func (m *TaskMatcher) Negate() *Not { return NewNot(m) }

// Matches walks the whole structure: model containment, argument equality,
// predicate calls, ownership, plan-scoped marks, then existential relation
// constraints.
func (m *TaskMatcher) Matches(t *task.Task) bool {
	for _, model := range m.models {
		if !t.Model().Conforms(model) {
			return false
		}
	}
	for k, want := range m.args {
		got, ok := t.Argument(k)
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	for name := range m.required {
		if !task.Predicates[name].Test(t) {
			return false
		}
	}
	for name := range m.forbidden {
		if task.Predicates[name].Test(t) {
			return false
		}
	}
	for _, p := range m.owners {
		if !t.OwnedBy(p) {
			return false
		}
	}
	if m.selfOwned != nil && t.SelfOwned() != *m.selfOwned {
		return false
	}
	if m.mission != nil {
		sp := t.Plan()
		if sp == nil || sp.IsMission(t) != *m.mission {
			return false
		}
	}
	if m.permanent != nil {
		sp := t.Plan()
		if sp == nil || sp.IsPermanent(t) != *m.permanent {
			return false
		}
	}
	for _, rc := range m.relations {
		if !m.matchRelation(t, rc) {
			return false
		}
	}
	return true
}

func (m *TaskMatcher) matchRelation(t *task.Task, rc relationConstraint) bool {
	found := false
	visit := func(neighbor *task.Task, data any) bool {
		if rc.data != nil && !rc.data(data) {
			return true
		}
		if rc.matcher != nil && !rc.matcher.Matches(neighbor) {
			return true
		}
		found = true
		return false
	}
	if rc.child {
		t.EachChild(rc.rel, visit)
	} else {
		t.EachParent(rc.rel, visit)
	}
	return found
}

// IndexedQuery reports whether every constraint maps exactly onto an index
// bucket: no relation or argument constraints, no plan-scoped marks, and
// only predicates of the indexed vocabulary.
func (m *TaskMatcher) IndexedQuery() bool {
	if len(m.args) > 0 || len(m.relations) > 0 {
		return false
	}
	if m.mission != nil || m.permanent != nil {
		return false
	}
	for name := range m.required {
		if !task.IndexedPredicate(name) {
			return false
		}
	}
	for name := range m.forbidden {
		if !task.IndexedPredicate(name) {
			return false
		}
	}
	return true
}

// Filter narrows candidates using index buckets: positive buckets (models,
// owners, required indexed predicates) are intersected scanning the smallest
// first; forbidden indexed predicate buckets are subtracted. Constraints
// without a bucket are simply not applied here; when IndexedQuery is false
// the caller re-applies Matches afterwards.
func (m *TaskMatcher) Filter(candidates task.Set, idx *index.Index) task.Set {
	var positive []task.Set
	empty := false

	for _, model := range m.models {
		set := idx.ModelSet(model)
		if set == nil || set.Len() == 0 {
			empty = true
			break
		}
		positive = append(positive, set)
	}
	if !empty {
		for name := range m.required {
			if !task.IndexedPredicate(name) {
				continue
			}
			set := idx.PredicateSet(name)
			if set == nil || set.Len() == 0 {
				empty = true
				break
			}
			positive = append(positive, set)
		}
	}
	if !empty {
		for _, p := range m.owners {
			// an owner absent from the index is not an error: the
			// positive bucket is empty, so the result is too
			set := idx.OwnerSet(p)
			if set == nil || set.Len() == 0 {
				empty = true
				break
			}
			positive = append(positive, set)
		}
	}
	if !empty && m.selfOwned != nil && *m.selfOwned {
		positive = append(positive, idx.SelfOwnedSet())
	}
	if empty {
		return make(task.Set)
	}

	var negative []task.Set
	for name := range m.forbidden {
		if !task.IndexedPredicate(name) {
			continue
		}
		if set := idx.PredicateSet(name); set != nil {
			negative = append(negative, set)
		}
	}
	if m.selfOwned != nil && !*m.selfOwned {
		negative = append(negative, idx.SelfOwnedSet())
	}

	if len(positive) == 0 && len(negative) == 0 {
		return candidates
	}

	// scan the smallest positive bucket, testing membership in the rest
	sort.Slice(positive, func(i, j int) bool { return positive[i].Len() < positive[j].Len() })
	scan := candidates
	rest := positive
	fromBucket := false
	if len(positive) > 0 && positive[0].Len() < candidates.Len() {
		scan = positive[0]
		rest = positive[1:]
		fromBucket = true
	}

	result := make(task.Set)
	for t := range scan {
		if fromBucket && !candidates.Include(t) {
			continue
		}
		keep := true
		for _, set := range rest {
			if !set.Include(t) {
				keep = false
				break
			}
		}
		if keep {
			for _, set := range negative {
				if set.Include(t) {
					keep = false
					break
				}
			}
		}
		if keep {
			result.Add(t)
		}
	}
	return result
}
