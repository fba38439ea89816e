// Package index maintains the per-plan classification of tasks by model,
// state predicate and owner. The index is updated reactively on every task
// mutation and is never rebuilt by scanning: the only operation that derives
// predicate state from a task is Add. Drifting from the live task state is a
// programming error in the caller, not a recoverable condition.
package index

import "github.com/example/loom/internal/core/task"

// Index classifies the tasks of one plan or overlay.
type Index struct {
	byModel     map[*task.Model]task.Set
	byPredicate map[string]task.Set
	byOwner     map[task.Peer]task.Set
	selfOwned   task.Set
}

// New creates an empty index with a bucket per indexable predicate.
func New() *Index {
	idx := &Index{
		byModel:     make(map[*task.Model]task.Set),
		byPredicate: make(map[string]task.Set, 7),
		byOwner:     make(map[task.Peer]task.Set),
		selfOwned:   make(task.Set),
	}
	for _, name := range task.StatePredicateNames() {
		idx.byPredicate[name] = make(task.Set)
	}
	return idx
}

// Add inserts t into every bucket implied by its current state: one model
// bucket per ancestry entry, one predicate bucket per indexable predicate
// currently true, one owner bucket per owner.
func (idx *Index) Add(t *task.Task) {
	for _, m := range t.Model().Ancestry() {
		set, ok := idx.byModel[m]
		if !ok {
			set = make(task.Set)
			idx.byModel[m] = set
		}
		set.Add(t)
	}
	for _, name := range task.StatePredicateNames() {
		if task.Predicates[name].Test(t) {
			idx.byPredicate[name].Add(t)
		}
	}
	for _, p := range t.Owners() {
		idx.addOwnerBucket(t, p)
	}
	if t.SelfOwned() {
		idx.selfOwned.Add(t)
	}
}

// Remove deletes t from every bucket. Empty model and owner buckets are
// pruned; predicate buckets are kept (they are a fixed vocabulary).
func (idx *Index) Remove(t *task.Task) {
	for _, m := range t.Model().Ancestry() {
		if set, ok := idx.byModel[m]; ok {
			set.Delete(t)
			if set.Len() == 0 {
				delete(idx.byModel, m)
			}
		}
	}
	for _, set := range idx.byPredicate {
		set.Delete(t)
	}
	for _, p := range t.Owners() {
		idx.removeOwnerBucket(t, p)
	}
	idx.selfOwned.Delete(t)
}

// SetState replaces t's membership in the predicate buckets: t is removed
// from every state bucket, then added to the given ones. Called by the task
// on every phase transition.
func (idx *Index) SetState(t *task.Task, predicates ...string) {
	for _, set := range idx.byPredicate {
		set.Delete(t)
	}
	for _, name := range predicates {
		if set, ok := idx.byPredicate[name]; ok {
			set.Add(t)
		}
	}
}

// AddPredicate inserts t into one predicate bucket.
func (idx *Index) AddPredicate(t *task.Task, name string) {
	if set, ok := idx.byPredicate[name]; ok {
		set.Add(t)
	}
}

// RemovePredicate deletes t from one predicate bucket.
func (idx *Index) RemovePredicate(t *task.Task, name string) {
	if set, ok := idx.byPredicate[name]; ok {
		set.Delete(t)
	}
}

// AddOwner records that owner now owns t, and updates the derived self-owned
// bucket from t's current owner set.
func (idx *Index) AddOwner(t *task.Task, owner task.Peer) {
	idx.addOwnerBucket(t, owner)
	if !t.SelfOwned() {
		idx.selfOwned.Delete(t)
	}
}

// RemoveOwner records that owner no longer owns t.
func (idx *Index) RemoveOwner(t *task.Task, owner task.Peer) {
	idx.removeOwnerBucket(t, owner)
	if t.SelfOwned() {
		idx.selfOwned.Add(t)
	}
}

func (idx *Index) addOwnerBucket(t *task.Task, owner task.Peer) {
	set, ok := idx.byOwner[owner]
	if !ok {
		set = make(task.Set)
		idx.byOwner[owner] = set
	}
	set.Add(t)
}

func (idx *Index) removeOwnerBucket(t *task.Task, owner task.Peer) {
	if set, ok := idx.byOwner[owner]; ok {
		set.Delete(t)
		if set.Len() == 0 {
			delete(idx.byOwner, owner)
		}
	}
}

// Merge unions every bucket of other into idx. Used when an overlay's edits
// are folded back into its parent level.
func (idx *Index) Merge(other *Index) {
	for m, set := range other.byModel {
		dst, ok := idx.byModel[m]
		if !ok {
			dst = make(task.Set)
			idx.byModel[m] = dst
		}
		dst.Merge(set)
	}
	for name, set := range other.byPredicate {
		dst, ok := idx.byPredicate[name]
		if !ok {
			dst = make(task.Set)
			idx.byPredicate[name] = dst
		}
		dst.Merge(set)
	}
	for p, set := range other.byOwner {
		dst, ok := idx.byOwner[p]
		if !ok {
			dst = make(task.Set)
			idx.byOwner[p] = dst
		}
		dst.Merge(set)
	}
	idx.selfOwned.Merge(other.selfOwned)
}

// CopyFrom replaces idx's content with a deep copy of source: fresh leaf
// sets, so the copy can diverge without mutating the source. Used when a
// nested overlay is opened from an existing level.
func (idx *Index) CopyFrom(source *Index) {
	idx.byModel = make(map[*task.Model]task.Set, len(source.byModel))
	for m, set := range source.byModel {
		idx.byModel[m] = set.Dup()
	}
	idx.byPredicate = make(map[string]task.Set, len(source.byPredicate))
	for name, set := range source.byPredicate {
		idx.byPredicate[name] = set.Dup()
	}
	idx.byOwner = make(map[task.Peer]task.Set, len(source.byOwner))
	for p, set := range source.byOwner {
		idx.byOwner[p] = set.Dup()
	}
	idx.selfOwned = source.selfOwned.Dup()
}

// Dup returns a deep copy of idx.
func (idx *Index) Dup() *Index {
	out := New()
	out.CopyFrom(idx)
	return out
}

// Bucket accessors used by the matcher algebra. A nil result means the
// bucket is empty.

// ModelSet returns the bucket of tasks conforming to m.
func (idx *Index) ModelSet(m *task.Model) task.Set { return idx.byModel[m] }

// PredicateSet returns the bucket of tasks for which the named indexable
// predicate currently holds.
func (idx *Index) PredicateSet(name string) task.Set { return idx.byPredicate[name] }

// OwnerSet returns the bucket of tasks owned by p.
func (idx *Index) OwnerSet(p task.Peer) task.Set { return idx.byOwner[p] }

// SelfOwnedSet returns the derived bucket of tasks with no remote owner.
func (idx *Index) SelfOwnedSet() task.Set { return idx.selfOwned }
