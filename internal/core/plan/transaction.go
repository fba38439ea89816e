package plan

import (
	"fmt"

	"github.com/example/loom/internal/core/index"
	"github.com/example/loom/internal/core/task"
)

// Transaction is a writable overlay stacked on a plan or on another
// transaction. Tasks visible in it are either created locally or proxies
// shadowing a task from a lower level. The transaction has its own
// classification index and relation graphs: for any pair of tasks both
// present at this level, this level's graph is authoritative for their edge.
type Transaction struct {
	below     Space
	tasks     task.Set
	missions  task.Set
	permanent task.Set
	idx       *index.Index
	graphs    map[task.Relation]*Graph

	// shadowed task (as visible from below) -> proxy at this level
	proxies map[*task.Task]*task.Task

	// edge removals to replay on the level below at commit time
	removed []removedEdge

	committed bool
	discarded bool
}

type removedEdge struct {
	rel           task.Relation
	parent, child *task.Task // representatives below this level
}

// NewTransaction opens an overlay on the given level.
func NewTransaction(below Space) *Transaction {
	tx := &Transaction{
		below:     below,
		tasks:     make(task.Set),
		missions:  make(task.Set),
		permanent: make(task.Set),
		idx:       index.New(),
		graphs:    make(map[task.Relation]*Graph, len(task.Relations())),
		proxies:   make(map[*task.Task]*task.Task),
	}
	for _, rel := range task.Relations() {
		tx.graphs[rel] = NewGraph(rel)
	}
	return tx
}

// Add inserts a task created for this overlay. The task must not belong to
// any plan yet; use Wrap to edit a task from a lower level.
func (tx *Transaction) Add(t *task.Task) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	if tx.tasks.Include(t) {
		return nil
	}
	if t.Plan() != nil {
		return fmt.Errorf("task %s already belongs to a plan; wrap it instead", t.ID())
	}
	tx.tasks.Add(t)
	t.Attach(tx, tx.idx)
	tx.idx.Add(t)
	return nil
}

// Wrap returns this level's proxy for t, creating it if needed. t must be
// visible somewhere below this level; edges between t and tasks already
// proxied here are imported so that this level stays authoritative for every
// fully present pair.
func (tx *Transaction) Wrap(t *task.Task) (*task.Task, error) {
	if err := tx.checkOpen(); err != nil {
		return nil, err
	}
	if tx.tasks.Include(t) {
		return t, nil
	}
	rep, ok := ResolveTop(tx.below, t)
	if !ok {
		return nil, fmt.Errorf("task %s is not visible below this transaction", t.ID())
	}
	if proxy, ok := tx.proxies[rep]; ok {
		return proxy, nil
	}

	proxy := rep.Proxy()
	tx.tasks.Add(proxy)
	proxy.Attach(tx, tx.idx)
	tx.idx.Add(proxy)
	tx.proxies[rep] = proxy

	// import edges to co-proxied neighbors
	for _, rel := range task.Relations() {
		g := tx.graphs[rel]
		LogicalEachParent(tx.below, rep, rel, func(parent *task.Task, data any) bool {
			if pp, ok := tx.proxies[parent]; ok {
				g.AddEdge(pp, proxy, data)
			}
			return true
		})
		LogicalEachChild(tx.below, rep, rel, func(child *task.Task, data any) bool {
			if pc, ok := tx.proxies[child]; ok {
				g.AddEdge(proxy, pc, data)
			}
			return true
		})
	}
	return proxy, nil
}

// MayWrap returns the local view of t without creating a proxy: t itself if
// local, the existing proxy if one shadows t, nil otherwise.
func (tx *Transaction) MayWrap(t *task.Task) *task.Task {
	if tx.tasks.Include(t) {
		return t
	}
	if rep, ok := ResolveTop(tx.below, t); ok {
		if proxy, ok := tx.proxies[rep]; ok {
			return proxy
		}
	}
	return nil
}

// Unwrap returns the task t shadows, or t itself if it is not a proxy.
func (tx *Transaction) Unwrap(t *task.Task) *task.Task {
	if s := t.Shadowed(); s != nil {
		return s
	}
	return t
}

// HasProxyFor reports whether this level shadows t.
func (tx *Transaction) HasProxyFor(t *task.Task) bool {
	_, ok := tx.proxies[t]
	return ok
}

// Remove deletes a local task (or proxy) from this level only.
func (tx *Transaction) Remove(t *task.Task) {
	if !tx.tasks.Include(t) {
		return
	}
	for _, g := range tx.graphs {
		g.RemoveVertex(t)
	}
	tx.tasks.Delete(t)
	tx.missions.Delete(t)
	tx.permanent.Delete(t)
	tx.idx.Remove(t)
	if s := t.Shadowed(); s != nil {
		delete(tx.proxies, s)
	}
	t.Detach()
}

// AddEdge inserts a parent->child edge at this level, wrapping endpoints
// visible below as needed.
func (tx *Transaction) AddEdge(parent, child *task.Task, rel task.Relation, data any) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	g, ok := tx.graphs[rel]
	if !ok {
		return fmt.Errorf("unknown relation %q", rel)
	}
	lp, err := tx.wrapEndpoint(parent)
	if err != nil {
		return err
	}
	lc, err := tx.wrapEndpoint(child)
	if err != nil {
		return err
	}
	g.AddEdge(lp, lc, data)
	return nil
}

// RemoveEdge deletes a parent->child edge at this level. When both endpoints
// shadow lower tasks, the lower edge is now shadowed by its absence here,
// and the removal is replayed below on commit.
func (tx *Transaction) RemoveEdge(parent, child *task.Task, rel task.Relation) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	g, ok := tx.graphs[rel]
	if !ok {
		return fmt.Errorf("unknown relation %q", rel)
	}
	lp, err := tx.wrapEndpoint(parent)
	if err != nil {
		return err
	}
	lc, err := tx.wrapEndpoint(child)
	if err != nil {
		return err
	}
	g.RemoveEdge(lp, lc)
	if sp, sc := lp.Shadowed(), lc.Shadowed(); sp != nil && sc != nil {
		tx.removed = append(tx.removed, removedEdge{rel: rel, parent: sp, child: sc})
	}
	return nil
}

func (tx *Transaction) wrapEndpoint(t *task.Task) (*task.Task, error) {
	if tx.tasks.Include(t) {
		return t, nil
	}
	return tx.Wrap(t)
}

// AddMission marks t (wrapped as needed) as a mission at this level.
func (tx *Transaction) AddMission(t *task.Task) error {
	local, err := tx.wrapMarkTarget(t)
	if err != nil {
		return err
	}
	tx.missions.Add(local)
	return nil
}

// AddPermanent marks t (wrapped as needed) permanent at this level.
func (tx *Transaction) AddPermanent(t *task.Task) error {
	local, err := tx.wrapMarkTarget(t)
	if err != nil {
		return err
	}
	tx.permanent.Add(local)
	return nil
}

func (tx *Transaction) wrapMarkTarget(t *task.Task) (*task.Task, error) {
	if err := tx.checkOpen(); err != nil {
		return nil, err
	}
	if tx.tasks.Include(t) {
		return t, nil
	}
	if t.Plan() == nil {
		if err := tx.Add(t); err != nil {
			return nil, err
		}
		return t, nil
	}
	return tx.Wrap(t)
}

// Commit folds this overlay's edits into the level below: new tasks move
// down (their classification folded in through an index merge), proxied
// state changes are replayed on the shadowed tasks, edges are re-stated and
// recorded removals replayed. The transaction is closed afterwards.
func (tx *Transaction) Commit() error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	below, ok := tx.below.(editable)
	if !ok {
		return fmt.Errorf("level below this transaction is not editable")
	}

	// move locally created tasks down, then fold their classification in
	subIdx := index.New()
	for t := range tx.tasks {
		if t.Shadowed() != nil {
			continue
		}
		t.Detach()
		below.adopt(t)
		subIdx.Add(t)
	}
	below.TaskIndex().Merge(subIdx)

	// replay proxied edits on the shadowed tasks
	for rep, proxy := range tx.proxies {
		if err := replayState(rep, proxy); err != nil {
			return err
		}
		syncOwners(rep, proxy)
	}

	// marks
	for t := range tx.missions {
		if err := below.AddMission(tx.downRep(t)); err != nil {
			return err
		}
	}
	for t := range tx.permanent {
		if err := below.AddPermanent(tx.downRep(t)); err != nil {
			return err
		}
	}

	// edges
	for _, e := range tx.removed {
		if err := below.RemoveEdge(e.parent, e.child, e.rel); err != nil {
			return err
		}
	}
	for rel, g := range tx.graphs {
		var err error
		g.eachEdge(func(parent, child *task.Task, data any) bool {
			err = below.AddEdge(tx.downRep(parent), tx.downRep(child), rel, data)
			return err == nil
		})
		if err != nil {
			return err
		}
	}

	tx.committed = true
	return nil
}

// Discard drops every edit of this overlay.
func (tx *Transaction) Discard() error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	for t := range tx.tasks {
		t.Detach()
	}
	tx.discarded = true
	return nil
}

// downRep maps a local task to its representative below: the shadowed task
// for proxies, the task itself for tasks that were just moved down.
func (tx *Transaction) downRep(t *task.Task) *task.Task {
	if s := t.Shadowed(); s != nil {
		return s
	}
	return t
}

func (tx *Transaction) checkOpen() error {
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}
	if tx.discarded {
		return fmt.Errorf("transaction already discarded")
	}
	return nil
}

// editable is the mutable surface Commit needs from the level below. Both
// *Plan and *Transaction provide it.
type editable interface {
	Space
	adopt(t *task.Task)
	AddMission(t *task.Task) error
	AddPermanent(t *task.Task) error
	AddEdge(parent, child *task.Task, rel task.Relation, data any) error
	RemoveEdge(parent, child *task.Task, rel task.Relation) error
}

// adopt inserts t structurally without indexing it; the caller folds the
// classification in via an index merge.
func (p *Plan) adopt(t *task.Task) {
	p.tasks.Add(t)
	t.Attach(p, p.idx)
}

func (tx *Transaction) adopt(t *task.Task) {
	tx.tasks.Add(t)
	t.Attach(tx, tx.idx)
}

// eachEdge enumerates every edge of the graph.
func (g *Graph) eachEdge(fn func(parent, child *task.Task, data any) bool) {
	for p, fwd := range g.children {
		for c, data := range fwd {
			if !fn(p, c, data) {
				return
			}
		}
	}
}

// replayState walks rep through the transitions needed to reach the
// proxy's phase and outcome, so that rep's index is updated on the way.
func replayState(rep, proxy *task.Task) error {
	steps := []struct {
		target task.Phase
		apply  func(*task.Task) error
	}{
		{task.Starting, (*task.Task).Start},
		{task.Running, (*task.Task).Started},
		{task.Finishing, (*task.Task).Finish},
	}
	target := proxy.CurrentPhase()
	for _, step := range steps {
		if rep.CurrentPhase() >= target || rep.CurrentPhase() == task.Finished {
			break
		}
		if step.target > target {
			break
		}
		if rep.CurrentPhase() >= step.target {
			continue
		}
		if err := step.apply(rep); err != nil {
			return err
		}
	}
	if target == task.Finished && rep.CurrentPhase() != task.Finished {
		// reach a stoppable phase first
		if rep.CurrentPhase() == task.Pending {
			if err := rep.Start(); err != nil {
				return err
			}
		}
		if rep.CurrentPhase() == task.Starting {
			if err := rep.Started(); err != nil {
				return err
			}
		}
		outcome := task.OutcomeNone
		if proxy.Success() {
			outcome = task.OutcomeSuccess
		} else if proxy.Failed() {
			outcome = task.OutcomeFailed
		}
		if err := rep.Stopped(outcome); err != nil {
			return err
		}
	}
	return nil
}

// syncOwners aligns rep's owner set with the proxy's.
func syncOwners(rep, proxy *task.Task) {
	for _, p := range rep.Owners() {
		if !proxy.OwnedBy(p) {
			rep.RemoveOwner(p)
		}
	}
	for _, p := range proxy.Owners() {
		rep.AddOwner(p)
	}
}

// Space implementation.

func (tx *Transaction) AllTasks() task.Set      { return tx.tasks }
func (tx *Transaction) TaskIndex() *index.Index { return tx.idx }

func (tx *Transaction) Graph(rel task.Relation) *Graph { return tx.graphs[rel] }

func (tx *Transaction) EachTask(fn func(*task.Task) bool) { tx.tasks.Each(fn) }

func (tx *Transaction) IsMission(t *task.Task) bool {
	if tx.missions.Include(t) {
		return true
	}
	if s := t.Shadowed(); s != nil {
		return tx.below.IsMission(s)
	}
	if !tx.tasks.Include(t) {
		return tx.below.IsMission(t)
	}
	return false
}

func (tx *Transaction) IsPermanent(t *task.Task) bool {
	if tx.permanent.Include(t) {
		return true
	}
	if s := t.Shadowed(); s != nil {
		return tx.below.IsPermanent(s)
	}
	if !tx.tasks.Include(t) {
		return tx.below.IsPermanent(t)
	}
	return false
}

func (tx *Transaction) Below() Space { return tx.below }

func (tx *Transaction) ProxyFor(t *task.Task) (*task.Task, bool) {
	proxy, ok := tx.proxies[t]
	return proxy, ok
}

// task.Space implementation: edge enumeration from a task's point of view
// sees the flattened stack, proxies taking precedence.

func (tx *Transaction) EachParentIn(t *task.Task, rel task.Relation, fn func(parent *task.Task, data any) bool) {
	LogicalEachParent(tx, t, rel, fn)
}

func (tx *Transaction) EachChildIn(t *task.Task, rel task.Relation, fn func(child *task.Task, data any) bool) {
	LogicalEachChild(tx, t, rel, fn)
}
