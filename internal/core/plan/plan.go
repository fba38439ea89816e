// Package plan holds the plan graph the query engine resolves against: the
// task set, one relation graph per relation kind, the classification index,
// and transactional overlays stacked on top of a base plan.
//
// Everything here is single-threaded by contract: all plan mutation and all
// query resolution happen on the same execution cycle, so there is no
// internal locking.
package plan

import (
	"fmt"

	"github.com/example/loom/internal/core/index"
	"github.com/example/loom/internal/core/task"
)

// Space is one level of a transaction stack: a base plan or an overlay.
type Space interface {
	// AllTasks returns the identity set of tasks known at this level.
	// Callers must not mutate the returned set.
	AllTasks() task.Set
	// TaskIndex returns this level's classification index.
	TaskIndex() *index.Index
	// Graph returns this level's graph for the given relation.
	Graph(rel task.Relation) *Graph
	// EachTask enumerates the tasks known at this level.
	EachTask(fn func(*task.Task) bool)
	// IsMission reports whether t is marked as a mission at this level.
	IsMission(t *task.Task) bool
	// IsPermanent reports whether t is marked permanent at this level.
	IsPermanent(t *task.Task) bool
	// Below returns the level under this one, or nil for a base plan.
	Below() Space
	// ProxyFor returns this level's proxy shadowing t, if any.
	ProxyFor(t *task.Task) (*task.Task, bool)
}

// Plan is a base plan: the bottom level of every transaction stack.
type Plan struct {
	id        string
	tasks     task.Set
	missions  task.Set
	permanent task.Set
	idx       *index.Index
	graphs    map[task.Relation]*Graph
}

// New creates an empty plan.
func New(id string) *Plan {
	p := &Plan{
		id:        id,
		tasks:     make(task.Set),
		missions:  make(task.Set),
		permanent: make(task.Set),
		idx:       index.New(),
		graphs:    make(map[task.Relation]*Graph, len(task.Relations())),
	}
	for _, rel := range task.Relations() {
		p.graphs[rel] = NewGraph(rel)
	}
	return p
}

// ID returns the plan identifier.
func (p *Plan) ID() string { return p.id }

// Add inserts t into the plan and indexes it.
func (p *Plan) Add(t *task.Task) error {
	if t.Plan() != nil {
		return fmt.Errorf("task %s already belongs to a plan", t.ID())
	}
	p.tasks.Add(t)
	t.Attach(p, p.idx)
	p.idx.Add(t)
	return nil
}

// Remove deletes t from the plan: all its edges, all its index entries, all
// its marks.
func (p *Plan) Remove(t *task.Task) {
	if !p.tasks.Include(t) {
		return
	}
	for _, g := range p.graphs {
		g.RemoveVertex(t)
	}
	p.tasks.Delete(t)
	p.missions.Delete(t)
	p.permanent.Delete(t)
	p.idx.Remove(t)
	t.Detach()
}

// AddMission inserts t (if needed) and marks it as a mission.
func (p *Plan) AddMission(t *task.Task) error {
	if !p.tasks.Include(t) {
		if err := p.Add(t); err != nil {
			return err
		}
	}
	p.missions.Add(t)
	return nil
}

// AddPermanent inserts t (if needed) and marks it permanent.
func (p *Plan) AddPermanent(t *task.Task) error {
	if !p.tasks.Include(t) {
		if err := p.Add(t); err != nil {
			return err
		}
	}
	p.permanent.Add(t)
	return nil
}

// Unmark clears t's mission and permanent marks without removing it.
func (p *Plan) Unmark(t *task.Task) {
	p.missions.Delete(t)
	p.permanent.Delete(t)
}

// AddEdge inserts a parent->child edge in the given relation. Both tasks
// must already be in the plan.
func (p *Plan) AddEdge(parent, child *task.Task, rel task.Relation, data any) error {
	if !p.tasks.Include(parent) {
		return fmt.Errorf("parent task %s is not in plan %s", parent.ID(), p.id)
	}
	if !p.tasks.Include(child) {
		return fmt.Errorf("child task %s is not in plan %s", child.ID(), p.id)
	}
	g, ok := p.graphs[rel]
	if !ok {
		return fmt.Errorf("unknown relation %q", rel)
	}
	g.AddEdge(parent, child, data)
	return nil
}

// RemoveEdge deletes a parent->child edge in the given relation.
func (p *Plan) RemoveEdge(parent, child *task.Task, rel task.Relation) error {
	g, ok := p.graphs[rel]
	if !ok {
		return fmt.Errorf("unknown relation %q", rel)
	}
	g.RemoveEdge(parent, child)
	return nil
}

// Space implementation.

func (p *Plan) AllTasks() task.Set      { return p.tasks }
func (p *Plan) TaskIndex() *index.Index { return p.idx }

func (p *Plan) Graph(rel task.Relation) *Graph { return p.graphs[rel] }

func (p *Plan) EachTask(fn func(*task.Task) bool) { p.tasks.Each(fn) }

func (p *Plan) IsMission(t *task.Task) bool   { return p.missions.Include(t) }
func (p *Plan) IsPermanent(t *task.Task) bool { return p.permanent.Include(t) }

func (p *Plan) Below() Space { return nil }

func (p *Plan) ProxyFor(*task.Task) (*task.Task, bool) { return nil, false }

// task.Space implementation: edge enumeration scoped to this level.

func (p *Plan) EachParentIn(t *task.Task, rel task.Relation, fn func(parent *task.Task, data any) bool) {
	if g, ok := p.graphs[rel]; ok {
		g.EachParent(t, fn)
	}
}

func (p *Plan) EachChildIn(t *task.Task, rel task.Relation, fn func(child *task.Task, data any) bool) {
	if g, ok := p.graphs[rel]; ok {
		g.EachChild(t, fn)
	}
}
