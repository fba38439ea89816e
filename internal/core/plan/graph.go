package plan

import "github.com/example/loom/internal/core/task"

// Graph is one relation graph of a plan level: a directed graph with
// optional per-edge data, kept in both directions so that reversed traversal
// (parent lookup, root computation) costs the same as forward traversal.
type Graph struct {
	rel      task.Relation
	children map[*task.Task]map[*task.Task]any // parent -> child -> edge data
	parents  map[*task.Task]map[*task.Task]any // child -> parent -> edge data
}

// NewGraph creates an empty graph for the given relation.
func NewGraph(rel task.Relation) *Graph {
	return &Graph{
		rel:      rel,
		children: make(map[*task.Task]map[*task.Task]any),
		parents:  make(map[*task.Task]map[*task.Task]any),
	}
}

// Relation returns the relation this graph implements.
func (g *Graph) Relation() task.Relation { return g.rel }

// AddEdge inserts or updates the parent->child edge.
func (g *Graph) AddEdge(parent, child *task.Task, data any) {
	fwd, ok := g.children[parent]
	if !ok {
		fwd = make(map[*task.Task]any)
		g.children[parent] = fwd
	}
	fwd[child] = data

	rev, ok := g.parents[child]
	if !ok {
		rev = make(map[*task.Task]any)
		g.parents[child] = rev
	}
	rev[parent] = data
}

// RemoveEdge deletes the parent->child edge if present.
func (g *Graph) RemoveEdge(parent, child *task.Task) {
	if fwd, ok := g.children[parent]; ok {
		delete(fwd, child)
		if len(fwd) == 0 {
			delete(g.children, parent)
		}
	}
	if rev, ok := g.parents[child]; ok {
		delete(rev, parent)
		if len(rev) == 0 {
			delete(g.parents, child)
		}
	}
}

// HasEdge reports whether the parent->child edge exists.
func (g *Graph) HasEdge(parent, child *task.Task) bool {
	_, ok := g.children[parent][child]
	return ok
}

// EdgeData returns the data attached to the parent->child edge.
func (g *Graph) EdgeData(parent, child *task.Task) (any, bool) {
	data, ok := g.children[parent][child]
	return data, ok
}

// EachChild enumerates t's direct children. Returning false stops.
func (g *Graph) EachChild(t *task.Task, fn func(child *task.Task, data any) bool) {
	for c, data := range g.children[t] {
		if !fn(c, data) {
			return
		}
	}
}

// EachParent enumerates t's direct parents. Returning false stops.
func (g *Graph) EachParent(t *task.Task, fn func(parent *task.Task, data any) bool) {
	for p, data := range g.parents[t] {
		if !fn(p, data) {
			return
		}
	}
}

// RemoveVertex deletes every edge touching t.
func (g *Graph) RemoveVertex(t *task.Task) {
	for c := range g.children[t] {
		if rev, ok := g.parents[c]; ok {
			delete(rev, t)
			if len(rev) == 0 {
				delete(g.parents, c)
			}
		}
	}
	delete(g.children, t)
	for p := range g.parents[t] {
		if fwd, ok := g.children[p]; ok {
			delete(fwd, t)
			if len(fwd) == 0 {
				delete(g.children, p)
			}
		}
	}
	delete(g.parents, t)
}

// ReachableFrom returns the generated subgraph of seed: every task reachable
// from it through forward edges, seed included. Iterative depth-first visit.
func (g *Graph) ReachableFrom(seed *task.Task) task.Set {
	visited := task.NewSet(seed)
	stack := []*task.Task{seed}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := range g.children[cur] {
			if !visited.Include(c) {
				visited.Add(c)
				stack = append(stack, c)
			}
		}
	}
	return visited
}

// EachDFSReverse runs a depth-first visit over the reversed graph from seed,
// seed excluded. Returning false from fn stops the visit.
func (g *Graph) EachDFSReverse(seed *task.Task, fn func(ancestor *task.Task) bool) {
	visited := task.NewSet(seed)
	stack := []*task.Task{seed}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for p := range g.parents[cur] {
			if visited.Include(p) {
				continue
			}
			visited.Add(p)
			if !fn(p) {
				return
			}
			stack = append(stack, p)
		}
	}
}

// Dup returns a copy of the graph sharing the task objects but not the
// adjacency maps.
func (g *Graph) Dup() *Graph {
	out := NewGraph(g.rel)
	for p, fwd := range g.children {
		for c, data := range fwd {
			out.AddEdge(p, c, data)
		}
	}
	return out
}
