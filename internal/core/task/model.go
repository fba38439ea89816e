package task

import "sort"

// Model is a named task type. Models form single-parent ancestry chains:
// a task conforms to its own model and to every ancestor of it.
// Each model carries a table of event names its tasks can emit; submodels
// inherit the events of their parent.
type Model struct {
	name   string
	parent *Model
	events map[string]struct{}
}

// Base event names registered on every root model.
var baseEvents = []string{"start", "stop", "success", "failed"}

// NewModel creates a root model with the base event table.
func NewModel(name string) *Model {
	m := &Model{
		name:   name,
		events: make(map[string]struct{}, len(baseEvents)),
	}
	for _, ev := range baseEvents {
		m.events[ev] = struct{}{}
	}
	return m
}

// NewSubmodel creates a model whose ancestry chain extends m.
func (m *Model) NewSubmodel(name string) *Model {
	return &Model{
		name:   name,
		parent: m,
		events: make(map[string]struct{}),
	}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Parent returns the direct ancestor, or nil for a root model.
func (m *Model) Parent() *Model { return m.parent }

// WithEvents registers additional event names and returns m for chaining.
func (m *Model) WithEvents(names ...string) *Model {
	for _, n := range names {
		m.events[n] = struct{}{}
	}
	return m
}

// HasEvent reports whether the event name is declared on m or an ancestor.
func (m *Model) HasEvent(name string) bool {
	for cur := m; cur != nil; cur = cur.parent {
		if _, ok := cur.events[name]; ok {
			return true
		}
	}
	return false
}

// EventNames returns all declared event names, inherited included, sorted.
func (m *Model) EventNames() []string {
	seen := make(map[string]struct{})
	for cur := m; cur != nil; cur = cur.parent {
		for n := range cur.events {
			seen[n] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ancestry returns the ancestry chain, m first, root model last.
func (m *Model) Ancestry() []*Model {
	var chain []*Model
	for cur := m; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	return chain
}

// Conforms reports whether other appears in m's ancestry chain.
func (m *Model) Conforms(other *Model) bool {
	for cur := m; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}
