package match

import "github.com/example/loom/internal/core/task"

// EventKind selects how an EventMatcher resolves event names.
type EventKind int

// Event matching modes.
const (
	// AnyEvent accepts every event declared on the task's model.
	AnyEvent EventKind = iota
	// NamedEvent accepts exactly one event name.
	NamedEvent
	// PredicateEvent accepts event names for which the name predicate holds.
	PredicateEvent
)

// EventMatcher matches (task, event name) pairs. Event names are resolved
// against the static event table of the task's model: a name the model never
// declared does not match, whatever the mode.
type EventMatcher struct {
	kind EventKind
	name string
	pred func(string) bool

	// optional constraint on the task the event belongs to
	from Matcher
}

// MatchAnyEvent accepts every declared event.
func MatchAnyEvent() *EventMatcher {
	return &EventMatcher{kind: AnyEvent}
}

// MatchEvent accepts the single named event.
func MatchEvent(name string) *EventMatcher {
	return &EventMatcher{kind: NamedEvent, name: name}
}

// MatchEventFunc accepts event names satisfying pred.
func MatchEventFunc(pred func(string) bool) *EventMatcher {
	return &EventMatcher{kind: PredicateEvent, pred: pred}
}

// From constrains the owning task and returns the matcher for chaining.
func (em *EventMatcher) From(m Matcher) *EventMatcher {
	em.from = m
	return em
}

// Matches reports whether the named event of t is accepted.
func (em *EventMatcher) Matches(t *task.Task, event string) bool {
	if !t.Model().HasEvent(event) {
		return false
	}
	if em.from != nil && !em.from.Matches(t) {
		return false
	}
	switch em.kind {
	case AnyEvent:
		return true
	case NamedEvent:
		return em.name == event
	case PredicateEvent:
		return em.pred(event)
	}
	return false
}

// ResolveNames returns the event names of the model this matcher accepts.
func (em *EventMatcher) ResolveNames(m *task.Model) []string {
	var out []string
	for _, name := range m.EventNames() {
		switch em.kind {
		case AnyEvent:
			out = append(out, name)
		case NamedEvent:
			if name == em.name {
				out = append(out, name)
			}
		case PredicateEvent:
			if em.pred(name) {
				out = append(out, name)
			}
		}
	}
	return out
}
