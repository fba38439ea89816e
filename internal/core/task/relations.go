package task

// Relation identifies a typed, directed edge kind between tasks.
type Relation string

// The relation graphs every plan maintains.
const (
	// Hierarchy links a parent task to the children realizing it.
	Hierarchy Relation = "hierarchy"
	// Signal propagates an event emission from parent to child.
	Signal Relation = "signal"
	// Forwarding re-emits a parent event as a child event.
	Forwarding Relation = "forwarding"
)

// Relations returns all relation kinds, in a fixed order.
func Relations() []Relation {
	return []Relation{Hierarchy, Signal, Forwarding}
}
