// Package task contains the task node consumed by the plan query engine:
// model ancestry, the closed state-predicate vocabulary, ownership, arguments
// and identity sets. All types here are pure in-memory state; every state or
// ownership transition notifies the classification index of the plan the task
// currently belongs to, so that the index never has to rescan.
package task

import (
	"fmt"
	"sort"
)

// Peer identifies a party allowed to mutate a task.
type Peer string

// Phase is the execution phase of a task. At most one phase holds at a time.
type Phase int

// Execution phases, in transition order.
const (
	Pending Phase = iota
	Starting
	Running
	Finishing
	Finished
)

// String returns the phase's predicate name.
func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Finishing:
		return "finishing"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Outcome is the terminal result of a finished task. A finished task carries
// at most one outcome; OutcomeNone marks a task stopped without a verdict.
type Outcome int

// Terminal outcomes.
const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailed
)

// StateObserver receives task predicate and ownership changes. The
// classification index of the plan a task belongs to implements it; the task
// calls it on every transition so the index is maintained reactively.
type StateObserver interface {
	SetState(t *Task, predicates ...string)
	AddOwner(t *Task, owner Peer)
	RemoveOwner(t *Task, owner Peer)
}

// Space is the surface a task needs from the plan (or overlay) it belongs
// to: relation edge enumeration and the level-scoped predicates the index
// does not track.
type Space interface {
	EachParentIn(t *Task, rel Relation, fn func(parent *Task, data any) bool)
	EachChildIn(t *Task, rel Relation, fn func(child *Task, data any) bool)
	IsMission(t *Task) bool
	IsPermanent(t *Task) bool
}

// Task is a node in a plan graph.
type Task struct {
	id    string
	model *Model
	args  map[string]any

	phase   Phase
	outcome Outcome

	abstract   bool
	executable bool

	owners map[Peer]struct{}

	// set while the task belongs to a plan or overlay
	space    Space
	observer StateObserver

	// non-owning back reference; nil unless this task is an overlay proxy
	shadowed *Task
}

// NewTask creates a pending, executable task.
func NewTask(id string, model *Model, args map[string]any) *Task {
	if args == nil {
		args = make(map[string]any)
	}
	return &Task{
		id:         id,
		model:      model,
		args:       args,
		executable: true,
		owners:     make(map[Peer]struct{}),
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Model returns the task's model.
func (t *Task) Model() *Model { return t.model }

// Argument returns the named argument value.
func (t *Task) Argument(key string) (any, bool) {
	v, ok := t.args[key]
	return v, ok
}

// Arguments returns the argument map. Callers must not mutate it.
func (t *Task) Arguments() map[string]any { return t.args }

// CurrentPhase returns the current execution phase.
func (t *Task) CurrentPhase() Phase { return t.phase }

// State predicates. The seven below form the closed indexable vocabulary.

// Pending reports that the task has not started yet.
func (t *Task) Pending() bool { return t.phase == Pending }

// Starting reports that the start command is being executed.
func (t *Task) Starting() bool { return t.phase == Starting }

// Running reports that the task is executing.
func (t *Task) Running() bool { return t.phase == Running }

// Finishing reports that the stop command is being executed.
func (t *Task) Finishing() bool { return t.phase == Finishing }

// Finished reports that the task has stopped.
func (t *Task) Finished() bool { return t.phase == Finished }

// Success reports that the task finished with a success verdict.
func (t *Task) Success() bool { return t.phase == Finished && t.outcome == OutcomeSuccess }

// Failed reports that the task finished with a failure verdict.
func (t *Task) Failed() bool { return t.phase == Finished && t.outcome == OutcomeFailed }

// Instance predicates outside the index vocabulary.

// Abstract reports that the task is a placeholder that cannot be executed
// directly.
func (t *Task) Abstract() bool { return t.abstract }

// Executable reports that the task can be started.
func (t *Task) Executable() bool { return t.executable && !t.abstract }

// SetAbstract marks or unmarks the task as abstract.
func (t *Task) SetAbstract(abstract bool) { t.abstract = abstract }

// SetExecutable marks or unmarks the task as executable.
func (t *Task) SetExecutable(executable bool) { t.executable = executable }

// Transitions. Each validates the current phase, mutates, then pushes the
// new predicate state to the observing index.

// Start moves the task from pending to starting.
func (t *Task) Start() error {
	if t.phase != Pending {
		return fmt.Errorf("cannot start task %s: %s, not pending", t.id, t.phase)
	}
	t.phase = Starting
	t.notifyState()
	return nil
}

// Started moves the task from starting to running.
func (t *Task) Started() error {
	if t.phase != Starting {
		return fmt.Errorf("cannot mark task %s as started: %s, not starting", t.id, t.phase)
	}
	t.phase = Running
	t.notifyState()
	return nil
}

// Finish moves the task from running to finishing.
func (t *Task) Finish() error {
	if t.phase != Running {
		return fmt.Errorf("cannot finish task %s: %s, not running", t.id, t.phase)
	}
	t.phase = Finishing
	t.notifyState()
	return nil
}

// Stopped moves the task to finished with the given outcome. It is valid
// from running (forced stop) and finishing.
func (t *Task) Stopped(outcome Outcome) error {
	if t.phase != Running && t.phase != Finishing {
		return fmt.Errorf("cannot stop task %s: %s, not running or finishing", t.id, t.phase)
	}
	t.phase = Finished
	t.outcome = outcome
	t.notifyState()
	return nil
}

func (t *Task) notifyState() {
	if t.observer == nil {
		return
	}
	t.observer.SetState(t, t.statePredicates()...)
}

// statePredicates returns the names of the indexable predicates currently
// true for t.
func (t *Task) statePredicates() []string {
	preds := []string{t.phase.String()}
	if t.Success() {
		preds = append(preds, "success")
	} else if t.Failed() {
		preds = append(preds, "failed")
	}
	return preds
}

// Ownership.

// AddOwner grants mutation rights to a peer.
func (t *Task) AddOwner(p Peer) {
	if _, ok := t.owners[p]; ok {
		return
	}
	t.owners[p] = struct{}{}
	if t.observer != nil {
		t.observer.AddOwner(t, p)
	}
}

// RemoveOwner revokes a peer's mutation rights.
func (t *Task) RemoveOwner(p Peer) {
	if _, ok := t.owners[p]; !ok {
		return
	}
	delete(t.owners, p)
	if t.observer != nil {
		t.observer.RemoveOwner(t, p)
	}
}

// OwnedBy reports whether p is among the task's owners.
func (t *Task) OwnedBy(p Peer) bool {
	_, ok := t.owners[p]
	return ok
}

// SelfOwned reports that no remote peer owns the task.
func (t *Task) SelfOwned() bool { return len(t.owners) == 0 }

// Owners returns the owner list, sorted.
func (t *Task) Owners() []Peer {
	out := make([]Peer, 0, len(t.owners))
	for p := range t.owners {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Plan membership.

// Attach binds the task to a plan space and its index observer. Called by
// the plan when the task enters its scope.
func (t *Task) Attach(space Space, observer StateObserver) {
	t.space = space
	t.observer = observer
}

// Detach clears the plan binding. Called by the plan on removal.
func (t *Task) Detach() {
	t.space = nil
	t.observer = nil
}

// Plan returns the space the task currently belongs to, or nil.
func (t *Task) Plan() Space { return t.space }

// EachParent enumerates the task's parents in the given relation, within its
// current space. An empty relation enumerates all relations.
func (t *Task) EachParent(rel Relation, fn func(parent *Task, data any) bool) {
	if t.space == nil {
		return
	}
	if rel != "" {
		t.space.EachParentIn(t, rel, fn)
		return
	}
	for _, r := range Relations() {
		stopped := false
		t.space.EachParentIn(t, r, func(p *Task, data any) bool {
			if !fn(p, data) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
	}
}

// EachChild enumerates the task's children in the given relation, within its
// current space. An empty relation enumerates all relations.
func (t *Task) EachChild(rel Relation, fn func(child *Task, data any) bool) {
	if t.space == nil {
		return
	}
	if rel != "" {
		t.space.EachChildIn(t, rel, fn)
		return
	}
	for _, r := range Relations() {
		stopped := false
		t.space.EachChildIn(t, r, func(c *Task, data any) bool {
			if !fn(c, data) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
	}
}

// Proxies.

// Proxy returns a new task shadowing t for use in an overlay: same ID, model
// and predicate state, own copies of arguments and owners, and a non-owning
// back reference to t.
func (t *Task) Proxy() *Task {
	args := make(map[string]any, len(t.args))
	for k, v := range t.args {
		args[k] = v
	}
	owners := make(map[Peer]struct{}, len(t.owners))
	for p := range t.owners {
		owners[p] = struct{}{}
	}
	return &Task{
		id:         t.id,
		model:      t.model,
		args:       args,
		phase:      t.phase,
		outcome:    t.outcome,
		abstract:   t.abstract,
		executable: t.executable,
		owners:     owners,
		shadowed:   t,
	}
}

// Shadowed returns the task this proxy stands in for, or nil if t is not a
// proxy.
func (t *Task) Shadowed() *Task { return t.shadowed }
