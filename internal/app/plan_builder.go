// Package app implements the primary ports on top of the core engine and
// the secondary persistence ports.
package app

import (
	"fmt"

	"github.com/example/loom/internal/core/plan"
	"github.com/example/loom/internal/core/task"
	"github.com/example/loom/internal/ports/secondary"
)

// buildPlan reconstructs an in-memory plan from a stored snapshot. The
// classification index is rebuilt by replaying Add and the recorded state
// transitions, never loaded from persistence.
func buildPlan(record *secondary.PlanRecord) (*plan.Plan, map[string]*task.Model, error) {
	p := plan.New(record.ID)
	models := make(map[string]*task.Model)
	tasks := make(map[string]*task.Task, len(record.Tasks))

	for _, tr := range record.Tasks {
		if _, ok := tasks[tr.ID]; ok {
			return nil, nil, fmt.Errorf("duplicate task %s", tr.ID)
		}

		model, err := modelFor(models, tr.Ancestry)
		if err != nil {
			return nil, nil, fmt.Errorf("task %s: %w", tr.ID, err)
		}

		tk := task.NewTask(tr.ID, model, tr.Arguments)
		tk.SetAbstract(tr.Abstract)
		tk.SetExecutable(tr.Executable)
		for _, o := range tr.Owners {
			tk.AddOwner(task.Peer(o))
		}

		if err := p.Add(tk); err != nil {
			return nil, nil, fmt.Errorf("failed to add task %s: %w", tr.ID, err)
		}
		if err := replayState(tk, tr.State, tr.Outcome); err != nil {
			return nil, nil, err
		}
		if tr.Mission {
			if err := p.AddMission(tk); err != nil {
				return nil, nil, err
			}
		}
		if tr.Permanent {
			if err := p.AddPermanent(tk); err != nil {
				return nil, nil, err
			}
		}
		tasks[tr.ID] = tk
	}

	for _, er := range record.Edges {
		parent, ok := tasks[er.Parent]
		if !ok {
			return nil, nil, fmt.Errorf("edge references unknown task %s", er.Parent)
		}
		child, ok := tasks[er.Child]
		if !ok {
			return nil, nil, fmt.Errorf("edge references unknown task %s", er.Child)
		}
		rel, err := relationOf(er.Relation)
		if err != nil {
			return nil, nil, err
		}
		var data any
		if er.Data != "" {
			data = er.Data
		}
		if err := p.AddEdge(parent, child, rel, data); err != nil {
			return nil, nil, fmt.Errorf("failed to add edge %s->%s: %w", er.Parent, er.Child, err)
		}
	}

	return p, models, nil
}

// modelFor resolves an ancestry chain (most derived first) into a model,
// reusing previously built models by name.
func modelFor(cache map[string]*task.Model, ancestry []string) (*task.Model, error) {
	if len(ancestry) == 0 {
		return nil, fmt.Errorf("no model")
	}

	var m *task.Model
	for i := len(ancestry) - 1; i >= 0; i-- {
		name := ancestry[i]
		if cached, ok := cache[name]; ok {
			m = cached
			continue
		}
		if m == nil {
			m = task.NewModel(name)
		} else {
			m = m.NewSubmodel(name)
		}
		cache[name] = m
	}
	return m, nil
}

// replayState drives a fresh task through its transitions until it reaches
// the stored state, so the index follows every step.
func replayState(t *task.Task, state, outcome string) error {
	steps := func(fns ...func() error) error {
		for _, fn := range fns {
			if err := fn(); err != nil {
				return err
			}
		}
		return nil
	}

	switch state {
	case "", "pending":
		return nil
	case "starting":
		return t.Start()
	case "running":
		return steps(t.Start, t.Started)
	case "finishing":
		return steps(t.Start, t.Started, t.Finish)
	case "finished":
		o, err := outcomeOf(outcome)
		if err != nil {
			return fmt.Errorf("task %s: %w", t.ID(), err)
		}
		return steps(t.Start, t.Started, t.Finish, func() error { return t.Stopped(o) })
	default:
		return fmt.Errorf("task %s has unknown state %q", t.ID(), state)
	}
}

func outcomeOf(s string) (task.Outcome, error) {
	switch s {
	case "":
		return task.OutcomeNone, nil
	case "success":
		return task.OutcomeSuccess, nil
	case "failed":
		return task.OutcomeFailed, nil
	default:
		return task.OutcomeNone, fmt.Errorf("unknown outcome %q", s)
	}
}

func relationOf(name string) (task.Relation, error) {
	for _, rel := range task.Relations() {
		if string(rel) == name {
			return rel, nil
		}
	}
	return "", fmt.Errorf("unknown relation %q", name)
}
