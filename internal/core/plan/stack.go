package plan

import "github.com/example/loom/internal/core/task"

// Stack helpers: a task edited inside nested overlays has one representative
// per level it is present in (the original at its home level, one proxy per
// overlay that wrapped it). The chain of representatives is what lets the
// resolver answer queries as if the whole stack had been flattened, without
// ever materializing the flattened graph.

// Levels returns the transaction stack under top, bottom (base plan) first.
func Levels(top Space) []Space {
	var down []Space
	for sp := top; sp != nil; sp = sp.Below() {
		down = append(down, sp)
	}
	out := make([]Space, len(down))
	for i, sp := range down {
		out[len(down)-1-i] = sp
	}
	return out
}

// chain maps level index to the representative of one logical task at that
// level. Levels where the task was never proxied have no entry.
type chain struct {
	reps map[int]*task.Task
	top  int
}

// chainOf builds the representative chain of t within the given stack.
// t may be any representative of the logical task: the chain is completed
// both downward (through shadowed originals) and upward (through proxies).
func chainOf(levels []Space, t *task.Task) (chain, bool) {
	home := -1
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].AllTasks().Include(t) {
			home = i
			break
		}
	}
	if home == -1 {
		return chain{}, false
	}

	reps := map[int]*task.Task{home: t}

	cur, lvl := t, home
	for {
		s := cur.Shadowed()
		if s == nil {
			break
		}
		h := -1
		for i := lvl - 1; i >= 0; i-- {
			if levels[i].AllTasks().Include(s) {
				h = i
				break
			}
		}
		if h == -1 {
			break
		}
		reps[h] = s
		cur, lvl = s, h
	}

	cur = t
	top := home
	for i := home + 1; i < len(levels); i++ {
		if proxy, ok := levels[i].ProxyFor(cur); ok {
			reps[i] = proxy
			cur = proxy
			top = i
		}
	}

	return chain{reps: reps, top: top}, true
}

// maxCommonLevel returns the highest level where both chains have a
// representative, or -1.
func maxCommonLevel(a, b chain) int {
	best := -1
	for l := range a.reps {
		if _, ok := b.reps[l]; ok && l > best {
			best = l
		}
	}
	return best
}

// ResolveTop returns the top-most representative of t in the stack under
// top: the proxy whose edits take precedence over every lower level.
func ResolveTop(top Space, t *task.Task) (*task.Task, bool) {
	ch, ok := chainOf(Levels(top), t)
	if !ok {
		return nil, false
	}
	return ch.reps[ch.top], true
}

// LogicalEachParent enumerates the parents of t's logical task in the given
// relation, as they would appear if the stack under top were flattened. An
// edge found at level l only counts when l is the highest level containing
// both endpoints: any level above that holding both is authoritative for the
// pair and has either re-stated or dropped the edge. Parents are yielded as
// their own top-most representatives.
func LogicalEachParent(top Space, t *task.Task, rel task.Relation, fn func(parent *task.Task, data any) bool) {
	logicalEachNeighbor(top, t, rel, true, fn)
}

// LogicalEachChild is the child-direction counterpart of LogicalEachParent.
func LogicalEachChild(top Space, t *task.Task, rel task.Relation, fn func(child *task.Task, data any) bool) {
	logicalEachNeighbor(top, t, rel, false, fn)
}

func logicalEachNeighbor(top Space, t *task.Task, rel task.Relation, parents bool, fn func(*task.Task, any) bool) {
	levels := Levels(top)
	ch, ok := chainOf(levels, t)
	if !ok {
		return
	}
	seen := task.NewSet()
	for l := ch.top; l >= 0; l-- {
		rep, ok := ch.reps[l]
		if !ok {
			continue
		}
		g := levels[l].Graph(rel)
		if g == nil {
			continue
		}
		stopped := false
		visit := func(n *task.Task, data any) bool {
			nch, ok := chainOf(levels, n)
			if !ok {
				return true
			}
			if maxCommonLevel(ch, nch) != l {
				// a higher level holds both endpoints and owns this pair
				return true
			}
			topRep := nch.reps[nch.top]
			if seen.Include(topRep) {
				return true
			}
			seen.Add(topRep)
			if !fn(topRep, data) {
				stopped = true
				return false
			}
			return true
		}
		if parents {
			g.EachParent(rep, visit)
		} else {
			g.EachChild(rep, visit)
		}
		if stopped {
			return
		}
	}
}
