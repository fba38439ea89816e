package task

import "sort"

// Set is an identity set of tasks. Membership is pointer identity, never
// value equality: two distinct task objects with identical content are two
// distinct members.
type Set map[*Task]struct{}

// NewSet builds a set from the given tasks.
func NewSet(tasks ...*Task) Set {
	s := make(Set, len(tasks))
	for _, t := range tasks {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts t.
func (s Set) Add(t *Task) { s[t] = struct{}{} }

// Delete removes t if present.
func (s Set) Delete(t *Task) { delete(s, t) }

// Include reports membership.
func (s Set) Include(t *Task) bool {
	_, ok := s[t]
	return ok
}

// Len returns the member count.
func (s Set) Len() int { return len(s) }

// Dup returns a shallow copy (new set, same members).
func (s Set) Dup() Set {
	d := make(Set, len(s))
	for t := range s {
		d[t] = struct{}{}
	}
	return d
}

// Merge adds every member of other to s.
func (s Set) Merge(other Set) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Intersect returns a new set with the members present in both.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for t := range small {
		if large.Include(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Difference returns a new set with the members of s not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for t := range s {
		if !other.Include(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Each calls fn for every member. Returning false stops the iteration.
func (s Set) Each(fn func(*Task) bool) {
	for t := range s {
		if !fn(t) {
			return
		}
	}
}

// Slice returns the members ordered by task ID, for stable output.
func (s Set) Slice() []*Task {
	out := make([]*Task, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
