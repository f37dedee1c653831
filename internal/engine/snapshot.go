package engine

import (
	"github.com/roach88/stepviz/internal/ir"
)

// Snapshot is the scene and attached algorithm state captured at a step
// boundary. StepIndex is the log cursor after the step, so it counts
// commands, not steps.
type Snapshot struct {
	StepIndex int
	Objects   []ir.Object
	State     map[string]any
}

// Snapshots is the rewind stack. It grows while playback moves forward and
// shrinks on StepBack; StepIndex strictly increases from bottom to top.
type Snapshots struct {
	list []Snapshot
}

// Reset replaces the stack with a single baseline.
func (s *Snapshots) Reset(base Snapshot) {
	s.list = []Snapshot{base}
}

// Clear empties the stack.
func (s *Snapshots) Clear() {
	s.list = nil
}

// Push appends a snapshot. A snapshot whose StepIndex does not exceed the
// current top would break ordering; Push drops it and reports false.
func (s *Snapshots) Push(snap Snapshot) bool {
	if n := len(s.list); n > 0 && snap.StepIndex <= s.list[n-1].StepIndex {
		return false
	}
	s.list = append(s.list, snap)
	return true
}

// Pop removes the top snapshot unless it is the last one remaining, then
// returns the new top. ok is false when the stack is empty.
func (s *Snapshots) Pop() (Snapshot, bool) {
	if len(s.list) == 0 {
		return Snapshot{}, false
	}
	if len(s.list) > 1 {
		s.list = s.list[:len(s.list)-1]
	}
	return s.list[len(s.list)-1], true
}

// Latest returns the top snapshot.
func (s *Snapshots) Latest() (Snapshot, bool) {
	if len(s.list) == 0 {
		return Snapshot{}, false
	}
	return s.list[len(s.list)-1], true
}

// Len returns the number of snapshots.
func (s *Snapshots) Len() int {
	return len(s.list)
}

// All returns the snapshots bottom to top.
func (s *Snapshots) All() []Snapshot {
	return append([]Snapshot(nil), s.list...)
}

// IsAtLatest reports whether cursor sits on the top snapshot. An empty
// stack counts as latest.
func (s *Snapshots) IsAtLatest(cursor int) bool {
	top, ok := s.Latest()
	return !ok || top.StepIndex == cursor
}
