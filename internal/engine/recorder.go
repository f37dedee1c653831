package engine

import (
	"github.com/roach88/stepviz/internal/ir"
)

// Recorder accumulates commands emitted by producers until an animation
// adopts them. Recording never fails and never validates; interpretation
// happens when the Player executes the log.
type Recorder struct {
	log []ir.Command
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends c, with its text NFC normalized, and returns the encoded
// form of what was recorded.
func (r *Recorder) Emit(c ir.Command) string {
	c = ir.Normalize(c)
	r.log = append(r.log, c)
	return ir.Encode(c)
}

// Cmd records a command given by name and loosely typed arguments.
// Arguments that do not fit the name still record; the Player reports them
// when the command executes.
func (r *Recorder) Cmd(name string, args ...any) string {
	return r.Emit(ir.Parse(name, args...))
}

// Drain returns the recorded commands and empties the recorder.
func (r *Recorder) Drain() []ir.Command {
	out := r.log
	r.log = nil
	return out
}

// Peek returns a copy of the recorded commands without draining.
func (r *Recorder) Peek() []ir.Command {
	return append([]ir.Command(nil), r.log...)
}

// Len returns the number of recorded commands.
func (r *Recorder) Len() int {
	return len(r.log)
}
