package engine

import (
	"fmt"
	"sort"

	"github.com/roach88/stepviz/internal/ir"
)

// HandlerFunc is a side effect bound to an Internal command. It runs
// synchronously at the point the command is reached, in log order.
type HandlerFunc func(args []string) error

// Checkpointer is algorithm state that travels with snapshots.
//
// Checkpoint must return a value that shares nothing mutable with the live
// state; Restore receives exactly a value Checkpoint returned earlier.
type Checkpointer interface {
	Checkpoint() any
	Restore(any)
}

// Capability is the token returned by Register. It is the only way to
// build an Internal command for its effect, which keeps every effect a
// producer can emit enumerable from the registry.
type Capability struct {
	name    string
	gen     uint64
	effects *Effects
}

// Name returns the effect name.
func (c Capability) Name() string {
	return c.name
}

// Command builds the Internal command that invokes this effect.
func (c Capability) Command(args ...string) ir.Internal {
	return ir.Internal{Handler: c.name, Params: append([]string(nil), args...)}
}

// Valid reports whether the effect is still bound to this registration.
func (c Capability) Valid() bool {
	if c.effects == nil {
		return false
	}
	b, ok := c.effects.handlers[c.name]
	return ok && b.gen == c.gen
}

// Unregister removes the effect if it is still bound to this registration.
// Re-registering a name invalidates older capabilities, so a stale
// Unregister leaves the newer binding in place.
func (c Capability) Unregister() {
	if c.Valid() {
		delete(c.effects.handlers, c.name)
	}
}

type binding struct {
	fn  HandlerFunc
	gen uint64
}

// Effects is the registry of Internal command handlers and the algorithm
// state checkpointed alongside snapshots.
type Effects struct {
	handlers    map[string]binding
	checkpoints map[string]Checkpointer
	gen         uint64
}

// NewEffects returns an empty registry.
func NewEffects() *Effects {
	return &Effects{
		handlers:    make(map[string]binding),
		checkpoints: make(map[string]Checkpointer),
	}
}

// Register binds fn to name, replacing any previous binding.
func (e *Effects) Register(name string, fn HandlerFunc) Capability {
	e.gen++
	e.handlers[name] = binding{fn: fn, gen: e.gen}
	return Capability{name: name, gen: e.gen, effects: e}
}

// Names returns the registered effect names in sorted order.
func (e *Effects) Names() []string {
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attach registers state to capture in every snapshot under name and
// returns a func that detaches it.
func (e *Effects) Attach(name string, cp Checkpointer) func() {
	e.checkpoints[name] = cp
	return func() {
		if e.checkpoints[name] == cp {
			delete(e.checkpoints, name)
		}
	}
}

func (e *Effects) lookup(name string) (HandlerFunc, bool) {
	b, ok := e.handlers[name]
	return b.fn, ok
}

// checkpoint captures every attached state. Returns nil when nothing is
// attached.
func (e *Effects) checkpoint() map[string]any {
	if len(e.checkpoints) == 0 {
		return nil
	}
	out := make(map[string]any, len(e.checkpoints))
	for name, cp := range e.checkpoints {
		out[name] = cp.Checkpoint()
	}
	return out
}

// restore hands each attached state the value captured under its name.
// States attached after the snapshot was taken are left untouched.
func (e *Effects) restore(state map[string]any) {
	for name, cp := range e.checkpoints {
		if v, ok := state[name]; ok {
			cp.Restore(v)
		}
	}
}

func (e *Effects) invoke(c ir.Internal) error {
	fn, ok := e.lookup(c.Handler)
	if !ok {
		return &ExecError{
			Code:    ErrCodeHandlerMissing,
			Command: ir.NameInternal,
			Message: fmt.Sprintf("no handler registered for %q", c.Handler),
		}
	}
	if err := fn(c.Params); err != nil {
		return &ExecError{
			Code:    ErrCodeHandlerFailed,
			Command: ir.NameInternal,
			Message: fmt.Sprintf("handler %q failed", c.Handler),
			Err:     err,
		}
	}
	return nil
}
