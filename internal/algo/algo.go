// Package algo defines how algorithm visualizations plug into the engine
// and keeps a registry of the built-in ones.
//
// An Algorithm records commands through its Host (the Player) and never
// touches the scene directly. Algorithm state that must follow the user
// through StepBack changes only inside Internal effects and is attached to
// the Player as a Checkpointer.
package algo

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/ir"
)

// ErrUnknownAlgorithm is returned when a name is not registered.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ErrUnknownAction is returned when an algorithm has no action of a name.
var ErrUnknownAction = errors.New("unknown action")

// Producer is the recording side of the Player.
type Producer interface {
	Emit(c ir.Command) string
	GetNextID() ir.ID
}

// Host is what an algorithm receives at construction.
type Host interface {
	Producer
	Effects() *engine.Effects
}

// Algorithm is a visualized data structure or procedure.
//
// Setup, Reset and every action's Run may either return their commands or
// record them on the Host and return nil.
type Algorithm interface {
	// Name returns the registry name.
	Name() string

	// Setup emits the initial static layout.
	Setup() []ir.Command

	// Actions returns the high-level operations, in display order.
	Actions() []history.Action

	// Reset clears logical state and emits the commands that restore the
	// initial layout. Used by undo.
	Reset() []ir.Command

	// State returns the logical state for inspection and assertions.
	State() map[string]any
}

// Gate is implemented by algorithms whose actions are only sometimes
// meaningful. Interactive controls consult it before running an action so
// no-op actions stay out of the undo history.
type Gate interface {
	Enabled(action, arg string) bool
}

// Informer is implemented by algorithms that describe their logical state
// in a few display lines.
type Informer interface {
	Info() []string
}

// Factory builds an algorithm bound to host.
type Factory func(host Host) Algorithm

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes an algorithm available by name. It panics if name is
// registered twice.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("algo: Register called twice for %q", name))
	}
	registry[name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return f, nil
}

// Names returns the registered algorithm names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindAction returns the action of a with the given name.
func FindAction(a Algorithm, name string) (history.Action, error) {
	for _, act := range a.Actions() {
		if act.Name == name {
			return act, nil
		}
	}
	return history.Action{}, fmt.Errorf("%s: %w %q", a.Name(), ErrUnknownAction, name)
}
