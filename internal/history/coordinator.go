// Package history records high-level actions and undoes them by replay.
//
// Undo never inverts commands. It resets derived state to empty and replays
// every remaining action in order with recording disabled, applying each
// one immediately. This is exact as long as every action is a pure
// function of current logical state plus its argument.
package history

import (
	"log/slog"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/ir"
)

// Action is a named high-level operation. Run emits the commands for one
// invocation, either by returning them or by recording them on the
// player's recorder and returning nil.
type Action struct {
	Name string
	Run  func(arg string) []ir.Command
}

// Entry is one recorded (action, argument) pair.
type Entry struct {
	Action Action
	Arg    string
}

// ResetFunc clears all derived state and returns the commands that bring
// the scene back to its initial layout.
type ResetFunc func() []ir.Command

// Animator is the part of the Player the coordinator drives.
type Animator interface {
	CanStart() bool
	StartNewAnimation(cmds ...ir.Command) bool
	ApplyCommandsImmediately(cmds []ir.Command)
	Cancel()
	Recorder() *engine.Recorder
}

// Listener is notified of history changes. The session journal uses it.
type Listener interface {
	ActionRecorded(e Entry)
	ActionUndone(e Entry)
}

// Coordinator is the action history and undo coordinator.
//
// Thread-safety: Coordinator shares the Player's goroutine and is not safe
// for concurrent use.
type Coordinator struct {
	player    Animator
	reset     ResetFunc
	entries   []Entry
	recording bool
	listener  Listener
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithListener registers a history listener.
func WithListener(l Listener) Option {
	return func(c *Coordinator) {
		c.listener = l
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// New creates a Coordinator with recording enabled.
func New(player Animator, reset ResetFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		player:    player,
		reset:     reset,
		recording: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Implement runs action with arg and starts an animation with its
// commands. While recording is enabled the pair is pushed onto the
// history first.
//
// If the player cannot admit a new animation the action is neither
// recorded nor run, and Implement returns false.
func (c *Coordinator) Implement(action Action, arg string) bool {
	if !c.player.CanStart() {
		c.logger.Debug("action refused: animation pending", "action", action.Name, "arg", arg)
		return false
	}
	e := Entry{Action: action, Arg: arg}
	if c.recording {
		c.entries = append(c.entries, e)
		if c.listener != nil {
			c.listener.ActionRecorded(e)
		}
	}
	return c.player.StartNewAnimation(c.collect(e)...)
}

// Undo removes the most recent action and rebuilds state from the rest.
// Returns false when the history is empty.
func (c *Coordinator) Undo() bool {
	if len(c.entries) == 0 {
		return false
	}
	last := c.entries[len(c.entries)-1]
	c.entries = c.entries[:len(c.entries)-1]

	c.player.Cancel()
	c.player.Recorder().Drain()
	var resetCmds []ir.Command
	if c.reset != nil {
		resetCmds = c.reset()
	}
	resetCmds = append(resetCmds, c.player.Recorder().Drain()...)
	c.player.ApplyCommandsImmediately(resetCmds)

	c.recording = false
	for _, e := range c.entries {
		c.player.ApplyCommandsImmediately(c.collect(e))
	}
	c.recording = true

	c.logger.Debug("action undone",
		"action", last.Action.Name,
		"arg", last.Arg,
		"replayed", len(c.entries),
	)
	if c.listener != nil {
		c.listener.ActionUndone(last)
	}
	return true
}

// collect runs the entry's action and returns its commands, falling back to
// whatever it recorded.
func (c *Coordinator) collect(e Entry) []ir.Command {
	cmds := e.Action.Run(e.Arg)
	if len(cmds) == 0 {
		cmds = c.player.Recorder().Drain()
	}
	return cmds
}

// Recording reports whether Implement currently records actions.
func (c *Coordinator) Recording() bool {
	return c.recording
}

// History returns the recorded entries, oldest first.
func (c *Coordinator) History() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of recorded entries.
func (c *Coordinator) Len() int {
	return len(c.entries)
}

// Clear drops the history without touching the scene.
func (c *Coordinator) Clear() {
	c.entries = nil
}
