package algo

import (
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
)

// Session wires one algorithm to its own Player and undo coordinator.
// The CLI, the TUI and the scenario harness all drive algorithms through
// a Session.
type Session struct {
	Player    *engine.Player
	History   *history.Coordinator
	Algorithm Algorithm
}

// SessionOptions configures NewSession.
type SessionOptions struct {
	Player  []engine.Option
	History []history.Option
}

// NewSession builds the named algorithm, renders its setup immediately and
// leaves the Player ready for the first action.
func NewSession(name string, opts SessionOptions) (*Session, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	p := engine.NewPlayer(opts.Player...)
	a := f(p)

	setup := a.Setup()
	if len(setup) == 0 {
		setup = p.Recorder().Drain()
	}
	p.ApplyCommandsImmediately(setup)

	return &Session{
		Player:    p,
		History:   history.New(p, a.Reset, opts.History...),
		Algorithm: a,
	}, nil
}

// Do runs the named action through the undo coordinator. It returns false
// without error when the Player cannot admit a new animation.
func (s *Session) Do(action, arg string) (bool, error) {
	act, err := FindAction(s.Algorithm, action)
	if err != nil {
		return false, err
	}
	return s.History.Implement(act, arg), nil
}

// Undo undoes the most recent action.
func (s *Session) Undo() bool {
	return s.History.Undo()
}

// Ready reports whether a new action would be admitted: nothing is
// animating, nothing is paused and the user is viewing the latest step.
func (s *Session) Ready() bool {
	p := s.Player
	return p.CanStart() && !p.IsPaused() && p.IsAtLatestSnapshot()
}

// Enabled reports whether action with arg would do anything. Algorithms
// without a Gate enable every action.
func (s *Session) Enabled(action, arg string) bool {
	g, ok := s.Algorithm.(Gate)
	return !ok || g.Enabled(action, arg)
}

// Info returns the algorithm's display lines, or nil.
func (s *Session) Info() []string {
	if in, ok := s.Algorithm.(Informer); ok {
		return in.Info()
	}
	return nil
}
