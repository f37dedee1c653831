package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/algo"
	_ "github.com/roach88/stepviz/internal/algo/stack"
	"github.com/roach88/stepviz/internal/config"
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/script"
)

// ActionUndo is the pseudo-action that undoes the latest action.
const ActionUndo = "undo"

// SourceOptions selects what produces the commands: a CUE scene script or
// a registered algorithm driven by a list of actions.
type SourceOptions struct {
	Algorithm string
	Actions   []string // "name", "name:arg" or "undo"
}

// addSourceFlags registers the algorithm flags shared by run, render,
// export and play.
func addSourceFlags(cmd *cobra.Command, src *SourceOptions) {
	cmd.Flags().StringVarP(&src.Algorithm, "algorithm", "a", "", "registered algorithm (default from config)")
	cmd.Flags().StringArrayVar(&src.Actions, "action", nil, `action to run, as "name" or "name:arg" ("undo" undoes); repeatable`)
}

// source is a Player fed by a script or an algorithm session.
type source struct {
	Name     string
	Player   *engine.Player
	Session  *algo.Session // nil for scripts
	Commands []ir.Command  // script log, nil for algorithms
	actions  []string
}

// openSource builds the Player. A path argument selects a script; without
// one the algorithm (flag, then config) is used.
func openSource(path string, src SourceOptions, cfg *config.Config, popts []engine.Option, hopts []history.Option) (*source, error) {
	popts = append([]engine.Option{
		engine.WithSpeed(cfg.Speed()),
		engine.WithStepDwell(cfg.StepDwell()),
	}, popts...)

	if path != "" {
		s, err := script.LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, WrapExitError(ExitCommandError, "script not found", err)
		}
		if err != nil {
			return nil, WrapExitError(ExitFailure, "failed to load script", err)
		}
		name := s.Name
		if name == "" {
			name = path
		}
		return &source{
			Name:     name,
			Player:   engine.NewPlayer(popts...),
			Commands: s.Commands(),
		}, nil
	}

	name := src.Algorithm
	if name == "" {
		name = cfg.Algorithm
	}
	sess, err := algo.NewSession(name, algo.SessionOptions{Player: popts, History: hopts})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open algorithm", err)
	}
	return &source{
		Name:    name,
		Player:  sess.Player,
		Session: sess,
		actions: src.Actions,
	}, nil
}

// Driver runs one animation to its end. instantDriver skips; the CLI's
// realtime driver ticks the Player on a wall-clock ticker.
type Driver func(p *engine.Player) error

// instantDriver finishes the animation immediately.
func instantDriver(p *engine.Player) error {
	p.SkipForward()
	return nil
}

// realtimeDriver plays the animation at the configured frame rate.
func realtimeDriver(ctx context.Context, cfg *config.Config) Driver {
	return func(p *engine.Player) error {
		return p.Run(ctx, engine.NewTimeTicker(cfg.FrameInterval()))
	}
}

// playAll plays the script, or each action in turn, through drive. The
// last animation is handed to last instead when it is non-nil, so callers
// can stop part way through it.
func (s *source) playAll(drive, last Driver) error {
	if last == nil {
		last = drive
	}

	if s.Session == nil {
		if !s.Player.StartNewAnimation(s.Commands...) {
			return NewExitError(ExitCommandError, "animation refused")
		}
		return last(s.Player)
	}

	for i, a := range s.actions {
		d := drive
		if i == len(s.actions)-1 {
			d = last
		}
		if err := s.apply(a); err != nil {
			return err
		}
		if err := d(s.Player); err != nil {
			return err
		}
	}
	return nil
}

// apply runs one action string against the session.
func (s *source) apply(raw string) error {
	name, arg := parseAction(raw)
	if name == ActionUndo {
		if !s.Session.Undo() {
			slog.Debug("nothing to undo")
		}
		return nil
	}
	ok, err := s.Session.Do(name, arg)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("action %q", raw), err)
	}
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("action %q refused: animation pending", raw))
	}
	return nil
}

// State returns the algorithm's logical state, or nil for scripts.
func (s *source) State() map[string]any {
	if s.Session == nil {
		return nil
	}
	return s.Session.Algorithm.State()
}

// parseAction splits "name:arg". The argument may itself contain colons.
func parseAction(raw string) (name, arg string) {
	name, arg, _ = strings.Cut(raw, ":")
	return strings.TrimSpace(name), arg
}

// scriptArg returns the optional positional script path.
func scriptArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
