package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/tui"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Source   SourceOptions
	Database string
	Session  string
	Color    bool
	LogFile  string
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play [script.cue]",
		Short: "Open the interactive player",
		Long: `Open the terminal player for an algorithm or a scene script.

For an algorithm, type a value with i and press enter to run the first
action, or press 1-9 to run an action without a value. Actions are refused
while an animation is pending. Space pauses, the arrow keys step, s skips,
u undoes and +/- change the animation speed. Press ? for all keys.

--action flags are applied before the player opens. --db journals the
session, as with run.

Examples:
  stepviz play
  stepviz play --algorithm stack --action push:A --action push:B
  stepviz play testdata/scripts/swap.cue --color
  stepviz play --db ./stepviz.db --log-file play.log`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, scriptArg(args), cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the session to this SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (default: new UUIDv7)")
	cmd.Flags().BoolVar(&opts.Color, "color", true, "draw the scene in color")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file (the terminal is taken by the player)")

	return cmd
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	logOut := io.Discard
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open log file", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(opts.RootOptions, cfg, logOut)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	popts := []engine.Option{engine.WithLogger(logger)}
	hopts := []history.Option{history.WithLogger(logger)}

	if dbPath := firstNonEmpty(opts.Database, cfg.Journal); dbPath != "" {
		algorithm := opts.Source.Algorithm
		if path == "" && algorithm == "" {
			algorithm = cfg.Algorithm
		}
		st, journal, err := openJournal(ctx, dbPath, opts.Session, nil, algorithm, cfg.SpeedMS, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := journal.Err(); err != nil {
				logger.Error("journal write failed", "error", err)
			}
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		popts = append(popts, engine.WithObserver(journal))
		hopts = append(hopts, history.WithListener(journal))
	}

	src, err := openSource(path, opts.Source, cfg, popts, hopts)
	if err != nil {
		return err
	}
	if src.Session != nil {
		if err := src.playAll(instantDriver, nil); err != nil {
			return err
		}
	}

	model := tui.New(tui.Options{
		Title:    src.Name,
		Session:  src.Session,
		Player:   src.Player,
		Commands: src.Commands,
		Painter:  newPainter(cfg, 0, 0),
		Frame:    cfg.FrameInterval(),
		Color:    opts.Color,
		Logger:   logger,
	})
	logger.Info("player opened", "source", src.Name)

	if err := tui.Run(model); err != nil {
		return WrapExitError(ExitFailure, "player failed", err)
	}
	return nil
}

// quietLogger discards everything. Used where logs would corrupt output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
