package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/harness"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Source   SourceOptions
	Database string
	Session  string
	Realtime bool

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionIDGenerator
}

// RunResult summarizes a headless run.
type RunResult struct {
	Source    string         `json:"source"`
	Session   string         `json:"session,omitempty"`
	Steps     int            `json:"steps"`
	Snapshots int            `json:"snapshots"`
	Objects   int            `json:"objects"`
	SceneHash string         `json:"scene_hash"`
	State     map[string]any `json:"state,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [script.cue | scenario.yaml]",
		Short: "Play a script, scenario or algorithm headlessly",
		Long: `Play an animation without a terminal UI and report the final scene.

With a .cue argument the scene script is played. With a .yaml argument the
scenario is executed by the harness. Without an argument the algorithm is
driven by --action flags.

By default every animation is skipped to its end. --realtime plays it at the
configured speed and frame rate instead. --db journals the session to SQLite.

Examples:
  stepviz run testdata/scripts/swap.cue
  stepviz run --algorithm stack --action push:X --action push:Y --action pop
  stepviz run --action push:X --db ./stepviz.db --session demo
  stepviz run testdata/scenarios/stack_undo.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayback(opts, scriptArg(args), cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the session to this SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (default: new UUIDv7)")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "play at animation speed instead of skipping")

	return cmd
}

func runPlayback(opts *RunOptions, path string, cmd *cobra.Command) error {
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		return runScenarioFile(opts, path, cmd)
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	popts := []engine.Option{engine.WithLogger(logger)}
	hopts := []history.Option{history.WithLogger(logger)}

	var journal *store.Journal
	if dbPath := firstNonEmpty(opts.Database, cfg.Journal); dbPath != "" {
		algorithm := opts.Source.Algorithm
		if path == "" && algorithm == "" {
			algorithm = cfg.Algorithm
		}
		st, j, err := openJournal(ctx, dbPath, opts.Session, opts.SessionGenerator, algorithm, cfg.SpeedMS, logger)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		journal = j
		popts = append(popts, engine.WithObserver(journal))
		hopts = append(hopts, history.WithListener(journal))
	}

	src, err := openSource(path, opts.Source, cfg, popts, hopts)
	if err != nil {
		return err
	}

	drive := instantDriver
	if opts.Realtime {
		drive = realtimeDriver(ctx, cfg)
	}
	if err := src.playAll(drive, nil); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("playback interrupted")
			return nil
		}
		return err
	}

	result, err := summarize(src)
	if err != nil {
		return err
	}
	if journal != nil {
		if err := journal.Err(); err != nil {
			return WrapExitError(ExitFailure, "journal write failed", err)
		}
		result.Session = journal.SessionID()
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, Session: result.Session})
	}
	return outputRunText(cmd, result)
}

// openJournal opens the database and starts a session journal. An empty
// id is generated by gen, or as a UUIDv7 when gen is nil.
func openJournal(ctx context.Context, dbPath, id string, gen engine.SessionIDGenerator, algorithm string, speedMS int, logger *slog.Logger) (*store.Store, *store.Journal, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if id == "" {
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		id = gen.Generate()
	}
	journal, err := st.StartJournal(ctx, store.Session{
		ID:        id,
		Algorithm: algorithm,
		SpeedMS:   speedMS,
	}, store.WithJournalLogger(logger))
	if err != nil {
		st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to start journal", err)
	}
	logger.Info("journal started", "db", dbPath, "session", id)
	return st, journal, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func summarize(src *source) (RunResult, error) {
	p := src.Player
	snapshots := len(p.Snapshots())
	hash, err := ir.SceneHash(p.Scene().Values())
	if err != nil {
		return RunResult{}, WrapExitError(ExitFailure, "failed to hash scene", err)
	}
	return RunResult{
		Source:    src.Name,
		Steps:     max(snapshots-1, 0),
		Snapshots: snapshots,
		Objects:   p.Scene().Len(),
		SceneHash: hash,
		State:     src.State(),
	}, nil
}

func outputRunText(cmd *cobra.Command, result RunResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Source:    %s\n", result.Source)
	if result.Session != "" {
		fmt.Fprintf(w, "Session:   %s\n", result.Session)
	}
	fmt.Fprintf(w, "Steps:     %d\n", result.Steps)
	fmt.Fprintf(w, "Snapshots: %d\n", result.Snapshots)
	fmt.Fprintf(w, "Objects:   %d\n", result.Objects)
	fmt.Fprintf(w, "Scene:     %s\n", result.SceneHash)

	if len(result.State) > 0 {
		keys := make([]string, 0, len(result.State))
		for k := range result.State {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "State:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, result.State[k])
		}
	}
	return nil
}

// runScenarioFile executes one harness scenario and prints its result.
func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Scenario: %s\n", scenario.Name)
		fmt.Fprintf(w, "Events:   %d\n", len(result.Trace))
		fmt.Fprintf(w, "Scene:    %s\n", result.SceneHash)
		if opts.Verbose {
			for _, e := range result.Trace {
				fmt.Fprintf(w, "  [%d] %s\n", e.Seq, describeEvent(e))
			}
		}
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func describeEvent(e harness.TraceEvent) string {
	switch e.Type {
	case harness.EventCommand:
		if e.Error != "" {
			return fmt.Sprintf("%s (%s)", e.Command, e.Error)
		}
		return e.Command
	case harness.EventSnapshot:
		return fmt.Sprintf("snapshot step=%d objects=%d", e.StepIndex, e.Objects)
	default:
		return fmt.Sprintf("%s %s(%s)", e.Type, e.Action, e.Arg)
	}
}
