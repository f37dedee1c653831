package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplayMismatch is one snapshot whose rebuilt scene differs from the
// journaled one.
type ReplayMismatch struct {
	Seq       int64  `json:"seq"`
	StepIndex int    `json:"step_index"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string           `json:"session"`
	Commands      int              `json:"commands"`
	Snapshots     int              `json:"snapshots"`
	Deterministic bool             `json:"deterministic"`
	Mismatches    []ReplayMismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild journaled scenes and verify them",
		Long: `Re-execute each journaled command log on a fresh player and verify that
every step snapshot reproduces the journaled scene hash.

Commands are decoded from their wire form and applied in sequence order.
Internal commands are re-issued without handlers and only affect algorithm
state, so the scene is rebuilt from drawing commands alone.

Exit codes:
  0 - Every snapshot matched
  1 - At least one snapshot differs
  2 - Command error (database not found, etc.)

Examples:
  stepviz replay --db ./stepviz.db
  stepviz replay --db ./stepviz.db --session demo
  stepviz replay --db ./stepviz.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var ids []string
	if opts.Session != "" {
		if _, err := st.ReadSession(ctx, opts.Session); err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		ids = []string{opts.Session}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(ids)),
		TotalSessions:    len(ids),
		AllDeterministic: true,
	}

	if len(ids) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in database.")
		return nil
	}

	for _, id := range ids {
		sr, err := replaySession(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}
		result.Sessions = append(result.Sessions, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.AllDeterministic {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeReplay, Message: "replayed scenes differ from the journal"}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result, opts.Verbose)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay mismatch")
	}
	return nil
}

// journalEntry is a command or snapshot record in seq order.
type journalEntry struct {
	seq      int64
	command  *store.CommandRecord
	snapshot *store.SnapshotRecord
}

// replaySession rebuilds one session's scene on a scratch Player. Pending
// commands are flushed at every snapshot and the scene hash compared.
func replaySession(ctx context.Context, st *store.Store, id string) (ReplaySessionResult, error) {
	commands, err := st.ReadCommands(ctx, id)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	snapshots, err := st.ReadSnapshots(ctx, id)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	entries := make([]journalEntry, 0, len(commands)+len(snapshots))
	for i := range commands {
		entries = append(entries, journalEntry{seq: commands[i].Seq, command: &commands[i]})
	}
	for i := range snapshots {
		entries = append(entries, journalEntry{seq: snapshots[i].Seq, snapshot: &snapshots[i]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	p := engine.NewPlayer(engine.WithLogger(quietLogger()))
	result := ReplaySessionResult{
		Session:       id,
		Commands:      len(commands),
		Snapshots:     len(snapshots),
		Deterministic: true,
	}

	var pending []ir.Command
	for _, e := range entries {
		if e.command != nil {
			c, err := ir.Decode(e.command.Encoded)
			if err != nil {
				return result, fmt.Errorf("seq %d: %w", e.seq, err)
			}
			pending = append(pending, c)
			continue
		}

		p.ApplyCommandsImmediately(pending)
		pending = pending[:0]

		actual, err := ir.SceneHash(p.Scene().Values())
		if err != nil {
			return result, err
		}
		if actual != e.snapshot.SceneHash {
			result.Deterministic = false
			result.Mismatches = append(result.Mismatches, ReplayMismatch{
				Seq:       e.seq,
				StepIndex: e.snapshot.StepIndex,
				Expected:  e.snapshot.SceneHash,
				Actual:    actual,
			})
		}
	}
	return result, nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replaying %d session(s)...\n\n", result.TotalSessions)
	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d commands, %d snapshots\n", status, s.Session, s.Commands, s.Snapshots)
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "    step %d (seq %d): expected %s, got %s\n", m.StepIndex, m.Seq, m.Expected, m.Actual)
		}
		if verbose && s.Deterministic {
			fmt.Fprintf(w, "    all %d snapshots reproduced\n", s.Snapshots)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions replay deterministically")
	} else {
		fmt.Fprintln(w, "✗ Replay differs from the journal")
	}
}
