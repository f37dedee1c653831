package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Type     string // optional - filter to one event type
}

// TraceEvent is one journaled event in the session timeline.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"` // "do", "undo", "command" or "snapshot"
	Action    string `json:"action,omitempty"`
	Arg       string `json:"arg,omitempty"`
	Command   string `json:"command,omitempty"`
	Cursor    int    `json:"cursor,omitempty"`
	Error     string `json:"error,omitempty"`
	StepIndex int    `json:"step_index,omitempty"`
	SceneHash string `json:"scene_hash,omitempty"`
	Objects   int    `json:"objects,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session   string       `json:"session"`
	Algorithm string       `json:"algorithm,omitempty"`
	Timeline  []TraceEvent `json:"timeline"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Actions     int `json:"actions"`
	Undos       int `json:"undos"`
	Commands    int `json:"commands"`
	Failed      int `json:"failed"`
	Snapshots   int `json:"snapshots"`
}

// Trace event types.
const (
	TraceDo       = "do"
	TraceUndo     = "undo"
	TraceCommand  = "command"
	TraceSnapshot = "snapshot"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled timeline of a session",
		Long: `Show what happened in a journaled session, in order.

The timeline merges the session's actions, executed commands and step
snapshots by sequence number. Without --session the journaled sessions are
listed instead.

Examples:
  stepviz trace --db ./stepviz.db
  stepviz trace --db ./stepviz.db --session demo
  stepviz trace --db ./stepviz.db --session demo --type command
  stepviz trace --db ./stepviz.db --session demo --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to trace (default: list sessions)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one event type (do|undo|command|snapshot)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	switch opts.Type {
	case "", TraceDo, TraceUndo, TraceCommand, TraceSnapshot:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown event type %q", opts.Type))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, st, opts, cmd)
	}

	sess, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{
				Status: "error",
				Error:  &CLIError{Code: ErrCodeNotFound, Message: err.Error()},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No session found: %s\n", opts.Session)
		return nil
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	timeline, err := buildTimeline(ctx, st, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{
		Session:   sess.ID,
		Algorithm: sess.Algorithm,
		Timeline:  filterTimeline(timeline, opts.Type),
		Stats:     computeStats(timeline),
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, Session: sess.ID})
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTimeline merges the three journal tables into seq order.
func buildTimeline(ctx context.Context, st *store.Store, sessionID string) ([]TraceEvent, error) {
	actions, err := st.ReadActions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	commands, err := st.ReadCommands(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snapshots, err := st.ReadSnapshots(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	timeline := make([]TraceEvent, 0, len(actions)+len(commands)+len(snapshots))
	for _, a := range actions {
		timeline = append(timeline, TraceEvent{
			Seq:    a.Seq,
			Type:   string(a.Kind),
			Action: a.Name,
			Arg:    a.Arg,
		})
	}
	for _, c := range commands {
		timeline = append(timeline, TraceEvent{
			Seq:     c.Seq,
			Type:    TraceCommand,
			Command: c.Encoded,
			Cursor:  c.Cursor,
			Error:   c.ErrorCode,
		})
	}
	for _, s := range snapshots {
		timeline = append(timeline, TraceEvent{
			Seq:       s.Seq,
			Type:      TraceSnapshot,
			StepIndex: s.StepIndex,
			SceneHash: s.SceneHash,
			Objects:   len(s.Objects),
		})
	}

	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Seq < timeline[j].Seq
	})
	return timeline, nil
}

func filterTimeline(timeline []TraceEvent, typ string) []TraceEvent {
	if typ == "" {
		return timeline
	}
	filtered := []TraceEvent{}
	for _, e := range timeline {
		if e.Type == typ {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func computeStats(timeline []TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(timeline)}
	for _, e := range timeline {
		switch e.Type {
		case TraceDo:
			stats.Actions++
		case TraceUndo:
			stats.Undos++
		case TraceCommand:
			stats.Commands++
			if e.Error != "" {
				stats.Failed++
			}
		case TraceSnapshot:
			stats.Snapshots++
		}
	}
	return stats
}

func listSessions(ctx context.Context, st *store.Store, opts *TraceOptions, cmd *cobra.Command) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if opts.Format == "json" {
		type sessionInfo struct {
			ID        string `json:"id"`
			Algorithm string `json:"algorithm,omitempty"`
			SpeedMS   int    `json:"speed_ms"`
		}
		infos := make([]sessionInfo, 0, len(sessions))
		for _, s := range sessions {
			infos = append(infos, sessionInfo{ID: s.ID, Algorithm: s.Algorithm, SpeedMS: s.SpeedMS})
		}
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: infos})
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions journaled")
		return nil
	}
	fmt.Fprintf(w, "Sessions (%d):\n", len(sessions))
	for _, s := range sessions {
		algorithm := s.Algorithm
		if algorithm == "" {
			algorithm = "script"
		}
		fmt.Fprintf(w, "  %s  %s  %dms\n", s.ID, algorithm, s.SpeedMS)
	}
	return nil
}

func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Session: %s\n", result.Session)
	if result.Algorithm != "" {
		fmt.Fprintf(w, "Algorithm: %s\n", result.Algorithm)
	}
	fmt.Fprintf(w, "Events: %d\n", len(result.Timeline))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, e := range result.Timeline {
		switch e.Type {
		case TraceDo:
			fmt.Fprintf(w, "[%d] ▶ %s(%s)\n", e.Seq, e.Action, e.Arg)
		case TraceUndo:
			fmt.Fprintf(w, "[%d] ↶ undo %s(%s)\n", e.Seq, e.Action, e.Arg)
		case TraceCommand:
			if e.Error != "" {
				fmt.Fprintf(w, "[%d]   ✗ %s (%s)\n", e.Seq, e.Command, e.Error)
			} else {
				fmt.Fprintf(w, "[%d]   %s\n", e.Seq, e.Command)
			}
		case TraceSnapshot:
			if verbose {
				fmt.Fprintf(w, "[%d]   ── step %d, %d objects, %s\n", e.Seq, e.StepIndex, e.Objects, e.SceneHash)
			} else {
				fmt.Fprintf(w, "[%d]   ── step %d\n", e.Seq, e.StepIndex)
			}
		}
	}
	fmt.Fprintln(w)

	s := result.Stats
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Actions:   %d (%d undone)\n", s.Actions, s.Undos)
	fmt.Fprintf(w, "  Commands:  %d (%d failed)\n", s.Commands, s.Failed)
	fmt.Fprintf(w, "  Snapshots: %d\n", s.Snapshots)
	return nil
}
