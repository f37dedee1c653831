package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceListSessions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepviz.db")
	journalRun(t, dbPath, "a", "push:X")
	journalRun(t, dbPath, "b", "push:Y")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Sessions (2):")
	assert.Contains(t, out, "  a  stack")
	assert.Contains(t, out, "  b  stack")
}

func TestTraceListSessionsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepviz.db")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions journaled")
}

func TestTraceUnknownSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepviz.db")
	journalRun(t, dbPath, "a", "push:X")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--session", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No session found: zzz")

	out, _, err = execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--session", "zzz")
	require.NoError(t, err)
	resp := decodeData(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestTraceTimeline(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepviz.db")
	journalRun(t, dbPath, "demo", "push:X", "pop", "undo")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--session", "demo")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "demo", resp.Session)
	assert.Equal(t, "stack", result.Algorithm)

	s := result.Stats
	assert.Equal(t, 2, s.Actions)
	assert.Equal(t, 1, s.Undos)
	assert.Greater(t, s.Commands, 0)
	assert.Greater(t, s.Snapshots, 0)
	assert.Equal(t, s.Actions+s.Undos+s.Commands+s.Snapshots, s.TotalEvents)
	require.Len(t, result.Timeline, s.TotalEvents)

	for i := 1; i < len(result.Timeline); i++ {
		assert.Less(t, result.Timeline[i-1].Seq, result.Timeline[i].Seq, "timeline must be in seq order")
	}

	var actions []TraceEvent
	for _, e := range result.Timeline {
		if e.Type == TraceDo || e.Type == TraceUndo {
			actions = append(actions, e)
		}
	}
	require.Len(t, actions, 3)
	assert.Equal(t, TraceDo, actions[0].Type)
	assert.Equal(t, "push", actions[0].Action)
	assert.Equal(t, "X", actions[0].Arg)
	assert.Equal(t, "pop", actions[1].Action)
	assert.Equal(t, TraceUndo, actions[2].Type)
	assert.Equal(t, "pop", actions[2].Action)
}

func TestTraceTypeFilter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepviz.db")
	journalRun(t, dbPath, "demo", "push:X")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--session", "demo", "--type", "snapshot")
	require.NoError(t, err)

	var result TraceResult
	decodeData(t, out, &result)
	require.NotEmpty(t, result.Timeline)
	for _, e := range result.Timeline {
		assert.Equal(t, TraceSnapshot, e.Type)
		assert.Len(t, e.SceneHash, 64)
	}
	// Stats cover the whole session, not the filtered view.
	assert.Greater(t, result.Stats.TotalEvents, len(result.Timeline))
}

func TestTraceUnknownType(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepviz.db")

	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--type", "flow")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepviz.db")
	journalRun(t, dbPath, "demo", "push:X")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--session", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: demo")
	assert.Contains(t, out, "▶ push(X)")
	assert.Contains(t, out, "── step")
	assert.Contains(t, out, "Actions:   1 (0 undone)")
}

func TestComputeStats(t *testing.T) {
	stats := computeStats([]TraceEvent{
		{Seq: 1, Type: TraceDo},
		{Seq: 2, Type: TraceCommand},
		{Seq: 3, Type: TraceCommand, Error: "HANDLER_MISSING"},
		{Seq: 4, Type: TraceSnapshot},
		{Seq: 5, Type: TraceUndo},
	})
	assert.Equal(t, TraceStats{TotalEvents: 5, Actions: 1, Undos: 1, Commands: 2, Failed: 1, Snapshots: 1}, stats)
}
