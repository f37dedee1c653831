package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/ir"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startJournal(t *testing.T, s *Store, id string) *Journal {
	t.Helper()
	j, err := s.StartJournal(context.Background(), Session{ID: id, Algorithm: "test", SpeedMS: 500},
		WithJournalLogger(quietLogger()))
	require.NoError(t, err)
	return j
}

func TestStartJournal_FillsVersions(t *testing.T) {
	s := createTestStore(t)
	j := startJournal(t, s, "s1")

	sess, err := s.ReadSession(context.Background(), j.SessionID())
	require.NoError(t, err)
	assert.Equal(t, ir.EngineVersion, sess.EngineVersion)
	assert.Equal(t, ir.CodecVersion, sess.CodecVersion)
}

func TestJournal_RecordsPlayback(t *testing.T) {
	s := createTestStore(t)
	j := startJournal(t, s, "s1")
	ctx := context.Background()

	p := engine.NewPlayer(engine.WithObserver(j), engine.WithLogger(quietLogger()))
	require.True(t, p.StartNewAnimation(
		ir.CreateLabel{ID: 0, Text: "A"},
		ir.Step{},
		ir.Unknown{Command: "Explode"},
	))
	require.True(t, p.SkipForward())
	require.NoError(t, j.Err())

	cmds, err := s.ReadCommands(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	assert.Equal(t, "CreateLabel<;>0<;>A<;>0<;>0", cmds[0].Encoded)
	assert.Equal(t, "Step", cmds[1].Encoded)
	assert.Equal(t, 2, cmds[2].Cursor)
	assert.Equal(t, string(engine.ErrCodeUnknownCommand), cmds[2].ErrorCode)
	assert.NotEmpty(t, cmds[2].Error)

	snaps, err := s.ReadSnapshots(ctx, "s1")
	require.NoError(t, err)
	var indexes []int
	for _, snap := range snaps {
		indexes = append(indexes, snap.StepIndex)
	}
	assert.Equal(t, []int{2, 3}, indexes)
	assert.Equal(t, ir.MustSceneHash(p.Scene().Values()), snaps[1].SceneHash)
}

func TestJournal_SeqIsTotalOrder(t *testing.T) {
	s := createTestStore(t)
	j := startJournal(t, s, "s1")
	ctx := context.Background()

	p := engine.NewPlayer(engine.WithObserver(j), engine.WithLogger(quietLogger()))
	require.True(t, p.StartNewAnimation(ir.CreateLabel{ID: 0}, ir.Step{}))
	p.SkipForward()

	cmds, err := s.ReadCommands(ctx, "s1")
	require.NoError(t, err)
	snaps, err := s.ReadSnapshots(ctx, "s1")
	require.NoError(t, err)

	require.Len(t, cmds, 2)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(1), cmds[0].Seq)
	assert.Equal(t, int64(2), cmds[1].Seq)
	assert.Equal(t, int64(3), snaps[0].Seq)
}

func TestJournal_RecordsHistory(t *testing.T) {
	s := createTestStore(t)
	j := startJournal(t, s, "s1")

	p := engine.NewPlayer(engine.WithLogger(quietLogger()))
	c := history.New(p, nil, history.WithListener(j), history.WithLogger(quietLogger()))
	label := history.Action{Name: "label", Run: func(arg string) []ir.Command {
		return []ir.Command{ir.CreateLabel{ID: p.GetNextID(), Text: arg}, ir.Step{}}
	}}

	require.True(t, c.Implement(label, "X"))
	p.SkipForward()
	require.True(t, c.Undo())

	actions, err := s.ReadActions(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []ActionRecord{
		{Seq: 1, Kind: ActionDo, Name: "label", Arg: "X"},
		{Seq: 2, Kind: ActionUndo, Name: "label", Arg: "X"},
	}, actions)
}

func TestStartJournal_ResumesClock(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	j1 := startJournal(t, s, "s1")
	j1.ActionRecorded(history.Entry{Action: history.Action{Name: "push"}, Arg: "A"})

	j2 := startJournal(t, s, "s1")
	j2.ActionRecorded(history.Entry{Action: history.Action{Name: "push"}, Arg: "B"})

	actions, err := s.ReadActions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, int64(2), actions[1].Seq)
}

func TestJournal_KeepsFirstError(t *testing.T) {
	s := createTestStore(t)
	j := startJournal(t, s, "s1")
	require.NoError(t, s.Close())

	j.ActionRecorded(history.Entry{Action: history.Action{Name: "push"}, Arg: "A"})
	first := j.Err()
	require.Error(t, first)

	j.ActionUndone(history.Entry{Action: history.Action{Name: "push"}, Arg: "A"})
	assert.Equal(t, first, j.Err())
}
