package stack

import (
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/stepviz/internal/algo"
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*algo.Session, *Stack) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := algo.NewSession(Name, algo.SessionOptions{
		Player: []engine.Option{engine.WithLogger(logger)},
	})
	require.NoError(t, err)
	st, ok := s.Algorithm.(*Stack)
	require.True(t, ok)
	return s, st
}

// do runs an action and plays it to the end.
func do(t *testing.T, s *algo.Session, action, arg string) {
	t.Helper()
	ok, err := s.Do(action, arg)
	require.NoError(t, err)
	require.True(t, ok, "%s %q refused", action, arg)
	s.Player.SkipForward()
}

func text(t *testing.T, s *algo.Session, id ir.ID) string {
	t.Helper()
	o, ok := s.Player.Scene().Get(id)
	require.True(t, ok, "object %d missing", id)
	return o.Text
}

func TestSetup_Layout(t *testing.T) {
	s, st := newSession(t)

	for i := 0; i < Size; i++ {
		cell, ok := s.Player.Scene().Get(st.CellID(i))
		require.True(t, ok)
		assert.Equal(t, ir.KindRectangle, cell.Kind)
		assert.Equal(t, ArrayStartX+i*ArrayElemW, cell.X)
		assert.Equal(t, ArrayStartY, cell.Y)
		assert.Empty(t, cell.Text)
	}
	assert.Equal(t, "0", text(t, s, st.TopID()))
	assert.Empty(t, text(t, s, st.MessageID()))
	assert.Equal(t, engine.StateIdle, s.Player.State())
	assert.True(t, s.Ready())
}

func TestSetup_IndexLabelsAreBlue(t *testing.T) {
	s, st := newSession(t)

	idx, ok := s.Player.Scene().Get(st.indexes[3])
	require.True(t, ok)
	assert.Equal(t, "3", idx.Text)
	assert.Equal(t, IndexColor, idx.TextColor)
}

func TestPush_TwoValues(t *testing.T) {
	s, st := newSession(t)

	do(t, s, "push", "X")
	do(t, s, "push", "Y")

	assert.Equal(t, "X", text(t, s, st.CellID(0)))
	assert.Equal(t, "Y", text(t, s, st.CellID(1)))
	assert.Equal(t, "2", text(t, s, st.TopID()))
	assert.Equal(t, "Pushed: Y", text(t, s, st.MessageID()))
	assert.Equal(t, []string{"X", "Y"}, st.Items())
	assert.Equal(t, 2, st.Top())
}

func TestPush_TemporariesRemoved(t *testing.T) {
	s, _ := newSession(t)
	before := len(s.Player.GetObjects())

	do(t, s, "push", "X")

	assert.Len(t, s.Player.GetObjects(), before)
}

func TestPush_ThreeSteps(t *testing.T) {
	s, _ := newSession(t)

	ok, err := s.Do("push", "X")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 3, ir.CountSteps(s.Player.Commands()))
}

func TestPop_ClearsCellAndDecrementsTop(t *testing.T) {
	s, st := newSession(t)

	do(t, s, "push", "X")
	do(t, s, "push", "Y")
	do(t, s, "pop", "")

	assert.Equal(t, "X", text(t, s, st.CellID(0)))
	assert.Empty(t, text(t, s, st.CellID(1)))
	assert.Equal(t, "1", text(t, s, st.TopID()))
	assert.Equal(t, "Popped: Y", text(t, s, st.MessageID()))
	assert.Equal(t, []string{"X"}, st.Items())
}

func TestPop_TopShowsNewIndexMidAnimation(t *testing.T) {
	s, st := newSession(t)
	do(t, s, "push", "X")

	ok, err := s.Do("pop", "")
	require.NoError(t, err)
	require.True(t, ok)

	s.Player.StepForward()
	s.Player.StepForward()
	assert.Equal(t, "0", text(t, s, st.TopID()))
	assert.Equal(t, 1, st.Top(), "logical top changes only when the pop effect runs")
}

func TestPop_Underflow(t *testing.T) {
	s, st := newSession(t)

	do(t, s, "pop", "")

	assert.Equal(t, MsgUnderflow, text(t, s, st.MessageID()))
	assert.Equal(t, 0, st.Top())
}

func TestPush_Overflow(t *testing.T) {
	s, st := newSession(t)
	for i := 0; i < Size; i++ {
		do(t, s, "push", string(rune('a'+i)))
	}
	require.Equal(t, Size, st.Top())

	do(t, s, "push", "z")

	assert.Equal(t, MsgOverflow, text(t, s, st.MessageID()))
	assert.Equal(t, Size, st.Top())
	assert.Equal(t, "o", text(t, s, st.CellID(Size-1)))
}

func TestPush_EmptyValue(t *testing.T) {
	s, st := newSession(t)

	do(t, s, "push", "  ")

	assert.Equal(t, MsgEmptyPush, text(t, s, st.MessageID()))
	assert.Equal(t, 0, st.Top())
}

func TestClear(t *testing.T) {
	s, st := newSession(t)
	do(t, s, "push", "X")
	do(t, s, "push", "Y")

	do(t, s, "clear", "")

	assert.Empty(t, text(t, s, st.CellID(0)))
	assert.Empty(t, text(t, s, st.CellID(1)))
	assert.Equal(t, "0", text(t, s, st.TopID()))
	assert.Empty(t, st.Items())
}

func TestUndo_MatchesShorterHistory(t *testing.T) {
	s, st := newSession(t)
	do(t, s, "push", "A")
	do(t, s, "push", "B")
	require.True(t, s.Undo())

	ref, refSt := newSession(t)
	do(t, ref, "push", "A")

	assert.Equal(t, ir.MustSceneHash(ref.Player.GetObjects()), ir.MustSceneHash(s.Player.GetObjects()))
	assert.Equal(t, refSt.State(), st.State())
	assert.Equal(t, 1, s.History.Len())
}

func TestUndo_AfterPop(t *testing.T) {
	s, st := newSession(t)
	do(t, s, "push", "A")
	do(t, s, "pop", "")
	require.True(t, s.Undo())

	assert.Equal(t, "A", text(t, s, st.CellID(0)))
	assert.Equal(t, "1", text(t, s, st.TopID()))
	assert.Equal(t, []string{"A"}, st.Items())
}

func TestUndo_MidAnimationDeletesTemporaries(t *testing.T) {
	s, st := newSession(t)
	before := len(s.Player.GetObjects())

	ok, err := s.Do("push", "A")
	require.NoError(t, err)
	require.True(t, ok)
	s.Player.StepForward()
	require.Greater(t, len(s.Player.GetObjects()), before)

	require.True(t, s.Undo())

	assert.Len(t, s.Player.GetObjects(), before)
	assert.Equal(t, 0, st.Top())
	assert.True(t, s.Ready())
}

func TestStepBack_RestoresLogicalState(t *testing.T) {
	s, st := newSession(t)

	ok, err := s.Do("push", "X")
	require.NoError(t, err)
	require.True(t, ok)
	s.Player.StepForward()
	s.Player.StepForward()
	s.Player.StepForward()
	require.Equal(t, 1, st.Top())

	require.True(t, s.Player.StepBack())

	assert.Equal(t, 0, st.Top())
	assert.Empty(t, text(t, s, st.CellID(0)))
	assert.Equal(t, "0", text(t, s, st.TopID()))
}

func TestState(t *testing.T) {
	s, st := newSession(t)
	do(t, s, "push", "X")

	assert.Equal(t, map[string]any{"top": 1, "items": []string{"X"}}, st.State())
}

func TestCellPos_Wraps(t *testing.T) {
	x, y := cellPos(ArrayPerLine + 2)
	assert.Equal(t, ArrayStartX+2*ArrayElemW, x)
	assert.Equal(t, ArrayStartY+ArrayLineSpace, y)
}

func deletes(cmds []ir.Command) int {
	n := 0
	for _, c := range cmds {
		if _, ok := c.(ir.Delete); ok {
			n++
		}
	}
	return n
}

func TestReset_DeletesOnlyLatestTemporaries(t *testing.T) {
	s, st := newSession(t)
	do(t, s, "push", "A")
	do(t, s, "push", "B")
	do(t, s, "pop", "")
	for i := 0; i < 3; i++ {
		require.True(t, s.Undo())
		do(t, s, "push", "C")
	}
	s.Player.Recorder().Drain()

	st.Reset()

	assert.Equal(t, 3, deletes(s.Player.Recorder().Drain()), "one push worth of temporaries")
}

func TestEnabled(t *testing.T) {
	s, st := newSession(t)

	assert.False(t, st.Enabled("push", ""))
	assert.False(t, st.Enabled("push", "  "))
	assert.True(t, st.Enabled("push", "X"))
	assert.False(t, st.Enabled("pop", ""), "empty stack")
	assert.True(t, st.Enabled("clear", ""))

	do(t, s, "push", "X")
	assert.True(t, st.Enabled("pop", ""))
	assert.True(t, s.Enabled("pop", ""))
}

func TestInfo(t *testing.T) {
	s, st := newSession(t)
	assert.Equal(t, []string{"Size: 0 / 15", "Status: Empty", "Top Element: None"}, st.Info())

	do(t, s, "push", "X")
	do(t, s, "push", "Y")
	assert.Equal(t, []string{"Size: 2 / 15", "Status: Available", "Top Element: Y"}, s.Info())

	for i := 2; i < Size; i++ {
		do(t, s, "push", "z")
	}
	assert.Equal(t, "Status: Full", st.Info()[1])
}
