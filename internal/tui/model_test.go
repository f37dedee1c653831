package tui

import (
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepviz/internal/algo"
	_ "github.com/roach88/stepviz/internal/algo/stack"
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/render"
	"github.com/roach88/stepviz/internal/testutil"
)

var painter = render.Painter{Width: 100, Height: 30, ScaleX: 8, ScaleY: 16}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStackModel(t *testing.T) Model {
	t.Helper()
	sess, err := algo.NewSession("stack", algo.SessionOptions{
		Player: []engine.Option{
			engine.WithSpeed(100 * time.Millisecond),
			engine.WithLogger(quietLogger()),
		},
	})
	require.NoError(t, err)
	return New(Options{Title: "stack", Session: sess, Painter: painter, Logger: quietLogger()})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msgs through Update in order.
func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func push(t *testing.T, m Model, value string) Model {
	t.Helper()
	return send(t, m, runes("i"), runes(value), tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModel_PushThroughValueField(t *testing.T) {
	m := newStackModel(t)

	m = push(t, m, "X")
	assert.False(t, m.Inputting())
	assert.Equal(t, "push(X)", m.Status())
	assert.True(t, m.Player().IsAnimating())

	m = send(t, m, runes("s"))
	assert.Equal(t, engine.StateFinished, m.Player().State())
	assert.Equal(t, []string{"X"}, m.session.Algorithm.State()["items"])
}

func TestModel_ActionRefusedWhileAnimating(t *testing.T) {
	m := newStackModel(t)

	m = push(t, m, "X")
	m = send(t, m, runes("2"))

	assert.Contains(t, m.Status(), "busy")
	assert.Equal(t, 1, m.session.History.Len())
}

func TestModel_NumberKeysRunActions(t *testing.T) {
	m := newStackModel(t)

	m = push(t, m, "X")
	m = send(t, m, runes("s"), runes("2"), runes("s"))

	assert.Equal(t, "pop", m.Status())
	assert.Equal(t, 0, m.session.Algorithm.State()["top"])
	assert.Equal(t, 2, m.session.History.Len())
}

func TestModel_NoOpActionsStayOutOfHistory(t *testing.T) {
	m := newStackModel(t)

	m = push(t, m, "A")
	m = send(t, m, runes("s"))
	m = push(t, m, "  ")
	assert.Equal(t, "push: not available", m.Status())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc}, runes("1"))
	assert.Equal(t, "push: not available", m.Status(), "number key pushes without a value")

	m = send(t, m, runes("2"), runes("s"), runes("2"))
	assert.Equal(t, "pop: not available", m.Status())
	assert.Equal(t, 2, m.session.History.Len())

	m = send(t, m, runes("u"))
	assert.Equal(t, []string{"A"}, m.session.Algorithm.State()["items"])
}

func TestModel_Undo(t *testing.T) {
	m := newStackModel(t)

	m = push(t, m, "X")
	m = send(t, m, runes("s"), runes("u"))
	assert.Equal(t, "undone", m.Status())
	assert.Equal(t, 0, m.session.Algorithm.State()["top"])

	m = send(t, m, runes("u"))
	assert.Equal(t, "nothing to undo", m.Status())
}

func TestModel_EscapeLeavesInput(t *testing.T) {
	m := newStackModel(t)

	m = send(t, m, runes("i"))
	require.True(t, m.Inputting())

	m = send(t, m, runes("1"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Inputting())
	assert.Equal(t, 0, m.session.History.Len(), "keys typed into the field must not run actions")
}

func TestModel_PauseToggle(t *testing.T) {
	m := newStackModel(t)
	m = push(t, m, "X")

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.Player().IsPaused())

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.Player().IsPaused())
}

func TestModel_StepBackAndForward(t *testing.T) {
	m := newStackModel(t)
	m = push(t, m, "X")
	m = send(t, m, runes("s"))
	steps := len(m.Player().Snapshots())
	require.Greater(t, steps, 1)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Len(t, m.Player().Snapshots(), steps-1)
	assert.True(t, m.Player().IsPaused())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Len(t, m.Player().Snapshots(), steps)
}

func TestModel_SpeedKeys(t *testing.T) {
	m := newStackModel(t)

	m = send(t, m, runes("-"))
	assert.Equal(t, 200, m.Player().AnimationSpeed())

	m = send(t, m, runes("+"), runes("+"), runes("+"))
	assert.Equal(t, MinSpeedMS, m.Player().AnimationSpeed())
}

func TestModel_TicksPlayScript(t *testing.T) {
	p := engine.NewPlayer(
		engine.WithSpeed(100*time.Millisecond),
		engine.WithLogger(quietLogger()),
	)
	cmds := []ir.Command{
		ir.CreateRectangle{ID: 0, Text: "A", Width: 50, Height: 50, X: 100, Y: 100},
		ir.Step{},
		ir.Move{ID: 0, X: 200, Y: 100},
	}
	m := New(Options{Title: "script", Player: p, Commands: cmds, Painter: painter})
	require.True(t, p.IsAnimating())

	clock := testutil.NewFakeClock()
	for i := 0; i < 20; i++ {
		m = send(t, m, tickMsg(clock.Advance(25*time.Millisecond)))
	}

	assert.Equal(t, engine.StateFinished, p.State())
	o, ok := p.Scene().Get(0)
	require.True(t, ok)
	assert.Equal(t, 200, o.X)
}

func TestModel_RestartScript(t *testing.T) {
	p := engine.NewPlayer(engine.WithLogger(quietLogger()))
	cmds := []ir.Command{
		ir.CreateRectangle{ID: 0, Text: "A", Width: 50, Height: 50, X: 100, Y: 100},
		ir.Step{},
		ir.Move{ID: 0, X: 200, Y: 100},
	}
	m := New(Options{Title: "script", Player: p, Commands: cmds, Painter: painter})

	m = send(t, m, runes("s"))
	require.Equal(t, engine.StateFinished, p.State())

	m = send(t, m, runes("r"))
	assert.True(t, p.IsAnimating())
	assert.Equal(t, 0, p.Scene().Len())
}

func TestModel_View(t *testing.T) {
	m := newStackModel(t)
	view := m.View()

	assert.Contains(t, view, "stepviz · stack")
	assert.Contains(t, view, "1:push")
	assert.Contains(t, view, "3:clear")
	assert.Contains(t, view, "speed 100ms")
	assert.Contains(t, view, "Size: 0 / 15")
	assert.Contains(t, view, "Status: Empty")
	assert.Contains(t, view, "Top Element: None")

	m = push(t, m, "Q")
	m = send(t, m, runes("s"))
	view = m.View()
	assert.Contains(t, view, "Size: 1 / 15")
	assert.Contains(t, view, "Top Element: Q")
}

func TestModel_Quit(t *testing.T) {
	m := newStackModel(t)

	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Empty(t, next.View())
}
