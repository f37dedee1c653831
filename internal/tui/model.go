// Package tui is the interactive player: a bubbletea program that hosts
// the painter, ticks the Player on a frame timer and maps keys to the
// page-level controls.
//
// The Player is single-goroutine. Every call into it happens inside
// Update, which bubbletea runs on one goroutine.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/stepviz/internal/algo"
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/render"
)

// Speed bounds for the faster and slower keys, in milliseconds.
const (
	MinSpeedMS  = 50
	MaxSpeedMS  = 5000
	SpeedStepMS = 100
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	readyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)

// Options configures a Model. Exactly one of Session and Commands drives
// the Player: an algorithm session or a script's command log.
type Options struct {
	Title    string
	Session  *algo.Session
	Player   *engine.Player // required with Commands
	Commands []ir.Command
	Painter  render.Painter
	Frame    time.Duration
	Color    bool
	Logger   *slog.Logger
}

type tickMsg time.Time

// Model is the bubbletea model.
type Model struct {
	title    string
	session  *algo.Session
	player   *engine.Player
	commands []ir.Command
	actions  []string
	painter  render.Painter
	frame    time.Duration
	color    bool
	logger   *slog.Logger

	input    textinput.Model
	help     help.Model
	status   string
	failed   bool
	quitting bool
}

// New builds a Model. A script's animation starts immediately.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "value"
	ti.CharLimit = 8
	ti.Width = 12

	m := Model{
		title:    opts.Title,
		session:  opts.Session,
		player:   opts.Player,
		commands: opts.Commands,
		painter:  opts.Painter,
		frame:    opts.Frame,
		color:    opts.Color,
		logger:   opts.Logger,
		input:    ti,
		help:     help.New(),
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.frame <= 0 {
		m.frame = 33 * time.Millisecond
	}
	if m.session != nil {
		m.player = m.session.Player
		for _, a := range m.session.Algorithm.Actions() {
			m.actions = append(m.actions, a.Name)
		}
	} else if m.player != nil {
		m.player.StartNewAnimation(m.commands...)
	}
	return m
}

// Player returns the driven Player.
func (m Model) Player() *engine.Player {
	return m.player
}

// Status returns the last status message.
func (m Model) Status() string {
	return m.status
}

// Inputting reports whether the value field has focus.
func (m Model) Inputting() bool {
	return m.input.Focused()
}

// Init starts the frame timer.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles keys, window resizes and frame ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.player.Tick(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.input.Focused() {
		return m.inputKey(msg)
	}

	p := m.player
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Input):
		if m.session != nil {
			cmd := m.input.Focus()
			return m, cmd
		}
	case key.Matches(msg, keys.Actions):
		i := int(msg.String()[0] - '1')
		if i < len(m.actions) {
			m.runAction(m.actions[i], "")
		}
	case key.Matches(msg, keys.Undo):
		m.undo()
	case key.Matches(msg, keys.Forward):
		p.PauseAnimation()
		if !p.StepForward() {
			m.setStatus("at the last step", false)
		}
	case key.Matches(msg, keys.Back):
		if !p.StepBack() {
			m.setStatus("at the first step", false)
		}
		p.PauseAnimation()
	case key.Matches(msg, keys.Pause):
		if p.IsPaused() {
			p.ResumeAnimation()
		} else {
			p.PauseAnimation()
		}
	case key.Matches(msg, keys.Skip):
		p.SkipForward()
	case key.Matches(msg, keys.Faster):
		p.SetAnimationSpeed(max(MinSpeedMS, p.AnimationSpeed()-SpeedStepMS))
	case key.Matches(msg, keys.Slower):
		p.SetAnimationSpeed(min(MaxSpeedMS, p.AnimationSpeed()+SpeedStepMS))
	case key.Matches(msg, keys.Restart):
		if m.session == nil {
			p.Cancel()
			p.ResetAnimation()
			p.StartNewAnimation(m.commands...)
		}
	}
	return m, nil
}

func (m Model) inputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.Submit):
		value := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if len(m.actions) > 0 && m.runAction(m.actions[0], value) {
			m.input.Reset()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runAction runs an algorithm action if the controls are enabled.
func (m *Model) runAction(name, arg string) bool {
	if m.session == nil {
		return false
	}
	if !m.session.Ready() {
		m.setStatus("busy: finish or skip the current animation", true)
		return false
	}
	if !m.session.Enabled(name, arg) {
		m.setStatus(name+": not available", true)
		return false
	}
	ok, err := m.session.Do(name, arg)
	if err != nil {
		m.logger.Warn("action failed", "action", name, "arg", arg, "error", err)
		m.setStatus(err.Error(), true)
		return false
	}
	if !ok {
		m.setStatus("busy: animation pending", true)
		return false
	}
	if arg != "" {
		m.setStatus(fmt.Sprintf("%s(%s)", name, arg), false)
	} else {
		m.setStatus(name, false)
	}
	return true
}

func (m *Model) undo() {
	if m.session == nil {
		return
	}
	if m.session.Undo() {
		m.setStatus("undone", false)
	} else {
		m.setStatus("nothing to undo", false)
	}
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

// View renders the title, canvas, status line, value field and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render("stepviz · " + m.title))
	b.WriteString("\n")

	canvas := m.painter.Paint(m.player.GetObjects())
	frame := canvas.String()
	if m.color {
		frame = canvas.Styled()
	}
	b.WriteString(frameStyle.Render(strings.TrimRight(frame, "\n")))
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	if m.session != nil {
		if info := m.session.Info(); len(info) > 0 {
			b.WriteString(infoStyle.Render(strings.Join(info, "  ·  ")))
			b.WriteString("\n")
		}
	}

	if m.session != nil {
		b.WriteString(m.input.View())
		b.WriteString("  ")
		b.WriteString(statusStyle.Render(m.actionLegend()))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) statusLine() string {
	p := m.player
	state := p.State().String()
	indicator := readyStyle.Render("● " + state)
	if p.IsAnimating() && !p.IsPaused() {
		indicator = busyStyle.Render("● " + state)
	}

	line := fmt.Sprintf("%s  step %d/%d  speed %dms  objects %d",
		indicator,
		p.CurrentStep(),
		p.TotalSteps(),
		p.AnimationSpeed(),
		p.Scene().Len(),
	)
	if m.status != "" {
		style := statusStyle
		if m.failed {
			style = errStyle
		}
		line += "  " + style.Render(m.status)
	}
	return line
}

func (m Model) actionLegend() string {
	parts := make([]string, len(m.actions))
	for i, a := range m.actions {
		parts[i] = fmt.Sprintf("%d:%s", i+1, a)
	}
	return strings.Join(parts, "  ")
}

// Run starts the program on the terminal and blocks until it quits.
func Run(m Model, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	_, err := p.Run()
	return err
}
