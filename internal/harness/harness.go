package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/stepviz/internal/algo"
	_ "github.com/roach88/stepviz/internal/algo/stack"
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/script"
	"github.com/roach88/stepviz/internal/store"
	"github.com/roach88/stepviz/internal/testutil"
)

// Defaults applied when a scenario leaves them unset.
const (
	DefaultSpeedMS = 500
	DefaultFrameMS = 10

	// MaxPlayTicks bounds a single play control. A scenario that needs more
	// ticks than this is treated as hung.
	MaxPlayTicks = 100000
)

// Harness is the scenario execution engine.
// It runs one scenario against a real Player with a deterministic clock
// and session id.
type Harness struct {
	scenario *Scenario
	player   *engine.Player
	session  *algo.Session
	commands []ir.Command
	clock    *testutil.FakeClock
	frame    time.Duration
	store    *store.Store
	journal  *store.Journal
	tracer   *tracer
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory journal
//  2. Build the algorithm session or load the script
//  3. Execute steps, checking accepted expectations
//  4. Evaluate assertions against the final scene, state and trace
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for journal writes.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	result := NewResult()
	h, err := newHarness(ctx, scenario, st, result)
	if err != nil {
		return nil, err
	}

	if err := h.executeSteps(result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	if err := h.journal.Err(); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	if h.session != nil {
		result.State = h.session.Algorithm.State()
	}
	result.SceneHash, err = ir.SceneHash(h.player.GetObjects())
	if err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Player:  h.player,
		State:   result.State,
		Store:   st,
		Session: h.journal.SessionID(),
		Ctx:     ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario, st *store.Store, result *Result) (*Harness, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	speed := scenario.SpeedMS
	if speed == 0 {
		speed = DefaultSpeedMS
	}
	frame := scenario.FrameMS
	if frame == 0 {
		frame = DefaultFrameMS
	}

	sessionID := testutil.NewFixedSessionGenerator(scenario.Session).Generate()
	journal, err := st.StartJournal(ctx, store.Session{
		ID:        sessionID,
		Algorithm: scenario.Algorithm,
		SpeedMS:   speed,
	}, store.WithJournalLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to start journal: %w", err)
	}

	h := &Harness{
		scenario: scenario,
		clock:    testutil.NewFakeClock(),
		frame:    time.Duration(frame) * time.Millisecond,
		store:    st,
		journal:  journal,
		tracer:   &tracer{journal: journal, clock: engine.NewClock(), result: result},
		logger:   logger,
	}

	playerOpts := []engine.Option{
		engine.WithSpeed(time.Duration(speed) * time.Millisecond),
		engine.WithObserver(h.tracer),
		engine.WithLogger(logger),
	}

	if scenario.Script != "" {
		s, err := script.LoadFile(scenario.Script)
		if err != nil {
			return nil, fmt.Errorf("failed to load script: %w", err)
		}
		h.commands = s.Commands()
		h.player = engine.NewPlayer(playerOpts...)
	}

	if scenario.Algorithm != "" {
		sess, err := algo.NewSession(scenario.Algorithm, algo.SessionOptions{
			Player: playerOpts,
			History: []history.Option{
				history.WithListener(h.tracer),
				history.WithLogger(logger),
			},
		})
		if err != nil {
			return nil, err
		}
		h.session = sess
		h.player = sess.Player
	}
	return h, nil
}

// executeSteps runs every step in order. Refusals are recorded, not
// returned: they are often the behavior under test.
func (h *Harness) executeSteps(result *Result) error {
	for i, step := range h.scenario.Steps {
		accepted, err := h.executeStep(step)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Accepted != nil && *step.Accepted != accepted {
			result.AddError(fmt.Sprintf("steps[%d]: expected accepted=%t, got %t", i, *step.Accepted, accepted))
		}
		h.logger.Info("step completed",
			"step", i,
			"do", step.Do,
			"control", step.Control,
			"accepted", accepted,
			"state", h.player.State().String(),
		)
	}
	return nil
}

func (h *Harness) executeStep(step Step) (bool, error) {
	p := h.player
	switch {
	case step.Do != "":
		return h.session.Do(step.Do, step.Arg)
	case step.Undo:
		return h.session.Undo(), nil
	}

	switch step.Control {
	case ControlStart:
		return p.StartNewAnimation(h.commands...), nil
	case ControlPlay:
		return h.play()
	case ControlTick:
		for n := 0; n < step.Ticks; n++ {
			p.Tick(h.clock.Advance(h.frame))
		}
		return true, nil
	case ControlSkip:
		return p.SkipForward(), nil
	case ControlStepForward:
		return p.StepForward(), nil
	case ControlStepBack:
		return p.StepBack(), nil
	case ControlPause:
		p.PauseAnimation()
	case ControlResume:
		p.ResumeAnimation()
	case ControlCancel:
		p.Cancel()
	case ControlSpeed:
		p.SetAnimationSpeed(step.SpeedMS)
	default:
		return false, fmt.Errorf("unknown control %q", step.Control)
	}
	return true, nil
}

// play ticks until the animation finishes or pauses.
func (h *Harness) play() (bool, error) {
	p := h.player
	if !p.IsAnimating() {
		return false, nil
	}
	for n := 0; n < MaxPlayTicks; n++ {
		if !p.Tick(h.clock.Advance(h.frame)) || p.IsPaused() {
			return true, nil
		}
	}
	return false, fmt.Errorf("animation still running after %d ticks", MaxPlayTicks)
}

// tracer appends trace events and forwards every notification to the
// journal. Its seq runs in lockstep with the journal's.
type tracer struct {
	journal *store.Journal
	clock   *engine.Clock
	result  *Result
}

func (t *tracer) add(e TraceEvent) {
	e.Seq = t.clock.Next()
	t.result.Trace = append(t.result.Trace, e)
}

func (t *tracer) CommandExecuted(index int, c ir.Command, err error) {
	e := TraceEvent{Type: EventCommand, Command: ir.Encode(c), Cursor: index}
	if err != nil {
		e.Error = string(engine.ErrorCode(err))
	}
	t.add(e)
	t.journal.CommandExecuted(index, c, err)
}

func (t *tracer) SnapshotTaken(s engine.Snapshot) {
	t.add(TraceEvent{Type: EventSnapshot, StepIndex: s.StepIndex, Objects: len(s.Objects)})
	t.journal.SnapshotTaken(s)
}

func (t *tracer) ActionRecorded(e history.Entry) {
	t.add(TraceEvent{Type: EventDo, Action: e.Action.Name, Arg: e.Arg})
	t.journal.ActionRecorded(e)
}

func (t *tracer) ActionUndone(e history.Entry) {
	t.add(TraceEvent{Type: EventUndo, Action: e.Action.Name, Arg: e.Arg})
	t.journal.ActionUndone(e)
}
