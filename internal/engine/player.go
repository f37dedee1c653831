package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/stepviz/internal/ir"
)

// DefaultSpeed is the default animation speed: the duration of one Move.
const DefaultSpeed = 500 * time.Millisecond

// State is the Player's playback state.
type State int

const (
	// StateIdle means no animation is loaded and nothing is recorded.
	StateIdle State = iota

	// StateRecording means commands are recorded but no animation has
	// adopted them yet.
	StateRecording

	// StatePlaying means the continuous loop is running.
	StatePlaying

	// StatePaused means steps remain but the continuous loop is suspended,
	// either by PauseAnimation or because the user stepped back.
	StatePaused

	// StateFinished means every command of the animation has executed.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Observer receives notifications as the Player executes. Implementations
// must not call back into the Player.
type Observer interface {
	// CommandExecuted is called after every command, including Step
	// markers. err is non-nil when the command failed.
	CommandExecuted(index int, c ir.Command, err error)

	// SnapshotTaken is called after a snapshot is recorded.
	SnapshotTaken(s Snapshot)
}

// Player is the playback scheduler.
//
// A Player owns the scene, the recorder, the effect registry and the
// snapshot stack, and is the only code that mutates them. It executes one
// animation (command log) at a time under continuous play, single-step,
// skip and immediate modes.
//
// Thread-safety model: Player is single-goroutine. Tick, Run and every
// control operation must be called from the same goroutine. Effect handlers
// run inside that goroutine and must not call control operations; such
// calls are refused and logged.
//
// INVARIANTS:
//   - At most one animation is active; StartNewAnimation is the only
//     admission gate.
//   - cursor only moves at step boundaries; exec is the next command to run
//     and may sit inside the current step.
//   - Exactly one snapshot is pushed per step boundary crossed forward.
type Player struct {
	scene     *Scene
	ids       *IDAllocator
	rec       *Recorder
	effects   *Effects
	snapshots Snapshots

	commands  []ir.Command
	cursor    int
	exec      int
	playing   bool
	paused    bool
	cancelled bool

	speed     time.Duration
	stepDwell time.Duration
	dwellLeft time.Duration
	motion    *motion
	lastTick  time.Time

	inHandler bool
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithSpeed sets the initial animation speed.
func WithSpeed(d time.Duration) Option {
	return func(p *Player) {
		p.speed = d
	}
}

// WithStepDwell sets a pause inserted after every step during continuous
// play. Default: 0 (the next step starts on the following tick).
func WithStepDwell(d time.Duration) Option {
	return func(p *Player) {
		p.stepDwell = d
	}
}

// WithObserver registers an execution observer.
func WithObserver(o Observer) Option {
	return func(p *Player) {
		p.observer = o
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) {
		p.logger = l
	}
}

// WithIDAllocator shares an allocator between players.
func WithIDAllocator(a *IDAllocator) Option {
	return func(p *Player) {
		p.ids = a
	}
}

// NewPlayer creates an idle Player with an empty scene.
func NewPlayer(opts ...Option) *Player {
	p := &Player{
		scene:   NewScene(),
		ids:     NewIDAllocator(),
		rec:     NewRecorder(),
		effects: NewEffects(),
		speed:   DefaultSpeed,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// GetNextID returns a fresh object identifier.
func (p *Player) GetNextID() ir.ID {
	return p.ids.NextID()
}

// Emit records a command for the next animation and returns its encoding.
func (p *Player) Emit(c ir.Command) string {
	return p.rec.Emit(c)
}

// Cmd records a command by name for the next animation and returns its
// encoding. Arguments are not validated until execution.
func (p *Player) Cmd(name string, args ...any) string {
	return p.rec.Cmd(name, args...)
}

// Recorder returns the in-progress command log.
func (p *Player) Recorder() *Recorder {
	return p.rec
}

// Effects returns the effect registry.
func (p *Player) Effects() *Effects {
	return p.effects
}

// RegisterInternalHandler binds fn to Internal commands named name and
// returns a func that unbinds it.
func (p *Player) RegisterInternalHandler(name string, fn HandlerFunc) func() {
	return p.effects.Register(name, fn).Unregister
}

// GetObjects returns the scene sorted by ascending layer.
func (p *Player) GetObjects() []ir.Object {
	return p.scene.Objects()
}

// Scene returns the scene store for read access.
func (p *Player) Scene() *Scene {
	return p.scene
}

// ObjectsVersion increments on every scene mutation.
func (p *Player) ObjectsVersion() uint64 {
	return p.scene.Version()
}

// State returns the current playback state.
func (p *Player) State() State {
	switch {
	case p.playing && p.paused:
		return StatePaused
	case p.playing:
		return StatePlaying
	case !p.cancelled && p.cursor < len(p.commands):
		return StatePaused
	case p.rec.Len() > 0:
		return StateRecording
	case !p.cancelled && len(p.commands) > 0:
		return StateFinished
	default:
		return StateIdle
	}
}

// IsAnimating reports whether the continuous loop is engaged.
func (p *Player) IsAnimating() bool {
	return p.playing
}

// IsPaused reports whether the pause flag is set.
func (p *Player) IsPaused() bool {
	return p.paused
}

// IsAtLatestSnapshot reports whether the cursor sits on the most recent
// snapshot. Callers use it to refuse new actions while the user is viewing
// an earlier step.
func (p *Player) IsAtLatestSnapshot() bool {
	return p.snapshots.IsAtLatest(p.cursor)
}

// CurrentStep returns the cursor: the number of commands consumed by
// completed steps.
func (p *Player) CurrentStep() int {
	return p.cursor
}

// TotalSteps returns the length of the active command log.
func (p *Player) TotalSteps() int {
	return len(p.commands)
}

// Commands returns a copy of the active command log.
func (p *Player) Commands() []ir.Command {
	return append([]ir.Command(nil), p.commands...)
}

// Snapshots returns the snapshot stack, bottom to top.
func (p *Player) Snapshots() []Snapshot {
	return p.snapshots.All()
}

// AnimationSpeed returns the animation speed in milliseconds.
func (p *Player) AnimationSpeed() int {
	return int(p.speed / time.Millisecond)
}

// SetAnimationSpeed sets the animation speed in milliseconds. Move
// durations never drop below MinMoveDuration.
func (p *Player) SetAnimationSpeed(ms int) {
	if ms < 0 {
		ms = 0
	}
	p.speed = time.Duration(ms) * time.Millisecond
}

// CanStart reports whether StartNewAnimation would admit a new animation.
func (p *Player) CanStart() bool {
	if p.cancelled {
		return true
	}
	return !p.playing && p.cursor >= len(p.commands)
}

// StartNewAnimation adopts cmds as the active animation and engages
// continuous play. With no cmds it adopts the recorded log. Either way the
// recorder is cleared for the next action.
//
// It refuses, changing nothing, while an animation is playing or has
// unconsumed steps. A cancelled animation never blocks admission.
func (p *Player) StartNewAnimation(cmds ...ir.Command) bool {
	if !p.guard("StartNewAnimation") {
		return false
	}
	if !p.CanStart() {
		p.logger.Debug("animation refused",
			"playing", p.playing,
			"cursor", p.cursor,
			"total", len(p.commands),
		)
		return false
	}

	recorded := p.rec.Drain()
	if len(cmds) == 0 {
		cmds = recorded
	}

	p.commands = append([]ir.Command(nil), cmds...)
	p.cursor = 0
	p.exec = 0
	p.cancelled = false
	p.paused = false
	p.playing = true
	p.motion = nil
	p.dwellLeft = 0
	p.lastTick = time.Time{}
	p.snapshots.Reset(p.capture(0))

	p.logger.Debug("animation started",
		"commands", len(p.commands),
		"steps", ir.CountSteps(p.commands),
	)
	return true
}

// PauseAnimation suspends continuous play. The loop resumes exactly where
// it stopped, including inside a Move.
func (p *Player) PauseAnimation() {
	p.paused = true
}

// ResumeAnimation clears the pause flag. If steps remain (for example after
// StepBack) continuous play is re-engaged.
func (p *Player) ResumeAnimation() {
	if !p.guard("ResumeAnimation") {
		return
	}
	p.paused = false
	p.lastTick = time.Time{}
	if !p.playing && !p.cancelled && p.exec < len(p.commands) {
		p.playing = true
	}
}

// Cancel abandons the active animation. An in-flight Move stays at its last
// interpolated position. The cancelled animation no longer blocks
// StartNewAnimation.
func (p *Player) Cancel() {
	if p.motion != nil {
		p.logger.Debug("motion abandoned", "id", p.motion.cmd.ID)
	}
	p.cancelled = true
	p.playing = false
	p.paused = false
	p.motion = nil
	p.dwellLeft = 0
	p.lastTick = time.Time{}
}

// StepForward runs the commands from the cursor through the next Step
// marker inclusive (or to the end) in immediate mode and pushes exactly one
// snapshot. An in-flight Move is first snapped to its target. Returns false
// when nothing remains.
func (p *Player) StepForward() bool {
	if !p.guard("StepForward") {
		return false
	}
	if p.cancelled || p.exec >= len(p.commands) {
		return false
	}
	p.snapMotion()

	for p.exec < len(p.commands) {
		c := p.commands[p.exec]
		p.exec++
		p.run(p.exec-1, c)
		if ir.IsStep(c) {
			break
		}
	}
	p.completeStep()
	if p.exec >= len(p.commands) {
		p.finish()
	}
	return true
}

// StepBack rewinds one step: it pops the latest snapshot (keeping the
// baseline) and restores the scene and attached state from the new top.
// Continuous play is always disengaged.
func (p *Player) StepBack() bool {
	if !p.guard("StepBack") {
		return false
	}
	p.playing = false
	p.motion = nil
	p.dwellLeft = 0
	p.lastTick = time.Time{}

	snap, ok := p.snapshots.Pop()
	if !ok {
		return false
	}
	p.restore(snap)
	p.cursor = snap.StepIndex
	p.exec = snap.StepIndex
	return true
}

// SkipForward runs every remaining command in immediate mode, pushing a
// snapshot at each step boundary, and finishes the animation. Calling it
// again afterwards is a no-op.
func (p *Player) SkipForward() bool {
	if !p.guard("SkipForward") {
		return false
	}
	if p.cancelled || p.exec >= len(p.commands) {
		return false
	}
	p.snapMotion()

	for p.exec < len(p.commands) {
		c := p.commands[p.exec]
		p.exec++
		p.run(p.exec-1, c)
		if ir.IsStep(c) {
			p.completeStep()
		}
	}
	if p.exec > p.cursor {
		p.completeStep()
	}
	p.finish()
	return true
}

// ApplyCommandsImmediately runs cmds to completion without interpolation,
// clears all pending step bookkeeping and records a single baseline
// snapshot. It prepares static scenes before any animation exists and
// rebuilds state during undo.
func (p *Player) ApplyCommandsImmediately(cmds []ir.Command) {
	if !p.guard("ApplyCommandsImmediately") {
		return
	}
	p.motion = nil
	for i, c := range cmds {
		p.run(i, c)
	}
	p.commands = nil
	p.cursor = 0
	p.exec = 0
	p.playing = false
	p.paused = false
	p.cancelled = false
	p.dwellLeft = 0
	p.lastTick = time.Time{}
	p.snapshots.Reset(p.capture(0))
}

// ClearObjects removes every scene object.
func (p *Player) ClearObjects() {
	p.scene.Clear()
}

// ClearCommands drops the recorded log and the active animation without
// touching the scene.
func (p *Player) ClearCommands() {
	p.rec.Drain()
	p.commands = nil
	p.cursor = 0
	p.exec = 0
	p.playing = false
	p.motion = nil
}

// ResetAnimation returns the Player to idle with an empty scene.
func (p *Player) ResetAnimation() {
	if !p.guard("ResetAnimation") {
		return
	}
	p.ClearCommands()
	p.paused = false
	p.cancelled = false
	p.snapshots.Clear()
	p.ClearObjects()
}

// completeStep moves the cursor to exec and pushes a snapshot there.
func (p *Player) completeStep() {
	p.cursor = p.exec
	snap := p.capture(p.cursor)
	if !p.snapshots.Push(snap) {
		return
	}
	if p.observer != nil {
		p.observer.SnapshotTaken(snap)
	}
}

func (p *Player) finish() {
	p.playing = false
	p.paused = false
	p.motion = nil
	p.dwellLeft = 0
	p.lastTick = time.Time{}
	p.logger.Debug("animation finished", "commands", len(p.commands))
}

func (p *Player) capture(stepIndex int) Snapshot {
	return Snapshot{
		StepIndex: stepIndex,
		Objects:   p.scene.Values(),
		State:     p.effects.checkpoint(),
	}
}

func (p *Player) restore(s Snapshot) {
	p.scene.Restore(s.Objects)
	p.effects.restore(s.State)
}

// guard refuses control operations issued from inside an effect handler.
func (p *Player) guard(op string) bool {
	if !p.inHandler {
		return true
	}
	p.logger.Error("reentrant call refused", "op", op, "error", newReentrantError(op))
	return false
}
