// Package engine implements the stepviz playback engine.
//
// The engine turns a recorded command log into a steppable animation. It
// owns the scene object store and is the only code that mutates it.
//
// ARCHITECTURE:
//
// Producers (algorithm code) record commands through the Player's
// Emit/Cmd API and allocate object ids with GetNextID. An action wrapper
// hands the recorded log to StartNewAnimation. The Player then executes it
// against the Scene in one of four modes:
//
//   - continuous: Tick (or Run) executes one step per tick, interpolating
//     Move over time
//   - single step: StepForward and StepBack
//   - skip: SkipForward runs the rest in immediate mode
//   - immediate: ApplyCommandsImmediately builds a static scene
//
// Internal commands call handlers registered in Effects at the exact point
// they are reached, so algorithm state changes in lock-step with the
// visual step that shows it.
//
// CRITICAL PATTERNS:
//
// Single goroutine:
// All execution happens on the caller's goroutine. Suspension happens only
// inside a Move interpolation and at Step boundaries during continuous
// play, and both are expressed as returns from Tick.
//
// Snapshots:
// Every step boundary crossed forward pushes a value copy of the scene and
// of every attached Checkpointer. StepBack restores from them; nothing is
// ever inverted.
//
// Log and continue:
// A failing command is logged as an *ExecError and playback moves on.
package engine
