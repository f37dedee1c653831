// Package harness runs YAML playback scenarios against the real engine.
//
// A scenario names an algorithm (or a CUE scene script), drives it with a
// list of steps, and checks the outcome with assertions:
//
//	name: stack_push_pop
//	algorithm: stack
//	steps:
//	  - do: push
//	    arg: X
//	  - control: skip
//	  - do: pop
//	  - control: play
//	assertions:
//	  - type: state
//	    expect: {top: 0}
//
// Steps are one of:
//   - do: run an algorithm action through the undo coordinator
//   - undo: undo the latest action
//   - control: drive the Player (start, play, tick, skip, step_forward,
//     step_back, pause, resume, cancel, speed)
//
// Every scenario runs with a FakeClock, a fixed session id and a fresh
// in-memory journal, so traces are byte-identical across runs and can be
// compared against golden files.
package harness
