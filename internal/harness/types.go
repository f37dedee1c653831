package harness

import (
	"strings"

	"github.com/roach88/stepviz/internal/ir"
)

// Trace event types.
const (
	EventCommand  = "command"
	EventSnapshot = "snapshot"
	EventDo       = "do"
	EventUndo     = "undo"
)

// TraceEvent is one entry in a scenario trace.
type TraceEvent struct {
	Type      string `json:"type"`
	Seq       int64  `json:"seq"`
	Command   string `json:"command,omitempty"`
	Cursor    int    `json:"cursor,omitempty"`
	Error     string `json:"error,omitempty"`
	StepIndex int    `json:"step_index,omitempty"`
	Objects   int    `json:"objects,omitempty"`
	Action    string `json:"action,omitempty"`
	Arg       string `json:"arg,omitempty"`
}

// Name returns the command name of a command event, or "".
func (e TraceEvent) Name() string {
	if e.Type != EventCommand {
		return ""
	}
	name, _, _ := strings.Cut(e.Command, ir.Delimiter)
	return name
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion and step expectation held.
	Pass bool `json:"pass"`

	// Trace contains every executed command, snapshot and action in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the algorithm's final logical state, if any.
	State map[string]any `json:"state,omitempty"`

	// SceneHash is the hash of the final scene.
	SceneHash string `json:"scene_hash"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Commands returns the command events of the trace.
func (r *Result) Commands() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventCommand {
			out = append(out, e)
		}
	}
	return out
}
