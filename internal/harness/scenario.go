package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a playback scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Algorithm is the registered algorithm to drive. Optional when Script
	// is set.
	Algorithm string `yaml:"algorithm,omitempty"`

	// Script is a CUE scene script, relative to the scenario file. The
	// "start" control plays it.
	Script string `yaml:"script,omitempty"`

	// SpeedMS overrides the animation speed. Default 500.
	SpeedMS int `yaml:"speed_ms,omitempty"`

	// FrameMS is the tick interval used by play and tick. Default 10.
	FrameMS int `yaml:"frame_ms,omitempty"`

	// Session is an optional fixed journal session id.
	// If empty, defaults to "test-session".
	Session string `yaml:"session,omitempty"`

	// Steps drive the session in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace, scene and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario step. Exactly one of Do, Undo and Control is set.
type Step struct {
	// Do is an algorithm action name; Arg is its argument.
	Do  string `yaml:"do,omitempty"`
	Arg string `yaml:"arg,omitempty"`

	// Undo undoes the latest action.
	Undo bool `yaml:"undo,omitempty"`

	// Control is a Player operation.
	Control string `yaml:"control,omitempty"`

	// Ticks is the tick count for the tick control.
	Ticks int `yaml:"ticks,omitempty"`

	// SpeedMS is the new speed for the speed control.
	SpeedMS int `yaml:"speed_ms,omitempty"`

	// Accepted, if set, is the expected admission result of a do, undo,
	// start, step_forward, step_back or skip.
	Accepted *bool `yaml:"accepted,omitempty"`
}

// Control names.
const (
	ControlStart       = "start"
	ControlPlay        = "play"
	ControlTick        = "tick"
	ControlSkip        = "skip"
	ControlStepForward = "step_forward"
	ControlStepBack    = "step_back"
	ControlPause       = "pause"
	ControlResume      = "resume"
	ControlCancel      = "cancel"
	ControlSpeed       = "speed"
)

var controls = map[string]bool{
	ControlStart:       true,
	ControlPlay:        true,
	ControlTick:        true,
	ControlSkip:        true,
	ControlStepForward: true,
	ControlStepBack:    true,
	ControlPause:       true,
	ControlResume:      true,
	ControlCancel:      true,
	ControlSpeed:       true,
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "object": the object with ID matches Expect (subset), or is Absent
	// - "object_count": the scene holds exactly Count objects
	// - "state": the algorithm state matches Expect (subset)
	// - "player_state": the Player is in state Value
	// - "snapshots": the snapshot StepIndexes equal Indexes
	// - "trace_contains": a command named Command ran (optionally with Encoded)
	// - "trace_order": the commands in Commands ran in this order
	// - "trace_count": the command named Command ran exactly Count times
	// - "journal": the journal table Table holds Count rows matching Where
	Type string `yaml:"type"`

	ID     *int64         `yaml:"id,omitempty"`
	Absent bool           `yaml:"absent,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Value  string         `yaml:"value,omitempty"`

	Indexes []int `yaml:"indexes,omitempty"`

	Command  string   `yaml:"command,omitempty"`
	Encoded  string   `yaml:"encoded,omitempty"`
	Commands []string `yaml:"commands,omitempty"`

	Table string         `yaml:"table,omitempty"`
	Where map[string]any `yaml:"where,omitempty"`
}

// Assertion type constants.
const (
	AssertObject        = "object"
	AssertObjectCount   = "object_count"
	AssertState         = "state"
	AssertPlayerState   = "player_state"
	AssertSnapshots     = "snapshots"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertJournal       = "journal"
)

// LoadScenario reads and parses a scenario YAML file. The script path is
// resolved relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Script != "" && !filepath.IsAbs(scenario.Script) {
		scenario.Script = filepath.Join(filepath.Dir(path), scenario.Script)
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation. It does
// not check that the script file exists.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateShape(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario runs every check, including file existence.
func validateScenario(s *Scenario) error {
	if err := validateShape(s); err != nil {
		return err
	}
	if s.Script != "" {
		if _, err := os.Stat(s.Script); os.IsNotExist(err) {
			return fmt.Errorf("script file not found: %s", s.Script)
		}
	}
	return nil
}

func validateShape(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Algorithm == "" && s.Script == "" {
		return fmt.Errorf("algorithm or script is required")
	}
	if s.SpeedMS < 0 {
		return fmt.Errorf("speed_ms must be non-negative")
	}
	if s.FrameMS < 0 {
		return fmt.Errorf("frame_ms must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step, s); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step, s *Scenario) error {
	set := 0
	if step.Do != "" {
		set++
	}
	if step.Undo {
		set++
	}
	if step.Control != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of do, undo and control is required", i)
	}
	if (step.Do != "" || step.Undo) && s.Algorithm == "" {
		return fmt.Errorf("steps[%d]: do and undo need an algorithm", i)
	}
	if step.Control == "" {
		return nil
	}
	if !controls[step.Control] {
		return fmt.Errorf("steps[%d]: unknown control %q", i, step.Control)
	}
	if step.Control == ControlStart && s.Script == "" {
		return fmt.Errorf("steps[%d]: start needs a script", i)
	}
	if step.Control == ControlTick && step.Ticks <= 0 {
		return fmt.Errorf("steps[%d]: ticks must be positive for tick", i)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertObject:
		if a.ID == nil {
			return fmt.Errorf("assertions[%d]: id is required for object", index)
		}
		if !a.Absent && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect or absent is required for object", index)
		}
	case AssertObjectCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for object_count", index)
		}
	case AssertState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for state", index)
		}
	case AssertPlayerState:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for player_state", index)
		}
	case AssertSnapshots:
		if a.Indexes == nil {
			return fmt.Errorf("assertions[%d]: indexes is required for snapshots", index)
		}
	case AssertTraceContains:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Commands) == 0 {
			return fmt.Errorf("assertions[%d]: commands list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertJournal:
		if !journalTables[a.Table] {
			return fmt.Errorf("assertions[%d]: unknown journal table %q", index, a.Table)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
