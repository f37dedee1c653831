package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "../../testdata/scenarios"

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), ".yaml")
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	require.NoError(t, RunWithGolden(t, loadScenario(t, "script_move")))
}

func TestRun_Deterministic(t *testing.T) {
	s := loadScenario(t, "stack_push_pop")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.SceneHash, second.SceneHash)
}

func TestRun_TraceSeqIsMonotonic(t *testing.T) {
	result, err := Run(loadScenario(t, "stack_undo"))
	require.NoError(t, err)

	require.NotEmpty(t, result.Trace)
	for i, e := range result.Trace {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestRun_RecordsDoAndUndo(t *testing.T) {
	result, err := Run(loadScenario(t, "stack_undo"))
	require.NoError(t, err)

	var actions []string
	for _, e := range result.Trace {
		if e.Type == EventDo || e.Type == EventUndo {
			actions = append(actions, e.Type+":"+e.Action+"("+e.Arg+")")
		}
	}
	assert.Equal(t, []string{"do:push(A)", "do:push(B)", "undo:push(B)"}, actions)
}

func TestRun_AcceptedMismatchFails(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectation
algorithm: stack
steps:
  - do: push
    arg: A
  - do: push
    arg: B
    accepted: true
assertions:
  - type: object_count
    count: 0
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "steps[1]: expected accepted=true, got false")
	assert.Contains(t, result.Errors[1], "object_count")
}

func TestRun_UnknownAction(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_action
algorithm: stack
steps:
  - do: peek
assertions:
  - type: object_count
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestRun_UnknownAlgorithm(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_algorithm
algorithm: heap
assertions:
  - type: object_count
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
}

func TestRun_UnderflowRunsCleanly(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_effect
algorithm: stack
steps:
  - do: pop
  - control: skip
assertions:
  - type: state
    expect: {top: 0}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	for _, e := range result.Commands() {
		assert.Empty(t, e.Error, "underflow is reported by message, not by a failing command")
	}
}
