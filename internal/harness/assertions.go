package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/store"
)

// validIdentifier matches valid SQL identifiers (column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// journalTables lists the tables a journal assertion may count. Table names
// are interpolated, so only these are accepted.
var journalTables = map[string]bool{
	"sessions":  true,
	"actions":   true,
	"commands":  true,
	"snapshots": true,
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventCommand:
				fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event.Command)
			case EventDo, EventUndo:
				fmt.Fprintf(&buf, "  [%d] %s %s(%s)\n", event.Seq, event.Type, event.Action, event.Arg)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions inspect besides the trace.
type AssertionContext struct {
	Player  *engine.Player
	State   map[string]any
	Store   *store.Store
	Session string
	Ctx     context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertState:
			var state map[string]any
			if actx != nil {
				state = actx.State
			}
			err = assertState(state, assertion)
		case AssertObject, AssertObjectCount, AssertPlayerState, AssertSnapshots:
			if actx == nil || actx.Player == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a player", i, assertion.Type)
				break
			}
			err = assertPlayer(actx.Player, assertion)
		case AssertJournal:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: journal requires database context", i)
				break
			}
			err = assertJournal(actx.Ctx, actx.Store, actx.Session, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertTraceContains checks that a command with the given name ran, and
// if Encoded is set, that one ran with exactly that wire form.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Name() != assertion.Command {
			continue
		}
		if assertion.Encoded == "" || event.Command == assertion.Encoded {
			return nil
		}
	}

	expected := assertion.Command
	if assertion.Encoded != "" {
		expected = assertion.Encoded
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("command %s", expected),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the named commands first ran in the given
// order. Commands don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		name := event.Name()
		if name == "" {
			continue
		}
		if _, seen := positions[name]; !seen && slices.Contains(assertion.Commands, name) {
			positions[name] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range assertion.Commands {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all commands present: %v", assertion.Commands),
				Actual:   fmt.Sprintf("missing command: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Commands); i++ {
		prev := assertion.Commands[i-1]
		curr := assertion.Commands[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("commands in order: %v", assertion.Commands),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the named command ran exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Name() == assertion.Command {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Command),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertState checks the algorithm state with subset semantics.
func assertState(state map[string]any, assertion Assertion) error {
	if key, want, got, ok := matchFields(state, assertion.Expect); !ok {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s = %v", key, want),
			Actual:   fmt.Sprintf("%s = %v", key, got),
		}
	}
	return nil
}

func assertPlayer(p *engine.Player, assertion Assertion) error {
	switch assertion.Type {
	case AssertObject:
		return assertObject(p, assertion)
	case AssertObjectCount:
		if n := p.Scene().Len(); n != assertion.Count {
			return &AssertionError{
				Type:     AssertObjectCount,
				Expected: fmt.Sprintf("%d objects", assertion.Count),
				Actual:   fmt.Sprintf("%d objects", n),
			}
		}
	case AssertPlayerState:
		if s := p.State().String(); s != assertion.Value {
			return &AssertionError{
				Type:     AssertPlayerState,
				Expected: assertion.Value,
				Actual:   s,
			}
		}
	case AssertSnapshots:
		var got []int
		for _, s := range p.Snapshots() {
			got = append(got, s.StepIndex)
		}
		if !slices.Equal(got, assertion.Indexes) {
			return &AssertionError{
				Type:     AssertSnapshots,
				Expected: fmt.Sprintf("step indexes %v", assertion.Indexes),
				Actual:   fmt.Sprintf("step indexes %v", got),
			}
		}
	}
	return nil
}

// assertObject checks one scene object. Fields use the object's JSON names.
func assertObject(p *engine.Player, assertion Assertion) error {
	id := ir.ID(*assertion.ID)
	obj, found := p.Scene().Get(id)

	if assertion.Absent {
		if found {
			return &AssertionError{
				Type:     AssertObject,
				Expected: fmt.Sprintf("object %d absent", id),
				Actual:   fmt.Sprintf("object %d is a %s", id, obj.Kind),
			}
		}
		return nil
	}
	if !found {
		return &AssertionError{
			Type:     AssertObject,
			Expected: fmt.Sprintf("object %d", id),
			Actual:   "not found in scene",
		}
	}

	fields, err := objectFields(obj)
	if err != nil {
		return err
	}
	if key, want, got, ok := matchFields(fields, assertion.Expect); !ok {
		return &AssertionError{
			Type:     AssertObject,
			Expected: fmt.Sprintf("object %d %s = %v", id, key, want),
			Actual:   fmt.Sprintf("object %d %s = %v", id, key, got),
		}
	}
	return nil
}

func objectFields(o ir.Object) (map[string]any, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal object: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return fields, nil
}

// matchFields checks that actual contains every expected field (subset
// match) and returns the first mismatch. Keys are visited in sorted order
// so failures are reproducible.
func matchFields(actual, expected map[string]any) (key string, want, got any, ok bool) {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		a, exists := actual[k]
		if !exists {
			// omitempty fields are absent when zero
			if isZero(expected[k]) {
				continue
			}
			return k, expected[k], "<missing>", false
		}
		if !valuesEqual(a, expected[k]) {
			return k, expected[k], a, false
		}
	}
	return "", nil, nil, true
}

// valuesEqual compares values by their printed form. YAML, JSON and Go
// state values disagree on numeric and slice types, but print the same.
func valuesEqual(actual, expected any) bool {
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

func isZero(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case int:
		return v == 0
	case float64:
		return v == 0
	case bool:
		return !v
	}
	return false
}

// assertJournal counts journal rows for the scenario's session.
//
// Security: the table is checked against journalTables and column names
// against validIdentifier, so no interpolated identifier is user-controlled.
func assertJournal(ctx context.Context, st *store.Store, session string, assertion Assertion) error {
	if !journalTables[assertion.Table] {
		return fmt.Errorf("invalid journal table %q", assertion.Table)
	}

	where := make(map[string]any, len(assertion.Where)+1)
	for k, v := range assertion.Where {
		where[k] = v
	}
	if assertion.Table == "sessions" {
		where["id"] = session
	} else {
		where["session_id"] = session
	}

	whereSQL, whereArgs, err := buildWhereClause(where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", assertion.Table, whereSQL)
	var count int
	if err := st.DB().QueryRowContext(ctx, query, whereArgs...).Scan(&count); err != nil {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("%d rows in %s where %s", assertion.Count, assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   fmt.Sprintf("%d rows", count),
		}
	}
	return nil
}

// buildWhereClause constructs parameterized WHERE clause from where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
//
// Security: Column names are validated against a whitelist pattern to prevent
// SQL injection via identifier interpolation.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-parsed value to a SQL-compatible value.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, float64:
		return val
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}
