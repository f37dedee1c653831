// Package script compiles CUE scene scripts into command logs.
//
// A script lists steps, each a list of commands in wire vocabulary:
//
//	script: {
//		name: "swap"
//		steps: [
//			[{cmd: "CreateRectangle", args: [0, "A", 50, 50, 100, 100]}],
//			[{cmd: "Move", args: [0, 200, 100]}],
//		]
//	}
//
// Compile inserts a Step marker between consecutive steps.
package script

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/stepviz/internal/ir"
)

// schema constrains the shape of a script before it is walked.
const schema = `
#Command: {
	cmd:  string
	args: [...(string | number | bool)] | *[]
}

#Script: {
	name:  string | *""
	steps: [...[...#Command]]
}
`

// Script is a compiled scene script.
type Script struct {
	Name  string
	Steps [][]ir.Command
}

// Commands returns the full command log with Step markers between steps.
func (s *Script) Commands() []ir.Command {
	var out []ir.Command
	for i, step := range s.Steps {
		if i > 0 {
			out = append(out, ir.Step{})
		}
		out = append(out, step...)
	}
	return out
}

// MaxID returns the largest object id any command creates, or -1.
// Producers sharing a Player with a script allocate above it.
func (s *Script) MaxID() ir.ID {
	hi := ir.ID(-1)
	for _, step := range s.Steps {
		for _, c := range step {
			var id ir.ID
			switch c := c.(type) {
			case ir.CreateRectangle:
				id = c.ID
			case ir.CreateLabel:
				id = c.ID
			case ir.CreateHighlightCircle:
				id = c.ID
			default:
				continue
			}
			if id > hi {
				hi = id
			}
		}
	}
	return hi
}

// CompileError reports a script that does not compile, with the CUE
// position of the offending value when known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads and compiles the script at path.
func LoadFile(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return CompileString(string(src), path)
}

// CompileString compiles CUE source. filename is used in positions only.
func CompileString(src, filename string) (*Script, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	sv := v.LookupPath(cue.ParsePath("script"))
	if !sv.Exists() {
		return nil, &CompileError{
			Field:   "script",
			Message: "script is required",
			Pos:     v.Pos(),
		}
	}
	return Compile(sv)
}

// Compile walks a CUE value holding a script struct.
func Compile(v cue.Value) (*Script, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := v.Context().CompileString(schema).LookupPath(cue.ParsePath("#Script"))
	v = v.Unify(def)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	s := &Script{}
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	s.Name = name

	stepIter, err := v.LookupPath(cue.ParsePath("steps")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; stepIter.Next(); i++ {
		step, err := compileStep(i, stepIter.Value())
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}

func compileStep(i int, v cue.Value) ([]ir.Command, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var cmds []ir.Command
	for j := 0; iter.Next(); j++ {
		c, err := compileCommand(fmt.Sprintf("steps[%d][%d]", i, j), iter.Value())
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func compileCommand(field string, v cue.Value) (ir.Command, error) {
	name, err := v.LookupPath(cue.ParsePath("cmd")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	argsVal, _ := v.LookupPath(cue.ParsePath("args")).Default()
	argIter, err := argsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var args []any
	for argIter.Next() {
		a, err := scalar(argIter.Value())
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}

	c := ir.Parse(name, args...)
	if u, ok := c.(ir.Unknown); ok {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%q: %s", name, u.Reason),
			Pos:     v.Pos(),
		}
	}
	return c, nil
}

func scalar(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	default:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
