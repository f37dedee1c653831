// Package stack visualizes an array-backed stack with a fixed capacity.
//
// The logical stack (cell values and top index) changes only when the
// applyPush, incTop, applyPop and clearStack effects execute, so it always
// matches the step on screen, including after StepBack.
package stack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/stepviz/internal/algo"
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/ir"
)

// Name is the registry name.
const Name = "stack"

// Layout, in canvas pixels.
const (
	Size           = 15
	ArrayStartX    = 100
	ArrayStartY    = 200
	ArrayElemW     = 50
	ArrayElemH     = 50
	ArrayPerLine   = 15
	ArrayLineSpace = 130
	TopPosX        = 180
	TopPosY        = 100
	TopLabelX      = 130
	TopLabelY      = 100
	PushLabelX     = 50
	PushLabelY     = 30
	PushElementX   = 120
	PushElementY   = 30
	CodeX          = 600
	CodeY          = 30
	CodeLineHeight = 20
)

// Colors used by the stack.
const (
	IndexColor     = "#0000FF"
	HighlightColor = "#0000FF"
	CodeColor      = "#006600"
)

// Messages shown in the message label.
const (
	MsgOverflow  = "Stack Overflow!"
	MsgUnderflow = "Stack Underflow!"
	MsgCleared   = "Stack Cleared"
	MsgEmptyPush = "Nothing to push"
)

var code = [][]string{
	{"push(v): if top == SIZE: overflow"},
	{"         a[top] = v; top = top + 1"},
	{"pop():   if top == 0: underflow"},
	{"         top = top - 1; return a[top]"},
}

func init() {
	algo.Register(Name, func(h algo.Host) algo.Algorithm { return New(h) })
}

// state is the logical stack. It is a plain value, so copying it is a
// checkpoint.
type state struct {
	data [Size]string
	top  int
}

// Stack is the array stack visualization.
type Stack struct {
	host algo.Host
	st   state

	cells   [Size]ir.ID
	indexes [Size]ir.ID
	topLbl  ir.ID
	topBox  ir.ID
	message ir.ID
	code    [][]ir.ID
	temps   []ir.ID

	applyPush  engine.Capability
	incTop     engine.Capability
	applyPop   engine.Capability
	clearStack engine.Capability
}

// New creates a stack bound to host and registers its effects.
func New(h algo.Host) *Stack {
	s := &Stack{host: h}
	fx := h.Effects()
	s.applyPush = fx.Register("applyPush", s.onApplyPush)
	s.incTop = fx.Register("incTop", s.onIncTop)
	s.applyPop = fx.Register("applyPop", s.onApplyPop)
	s.clearStack = fx.Register("clearStack", s.onClear)
	fx.Attach(Name, s)
	return s
}

// Name implements algo.Algorithm.
func (s *Stack) Name() string {
	return Name
}

// Actions implements algo.Algorithm.
func (s *Stack) Actions() []history.Action {
	return []history.Action{
		{Name: "push", Run: s.Push},
		{Name: "pop", Run: func(string) []ir.Command { return s.Pop() }},
		{Name: "clear", Run: func(string) []ir.Command { return s.Clear() }},
	}
}

// Setup emits the array cells with their index labels, the top pointer,
// the message label and the code listing.
func (s *Stack) Setup() []ir.Command {
	for i := 0; i < Size; i++ {
		x, y := cellPos(i)
		s.cells[i] = s.host.GetNextID()
		s.indexes[i] = s.host.GetNextID()

		s.emit(ir.CreateRectangle{ID: s.cells[i], Width: ArrayElemW, Height: ArrayElemH, X: x, Y: y})
		s.emit(ir.CreateLabel{ID: s.indexes[i], Text: strconv.Itoa(i), X: x + ArrayElemW/2, Y: y + ArrayElemH + 5})
		s.emit(ir.SetForegroundColor{ID: s.indexes[i], Color: IndexColor})
	}

	s.topLbl = s.host.GetNextID()
	s.topBox = s.host.GetNextID()
	s.emit(ir.CreateLabel{ID: s.topLbl, Text: "top", X: TopLabelX, Y: TopLabelY})
	s.emit(ir.CreateRectangle{ID: s.topBox, Text: "0", Width: ArrayElemW, Height: ArrayElemH, X: TopPosX, Y: TopPosY})

	s.message = s.host.GetNextID()
	s.emit(ir.CreateLabel{ID: s.message, X: PushLabelX, Y: PushLabelY})

	s.code = algo.AddCode(s.host, code, CodeX, CodeY, CodeLineHeight, CodeColor, 0)
	return nil
}

// Push emits the three-step push animation for v. The cell and top index
// are computed from the logical state at record time; the state itself
// changes when the emitted effects execute.
func (s *Stack) Push(v string) []ir.Command {
	if strings.TrimSpace(v) == "" {
		s.emit(ir.SetText{ID: s.message, Text: MsgEmptyPush})
		return nil
	}
	if s.st.top >= Size {
		s.emit(ir.SetText{ID: s.message, Text: MsgOverflow})
		return nil
	}

	s.temps = nil
	labPush := s.temp()
	labVal := s.temp()
	circle := s.temp()

	s.emit(ir.SetText{ID: s.message, Text: ""})
	s.emit(ir.CreateLabel{ID: labPush, Text: "Pushing Value: ", X: PushLabelX, Y: PushLabelY})
	s.emit(ir.CreateLabel{ID: labVal, Text: v, X: PushElementX, Y: PushElementY})
	s.emit(ir.CreateHighlightCircle{ID: circle, Color: HighlightColor, X: TopPosX + ArrayElemW/2, Y: TopPosY + ArrayElemH/2})
	s.emit(ir.Step{})

	s.emit(ir.SetHighlight{ID: s.topBox, On: true})
	s.emit(ir.Step{})

	x, y := cellPos(s.st.top)
	s.emit(ir.Move{ID: circle, X: x + ArrayElemW/2, Y: y + ArrayElemH/2})
	s.emit(ir.Move{ID: labVal, X: x, Y: y})
	s.emit(ir.SetText{ID: s.cells[s.st.top], Text: v})
	s.emit(s.applyPush.Command(v))
	s.emit(ir.Delete{ID: labVal})
	s.emit(ir.Delete{ID: circle})
	s.emit(s.incTop.Command())
	s.emit(ir.SetText{ID: s.topBox, Text: strconv.Itoa(s.st.top + 1)})
	s.emit(ir.Delete{ID: labPush})
	s.emit(ir.SetHighlight{ID: s.topBox, On: false})
	s.emit(ir.SetText{ID: s.message, Text: "Pushed: " + v})
	s.emit(ir.Step{})
	return nil
}

// Pop emits the pop animation: highlight top, decrement it, walk the
// highlight to the cell, lift the value out and clear the cell.
func (s *Stack) Pop() []ir.Command {
	if s.st.top <= 0 {
		s.emit(ir.SetText{ID: s.message, Text: MsgUnderflow})
		return nil
	}

	s.temps = nil
	labPop := s.temp()
	labVal := s.temp()
	circle := s.temp()
	idx := s.st.top - 1
	x, y := cellPos(idx)

	s.emit(ir.SetText{ID: s.message, Text: ""})
	s.emit(ir.CreateLabel{ID: labPop, Text: "Popping Value: ", X: PushLabelX, Y: PushLabelY})
	s.emit(ir.SetHighlight{ID: s.topBox, On: true})
	s.emit(ir.Step{})

	s.emit(ir.SetText{ID: s.topBox, Text: strconv.Itoa(idx)})
	s.emit(ir.Step{})

	s.emit(ir.SetHighlight{ID: s.topBox, On: false})
	s.emit(ir.CreateHighlightCircle{ID: circle, Color: HighlightColor, X: TopPosX + ArrayElemW/2, Y: TopPosY + ArrayElemH/2})
	s.emit(ir.Step{})

	s.emit(ir.Move{ID: circle, X: x + ArrayElemW/2, Y: y + ArrayElemH/2})
	s.emit(ir.Step{})

	s.emit(ir.CreateLabel{ID: labVal, Text: s.st.data[idx], X: x, Y: y})
	s.emit(ir.SetText{ID: s.cells[idx], Text: ""})
	s.emit(ir.Move{ID: labVal, X: PushElementX, Y: PushElementY})
	s.emit(ir.Step{})

	s.emit(s.applyPop.Command())
	s.emit(ir.Delete{ID: labVal})
	s.emit(ir.Delete{ID: labPop})
	s.emit(ir.Delete{ID: circle})
	s.emit(ir.SetText{ID: s.message, Text: "Popped: " + s.st.data[idx]})
	return nil
}

// Clear empties every cell and resets top in a single step.
func (s *Stack) Clear() []ir.Command {
	for i := 0; i < Size; i++ {
		s.emit(ir.SetText{ID: s.cells[i], Text: ""})
	}
	s.emit(s.clearStack.Command())
	s.emit(ir.SetText{ID: s.topBox, Text: "0"})
	s.emit(ir.SetText{ID: s.message, Text: MsgCleared})
	s.emit(ir.Step{})
	return nil
}

// Reset implements algo.Algorithm. The latest action's temporaries are
// deleted, in case it was cancelled mid-flight; the persistent cells keep
// their ids.
func (s *Stack) Reset() []ir.Command {
	s.st = state{}
	for _, id := range s.temps {
		s.emit(ir.Delete{ID: id})
	}
	s.temps = nil
	for i := 0; i < Size; i++ {
		s.emit(ir.SetText{ID: s.cells[i], Text: ""})
	}
	s.emit(ir.SetText{ID: s.topBox, Text: "0"})
	s.emit(ir.SetHighlight{ID: s.topBox, On: false})
	s.emit(ir.SetText{ID: s.message, Text: ""})
	return nil
}

// Enabled implements algo.Gate. Push needs a non-blank value and pop a
// non-empty stack.
func (s *Stack) Enabled(action, arg string) bool {
	switch action {
	case "push":
		return strings.TrimSpace(arg) != ""
	case "pop":
		return s.st.top > 0
	}
	return true
}

// Info implements algo.Informer.
func (s *Stack) Info() []string {
	status := "Available"
	switch {
	case s.st.top == 0:
		status = "Empty"
	case s.st.top >= Size:
		status = "Full"
	}
	top := "None"
	if s.st.top > 0 {
		top = s.st.data[s.st.top-1]
	}
	return []string{
		fmt.Sprintf("Size: %d / %d", s.st.top, Size),
		"Status: " + status,
		"Top Element: " + top,
	}
}

// State implements algo.Algorithm.
func (s *Stack) State() map[string]any {
	return map[string]any{
		"top":   s.st.top,
		"items": s.Items(),
	}
}

// Items returns the stacked values, bottom first.
func (s *Stack) Items() []string {
	return append([]string{}, s.st.data[:s.st.top]...)
}

// Top returns the logical top index.
func (s *Stack) Top() int {
	return s.st.top
}

// CellID returns the rectangle id of cell i.
func (s *Stack) CellID(i int) ir.ID {
	return s.cells[i]
}

// TopID returns the id of the top indicator.
func (s *Stack) TopID() ir.ID {
	return s.topBox
}

// MessageID returns the id of the message label.
func (s *Stack) MessageID() ir.ID {
	return s.message
}

// Checkpoint implements engine.Checkpointer.
func (s *Stack) Checkpoint() any {
	return s.st
}

// Restore implements engine.Checkpointer.
func (s *Stack) Restore(v any) {
	s.st = v.(state)
}

func (s *Stack) onApplyPush(args []string) error {
	if s.st.top >= Size {
		return fmt.Errorf("push at top %d: stack full", s.st.top)
	}
	v := ""
	if len(args) > 0 {
		v = args[0]
	}
	s.st.data[s.st.top] = v
	return nil
}

func (s *Stack) onIncTop([]string) error {
	if s.st.top >= Size {
		return fmt.Errorf("increment top %d: stack full", s.st.top)
	}
	s.st.top++
	return nil
}

func (s *Stack) onApplyPop([]string) error {
	if s.st.top <= 0 {
		return fmt.Errorf("pop: stack empty")
	}
	s.st.top--
	s.st.data[s.st.top] = ""
	return nil
}

func (s *Stack) onClear([]string) error {
	s.st = state{}
	return nil
}

func (s *Stack) emit(c ir.Command) {
	s.host.Emit(c)
}

// temp allocates a temporary for the current action. Push and Pop reset
// the list first, so it only ever holds one action's ids.
func (s *Stack) temp() ir.ID {
	id := s.host.GetNextID()
	s.temps = append(s.temps, id)
	return id
}

func cellPos(i int) (x, y int) {
	x = (i%ArrayPerLine)*ArrayElemW + ArrayStartX
	y = (i/ArrayPerLine)*ArrayLineSpace + ArrayStartY
	return x, y
}
