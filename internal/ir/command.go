package ir

import (
	"strconv"
)

// Command names as they appear on the wire.
const (
	NameCreateRectangle       = "CreateRectangle"
	NameCreateLabel           = "CreateLabel"
	NameCreateHighlightCircle = "CreateHighlightCircle"
	NameMove                  = "Move"
	NameSetText               = "SetText"
	NameSetHighlight          = "SetHighlight"
	NameSetForegroundColor    = "SetForegroundColor"
	NameSetLayer              = "SetLayer"
	NameAlignRight            = "AlignRight"
	NameSetAlpha              = "SetAlpha"
	NameDelete                = "Delete"
	NameInternal              = "Internal"
	NameStep                  = "Step"
)

// Command is one primitive scene mutation. The set of implementations is
// closed: only the types in this file satisfy it.
type Command interface {
	// Name returns the wire name of the command.
	Name() string

	// Args returns the positional arguments in wire order.
	Args() []string

	command()
}

// CreateRectangle creates (or replaces) a rectangle.
type CreateRectangle struct {
	ID            ID
	Text          string
	Width, Height int
	X, Y          int
}

// CreateLabel creates (or replaces) a text label.
type CreateLabel struct {
	ID   ID
	Text string
	X, Y int
}

// CreateHighlightCircle creates (or replaces) a highlight circle centred on X, Y.
type CreateHighlightCircle struct {
	ID    ID
	Color string
	X, Y  int
}

// Move relocates an object. Outside immediate mode it is the only command
// that takes time: the engine interpolates from the current position.
type Move struct {
	ID   ID
	X, Y int
}

// SetText replaces an object's text.
type SetText struct {
	ID   ID
	Text string
}

// SetHighlight toggles a rectangle's highlight border.
type SetHighlight struct {
	ID ID
	On bool
}

// SetForegroundColor sets the ink color of an object.
type SetForegroundColor struct {
	ID    ID
	Color string
}

// SetLayer moves an object to another z-layer.
type SetLayer struct {
	ID    ID
	Layer int
}

// AlignRight places ID immediately to the right of Ref.
type AlignRight struct {
	ID  ID
	Ref ID
}

// SetAlpha sets an object's opacity in [0, 1].
type SetAlpha struct {
	ID    ID
	Alpha float64
}

// Delete removes an object.
type Delete struct {
	ID ID
}

// Internal invokes a registered effect handler at execution time.
type Internal struct {
	Handler string
	Params  []string
}

// Step marks a step boundary. It mutates nothing.
type Step struct{}

// Unknown is a command whose name is outside the vocabulary. It is only
// produced by Decode and Parse; the engine logs and skips it.
type Unknown struct {
	Command string
	Params  []string
	Reason  string
}

func (CreateRectangle) Name() string       { return NameCreateRectangle }
func (CreateLabel) Name() string           { return NameCreateLabel }
func (CreateHighlightCircle) Name() string { return NameCreateHighlightCircle }
func (Move) Name() string                  { return NameMove }
func (SetText) Name() string               { return NameSetText }
func (SetHighlight) Name() string          { return NameSetHighlight }
func (SetForegroundColor) Name() string    { return NameSetForegroundColor }
func (SetLayer) Name() string              { return NameSetLayer }
func (AlignRight) Name() string            { return NameAlignRight }
func (SetAlpha) Name() string              { return NameSetAlpha }
func (Delete) Name() string                { return NameDelete }
func (Internal) Name() string              { return NameInternal }
func (Step) Name() string                  { return NameStep }
func (u Unknown) Name() string             { return u.Command }

func (c CreateRectangle) Args() []string {
	return []string{c.ID.String(), c.Text, itoa(c.Width), itoa(c.Height), itoa(c.X), itoa(c.Y)}
}

func (c CreateLabel) Args() []string {
	return []string{c.ID.String(), c.Text, itoa(c.X), itoa(c.Y)}
}

func (c CreateHighlightCircle) Args() []string {
	return []string{c.ID.String(), c.Color, itoa(c.X), itoa(c.Y)}
}

func (c Move) Args() []string {
	return []string{c.ID.String(), itoa(c.X), itoa(c.Y)}
}

func (c SetText) Args() []string {
	return []string{c.ID.String(), c.Text}
}

func (c SetHighlight) Args() []string {
	flag := "0"
	if c.On {
		flag = "1"
	}
	return []string{c.ID.String(), flag}
}

func (c SetForegroundColor) Args() []string {
	return []string{c.ID.String(), c.Color}
}

func (c SetLayer) Args() []string {
	return []string{c.ID.String(), itoa(c.Layer)}
}

func (c AlignRight) Args() []string {
	return []string{c.ID.String(), c.Ref.String()}
}

func (c SetAlpha) Args() []string {
	return []string{c.ID.String(), strconv.FormatFloat(c.Alpha, 'g', -1, 64)}
}

func (c Delete) Args() []string {
	return []string{c.ID.String()}
}

func (c Internal) Args() []string {
	return append([]string{c.Handler}, c.Params...)
}

func (Step) Args() []string { return nil }

func (u Unknown) Args() []string {
	return append([]string(nil), u.Params...)
}

func (CreateRectangle) command()       {}
func (CreateLabel) command()           {}
func (CreateHighlightCircle) command() {}
func (Move) command()                  {}
func (SetText) command()               {}
func (SetHighlight) command()          {}
func (SetForegroundColor) command()    {}
func (SetLayer) command()              {}
func (AlignRight) command()            {}
func (SetAlpha) command()              {}
func (Delete) command()                {}
func (Internal) command()              {}
func (Step) command()                  {}
func (Unknown) command()               {}

// IsStep reports whether c is a step boundary marker.
func IsStep(c Command) bool {
	_, ok := c.(Step)
	return ok
}

// CountSteps returns the number of Step markers in cmds.
func CountSteps(cmds []Command) int {
	n := 0
	for _, c := range cmds {
		if IsStep(c) {
			n++
		}
	}
	return n
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
