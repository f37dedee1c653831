package ir

import "strconv"

// ID identifies a scene object. IDs are issued by the engine's allocator
// and never reused within a process.
type ID int64

// String returns the decimal form used on the wire.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Kind is the scene object variant.
type Kind string

const (
	KindRectangle       Kind = "rectangle"
	KindLabel           Kind = "label"
	KindHighlightCircle Kind = "highlightCircle"
)

// Default attribute values applied by the Create* commands.
const (
	DefaultFill         = "#FFFFFF"
	DefaultInk          = "#000000"
	DefaultCircleColor  = "#0000FF"
	DefaultCircleRadius = 20
	DefaultCircleLayer  = 1
)

// Object is one scene object. Kind selects which of the attribute fields are
// meaningful:
//
//	rectangle:        X, Y, Width, Height, Text, Color, BorderColor, TextColor, Highlight
//	label:            X, Y, Text, TextColor
//	highlightCircle:  X, Y, Color, Radius
//
// ID, Alpha and Layer are shared by all kinds. Object holds no pointers, so
// assignment is a full value copy; snapshots rely on that.
type Object struct {
	ID    ID      `json:"id" csv:"id"`
	Kind  Kind    `json:"kind" csv:"kind"`
	Alpha float64 `json:"alpha" csv:"alpha"`
	Layer int     `json:"layer" csv:"layer"`

	X      int `json:"x" csv:"x"`
	Y      int `json:"y" csv:"y"`
	Width  int `json:"width,omitempty" csv:"width"`
	Height int `json:"height,omitempty" csv:"height"`
	Radius int `json:"radius,omitempty" csv:"radius"`

	Text        string `json:"text,omitempty" csv:"text"`
	Color       string `json:"color,omitempty" csv:"color"`
	BorderColor string `json:"border_color,omitempty" csv:"border_color"`
	TextColor   string `json:"text_color,omitempty" csv:"text_color"`
	Highlight   bool   `json:"highlight,omitempty" csv:"highlight"`
}

// NewRectangle returns a rectangle with the default fill and ink colors.
func NewRectangle(id ID, text string, w, h, x, y int) Object {
	return Object{
		ID:          id,
		Kind:        KindRectangle,
		Alpha:       1,
		Text:        text,
		Width:       w,
		Height:      h,
		X:           x,
		Y:           y,
		Color:       DefaultFill,
		BorderColor: DefaultInk,
		TextColor:   DefaultInk,
	}
}

// NewLabel returns a label with the default ink color.
func NewLabel(id ID, text string, x, y int) Object {
	return Object{
		ID:        id,
		Kind:      KindLabel,
		Alpha:     1,
		Text:      text,
		X:         x,
		Y:         y,
		TextColor: DefaultInk,
	}
}

// NewHighlightCircle returns a circle centred on (x, y). An empty color
// falls back to DefaultCircleColor.
func NewHighlightCircle(id ID, color string, x, y int) Object {
	if color == "" {
		color = DefaultCircleColor
	}
	return Object{
		ID:     id,
		Kind:   KindHighlightCircle,
		Alpha:  1,
		Layer:  DefaultCircleLayer,
		Color:  color,
		X:      x,
		Y:      y,
		Radius: DefaultCircleRadius,
	}
}

// HasWidth reports whether the object has a horizontal extent that
// AlignRight can measure.
func (o Object) HasWidth() bool {
	return o.Kind == KindRectangle
}

// SetForeground applies a foreground color the way each kind draws it:
// rectangles recolor their text and border, labels their text, and circles
// their outline.
func (o *Object) SetForeground(color string) {
	switch o.Kind {
	case KindRectangle:
		o.TextColor = color
		o.BorderColor = color
	case KindLabel:
		o.TextColor = color
	case KindHighlightCircle:
		o.Color = color
	}
}
