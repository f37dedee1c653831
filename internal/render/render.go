// Package render paints scene objects onto a character grid.
//
// Scene coordinates are pixels. A Painter maps them to cells with a fixed
// scale and draws objects in the order given, so later objects (higher
// layers) overwrite earlier ones. Rectangles use X, Y as their top-left
// corner; labels and circles are centred on X, Y.
package render

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/stepviz/internal/ir"
)

// HighlightColor is the border color of a highlighted rectangle.
const HighlightColor = "#FF0000"

// Alpha at or below FaintAlpha renders faint; zero alpha is not drawn.
const FaintAlpha = 0.5

type border struct {
	tl, tr, bl, br, h, v rune
}

var (
	plainBorder     = border{'┌', '┐', '└', '┘', '─', '│'}
	highlightBorder = border{'╔', '╗', '╚', '╝', '═', '║'}
)

// CircleRune marks the outline of a highlight circle.
const CircleRune = '*'

// Cell is one character of the canvas.
type Cell struct {
	Rune  rune
	Color string
	Faint bool
}

// Canvas is a grid of cells.
type Canvas struct {
	Width, Height int
	Grid          [][]Cell
}

// NewCanvas returns a blank w by h canvas.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]Cell, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]Cell, w)
	}
	c.Clear()
	return c
}

// Clear resets every cell to a blank.
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = Cell{Rune: ' '}
		}
	}
}

// Set writes one cell. Out-of-range coordinates are ignored.
func (c *Canvas) Set(col, row int, cell Cell) {
	if col < 0 || row < 0 || col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] = cell
}

// At returns the cell at col, row, or a blank outside the canvas.
func (c *Canvas) At(col, row int) Cell {
	if col < 0 || row < 0 || col >= c.Width || row >= c.Height {
		return Cell{Rune: ' '}
	}
	return c.Grid[row][col]
}

// String returns the canvas as plain text, one line per row with trailing
// blanks trimmed.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		line := make([]rune, len(row))
		for i, cell := range row {
			line[i] = cell.Rune
		}
		b.WriteString(strings.TrimRight(string(line), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Styled returns the canvas with lipgloss colors. Adjacent cells with the
// same style are rendered as one run.
func (c *Canvas) Styled() string {
	var b strings.Builder
	for _, row := range c.Grid {
		start := 0
		for i := 1; i <= len(row); i++ {
			if i < len(row) && sameStyle(row[i], row[start]) {
				continue
			}
			b.WriteString(styleFor(row[start]).Render(runString(row[start:i])))
			start = i
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func sameStyle(a, b Cell) bool {
	return a.Color == b.Color && a.Faint == b.Faint
}

func styleFor(c Cell) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c.Color != "" {
		s = s.Foreground(lipgloss.Color(c.Color))
	}
	if c.Faint {
		s = s.Faint(true)
	}
	return s
}

func runString(cells []Cell) string {
	rs := make([]rune, len(cells))
	for i, c := range cells {
		rs[i] = c.Rune
	}
	return string(rs)
}

// Painter maps scene pixels to canvas cells.
type Painter struct {
	Width, Height  int
	ScaleX, ScaleY int
}

// Paint draws objs, in order, onto a fresh canvas.
func (p Painter) Paint(objs []ir.Object) *Canvas {
	c := NewCanvas(p.Width, p.Height)
	for _, o := range objs {
		p.Draw(c, o)
	}
	return c
}

// Draw paints one object onto c.
func (p Painter) Draw(c *Canvas, o ir.Object) {
	if o.Alpha <= 0 {
		return
	}
	faint := o.Alpha <= FaintAlpha
	switch o.Kind {
	case ir.KindRectangle:
		p.drawRectangle(c, o, faint)
	case ir.KindLabel:
		p.drawText(c, o.X, o.Y, o.Text, o.TextColor, faint)
	case ir.KindHighlightCircle:
		p.drawCircle(c, o, faint)
	}
}

func (p Painter) drawRectangle(c *Canvas, o ir.Object, faint bool) {
	col0, row0 := p.cell(o.X, o.Y)
	col1, row1 := p.cell(o.X+o.Width, o.Y+o.Height)
	if col1 <= col0 {
		col1 = col0 + 1
	}
	if row1 <= row0 {
		row1 = row0 + 1
	}

	b, color := plainBorder, o.BorderColor
	if o.Highlight {
		b, color = highlightBorder, HighlightColor
	}
	edge := func(r rune) Cell { return Cell{Rune: r, Color: color, Faint: faint} }

	for col := col0 + 1; col < col1; col++ {
		c.Set(col, row0, edge(b.h))
		c.Set(col, row1, edge(b.h))
		for row := row0 + 1; row < row1; row++ {
			c.Set(col, row, Cell{Rune: ' '})
		}
	}
	for row := row0 + 1; row < row1; row++ {
		c.Set(col0, row, edge(b.v))
		c.Set(col1, row, edge(b.v))
	}
	c.Set(col0, row0, edge(b.tl))
	c.Set(col1, row0, edge(b.tr))
	c.Set(col0, row1, edge(b.bl))
	c.Set(col1, row1, edge(b.br))

	if o.Text != "" {
		p.drawText(c, o.X+o.Width/2, o.Y+o.Height/2, o.Text, o.TextColor, faint)
	}
}

func (p Painter) drawText(c *Canvas, x, y int, text, color string, faint bool) {
	if text == "" {
		return
	}
	col, row := p.cell(x, y)
	col -= utf8.RuneCountInString(text) / 2
	for _, r := range text {
		c.Set(col, row, Cell{Rune: r, Color: color, Faint: faint})
		col++
	}
}

// drawCircle marks cells whose centre lies within one cell of the circle's
// edge.
func (p Painter) drawCircle(c *Canvas, o ir.Object, faint bool) {
	r := float64(o.Radius)
	thickness := float64(max(p.ScaleX, p.ScaleY))
	col0, row0 := p.cell(o.X-o.Radius, o.Y-o.Radius)
	col1, row1 := p.cell(o.X+o.Radius, o.Y+o.Radius)
	for row := row0; row <= row1; row++ {
		for col := col0; col <= col1; col++ {
			cx := float64(col*p.ScaleX + p.ScaleX/2)
			cy := float64(row*p.ScaleY + p.ScaleY/2)
			d := math.Hypot(cx-float64(o.X), cy-float64(o.Y))
			if d <= r && d > r-thickness {
				c.Set(col, row, Cell{Rune: CircleRune, Color: o.Color, Faint: faint})
			}
		}
	}
}

func (p Painter) cell(x, y int) (col, row int) {
	return floorDiv(x, p.ScaleX), floorDiv(y, p.ScaleY)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
