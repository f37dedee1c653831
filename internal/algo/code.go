package algo

import (
	"github.com/roach88/stepviz/internal/ir"
)

// AddCode emits a block of pseudo-code labels. Each line starts at x and
// sits lineHeight below the previous one; segments after the first are
// aligned to the right of their predecessor. Returns the label ids by line
// and segment so callers can recolor them as execution proceeds.
func AddCode(p Producer, code [][]string, x, y, lineHeight int, color string, layer int) [][]ir.ID {
	out := make([][]ir.ID, len(code))
	for i, line := range code {
		out[i] = make([]ir.ID, len(line))
		for j, segment := range line {
			id := p.GetNextID()
			out[i][j] = id
			p.Emit(ir.CreateLabel{ID: id, Text: segment, X: x, Y: y + i*lineHeight})
			p.Emit(ir.SetForegroundColor{ID: id, Color: color})
			p.Emit(ir.SetLayer{ID: id, Layer: layer})
			if j > 0 {
				p.Emit(ir.AlignRight{ID: id, Ref: out[i][j-1]})
			}
		}
	}
	return out
}
