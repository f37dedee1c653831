package engine

import (
	"math"
	"time"

	"github.com/roach88/stepviz/internal/ir"
)

// MinMoveDuration is the floor applied to animation speed for Move, so a
// zero speed still produces a visible transition.
const MinMoveDuration = 50 * time.Millisecond

// motion is an in-flight Move. Interpolation is linear in elapsed time and
// knows nothing about what drives it.
type motion struct {
	cmd      ir.Move
	index    int
	fromX    int
	fromY    int
	duration time.Duration
	elapsed  time.Duration
}

func newMotion(cmd ir.Move, index, fromX, fromY int, duration time.Duration) *motion {
	if duration < MinMoveDuration {
		duration = MinMoveDuration
	}
	return &motion{cmd: cmd, index: index, fromX: fromX, fromY: fromY, duration: duration}
}

// advance adds d to the elapsed time and returns the interpolated position
// and whether the motion has reached its target.
func (m *motion) advance(d time.Duration) (x, y int, done bool) {
	if d > 0 {
		m.elapsed += d
	}
	t := float64(m.elapsed) / float64(m.duration)
	if t >= 1 {
		return m.cmd.X, m.cmd.Y, true
	}
	x = m.fromX + int(math.Round(float64(m.cmd.X-m.fromX)*t))
	y = m.fromY + int(math.Round(float64(m.cmd.Y-m.fromY)*t))
	return x, y, false
}
