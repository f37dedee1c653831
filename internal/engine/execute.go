package engine

import (
	"fmt"
	"time"

	"github.com/roach88/stepviz/internal/ir"
)

// Tick advances continuous playback to now and reports whether the
// animation wants further ticks.
//
// Each tick either advances an in-flight Move or runs commands from the
// cursor until one of three things happens: a Move starts interpolating, a
// Step marker completes a step (the step is snapshotted and Tick yields),
// or the log ends. While paused Tick does nothing and elapsed time does not
// accumulate, so resuming never jumps a Move forward.
func (p *Player) Tick(now time.Time) bool {
	if !p.playing || p.cancelled {
		p.lastTick = time.Time{}
		return false
	}
	if p.paused {
		p.lastTick = time.Time{}
		return true
	}

	var elapsed time.Duration
	if !p.lastTick.IsZero() && now.After(p.lastTick) {
		elapsed = now.Sub(p.lastTick)
	}
	p.lastTick = now

	if p.dwellLeft > 0 {
		if elapsed < p.dwellLeft {
			p.dwellLeft -= elapsed
			return true
		}
		elapsed -= p.dwellLeft
		p.dwellLeft = 0
	}

	if p.motion != nil && !p.advanceMotion(elapsed) {
		return true
	}
	return p.runUntilYield()
}

func (p *Player) runUntilYield() bool {
	for p.exec < len(p.commands) {
		c := p.commands[p.exec]
		p.exec++

		if mv, ok := c.(ir.Move); ok {
			if obj, found := p.scene.Get(mv.ID); found {
				p.motion = newMotion(mv, p.exec-1, obj.X, obj.Y, p.speed)
				return true
			}
		}

		p.run(p.exec-1, c)
		if ir.IsStep(c) {
			p.completeStep()
			if p.exec >= len(p.commands) {
				p.finish()
				return false
			}
			p.dwellLeft = p.stepDwell
			return true
		}
	}

	if p.exec > p.cursor {
		p.completeStep()
	}
	p.finish()
	return false
}

// advanceMotion moves the in-flight object and reports whether the motion
// completed. An object deleted mid-flight simply stops being updated.
func (p *Player) advanceMotion(elapsed time.Duration) bool {
	m := p.motion
	x, y, done := m.advance(elapsed)
	p.scene.Update(m.cmd.ID, func(o *ir.Object) {
		o.X, o.Y = x, y
	})
	if !done {
		return false
	}
	p.motion = nil
	p.notify(m.index, m.cmd, nil)
	return true
}

// snapMotion lands an in-flight Move on its target.
func (p *Player) snapMotion() {
	if p.motion == nil {
		return
	}
	m := p.motion
	p.motion = nil
	p.run(m.index, m.cmd)
}

// run executes one command in immediate mode. Failures and panics are
// logged and reported; they never stop the caller.
func (p *Player) run(index int, c ir.Command) {
	err := p.safeApply(c)
	if err != nil {
		if ee, ok := err.(*ExecError); ok {
			ee.Index = index
		}
		p.logger.Warn("command failed",
			"command", ir.Encode(c),
			"cursor", index,
			"error", err,
		)
	}
	p.notify(index, c, err)
}

func (p *Player) notify(index int, c ir.Command, err error) {
	if p.observer != nil {
		p.observer.CommandExecuted(index, c, err)
	}
}

func (p *Player) safeApply(c ir.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.inHandler = false
			err = &ExecError{
				Code:    ErrCodePanic,
				Command: c.Name(),
				Message: fmt.Sprint(r),
			}
		}
	}()
	return p.apply(c)
}

// apply mutates the scene for c. Mutations of a missing id are silent
// no-ops. Move lands directly on its target.
func (p *Player) apply(c ir.Command) error {
	switch c := c.(type) {
	case ir.CreateRectangle:
		p.scene.Set(ir.NewRectangle(c.ID, c.Text, c.Width, c.Height, c.X, c.Y))
	case ir.CreateLabel:
		p.scene.Set(ir.NewLabel(c.ID, c.Text, c.X, c.Y))
	case ir.CreateHighlightCircle:
		p.scene.Set(ir.NewHighlightCircle(c.ID, c.Color, c.X, c.Y))
	case ir.Move:
		p.scene.Update(c.ID, func(o *ir.Object) {
			o.X, o.Y = c.X, c.Y
		})
	case ir.SetText:
		p.scene.Update(c.ID, func(o *ir.Object) {
			o.Text = c.Text
		})
	case ir.SetHighlight:
		p.scene.Update(c.ID, func(o *ir.Object) {
			o.Highlight = c.On
		})
	case ir.SetForegroundColor:
		p.scene.Update(c.ID, func(o *ir.Object) {
			o.SetForeground(c.Color)
		})
	case ir.SetLayer:
		p.scene.Update(c.ID, func(o *ir.Object) {
			o.Layer = c.Layer
		})
	case ir.AlignRight:
		ref, ok := p.scene.Get(c.Ref)
		if !ok || !ref.HasWidth() {
			return nil
		}
		p.scene.Update(c.ID, func(o *ir.Object) {
			o.X = ref.X + ref.Width + AlignPadding
			o.Y = ref.Y
		})
	case ir.SetAlpha:
		p.scene.Update(c.ID, func(o *ir.Object) {
			o.Alpha = clampAlpha(c.Alpha)
		})
	case ir.Delete:
		p.scene.Delete(c.ID)
	case ir.Internal:
		p.inHandler = true
		err := p.effects.invoke(c)
		p.inHandler = false
		return err
	case ir.Step:
	case ir.Unknown:
		reason := c.Reason
		if reason == "" {
			reason = "unknown command"
		}
		return &ExecError{Code: ErrCodeUnknownCommand, Command: c.Command, Message: reason}
	default:
		return &ExecError{Code: ErrCodeUnknownCommand, Command: c.Name(), Message: fmt.Sprintf("unhandled command type %T", c)}
	}
	return nil
}

// AlignPadding is the gap AlignRight leaves between an object and its
// reference.
const AlignPadding = 8

func clampAlpha(a float64) float64 {
	switch {
	case a < 0:
		return 0
	case a > 1:
		return 1
	}
	return a
}
