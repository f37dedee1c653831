package engine

import (
	"context"
	"time"
)

// Ticker delivers scheduling ticks to Run. Implemented by TimeTicker
// (production) and testutil.ManualTicker (tests).
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimeTicker adapts time.Ticker to Ticker.
type TimeTicker struct {
	t *time.Ticker
}

// NewTimeTicker starts a ticker firing every interval.
func NewTimeTicker(interval time.Duration) *TimeTicker {
	return &TimeTicker{t: time.NewTicker(interval)}
}

// C returns the tick channel.
func (t *TimeTicker) C() <-chan time.Time {
	return t.t.C
}

// Stop stops the ticker.
func (t *TimeTicker) Stop() {
	t.t.Stop()
}

// Run drives Tick from ticker until the animation finishes or ctx is
// cancelled. Cancelling ctx cancels the animation, leaving any in-flight
// Move where it is.
//
// CRITICAL: Run calls Tick on the caller's goroutine. No other goroutine
// may touch the Player while Run is active.
func (p *Player) Run(ctx context.Context, ticker Ticker) error {
	defer ticker.Stop()
	p.logger.Debug("player loop starting", "commands", len(p.commands))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("player loop stopping: context cancelled")
			p.Cancel()
			return ctx.Err()

		case now := <-ticker.C():
			if !p.Tick(now) && !p.playing {
				p.logger.Debug("player loop stopping: finished", "cursor", p.cursor)
				return nil
			}
		}
	}
}
