package testutil

import (
	"sync"
	"time"
)

// Epoch is the fixed start time of every FakeClock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeClock is a manually advanced wall clock for tests.
//
// Tick-driven code under test receives times from a FakeClock instead of
// time.Now, so interpolation and dwell arithmetic is exact and repeatable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock reading Epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *FakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// ManualTicker is a ticker whose ticks are queued by the test.
//
// Ticks are buffered, so a test can queue a whole run up front and then
// call a blocking loop without spawning goroutines. It satisfies the
// engine's Ticker interface.
type ManualTicker struct {
	clock   *FakeClock
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

// NewManualTicker creates a ticker with room for capacity queued ticks.
func NewManualTicker(clock *FakeClock, capacity int) *ManualTicker {
	return &ManualTicker{clock: clock, ch: make(chan time.Time, capacity)}
}

// Queue advances the clock by interval n times, queueing a tick after each
// advance. Panics if the buffer would overflow, which means the test
// under-sized the ticker.
func (t *ManualTicker) Queue(n int, interval time.Duration) {
	for i := 0; i < n; i++ {
		select {
		case t.ch <- t.clock.Advance(interval):
		default:
			panic("ManualTicker: buffer full")
		}
	}
}

// Pending returns the number of queued ticks not yet received.
func (t *ManualTicker) Pending() int {
	return len(t.ch)
}

// C returns the tick channel.
func (t *ManualTicker) C() <-chan time.Time {
	return t.ch
}

// Stop marks the ticker stopped. Queued ticks stay readable.
func (t *ManualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Stopped reports whether Stop was called.
func (t *ManualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
