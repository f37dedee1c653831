package engine

import (
	"sync/atomic"

	"github.com/roach88/stepviz/internal/ir"
)

// IDAllocator issues scene object identifiers.
//
// IDs start at 0, strictly increase, and are never reused for the lifetime
// of the allocator. Safe for concurrent use, although the Player only calls
// it from its own goroutine.
type IDAllocator struct {
	next atomic.Int64
}

// NewIDAllocator creates an allocator whose first ID is 0.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// NextID returns a fresh identifier.
func (a *IDAllocator) NextID() ir.ID {
	return ir.ID(a.next.Add(1) - 1)
}

// Peek returns the identifier the next call to NextID will return.
func (a *IDAllocator) Peek() ir.ID {
	return ir.ID(a.next.Load())
}

// Clock is a monotonic logical clock for journal ordering.
//
// Journal rows are stamped with a strictly increasing seq from this clock
// instead of wall time, so a replayed session orders identically.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume a journal from its last known position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
