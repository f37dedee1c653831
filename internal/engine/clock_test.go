package engine

import (
	"sync"
	"testing"

	"github.com/roach88/stepviz/internal/ir"
	"github.com/stretchr/testify/assert"
)

func TestIDAllocator_StartsAtZero(t *testing.T) {
	a := NewIDAllocator()
	assert.Equal(t, ir.ID(0), a.Peek())
	assert.Equal(t, ir.ID(0), a.NextID())
	assert.Equal(t, ir.ID(1), a.NextID())
	assert.Equal(t, ir.ID(2), a.Peek())
}

func TestIDAllocator_UniqueUnderConcurrency(t *testing.T) {
	a := NewIDAllocator()
	const goroutines = 50
	const calls = 100

	var wg sync.WaitGroup
	ids := make(chan ir.ID, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				ids <- a.NextID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ir.ID]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*calls)
	assert.Equal(t, ir.ID(goroutines*calls), a.Peek())
}

func TestClock_NewClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current(), "new clock should start at 0")
}

func TestClock_NewClockAt(t *testing.T) {
	c := NewClockAt(100)
	assert.Equal(t, int64(100), c.Current(), "clock should start at specified value")
	assert.Equal(t, int64(101), c.Next())
}

func TestClock_Next_Incrementing(t *testing.T) {
	c := NewClock()

	// First call returns 1 (increments then returns)
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
	assert.Equal(t, int64(3), c.Current())
}
