package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StartsAtEpoch(t *testing.T) {
	c := NewFakeClock()
	assert.Equal(t, Epoch, c.Now())
}

func TestFakeClock_Advance(t *testing.T) {
	c := NewFakeClock()
	got := c.Advance(250 * time.Millisecond)
	assert.Equal(t, Epoch.Add(250*time.Millisecond), got)
	assert.Equal(t, got, c.Now())
}

func TestManualTicker_QueueDeliversInOrder(t *testing.T) {
	c := NewFakeClock()
	tk := NewManualTicker(c, 3)
	tk.Queue(3, 10*time.Millisecond)

	assert.Equal(t, 3, tk.Pending())
	assert.Equal(t, Epoch.Add(10*time.Millisecond), <-tk.C())
	assert.Equal(t, Epoch.Add(20*time.Millisecond), <-tk.C())
	assert.Equal(t, Epoch.Add(30*time.Millisecond), <-tk.C())
	assert.Equal(t, 0, tk.Pending())
}

func TestManualTicker_OverflowPanics(t *testing.T) {
	tk := NewManualTicker(NewFakeClock(), 1)
	assert.Panics(t, func() { tk.Queue(2, time.Millisecond) })
}

func TestManualTicker_Stop(t *testing.T) {
	tk := NewManualTicker(NewFakeClock(), 1)
	assert.False(t, tk.Stopped())
	tk.Stop()
	assert.True(t, tk.Stopped())
}
