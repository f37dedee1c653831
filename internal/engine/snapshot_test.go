package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshots_PushRejectsNonIncreasing(t *testing.T) {
	var s Snapshots
	s.Reset(Snapshot{StepIndex: 0})
	assert.True(t, s.Push(Snapshot{StepIndex: 3}))
	assert.False(t, s.Push(Snapshot{StepIndex: 3}))
	assert.False(t, s.Push(Snapshot{StepIndex: 2}))
	assert.Equal(t, 2, s.Len())
}

func TestSnapshots_PopKeepsBaseline(t *testing.T) {
	var s Snapshots
	s.Reset(Snapshot{StepIndex: 0})
	s.Push(Snapshot{StepIndex: 2})

	top, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, 0, top.StepIndex)
	assert.Equal(t, 1, s.Len())

	top, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, 0, top.StepIndex)
	assert.Equal(t, 1, s.Len())
}

func TestSnapshots_EmptyStack(t *testing.T) {
	var s Snapshots
	_, ok := s.Pop()
	assert.False(t, ok)
	_, ok = s.Latest()
	assert.False(t, ok)
	assert.True(t, s.IsAtLatest(7))
}

func TestSnapshots_IsAtLatest(t *testing.T) {
	var s Snapshots
	s.Reset(Snapshot{StepIndex: 0})
	s.Push(Snapshot{StepIndex: 4})
	assert.True(t, s.IsAtLatest(4))
	assert.False(t, s.IsAtLatest(0))
}
