package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneHashDeterministic(t *testing.T) {
	scene := []Object{
		NewRectangle(0, "X", 50, 50, 100, 200),
		NewLabel(1, "1", 130, 100),
	}

	h1, err := SceneHash(scene)
	require.NoError(t, err)
	h2, err := SceneHash(append([]Object(nil), scene...))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestSceneHashSensitiveToFieldsAndOrder(t *testing.T) {
	a := NewRectangle(0, "X", 50, 50, 100, 200)
	b := NewLabel(1, "1", 130, 100)
	base := MustSceneHash([]Object{a, b})

	moved := a
	moved.X++
	assert.NotEqual(t, base, MustSceneHash([]Object{moved, b}))
	assert.NotEqual(t, base, MustSceneHash([]Object{b, a}))
}

func TestSceneHashEmpty(t *testing.T) {
	h, err := SceneHash(nil)
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainScene, []byte("[]")), h)
}

func TestLogHashDomainSeparated(t *testing.T) {
	h, err := LogHash([]Command{Step{}})
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainLog, []byte(`["Step"]`)), h)
	assert.NotEqual(t, hashWithDomain(DomainScene, []byte(`["Step"]`)), h)
}
