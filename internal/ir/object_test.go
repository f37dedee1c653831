package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorDefaults(t *testing.T) {
	r := NewRectangle(1, "A", 50, 40, 10, 20)
	assert.Equal(t, KindRectangle, r.Kind)
	assert.Equal(t, DefaultFill, r.Color)
	assert.Equal(t, DefaultInk, r.BorderColor)
	assert.Equal(t, 0, r.Layer)
	assert.Equal(t, 1.0, r.Alpha)
	assert.True(t, r.HasWidth())

	l := NewLabel(2, "top", 130, 100)
	assert.Equal(t, DefaultInk, l.TextColor)
	assert.False(t, l.HasWidth())

	c := NewHighlightCircle(3, "", 5, 5)
	assert.Equal(t, DefaultCircleColor, c.Color)
	assert.Equal(t, DefaultCircleRadius, c.Radius)
	assert.Equal(t, DefaultCircleLayer, c.Layer)
}

func TestSetForeground(t *testing.T) {
	r := NewRectangle(1, "", 50, 50, 0, 0)
	r.SetForeground("#FF0000")
	assert.Equal(t, "#FF0000", r.TextColor)
	assert.Equal(t, "#FF0000", r.BorderColor)
	assert.Equal(t, DefaultFill, r.Color)

	l := NewLabel(2, "", 0, 0)
	l.SetForeground("#0000FF")
	assert.Equal(t, "#0000FF", l.TextColor)

	c := NewHighlightCircle(3, "", 0, 0)
	c.SetForeground("#00FF00")
	assert.Equal(t, "#00FF00", c.Color)
}
