package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"id", ID(7), "7"},
		{"whole float", 1.0, "1"},
		{"fraction", 0.5, "0.5"},
		{"bool true", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"strings", []string{"a", "b"}, `["a","b"]`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  map[string]any{"b": 1, "a": 2},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for name, v := range map[string]any{
		"nil":         nil,
		"nan":         math.NaN(),
		"inf":         math.Inf(1),
		"nested nil":  []any{1, nil},
		"unsupported": struct{}{},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := MarshalCanonical(v)
			assert.Error(t, err)
		})
	}
}

func TestMarshalCanonicalObject(t *testing.T) {
	result, err := MarshalCanonical(NewLabel(1, "top", 130, 100))
	require.NoError(t, err)
	assert.Equal(t,
		`{"alpha":1,"border_color":"","color":"","height":0,"highlight":false,"id":1,"kind":"label","layer":0,"radius":0,"text":"top","text_color":"#000000","width":0,"x":130,"y":100}`,
		string(result))
}

func TestCompareUTF16(t *testing.T) {
	// U+FFFF sorts after U+10000 in UTF-16 (surrogates are 0xD800..)
	// but before it in UTF-8 byte order.
	assert.Equal(t, 1, compareUTF16("\uFFFF", "\U00010000"))
	assert.Equal(t, -1, compareUTF16("a", "ab"))
	assert.Equal(t, 0, compareUTF16("x", "x"))
}
