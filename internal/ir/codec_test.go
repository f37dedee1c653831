package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{"rectangle", CreateRectangle{ID: 3, Text: "X", Width: 50, Height: 50, X: 100, Y: 200}, "CreateRectangle<;>3<;>X<;>50<;>50<;>100<;>200"},
		{"label", CreateLabel{ID: 0, Text: "top", X: 130, Y: 100}, "CreateLabel<;>0<;>top<;>130<;>100"},
		{"move", Move{ID: 7, X: -4, Y: 9}, "Move<;>7<;>-4<;>9"},
		{"highlight on", SetHighlight{ID: 1, On: true}, "SetHighlight<;>1<;>1"},
		{"alpha", SetAlpha{ID: 1, Alpha: 0.25}, "SetAlpha<;>1<;>0.25"},
		{"internal", Internal{Handler: "applyPush", Params: []string{"X"}}, "Internal<;>applyPush<;>X"},
		{"step", Step{}, "Step"},
		{"escaped text", SetText{ID: 2, Text: `a;b\c`}, `SetText<;>2<;>a\;b\\c`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.cmd))
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	cmds := []Command{
		CreateRectangle{ID: 1, Text: "", Width: 50, Height: 50, X: 100, Y: 200},
		CreateLabel{ID: 2, Text: "<;> tricky", X: 0, Y: 0},
		CreateHighlightCircle{ID: 3, Color: "#FF0000", X: 10, Y: 20},
		Move{ID: 1, X: 120, Y: 30},
		SetText{ID: 2, Text: `trailing\`},
		SetHighlight{ID: 1, On: false},
		SetForegroundColor{ID: 1, Color: "#00FF00"},
		SetLayer{ID: 3, Layer: 2},
		AlignRight{ID: 2, Ref: 1},
		SetAlpha{ID: 1, Alpha: 0.5},
		Delete{ID: 3},
		Internal{Handler: "incTop"},
		Step{},
	}

	for _, c := range cmds {
		t.Run(c.Name(), func(t *testing.T) {
			got, err := Decode(Encode(c))
			require.NoError(t, err)
			if in, ok := c.(Internal); ok && in.Params == nil {
				assert.Equal(t, in.Handler, got.(Internal).Handler)
				assert.Empty(t, got.(Internal).Params)
				return
			}
			assert.Equal(t, c, got)
		})
	}
}

func TestDecodeUnknownName(t *testing.T) {
	got, err := Decode("Explode<;>1<;>now")
	require.NoError(t, err)

	u, ok := got.(Unknown)
	require.True(t, ok, "expected Unknown, got %T", got)
	assert.Equal(t, "Explode", u.Name())
	assert.Equal(t, []string{"1", "now"}, u.Args())
}

func TestDecodeMalformedArgs(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		arg     int
	}{
		{"non-numeric id", "Move<;>abc<;>1<;>2", 0},
		{"missing arg", "Move<;>1<;>2", 2},
		{"bad flag", "SetHighlight<;>1<;>maybe", 1},
		{"bad alpha", "SetAlpha<;>1<;>NaN", 1},
		{"no handler", "Internal", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.arg, de.Arg)
		})
	}
}

func TestDecodeTruncatesFractionalPositions(t *testing.T) {
	got, err := Decode("Move<;>4<;>125.5<;>30")
	require.NoError(t, err)
	assert.Equal(t, Move{ID: 4, X: 125, Y: 30}, got)
}

func TestDecodeAllReportsIndex(t *testing.T) {
	_, err := DecodeAll([]string{"Step", "Move<;>x<;>1<;>1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command 1")
}

func TestEncodeRoundTripsExactly(t *testing.T) {
	texts := []string{
		"cafe\u0301", // decomposed: e + combining acute
		"caf\u00e9",
		`back\slash`,
		"semi;colon",
		"a<;>b",
		`trailing\`,
		"",
	}
	for _, text := range texts {
		for _, c := range []Command{
			SetText{ID: 1, Text: text},
			CreateLabel{ID: 2, Text: text, X: 3, Y: 4},
			Internal{Handler: "applyPush", Params: []string{text}},
		} {
			got, err := Decode(Encode(c))
			require.NoError(t, err, "%q", text)
			assert.Equal(t, c, got, "%q", text)
		}
	}
}

func TestNormalizeComposesText(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	got := Normalize(SetText{ID: 1, Text: "cafe\u0301"})
	assert.Equal(t, SetText{ID: 1, Text: "caf\u00e9"}, got)

	got = Normalize(Internal{Handler: "applyPush", Params: []string{"e\u0301"}})
	assert.Equal(t, Internal{Handler: "applyPush", Params: []string{"\u00e9"}}, got)

	assert.Equal(t, Move{ID: 1, X: 2, Y: 3}, Normalize(Move{ID: 1, X: 2, Y: 3}))
}

func TestParseNormalizesText(t *testing.T) {
	assert.Equal(t, SetText{ID: 1, Text: "\u00e9"}, Parse(NameSetText, 1, "e\u0301"))
}

func TestParse(t *testing.T) {
	t.Run("typed arguments", func(t *testing.T) {
		c := Parse(NameCreateRectangle, ID(5), "Y", 50, 50, 150.0, 200)
		assert.Equal(t, CreateRectangle{ID: 5, Text: "Y", Width: 50, Height: 50, X: 150, Y: 200}, c)
	})

	t.Run("bool flag", func(t *testing.T) {
		assert.Equal(t, SetHighlight{ID: 2, On: true}, Parse(NameSetHighlight, 2, true))
	})

	t.Run("bad argument becomes Unknown", func(t *testing.T) {
		c := Parse(NameMove, "not-an-id", 1, 2)
		u, ok := c.(Unknown)
		require.True(t, ok)
		assert.Equal(t, NameMove, u.Command)
		assert.NotEmpty(t, u.Reason)
	})

	t.Run("unknown name", func(t *testing.T) {
		u, ok := Parse("Teleport", 1).(Unknown)
		require.True(t, ok)
		assert.Equal(t, "unknown command", u.Reason)
	})
}

func TestCountSteps(t *testing.T) {
	cmds := []Command{Move{ID: 1}, Step{}, Delete{ID: 1}, Step{}}
	assert.Equal(t, 2, CountSteps(cmds))
	assert.True(t, IsStep(Step{}))
	assert.False(t, IsStep(Delete{}))
}
