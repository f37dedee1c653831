package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "stack", cfg.Algorithm)
	assert.Equal(t, 500*time.Millisecond, cfg.Speed())
	assert.Equal(t, time.Duration(0), cfg.StepDwell())
	assert.NoError(t, cfg.Validate())
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
speed_ms: 200
step_dwell_ms: 100
canvas:
  width: 80
journal: /tmp/stepviz.db
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.SpeedMS)
	assert.Equal(t, 100*time.Millisecond, cfg.StepDwell())
	assert.Equal(t, 80, cfg.Canvas.Width)
	assert.Equal(t, DefaultHeight, cfg.Canvas.Height, "unset nested keys keep defaults")
	assert.Equal(t, "/tmp/stepviz.db", cfg.Journal)
	assert.Equal(t, DefaultFrameRate, cfg.FrameRate)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("speed: 10\n"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative speed", "speed_ms: -1\n"},
		{"negative dwell", "step_dwell_ms: -5\n"},
		{"zero frame rate", "frame_rate: 0\n"},
		{"frame rate above max", "frame_rate: 1001\n"},
		{"huge frame rate", "frame_rate: 2000000000\n"},
		{"zero canvas", "canvas: {width: 0}\n"},
		{"bad level", "log_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_MaxFrameRate(t *testing.T) {
	cfg, err := Parse([]byte("frame_rate: 1000\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, cfg.FrameInterval())
}

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepviz.yaml")
	cfg := Default()
	cfg.SpeedMS = 250
	cfg.Journal = "journal.db"

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFrameInterval(t *testing.T) {
	cfg := Default()
	cfg.FrameRate = 50
	assert.Equal(t, 20*time.Millisecond, cfg.FrameInterval())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
