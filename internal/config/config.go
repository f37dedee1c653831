// Package config loads stepviz settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSpeedMS   = 500
	DefaultFrameRate = 30
	DefaultWidth     = 120
	DefaultHeight    = 36
	DefaultAlgorithm = "stack"
	DefaultLogLevel  = "info"

	// MaxFrameRate keeps FrameInterval at one millisecond or more.
	MaxFrameRate = 1000
)

// Config is the full settings file.
type Config struct {
	Algorithm   string       `yaml:"algorithm"`
	SpeedMS     int          `yaml:"speed_ms"`
	StepDwellMS int          `yaml:"step_dwell_ms"`
	FrameRate   int          `yaml:"frame_rate"`
	Canvas      CanvasConfig `yaml:"canvas"`
	Journal     string       `yaml:"journal"`
	LogLevel    string       `yaml:"log_level"`
}

// CanvasConfig sizes the terminal canvas in cells. Scene coordinates are
// scaled by Scale pixels per cell.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	ScaleX int `yaml:"scale_x"`
	ScaleY int `yaml:"scale_y"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Algorithm: DefaultAlgorithm,
		SpeedMS:   DefaultSpeedMS,
		FrameRate: DefaultFrameRate,
		Canvas: CanvasConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			ScaleX: 8,
			ScaleY: 16,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.SpeedMS < 0 {
		errs = append(errs, fmt.Errorf("speed_ms must be >= 0, got %d", c.SpeedMS))
	}
	if c.StepDwellMS < 0 {
		errs = append(errs, fmt.Errorf("step_dwell_ms must be >= 0, got %d", c.StepDwellMS))
	}
	if c.FrameRate <= 0 || c.FrameRate > MaxFrameRate {
		errs = append(errs, fmt.Errorf("frame_rate must be in 1..%d, got %d", MaxFrameRate, c.FrameRate))
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Canvas.ScaleX <= 0 || c.Canvas.ScaleY <= 0 {
		errs = append(errs, fmt.Errorf("canvas scale must be positive, got %dx%d", c.Canvas.ScaleX, c.Canvas.ScaleY))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Speed returns the animation speed as a duration.
func (c *Config) Speed() time.Duration {
	return time.Duration(c.SpeedMS) * time.Millisecond
}

// StepDwell returns the pause after each step as a duration.
func (c *Config) StepDwell() time.Duration {
	return time.Duration(c.StepDwellMS) * time.Millisecond
}

// FrameInterval returns the tick interval for the frame rate.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// ParseLevel maps a log_level string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", s)
}
