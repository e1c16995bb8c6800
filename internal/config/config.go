// Package config handles loading and saving the extrusion tool settings.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/bezier-extrude/internal/curve"
	"github.com/Faultbox/bezier-extrude/internal/extrude"
	"github.com/Faultbox/bezier-extrude/internal/shape"
)

// Config holds all tool settings.
type Config struct {
	Extrude ExtrudeConfig `yaml:"extrude" toml:"extrude"`
	Assets  AssetsConfig  `yaml:"assets" toml:"assets"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ExtrudeConfig holds mesh generation settings.
type ExtrudeConfig struct {
	RingCount      int      `yaml:"ring_count" toml:"ring_count"`
	ModifyInterval Duration `yaml:"modify_interval" toml:"modify_interval"`
	Precision      int      `yaml:"precision" toml:"precision"` // Samples per segment for length estimates
	// SingleChangePerTick patches only the first edited control point per poll.
	SingleChangePerTick bool   `yaml:"single_change_per_tick" toml:"single_change_per_tick"`
	Shape               string `yaml:"shape" toml:"shape"` // Builtin name or shape file path
	Material            string `yaml:"material" toml:"material"`
}

// AssetsConfig holds shape file watching settings.
type AssetsConfig struct {
	Watch        bool     `yaml:"watch" toml:"watch"`
	TickInterval Duration `yaml:"tick_interval" toml:"tick_interval"` // Watch loop frame time
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	LogFile    string `yaml:"log_file" toml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Extrude: ExtrudeConfig{
			RingCount:      extrude.DefaultRingCount,
			ModifyInterval: Duration(extrude.DefaultModifyInterval),
			Precision:      curve.DefaultPrecision,
			Shape:          shape.BuiltinQuad,
		},
		Assets: AssetsConfig{
			Watch:        true,
			TickInterval: Duration(50 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := extrude.ValidateRingCount(c.Extrude.RingCount); err != nil {
		return err
	}
	interval := time.Duration(c.Extrude.ModifyInterval)
	if interval < extrude.MinModifyInterval || interval > extrude.MaxModifyInterval {
		return fmt.Errorf("%w: modify interval %v outside [%v, %v]",
			extrude.ErrConfiguration, interval, extrude.MinModifyInterval, extrude.MaxModifyInterval)
	}
	if c.Extrude.Precision < 2 {
		return fmt.Errorf("%w: precision %d below 2", extrude.ErrConfiguration, c.Extrude.Precision)
	}
	if c.Extrude.Shape == "" {
		return fmt.Errorf("%w: no shape", extrude.ErrConfiguration)
	}
	if c.Assets.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", extrude.ErrConfiguration)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", extrude.ErrConfiguration, c.Logging.Level)
	}
	return nil
}

// ExtruderConfig converts the generation settings for extrude.Initialize.
// The shape reference is resolved by the caller.
func (c *Config) ExtruderConfig(s *shape.Shape2D) extrude.Config {
	return extrude.Config{
		RingCount:           c.Extrude.RingCount,
		ModifyInterval:      time.Duration(c.Extrude.ModifyInterval),
		Precision:           c.Extrude.Precision,
		SingleChangePerTick: c.Extrude.SingleChangePerTick,
		Shape:               s,
		Material:            extrude.Material(c.Extrude.Material),
	}
}

// Duration is a time.Duration written as a string ("250ms") in YAML and TOML.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
