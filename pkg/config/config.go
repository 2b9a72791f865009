// Package config holds the settings of the curvectl renderer: curve size,
// block size, logging and the MIDI CC mapping.
package config

import (
	"os"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/justyntemme/curvego/pkg/engine"
	"github.com/justyntemme/curvego/pkg/framework/debug"
	"github.com/justyntemme/curvego/pkg/midi"
)

// MaxBlockSize bounds the configured block size.
const MaxBlockSize = 1 << 16

// MIDIConfig maps controllers to curve parameters. Curve keys are control
// point indexes; input and output keys are curved parameter indexes.
type MIDIConfig struct {
	Channel        uint8         `yaml:"channel"`
	SamplesPerTick float64       `yaml:"samples_per_tick"`
	Resolution     uint16        `yaml:"resolution,omitempty"`
	CurveCC        map[int]uint8 `yaml:"curve_cc,omitempty"`
	InputCC        map[int]uint8 `yaml:"input_cc,omitempty"`
	OutputCC       map[int]uint8 `yaml:"output_cc,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	CurvePoints  int     `yaml:"curve_points"`
	CurvedParams int     `yaml:"curved_params"`
	BlockSize    int     `yaml:"block_size"`
	SampleRate   float64 `yaml:"sample_rate"`
	LogLevel     string  `yaml:"log_level"`

	// Curve optionally replaces the identity curve the plugin starts with.
	Curve []float64 `yaml:"curve,flow,omitempty"`

	MIDI MIDIConfig `yaml:"midi"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		CurvePoints:  engine.DefaultCurvePoints,
		CurvedParams: engine.DefaultCurvedParams,
		BlockSize:    512,
		SampleRate:   48000,
		LogLevel:     "info",
		MIDI: MIDIConfig{
			// 120 BPM at 960 ticks per quarter note
			SamplesPerTick: 25,
			Resolution:     midi.DefaultResolution,
			InputCC:        map[int]uint8{0: 1},
			OutputCC:       map[int]uint8{0: 1},
		},
	}
}

// Parse decodes YAML over the defaults and validates the result. A CC map
// given in the document replaces the default map instead of merging with it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.MIDI
	cfg.MIDI.InputCC, cfg.MIDI.OutputCC = nil, nil
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Annotate(err, "cannot parse config")
	}
	if cfg.MIDI.InputCC == nil {
		cfg.MIDI.InputCC = defaults.InputCC
	}
	if cfg.MIDI.OutputCC == nil {
		cfg.MIDI.OutputCC = defaults.OutputCC
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// Load reads the config at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cfg, err := Parse(data)
	return cfg, errors.Annotatef(err, "%s", path)
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(path, data, 0o644))
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if _, err := engine.NewCurveState(c.CurvePoints, c.CurvedParams); err != nil {
		return errors.Trace(err)
	}
	if c.BlockSize < 1 || c.BlockSize > MaxBlockSize {
		return errors.NotValidf("block size %d", c.BlockSize)
	}
	if !(c.SampleRate > 0) {
		return errors.NotValidf("sample rate %v", c.SampleRate)
	}
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		return errors.Trace(err)
	}
	if len(c.Curve) != 0 && len(c.Curve) != c.CurvePoints {
		return errors.NotValidf("curve of %d values for %d points", len(c.Curve), c.CurvePoints)
	}
	for i, v := range c.Curve {
		if !(v >= 0 && v <= 1) {
			return errors.NotValidf("curve value %d = %v", i, v)
		}
	}
	if err := c.MIDIOptions().Validate(); err != nil {
		return errors.Trace(err)
	}

	used := make(map[uint8]string)
	check := func(kind string, m map[int]uint8, limit int, exclusive bool) error {
		for i, cc := range m {
			if i < 0 || i >= limit {
				return errors.NotValidf("%s index %d", kind, i)
			}
			if cc > 127 {
				return errors.NotValidf("%s controller %d", kind, cc)
			}
			if !exclusive {
				continue
			}
			if prev, ok := used[cc]; ok {
				return errors.NotValidf("controller %d mapped to both %s and %s", cc, prev, kind)
			}
			used[cc] = kind
		}
		return nil
	}
	if err := check("curve", c.MIDI.CurveCC, c.CurvePoints, true); err != nil {
		return err
	}
	if err := check("input", c.MIDI.InputCC, c.CurvedParams, true); err != nil {
		return err
	}
	return check("output", c.MIDI.OutputCC, c.CurvedParams, false)
}

// Layout returns the plugin's parameter id layout.
func (c *Config) Layout() engine.Layout {
	return engine.Layout{NumPoints: c.CurvePoints, NumParams: c.CurvedParams}
}

// Level returns the configured log level.
func (c *Config) Level() debug.LogLevel {
	level, _ := debug.ParseLevel(c.LogLevel)
	return level
}

// MIDIOptions returns the tick and channel mapping for MIDI files.
func (c *Config) MIDIOptions() midi.Options {
	return midi.Options{
		Channel:        c.MIDI.Channel,
		SamplesPerTick: c.MIDI.SamplesPerTick,
		Resolution:     c.MIDI.Resolution,
	}
}

// InputControllers maps controllers read from MIDI files to parameter ids.
func (c *Config) InputControllers() map[uint8]uint32 {
	l := c.Layout()
	m := make(map[uint8]uint32, len(c.MIDI.CurveCC)+len(c.MIDI.InputCC))
	for i, cc := range c.MIDI.CurveCC {
		m[cc] = l.ControlPointID(i)
	}
	for i, cc := range c.MIDI.InputCC {
		m[cc] = l.InputID(i)
	}
	return m
}

// OutputControllers maps output parameter ids to controllers written to MIDI
// files.
func (c *Config) OutputControllers() map[uint32]uint8 {
	l := c.Layout()
	m := make(map[uint32]uint8, len(c.MIDI.OutputCC))
	for i, cc := range c.MIDI.OutputCC {
		m[l.OutputID(i)] = cc
	}
	return m
}
