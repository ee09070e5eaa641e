package engine

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-airdrums/pkg/hands"
	"github.com/teslashibe/go-airdrums/pkg/impulse"
	"github.com/teslashibe/go-airdrums/pkg/particles"
	"github.com/teslashibe/go-airdrums/pkg/reactive"
	"github.com/teslashibe/go-airdrums/pkg/rhythm"
	"github.com/teslashibe/go-airdrums/pkg/spectrum"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

// Config gathers the settings of every pipeline stage.
type Config struct {
	FrameInterval time.Duration              `yaml:"frame_interval" json:"frame_interval"`
	CommandBuffer int                        `yaml:"command_buffer" json:"command_buffer"`
	Seed          uint64                     `yaml:"seed" json:"seed"` // 0 = time based
	Surface       hands.Surface              `yaml:"surface" json:"surface"`
	Analyzer      spectrum.Config            `yaml:"analyzer" json:"analyzer"`
	Rhythm        rhythm.Config              `yaml:"rhythm" json:"rhythm"`
	Impulses      map[string]impulse.Profile `yaml:"impulses" json:"impulses"`
	Tuning        reactive.Tuning            `yaml:"tuning" json:"tuning"`
	Glitch        reactive.GlitchConfig      `yaml:"glitch" json:"glitch"`
	Particles     particles.Config           `yaml:"particles" json:"particles"`
	Zones         zones.Config               `yaml:"zones" json:"zones"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FrameInterval: time.Second / 60,
		CommandBuffer: 64,
		Surface:       hands.DefaultSurface(),
		Analyzer:      spectrum.DefaultConfig(),
		Rhythm:        rhythm.DefaultConfig(),
		Impulses:      impulse.Profiles(),
		Tuning:        reactive.DefaultTuning(),
		Glitch:        reactive.DefaultGlitchConfig(),
		Particles:     particles.DefaultConfig(),
		Zones:         zones.DefaultConfig(),
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive")
	}
	if c.CommandBuffer < 1 {
		return fmt.Errorf("command_buffer must be positive")
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("surface must have a positive size")
	}
	if err := c.Analyzer.Validate(); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if err := c.Particles.Validate(); err != nil {
		return fmt.Errorf("particles: %w", err)
	}
	if err := c.Zones.Validate(); err != nil {
		return fmt.Errorf("zones: %w", err)
	}
	return nil
}
