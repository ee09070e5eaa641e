package particles

import "fmt"

// StyleParams shapes one spawn generator. Ranges are [min, max] and are
// scaled by intensity as described on each field.
type StyleParams struct {
	BaseCount int     `yaml:"base_count" json:"base_count"`
	CountSpan float64 `yaml:"count_span" json:"count_span"` // extra particles at intensity 1

	// Speed in px/ms, scaled by 0.6 + 0.8*intensity.
	MinSpeed float64 `yaml:"min_speed" json:"min_speed"`
	MaxSpeed float64 `yaml:"max_speed" json:"max_speed"`

	// Size in px, scaled by 0.8 + 0.6*intensity.
	MinSize float64 `yaml:"min_size" json:"min_size"`
	MaxSize float64 `yaml:"max_size" json:"max_size"`

	// Life in ms, scaled by 0.8 + 0.4*intensity.
	MinLife float64 `yaml:"min_life" json:"min_life"`
	MaxLife float64 `yaml:"max_life" json:"max_life"`

	SwirlChance float64 `yaml:"swirl_chance" json:"swirl_chance"`
}

// Config configures the simulator.
type Config struct {
	Capacity   int     `yaml:"capacity" json:"capacity"`
	Damping    float64 `yaml:"damping" json:"damping"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`

	// HueJitter is the +/- degrees applied to the zone hue per particle.
	HueJitter float64 `yaml:"hue_jitter" json:"hue_jitter"`

	Burst   StyleParams `yaml:"burst" json:"burst"`
	Spray   StyleParams `yaml:"spray" json:"spray"`
	Cluster StyleParams `yaml:"cluster" json:"cluster"`
	Ring    StyleParams `yaml:"ring" json:"ring"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:   220,
		Damping:    0.94,
		Multiplier: 1,
		HueJitter:  14,
		Burst: StyleParams{
			BaseCount: 14, CountSpan: 22,
			MinSpeed: 0.12, MaxSpeed: 0.36,
			MinSize: 3, MaxSize: 6,
			MinLife: 420, MaxLife: 760,
			SwirlChance: 0.15,
		},
		Spray: StyleParams{
			BaseCount: 12, CountSpan: 20,
			MinSpeed: 0.18, MaxSpeed: 0.45,
			MinSize: 2, MaxSize: 5,
			MinLife: 360, MaxLife: 640,
			SwirlChance: 0.1,
		},
		Cluster: StyleParams{
			BaseCount: 10, CountSpan: 16,
			MinSpeed: 0.12, MaxSpeed: 0.36,
			MinSize: 3, MaxSize: 7,
			MinLife: 520, MaxLife: 900,
			SwirlChance: 0.75,
		},
		Ring: StyleParams{
			BaseCount: 10, CountSpan: 14,
			MinSpeed: 0.14, MaxSpeed: 0.3,
			MinSize: 3, MaxSize: 5,
			MinLife: 380, MaxLife: 620,
			SwirlChance: 0.05,
		},
	}
}

// Params returns the generator settings for a style.
func (c *Config) Params(s Style) StyleParams {
	switch s {
	case StyleSpray:
		return c.Spray
	case StyleCluster:
		return c.Cluster
	case StyleRing:
		return c.Ring
	default:
		return c.Burst
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.Damping <= 0 || c.Damping > 1 {
		return fmt.Errorf("damping must be in (0, 1], got %v", c.Damping)
	}
	if c.Multiplier < 0.1 || c.Multiplier > 10 {
		return fmt.Errorf("multiplier must be in [0.1, 10], got %v", c.Multiplier)
	}
	for _, s := range Styles {
		p := c.Params(s)
		if p.BaseCount < 1 || p.CountSpan < 1 {
			return fmt.Errorf("%s: base_count and count_span must be >= 1", s)
		}
		// A full strike must emit more than the softest one.
		if lo, hi := emitCount(p, c.Multiplier, 0), emitCount(p, c.Multiplier, 1); hi <= lo {
			return fmt.Errorf("%s: count at full intensity (%d) must exceed count at zero (%d); raise count_span or multiplier", s, hi, lo)
		}
		if p.MinSpeed < 0 || p.MaxSpeed < p.MinSpeed {
			return fmt.Errorf("%s: invalid speed range", s)
		}
		if p.MinSize <= 0 || p.MaxSize < p.MinSize {
			return fmt.Errorf("%s: invalid size range", s)
		}
		if p.MinLife <= 0 || p.MaxLife < p.MinLife {
			return fmt.Errorf("%s: invalid life range", s)
		}
	}
	return nil
}
