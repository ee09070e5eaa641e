package spectrum

import "fmt"

// Approach holds per-band smoothing rates toward the target averages.
type Approach struct {
	Bass   float64 `yaml:"bass" json:"bass"`
	Mid    float64 `yaml:"mid" json:"mid"`
	Treble float64 `yaml:"treble" json:"treble"`
}

// Config configures the analyzer.
type Config struct {
	FFTSize     int     `yaml:"fft_size" json:"fft_size"`
	Smoothing   float64 `yaml:"smoothing" json:"smoothing"`
	MinDecibels float64 `yaml:"min_decibels" json:"min_decibels"`
	MaxDecibels float64 `yaml:"max_decibels" json:"max_decibels"`
	Bands       Bands   `yaml:"bands" json:"bands"`

	// LiveApproach applies while capture is running, IdleApproach otherwise.
	LiveApproach Approach `yaml:"live_approach" json:"live_approach"`
	IdleApproach float64  `yaml:"idle_approach" json:"idle_approach"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FFTSize:      1024,
		Smoothing:    0.6,
		MinDecibels:  -100,
		MaxDecibels:  -30,
		Bands:        DefaultBands(),
		LiveApproach: Approach{Bass: 0.25, Mid: 0.22, Treble: 0.24},
		IdleApproach: 0.15,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.FFTSize < 32 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft_size must be a power of two >= 32, got %d", c.FFTSize)
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing must be in [0, 1), got %v", c.Smoothing)
	}
	if c.MaxDecibels <= c.MinDecibels {
		return fmt.Errorf("max_decibels must exceed min_decibels")
	}
	for name, b := range map[string]Band{"bass": c.Bands.Bass, "mid": c.Bands.Mid, "treble": c.Bands.Treble} {
		if b.Low < 0 || b.High <= b.Low {
			return fmt.Errorf("band %s: invalid range %v-%v Hz", name, b.Low, b.High)
		}
	}
	return nil
}
