package reactive

import (
	"math"
	"math/rand/v2"
	"time"
)

// GlitchConfig tunes glitch bursts.
type GlitchConfig struct {
	BaseDuration      time.Duration `yaml:"base_duration" json:"base_duration"`
	IntensityDuration time.Duration `yaml:"intensity_duration" json:"intensity_duration"`
	MinStrength       float64       `yaml:"min_strength" json:"min_strength"`
	StrengthSpan      float64       `yaml:"strength_span" json:"strength_span"`
	FrameDecay        float64       `yaml:"frame_decay" json:"frame_decay"`
	Floor             float64       `yaml:"floor" json:"floor"`

	// Zones lists the zone ids that fire a burst on hit.
	Zones []string `yaml:"zones" json:"zones"`
}

// DefaultGlitchConfig returns sensible defaults.
func DefaultGlitchConfig() GlitchConfig {
	return GlitchConfig{
		BaseDuration:      160 * time.Millisecond,
		IntensityDuration: 340 * time.Millisecond,
		MinStrength:       0.4,
		StrengthSpan:      0.6,
		FrameDecay:        0.9,
		Floor:             0.01,
		Zones:             []string{"Snare"},
	}
}

const frameMs = 16.67

// GlitchState is a snapshot of one burst.
type GlitchState struct {
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
	Strength  float64   `json:"strength"`
	Seed      uint64    `json:"seed"`
}

// Glitch is a short-lived distortion burst with a decaying strength.
type Glitch struct {
	cfg   GlitchConfig
	rng   *rand.Rand
	state GlitchState
}

// NewGlitch creates an idle burst. rng seeds each trigger.
func NewGlitch(cfg GlitchConfig, rng *rand.Rand) *Glitch {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	return &Glitch{cfg: cfg, rng: rng}
}

// Trigger starts or extends a burst. intensity is clamped to [0, 1].
func (g *Glitch) Trigger(now time.Time, intensity float64) {
	i := clamp(intensity, 0, 1)
	g.state.Active = true
	g.state.ExpiresAt = now.Add(g.cfg.BaseDuration + time.Duration(i*float64(g.cfg.IntensityDuration)))
	g.state.Strength = math.Max(g.state.Strength, g.cfg.MinStrength+g.cfg.StrengthSpan*i)
	g.state.Seed = g.rng.Uint64()
}

// Update decays an active burst and ends it once expired or faded.
func (g *Glitch) Update(now time.Time, dtMs float64) {
	if !g.state.Active {
		return
	}
	if !now.Before(g.state.ExpiresAt) {
		g.end()
		return
	}
	g.state.Strength *= math.Pow(g.cfg.FrameDecay, math.Max(dtMs, 0)/frameMs)
	if g.state.Strength < g.cfg.Floor {
		g.end()
	}
}

func (g *Glitch) end() {
	g.state.Active = false
	g.state.Strength = 0
}

// State returns a copy of the burst state.
func (g *Glitch) State() GlitchState {
	return g.state
}

// Reset ends any burst.
func (g *Glitch) Reset() {
	g.state = GlitchState{}
}
