// Package impulse turns drum hits into synthetic band energy that decays
// over a few hundred milliseconds.
package impulse

import (
	"math"
	"time"
)

// Limits on the impulse state.
const (
	MaxLevel    = 1.6
	SnapEpsilon = 0.0005
	DecayTauMs  = 220.0
	DefaultID   = "default"
)

// Profile weights one drum's contribution to each band.
type Profile struct {
	Overall float64 `yaml:"overall" json:"overall"`
	Bass    float64 `yaml:"bass" json:"bass"`
	Mid     float64 `yaml:"mid" json:"mid"`
	Treble  float64 `yaml:"treble" json:"treble"`
}

// Profiles returns the built-in profile table keyed by zone id.
func Profiles() map[string]Profile {
	return map[string]Profile{
		"Kick":    {Overall: 1.0, Bass: 1.1, Mid: 0.25, Treble: 0.12},
		"Snare":   {Overall: 0.85, Bass: 0.35, Mid: 0.95, Treble: 0.7},
		"Tom":     {Overall: 0.95, Bass: 0.8, Mid: 0.5, Treble: 0.3},
		"Hi-Hat":  {Overall: 0.7, Bass: 0.15, Mid: 0.6, Treble: 1.0},
		DefaultID: {Overall: 0.85, Bass: 0.45, Mid: 0.5, Treble: 0.55},
	}
}

// State is the current impulse energy. Every field stays in [0, MaxLevel].
type State struct {
	Overall float64 `json:"overall"`
	Bass    float64 `json:"bass"`
	Mid     float64 `json:"mid"`
	Treble  float64 `json:"treble"`
}

// Marker receives a timestamp for every registered impulse.
type Marker interface {
	Mark(now time.Time)
}

// Injector accumulates impulses. It is not safe for concurrent use.
type Injector struct {
	profiles map[string]Profile
	state    State
	marker   Marker
}

// NewInjector creates an injector. A nil profiles map uses Profiles().
// marker may be nil.
func NewInjector(profiles map[string]Profile, marker Marker) *Injector {
	if profiles == nil {
		profiles = Profiles()
	}
	if _, ok := profiles[DefaultID]; !ok {
		profiles[DefaultID] = Profiles()[DefaultID]
	}
	return &Injector{profiles: profiles, marker: marker}
}

// Profile returns the profile for id, falling back to the default.
func (in *Injector) Profile(id string) Profile {
	if p, ok := in.profiles[id]; ok {
		return p
	}
	return in.profiles[DefaultID]
}

// Register adds one hit from sourceID with the given strength.
func (in *Injector) Register(now time.Time, sourceID string, strength float64) {
	p := in.Profile(sourceID)
	s := clamp(strength, 0, 1)

	in.state.Overall = clamp(in.state.Overall+p.Overall*s, 0, MaxLevel)
	in.state.Bass = clamp(in.state.Bass+p.Bass*s, 0, MaxLevel)
	in.state.Mid = clamp(in.state.Mid+p.Mid*s, 0, MaxLevel)
	in.state.Treble = clamp(in.state.Treble+p.Treble*s, 0, MaxLevel)

	if in.marker != nil {
		in.marker.Mark(now)
	}
}

// Decay attenuates every field by exp(-dt/220ms). Negative deltas count as 0.
func (in *Injector) Decay(dtMs float64) {
	f := math.Exp(-math.Max(dtMs, 0) / DecayTauMs)
	in.state.Overall = snap(in.state.Overall * f)
	in.state.Bass = snap(in.state.Bass * f)
	in.state.Mid = snap(in.state.Mid * f)
	in.state.Treble = snap(in.state.Treble * f)
}

// State returns a copy of the current state.
func (in *Injector) State() State {
	return in.state
}

// Reset zeroes the state.
func (in *Injector) Reset() {
	in.state = State{}
}

func snap(v float64) float64 {
	if v < SnapEpsilon {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
