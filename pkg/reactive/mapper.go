// Package reactive maps spectral levels and drum impulses to the visual
// effect parameters, and runs the short glitch bursts fired by some zones.
package reactive

import (
	"math"
	"time"

	"github.com/teslashibe/go-airdrums/pkg/impulse"
	"github.com/teslashibe/go-airdrums/pkg/rhythm"
	"github.com/teslashibe/go-airdrums/pkg/spectrum"
)

// Output intervals.
const (
	MinPixelSize  = 0.7
	MaxPixelSize  = 1.6
	MaxSaturation = 2.2
	MaxHueShift   = 36.0
	MaxJitter     = 0.5
	MaxVividness  = 1.3
	MaxColorFlash = 1.2
	MaxLevel      = impulse.MaxLevel
	MaxImpulse    = 1.3

	maxBandHue    = 32.0
	maxImpulseHue = 24.0
)

// State is the set of effect controls consumed by a renderer.
type State struct {
	Active          bool    `json:"active"`
	PixelSizeFactor float64 `json:"pixel_size_factor"`
	SaturationBoost float64 `json:"saturation_boost"`
	HueShiftDeg     float64 `json:"hue_shift_deg"`
	JitterStrength  float64 `json:"jitter_strength"`
	Vividness       float64 `json:"vividness"`
	ColorFlash      float64 `json:"color_flash"`
	RhythmDensity   float64 `json:"rhythm_density"`
	BassLevel       float64 `json:"bass_level"`
	MidLevel        float64 `json:"mid_level"`
	TrebleLevel     float64 `json:"treble_level"`
}

// DefaultState is the resting state.
func DefaultState() State {
	return State{PixelSizeFactor: 1}
}

// Mapper owns the impulse injector and rhythm tracker and produces State.
// It is not safe for concurrent use.
type Mapper struct {
	tuning   Tuning
	injector *impulse.Injector
	rhythm   *rhythm.Tracker
	state    State
}

// NewMapper creates a mapper around an injector and tracker. The injector
// should mark the same tracker so hits count toward rhythm density.
func NewMapper(tuning Tuning, injector *impulse.Injector, tracker *rhythm.Tracker) *Mapper {
	return &Mapper{
		tuning:   tuning,
		injector: injector,
		rhythm:   tracker,
		state:    DefaultState(),
	}
}

// Injector returns the injector the mapper reads.
func (m *Mapper) Injector() *impulse.Injector {
	return m.injector
}

// RegisterImpulse registers a hit and flags the state active.
func (m *Mapper) RegisterImpulse(now time.Time, sourceID string, strength float64) {
	m.injector.Register(now, sourceID, strength)
	m.state.Active = true
}

// Update recomputes the state from this frame's spectral snapshot and the
// injector's current (already decayed) impulse.
func (m *Mapper) Update(now time.Time, spec spectrum.Snapshot) State {
	tu := &m.tuning
	imp := m.injector.State()
	live := spec.Live

	bass := clamp(spec.Bass+imp.Bass, 0, MaxLevel)
	mid := clamp(spec.Mid+imp.Mid, 0, MaxLevel)
	treble := clamp(spec.Treble+imp.Treble, 0, MaxLevel)
	ie := clamp(imp.Overall, 0, MaxImpulse)

	m.rhythm.Observe(now, math.Max(spec.Energy, ie*tu.PeakImpulseWeight))

	s := &m.state
	s.RhythmDensity = smoothClamp(s.RhythmDensity, m.rhythm.Density(now), tu.RhythmApproach, 0, 1)

	pixelRate := tu.PixelApproachIdle
	if live {
		pixelRate = tu.PixelApproachLive
	}
	pixel := clamp(1+bass*tu.PixelBass+ie*tu.PixelImpulse, MinPixelSize, MaxPixelSize)
	s.PixelSizeFactor = smoothClamp(s.PixelSizeFactor, pixel, pixelRate, MinPixelSize, MaxPixelSize)

	sat := clamp(bass*tu.SaturationBass+mid*tu.SaturationMid+ie*tu.SaturationImpulse+s.RhythmDensity*tu.SaturationRhythm, 0, MaxSaturation)
	s.SaturationBoost = smoothClamp(s.SaturationBoost, sat, tu.SaturationApproach, 0, MaxSaturation)

	hueBase := clamp((mid-bass)*tu.HueBandSpread, -maxBandHue, maxBandHue)
	hueImpulse := clamp((imp.Mid-imp.Bass)*tu.HueImpulseSpread+ie*tu.HueImpulseEnergy, -maxImpulseHue, maxImpulseHue)
	hue := clamp(hueBase+treble*tu.HueTreble+hueImpulse, -MaxHueShift, MaxHueShift)
	s.HueShiftDeg = smoothClamp(s.HueShiftDeg, hue, tu.HueApproach, -MaxHueShift, MaxHueShift)

	jitter := clamp(treble*tu.JitterTreble+ie*tu.JitterImpulse, 0, MaxJitter)
	s.JitterStrength = smoothClamp(s.JitterStrength, jitter, tu.JitterApproach, 0, MaxJitter)

	vivid := clamp(ie*tu.VividImpulse+treble*tu.VividTreble+s.RhythmDensity*tu.VividRhythm, 0, MaxVividness)
	s.Vividness = smoothClamp(s.Vividness, vivid, tu.VividApproach, 0, MaxVividness)

	flash := clamp(math.Max(ie, bass*tu.FlashBass+treble*tu.FlashTreble), 0, MaxColorFlash)
	s.ColorFlash = smoothClamp(s.ColorFlash, flash, tu.FlashApproach, 0, MaxColorFlash)

	s.BassLevel = bass
	s.MidLevel = mid
	s.TrebleLevel = treble

	th := tu.ActiveThreshold
	s.Active = live || ie > th || bass > th || mid > th || treble > th

	return *s
}

// State returns a copy of the last computed state.
func (m *Mapper) State() State {
	return m.state
}

// Reset returns every derived value to rest, including the impulse and
// rhythm state.
func (m *Mapper) Reset() {
	m.injector.Reset()
	m.rhythm.Reset()
	m.state = DefaultState()
}

func smoothClamp(current, target, rate, lo, hi float64) float64 {
	return clamp(current+(target-current)*clamp(rate, 0, 1), lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
