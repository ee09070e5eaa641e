package reactive

// Tuning holds the mapping coefficients. Output intervals are fixed and not
// part of the tuning.
type Tuning struct {
	PixelBass         float64 `yaml:"pixel_bass" json:"pixel_bass"`
	PixelImpulse      float64 `yaml:"pixel_impulse" json:"pixel_impulse"`
	PixelApproachLive float64 `yaml:"pixel_approach_live" json:"pixel_approach_live"`
	PixelApproachIdle float64 `yaml:"pixel_approach_idle" json:"pixel_approach_idle"`

	SaturationBass     float64 `yaml:"saturation_bass" json:"saturation_bass"`
	SaturationMid      float64 `yaml:"saturation_mid" json:"saturation_mid"`
	SaturationImpulse  float64 `yaml:"saturation_impulse" json:"saturation_impulse"`
	SaturationRhythm   float64 `yaml:"saturation_rhythm" json:"saturation_rhythm"`
	SaturationApproach float64 `yaml:"saturation_approach" json:"saturation_approach"`

	HueBandSpread    float64 `yaml:"hue_band_spread" json:"hue_band_spread"`
	HueTreble        float64 `yaml:"hue_treble" json:"hue_treble"`
	HueImpulseSpread float64 `yaml:"hue_impulse_spread" json:"hue_impulse_spread"`
	HueImpulseEnergy float64 `yaml:"hue_impulse_energy" json:"hue_impulse_energy"`
	HueApproach      float64 `yaml:"hue_approach" json:"hue_approach"`

	JitterTreble   float64 `yaml:"jitter_treble" json:"jitter_treble"`
	JitterImpulse  float64 `yaml:"jitter_impulse" json:"jitter_impulse"`
	JitterApproach float64 `yaml:"jitter_approach" json:"jitter_approach"`

	VividImpulse  float64 `yaml:"vivid_impulse" json:"vivid_impulse"`
	VividTreble   float64 `yaml:"vivid_treble" json:"vivid_treble"`
	VividRhythm   float64 `yaml:"vivid_rhythm" json:"vivid_rhythm"`
	VividApproach float64 `yaml:"vivid_approach" json:"vivid_approach"`

	FlashBass     float64 `yaml:"flash_bass" json:"flash_bass"`
	FlashTreble   float64 `yaml:"flash_treble" json:"flash_treble"`
	FlashApproach float64 `yaml:"flash_approach" json:"flash_approach"`

	RhythmApproach float64 `yaml:"rhythm_approach" json:"rhythm_approach"`

	// PeakImpulseWeight scales impulse energy when it competes with the
	// spectral energy for peak detection.
	PeakImpulseWeight float64 `yaml:"peak_impulse_weight" json:"peak_impulse_weight"`
	ActiveThreshold   float64 `yaml:"active_threshold" json:"active_threshold"`
}

// DefaultTuning returns the stock coefficients.
func DefaultTuning() Tuning {
	return Tuning{
		PixelBass:         0.22,
		PixelImpulse:      0.15,
		PixelApproachLive: 0.28,
		PixelApproachIdle: 0.32,

		SaturationBass:     1.4,
		SaturationMid:      0.6,
		SaturationImpulse:  1.1,
		SaturationRhythm:   0.35,
		SaturationApproach: 0.35,

		HueBandSpread:    32,
		HueTreble:        14,
		HueImpulseSpread: 24,
		HueImpulseEnergy: 10,
		HueApproach:      0.4,

		JitterTreble:   0.35,
		JitterImpulse:  0.12,
		JitterApproach: 0.3,

		VividImpulse:  0.8,
		VividTreble:   0.6,
		VividRhythm:   0.5,
		VividApproach: 0.35,

		FlashBass:     0.45,
		FlashTreble:   0.4,
		FlashApproach: 0.45,

		RhythmApproach: 0.22,

		PeakImpulseWeight: 0.85,
		ActiveThreshold:   0.02,
	}
}
