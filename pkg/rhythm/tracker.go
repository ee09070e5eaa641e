// Package rhythm detects energy onsets and measures how densely they occur.
package rhythm

import "time"

// Config tunes peak detection.
type Config struct {
	EMARate         float64       `yaml:"ema_rate" json:"ema_rate"`
	ThresholdOffset float64       `yaml:"threshold_offset" json:"threshold_offset"`
	Cooldown        time.Duration `yaml:"cooldown" json:"cooldown"`
	Window          time.Duration `yaml:"window" json:"window"`
	// FullDensity is the peak count per window that maps to density 1.
	FullDensity int `yaml:"full_density" json:"full_density"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EMARate:         0.08,
		ThresholdOffset: 0.18,
		Cooldown:        120 * time.Millisecond,
		Window:          2 * time.Second,
		FullDensity:     6,
	}
}

// Tracker keeps an energy average and the timestamps of recent peaks.
// It is not safe for concurrent use.
type Tracker struct {
	cfg      Config
	ema      float64
	lastPeak time.Time
	peaks    []time.Time
}

// NewTracker creates a tracker. Zero fields in cfg take their defaults.
func NewTracker(cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.EMARate <= 0 {
		cfg.EMARate = def.EMARate
	}
	if cfg.ThresholdOffset <= 0 {
		cfg.ThresholdOffset = def.ThresholdOffset
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.FullDensity <= 0 {
		cfg.FullDensity = def.FullDensity
	}
	return &Tracker{cfg: cfg}
}

// Observe feeds one frame of energy and reports whether it was a peak.
// The threshold is the average before this frame plus the offset.
func (t *Tracker) Observe(now time.Time, energy float64) bool {
	threshold := t.ema + t.cfg.ThresholdOffset
	t.ema += (energy - t.ema) * t.cfg.EMARate

	peak := energy > threshold && (t.lastPeak.IsZero() || now.Sub(t.lastPeak) > t.cfg.Cooldown)
	if peak {
		t.peaks = append(t.peaks, now)
		t.lastPeak = now
	}
	t.prune(now)
	return peak
}

// Mark records a peak unconditionally, bypassing threshold and cooldown.
func (t *Tracker) Mark(now time.Time) {
	t.peaks = append(t.peaks, now)
	t.prune(now)
}

// Density returns the recent peak count scaled to [0, 1].
func (t *Tracker) Density(now time.Time) float64 {
	t.prune(now)
	d := float64(len(t.peaks)) / float64(t.cfg.FullDensity)
	if d > 1 {
		return 1
	}
	return d
}

// Count returns the number of peaks inside the window.
func (t *Tracker) Count() int {
	return len(t.peaks)
}

// EMA returns the current energy average.
func (t *Tracker) EMA() float64 {
	return t.ema
}

// Reset clears all state.
func (t *Tracker) Reset() {
	t.ema = 0
	t.lastPeak = time.Time{}
	t.peaks = t.peaks[:0]
}

func (t *Tracker) prune(now time.Time) {
	i := 0
	for i < len(t.peaks) && now.Sub(t.peaks[i]) > t.cfg.Window {
		i++
	}
	if i > 0 {
		n := copy(t.peaks, t.peaks[i:])
		t.peaks = t.peaks[:n]
	}
}
