// Package audioio provides audio capture sources for the spectral analyzer.
//
// Backends:
//   - Pulse - the local microphone through a PulseAudio server
//   - File - a WAV file played back in real time (rehearsal, offline analysis)
//   - RTP - Opus over RTP/UDP from a remote microphone
//   - Mock - synthetic audio for tests
//
// The backend is selected from configuration. BackendAuto picks one from the
// Device field and fails with ErrUnsupported when nothing can capture.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects a backend from the Device field.
	BackendAuto Backend = "auto"
	// BackendPulse records from a PulseAudio server.
	BackendPulse Backend = "pulse"
	// BackendFile reads a WAV file.
	BackendFile Backend = "file"
	// BackendRTP receives Opus audio over RTP.
	BackendRTP Backend = "rtp"
	// BackendMock uses a synthetic generator for testing.
	BackendMock Backend = "mock"
)

// Config holds audio capture configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto"
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the capture sample rate in Hz.
	// Default: 48000
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the size of audio chunks.
	// Default: 10ms
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Device identifies the input.
	//   - Pulse: "pulse" for the default source, or "pulse:<source name>"
	//   - File: path to a .wav file
	//   - RTP: UDP listen address, e.g. ":5004"
	//   - Mock: ignored
	Device string `yaml:"device" json:"device"`

	// Loop restarts a file source when it reaches the end.
	Loop bool `yaml:"loop" json:"loop"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     48000,
		Channels:       1,
		BufferDuration: 10 * time.Millisecond,
		Device:         "",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	if c.Backend == BackendPulse && c.Channels > 2 {
		return fmt.Errorf("pulse records mono or stereo, got %d channels", c.Channels)
	}
	return nil
}

// BufferSize returns the number of frames per chunk.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// decodeRate is the Opus decoder rate for a capture rate. Opus only decodes
// at a few fixed rates; anything else decodes at 48kHz and is resampled.
func decodeRate(rate int) int {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
		return rate
	}
	return 48000
}
