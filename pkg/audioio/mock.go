package audioio

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// MockSource is a mock audio source for testing.
// It generates silence or a sine wave at the configured buffer cadence.
type MockSource struct {
	capture

	startErr  error
	frequency float64 // Hz, 0 = silence
	amplitude float64 // 0.0 to 1.0
	phase     float64
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave configures the mock to generate a sine wave.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithStartError makes Start fail with err, e.g. ErrPermissionDenied.
func WithStartError(err error) MockSourceOption {
	return func(m *MockSource) {
		m.startErr = err
	}
}

// NewMockSource creates a new mock audio source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	m := &MockSource{amplitude: 0.5}
	m.init("mock", cfg, logger)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins generating audio.
func (m *MockSource) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	return m.begin(ctx, m.generateLoop)
}

func (m *MockSource) generateLoop(ctx context.Context, stop <-chan struct{}, emit func(AudioChunk) bool) {
	ticker := time.NewTicker(m.cfg.BufferDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if !emit(m.generateChunk()) {
				return
			}
		}
	}
}

func (m *MockSource) generateChunk() AudioChunk {
	frames := m.cfg.BufferSize()
	channels := m.cfg.Channels
	samples := make([]int16, frames*channels)

	if m.frequency > 0 {
		step := 2 * math.Pi * m.frequency / float64(m.cfg.SampleRate)
		for i := 0; i < frames; i++ {
			v := int16(m.amplitude * math.Sin(m.phase) * 32767)
			for ch := 0; ch < channels; ch++ {
				samples[i*channels+ch] = v
			}
			m.phase += step
			if m.phase >= 2*math.Pi {
				m.phase -= 2 * math.Pi
			}
		}
	}

	return AudioChunk{
		Samples:    samples,
		SampleRate: m.cfg.SampleRate,
		Channels:   channels,
	}
}

// Close releases resources.
func (m *MockSource) Close() error {
	if m.markClosed() {
		return nil
	}
	return m.Stop()
}

var _ SourceWithStats = (*MockSource)(nil)
