// Package spectrum turns live audio capture into smoothed bass, mid and
// treble levels once per frame.
package spectrum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-airdrums/pkg/audioio"
)

// Opener acquires a capture source. It is called once per initialization.
type Opener func() (audioio.Source, error)

// Snapshot is the analyzer output for one frame.
type Snapshot struct {
	Bass   float64 `json:"bass"`
	Mid    float64 `json:"mid"`
	Treble float64 `json:"treble"`
	Energy float64 `json:"energy"`
	Live   bool    `json:"live"`
}

type acquireResult struct {
	gen    uint64
	source audioio.Source
	err    error
}

// Analyzer owns at most one capture source and its spectral state.
// Sample, Init and Dispose belong to the frame thread; InitAsync only hands
// its result back through a channel that Sample polls.
type Analyzer struct {
	cfg    Config
	open   Opener
	logger *slog.Logger

	source     audioio.Source
	stream     <-chan audioio.AudioChunk
	sampleRate int
	ranges     *BandRanges
	frame      *frameAnalyzer
	ring       *sampleRing
	mono       []float64

	pending chan acquireResult
	cancel  context.CancelFunc
	gen     uint64

	snap Snapshot
}

// NewAnalyzer creates an analyzer that is not yet capturing.
func NewAnalyzer(cfg Config, open Opener, logger *slog.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if open == nil {
		return nil, errors.New("spectrum: nil opener")
	}
	if logger == nil {
		logger = slog.Default()
	}
	frame, err := newFrameAnalyzer(cfg.FFTSize, cfg.Smoothing, cfg.MinDecibels, cfg.MaxDecibels)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:    cfg,
		open:   open,
		logger: logger.With("component", "spectrum"),
		frame:  frame,
		ring:   newSampleRing(cfg.FFTSize),
	}, nil
}

// Init acquires and starts the capture source synchronously. It is a no-op
// when already initialized.
func (a *Analyzer) Init(ctx context.Context) error {
	if a.source != nil {
		return nil
	}
	src, err := a.acquire(ctx)
	if err != nil {
		return err
	}
	a.install(src)
	return nil
}

// InitAsync acquires the source on a goroutine. The returned channel yields
// the acquisition outcome exactly once. The source itself is installed by the
// next Sample call, so the frame thread never waits on the device.
func (a *Analyzer) InitAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if a.source != nil || a.pending != nil {
		done <- nil
		return done
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.pending = make(chan acquireResult, 1)
	pending := a.pending
	gen := a.gen

	go func() {
		src, err := a.acquire(ctx)
		pending <- acquireResult{gen: gen, source: src, err: err}
		done <- err
	}()
	return done
}

func (a *Analyzer) acquire(ctx context.Context) (audioio.Source, error) {
	src, err := a.open()
	if err != nil {
		return nil, classify(err)
	}
	if err := src.Start(ctx); err != nil {
		_ = src.Close()
		return nil, classify(err)
	}
	return src, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, audioio.ErrPermissionDenied):
		return &PermissionError{Err: err}
	case errors.Is(err, audioio.ErrUnsupported):
		return &UnsupportedError{Err: err}
	default:
		return fmt.Errorf("spectrum: start capture: %w", err)
	}
}

func (a *Analyzer) install(src audioio.Source) {
	a.source = src
	a.stream = src.Stream()
	a.sampleRate = src.Config().SampleRate
	ranges := ComputeBandRanges(float64(a.sampleRate), a.cfg.FFTSize, a.cfg.Bands)
	a.ranges = &ranges
	a.logger.Info("capture started",
		"source", src.Name(),
		"sample_rate", a.sampleRate,
		"bass_bins", ranges.Bass,
		"mid_bins", ranges.Mid,
		"treble_bins", ranges.Treble)
}

// Sample advances the analyzer by one frame and returns the smoothed levels.
// Before capture is running the levels relax toward zero.
func (a *Analyzer) Sample() Snapshot {
	a.pollPending()

	live := a.source != nil
	if live {
		live = a.drain()
	}

	var target Averages
	if live {
		target = ComputeBandAverages(a.frame.analyze(a.ring), a.ranges)
	}

	s := a.snap
	if live {
		s.Bass = approach(s.Bass, target.Bass, a.cfg.LiveApproach.Bass)
		s.Mid = approach(s.Mid, target.Mid, a.cfg.LiveApproach.Mid)
		s.Treble = approach(s.Treble, target.Treble, a.cfg.LiveApproach.Treble)
		s.Energy = target.Energy
	} else {
		s.Bass = approach(s.Bass, 0, a.cfg.IdleApproach)
		s.Mid = approach(s.Mid, 0, a.cfg.IdleApproach)
		s.Treble = approach(s.Treble, 0, a.cfg.IdleApproach)
		s.Energy = 0
	}
	s.Live = live
	a.snap = s
	return s
}

func (a *Analyzer) pollPending() {
	if a.pending == nil {
		return
	}
	select {
	case res := <-a.pending:
		a.pending = nil
		a.cancel = nil
		switch {
		case res.gen != a.gen:
			if res.source != nil {
				_ = res.source.Close()
			}
		case res.err != nil:
			a.logger.Warn("capture unavailable", "error", res.err)
		default:
			a.install(res.source)
		}
	default:
	}
}

// drain moves every queued chunk into the sample ring without blocking.
// It reports false once the source has ended.
func (a *Analyzer) drain() bool {
	for {
		select {
		case chunk, ok := <-a.stream:
			if !ok {
				a.logger.Info("capture ended", "source", a.source.Name())
				a.release()
				return false
			}
			if chunk.SampleRate > 0 && chunk.SampleRate != a.sampleRate {
				a.sampleRate = chunk.SampleRate
				ranges := ComputeBandRanges(float64(a.sampleRate), a.cfg.FFTSize, a.cfg.Bands)
				a.ranges = &ranges
			}
			a.mono = chunk.AppendMono(a.mono[:0])
			a.ring.push(a.mono)
		default:
			return true
		}
	}
}

func (a *Analyzer) release() {
	if a.source != nil {
		_ = a.source.Close()
	}
	a.source = nil
	a.stream = nil
	a.ranges = nil
}

// Dispose stops capture and resets all state. A pending InitAsync result
// arriving later is discarded.
func (a *Analyzer) Dispose() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.gen++
	if a.pending != nil {
		go func(p <-chan acquireResult) {
			if res := <-p; res.source != nil {
				_ = res.source.Close()
			}
		}(a.pending)
		a.pending = nil
	}
	a.release()
	a.sampleRate = 0
	a.frame.reset()
	a.ring.reset()

	a.snap = Snapshot{}
}

// Snapshot returns the levels produced by the last Sample call.
func (a *Analyzer) Snapshot() Snapshot {
	return a.snap
}

// Initialized reports whether a capture source is installed.
func (a *Analyzer) Initialized() bool {
	return a.source != nil
}

// Active reports whether a source is installed or still being acquired.
func (a *Analyzer) Active() bool {
	return a.Initialized() || a.pending != nil
}

// Live reports whether the last Sample read from a running source.
func (a *Analyzer) Live() bool {
	return a.Snapshot().Live
}

// SampleRate returns the capture rate, or 0 before initialization.
func (a *Analyzer) SampleRate() int {
	return a.sampleRate
}

// Bins returns a copy of the latest byte magnitudes.
func (a *Analyzer) Bins() []uint8 {
	out := make([]uint8, len(a.frame.bins))
	copy(out, a.frame.bins)
	return out
}

func approach(current, target, rate float64) float64 {
	return current + (target-current)*rate
}
