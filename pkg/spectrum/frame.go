package spectrum

import (
	"fmt"
	"math"

	dspspectrum "github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
)

// frameAnalyzer turns the latest fftSize time-domain samples into byte
// magnitudes: Blackman window, real FFT, temporal smoothing of |X|/N, then a
// linear map of the dB value from [minDB, maxDB] onto [0, 255].
type frameAnalyzer struct {
	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	window   []float64
	input    []float64
	spectrum []complex128
	smoothed []float64
	bins     []uint8

	forward func(dst []complex128, src []float64)
}

func newFrameAnalyzer(size int, smoothing, minDB, maxDB float64) (*frameAnalyzer, error) {
	if size < 32 || size&(size-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 32, got %d", size)
	}
	if maxDB <= minDB {
		return nil, fmt.Errorf("max decibels (%v) must exceed min decibels (%v)", maxDB, minDB)
	}

	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	win := window.Generate(window.TypeBlackman, size, window.WithPeriodic())
	if len(win) != size {
		return nil, fmt.Errorf("blackman window: got %d points, want %d", len(win), size)
	}

	return &frameAnalyzer{
		size:      size,
		smoothing: smoothing,
		minDB:     minDB,
		maxDB:     maxDB,
		window:    win,
		input:     make([]float64, size),
		spectrum:  make([]complex128, size/2+1),
		smoothed:  make([]float64, size/2),
		bins:      make([]uint8, size/2),
		forward: func(dst []complex128, src []float64) {
			plan.Forward(dst, src)
		},
	}, nil
}

// analyze reads samples oldest-first from the ring and refreshes f.bins.
func (f *frameAnalyzer) analyze(ring *sampleRing) []uint8 {
	ring.copyOrdered(f.input)
	for i := range f.input {
		f.input[i] *= f.window[i]
	}
	f.forward(f.spectrum, f.input)

	scale := 255 / (f.maxDB - f.minDB)
	norm := 1 / float64(f.size)
	mags := dspspectrum.Magnitude(f.spectrum[:len(f.bins)])
	for k := range f.bins {
		mag := mags[k] * norm
		f.smoothed[k] = f.smoothing*f.smoothed[k] + (1-f.smoothing)*mag

		db := math.Inf(-1)
		if f.smoothed[k] > 0 {
			db = 20 * math.Log10(f.smoothed[k])
		}
		v := scale * (db - f.minDB)
		switch {
		case !(v > 0):
			f.bins[k] = 0
		case v >= 255:
			f.bins[k] = 255
		default:
			f.bins[k] = uint8(v)
		}
	}
	return f.bins
}

func (f *frameAnalyzer) reset() {
	for i := range f.smoothed {
		f.smoothed[i] = 0
		f.bins[i] = 0
	}
}

// sampleRing keeps the most recent len(buf) mono samples.
type sampleRing struct {
	buf []float64
	pos int
}

func newSampleRing(size int) *sampleRing {
	return &sampleRing{buf: make([]float64, size)}
}

func (r *sampleRing) push(samples []float64) {
	n := len(r.buf)
	if len(samples) >= n {
		copy(r.buf, samples[len(samples)-n:])
		r.pos = 0
		return
	}
	for _, s := range samples {
		r.buf[r.pos] = s
		r.pos++
		if r.pos == n {
			r.pos = 0
		}
	}
}

func (r *sampleRing) copyOrdered(dst []float64) {
	k := copy(dst, r.buf[r.pos:])
	copy(dst[k:], r.buf[:r.pos])
}

func (r *sampleRing) reset() {
	for i := range r.buf {
		r.buf[i] = 0
	}
	r.pos = 0
}
