package audioio

import (
	"context"
	"log/slog"
	"time"
)

// PCMSource streams in-memory mono samples on demand instead of on a clock.
// Each Advance emits the next stretch of audio, so offline tools can analyse
// a recording faster than real time.
type PCMSource struct {
	capture

	samples []int16
	reqs    chan pcmRequest
}

type pcmRequest struct {
	n    int
	more chan bool
}

// NewPCMSource creates a source over samples recorded at cfg.SampleRate.
func NewPCMSource(cfg Config, samples []int16, logger *slog.Logger) *PCMSource {
	cfg.Channels = 1
	s := &PCMSource{samples: samples, reqs: make(chan pcmRequest)}
	s.init("pcm", cfg, logger)
	return s
}

// Start begins accepting Advance calls.
func (s *PCMSource) Start(ctx context.Context) error {
	return s.begin(ctx, s.loop)
}

func (s *PCMSource) loop(ctx context.Context, stop <-chan struct{}, emit func(AudioChunk) bool) {
	pos := 0
	size := max(s.cfg.BufferSize(), 1)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case req := <-s.reqs:
			end := min(pos+req.n, len(s.samples))
			for pos < end {
				next := min(pos+size, end)
				out := make([]int16, next-pos)
				copy(out, s.samples[pos:next])
				pos = next
				if !emit(AudioChunk{Samples: out, SampleRate: s.cfg.SampleRate, Channels: 1}) {
					req.more <- false
					return
				}
			}
			req.more <- pos < len(s.samples)
			if pos >= len(s.samples) {
				return
			}
		}
	}
}

// Advance emits d worth of audio. It reports false once the samples are
// exhausted or the source is not running. The consumer must drain the
// stream between calls; at most 32 chunks are queued.
func (s *PCMSource) Advance(d time.Duration) bool {
	s.mu.Lock()
	done, running := s.done, s.running
	s.mu.Unlock()
	if !running {
		return false
	}

	req := pcmRequest{
		n:    int(d.Seconds() * float64(s.cfg.SampleRate)),
		more: make(chan bool, 1),
	}
	select {
	case s.reqs <- req:
	case <-done:
		return false
	}
	return <-req.more
}

// Close releases resources.
func (s *PCMSource) Close() error {
	if s.markClosed() {
		return nil
	}
	return s.Stop()
}

var _ SourceWithStats = (*PCMSource)(nil)
