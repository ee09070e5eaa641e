package audioio

import (
	"context"
	"log/slog"
	"time"
)

// FileSource plays a WAV file into the capture stream at real-time pace.
// The file is downmixed to mono and resampled to the configured rate.
type FileSource struct {
	capture

	samples []int16
	pos     int
}

// NewFileSource creates a source for the WAV file at cfg.Device.
func NewFileSource(cfg Config, logger *slog.Logger) *FileSource {
	cfg.Channels = 1
	s := &FileSource{}
	s.init("file", cfg, logger)
	return s
}

// Start decodes the file and begins streaming it.
func (s *FileSource) Start(ctx context.Context) error {
	if s.isRunning() {
		return nil
	}
	if s.samples == nil {
		samples, err := ReadWAVMono(s.cfg.Device, s.cfg.SampleRate)
		if err != nil {
			return err
		}
		s.samples = samples
		s.logger.Info("wav capture loaded",
			"path", s.cfg.Device,
			"seconds", float64(len(s.samples))/float64(s.cfg.SampleRate),
		)
	}
	return s.begin(ctx, s.playLoop)
}

func (s *FileSource) playLoop(ctx context.Context, stop <-chan struct{}, emit func(AudioChunk) bool) {
	ticker := time.NewTicker(s.cfg.BufferDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			chunk, ok := s.next()
			if !ok {
				s.logger.Info("wav capture finished", "path", s.cfg.Device)
				return
			}
			if !emit(chunk) {
				return
			}
		}
	}
}

// next returns the following chunk, or false at the end of a non-looping file.
func (s *FileSource) next() (AudioChunk, bool) {
	n := s.cfg.BufferSize()
	if len(s.samples) == 0 {
		return AudioChunk{}, false
	}
	if s.pos >= len(s.samples) {
		if !s.cfg.Loop {
			return AudioChunk{}, false
		}
		s.pos = 0
	}
	end := s.pos + n
	if end > len(s.samples) {
		end = len(s.samples)
	}
	out := make([]int16, end-s.pos)
	copy(out, s.samples[s.pos:end])
	s.pos = end
	return AudioChunk{Samples: out, SampleRate: s.cfg.SampleRate, Channels: 1}, true
}

// Close releases resources.
func (s *FileSource) Close() error {
	if s.markClosed() {
		return nil
	}
	return s.Stop()
}

var _ SourceWithStats = (*FileSource)(nil)
