package audioio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jfreymuth/pulse"
)

// pulseQueue is how many fragments the record callback holds for the
// producer goroutine before dropping.
const pulseQueue = 8

// PulseSource records the local microphone through a PulseAudio (or
// pipewire-pulse) server using the native protocol.
type PulseSource struct {
	capture

	client *pulse.Client
	stream *pulse.RecordStream
	frames chan []int16
}

// NewPulseSource creates a source recording from cfg.Device, or from the
// server's default source when Device is empty or "pulse".
func NewPulseSource(cfg Config, logger *slog.Logger) *PulseSource {
	s := &PulseSource{}
	s.init("pulse", cfg, logger)
	return s
}

// Start connects to the server and begins recording.
func (s *PulseSource) Start(ctx context.Context) error {
	if s.isRunning() {
		return nil
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName("airdrums"))
	if err != nil {
		return pulseError("connect", err)
	}

	opts := []pulse.RecordOption{
		pulse.RecordSampleRate(s.cfg.SampleRate),
		pulse.RecordBufferFragmentSize(uint32(s.cfg.BufferSize() * s.cfg.Channels * 2)),
		pulse.RecordMediaName("airdrums analysis"),
	}
	if s.cfg.Channels == 1 {
		opts = append(opts, pulse.RecordMono)
	} else {
		opts = append(opts, pulse.RecordStereo)
	}
	if name := pulseDevice(s.cfg.Device); name != "" {
		src, err := client.SourceByID(name)
		if err != nil {
			client.Close()
			return pulseError("find source "+name, err)
		}
		opts = append(opts, pulse.RecordSource(src))
	}

	frames := make(chan []int16, pulseQueue)
	stream, err := client.NewRecord(pulse.Int16Writer(func(buf []int16) (int, error) {
		samples := make([]int16, len(buf))
		copy(samples, buf)
		select {
		case frames <- samples:
		default:
			s.overruns.Add(1)
		}
		return len(buf), nil
	}), opts...)
	if err != nil {
		client.Close()
		return pulseError("open record stream", err)
	}

	s.client = client
	s.stream = stream
	s.frames = frames

	if err := s.begin(ctx, s.recordLoop); err != nil {
		stream.Close()
		client.Close()
		return err
	}
	return nil
}

func (s *PulseSource) recordLoop(ctx context.Context, stop <-chan struct{}, emit func(AudioChunk) bool) {
	defer s.client.Close()
	defer s.stream.Close()

	s.stream.Start()
	defer s.stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case samples := <-s.frames:
			if !emit(AudioChunk{Samples: samples, SampleRate: s.cfg.SampleRate, Channels: s.cfg.Channels}) {
				return
			}
		}
		if err := s.stream.Error(); err != nil {
			s.logger.Warn("pulse record stream failed", "error", err)
			return
		}
	}
}

// Close releases resources.
func (s *PulseSource) Close() error {
	if s.markClosed() {
		return nil
	}
	return s.Stop()
}

// pulseDevice returns the source name encoded in a device string.
func pulseDevice(device string) string {
	device = strings.TrimSpace(device)
	device = strings.TrimPrefix(device, "pulse:")
	if device == "pulse" {
		return ""
	}
	return device
}

// pulseError maps a server failure onto the capture sentinels. An unreachable
// server means this host cannot capture.
func pulseError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, fs.ErrPermission) || strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "permission denied") {
		return fmt.Errorf("%w: pulse %s: %v", ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: pulse %s: %v", ErrUnsupported, op, err)
}

var _ SourceWithStats = (*PulseSource)(nil)
