package audioio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"time"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/pion/rtp"
	"gopkg.in/hraban/opus.v2"
)

const (
	// maxOpusFrame is 120ms at 48kHz, the longest frame Opus can carry.
	maxOpusFrame = 5760

	// rtpPollInterval bounds how long a read blocks before checking for Stop.
	rtpPollInterval = 250 * time.Millisecond
)

// RTPSource receives Opus-encoded RTP packets on a UDP address and decodes
// them to PCM. It serves a microphone attached to another machine.
type RTPSource struct {
	capture

	conn    net.PacketConn
	decoder *opus.Decoder
	// resampler runs across packets so chunk boundaries stay continuous.
	resampler *dspresample.Resampler

	decodeErrors int
}

// NewRTPSource creates a source listening on cfg.Device.
func NewRTPSource(cfg Config, logger *slog.Logger) *RTPSource {
	s := &RTPSource{}
	s.init("rtp", cfg, logger)
	return s
}

// Start binds the UDP socket and begins decoding.
func (s *RTPSource) Start(ctx context.Context) error {
	if s.isRunning() {
		return nil
	}

	decoder, err := opus.NewDecoder(decodeRate(s.cfg.SampleRate), s.cfg.Channels)
	if err != nil {
		return fmt.Errorf("create opus decoder: %w", err)
	}

	var resampler *dspresample.Resampler
	if rate := decodeRate(s.cfg.SampleRate); rate != s.cfg.SampleRate && s.cfg.Channels == 1 {
		resampler, err = dspresample.NewForRates(float64(rate), float64(s.cfg.SampleRate),
			dspresample.WithQuality(dspresample.QualityBest))
		if err != nil {
			return fmt.Errorf("resample %d -> %d: %w", rate, s.cfg.SampleRate, err)
		}
	}

	conn, err := net.ListenPacket("udp", s.cfg.Device)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: listen %s: %v", ErrPermissionDenied, s.cfg.Device, err)
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Device, err)
	}

	s.conn = conn
	s.decoder = decoder
	s.resampler = resampler
	s.decodeErrors = 0

	if err := s.begin(ctx, s.receiveLoop); err != nil {
		conn.Close()
		return err
	}
	return nil
}

func (s *RTPSource) receiveLoop(ctx context.Context, stop <-chan struct{}, emit func(AudioChunk) bool) {
	defer s.conn.Close()

	buf := make([]byte, 1500)
	pcm := make([]int16, maxOpusFrame*s.cfg.Channels)
	var in []float64

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(rtpPollInterval))
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Warn("rtp read failed", "error", err)
			return
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			s.logger.Debug("dropping malformed rtp packet", "bytes", n, "error", err)
			continue
		}
		if len(pkt.Payload) == 0 {
			continue
		}

		frames, err := s.decoder.Decode(pkt.Payload, pcm)
		if err != nil {
			s.decodeErrors++
			if s.decodeErrors <= 5 {
				s.logger.Warn("opus decode failed", "seq", pkt.SequenceNumber, "error", err)
			}
			continue
		}

		// Multichannel audio keeps the decode rate; chunks carry their rate.
		rate := decodeRate(s.cfg.SampleRate)
		var samples []int16
		if s.resampler != nil {
			in = in[:0]
			for _, v := range pcm[:frames] {
				in = append(in, float64(v)/32767)
			}
			out := s.resampler.Process(in)
			samples = make([]int16, len(out))
			for i, v := range out {
				samples[i] = floatToPCM16(v)
			}
			rate = s.cfg.SampleRate
		} else {
			samples = make([]int16, frames*s.cfg.Channels)
			copy(samples, pcm)
		}
		if len(samples) == 0 {
			continue
		}
		if !emit(AudioChunk{Samples: samples, SampleRate: rate, Channels: s.cfg.Channels}) {
			return
		}
	}
}

// Close releases resources.
func (s *RTPSource) Close() error {
	if s.markClosed() {
		return nil
	}
	return s.Stop()
}

var _ SourceWithStats = (*RTPSource)(nil)
