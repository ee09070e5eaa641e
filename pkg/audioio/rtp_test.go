package audioio

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
	"gopkg.in/hraban/opus.v2"
)

func opusPacket(t *testing.T, seq uint16) []byte {
	t.Helper()
	enc, err := opus.NewEncoder(48000, 1, opus.AppAudio)
	if err != nil {
		t.Fatalf("opus encoder: %v", err)
	}
	pcm := make([]int16, 960) // 20ms
	for i := range pcm {
		pcm[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/48000))
	}
	data := make([]byte, 1000)
	n, err := enc.Encode(pcm, data)
	if err != nil {
		t.Fatalf("opus encode: %v", err)
	}
	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    111,
			SequenceNumber: seq,
			Timestamp:      uint32(seq) * 960,
			SSRC:           1,
		},
		Payload: data[:n],
	}
	raw, err := pkt.Marshal()
	if err != nil {
		t.Fatalf("rtp marshal: %v", err)
	}
	return raw
}

func TestRTPSource_DecodesAndResamples(t *testing.T) {
	const packets = 5
	tests := []struct {
		rate int
		want int // samples per 20ms packet
	}{
		{48000, 960},
		{44100, 882},
		{22050, 441},
	}
	for i, tt := range tests {
		cfg := DefaultConfig()
		cfg.Backend = BackendRTP
		cfg.SampleRate = tt.rate
		cfg.Device = "127.0.0.1:" + []string{"18093", "18094", "18095"}[i]

		src := NewRTPSource(cfg, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := src.Start(ctx); err != nil {
			cancel()
			t.Fatalf("Start: %v", err)
		}

		conn, err := net.Dial("udp", cfg.Device)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		if _, err := conn.Write([]byte{0x00, 0x01}); err != nil {
			t.Fatalf("write junk: %v", err)
		}
		for seq := uint16(1); seq <= packets; seq++ {
			if _, err := conn.Write(opusPacket(t, seq)); err != nil {
				t.Fatalf("write packet: %v", err)
			}
		}

		// Resampled packets may differ by one sample, but the stream
		// must not lose samples at packet boundaries.
		total := 0
		for total < packets*tt.want-1 {
			chunk, err := src.Read(ctx)
			if err != nil {
				t.Fatalf("rate %d: Read after %d samples: %v", tt.rate, total, err)
			}
			if chunk.SampleRate != tt.rate {
				t.Fatalf("rate %d: chunk at %d Hz", tt.rate, chunk.SampleRate)
			}
			if n := len(chunk.Samples); n < tt.want-1 || n > tt.want+1 {
				t.Errorf("rate %d: chunk %d samples, want ~%d", tt.rate, n, tt.want)
			}
			total += len(chunk.Samples)
		}
		if total > packets*tt.want+1 {
			t.Errorf("rate %d: %d samples from %d packets, want %d", tt.rate, total, packets, packets*tt.want)
		}

		conn.Close()
		src.Close()
		cancel()
	}
}
