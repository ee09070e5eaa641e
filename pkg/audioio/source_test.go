package audioio

import (
	"testing"
)

func TestAudioChunk_AppendMono(t *testing.T) {
	chunk := AudioChunk{Samples: []int16{16384, -16384, 32767, 32767}, SampleRate: 48000, Channels: 2}

	mono := chunk.AppendMono(nil)
	if len(mono) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(mono))
	}
	if mono[0] != 0 {
		t.Errorf("Frame 0: expected 0, got %v", mono[0])
	}
	if mono[1] < 0.99 || mono[1] > 1 {
		t.Errorf("Frame 1: expected ~1, got %v", mono[1])
	}
}
