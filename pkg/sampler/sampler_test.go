package sampler

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep"

	"github.com/teslashibe/go-airdrums/pkg/audioio"
)

type fakeSpeaker struct {
	initErr error
	inits   int
	played  []beep.Streamer
	closed  bool
}

func (f *fakeSpeaker) Init(beep.SampleRate, int) error {
	f.inits++
	return f.initErr
}
func (f *fakeSpeaker) Play(s ...beep.Streamer) { f.played = append(f.played, s...) }
func (f *fakeSpeaker) Lock() {}
func (f *fakeSpeaker) Unlock() {}
func (f *fakeSpeaker) Close() { f.closed = true }

func TestPlay_ReportsBufferPresence(t *testing.T) {
	p := newPlayer(DefaultConfig(), &fakeSpeaker{}, nil)
	p.Store("Kick", Synthesize("Kick", 48000), 48000)

	if !p.Play("Kick") {
		t.Error("Play(Kick) = false with a loaded buffer")
	}
	if p.Play("Cowbell") {
		t.Error("Play(Cowbell) = true without a buffer")
	}
	if p.Plays() != 1 {
		t.Errorf("plays = %d, want 1", p.Plays())
	}
}

func TestUnlock_StateTransitions(t *testing.T) {
	spk := &fakeSpeaker{}
	p := newPlayer(DefaultConfig(), spk, nil)

	if p.State() != StateSuspended {
		t.Fatalf("initial state = %q", p.State())
	}
	if err := p.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := p.Unlock(); err != nil {
		t.Fatalf("second Unlock: %v", err)
	}
	if p.State() != StateRunning || spk.inits != 1 || len(spk.played) != 1 {
		t.Errorf("state %q, inits %d, played %d", p.State(), spk.inits, len(spk.played))
	}

	p.Store("Tom", Synthesize("Tom", 48000), 48000)
	if !p.Play("Tom") || p.mixer.Len() != 1 {
		t.Errorf("mixer holds %d streamers, want 1", p.mixer.Len())
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if p.State() != StateClosed || !spk.closed {
		t.Errorf("state after close = %q", p.State())
	}
	if p.Unlock() == nil {
		t.Error("Unlock after Close should fail")
	}
}

func TestUnlock_InitFailureStaysSuspended(t *testing.T) {
	p := newPlayer(DefaultConfig(), &fakeSpeaker{initErr: errors.New("no device")}, nil)
	if err := p.Unlock(); err == nil {
		t.Fatal("expected error")
	}
	if p.State() != StateSuspended {
		t.Errorf("state = %q, want suspended", p.State())
	}
}

func TestLoad_ResamplesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snare.wav")
	samples := make([]float32, 2400) // 100ms mono at 24kHz
	for i := range samples {
		samples[i] = 0.25
	}
	if err := audioio.WriteWAV(path, samples, 24000, 1); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	p := newPlayer(DefaultConfig(), &fakeSpeaker{}, nil)
	if err := p.Load("Snare", path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	b := p.buffers["Snare"]
	if got := b.Len(); got < 4700 || got > 4900 {
		t.Errorf("buffer length = %d frames, want about 4800", got)
	}
}

func TestLoadConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Samples = map[string]string{"Kick": filepath.Join(t.TempDir(), "missing.wav")}
	p := newPlayer(cfg, &fakeSpeaker{}, nil)

	err := p.LoadConfigured([]string{"Kick", "Snare", "Hi-Hat"})
	if err == nil {
		t.Error("missing file should be reported")
	}
	got := p.IDs()
	want := []string{"Hi-Hat", "Kick", "Snare"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	for _, id := range []string{"Kick", "Snare", "Tom", "Hi-Hat", "Other"} {
		a := Synthesize(id, 22050)
		b := Synthesize(id, 22050)
		if len(a) == 0 || len(a) != len(b) {
			t.Fatalf("%s: lengths %d/%d", id, len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: frame %d differs", id, i)
			}
			if a[i][0] > 1.5 || a[i][0] < -1.5 {
				t.Fatalf("%s: frame %d out of range: %v", id, i, a[i][0])
			}
		}
	}
}
