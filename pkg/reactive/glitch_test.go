package reactive

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestGlitch_TriggerAndExpire(t *testing.T) {
	g := NewGlitch(DefaultGlitchConfig(), rand.New(rand.NewPCG(1, 1)))
	now := time.Unix(100, 0)

	g.Trigger(now, 1)
	s := g.State()
	if !s.Active {
		t.Fatal("burst not active")
	}
	if want := now.Add(500 * time.Millisecond); !s.ExpiresAt.Equal(want) {
		t.Errorf("expires at %v, want %v", s.ExpiresAt, want)
	}
	if s.Strength != 1 {
		t.Errorf("strength = %v, want 1", s.Strength)
	}

	g.Update(now.Add(16*time.Millisecond), 16.67)
	if got := g.State().Strength; got >= 1 || got < 0.89 {
		t.Errorf("strength after one frame = %v", got)
	}

	g.Update(now.Add(500*time.Millisecond), 16.67)
	if g.State().Active || g.State().Strength != 0 {
		t.Errorf("burst should end at expiry: %+v", g.State())
	}
}

func TestGlitch_ZeroIntensity(t *testing.T) {
	g := NewGlitch(DefaultGlitchConfig(), nil)
	now := time.Unix(0, 0)
	g.Trigger(now, 0)

	s := g.State()
	if s.Strength != 0.4 {
		t.Errorf("strength = %v, want 0.4", s.Strength)
	}
	if want := now.Add(160 * time.Millisecond); !s.ExpiresAt.Equal(want) {
		t.Errorf("expires at %v, want %v", s.ExpiresAt, want)
	}
}

func TestGlitch_StrengthKeepsMaximum(t *testing.T) {
	g := NewGlitch(DefaultGlitchConfig(), nil)
	now := time.Unix(0, 0)
	g.Trigger(now, 1)
	g.Trigger(now.Add(10*time.Millisecond), 0)
	if g.State().Strength != 1 {
		t.Errorf("strength = %v, weaker trigger must not lower it", g.State().Strength)
	}
}

func TestGlitch_FadesBelowFloor(t *testing.T) {
	cfg := DefaultGlitchConfig()
	cfg.BaseDuration = time.Hour
	g := NewGlitch(cfg, nil)
	now := time.Unix(0, 0)
	g.Trigger(now, 0)

	// 0.4 * 0.9^n < 0.01 after 36 frames
	for i := 1; i <= 40; i++ {
		g.Update(now.Add(time.Duration(i)*17*time.Millisecond), 16.67)
	}
	if g.State().Active {
		t.Errorf("burst did not fade: %+v", g.State())
	}
}

func TestGlitch_ReseedsOnTrigger(t *testing.T) {
	g := NewGlitch(DefaultGlitchConfig(), rand.New(rand.NewPCG(3, 4)))
	g.Trigger(time.Unix(0, 0), 0.5)
	first := g.State().Seed
	g.Trigger(time.Unix(1, 0), 0.5)
	if g.State().Seed == first {
		t.Error("seed did not change")
	}
}
