package hands

import (
	"math"
	"testing"
	"time"
)

func hand(x, y float64) []Landmark {
	h := make([]Landmark, NumLandmarks)
	h[FingertipIndex] = Landmark{X: x, Y: y}
	return h
}

func TestSurface_ToPixels(t *testing.T) {
	tests := []struct {
		name   string
		mirror bool
		in     Landmark
		wantX  float64
		wantY  float64
	}{
		{"plain", false, Landmark{X: 0.25, Y: 0.5}, 200, 300},
		{"mirrored", true, Landmark{X: 0.25, Y: 0.5}, 600, 300},
		{"mirrored edge", true, Landmark{X: 0, Y: 1}, 800, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Surface{Width: 800, Height: 600, Mirror: tt.mirror}
			p := s.ToPixels(tt.in)
			if p.X != tt.wantX || p.Y != tt.wantY {
				t.Errorf("ToPixels = %+v, want (%v, %v)", p, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestTracker_Speed(t *testing.T) {
	tr := NewTracker(Surface{Width: 1000, Height: 1000})
	now := time.Unix(0, 0)

	first := tr.Update(now, [][]Landmark{hand(0.1, 0.1)})
	if len(first) != 1 || first[0].Speed != 0 {
		t.Fatalf("first sighting = %+v, want zero speed", first)
	}

	second := tr.Update(now.Add(100*time.Millisecond), [][]Landmark{hand(0.13, 0.14)})
	// moved (30, 40) px in 0.1 s
	if math.Abs(second[0].Speed-500) > 1e-6 {
		t.Errorf("speed = %v, want 500", second[0].Speed)
	}
	if math.Abs(second[0].Velocity.X-300) > 1e-6 || math.Abs(second[0].Velocity.Y-400) > 1e-6 {
		t.Errorf("velocity = %+v, want (300, 400)", second[0].Velocity)
	}
}

func TestTracker_LostHandResets(t *testing.T) {
	tr := NewTracker(Surface{Width: 1000, Height: 1000})
	now := time.Unix(0, 0)
	tr.Update(now, [][]Landmark{hand(0.1, 0.1), hand(0.9, 0.9)})

	out := tr.Update(now.Add(50*time.Millisecond), [][]Landmark{hand(0.2, 0.1)})
	if len(out) != 1 {
		t.Fatalf("samples = %d, want 1", len(out))
	}

	out = tr.Update(now.Add(100*time.Millisecond), [][]Landmark{hand(0.2, 0.1), hand(0.1, 0.1)})
	if out[1].Speed != 0 {
		t.Errorf("returning hand speed = %v, want 0", out[1].Speed)
	}
}

func TestTracker_IgnoresExtraAndShortHands(t *testing.T) {
	tr := NewTracker(DefaultSurface())
	short := make([]Landmark, FingertipIndex)
	out := tr.Update(time.Unix(0, 0), [][]Landmark{short, hand(0.5, 0.5), hand(0.1, 0.1)})
	if len(out) != 1 || out[0].Hand != 1 {
		t.Errorf("samples = %+v, want only hand 1", out)
	}
}

func TestShorterSide(t *testing.T) {
	if got := (Surface{Width: 1280, Height: 720}).ShorterSide(); got != 720 {
		t.Errorf("ShorterSide = %v, want 720", got)
	}
}
