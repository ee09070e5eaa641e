package impulse

import (
	"math"
	"testing"
	"time"
)

type countMarker struct{ n int }

func (m *countMarker) Mark(time.Time) { m.n++ }

func TestRegister_Kick(t *testing.T) {
	in := NewInjector(nil, nil)
	in.Register(time.Now(), "Kick", 1)

	want := State{Overall: 1.0, Bass: 1.1, Mid: 0.25, Treble: 0.12}
	if got := in.State(); got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
}

func TestRegister_UnknownUsesDefault(t *testing.T) {
	in := NewInjector(nil, nil)
	in.Register(time.Now(), "Cowbell", 1)

	want := State{Overall: 0.85, Bass: 0.45, Mid: 0.5, Treble: 0.55}
	if got := in.State(); got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
}

func TestRegister_ClampsStrengthAndLevel(t *testing.T) {
	in := NewInjector(nil, nil)
	for i := 0; i < 10; i++ {
		in.Register(time.Now(), "Hi-Hat", 5)
	}
	s := in.State()
	for name, v := range map[string]float64{"overall": s.Overall, "bass": s.Bass, "mid": s.Mid, "treble": s.Treble} {
		if v < 0 || v > MaxLevel {
			t.Errorf("%s = %v out of [0, %v]", name, v, MaxLevel)
		}
	}
	if s.Treble != MaxLevel {
		t.Errorf("treble = %v, want saturated at %v", s.Treble, MaxLevel)
	}

	in.Reset()
	in.Register(time.Now(), "Kick", -3)
	if in.State() != (State{}) {
		t.Errorf("negative strength changed state: %+v", in.State())
	}
}

func TestRegister_MarksRhythm(t *testing.T) {
	m := &countMarker{}
	in := NewInjector(nil, m)
	in.Register(time.Now(), "Tom", 0.5)
	in.Register(time.Now(), "Tom", 0)
	if m.n != 2 {
		t.Errorf("marks = %d, want 2", m.n)
	}
}

func TestDecay(t *testing.T) {
	in := NewInjector(nil, nil)
	in.Register(time.Now(), "Kick", 1)

	in.Decay(220)
	if got, want := in.State().Overall, math.Exp(-1); math.Abs(got-want) > 1e-12 {
		t.Errorf("overall = %v, want %v", got, want)
	}

	before := in.State()
	in.Decay(-50)
	if in.State() != before {
		t.Error("negative delta changed state")
	}

	in.Decay(5000)
	if in.State() != (State{}) {
		t.Errorf("state = %+v, want snapped to zero", in.State())
	}
}

func TestDecay_SnapsSmallValues(t *testing.T) {
	in := NewInjector(map[string]Profile{"tiny": {Overall: 0.0006}}, nil)
	in.Register(time.Now(), "tiny", 1)
	in.Decay(100)
	if in.State().Overall != 0 {
		t.Errorf("overall = %v, want 0", in.State().Overall)
	}
}
