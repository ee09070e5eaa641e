package tui

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/landmarks"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestPreview(t *testing.T, opts Options) (*Preview, *fakeClock) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(120, 40)

	clock := &fakeClock{now: time.Unix(2000, 0)}
	cfg := engine.DefaultConfig()
	cfg.Seed = 7
	eng, err := engine.New(cfg, engine.Deps{Clock: clock.Now})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(screen, eng, opts), clock
}

func (p *Preview) step(c *fakeClock) engine.Snapshot {
	c.now = c.now.Add(16 * time.Millisecond)
	return p.frame()
}

func TestCellLandmarkRoundTrip(t *testing.T) {
	for _, mirror := range []bool{false, true} {
		s := Surface(120, 40, mirror)
		for _, cell := range [][2]int{{0, 0}, {59, 20}, {119, 39}} {
			l := cellLandmark(cell[0], cell[1], 120, 40, mirror)
			x, y := toCell(s.ToPixels(l))
			if x != cell[0] || y != cell[1] {
				t.Errorf("mirror=%v cell %v mapped back to (%d,%d)", mirror, cell, x, y)
			}
		}
	}
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		status     string
		hasTracker bool
		fingers    int
		want       string
	}{
		{"", false, 0, "Move the mouse through a drum"},
		{"", false, 1, ""},
		{landmarks.StatusConnecting, true, 0, "Starting camera..."},
		{landmarks.StatusStarting, true, 1, "Starting camera..."},
		{landmarks.StatusNoHands, true, 0, "Show your hands"},
		{landmarks.StatusStale, true, 0, "Show your hands"},
		{landmarks.StatusNoHands, true, 1, ""},
		{landmarks.StatusTracking, true, 2, ""},
	}
	for _, tt := range tests {
		if got := statusMessage(tt.status, tt.hasTracker, tt.fingers); got != tt.want {
			t.Errorf("statusMessage(%q, %v, %d) = %q, want %q", tt.status, tt.hasTracker, tt.fingers, got, tt.want)
		}
	}
}

func TestMeter(t *testing.T) {
	tests := []struct {
		level float64
		want  string
	}{
		{0, "····"},
		{0.5, "██··"},
		{1, "████"},
		{3, "████"},
		{-1, "····"},
	}
	for _, tt := range tests {
		if got := meter(tt.level, 1, 4); got != tt.want {
			t.Errorf("meter(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestFrameDrawsZones(t *testing.T) {
	p, clock := newTestPreview(t, Options{})
	snap := p.step(clock)

	if len(snap.Zones) != 4 {
		t.Fatalf("zones = %d, want 4", len(snap.Zones))
	}
	for _, v := range snap.Zones {
		cx, cy := toCell(v.Circle.Center)
		x := cx - len(v.Zone.ID)/2
		r, _, _, _ := p.screen.GetContent(x, cy)
		if r != rune(v.Zone.ID[0]) {
			t.Errorf("zone %s label: cell (%d,%d) = %q", v.Zone.ID, x, cy, r)
		}
	}
}

func TestMouseStrikesZone(t *testing.T) {
	p, clock := newTestPreview(t, Options{})

	p.handle(context.Background(), tcell.NewEventMouse(0, 0, tcell.ButtonNone, tcell.ModNone))
	if snap := p.step(clock); len(snap.Hits) != 0 {
		t.Fatalf("hits at rest = %+v", snap.Hits)
	}

	kick := p.eng.Zones(clock.now)[0]
	cx, cy := toCell(kick.Circle.Center)
	p.handle(context.Background(), tcell.NewEventMouse(cx, cy, tcell.ButtonNone, tcell.ModNone))
	snap := p.step(clock)
	if len(snap.Hits) != 1 || snap.Hits[0].Zone != "Kick" {
		t.Fatalf("hits = %+v, want one Kick hit", snap.Hits)
	}
	if !snap.Zones[0].Highlighted {
		t.Error("struck zone should be highlighted")
	}
}

func TestKeys(t *testing.T) {
	unlocks := 0
	p, clock := newTestPreview(t, Options{Unlock: func() error {
		unlocks++
		return nil
	}})
	ctx := context.Background()

	if !p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone)) {
		t.Fatal("digit key quit the preview")
	}
	p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone))
	if unlocks != 1 {
		t.Errorf("Unlock called %d times, want 1", unlocks)
	}

	snap := p.step(clock)
	if !snap.Reactive.Active || snap.Reactive.BassLevel <= 0 {
		t.Errorf("reactive state after strikes = %+v", snap.Reactive)
	}

	if p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q should quit")
	}
	if p.handle(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Esc should quit")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p, _ := newTestPreview(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx, 5*time.Millisecond); err != context.DeadlineExceeded {
		t.Errorf("Run = %v, want deadline exceeded", err)
	}
}

func TestAudioToggleRetriesAfterFailure(t *testing.T) {
	p, clock := newTestPreview(t, Options{})
	ctx := context.Background()

	p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
	if !p.eng.AudioAnalysisActive() {
		t.Fatal("acquisition not started")
	}

	deadline := time.Now().Add(time.Second)
	for p.eng.AudioAnalysisActive() {
		if time.Now().After(deadline) {
			t.Fatal("failed acquisition never resolved")
		}
		p.step(clock)
		time.Sleep(time.Millisecond)
	}

	p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
	if !p.eng.AudioAnalysisActive() {
		t.Error("second press did not retry acquisition")
	}

	p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
	if p.eng.AudioAnalysisActive() {
		t.Error("third press did not dispose the pending acquisition")
	}
}
