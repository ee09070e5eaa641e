package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-airdrums/internal/config"
	"github.com/teslashibe/go-airdrums/pkg/audioio"
	"github.com/teslashibe/go-airdrums/pkg/engine"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Engine.Seed = 3
	cfg.Audio.Backend = audioio.BackendMock
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.FrameInterval = 0
	if _, err := New(cfg, Options{}, nil); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestRunHeadless(t *testing.T) {
	cfg := testConfig()
	cfg.Web.Enabled = false

	a, err := New(cfg, Options{Listen: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Shutdown()
	if a.Monitor() != nil {
		t.Error("monitor should be off")
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(150*time.Millisecond, cancel)
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil on cancel", err)
	}

	last := a.Engine().Last()
	if last.Seq == 0 {
		t.Error("no frames ran")
	}
	if last.AudioState != engine.AudioSuspended {
		t.Errorf("audio state = %q, want suspended", last.AudioState)
	}
}

func TestMonitorReachesEngine(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg, Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Shutdown()

	req := httptest.NewRequest("POST", "/api/impulse/Kick", strings.NewReader(`{"strength":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Monitor().App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 202 {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	snap := a.Engine().Step()
	if !snap.Reactive.Active || snap.Impulse.Bass <= 0 {
		t.Errorf("impulse did not reach the engine: %+v", snap.Impulse)
	}
	if got, ok := a.Monitor().Latest(); !ok || got.Seq != snap.Seq {
		t.Errorf("monitor latest = %d/%v, want seq %d", got.Seq, ok, snap.Seq)
	}
}

func TestLateControllerBeforeBind(t *testing.T) {
	c := &lateController{}
	if err := c.QueueImpulse("Kick", 1); !errors.Is(err, errNotReady) {
		t.Errorf("QueueImpulse = %v, want errNotReady", err)
	}
	if err := c.QueueAudioAnalysis(true); !errors.Is(err, errNotReady) {
		t.Errorf("QueueAudioAnalysis = %v, want errNotReady", err)
	}
}
