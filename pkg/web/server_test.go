package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

type impulseCall struct {
	id       string
	strength float64
}

type fakeController struct {
	mu       sync.Mutex
	impulses []impulseCall
	audio    []bool
	err      error
}

func (f *fakeController) QueueImpulse(id string, strength float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.impulses = append(f.impulses, impulseCall{id, strength})
	return nil
}

func (f *fakeController) QueueAudioAnalysis(enable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, enable)
	return f.err
}

func (f *fakeController) calls() []impulseCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]impulseCall(nil), f.impulses...)
}

func newTestServer(t *testing.T, ctrl Controller) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StreamEvery = 1
	s, err := NewServer(cfg, ctrl, zones.DefaultLayout(), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeController{})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestState(t *testing.T) {
	s := newTestServer(t, &fakeController{})

	resp, _ := s.App().Test(httptest.NewRequest("GET", "/api/state", nil))
	if resp.StatusCode != 503 {
		t.Errorf("status before first frame = %d, want 503", resp.StatusCode)
	}

	s.Publish(engine.Snapshot{Seq: 9, AudioState: engine.AudioRunning})

	resp, _ = s.App().Test(httptest.NewRequest("GET", "/api/state", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var snap engine.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Seq != 9 || snap.AudioState != engine.AudioRunning {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestZones(t *testing.T) {
	s := newTestServer(t, &fakeController{})

	resp, _ := s.App().Test(httptest.NewRequest("GET", "/api/zones", nil))
	var body ZonesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Layout) != 4 || body.Layout[0].ID != "Kick" {
		t.Errorf("layout = %+v", body.Layout)
	}
	if len(body.Views) != 0 {
		t.Errorf("views before first frame = %d", len(body.Views))
	}
}

func TestImpulse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		ctrlErr  error
		status   int
		strength float64
		queued   bool
	}{
		{"explicit strength", `{"strength":0.8}`, nil, 202, 0.8, true},
		{"empty body", ``, nil, 202, 1, true},
		{"empty object", `{}`, nil, 202, 1, true},
		{"bad json", `{"strength":`, nil, 400, 0, false},
		{"queue full", `{"strength":0.5}`, engine.ErrQueueFull, 503, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{err: tt.ctrlErr}
			s := newTestServer(t, ctrl)

			req := httptest.NewRequest("POST", "/api/impulse/Snare", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := s.App().Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			calls := ctrl.calls()
			if !tt.queued {
				if len(calls) != 0 {
					t.Errorf("calls = %+v, want none", calls)
				}
				return
			}
			if len(calls) != 1 || calls[0].id != "Snare" || calls[0].strength != tt.strength {
				t.Errorf("calls = %+v", calls)
			}
		})
	}
}

func TestAudio(t *testing.T) {
	ctrl := &fakeController{}
	s := newTestServer(t, ctrl)

	for _, tt := range []struct {
		action string
		status int
	}{
		{"start", 202},
		{"stop", 202},
		{"pause", 404},
	} {
		resp, err := s.App().Test(httptest.NewRequest("POST", "/api/audio/"+tt.action, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.action, resp.StatusCode, tt.status)
		}
	}
	if len(ctrl.audio) != 2 || !ctrl.audio[0] || ctrl.audio[1] {
		t.Errorf("audio calls = %v, want [true false]", ctrl.audio)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.StreamEvery = 0
	if err := bad.Validate(); err == nil {
		t.Error("stream_every 0 accepted")
	}
	bad = DefaultConfig()
	bad.Port = ""
	if err := bad.Validate(); err == nil {
		t.Error("empty port accepted")
	}
}

func TestStateWebSocket(t *testing.T) {
	ctrl := &fakeController{}
	s := newTestServer(t, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub().Run(ctx)

	go s.App().Listen(":18091")
	defer s.App().Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18091/ws/state", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	time.Sleep(50 * time.Millisecond)

	s.Publish(engine.Snapshot{Seq: 3})

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.Seq != 3 {
		t.Errorf("snapshot = %s (%v)", data, err)
	}

	s.Publish(engine.Snapshot{Seq: 4, Bins: []uint8{9, 8, 7}})
	mt, data, err := ws.ReadMessage()
	if err != nil || mt != websocket.TextMessage {
		t.Fatalf("snapshot frame = %d %v", mt, err)
	}
	if strings.Contains(string(data), `"bins"`) {
		t.Errorf("bins leaked into JSON: %s", data)
	}
	mt, data, err = ws.ReadMessage()
	if err != nil || mt != websocket.BinaryMessage || string(data) != string([]byte{9, 8, 7}) {
		t.Errorf("spectrum frame = %d %v %v", mt, data, err)
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"impulse","id":"Kick","strength":0.4}`)); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Second)
	for len(ctrl.calls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	calls := ctrl.calls()
	if len(calls) != 1 || calls[0].id != "Kick" || calls[0].strength != 0.4 {
		t.Errorf("calls = %+v", calls)
	}
}
