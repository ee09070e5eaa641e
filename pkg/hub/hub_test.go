package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fws "github.com/gofiber/websocket/v2"
	"github.com/gorilla/websocket"
)

func TestNewHub(t *testing.T) {
	h := New("test", 0, nil)
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() || h.Stats().Running {
		t.Error("hub should not run before Run")
	}
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	h := New("test", 2, nil)
	for i := 0; i < 5; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	st := h.Stats()
	if st.Broadcast != 2 || st.Dropped != 3 {
		t.Errorf("stats = %+v, want 2 queued 3 dropped", st)
	}
}

func TestBroadcastJSONEncodeError(t *testing.T) {
	h := New("test", 1, nil)
	if err := h.BroadcastJSON(map[string]any{"bad": make(chan int)}); err == nil {
		t.Error("expected encode error")
	}
}

func TestNewClientAfterStop(t *testing.T) {
	h := New("test", 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if _, err := NewClient(h, nil); !errors.Is(err, ErrStopped) {
		t.Errorf("NewClient = %v, want ErrStopped", err)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	h := New("state", 16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	received := make(chan []byte, 1)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", fws.New(func(conn *fws.Conn) {
		c, err := NewClient(h, conn)
		if err != nil {
			return
		}
		c.OnMessage = func(data []byte) { received <- data }
		c.Run()
	}))

	go app.Listen(":18090")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18090/ws", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", h.ClientCount())
	}

	if err := h.BroadcastJSON(map[string]int{"seq": 7}); err != nil {
		t.Fatal(err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	mt, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Errorf("message type = %d, want text", mt)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil || got["seq"] != 7 {
		t.Errorf("payload = %s (%v)", data, err)
	}

	h.BroadcastBinary([]byte{1, 2, 3})
	mt, data, err = ws.ReadMessage()
	if err != nil || mt != websocket.BinaryMessage || len(data) != 3 {
		t.Errorf("binary read = %d %v %v", mt, data, err)
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-received:
		if string(msg) != "hello" {
			t.Errorf("OnMessage got %q", msg)
		}
	case <-time.After(time.Second):
		t.Error("OnMessage not called")
	}

	ws.Close()
	time.Sleep(100 * time.Millisecond)
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after disconnect", h.ClientCount())
	}
}

func TestRunWaitsForWritePump(t *testing.T) {
	h := New("state", 16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	var active, returned atomic.Int32
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", fws.New(func(conn *fws.Conn) {
		c, err := NewClient(h, conn)
		if err != nil {
			return
		}
		active.Add(1)
		c.Run()
		active.Add(-1)
		returned.Add(1)
	}))

	go app.Listen(":18096")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	if !h.Stats().Running {
		t.Fatal("hub not running")
	}

	const cycles = 20
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				h.BroadcastBinary([]byte{1, 2, 3})
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer close(stop)

	for i := 0; i < cycles; i++ {
		ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18096/ws", nil)
		if err != nil {
			t.Fatalf("cycle %d: dial: %v", i, err)
		}
		_ = ws.SetReadDeadline(time.Now().Add(time.Second))
		if _, _, err := ws.ReadMessage(); err != nil {
			t.Fatalf("cycle %d: read: %v", i, err)
		}
		ws.Close()
	}

	deadline := time.Now().Add(2 * time.Second)
	for returned.Load() < cycles || h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("returned = %d, active = %d, clients = %d", returned.Load(), active.Load(), h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
