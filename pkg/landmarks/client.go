// Package landmarks receives tracked hands from an external hand tracker over
// a websocket and keeps the latest frame for the engine to poll.
package landmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-airdrums/pkg/hands"
)

// Tracker status values reported in frames or derived by the client.
const (
	StatusConnecting = "connecting"
	StatusStarting   = "starting"
	StatusNoHands    = "no_hands"
	StatusTracking   = "tracking"
	StatusStale      = "stale"
)

// Frame is one message from the tracker.
type Frame struct {
	Hands  [][]hands.Landmark `json:"hands"`
	Status string             `json:"status,omitempty"`
}

// Config configures the client.
type Config struct {
	// URL of the tracker websocket, e.g. ws://localhost:8765/hands.
	URL string `yaml:"url" json:"url"`

	// MaxAge drops hands older than this so a stalled tracker reads as no
	// hands rather than frozen fingers.
	MaxAge time.Duration `yaml:"max_age" json:"max_age"`

	// Reconnect is the delay between connection attempts.
	Reconnect time.Duration `yaml:"reconnect" json:"reconnect"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
}

// DefaultConfig returns client defaults with no URL.
func DefaultConfig() Config {
	return Config{
		MaxAge:           250 * time.Millisecond,
		Reconnect:        2 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("landmarks: url is required")
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("landmarks: max_age must be positive, got %s", c.MaxAge)
	}
	if c.Reconnect <= 0 {
		return fmt.Errorf("landmarks: reconnect must be positive, got %s", c.Reconnect)
	}
	return nil
}

// Client keeps the most recent hands frame. Latest and Status are safe from
// any goroutine.
type Client struct {
	cfg    Config
	clock  func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	hands  [][]hands.Landmark
	at     time.Time
	status string
	frames uint64

	// OnFrame, if set, is called from the read goroutine for every frame.
	OnFrame func(Frame)
}

// NewClient creates a client. Call Run to connect.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		clock:  time.Now,
		logger: logger.With("component", "landmarks"),
		status: StatusConnecting,
	}, nil
}

// Run connects and reads frames until ctx ends, reconnecting after failures.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.setStatus(StatusConnecting)
		c.logger.Warn("tracker connection lost", "url", c.cfg.URL, "error", err, "retry", c.cfg.Reconnect)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.Reconnect):
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial tracker: %w", err)
	}
	defer ws.Close()

	c.setStatus(StatusStarting)
	c.logger.Info("tracker connected", "url", c.cfg.URL)

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("read tracker: %w", err)
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("bad tracker frame", "error", err)
			continue
		}
		c.Apply(f)
	}
}

// Apply records a frame as if it had been received now.
func (c *Client) Apply(f Frame) {
	if len(f.Hands) > hands.MaxHands {
		f.Hands = f.Hands[:hands.MaxHands]
	}
	status := f.Status
	if status == "" {
		status = StatusTracking
		if len(f.Hands) == 0 {
			status = StatusNoHands
		}
	}

	c.mu.Lock()
	c.hands = f.Hands
	c.at = c.clock()
	c.status = status
	c.frames++
	c.mu.Unlock()

	if c.OnFrame != nil {
		c.OnFrame(f)
	}
}

// Latest returns a copy of the most recent hands, or nil when the last frame
// is older than MaxAge.
func (c *Client) Latest() [][]hands.Landmark {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hands == nil || c.clock().Sub(c.at) > c.cfg.MaxAge {
		return nil
	}
	out := make([][]hands.Landmark, len(c.hands))
	for i, h := range c.hands {
		out[i] = append([]hands.Landmark(nil), h...)
	}
	return out
}

// Status returns the tracker status. A tracker that stopped sending while
// connected reads as stale.
func (c *Client) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frames > 0 && c.status != StatusConnecting && c.clock().Sub(c.at) > c.cfg.MaxAge {
		return StatusStale
	}
	return c.status
}

// Frames returns the number of frames received.
func (c *Client) Frames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

func (c *Client) setStatus(s string) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}
