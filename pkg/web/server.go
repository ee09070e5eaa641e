// Package web serves the live monitor: JSON endpoints for the latest frame
// and a websocket stream of engine snapshots.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/hub"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

// Config configures the monitor server.
type Config struct {
	// Port to listen on.
	Port string `yaml:"port" json:"port"`

	// StreamEvery broadcasts every Nth snapshot; 1 streams every frame.
	StreamEvery int `yaml:"stream_every" json:"stream_every"`

	// BufferSize is the per-client send queue length.
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`

	// CORS enables permissive CORS for local development.
	CORS bool `yaml:"cors" json:"cors"`
}

// DefaultConfig returns the monitor defaults.
func DefaultConfig() Config {
	return Config{
		Port:        "8080",
		StreamEvery: 2,
		BufferSize:  64,
		CORS:        true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("web: port is required")
	}
	if c.StreamEvery < 1 {
		return fmt.Errorf("web: stream_every must be >= 1, got %d", c.StreamEvery)
	}
	return nil
}

// Controller queues work on the frame goroutine. *engine.Engine satisfies it.
type Controller interface {
	QueueImpulse(sourceID string, strength float64) error
	QueueAudioAnalysis(enable bool) error
}

// Server is the monitor server. It implements engine.Publisher.
type Server struct {
	cfg     Config
	app     *fiber.App
	ctrl    Controller
	layout  []zones.Zone
	logger  *slog.Logger
	started time.Time

	stateHub *hub.Hub

	mu      sync.RWMutex
	last    engine.Snapshot
	hasLast bool
	frames  uint64
}

// NewServer builds the fiber app and its routes.
func NewServer(cfg Config, ctrl Controller, layout []zones.Zone, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		layout:  append([]zones.Zone(nil), layout...),
		logger:  logger.With("component", "web"),
		started: time.Now(),
	}
	s.stateHub = hub.New("state", cfg.BufferSize, logger)

	app := fiber.New(fiber.Config{
		AppName:               "airdrums monitor",
		DisableStartupMessage: true,
	})
	if cfg.CORS {
		app.Use(cors.New())
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/state", s.handleState)
	api.Get("/zones", s.handleZones)
	api.Post("/impulse/:id", s.handleImpulse)
	api.Post("/audio/:action", s.handleAudio)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the snapshot hub.
func (s *Server) Hub() *hub.Hub {
	return s.stateHub
}

// Start runs the hub and listens until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		_ = s.stateHub.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("monitor listening", "url", "http://localhost:"+s.cfg.Port)
		errCh <- s.app.Listen(":" + s.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web: listen: %w", err)
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return fmt.Errorf("web: shutdown: %w", err)
		}
		return ctx.Err()
	}
}

// Publish records the snapshot and streams it to subscribers. It is called
// from the frame goroutine and never blocks.
func (s *Server) Publish(snap engine.Snapshot) {
	s.mu.Lock()
	s.last = snap
	s.hasLast = true
	s.frames++
	frames := s.frames
	s.mu.Unlock()

	if s.stateHub.ClientCount() == 0 {
		return
	}
	if frames%uint64(s.cfg.StreamEvery) != 0 && len(snap.Hits) == 0 {
		return
	}
	if err := s.stateHub.BroadcastJSON(snap); err != nil {
		s.logger.Warn("encode snapshot", "error", err)
		return
	}
	if len(snap.Bins) > 0 {
		s.stateHub.BroadcastBinary(snap.Bins)
	}
}

// Latest returns the most recent snapshot and whether one exists.
func (s *Server) Latest() (engine.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// command is what subscribers may send over /ws/state.
type command struct {
	Type     string   `json:"type"`
	ID       string   `json:"id"`
	Strength *float64 `json:"strength"`
}

func (s *Server) handleStateWS(conn *websocket.Conn) {
	c, err := hub.NewClient(s.stateHub, conn)
	if err != nil {
		_ = conn.Close()
		return
	}
	c.OnMessage = func(data []byte) {
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.logger.Debug("bad websocket command", "client", c.ID, "error", err)
			return
		}
		if err := s.apply(cmd); err != nil {
			s.logger.Debug("websocket command rejected", "client", c.ID, "type", cmd.Type, "error", err)
		}
	}
	c.Run()
}

func (s *Server) apply(cmd command) error {
	if s.ctrl == nil {
		return errNoController
	}
	switch cmd.Type {
	case "impulse":
		return s.ctrl.QueueImpulse(cmd.ID, strengthOr(cmd.Strength, 1))
	case "audio_start":
		return s.ctrl.QueueAudioAnalysis(true)
	case "audio_stop":
		return s.ctrl.QueueAudioAnalysis(false)
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func strengthOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
