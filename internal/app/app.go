// Package app wires configuration, the engine and its adapters into the
// airdrums program and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-airdrums/internal/config"
	"github.com/teslashibe/go-airdrums/internal/tui"
	"github.com/teslashibe/go-airdrums/pkg/audioio"
	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/hands"
	"github.com/teslashibe/go-airdrums/pkg/landmarks"
	"github.com/teslashibe/go-airdrums/pkg/sampler"
	"github.com/teslashibe/go-airdrums/pkg/web"
)

// Options are run-time switches that do not belong in the config file.
type Options struct {
	// Preview draws the kit in the terminal and lets the mouse play it.
	Preview bool
	// Listen starts audio analysis at startup instead of waiting for a
	// request.
	Listen bool
	// Unlock opens audio output at startup. The preview otherwise unlocks on
	// the first key press.
	Unlock bool
}

// App is the airdrums orchestrator.
type App struct {
	cfg    config.Config
	opts   Options
	logger *slog.Logger

	player  *sampler.Player
	engine  *engine.Engine
	monitor *web.Server
	tracker *landmarks.Client
}

// New validates the configuration.
func New(cfg config.Config, opts Options, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, opts: opts, logger: logger}, nil
}

// Init builds every component. Call it after New and before Run.
func (a *App) Init() error {
	a.player = sampler.New(a.cfg.Sampler, a.logger)
	ids := make([]string, 0, len(a.cfg.Engine.Zones.Layout))
	for _, z := range a.cfg.Engine.Zones.Layout {
		ids = append(ids, z.ID)
	}
	if err := a.player.LoadConfigured(ids); err != nil {
		// Missing files fall back to synthesized sounds when enabled.
		a.logger.Warn("some samples failed to load", "error", err)
	}

	// The server needs the engine and the engine needs the publisher, so
	// the server's controller is bound once the engine exists.
	ctrl := &lateController{}
	var publisher engine.Publisher
	if a.cfg.Web.Enabled {
		srv, err := web.NewServer(a.cfg.Web.Config, ctrl, a.cfg.Engine.Zones.Layout, a.logger)
		if err != nil {
			return fmt.Errorf("monitor: %w", err)
		}
		a.monitor = srv
		publisher = srv
	}

	audioCfg := a.cfg.Audio
	eng, err := engine.New(a.cfg.Engine, engine.Deps{
		Open:      func() (audioio.Source, error) { return audioio.NewSource(audioCfg, a.logger) },
		Player:    a.player,
		Publisher: publisher,
		Logger:    a.logger,
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	a.engine = eng
	ctrl.bind(eng)

	if a.cfg.Landmarks.URL != "" {
		tracker, err := landmarks.NewClient(a.cfg.Landmarks.Config, a.logger)
		if err != nil {
			return fmt.Errorf("landmarks: %w", err)
		}
		var first sync.Once
		tracker.OnFrame = func(f landmarks.Frame) {
			first.Do(func() {
				a.logger.Info("hand tracker streaming", "hands", len(f.Hands))
			})
		}
		a.tracker = tracker
	}
	a.logger.Info("app ready", "samples", a.player.IDs(), "monitor", a.monitor != nil, "tracker", a.tracker != nil)
	return nil
}

// Run starts the adapters and drives frames until ctx ends or the preview
// quits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	background := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}
	if a.monitor != nil {
		background("monitor", a.monitor.Start)
	}
	if a.tracker != nil {
		background("landmarks", a.tracker.Run)
	}

	if a.opts.Unlock {
		if err := a.player.Unlock(); err != nil {
			a.logger.Warn("audio output unavailable", "error", err)
		}
	}
	if a.opts.Listen {
		if err := a.engine.QueueAudioAnalysis(true); err != nil {
			a.logger.Warn("could not start audio analysis", "error", err)
		}
	}

	var err error
	if a.opts.Preview {
		err = a.runPreview(ctx)
	} else {
		var source func() [][]hands.Landmark
		if a.tracker != nil {
			source = a.tracker.Latest
		}
		err = a.engine.Run(ctx, a.cfg.Engine.FrameInterval, source)
	}
	cancel()
	wg.Wait()
	close(errCh)

	if bgErr, ok := <-errCh; ok {
		return bgErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) runPreview(ctx context.Context) error {
	screen, err := tui.Open()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	defer screen.Fini()

	opts := tui.Options{
		Unlock: a.player.Unlock,
		Mirror: a.cfg.Engine.Surface.Mirror,
		Logger: a.logger,
	}
	if a.tracker != nil {
		opts.Hands = a.tracker.Latest
		opts.Status = a.tracker.Status
	}
	return tui.New(screen, a.engine, opts).Run(ctx, a.cfg.Engine.FrameInterval)
}

// Shutdown releases capture and audio output.
func (a *App) Shutdown() {
	if a.engine != nil {
		a.engine.DisposeAudioAnalysis()
	}
	if a.tracker != nil {
		a.logger.Info("tracker closed", "frames", a.tracker.Frames())
	}
	if a.player != nil {
		a.logger.Info("audio output closed", "plays", a.player.Plays())
		if err := a.player.Close(); err != nil {
			a.logger.Warn("close audio output", "error", err)
		}
	}
}

// Engine returns the engine, nil before Init.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Monitor returns the monitor server, nil when disabled.
func (a *App) Monitor() *web.Server {
	return a.monitor
}

// lateController forwards to the engine once it exists.
type lateController struct {
	mu  sync.RWMutex
	eng *engine.Engine
}

var errNotReady = errors.New("engine not ready")

func (c *lateController) bind(e *engine.Engine) {
	c.mu.Lock()
	c.eng = e
	c.mu.Unlock()
}

func (c *lateController) get() *engine.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.eng
}

func (c *lateController) QueueImpulse(id string, strength float64) error {
	if e := c.get(); e != nil {
		return e.QueueImpulse(id, strength)
	}
	return errNotReady
}

func (c *lateController) QueueAudioAnalysis(enable bool) error {
	if e := c.get(); e != nil {
		return e.QueueAudioAnalysis(enable)
	}
	return errNotReady
}
