// Package engine drives the reactive pipeline one frame at a time.
//
// Every stage runs on the goroutine that calls Tick. Other goroutines talk to
// the engine only through Submit and the queue helpers built on it, and read
// its output from the snapshots handed to the Publisher.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/teslashibe/go-airdrums/pkg/audioio"
	"github.com/teslashibe/go-airdrums/pkg/hands"
	"github.com/teslashibe/go-airdrums/pkg/impulse"
	"github.com/teslashibe/go-airdrums/pkg/particles"
	"github.com/teslashibe/go-airdrums/pkg/reactive"
	"github.com/teslashibe/go-airdrums/pkg/rhythm"
	"github.com/teslashibe/go-airdrums/pkg/spectrum"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

// Audio unlock states reported by AudioState.
const (
	AudioSuspended = "suspended"
	AudioRunning   = "running"
	AudioClosed    = "closed"
)

// ErrQueueFull is returned when the command queue cannot take more work.
var ErrQueueFull = errors.New("engine: command queue full")

var errNoCapture = fmt.Errorf("%w: no capture source configured", audioio.ErrUnsupported)

// minFrameMs floors the frame delta.
const minFrameMs = 1.0

// Player plays samples and reports the output unlock state.
type Player interface {
	zones.SamplePlayer
	State() string
}

// Publisher receives a snapshot after every tick. Publish must not block.
type Publisher interface {
	Publish(Snapshot)
}

// Command runs on the frame goroutine at the start of the next tick.
type Command func(e *Engine)

// Deps are the engine's external collaborators.
type Deps struct {
	// Open acquires the capture source when analysis is initialised.
	Open      spectrum.Opener
	Player    Player
	Publisher Publisher
	Clock     func() time.Time
	Logger    *slog.Logger
}

// Engine owns every pipeline stage.
type Engine struct {
	cfg    Config
	clock  func() time.Time
	logger *slog.Logger

	analyzer *spectrum.Analyzer
	rhythm   *rhythm.Tracker
	injector *impulse.Injector
	mapper   *reactive.Mapper
	glitches map[string]*reactive.Glitch
	sim      *particles.Simulator
	fingers  *hands.Tracker
	zones    *zones.Controller
	player   Player
	pub      Publisher

	cmds    chan Command
	runCtx  context.Context
	hands   [][]hands.Landmark
	last    time.Time
	seq     uint64
	lastRun Snapshot
}

// New wires the pipeline.
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	open := deps.Open
	if open == nil {
		open = func() (audioio.Source, error) { return nil, errNoCapture }
	}

	analyzer, err := spectrum.NewAnalyzer(cfg.Analyzer, open, logger)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(clock().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	tracker := rhythm.NewTracker(cfg.Rhythm)
	injector := impulse.NewInjector(copyProfiles(cfg.Impulses), tracker)
	mapper := reactive.NewMapper(cfg.Tuning, injector, tracker)
	sim := particles.NewSimulator(cfg.Particles, rng)

	glitches := make(map[string]*reactive.Glitch, len(cfg.Glitch.Zones))
	bursts := make(map[string]zones.Burster, len(cfg.Glitch.Zones))
	for _, id := range cfg.Glitch.Zones {
		g := reactive.NewGlitch(cfg.Glitch, rng)
		glitches[id] = g
		bursts[id] = g
	}

	e := &Engine{
		cfg:      cfg,
		clock:    clock,
		logger:   logger.With("component", "engine"),
		analyzer: analyzer,
		rhythm:   tracker,
		injector: injector,
		mapper:   mapper,
		glitches: glitches,
		sim:      sim,
		fingers:  hands.NewTracker(cfg.Surface),
		player:   deps.Player,
		pub:      deps.Publisher,
		cmds:     make(chan Command, cfg.CommandBuffer),
	}
	e.zones = zones.NewController(cfg.Zones, cfg.Surface, mapper, sim, deps.Player, bursts, logger)
	return e, nil
}

func copyProfiles(in map[string]impulse.Profile) map[string]impulse.Profile {
	if in == nil {
		return nil
	}
	out := make(map[string]impulse.Profile, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Tick runs one frame: analyzer sample, impulse decay, mapper update, glitch
// update, hit evaluation, particle advance. Queued commands run first.
func (e *Engine) Tick(now time.Time, dtMs float64) Snapshot {
	e.last = now
	e.drainCommands()

	if dtMs < minFrameMs {
		dtMs = minFrameMs
	}

	spec := e.analyzer.Sample()
	e.injector.Decay(dtMs)
	state := e.mapper.Update(now, spec)
	for _, g := range e.glitches {
		g.Update(now, dtMs)
	}

	fingers := e.fingers.Update(now, e.hands)
	hits := e.zones.Evaluate(now, fingers)
	e.sim.AdvanceAll(now, dtMs)

	e.seq++
	snap := Snapshot{
		Seq:        e.seq,
		At:         now,
		DeltaMs:    dtMs,
		Reactive:   state,
		Spectrum:   spec,
		Impulse:    e.injector.State(),
		Glitch:     e.glitchStates(),
		Fingers:    fingers,
		Hits:       hits,
		Zones:      e.zones.Views(now),
		AudioState: e.AudioState(),
		Particles:  e.sim.Total(),
	}
	if spec.Live {
		snap.Bins = e.analyzer.Bins()
	}
	for _, h := range hits {
		e.logger.Debug("hit", "zone", h.Zone, "speed", h.Speed, "intensity", h.Intensity, "style", h.Style, "played", h.Played)
	}
	e.lastRun = snap
	if e.pub != nil {
		e.pub.Publish(snap)
	}
	return snap
}

// Step ticks with the engine clock, deriving the delta from the previous
// tick. The first step assumes one frame interval.
func (e *Engine) Step() Snapshot {
	now := e.clock()
	dt := float64(e.cfg.FrameInterval) / float64(time.Millisecond)
	if !e.last.IsZero() {
		dt = float64(now.Sub(e.last)) / float64(time.Millisecond)
	}
	return e.Tick(now, dt)
}

// Run ticks at interval until ctx ends. source, if non-nil, is polled before
// each tick for the latest tracked hands.
func (e *Engine) Run(ctx context.Context, interval time.Duration, source func() [][]hands.Landmark) error {
	if interval <= 0 {
		interval = e.cfg.FrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.runCtx = ctx

	e.logger.Info("frame loop started", "interval", interval, "zones", len(e.cfg.Zones.Layout))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("frame loop stopped", "frames", e.seq)
			return ctx.Err()
		case <-ticker.C:
			if source != nil {
				e.hands = source()
			}
			e.Step()
		}
	}
}

func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.cmds:
			cmd(e)
		default:
			return
		}
	}
}

// Submit queues cmd for the next tick. It never blocks.
func (e *Engine) Submit(cmd Command) error {
	select {
	case e.cmds <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueImpulse queues RegisterImpulse for the next tick.
func (e *Engine) QueueImpulse(sourceID string, strength float64) error {
	return e.Submit(func(e *Engine) { e.RegisterImpulse(sourceID, strength) })
}

// QueueAudioAnalysis starts (enable) or stops capture at the next tick.
// Acquisition is bound to the context Run was started with.
func (e *Engine) QueueAudioAnalysis(enable bool) error {
	return e.Submit(func(e *Engine) {
		if !enable {
			e.DisposeAudioAnalysis()
			return
		}
		ctx := e.runCtx
		if ctx == nil {
			ctx = context.Background()
		}
		done := e.InitAudioAnalysis(ctx)
		go func() {
			if err := <-done; err != nil {
				e.logger.Warn("audio analysis unavailable", "error", err)
			}
		}()
	})
}

// QueueHands replaces the tracked hands at the next tick.
func (e *Engine) QueueHands(h [][]hands.Landmark) error {
	return e.Submit(func(e *Engine) { e.hands = h })
}

// SetHands replaces the tracked hands directly. Frame goroutine only.
func (e *Engine) SetHands(h [][]hands.Landmark) {
	e.hands = h
}

// SetSurface resizes the drawing surface. Frame goroutine only.
func (e *Engine) SetSurface(s hands.Surface) {
	e.cfg.Surface = s
	e.fingers.SetSurface(s)
	e.zones.SetSurface(s)
}

// RegisterImpulse injects a synthetic hit stamped with the current frame
// time. Frame goroutine only.
func (e *Engine) RegisterImpulse(sourceID string, strength float64) {
	now := e.last
	if now.IsZero() {
		now = e.clock()
	}
	e.mapper.RegisterImpulse(now, sourceID, strength)
}

// ReactiveState returns a copy of the current effect controls.
func (e *Engine) ReactiveState() reactive.State {
	return e.mapper.State()
}

// Glitch returns the burst state for a zone and whether the zone has one.
func (e *Engine) Glitch(zone string) (reactive.GlitchState, bool) {
	g, ok := e.glitches[zone]
	if !ok {
		return reactive.GlitchState{}, false
	}
	return g.State(), true
}

func (e *Engine) glitchStates() map[string]reactive.GlitchState {
	out := make(map[string]reactive.GlitchState, len(e.glitches))
	for id, g := range e.glitches {
		out[id] = g.State()
	}
	return out
}

// Zones returns the render state of every zone at now.
func (e *Engine) Zones(now time.Time) []zones.View {
	return e.zones.Views(now)
}

// Layout returns the zone layout.
func (e *Engine) Layout() []zones.Zone {
	return e.zones.Layout()
}

// Last returns the snapshot of the most recent tick.
func (e *Engine) Last() Snapshot {
	return e.lastRun
}

// InitAudioAnalysis starts acquiring the capture source without blocking.
// The channel reports the acquisition result once.
func (e *Engine) InitAudioAnalysis(ctx context.Context) <-chan error {
	return e.analyzer.InitAsync(ctx)
}

// DisposeAudioAnalysis stops capture and zeroes the spectral, impulse and
// reactive state.
func (e *Engine) DisposeAudioAnalysis() {
	e.analyzer.Dispose()
	e.mapper.Reset()
}

// AudioAnalysisLive reports whether the analyzer read live input last frame.
func (e *Engine) AudioAnalysisLive() bool {
	return e.analyzer.Live()
}

// AudioAnalysisActive reports whether capture is installed or still being
// acquired.
func (e *Engine) AudioAnalysisActive() bool {
	return e.analyzer.Active()
}

// AudioState reports the sample player unlock state.
func (e *Engine) AudioState() string {
	if e.player == nil {
		return AudioClosed
	}
	return e.player.State()
}
