// Package zones runs the drum pads: it decides hits from fingertip samples
// and fans each hit out to the impulse injector, the particle simulator, the
// sample player and any glitch burst bound to the zone.
package zones

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-airdrums/pkg/hands"
	"github.com/teslashibe/go-airdrums/pkg/hitdetect"
	"github.com/teslashibe/go-airdrums/pkg/particles"
)

// SamplePlayer plays a one-shot sample by zone id and reports whether a
// buffer existed.
type SamplePlayer interface {
	Play(id string) bool
}

// ImpulseSink receives hit impulses.
type ImpulseSink interface {
	RegisterImpulse(now time.Time, sourceID string, strength float64)
}

// Burster fires a glitch burst.
type Burster interface {
	Trigger(now time.Time, intensity float64)
}

// Config configures hit detection.
type Config struct {
	// Threshold is the minimum fingertip speed in px/s.
	Threshold float64       `yaml:"threshold" json:"threshold"`
	Highlight time.Duration `yaml:"highlight" json:"highlight"`
	Layout    []Zone        `yaml:"layout" json:"layout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: 600,
		Highlight: 180 * time.Millisecond,
		Layout:    DefaultLayout(),
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative, got %v", c.Threshold)
	}
	if c.Highlight < 0 {
		return fmt.Errorf("highlight must not be negative")
	}
	return ValidateLayout(c.Layout)
}

// Hit describes one confirmed strike.
type Hit struct {
	ID        string          `json:"id"`
	Zone      string          `json:"zone"`
	At        time.Time       `json:"at"`
	Hand      int             `json:"hand"`
	Speed     float64         `json:"speed"`
	Intensity float64         `json:"intensity"`
	Strength  float64         `json:"strength"`
	Style     particles.Style `json:"style"`
	Played    bool            `json:"played"`
	Glitch    bool            `json:"glitch"`
}

// View is the render state of one zone.
type View struct {
	Zone        Zone                 `json:"zone"`
	Circle      hitdetect.Circle     `json:"circle"`
	Highlighted bool                 `json:"highlighted"`
	Particles   []particles.Particle `json:"particles"`
}

type runtimeState struct {
	wasInside      bool
	highlightUntil time.Time
}

// Controller owns the runtime state of every zone.
// It is not safe for concurrent use.
type Controller struct {
	cfg      Config
	surface  hands.Surface
	impulses ImpulseSink
	sim      *particles.Simulator
	player   SamplePlayer
	bursts   map[string]Burster
	logger   *slog.Logger

	state []runtimeState
}

// NewController creates a controller. player and bursts may be nil.
func NewController(cfg Config, surface hands.Surface, impulses ImpulseSink, sim *particles.Simulator,
	player SamplePlayer, bursts map[string]Burster, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	for _, z := range cfg.Layout {
		sim.AddZone(z.ID, z.Hue)
	}
	return &Controller{
		cfg:      cfg,
		surface:  surface,
		impulses: impulses,
		sim:      sim,
		player:   player,
		bursts:   bursts,
		logger:   logger.With("component", "zones"),
		state:    make([]runtimeState, len(cfg.Layout)),
	}
}

// SetSurface updates the pixel space zones are evaluated in.
func (c *Controller) SetSurface(s hands.Surface) {
	c.surface = s
}

// Layout returns a copy of the zones.
func (c *Controller) Layout() []Zone {
	out := make([]Zone, len(c.cfg.Layout))
	copy(out, c.cfg.Layout)
	return out
}

// Evaluate runs hit detection for every zone against this frame's fingers.
func (c *Controller) Evaluate(now time.Time, fingers []hands.FingerSample) []Hit {
	var hits []Hit
	for i, z := range c.cfg.Layout {
		circle := z.Circle(c.surface)
		st := &c.state[i]

		inside := false
		striker := -1
		var speed float64
		for j := range fingers {
			if !hitdetect.IsInside(&fingers[j].Pos, &circle) {
				continue
			}
			inside = true
			if striker < 0 || fingers[j].Speed > speed {
				striker = j
				speed = fingers[j].Speed
			}
		}

		if hitdetect.ShouldTrigger(st.wasInside, inside, speed, c.cfg.Threshold) {
			hits = append(hits, c.hit(now, z, circle, st, fingers[striker]))
		}
		st.wasInside = inside
	}
	return hits
}

func (c *Controller) hit(now time.Time, z Zone, circle hitdetect.Circle, st *runtimeState, f hands.FingerSample) Hit {
	st.highlightUntil = now.Add(c.cfg.Highlight)

	intensity := clamp01((f.Speed - c.cfg.Threshold) / (2 * c.cfg.Threshold))
	strength := 0.4 + 0.6*intensity
	c.impulses.RegisterImpulse(now, z.ID, strength)

	center := particles.Vec{X: circle.Center.X, Y: circle.Center.Y}
	impact := particles.Vec{X: f.Velocity.X / 1000, Y: f.Velocity.Y / 1000}
	style := c.sim.SpawnBurst(z.ID, now, center, circle.Radius, intensity, impact)

	played := false
	if c.player != nil {
		played = c.player.Play(z.ID)
	}
	if !played {
		c.logger.Debug("no sample for zone", "zone", z.ID)
	}

	h := Hit{
		ID:        uuid.NewString(),
		Zone:      z.ID,
		At:        now,
		Hand:      f.Hand,
		Speed:     f.Speed,
		Intensity: intensity,
		Strength:  strength,
		Style:     style,
		Played:    played,
	}
	if b, ok := c.bursts[z.ID]; ok && b != nil {
		b.Trigger(now, intensity)
		h.Glitch = true
	}
	return h
}

// Highlighted reports whether the zone at index i is lit at now.
func (c *Controller) Highlighted(i int, now time.Time) bool {
	return now.Before(c.state[i].highlightUntil)
}

// Views returns the render state of every zone.
func (c *Controller) Views(now time.Time) []View {
	out := make([]View, len(c.cfg.Layout))
	for i, z := range c.cfg.Layout {
		out[i] = View{
			Zone:        z,
			Circle:      z.Circle(c.surface),
			Highlighted: c.Highlighted(i, now),
			Particles:   c.sim.Particles(z.ID),
		}
	}
	return out
}

// Reset clears edge and highlight state and every particle.
func (c *Controller) Reset() {
	for i := range c.state {
		c.state[i] = runtimeState{}
	}
	c.sim.Reset()
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
