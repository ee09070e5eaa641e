// Package tui is a terminal preview of the drum kit. It drives the engine
// frame loop, draws zones, particles and meters with tcell, and treats the
// mouse pointer as an extra fingertip.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/hands"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

// Options are the preview's optional collaborators.
type Options struct {
	// Hands returns tracked hands from a landmark client.
	Hands func() [][]hands.Landmark
	// Status returns the tracker status. nil means no tracker is attached.
	Status func() string
	// Unlock opens audio output. It runs on the first key press or click.
	Unlock func() error
	// Mirror must match the engine surface so the mouse maps back onto
	// itself.
	Mirror bool
	Logger *slog.Logger
}

// Preview owns the screen and the engine's frame goroutine while running.
type Preview struct {
	screen tcell.Screen
	eng    *engine.Engine
	opts   Options
	logger *slog.Logger
	layout []zones.Zone

	cols, rows int

	mouse    hands.Landmark
	hasMouse bool
	unlocked bool
}

// Open creates and initialises a terminal screen with mouse motion events.
func Open() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()
	return screen, nil
}

// New creates a preview on an initialised screen.
func New(screen tcell.Screen, eng *engine.Engine, opts Options) *Preview {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Preview{
		screen: screen,
		eng:    eng,
		opts:   opts,
		logger: logger.With("component", "tui"),
		layout: eng.Layout(),
	}
	p.resize()
	return p
}

// Surface is the engine surface for a terminal of cols x rows cells.
func Surface(cols, rows int, mirror bool) hands.Surface {
	return hands.Surface{
		Width:  float64(max(cols, 1)) * cellW,
		Height: float64(max(rows, 1)) * cellH,
		Mirror: mirror,
	}
}

func (p *Preview) resize() {
	cols, rows := p.screen.Size()
	if cols == p.cols && rows == p.rows {
		return
	}
	p.cols, p.rows = cols, rows
	p.eng.SetSurface(Surface(cols, rows, p.opts.Mirror))
}

// Run ticks the engine every interval and redraws until ctx ends or the user
// quits. Quitting returns nil.
func (p *Preview) Run(ctx context.Context, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !p.handle(ctx, ev) {
				return nil
			}
		case <-ticker.C:
			p.frame()
		}
	}
}

func (p *Preview) frame() engine.Snapshot {
	p.eng.SetHands(p.collectHands())
	snap := p.eng.Step()
	p.draw(snap)
	return snap
}

// collectHands puts the mouse hand first, then tracked hands.
func (p *Preview) collectHands() [][]hands.Landmark {
	var out [][]hands.Landmark
	if p.hasMouse {
		out = append(out, mouseHand(p.mouse))
	}
	if p.opts.Hands != nil {
		out = append(out, p.opts.Hands()...)
	}
	if len(out) > hands.MaxHands {
		out = out[:hands.MaxHands]
	}
	return out
}

func mouseHand(tip hands.Landmark) []hands.Landmark {
	h := make([]hands.Landmark, hands.NumLandmarks)
	for i := range h {
		h[i] = tip
	}
	return h
}

// cellLandmark maps a terminal cell to a normalised landmark that lands back
// on the same cell after surface mapping.
func cellLandmark(x, y, cols, rows int, mirror bool) hands.Landmark {
	lx := (float64(x) + 0.5) / float64(max(cols, 1))
	if mirror {
		lx = 1 - lx
	}
	return hands.Landmark{X: lx, Y: (float64(y) + 0.5) / float64(max(rows, 1))}
}

// handle applies one terminal event and reports whether to keep running.
func (p *Preview) handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		p.unlock()
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune:
			return p.handleRune(ctx, ev.Rune())
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		p.mouse = cellLandmark(x, y, p.cols, p.rows, p.opts.Mirror)
		p.hasMouse = true
		if ev.Buttons()&tcell.Button1 != 0 {
			p.unlock()
		}

	case *tcell.EventResize:
		p.resize()
		p.screen.Sync()
	}
	return true
}

func (p *Preview) handleRune(ctx context.Context, r rune) bool {
	switch {
	case r == 'q':
		return false
	case r == 'a':
		p.toggleAudio(ctx)
	case r >= '1' && r <= '9':
		if i := int(r - '1'); i < len(p.layout) {
			p.eng.RegisterImpulse(p.layout[i].ID, 1)
		}
	}
	return true
}

// toggleAudio disposes capture when it is running or pending and starts it
// otherwise, so a failed acquisition is retried on the next press.
func (p *Preview) toggleAudio(ctx context.Context) {
	if p.eng.AudioAnalysisActive() {
		p.eng.DisposeAudioAnalysis()
		return
	}
	done := p.eng.InitAudioAnalysis(ctx)
	go func() {
		if err := <-done; err != nil {
			p.logger.Warn("audio analysis unavailable", "error", err)
		}
	}()
}

func (p *Preview) unlock() {
	if p.unlocked || p.opts.Unlock == nil {
		return
	}
	p.unlocked = true
	if err := p.opts.Unlock(); err != nil {
		p.logger.Warn("audio output unavailable", "error", err)
	}
}
