package tui

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/hitdetect"
	"github.com/teslashibe/go-airdrums/pkg/landmarks"
	"github.com/teslashibe/go-airdrums/pkg/particles"
	"github.com/teslashibe/go-airdrums/pkg/reactive"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

// Pixels per terminal cell. Cells are roughly twice as tall as wide.
const (
	cellW = 10.0
	cellH = 20.0
)

var glitchRunes = []rune("▓▒░#%")

func shapeGlyph(s particles.Shape) rune {
	switch s {
	case particles.ShapeDiamond:
		return '◆'
	case particles.ShapeCross:
		return '+'
	default:
		return '■'
	}
}

// zoneColor shifts the zone hue by the reactive state.
func zoneColor(hue float64, st reactive.State, highlighted bool) tcell.Color {
	h := math.Mod(hue+st.HueShiftDeg, 360)
	if h < 0 {
		h += 360
	}
	s := clamp01(0.55 + 0.2*st.SaturationBoost)
	v := clamp01(0.55 + 0.3*st.Vividness + 0.15*st.ColorFlash)
	if highlighted {
		s *= 0.7
		v = 1
	}
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// particleColor darkens c by alpha.
func particleColor(c particles.RGB, alpha uint8) tcell.Color {
	a := float64(alpha) / 255
	return tcell.NewRGBColor(
		int32(math.Round(float64(c.R)*a)),
		int32(math.Round(float64(c.G)*a)),
		int32(math.Round(float64(c.B)*a)))
}

// meter renders level/full as a bar of width cells.
func meter(level, full float64, width int) string {
	if width <= 0 {
		return ""
	}
	n := int(math.Round(clamp01(level/full) * float64(width)))
	return strings.Repeat("█", n) + strings.Repeat("·", width-n)
}

// statusMessage is the hint shown on top of the preview.
func statusMessage(tracker string, hasTracker bool, fingers int) string {
	if !hasTracker {
		if fingers == 0 {
			return "Move the mouse through a drum"
		}
		return ""
	}
	switch tracker {
	case landmarks.StatusConnecting, landmarks.StatusStarting:
		return "Starting camera..."
	case landmarks.StatusNoHands, landmarks.StatusStale:
		if fingers == 0 {
			return "Show your hands"
		}
	}
	return ""
}

func toCell(p hitdetect.Point) (int, int) {
	return int(p.X / cellW), int(p.Y / cellH)
}

func (p *Preview) draw(snap engine.Snapshot) {
	p.screen.Clear()
	st := snap.Reactive

	for _, v := range snap.Zones {
		p.drawZone(v, st)
	}
	for zone, g := range snap.Glitch {
		if g.Active {
			p.drawGlitch(zone, g, snap.Seq)
		}
	}
	for _, v := range snap.Zones {
		for _, pt := range v.Particles {
			x, y := toCell(hitdetect.Point{X: pt.Pos.X, Y: pt.Pos.Y})
			p.put(x, y, shapeGlyph(pt.Shape), tcell.StyleDefault.Foreground(particleColor(pt.Color, pt.Alpha)))
		}
	}
	for _, f := range snap.Fingers {
		x, y := toCell(f.Pos)
		p.put(x, y, '●', tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))
	}

	status := ""
	if p.opts.Status != nil {
		status = p.opts.Status()
	}
	if msg := statusMessage(status, p.opts.Status != nil, len(snap.Fingers)); msg != "" {
		p.text((p.cols-len(msg))/2, 0, msg, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	}
	p.drawMeters(snap)
	p.screen.Show()
}

func (p *Preview) drawZone(v zones.View, st reactive.State) {
	color := zoneColor(v.Zone.Hue, st, v.Highlighted)
	style := tcell.StyleDefault.Foreground(color)
	c := v.Circle

	x0, y0 := toCell(hitdetect.Point{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius})
	x1, y1 := toCell(hitdetect.Point{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius})
	rim := cellW * 0.75
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			center := hitdetect.Point{X: (float64(x) + 0.5) * cellW, Y: (float64(y) + 0.5) * cellH}
			d := center.Dist(c.Center)
			switch {
			case math.Abs(d-c.Radius) <= rim:
				p.put(x, y, '○', style)
			case v.Highlighted && d < c.Radius:
				p.put(x, y, '░', style)
			}
		}
	}
	cx, cy := toCell(c.Center)
	p.text(cx-len(v.Zone.ID)/2, cy, v.Zone.ID, style.Bold(true))
}

// drawGlitch scatters noise over the zone's rows. The pattern changes every
// frame but is fixed by the burst seed.
func (p *Preview) drawGlitch(zone string, g reactive.GlitchState, seq uint64) {
	var hue float64
	row := p.rows / 2
	for _, z := range p.layout {
		if z.ID == zone {
			hue = z.Hue
			row = int(z.Y * float64(p.rows))
		}
	}
	rng := rand.New(rand.NewPCG(g.Seed, seq))
	r, gg, b := colorful.Hsv(hue, 0.9, 1).RGB255()
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(gg), int32(b)))
	span := 1 + int(g.Strength*4)
	n := int(g.Strength * float64(p.cols) * 0.4)
	for i := 0; i < n; i++ {
		x := rng.IntN(max(p.cols, 1))
		y := row - span + rng.IntN(2*span+1)
		p.put(x, y, glitchRunes[rng.IntN(len(glitchRunes))], style)
	}
}

func (p *Preview) drawMeters(snap engine.Snapshot) {
	st := snap.Reactive
	y := p.rows - 1
	w := 8
	line := fmt.Sprintf("bass %s  mid %s  treble %s  rhythm %s  audio:%s  mic:%s",
		meter(st.BassLevel, reactive.MaxLevel, w),
		meter(st.MidLevel, reactive.MaxLevel, w),
		meter(st.TrebleLevel, reactive.MaxLevel, w),
		meter(st.RhythmDensity, 1, w),
		snap.AudioState,
		onOff(snap.Spectrum.Live))
	p.text(0, y, line, tcell.StyleDefault.Foreground(tcell.ColorGray))
	if p.rows > 1 {
		p.text(0, y-1, "1-9 strike  a mic  q quit", tcell.StyleDefault.Foreground(tcell.ColorDarkGray))
	}
}

func onOff(b bool) string {
	if b {
		return "live"
	}
	return "off"
}

func (p *Preview) put(x, y int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= p.cols || y >= p.rows {
		return
	}
	p.screen.SetContent(x, y, r, nil, style)
}

func (p *Preview) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		p.put(x, y, r, style)
		x++
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
