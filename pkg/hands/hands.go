// Package hands converts tracked hand landmarks into fingertip samples in
// surface pixels, with speed derived from consecutive frames.
package hands

import (
	"time"

	"github.com/teslashibe/go-airdrums/pkg/hitdetect"
)

const (
	// FingertipIndex is the index fingertip in a 21-point hand.
	FingertipIndex = 8
	// MaxHands is the most hands tracked at once.
	MaxHands = 2
	// NumLandmarks is the number of keypoints per hand.
	NumLandmarks = 21
)

// Connections are the landmark index pairs that form the hand skeleton.
var Connections = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 4},
	{0, 5}, {5, 6}, {6, 7}, {7, 8},
	{5, 9}, {9, 10}, {10, 11}, {11, 12},
	{9, 13}, {13, 14}, {14, 15}, {15, 16},
	{13, 17}, {17, 18}, {18, 19}, {19, 20},
	{0, 17}, {0, 9}, {0, 13},
}

// Landmark is one keypoint with x and y normalised to [0, 1].
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Surface is the drawing area landmarks are mapped onto.
type Surface struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	// Mirror flips x so the preview behaves like a mirror.
	Mirror bool `yaml:"mirror" json:"mirror"`
}

// DefaultSurface returns a mirrored 1280x720 surface.
func DefaultSurface() Surface {
	return Surface{Width: 1280, Height: 720, Mirror: true}
}

// ToPixels maps a normalised landmark to surface pixels.
func (s Surface) ToPixels(l Landmark) hitdetect.Point {
	x := l.X * s.Width
	if s.Mirror {
		x = s.Width - x
	}
	return hitdetect.Point{X: x, Y: l.Y * s.Height}
}

// ShorterSide returns min(width, height).
func (s Surface) ShorterSide() float64 {
	if s.Width < s.Height {
		return s.Width
	}
	return s.Height
}

// FingerSample is one fingertip observation.
type FingerSample struct {
	Hand     int             `json:"hand"`
	Pos      hitdetect.Point `json:"pos"`
	Speed    float64         `json:"speed"`    // px/s
	Velocity hitdetect.Point `json:"velocity"` // px/s
}

type slot struct {
	pos  hitdetect.Point
	at   time.Time
	seen bool
}

// Tracker remembers the previous fingertip of each hand slot.
// It is not safe for concurrent use.
type Tracker struct {
	surface Surface
	slots   [MaxHands]slot
}

// NewTracker creates a tracker for a surface.
func NewTracker(surface Surface) *Tracker {
	return &Tracker{surface: surface}
}

// Surface returns the current surface.
func (t *Tracker) Surface() Surface {
	return t.surface
}

// SetSurface changes the surface and forgets motion history, since old
// positions are in the previous pixel space.
func (t *Tracker) SetSurface(s Surface) {
	t.surface = s
	t.Reset()
}

// Update converts this frame's hands into fingertip samples. A hand seen for
// the first time has zero speed. Hands beyond MaxHands and hands without
// a fingertip are ignored and their history cleared.
func (t *Tracker) Update(now time.Time, hands [][]Landmark) []FingerSample {
	out := make([]FingerSample, 0, MaxHands)
	for i := range t.slots {
		if i >= len(hands) || len(hands[i]) <= FingertipIndex {
			t.slots[i] = slot{}
			continue
		}

		pos := t.surface.ToPixels(hands[i][FingertipIndex])
		sample := FingerSample{Hand: i, Pos: pos}

		prev := &t.slots[i]
		if prev.seen {
			if dt := now.Sub(prev.at).Seconds(); dt > 0 {
				sample.Velocity = hitdetect.Point{
					X: (pos.X - prev.pos.X) / dt,
					Y: (pos.Y - prev.pos.Y) / dt,
				}
				sample.Speed = pos.Dist(prev.pos) / dt
			}
		}

		*prev = slot{pos: pos, at: now, seen: true}
		out = append(out, sample)
	}
	return out
}

// Reset forgets every hand.
func (t *Tracker) Reset() {
	t.slots = [MaxHands]slot{}
}
