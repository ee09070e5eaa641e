// Package particles simulates the bursts drawn around drum zones. Each zone
// owns a fixed-capacity ring of particles; the oldest is evicted when full.
package particles

import (
	"fmt"
	"math"
	"time"
)

// Shape is the glyph a particle is drawn with.
type Shape uint8

const (
	ShapeSquare Shape = iota
	ShapeDiamond
	ShapeCross
	numShapes
)

func (s Shape) String() string {
	switch s {
	case ShapeSquare:
		return "square"
	case ShapeDiamond:
		return "diamond"
	case ShapeCross:
		return "cross"
	default:
		return fmt.Sprintf("shape(%d)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	for v := ShapeSquare; v < numShapes; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown particle shape %q", text)
}

// Style selects a spawn generator.
type Style uint8

const (
	StyleBurst Style = iota
	StyleSpray
	StyleCluster
	StyleRing
	numStyles
)

// Styles lists every spawn style.
var Styles = []Style{StyleBurst, StyleSpray, StyleCluster, StyleRing}

func (s Style) String() string {
	switch s {
	case StyleBurst:
		return "burst"
	case StyleSpray:
		return "spray"
	case StyleCluster:
		return "cluster"
	case StyleRing:
		return "ring"
	default:
		return fmt.Sprintf("style(%d)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	v, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStyle parses a style name.
func ParseStyle(name string) (Style, error) {
	for _, s := range Styles {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown particle style %q", name)
}

// Vec is a 2D vector in surface pixels (or px/ms for velocities).
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Scale returns v * k.
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

// Len returns the vector length.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Rotate returns v rotated by theta radians.
func (v Vec) Rotate(theta float64) Vec {
	sin, cos := math.Sincos(theta)
	return Vec{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

func unit(theta float64) Vec {
	sin, cos := math.Sincos(theta)
	return Vec{cos, sin}
}

// RGB is an 8-bit colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Particle is one simulated fragment.
type Particle struct {
	Pos      Vec     `json:"pos"`
	Vel      Vec     `json:"vel"` // px/ms
	Size     float64 `json:"size"`
	Color    RGB     `json:"color"`
	Shape    Shape   `json:"shape"`
	Rotation float64 `json:"rotation"`
	Spin     float64 `json:"spin"` // rad/ms

	Swirl      bool    `json:"swirl"`
	SwirlOmega float64 `json:"swirl_omega"` // rad/ms

	Born  time.Time `json:"born"`
	Life  float64   `json:"life"` // ms
	Alpha uint8     `json:"alpha"`
}

// Age returns the particle age in ms at now.
func (p *Particle) Age(now time.Time) float64 {
	return float64(now.Sub(p.Born)) / float64(time.Millisecond)
}

// Expired reports whether the particle has reached its life.
func (p *Particle) Expired(now time.Time) bool {
	return p.Age(now) >= p.Life
}

// fade is the ease-out alpha for normalised age t.
func fade(t float64) uint8 {
	t = math.Min(math.Max(t, 0), 1)
	return uint8(math.Round(255 * (1 - t*t)))
}
