package zones

import (
	"fmt"

	"github.com/teslashibe/go-airdrums/pkg/hands"
	"github.com/teslashibe/go-airdrums/pkg/hitdetect"
)

// Zone is a circular drum pad. Centre and radius are normalised: X and Y
// are fractions of the surface size and Radius is a fraction of its shorter
// side.
type Zone struct {
	ID     string  `yaml:"id" json:"id"`
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Radius float64 `yaml:"radius" json:"radius"`
	Hue    float64 `yaml:"hue" json:"hue"` // degrees
}

// Circle returns the zone's hit area in surface pixels.
func (z Zone) Circle(s hands.Surface) hitdetect.Circle {
	return hitdetect.Circle{
		Center: hitdetect.Point{X: z.X * s.Width, Y: z.Y * s.Height},
		Radius: z.Radius * s.ShorterSide(),
	}
}

// DefaultLayout returns the four-piece kit.
func DefaultLayout() []Zone {
	return []Zone{
		{ID: "Kick", X: 0.22, Y: 0.72, Radius: 0.13, Hue: 8},
		{ID: "Snare", X: 0.42, Y: 0.58, Radius: 0.11, Hue: 196},
		{ID: "Tom", X: 0.6, Y: 0.58, Radius: 0.11, Hue: 282},
		{ID: "Hi-Hat", X: 0.8, Y: 0.7, Radius: 0.1, Hue: 48},
	}
}

// ValidateLayout checks ids are unique and geometry is in range.
func ValidateLayout(zs []Zone) error {
	if len(zs) == 0 {
		return fmt.Errorf("at least one zone is required")
	}
	seen := make(map[string]bool, len(zs))
	for _, z := range zs {
		if z.ID == "" {
			return fmt.Errorf("zone with empty id")
		}
		if seen[z.ID] {
			return fmt.Errorf("duplicate zone id %q", z.ID)
		}
		seen[z.ID] = true
		if z.X < 0 || z.X > 1 || z.Y < 0 || z.Y > 1 {
			return fmt.Errorf("zone %s: centre must be within [0, 1]", z.ID)
		}
		if z.Radius <= 0 || z.Radius > 1 {
			return fmt.Errorf("zone %s: radius must be within (0, 1]", z.ID)
		}
	}
	return nil
}
