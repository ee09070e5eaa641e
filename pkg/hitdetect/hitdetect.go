// Package hitdetect decides whether a fingertip struck a circular drum zone.
// Everything here is a pure function of its inputs.
package hitdetect

import "math"

// Point is a position in surface pixels.
type Point struct {
	X, Y float64
}

// Dist returns the euclidean distance between two points.
func (p Point) Dist(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Circle is a hit area in surface pixels.
type Circle struct {
	Center Point
	Radius float64
}

// Contains reports whether p lies inside or on the rim of the circle.
func (c Circle) Contains(p Point) bool {
	dx := p.X - c.Center.X
	dy := p.Y - c.Center.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// IsInside checks whether a point is inside a circular zone.
// A missing point or zone is never inside.
func IsInside(point *Point, zone *Circle) bool {
	if point == nil || zone == nil {
		return false
	}
	return zone.Contains(*point)
}

// ShouldTrigger reports a hit only on the frame the finger enters the zone,
// and only when it moves at least threshold px/s.
// A threshold <= 0 disables triggering.
func ShouldTrigger(wasInside, isInside bool, speed, threshold float64) bool {
	if !(threshold > 0) {
		return false
	}
	if wasInside || !isInside {
		return false
	}
	return speed >= threshold
}
