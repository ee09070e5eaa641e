package hitdetect

import (
	"math"
	"testing"
)

func TestIsInside(t *testing.T) {
	zone := &Circle{Center: Point{X: 100, Y: 100}, Radius: 50}

	tests := []struct {
		name  string
		point *Point
		zone  *Circle
		want  bool
	}{
		{"center", &Point{100, 100}, zone, true},
		{"inside", &Point{120, 90}, zone, true},
		{"on rim horizontal", &Point{150, 100}, zone, true},
		{"on rim vertical", &Point{100, 50}, zone, true},
		{"just outside", &Point{150.001, 100}, zone, false},
		{"far away", &Point{400, 400}, zone, false},
		{"nil point", nil, zone, false},
		{"nil zone", &Point{100, 100}, nil, false},
		{"zero radius at center", &Point{10, 10}, &Circle{Center: Point{10, 10}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInside(tt.point, tt.zone); got != tt.want {
				t.Errorf("IsInside = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldTrigger_NonPositiveThresholdNeverTriggers(t *testing.T) {
	for _, threshold := range []float64{0, -1, -1000, math.Inf(-1), math.NaN()} {
		for _, speed := range []float64{0, 1, 1e6} {
			if ShouldTrigger(false, true, speed, threshold) {
				t.Errorf("threshold %v speed %v triggered", threshold, speed)
			}
		}
	}
}

func TestShouldTrigger_EdgeAndSpeed(t *testing.T) {
	tests := []struct {
		name      string
		wasInside bool
		isInside  bool
		speed     float64
		want      bool
	}{
		{"entered fast", false, true, 900, true},
		{"entered exactly at threshold", false, true, 600, true},
		{"entered slow", false, true, 599.9, false},
		{"already inside fast", true, true, 5000, false},
		{"left zone", true, false, 5000, false},
		{"stayed outside", false, false, 5000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldTrigger(tt.wasInside, tt.isInside, tt.speed, 600); got != tt.want {
				t.Errorf("ShouldTrigger = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointDist(t *testing.T) {
	if d := (Point{0, 0}).Dist(Point{3, 4}); math.Abs(d-5) > 1e-12 {
		t.Errorf("Dist = %v, want 5", d)
	}
}
