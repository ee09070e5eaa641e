package particles

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// spawnRequest carries one burst's inputs to a generator.
type spawnRequest struct {
	now        time.Time
	center     Vec
	baseRadius float64
	intensity  float64
	impact     Vec
	hue        float64
}

// impactAngle returns the impact direction, or a random one when the finger
// was effectively still.
func (q *spawnRequest) impactAngle(rng *rand.Rand) (float64, bool) {
	if q.impact.Len() < 1e-6 {
		return rng.Float64() * 2 * math.Pi, false
	}
	return math.Atan2(q.impact.Y, q.impact.X), true
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// count returns how many particles a style emits at the given intensity.
func (s *Simulator) count(p StyleParams, intensity float64) int {
	return emitCount(p, s.cfg.Multiplier, intensity)
}

func emitCount(p StyleParams, multiplier, intensity float64) int {
	n := int(math.Round((float64(p.BaseCount) + p.CountSpan*intensity) * multiplier))
	if n < 1 {
		n = 1
	}
	return n
}

// base fills the per-particle fields shared by every style.
func (s *Simulator) base(q *spawnRequest, p StyleParams) Particle {
	rng := s.rng
	i := q.intensity
	h := math.Mod(q.hue+between(rng, -s.cfg.HueJitter, s.cfg.HueJitter)+360, 360)
	c := colorful.Hsv(h, between(rng, 0.55, 0.8)+0.2*i, between(rng, 0.85, 1)).Clamped()
	r, g, b := c.RGB255()

	swirl := rng.Float64() < p.SwirlChance
	var omega float64
	if swirl {
		omega = between(rng, 0.003, 0.009)
		if rng.IntN(2) == 0 {
			omega = -omega
		}
	}

	return Particle{
		Pos:        q.center,
		Size:       between(rng, p.MinSize, p.MaxSize) * (0.8 + 0.6*i),
		Color:      RGB{R: r, G: g, B: b},
		Shape:      Shape(rng.IntN(int(numShapes))),
		Rotation:   rng.Float64() * 2 * math.Pi,
		Spin:       between(rng, -0.006, 0.006),
		Swirl:      swirl,
		SwirlOmega: omega,
		Born:       q.now,
		Life:       between(rng, p.MinLife, p.MaxLife) * (0.8 + 0.4*i),
		Alpha:      255,
	}
}

func (s *Simulator) speed(p StyleParams, intensity float64) float64 {
	return between(s.rng, p.MinSpeed, p.MaxSpeed) * (0.6 + 0.8*intensity)
}

// spawnBurst scatters in every direction, leaning toward the impact
// direction as intensity rises.
func (s *Simulator) spawnBurst(r *ring, q *spawnRequest) int {
	p := s.cfg.Burst
	impactAng, directed := q.impactAngle(s.rng)
	bias := 0.0
	if directed {
		bias = 0.8 * q.intensity
	}
	toward := unit(impactAng)

	n := s.count(p, q.intensity)
	for k := 0; k < n; k++ {
		pt := s.base(q, p)
		dir := unit(s.rng.Float64() * 2 * math.Pi).Scale(1 - bias).Add(toward.Scale(bias))
		if l := dir.Len(); l > 1e-9 {
			dir = dir.Scale(1 / l)
		} else {
			dir = toward
		}
		jitter := 0.1 * q.baseRadius
		pt.Pos = q.center.Add(Vec{between(s.rng, -jitter, jitter), between(s.rng, -jitter, jitter)})
		pt.Vel = dir.Scale(s.speed(p, q.intensity))
		r.push(pt)
	}
	return n
}

// spawnSpray fires a cone around the impact direction. The half-angle
// narrows from 90 to 30 degrees as intensity goes from 0 to 1.
func (s *Simulator) spawnSpray(r *ring, q *spawnRequest) int {
	p := s.cfg.Spray
	impactAng, _ := q.impactAngle(s.rng)
	half := (90 - 60*q.intensity) * math.Pi / 180

	n := s.count(p, q.intensity)
	for k := 0; k < n; k++ {
		pt := s.base(q, p)
		ang := impactAng + between(s.rng, -half, half)
		pt.Vel = unit(ang).Scale(s.speed(p, q.intensity))
		r.push(pt)
	}
	return n
}

// spawnCluster packs slow particles close to the centre.
func (s *Simulator) spawnCluster(r *ring, q *spawnRequest) int {
	p := s.cfg.Cluster
	spread := 0.25 * q.baseRadius

	n := s.count(p, q.intensity)
	for k := 0; k < n; k++ {
		pt := s.base(q, p)
		off := unit(s.rng.Float64() * 2 * math.Pi).Scale(spread * math.Sqrt(s.rng.Float64()))
		pt.Pos = q.center.Add(off)
		pt.Vel = unit(s.rng.Float64() * 2 * math.Pi).Scale(s.speed(p, q.intensity) * 0.35)
		r.push(pt)
	}
	return n
}

// spawnRing places particles evenly on one circle and sends them outward.
func (s *Simulator) spawnRing(r *ring, q *spawnRequest) int {
	p := s.cfg.Ring
	radius := q.baseRadius * between(s.rng, 0.7, 1.0)
	phase := s.rng.Float64() * 2 * math.Pi
	speed := s.speed(p, q.intensity)

	n := s.count(p, q.intensity)
	for k := 0; k < n; k++ {
		pt := s.base(q, p)
		dir := unit(phase + 2*math.Pi*float64(k)/float64(n))
		pt.Pos = q.center.Add(dir.Scale(radius))
		pt.Vel = dir.Scale(speed * between(s.rng, 0.92, 1.08))
		r.push(pt)
	}
	return n
}
