package sampler

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	approx "github.com/cwbudde/algo-approx"
)

// Synthesize generates a short drum hit for a zone id. Unknown ids get a
// mid-pitched tone. Output is deterministic per id.
func Synthesize(id string, rate int) [][2]float64 {
	switch id {
	case "Kick":
		return render(rate, 0.45, seedFor(id), func(t float64, _ *rand.Rand) float64 {
			freq := 50 + 110*decay(t, 30)
			return 0.9 * math.Sin(2*math.Pi*freq*t) * decay(t, 9)
		})
	case "Snare":
		return render(rate, 0.25, seedFor(id), func(t float64, rng *rand.Rand) float64 {
			tone := 0.35 * math.Sin(2*math.Pi*190*t) * decay(t, 25)
			noise := 0.55 * (rng.Float64()*2 - 1) * decay(t, 18)
			return tone + noise
		})
	case "Tom":
		return render(rate, 0.4, seedFor(id), func(t float64, _ *rand.Rand) float64 {
			freq := 110 + 60*decay(t, 20)
			return 0.8 * math.Sin(2*math.Pi*freq*t) * decay(t, 8)
		})
	case "Hi-Hat":
		var prev float64
		return render(rate, 0.09, seedFor(id), func(t float64, rng *rand.Rand) float64 {
			// first difference of white noise leans toward the top octave
			n := rng.Float64()*2 - 1
			v := n - prev
			prev = n
			return 0.3 * v * decay(t, 45)
		})
	default:
		return render(rate, 0.2, seedFor(id), func(t float64, _ *rand.Rand) float64 {
			return 0.5 * math.Sin(2*math.Pi*440*t) * decay(t, 20)
		})
	}
}

func render(rate int, seconds float64, seed uint64, fn func(t float64, rng *rand.Rand) float64) [][2]float64 {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	n := int(seconds * float64(rate))
	out := make([][2]float64, n)
	for i := range out {
		v := fn(float64(i)/float64(rate), rng)
		out[i] = [2]float64{v, v}
	}
	return out
}

// decay is the envelope e^(-t*rate).
func decay(t, rate float64) float64 {
	return float64(approx.FastExp(float32(-t * rate)))
}

func seedFor(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}
