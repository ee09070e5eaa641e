package spectrum

import "math"

// Band is a frequency range in Hz.
type Band struct {
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
}

// Bands holds the three analysis bands.
type Bands struct {
	Bass   Band `yaml:"bass" json:"bass"`
	Mid    Band `yaml:"mid" json:"mid"`
	Treble Band `yaml:"treble" json:"treble"`
}

// DefaultBands returns the bass/mid/treble split.
func DefaultBands() Bands {
	return Bands{
		Bass:   Band{Low: 40, High: 180},
		Mid:    Band{Low: 180, High: 2000},
		Treble: Band{Low: 2000, High: 6000},
	}
}

// BinRange is a half-open range of magnitude bins [Start, End).
type BinRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// BandRanges holds the bin range of each band.
type BandRanges struct {
	Bass   BinRange `json:"bass"`
	Mid    BinRange `json:"mid"`
	Treble BinRange `json:"treble"`
}

// FreqToIndex converts a frequency to a bin index, clamped to [0, maxIndex].
func FreqToIndex(freq, binHz float64, maxIndex int) int {
	idx := int(math.Round(freq / binHz))
	if idx < 0 {
		return 0
	}
	if idx > maxIndex {
		return maxIndex
	}
	return idx
}

// ComputeBandRanges converts band edges to bins for a sample rate and FFT size.
func ComputeBandRanges(sampleRate float64, fftSize int, bands Bands) BandRanges {
	binHz := sampleRate / float64(fftSize)
	maxIndex := fftSize/2 - 1
	conv := func(b Band) BinRange {
		return BinRange{
			Start: FreqToIndex(b.Low, binHz, maxIndex),
			End:   FreqToIndex(b.High, binHz, maxIndex),
		}
	}
	return BandRanges{
		Bass:   conv(bands.Bass),
		Mid:    conv(bands.Mid),
		Treble: conv(bands.Treble),
	}
}

// Averages are normalized band magnitudes, nominally in [0, 1].
type Averages struct {
	Bass   float64
	Mid    float64
	Treble float64
	Energy float64 // whole-spectrum average
}

// ComputeBandAverages averages byte magnitudes per band and divides by 255.
// A nil range set or empty buffer yields zeros.
func ComputeBandAverages(bins []uint8, ranges *BandRanges) Averages {
	if len(bins) == 0 || ranges == nil {
		return Averages{}
	}

	var energy float64
	for _, b := range bins {
		energy += float64(b)
	}

	return Averages{
		Bass:   bandAverage(bins, ranges.Bass),
		Mid:    bandAverage(bins, ranges.Mid),
		Treble: bandAverage(bins, ranges.Treble),
		Energy: energy / (float64(len(bins)) * 255),
	}
}

func bandAverage(bins []uint8, r BinRange) float64 {
	n := len(bins)
	start := clampInt(r.Start, 0, n-1)
	end := clampInt(r.End, start+1, n)

	var sum float64
	for i := start; i < end; i++ {
		sum += float64(bins[i])
	}
	count := end - start
	if count < 1 {
		count = 1
	}
	return sum / (float64(count) * 255)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
