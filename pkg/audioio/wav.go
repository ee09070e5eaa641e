package audioio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAV decodes a whole WAV file into a float buffer.
// Access errors wrap ErrPermissionDenied.
func ReadWAV(path string) (*audio.Float32Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	return buf, nil
}

// WriteWAV encodes interleaved float samples as a 16-bit WAV file.
func WriteWAV(path string, samples []float32, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	return enc.Close()
}

// ReadWAVMono decodes a WAV file, downmixes it and resamples it to rate.
func ReadWAVMono(path string, rate int) ([]int16, error) {
	buf, err := ReadWAV(path)
	if err != nil {
		return nil, err
	}
	mono := monoFloat(buf)
	if from := buf.Format.SampleRate; from != rate {
		r, err := dspresample.NewForRates(float64(from), float64(rate),
			dspresample.WithQuality(dspresample.QualityBest))
		if err != nil {
			return nil, fmt.Errorf("resample %s: %w", path, err)
		}
		mono = r.Process(mono)
	}
	out := make([]int16, len(mono))
	for i, v := range mono {
		out[i] = floatToPCM16(v)
	}
	return out, nil
}

// monoFloat averages the channels of a float buffer.
func monoFloat(buf *audio.Float32Buffer) []float64 {
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out
}

func floatToPCM16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
