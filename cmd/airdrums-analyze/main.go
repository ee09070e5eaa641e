// airdrums-analyze runs the spectrum analyzer and rhythm tracker over a WAV
// recording faster than real time and prints one JSON line per frame.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/teslashibe/go-airdrums/internal/config"
	"github.com/teslashibe/go-airdrums/internal/log"
	"github.com/teslashibe/go-airdrums/pkg/audioio"
	"github.com/teslashibe/go-airdrums/pkg/rhythm"
	"github.com/teslashibe/go-airdrums/pkg/spectrum"
)

type frame struct {
	T       float64 `json:"t"`
	Bass    float64 `json:"bass"`
	Mid     float64 `json:"mid"`
	Treble  float64 `json:"treble"`
	Energy  float64 `json:"energy"`
	Peak    bool    `json:"peak,omitempty"`
	Density float64 `json:"density"`
	Bins    []int   `json:"bins,omitempty"`
}

type summary struct {
	Frames      int     `json:"frames"`
	Seconds     float64 `json:"seconds"`
	Peaks       int     `json:"peaks"`
	MeanDensity float64 `json:"mean_density"`
	MaxBass     float64 `json:"max_bass"`
}

func main() {
	configPath := flag.String("config", config.Path(""), "YAML config file (overrides AIRDRUMS_CONFIG)")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	fps := flag.Int("fps", 60, "Analysis frames per second")
	every := flag.Int("every", 1, "Print every Nth frame")
	quiet := flag.Bool("summary", false, "Only print the summary line")
	withBins := flag.Bool("bins", false, "Include the byte spectrum in each frame line")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: airdrums-analyze [flags] take.wav")
		os.Exit(2)
	}
	if *fps <= 0 || *every <= 0 {
		fmt.Fprintln(os.Stderr, "❌ -fps and -every must be positive")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	log.Init(*logLevel)
	logger := log.Component("analyze")

	samples, err := audioio.ReadWAVMono(flag.Arg(0), cfg.Audio.SampleRate)
	if err != nil {
		logger.Error("read recording", "error", err)
		os.Exit(1)
	}
	src := audioio.NewPCMSource(cfg.Audio, samples, log.L())
	analyzer, err := spectrum.NewAnalyzer(cfg.Engine.Analyzer, func() (audioio.Source, error) { return src, nil }, log.L())
	if err != nil {
		logger.Error("analyzer", "error", err)
		os.Exit(1)
	}
	if err := analyzer.Init(context.Background()); err != nil {
		logger.Error("start analysis", "error", err)
		os.Exit(1)
	}
	defer analyzer.Dispose()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)

	interval := time.Second / time.Duration(*fps)
	tracker := rhythm.NewTracker(cfg.Engine.Rhythm)
	start := time.Unix(0, 0)
	var sum summary
	var densitySum float64

	for more := true; more; {
		more = src.Advance(interval)
		snap := analyzer.Sample()
		if !snap.Live {
			break
		}
		now := start.Add(time.Duration(sum.Frames) * interval)
		f := frame{
			T:      now.Sub(start).Seconds(),
			Bass:   snap.Bass,
			Mid:    snap.Mid,
			Treble: snap.Treble,
			Energy: snap.Energy,
			Peak:   tracker.Observe(now, snap.Energy),
		}
		f.Density = tracker.Density(now)
		if *withBins {
			f.Bins = byteBins(analyzer.Bins())
		}

		if f.Peak {
			sum.Peaks++
		}
		densitySum += f.Density
		sum.MaxBass = max(sum.MaxBass, f.Bass)
		if !*quiet && sum.Frames%*every == 0 {
			if err := enc.Encode(f); err != nil {
				logger.Error("write frame", "error", err)
				os.Exit(1)
			}
		}
		sum.Frames++
	}

	logger.Debug("capture finished", "stats", src.Stats())
	sum.Seconds = float64(len(samples)) / float64(cfg.Audio.SampleRate)
	if sum.Frames > 0 {
		sum.MeanDensity = densitySum / float64(sum.Frames)
	}
	if err := enc.Encode(sum); err != nil {
		logger.Error("write summary", "error", err)
		os.Exit(1)
	}
}

func byteBins(bins []uint8) []int {
	out := make([]int, len(bins))
	for i, b := range bins {
		out[i] = int(b)
	}
	return out
}
