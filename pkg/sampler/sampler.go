// Package sampler plays one-shot drum samples through a beep mixer.
//
// Output starts suspended: samples can be loaded and Play reports whether a
// buffer exists, but nothing is heard until Unlock opens the speaker.
package sampler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/teslashibe/go-airdrums/pkg/audioio"
)

// Unlock states.
const (
	StateSuspended = "suspended"
	StateRunning   = "running"
	StateClosed    = "closed"
)

// resampleQuality is the beep resampler quality for loaded files.
const resampleQuality = 4

// Config configures the player.
type Config struct {
	SampleRate int           `yaml:"sample_rate" json:"sample_rate"`
	Buffer     time.Duration `yaml:"buffer" json:"buffer"`
	// Samples maps zone ids to WAV paths.
	Samples map[string]string `yaml:"samples" json:"samples"`
	// Synthesize fills zones without a file with a generated sound.
	Synthesize bool `yaml:"synthesize" json:"synthesize"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		Buffer:     50 * time.Millisecond,
		Samples:    map[string]string{},
		Synthesize: true,
	}
}

// speakerAPI is the part of the speaker package the player drives.
type speakerAPI interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
	Close()
}

type systemSpeaker struct{}

func (systemSpeaker) Init(sr beep.SampleRate, n int) error { return speaker.Init(sr, n) }
func (systemSpeaker) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (systemSpeaker) Lock() { speaker.Lock() }
func (systemSpeaker) Unlock() { speaker.Unlock() }
func (systemSpeaker) Close() { speaker.Close() }

// Player holds decoded sample buffers and the output mixer.
type Player struct {
	cfg     Config
	rate    beep.SampleRate
	format  beep.Format
	speaker speakerAPI
	logger  *slog.Logger

	mu      sync.Mutex
	buffers map[string]*beep.Buffer
	mixer   *beep.Mixer
	state   string
	plays   int64
}

// New creates a player. Nothing is opened until Unlock.
func New(cfg Config, logger *slog.Logger) *Player {
	return newPlayer(cfg, systemSpeaker{}, logger)
}

func newPlayer(cfg Config, spk speakerAPI, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultConfig().Buffer
	}
	rate := beep.SampleRate(cfg.SampleRate)
	return &Player{
		cfg:     cfg,
		rate:    rate,
		format:  beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2},
		speaker: spk,
		logger:  logger.With("component", "sampler"),
		buffers: make(map[string]*beep.Buffer),
		mixer:   &beep.Mixer{},
		state:   StateSuspended,
	}
}

// LoadConfigured loads every configured sample and, when enabled, generates
// sounds for the given ids that still lack one. Failures are joined and the
// remaining samples still load.
func (p *Player) LoadConfigured(ids []string) error {
	var errs []error
	paths := make([]string, 0, len(p.cfg.Samples))
	for id := range p.cfg.Samples {
		paths = append(paths, id)
	}
	sort.Strings(paths)
	for _, id := range paths {
		if err := p.Load(id, p.cfg.Samples[id]); err != nil {
			errs = append(errs, err)
		}
	}
	if p.cfg.Synthesize {
		for _, id := range ids {
			if !p.Has(id) {
				p.Store(id, Synthesize(id, p.cfg.SampleRate), p.cfg.SampleRate)
			}
		}
	}
	return errors.Join(errs...)
}

// Load decodes a WAV file and stores it under id.
func (p *Player) Load(id, path string) error {
	buf, err := audioio.ReadWAV(path)
	if err != nil {
		return fmt.Errorf("load sample %s: %w", id, err)
	}

	ch := buf.Format.NumChannels
	n := len(buf.Data) / ch
	frames := make([][2]float64, n)
	for i := 0; i < n; i++ {
		l := float64(buf.Data[i*ch])
		r := l
		if ch > 1 {
			r = float64(buf.Data[i*ch+1])
		}
		frames[i] = [2]float64{l, r}
	}

	p.Store(id, frames, buf.Format.SampleRate)
	p.logger.Info("sample loaded", "id", id, "path", path, "frames", n, "rate", buf.Format.SampleRate)
	return nil
}

// Store keeps stereo frames recorded at rate under id, resampling to the
// output rate if needed.
func (p *Player) Store(id string, frames [][2]float64, rate int) {
	var s beep.Streamer = &frameStreamer{frames: frames}
	if rate > 0 && beep.SampleRate(rate) != p.rate {
		s = beep.Resample(resampleQuality, beep.SampleRate(rate), p.rate, s)
	}
	b := beep.NewBuffer(p.format)
	b.Append(s)

	p.mu.Lock()
	p.buffers[id] = b
	p.mu.Unlock()
}

// Has reports whether a sample is loaded for id.
func (p *Player) Has(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.buffers[id]
	return ok
}

// IDs returns the loaded sample ids, sorted.
func (p *Player) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.buffers))
	for id := range p.buffers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Play starts the sample for id and reports whether a buffer existed. While
// suspended the call is accepted but silent.
func (p *Player) Play(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.buffers[id]
	if !ok {
		return false
	}
	p.plays++
	if p.state != StateRunning {
		return true
	}

	p.speaker.Lock()
	p.mixer.Add(b.Streamer(0, b.Len()))
	p.speaker.Unlock()
	return true
}

// Plays returns how many successful Play calls were made.
func (p *Player) Plays() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

// Unlock opens the speaker. It is a no-op once running.
func (p *Player) Unlock() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateRunning:
		return nil
	case StateClosed:
		return errors.New("sampler: player closed")
	}

	if err := p.speaker.Init(p.rate, p.rate.N(p.cfg.Buffer)); err != nil {
		return fmt.Errorf("sampler: open speaker: %w", err)
	}
	p.speaker.Play(p.mixer)
	p.state = StateRunning
	p.logger.Info("audio output unlocked", "rate", int(p.rate), "buffer", p.cfg.Buffer)
	return nil
}

// State returns suspended, running or closed.
func (p *Player) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close stops playback and releases the speaker.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateRunning {
		p.speaker.Lock()
		p.mixer.Clear()
		p.speaker.Unlock()
		p.speaker.Close()
	}
	p.state = StateClosed
	return nil
}

// frameStreamer streams a fixed slice of stereo frames once.
type frameStreamer struct {
	frames [][2]float64
	pos    int
}

func (s *frameStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n := copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *frameStreamer) Err() error { return nil }
