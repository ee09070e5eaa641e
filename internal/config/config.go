// Package config loads the go-airdrums configuration file and applies
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-airdrums/pkg/audioio"
	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/landmarks"
	"github.com/teslashibe/go-airdrums/pkg/sampler"
	"github.com/teslashibe/go-airdrums/pkg/web"
)

// Environment variables read by the commands.
const (
	EnvConfig       = "AIRDRUMS_CONFIG"
	EnvLogLevel     = "AIRDRUMS_LOG_LEVEL"
	EnvWebPort      = "AIRDRUMS_WEB_PORT"
	EnvAudioBackend = "AIRDRUMS_AUDIO_BACKEND"
)

// Web is the monitor section.
type Web struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	web.Config `yaml:",inline"`
}

// Landmarks is the hand tracker section. An empty URL leaves the tracker off.
type Landmarks struct {
	landmarks.Config `yaml:",inline"`
}

// Config is the whole configuration file.
type Config struct {
	LogLevel  string         `yaml:"log_level" json:"log_level"`
	Engine    engine.Config  `yaml:"engine" json:"engine"`
	Audio     audioio.Config `yaml:"audio" json:"audio"`
	Sampler   sampler.Config `yaml:"sampler" json:"sampler"`
	Web       Web            `yaml:"web" json:"web"`
	Landmarks Landmarks      `yaml:"landmarks" json:"landmarks"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		Engine:    engine.DefaultConfig(),
		Audio:     audioio.DefaultConfig(),
		Sampler:   sampler.DefaultConfig(),
		Web:       Web{Enabled: true, Config: web.DefaultConfig()},
		Landmarks: Landmarks{Config: landmarks.DefaultConfig()},
	}
}

// Validate checks every section that is switched on.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if c.Sampler.SampleRate <= 0 {
		return fmt.Errorf("sampler: sample_rate must be positive, got %d", c.Sampler.SampleRate)
	}
	if c.Web.Enabled {
		if err := c.Web.Config.Validate(); err != nil {
			return err
		}
	}
	if c.Landmarks.URL != "" {
		if err := c.Landmarks.Config.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads YAML over the defaults. Unknown keys are an error.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Load reads path (defaults only when empty), applies environment overrides
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		cfg, err = Decode(bytes.NewReader(data))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func ApplyEnv(cfg *Config) {
	cfg.LogLevel = LogLevel(cfg.LogLevel)
	cfg.Web.Port = WebPort(cfg.Web.Port)
	cfg.Audio.Backend = audioio.Backend(AudioBackend(string(cfg.Audio.Backend)))
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Path returns the config file path from AIRDRUMS_CONFIG.
// Falls back to the provided default if not set.
func Path(defaultPath string) string {
	return envOr(EnvConfig, defaultPath)
}

// LogLevel returns the level from AIRDRUMS_LOG_LEVEL or the default.
func LogLevel(defaultLevel string) string {
	return envOr(EnvLogLevel, defaultLevel)
}

// WebPort returns the monitor port from AIRDRUMS_WEB_PORT or the default.
func WebPort(defaultPort string) string {
	return envOr(EnvWebPort, defaultPort)
}

// AudioBackend returns the capture backend from AIRDRUMS_AUDIO_BACKEND or the
// default.
func AudioBackend(defaultBackend string) string {
	return envOr(EnvAudioBackend, defaultBackend)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
