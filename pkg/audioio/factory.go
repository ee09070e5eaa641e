package audioio

import (
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
)

// NewSource creates a new audio source with the given configuration.
// If cfg.Backend is BackendAuto, the backend is chosen from cfg.Device.
// It returns an error wrapping ErrUnsupported when no backend can capture.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = detectBackend(cfg.Device)
		cfg.Backend = backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("creating audio source",
		"backend", backend,
		"device", cfg.Device,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"buffer_ms", cfg.BufferDuration.Milliseconds(),
	)

	switch backend {
	case BackendPulse:
		return NewPulseSource(cfg, logger), nil
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendFile:
		return NewFileSource(cfg, logger), nil
	case BackendRTP:
		return NewRTPSource(cfg, logger), nil
	case "":
		return nil, fmt.Errorf("%w: no capture device configured", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: backend %q (available: %v)", ErrUnsupported, backend, AvailableBackends())
	}
}

// detectBackend picks a backend for a device string, or "" when none fits.
func detectBackend(device string) Backend {
	device = strings.TrimSpace(device)
	if device == "" {
		return ""
	}
	if device == "pulse" || strings.HasPrefix(device, "pulse:") {
		return BackendPulse
	}
	if strings.EqualFold(filepath.Ext(device), ".wav") {
		return BackendFile
	}
	if _, _, err := net.SplitHostPort(device); err == nil {
		return BackendRTP
	}
	return ""
}

// AvailableBackends returns the backends this build can construct.
func AvailableBackends() []Backend {
	return []Backend{BackendPulse, BackendFile, BackendRTP, BackendMock}
}
