package audioio

import "errors"

var (
	// ErrPermissionDenied is returned when the capture device or endpoint
	// refuses access.
	ErrPermissionDenied = errors.New("audioio: capture permission denied")

	// ErrUnsupported is returned when no capture backend is available.
	ErrUnsupported = errors.New("audioio: audio capture not supported")

	// ErrClosed is returned when starting a source after Close.
	ErrClosed = errors.New("audioio: source closed")
)
