package spectrum

import "fmt"

// PermissionError reports that the capture source refused access.
// The analyzer stays uninitialized and keeps producing zero input.
type PermissionError struct {
	Err error
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	return fmt.Sprintf("spectrum: microphone permission denied: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *PermissionError) Unwrap() error {
	return e.Err
}

// UnsupportedError reports that no capture backend is available.
type UnsupportedError struct {
	Err error
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("spectrum: microphone input not supported: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *UnsupportedError) Unwrap() error {
	return e.Err
}
