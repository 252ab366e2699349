// Package errorkinds enumerates the sentinel error values that are wrapped
// and returned across the session, lifecycle and resolver layers.
package errorkinds

import "errors"

// The different general error types.
var (
	ErrSessionStart  = errors.New("cannot start session")
	ErrMethodTimeout = errors.New("timeout on method response")

	ErrInvalidAddress  = errors.New("invalid Bluetooth address")
	ErrAdapterNotFound = errors.New("adapter not found")
	ErrDeviceNotFound  = errors.New("device not found")

	ErrEndpointNotReady = errors.New("endpoint is not ready")
	ErrNotConnected     = errors.New("device is not connected")
	ErrStaleEndpoint    = errors.New("endpoint reference is stale")

	ErrInvalidCommand = errors.New("invalid media control command")

	ErrSubprocess   = errors.New("subprocess failure")
	ErrConvertMedia = errors.New("cannot convert media file")
	ErrStreamActive = errors.New("a stream is already active")

	ErrPropertyDataParse = errors.New("error parsing property data")
)
