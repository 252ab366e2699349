// Package session reconciles the loosely synchronized state spaces of a
// Bluetooth audio device — the daemon's per-device connection state, the
// audio server's late-appearing sink, the media control endpoint and the
// local playback subprocess — into one session object per address.
package session

import (
	"sync"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/audio"
	"go.uber.org/atomic"
)

// Need names an endpoint a gated operation depends on.
type Need int

// The endpoints an operation can require.
const (
	NeedSink Need = iota
	NeedMediaControl
)

// String returns the endpoint name.
func (n Need) String() string {
	if n == NeedSink {
		return "sink"
	}

	return "media-control"
}

// endpointRef is a resolved endpoint stamped with the connection epoch
// it was resolved under. A reference from a stale epoch must never be
// used to issue a command; it is invalid and triggers re-resolution.
type endpointRef[T any] struct {
	value T
	epoch uint64
	valid bool
}

// current reports whether the reference is usable under the given epoch.
func (e *endpointRef[T]) current(epoch uint64) bool {
	return e.valid && e.epoch == epoch
}

// set stores a resolved value under the given epoch.
func (e *endpointRef[T]) set(value T, epoch uint64) {
	e.value = value
	e.epoch = epoch
	e.valid = true
}

// clear invalidates the reference.
func (e *endpointRef[T]) clear() {
	var zero T

	e.value = zero
	e.valid = false
}

// StreamHandle is a handle to a running playback subprocess.
type StreamHandle interface {
	Running() bool
	Path() string
}

// Session tracks the reconciled state for one device address. Sessions
// are created on first interaction and live until the device is removed
// or the process exits; they are never persisted.
type Session struct {
	// Address is the device address the session is keyed by.
	Address bluetooth.MacAddress

	// mu serializes all state transitions for this address. Sessions
	// for different addresses are fully independent.
	mu sync.Mutex

	// epoch counts connection attempts. It is bumped on every connect
	// attempt and on every transition out of the connected state,
	// which invalidates all endpoint references resolved before it.
	epoch atomic.Uint64

	sink    endpointRef[audio.Sink]
	control endpointRef[MediaController]

	stream StreamHandle
}

// newSession returns a session for the given address.
func newSession(address bluetooth.MacAddress) *Session {
	return &Session{Address: address}
}

// invalidateEndpoints bumps the epoch and clears both endpoint
// references. Called on any transition out of the connected state and
// on every new connection attempt.
func (s *Session) invalidateEndpoints() {
	s.epoch.Inc()
	s.sink.clear()
	s.control.clear()
}

// Epoch returns the session's current connection epoch.
func (s *Session) Epoch() uint64 {
	return s.epoch.Load()
}
