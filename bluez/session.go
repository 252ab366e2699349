// Package bluez interfaces with the BlueZ daemon over the DBus system bus.
// It provides the managed-object snapshot layer and the per-device
// lifecycle operations (pairing, connection, removal).
package bluez

import (
	"context"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/errorkinds"
	dbh "github.com/darkhz/bluestream/bluez/internal/dbushelper"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	// DefaultSettleDelay is the delay before a property is polled to
	// confirm the outcome of a pair or connect method call. BlueZ
	// reports both late; a method call returning without error does
	// not guarantee the property has flipped.
	DefaultSettleDelay = 2 * time.Second
)

// ObjectCaller invokes a method on one of the daemon's objects. The
// lifecycle methods are written against this seam rather than the bus
// connection, so their settle-and-poll behavior can be exercised without
// a system bus.
type ObjectCaller interface {
	Call(path dbus.ObjectPath, method string, args ...any) *dbus.Call
}

// busObject is the ObjectCaller backed by the system bus connection.
type busObject struct {
	conn *dbus.Conn
}

func (b busObject) Call(path dbus.ObjectPath, method string, args ...any) *dbus.Call {
	return b.conn.Object(dbh.BluezBusName, path).Call(method, 0, args...)
}

// Session describes a connection to the BlueZ daemon on the system bus.
type Session struct {
	bus  *dbus.Conn
	call ObjectCaller
	log  *zap.SugaredLogger

	settleDelay time.Duration
}

// NewSession connects to the system bus and returns a BlueZ session.
func NewSession(logger *zap.SugaredLogger) (*Session, error) {
	bus, err := dbus.SystemBus()
	if err != nil {
		return nil, fault.Wrap(errorkinds.ErrSessionStart,
			fctx.With(context.Background(),
				"error_at", "session-systembus",
				"cause", err.Error(),
			),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot initialize system DBus"),
		)
	}

	return &Session{
		bus:         bus,
		call:        busObject{conn: bus},
		log:         logger.Named("bluez"),
		settleDelay: DefaultSettleDelay,
	}, nil
}

// Close closes the system bus connection.
func (s *Session) Close() error {
	if err := s.bus.Close(); err != nil {
		return fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "session-close"),
			ftag.With(ftag.Internal),
			fmsg.With("Error while closing system bus"),
		)
	}

	return nil
}

// SetSettleDelay overrides the delay used for post-method property polls.
func (s *Session) SetSettleDelay(delay time.Duration) {
	s.settleDelay = delay
}

// settle suspends for the configured settle delay, honoring cancellation.
func (s *Session) settle(ctx context.Context) error {
	select {
	case <-time.After(s.settleDelay):
		return nil

	case <-ctx.Done():
		return fault.Wrap(ctx.Err(),
			fctx.With(ctx, "error_at", "session-settle"),
			ftag.With(ftag.Cancelled),
			fmsg.With("Cancelled while waiting for the daemon to settle"),
		)
	}
}

// wrapMethodError classifies and wraps a device method call error.
func wrapMethodError(err error, at, address, message string) error {
	kind := ftag.Internal
	wrapped := err

	switch {
	case dbh.IsTimeout(err):
		kind = ftag.Kind("timeout")
		wrapped = errorkinds.ErrMethodTimeout

	case dbh.IsUnknownObject(err):
		kind = ftag.NotFound
		wrapped = errorkinds.ErrDeviceNotFound
	}

	return fault.Wrap(wrapped,
		fctx.With(context.Background(),
			"error_at", at,
			"address", address,
			"cause", err.Error(),
		),
		ftag.With(kind),
		fmsg.With(message),
	)
}
