package bluez

import (
	"context"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	dbh "github.com/darkhz/bluestream/bluez/internal/dbushelper"
	"github.com/godbus/dbus/v5"
)

// AdapterPath resolves the object path of the managed adapter. The
// controller name (such as "hci0") may be empty, in which case the first
// adapter in the object tree is used.
func (s *Session) AdapterPath(controller string) (dbus.ObjectPath, error) {
	objects, err := s.ManagedObjects()
	if err != nil {
		return "", err
	}

	path, ok := objects.AdapterPath(controller)
	if !ok {
		return "", fault.Wrap(errorkinds.ErrAdapterNotFound,
			fctx.With(context.Background(),
				"error_at", "adapter-path",
				"controller", controller,
			),
			ftag.With(ftag.NotFound),
			fmsg.With("Adapter does not exist"),
		)
	}

	return path, nil
}

// Discover puts the adapter into discovering mode for the given duration,
// stops the scan and returns the devices present in the object tree
// afterwards. The timeout bounds the scan, it does not guarantee
// completeness; devices may still be registered after the scan stops.
func (s *Session) Discover(ctx context.Context, controller string, timeout time.Duration) ([]bluetooth.DeviceData, error) {
	adapterPath, err := s.AdapterPath(controller)
	if err != nil {
		return nil, err
	}

	if err := s.callAdapter(adapterPath, "StartDiscovery").Store(); err != nil {
		return nil, fault.Wrap(err,
			fctx.With(ctx, "error_at", "adapter-start-discovery"),
			ftag.With(ftag.Internal),
			fmsg.With("An error occurred while starting device discovery"),
		)
	}

	s.log.Infow("Discovery started", "controller", string(adapterPath), "timeout", timeout)

	select {
	case <-time.After(timeout):

	case <-ctx.Done():
	}

	if err := s.callAdapter(adapterPath, "StopDiscovery").Store(); err != nil {
		return nil, fault.Wrap(err,
			fctx.With(ctx, "error_at", "adapter-stop-discovery"),
			ftag.With(ftag.Internal),
			fmsg.With("An error occurred while stopping device discovery"),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, fault.Wrap(err,
			fctx.With(ctx, "error_at", "adapter-discovery-cancel"),
			ftag.With(ftag.Cancelled),
			fmsg.With("Discovery was cancelled"),
		)
	}

	objects, err := s.ManagedObjects()
	if err != nil {
		return nil, err
	}

	return objects.Devices(), nil
}

// SetAdapterState sets a boolean adapter property, such as "Powered",
// "Discoverable" or "Pairable".
func (s *Session) SetAdapterState(controller, key string, enable bool) error {
	adapterPath, err := s.AdapterPath(controller)
	if err != nil {
		return err
	}

	if err := s.call.Call(adapterPath, dbh.DbusSetPropertiesIface, dbh.BluezAdapterIface, key, dbus.MakeVariant(enable)).
		Store(); err != nil {
		return fault.Wrap(err,
			fctx.With(context.Background(),
				"error_at", "adapter-set-state",
				"property", key,
			),
			ftag.With(ftag.Internal),
			fmsg.With("An error occurred on setting the adapter state"),
		)
	}

	return nil
}

// callAdapter is used to interact with the bluez Adapter dbus interface.
// https://git.kernel.org/pub/scm/bluetooth/bluez.git/tree/doc/adapter-api.txt
func (s *Session) callAdapter(path dbus.ObjectPath, method string, args ...any) *dbus.Call {
	return s.call.Call(path, dbh.BluezAdapterIface+"."+method, args...)
}
