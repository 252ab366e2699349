package bluez

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	dbh "github.com/darkhz/bluestream/bluez/internal/dbushelper"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

// Pair attempts to pair with the device that has the given address.
//
// BlueZ frequently reports pairing completion after the method call has
// already timed out on the bus. A timeout-class error is therefore not
// treated as a failure directly; the Paired property is polled once after
// a settle delay and decides the outcome.
func (s *Session) Pair(ctx context.Context, address bluetooth.MacAddress) error {
	path, err := s.DevicePath(address)
	if err != nil {
		return err
	}

	if err := s.callDevice(path, "Pair").Store(); err != nil {
		if !dbh.IsTimeout(err) {
			return wrapMethodError(err, "device-pair", address.String(), "Cannot pair with device")
		}

		s.log.Debugw("Pair method timed out, polling Paired property", "address", address.String())

		if serr := s.settle(ctx); serr != nil {
			return serr
		}

		paired, perr := s.Paired(address)
		if perr != nil || !paired {
			return wrapMethodError(err, "device-pair-poll", address.String(), "Cannot pair with device")
		}
	}

	return nil
}

// Connect attempts to connect the paired device that has the given
// address.
//
// A Connect call returning without error does not guarantee that the
// device is connected; the Connected property is the authority and is
// polled after a settle delay. Success is reported only when the
// property confirms the connection.
func (s *Session) Connect(ctx context.Context, address bluetooth.MacAddress) error {
	path, err := s.DevicePath(address)
	if err != nil {
		return err
	}

	if err := s.callDevice(path, "Connect").Store(); err != nil && !dbh.IsTimeout(err) {
		return wrapMethodError(err, "device-connect", address.String(), "Cannot connect to device")
	}

	if err := s.settle(ctx); err != nil {
		return err
	}

	connected, err := s.Connected(address)
	if err != nil {
		return err
	}

	if !connected {
		return fault.Wrap(errorkinds.ErrNotConnected,
			fctx.With(ctx,
				"error_at", "device-connect-poll",
				"address", address.String(),
			),
			ftag.With(ftag.Internal),
			fmsg.With("Device did not report as connected"),
		)
	}

	return nil
}

// ConnectProfile connects the device using a specific Bluetooth profile UUID.
func (s *Session) ConnectProfile(address bluetooth.MacAddress, profileUUID uuid.UUID) error {
	path, err := s.DevicePath(address)
	if err != nil {
		return err
	}

	if err := s.callDevice(path, "ConnectProfile", profileUUID.String()).Store(); err != nil {
		return wrapMethodError(err, "device-connect-profile", address.String(),
			"Cannot connect to device with profile")
	}

	return nil
}

// Disconnect disconnects the device from the adapter. Disconnecting an
// already disconnected device is a no-op and reports success.
func (s *Session) Disconnect(address bluetooth.MacAddress) error {
	path, err := s.DevicePath(address)
	if err != nil {
		return err
	}

	connected, err := s.Connected(address)
	if err != nil {
		return err
	}

	if !connected {
		s.log.Debugw("Device already disconnected", "address", address.String())
		return nil
	}

	if err := s.callDevice(path, "Disconnect").Store(); err != nil {
		return wrapMethodError(err, "device-disconnect", address.String(), "Cannot disconnect from device")
	}

	return nil
}

// Remove removes the device from its adapter's registry. A device that
// is already absent from the object tree counts as removed.
func (s *Session) Remove(address bluetooth.MacAddress) error {
	path, err := s.DevicePath(address)
	if err != nil {
		if errors.Is(err, errorkinds.ErrDeviceNotFound) {
			s.log.Debugw("Device already removed", "address", address.String())
			return nil
		}

		return err
	}

	adapterPath := dbus.ObjectPath(filepath.Dir(string(path)))

	if err := s.callAdapter(adapterPath, "RemoveDevice", path).Store(); err != nil {
		if dbh.IsUnknownObject(err) {
			return nil
		}

		return wrapMethodError(err, "device-remove", address.String(), "Cannot remove device")
	}

	return nil
}

// Connected reports the device's Connected property from a fresh snapshot.
func (s *Session) Connected(address bluetooth.MacAddress) (bool, error) {
	return s.deviceBoolProperty(address, "Connected")
}

// Paired reports the device's Paired property from a fresh snapshot.
func (s *Session) Paired(address bluetooth.MacAddress) (bool, error) {
	return s.deviceBoolProperty(address, "Paired")
}

// SetTrusted sets the device 'trust' status within its associated adapter.
func (s *Session) SetTrusted(address bluetooth.MacAddress, enable bool) error {
	path, err := s.DevicePath(address)
	if err != nil {
		return err
	}

	return s.SetDeviceProperty(path, "Trusted", enable)
}

// SetBlocked sets the device 'blocked' status within its associated adapter.
func (s *Session) SetBlocked(address bluetooth.MacAddress, enable bool) error {
	path, err := s.DevicePath(address)
	if err != nil {
		return err
	}

	return s.SetDeviceProperty(path, "Blocked", enable)
}

// Devices returns all devices known to the daemon.
func (s *Session) Devices() ([]bluetooth.DeviceData, error) {
	objects, err := s.ManagedObjects()
	if err != nil {
		return nil, err
	}

	return objects.Devices(), nil
}

// ConnectedDevicesByService returns the connected devices that advertise
// the given service class, such as an A2DP source or sink.
func (s *Session) ConnectedDevicesByService(service uint32) ([]bluetooth.DeviceData, error) {
	devices, err := s.Devices()
	if err != nil {
		return nil, err
	}

	var matched []bluetooth.DeviceData

	for _, device := range devices {
		if device.Connected && device.HaveService(service) {
			matched = append(matched, device)
		}
	}

	return matched, nil
}

// callDevice is used to interact with the bluez Device dbus interface.
// https://git.kernel.org/pub/scm/bluetooth/bluez.git/tree/doc/device-api.txt
func (s *Session) callDevice(path dbus.ObjectPath, method string, args ...any) *dbus.Call {
	return s.call.Call(path, dbh.BluezDeviceIface+"."+method, args...)
}
