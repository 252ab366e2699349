package bluez

import (
	"context"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	dbh "github.com/darkhz/bluestream/bluez/internal/dbushelper"
	"github.com/godbus/dbus/v5"
)

// ObjectSnapshot is a point-in-time view of the daemon's managed object
// tree. Snapshots are always taken fresh; device and endpoint objects
// appear and disappear asynchronously, so a cached tree is the primary
// staleness hazard.
type ObjectSnapshot map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// ManagedObjects takes a fresh snapshot of the daemon's object tree.
func (s *Session) ManagedObjects() (ObjectSnapshot, error) {
	objects := make(ObjectSnapshot)

	if err := s.call.Call("/", dbh.DbusObjectManagerIface).
		Store(&objects); err != nil {
		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "objects-snapshot"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot enumerate the managed object tree"),
		)
	}

	return objects, nil
}

// DevicePath resolves a device address to its object path from a fresh
// snapshot of the object tree.
func (s *Session) DevicePath(address bluetooth.MacAddress) (dbus.ObjectPath, error) {
	objects, err := s.ManagedObjects()
	if err != nil {
		return "", err
	}

	path, ok := objects.DevicePath(address)
	if !ok {
		return "", fault.Wrap(errorkinds.ErrDeviceNotFound,
			fctx.With(context.Background(),
				"error_at", "objects-device-path",
				"address", address.String(),
			),
			ftag.With(ftag.NotFound),
			fmsg.With("Device does not exist in the object tree"),
		)
	}

	return path, nil
}

// DeviceProperty reads a single property from the device interface of the
// object at the given path.
func (s *Session) DeviceProperty(path dbus.ObjectPath, key string) (dbus.Variant, error) {
	var result dbus.Variant

	if err := s.call.Call(path, dbh.DbusGetPropertiesIface, dbh.BluezDeviceIface, key).
		Store(&result); err != nil {
		return result, fault.Wrap(err,
			fctx.With(context.Background(),
				"error_at", "objects-device-property",
				"path", string(path),
				"property", key,
			),
			ftag.With(ftag.NotFound),
			fmsg.With("Cannot read device property"),
		)
	}

	return result, nil
}

// SetDeviceProperty sets a property on the device interface of the object
// at the given path.
func (s *Session) SetDeviceProperty(path dbus.ObjectPath, key string, value any) error {
	if err := s.call.Call(path, dbh.DbusSetPropertiesIface, dbh.BluezDeviceIface, key, dbus.MakeVariant(value)).
		Store(); err != nil {
		return fault.Wrap(err,
			fctx.With(context.Background(),
				"error_at", "objects-device-setproperty",
				"path", string(path),
				"property", key,
			),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot set device property"),
		)
	}

	return nil
}

// deviceBoolProperty reads a boolean device property for an address,
// resolving the device path from a fresh snapshot.
func (s *Session) deviceBoolProperty(address bluetooth.MacAddress, key string) (bool, error) {
	path, err := s.DevicePath(address)
	if err != nil {
		return false, err
	}

	variant, err := s.DeviceProperty(path, key)
	if err != nil {
		return false, err
	}

	value, ok := variant.Value().(bool)
	if !ok {
		return false, fault.Wrap(errorkinds.ErrPropertyDataParse,
			fctx.With(context.Background(),
				"error_at", "objects-device-boolproperty",
				"address", address.String(),
				"property", key,
			),
			ftag.With(ftag.Internal),
			fmsg.With("Device property has an unexpected type"),
		)
	}

	return value, nil
}

// DevicePath finds the object path of the device with the given address.
// The address match is case-insensitive and separator-normalized; the
// path suffix (dev_XX_XX_...) is matched when the Address property is
// absent from the snapshot.
func (o ObjectSnapshot) DevicePath(address bluetooth.MacAddress) (dbus.ObjectPath, bool) {
	for path, ifaces := range o {
		device, ok := ifaces[dbh.BluezDeviceIface]
		if !ok {
			continue
		}

		if addr, ok := device["Address"].Value().(string); ok {
			parsed, err := bluetooth.ParseMAC(addr)
			if err == nil && parsed == address {
				return path, true
			}

			continue
		}

		if address.MatchesFuzzy(string(path)) {
			return path, true
		}
	}

	return "", false
}

// Devices decodes every device object in the snapshot.
func (o ObjectSnapshot) Devices() []bluetooth.DeviceData {
	var devices []bluetooth.DeviceData

	for _, ifaces := range o {
		values, ok := ifaces[dbh.BluezDeviceIface]
		if !ok {
			continue
		}

		var device bluetooth.DeviceData

		if err := dbh.DecodeVariantMap(values, &device, "Address"); err != nil {
			continue
		}

		device.Type = bluetooth.DeviceTypeFromClass(device.Class)

		devices = append(devices, device)
	}

	return devices
}

// AdapterPath finds the object path of the adapter whose path ends with
// the given controller name (such as "hci0"). An empty controller name
// selects the first adapter found.
func (o ObjectSnapshot) AdapterPath(controller string) (dbus.ObjectPath, bool) {
	for path, ifaces := range o {
		if _, ok := ifaces[dbh.BluezAdapterIface]; !ok {
			continue
		}

		if controller == "" || strings.HasSuffix(string(path), "/"+controller) {
			return path, true
		}
	}

	return "", false
}
