package bluez

import (
	"testing"

	"github.com/darkhz/bluestream/api/bluetooth"
	dbh "github.com/darkhz/bluestream/bluez/internal/dbushelper"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotAddress(t *testing.T) bluetooth.MacAddress {
	t.Helper()

	address, err := bluetooth.ParseMAC("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)

	return address
}

func TestSnapshotDevicePath(t *testing.T) {
	address := snapshotAddress(t)

	snapshot := ObjectSnapshot{
		"/org/bluez/hci0": {
			dbh.BluezAdapterIface: {},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF": {
			dbh.BluezDeviceIface: {
				"Address": dbus.MakeVariant("AA:BB:CC:DD:EE:FF"),
			},
		},
		"/org/bluez/hci0/dev_11_22_33_44_55_66": {
			dbh.BluezDeviceIface: {
				"Address": dbus.MakeVariant("11:22:33:44:55:66"),
			},
		},
	}

	path, ok := snapshot.DevicePath(address)

	require.True(t, ok)
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"), path)
}

func TestSnapshotDevicePathFuzzyFallback(t *testing.T) {
	address := snapshotAddress(t)

	// No Address property in the snapshot; only the path encodes it.
	snapshot := ObjectSnapshot{
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF": {
			dbh.BluezDeviceIface: {},
		},
	}

	path, ok := snapshot.DevicePath(address)

	require.True(t, ok)
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"), path)
}

func TestSnapshotDevicePathAbsent(t *testing.T) {
	address := snapshotAddress(t)

	snapshot := ObjectSnapshot{
		"/org/bluez/hci0": {
			dbh.BluezAdapterIface: {},
		},
	}

	_, ok := snapshot.DevicePath(address)

	assert.False(t, ok)
}

func TestSnapshotAdapterPath(t *testing.T) {
	snapshot := ObjectSnapshot{
		"/org/bluez/hci0": {
			dbh.BluezAdapterIface: {},
		},
		"/org/bluez/hci1": {
			dbh.BluezAdapterIface: {},
		},
	}

	path, ok := snapshot.AdapterPath("hci1")
	require.True(t, ok)
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci1"), path)

	_, ok = snapshot.AdapterPath("hci2")
	assert.False(t, ok)

	_, ok = snapshot.AdapterPath("")
	assert.True(t, ok)
}

func TestSnapshotDevices(t *testing.T) {
	snapshot := ObjectSnapshot{
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF": {
			dbh.BluezDeviceIface: {
				"Address":   dbus.MakeVariant("AA:BB:CC:DD:EE:FF"),
				"Name":      dbus.MakeVariant("Speaker"),
				"Class":     dbus.MakeVariant(uint32(0x240414)),
				"Connected": dbus.MakeVariant(true),
				"Paired":    dbus.MakeVariant(true),
			},
		},
		"/org/bluez/hci0": {
			dbh.BluezAdapterIface: {},
		},
	}

	devices := snapshot.Devices()

	require.Len(t, devices, 1)
	assert.Equal(t, "Speaker", devices[0].Name)
	assert.Equal(t, "Speakers", devices[0].Type)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", devices[0].Address.String())
	assert.True(t, devices[0].Connected)
	assert.True(t, devices[0].Paired)
}

func TestSnapshotMediaControlPath(t *testing.T) {
	address := snapshotAddress(t)

	snapshot := ObjectSnapshot{
		"/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF": {
			dbh.BluezMediaControlIface: {},
		},
		"/org/bluez/hci0/dev_11_22_33_44_55_66": {
			dbh.BluezMediaControlIface: {},
		},
	}

	_, ok := snapshot.MediaControlPath(address, "hci0")
	assert.False(t, ok, "an endpoint under another controller must not match")

	path, ok := snapshot.MediaControlPath(address, "hci1")
	require.True(t, ok)
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF"), path)

	path, ok = snapshot.MediaControlPath(address, "")
	require.True(t, ok)
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF"), path)
}

func TestMediaControlPathMatches(t *testing.T) {
	address := snapshotAddress(t)

	assert.True(t, MediaControlPathMatches("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF", address, "hci0"))
	assert.True(t, MediaControlPathMatches("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF", address, ""))
	assert.False(t, MediaControlPathMatches("/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF", address, "hci0"))
	assert.False(t, MediaControlPathMatches("/org/bluez/hci0/dev_11_22_33_44_55_66", address, "hci0"))
}
