package bluez

import (
	"context"
	"testing"
	"time"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	dbh "github.com/darkhz/bluestream/bluez/internal/dbushelper"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDevicePath = dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")

// fakeBus serves a fixed object tree snapshot, configurable per-method
// errors and property values.
type fakeBus struct {
	snapshot map[dbus.ObjectPath]map[string]map[string]dbus.Variant

	methodErrs map[string]error
	props      map[string]dbus.Variant

	calls []string
}

func (f *fakeBus) Call(_ dbus.ObjectPath, method string, args ...any) *dbus.Call {
	f.calls = append(f.calls, method)

	switch method {
	case dbh.DbusObjectManagerIface:
		return &dbus.Call{Body: []any{f.snapshot}}

	case dbh.DbusGetPropertiesIface:
		key := args[1].(string)
		if value, ok := f.props[key]; ok {
			return &dbus.Call{Body: []any{value}}
		}

		return &dbus.Call{Err: dbus.Error{Name: "org.freedesktop.DBus.Error.InvalidArgs"}}

	default:
		if err, ok := f.methodErrs[method]; ok {
			return &dbus.Call{Err: err}
		}

		return &dbus.Call{}
	}
}

func (f *fakeBus) callCount(method string) int {
	var count int

	for _, call := range f.calls {
		if call == method {
			count++
		}
	}

	return count
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		snapshot: map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
			testDevicePath: {
				dbh.BluezDeviceIface: {
					"Address": dbus.MakeVariant("AA:BB:CC:DD:EE:FF"),
				},
			},
		},
		methodErrs: make(map[string]error),
		props:      make(map[string]dbus.Variant),
	}
}

func newTestSession(bus *fakeBus) *Session {
	return &Session{
		call:        bus,
		log:         zap.NewNop().Sugar(),
		settleDelay: time.Millisecond,
	}
}

func deviceAddress(t *testing.T) bluetooth.MacAddress {
	t.Helper()

	address, err := bluetooth.ParseMAC("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)

	return address
}

func TestPairTimeoutThenPairedSucceeds(t *testing.T) {
	bus := newFakeBus()
	bus.methodErrs[dbh.BluezDeviceIface+".Pair"] = dbus.Error{Name: "org.freedesktop.DBus.Error.NoReply"}
	bus.props["Paired"] = dbus.MakeVariant(true)

	err := newTestSession(bus).Pair(context.Background(), deviceAddress(t))

	require.NoError(t, err, "a timed-out Pair reply with Paired confirmed must report success")
	assert.Equal(t, 1, bus.callCount(dbh.DbusGetPropertiesIface))
}

func TestPairTimeoutThenUnpairedFails(t *testing.T) {
	bus := newFakeBus()
	bus.methodErrs[dbh.BluezDeviceIface+".Pair"] = dbus.Error{Name: "org.freedesktop.DBus.Error.NoReply"}
	bus.props["Paired"] = dbus.MakeVariant(false)

	err := newTestSession(bus).Pair(context.Background(), deviceAddress(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, errorkinds.ErrMethodTimeout)
}

func TestPairHardFailureSkipsPoll(t *testing.T) {
	bus := newFakeBus()
	bus.methodErrs[dbh.BluezDeviceIface+".Pair"] = dbus.Error{
		Name: "org.bluez.Error.AuthenticationFailed",
		Body: []any{"Authentication Failed"},
	}

	err := newTestSession(bus).Pair(context.Background(), deviceAddress(t))

	require.Error(t, err)
	assert.Zero(t, bus.callCount(dbh.DbusGetPropertiesIface),
		"a definitive method failure must not be retried via property poll")
}

func TestConnectConfirmedByProperty(t *testing.T) {
	bus := newFakeBus()
	bus.props["Connected"] = dbus.MakeVariant(true)

	err := newTestSession(bus).Connect(context.Background(), deviceAddress(t))

	require.NoError(t, err)
	assert.Equal(t, 1, bus.callCount(dbh.DbusGetPropertiesIface))
}

func TestConnectMethodSuccessPropertyFalseFails(t *testing.T) {
	bus := newFakeBus()
	bus.props["Connected"] = dbus.MakeVariant(false)

	err := newTestSession(bus).Connect(context.Background(), deviceAddress(t))

	require.Error(t, err, "a Connect reply without error is not a connection; the property is the authority")
	assert.ErrorIs(t, err, errorkinds.ErrNotConnected)
}

func TestConnectTimeoutThenConnectedSucceeds(t *testing.T) {
	bus := newFakeBus()
	bus.methodErrs[dbh.BluezDeviceIface+".Connect"] = dbus.Error{Name: "org.freedesktop.DBus.Error.Timeout"}
	bus.props["Connected"] = dbus.MakeVariant(true)

	err := newTestSession(bus).Connect(context.Background(), deviceAddress(t))

	assert.NoError(t, err)
}

func TestDisconnectAlreadyDisconnected(t *testing.T) {
	bus := newFakeBus()
	bus.props["Connected"] = dbus.MakeVariant(false)

	err := newTestSession(bus).Disconnect(deviceAddress(t))

	require.NoError(t, err)
	assert.Zero(t, bus.callCount(dbh.BluezDeviceIface+".Disconnect"))
}

func TestRemoveUnknownDevice(t *testing.T) {
	bus := newFakeBus()
	bus.snapshot = map[dbus.ObjectPath]map[string]map[string]dbus.Variant{}

	err := newTestSession(bus).Remove(deviceAddress(t))

	assert.NoError(t, err, "removing a device absent from the object tree counts as removed")
}
