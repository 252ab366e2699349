package dbushelper

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(dbus.Error{Name: "org.freedesktop.DBus.Error.NoReply"}))
	assert.True(t, IsTimeout(dbus.Error{Name: "org.freedesktop.DBus.Error.Timeout"}))
	assert.True(t, IsTimeout(dbus.Error{Name: "org.freedesktop.DBus.Error.TimedOut"}))
	assert.True(t, IsTimeout(errors.New("read tcp: i/o timeout")))

	assert.False(t, IsTimeout(dbus.Error{Name: "org.bluez.Error.Failed", Body: []any{"Failed"}}))
	assert.False(t, IsTimeout(errors.New("connection refused")))
}

func TestIsUnknownObject(t *testing.T) {
	assert.True(t, IsUnknownObject(dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownObject"}))
	assert.True(t, IsUnknownObject(dbus.Error{Name: "org.bluez.Error.DoesNotExist"}))

	assert.False(t, IsUnknownObject(dbus.Error{Name: "org.bluez.Error.Failed"}))
	assert.False(t, IsUnknownObject(errors.New("object gone")))
}
