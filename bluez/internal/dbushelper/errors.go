package dbushelper

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
)

// IsTimeout reports whether the error is a transport-layer timeout from
// the bus, as opposed to a definitive method failure.
func IsTimeout(err error) bool {
	var dbusErr dbus.Error

	if errors.As(err, &dbusErr) {
		for _, name := range timeoutErrorNames {
			if dbusErr.Name == name {
				return true
			}
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// IsUnknownObject reports whether the error indicates that the addressed
// object no longer exists on the bus.
func IsUnknownObject(err error) bool {
	var dbusErr dbus.Error

	if errors.As(err, &dbusErr) {
		for _, name := range unknownObjectErrorNames {
			if dbusErr.Name == name {
				return true
			}
		}
	}

	return false
}
