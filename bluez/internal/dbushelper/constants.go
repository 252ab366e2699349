package dbushelper

// The DBus specific bus and property names.
const (
	DbusGetPropertiesIface    = "org.freedesktop.DBus.Properties.Get"
	DbusGetAllPropertiesIface = "org.freedesktop.DBus.Properties.GetAll"
	DbusSetPropertiesIface    = "org.freedesktop.DBus.Properties.Set"
	DbusObjectManagerIface    = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"

	BluezBusName           = "org.bluez"
	BluezRootPath          = "/org/bluez"
	BluezAdapterIface      = "org.bluez.Adapter1"
	BluezDeviceIface       = "org.bluez.Device1"
	BluezMediaControlIface = "org.bluez.MediaControl1"
	BluezMediaPlayerIface  = "org.bluez.MediaPlayer1"
)

// The DBus error names that indicate a transport-layer timeout. Method
// calls that fail with one of these may still have completed on the
// daemon side, so callers double-check the relevant property.
var timeoutErrorNames = []string{
	"org.freedesktop.DBus.Error.NoReply",
	"org.freedesktop.DBus.Error.Timeout",
	"org.freedesktop.DBus.Error.TimedOut",
}

// The DBus error names that indicate the target object is already gone.
var unknownObjectErrorNames = []string{
	"org.freedesktop.DBus.Error.UnknownObject",
	"org.bluez.Error.DoesNotExist",
}
