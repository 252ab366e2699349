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

// MediaControl is a resolved handle to a device's media control endpoint.
// The endpoint object appears on the bus only after AVRCP profile
// negotiation completes, which lags the device's Connected property.
type MediaControl struct {
	call ObjectCaller
	path dbus.ObjectPath

	Address bluetooth.MacAddress
}

// FindMediaControl scans a fresh object tree snapshot for the media
// control endpoint of the device with the given address. This is a
// single-shot probe; the caller is expected to retry, since the endpoint
// appears asynchronously after profile negotiation.
//
// When controller is non-empty (such as "hci0"), only an endpoint under
// that controller's subtree matches. An empty controller enables the
// any-controller mode.
func (s *Session) FindMediaControl(address bluetooth.MacAddress, controller string) (*MediaControl, error) {
	objects, err := s.ManagedObjects()
	if err != nil {
		return nil, err
	}

	path, ok := objects.MediaControlPath(address, controller)
	if !ok {
		return nil, fault.Wrap(errorkinds.ErrEndpointNotReady,
			fctx.With(context.Background(),
				"error_at", "mediacontrol-find",
				"address", address.String(),
				"controller", controller,
			),
			ftag.With(ftag.NotFound),
			fmsg.With("Media control endpoint is not present yet"),
		)
	}

	return &MediaControl{call: s.call, path: path, Address: address}, nil
}

// MediaControlPath finds the path of an object implementing the media
// control interface whose path encodes the given device address and,
// when controller is non-empty, the given controller segment.
func (o ObjectSnapshot) MediaControlPath(address bluetooth.MacAddress, controller string) (dbus.ObjectPath, bool) {
	for path, ifaces := range o {
		if _, ok := ifaces[dbh.BluezMediaControlIface]; !ok {
			continue
		}

		if MediaControlPathMatches(string(path), address, controller) {
			return path, true
		}
	}

	return "", false
}

// MediaControlPathMatches reports whether an object path addresses the
// device with the given address under the given controller. BlueZ paths
// have the form /org/bluez/<controller>/dev_<ADDRESS_WITH_UNDERSCORES>.
func MediaControlPathMatches(path string, address bluetooth.MacAddress, controller string) bool {
	if !address.MatchesFuzzy(path) {
		return false
	}

	return controller == "" || strings.Contains(path, "/"+controller+"/")
}

// Path returns the object path of the endpoint.
func (m *MediaControl) Path() dbus.ObjectPath {
	return m.path
}

// Send validates and invokes a transport command on the endpoint.
func (m *MediaControl) Send(command bluetooth.Command) error {
	method, err := command.Method()
	if err != nil {
		return fault.Wrap(err,
			fctx.With(context.Background(),
				"error_at", "mediacontrol-send",
				"address", m.Address.String(),
				"command", string(command),
			),
			ftag.With(ftag.InvalidArgument),
			fmsg.With("Unknown media control command"),
		)
	}

	if err := m.call.Call(m.path, dbh.BluezMediaControlIface+"."+method).
		Store(); err != nil {
		return wrapMethodError(err, "mediacontrol-call", m.Address.String(),
			"Cannot send '"+string(command)+"' media control command to device")
	}

	return nil
}

// Connected reports the endpoint's Connected property. A present but
// unconnected endpoint cannot accept transport commands.
func (m *MediaControl) Connected() (bool, error) {
	var result dbus.Variant

	if err := m.call.Call(m.path, dbh.DbusGetPropertiesIface, dbh.BluezMediaControlIface, "Connected").
		Store(&result); err != nil {
		return false, wrapMethodError(err, "mediacontrol-connected", m.Address.String(),
			"Cannot read media control state")
	}

	connected, ok := result.Value().(bool)

	return ok && connected, nil
}

// NowPlaying reads the media player properties of the currently playing
// track through the endpoint's associated player object.
func (m *MediaControl) NowPlaying() (bluetooth.MediaData, error) {
	var player dbus.Variant

	if err := m.call.Call(m.path, dbh.DbusGetPropertiesIface, dbh.BluezMediaControlIface, "Player").
		Store(&player); err != nil {
		return bluetooth.MediaData{}, wrapMethodError(err, "mediacontrol-player", m.Address.String(),
			"Cannot get device's media player path")
	}

	playerPath, ok := player.Value().(dbus.ObjectPath)
	if !ok {
		return bluetooth.MediaData{}, fault.Wrap(errorkinds.ErrPropertyDataParse,
			fctx.With(context.Background(),
				"error_at", "mediacontrol-player-path",
				"address", m.Address.String(),
			),
			ftag.With(ftag.Internal),
			fmsg.With("Media player path has an unexpected type"),
		)
	}

	propertyMap := make(map[string]dbus.Variant)

	if err := m.call.Call(playerPath, dbh.DbusGetAllPropertiesIface, dbh.BluezMediaPlayerIface).
		Store(&propertyMap); err != nil {
		return bluetooth.MediaData{}, wrapMethodError(err, "mediacontrol-player-props", m.Address.String(),
			"Media player properties were not found for device")
	}

	return parseMediaProperties(m.Address, propertyMap)
}

// parseMediaProperties parses a variant map of media player properties.
func parseMediaProperties(address bluetooth.MacAddress, values map[string]dbus.Variant) (bluetooth.MediaData, error) {
	var props bluetooth.MediaData

	track := bluetooth.TrackData{}
	if t, ok := values["Track"].Value().(map[string]dbus.Variant); ok {
		if err := dbh.DecodeVariantMap(t, &track); err != nil {
			return bluetooth.MediaData{}, err
		}
	}

	delete(values, "Track")

	props.TrackData = track

	if err := dbh.DecodeVariantMap(values, &props); err != nil {
		return bluetooth.MediaData{}, err
	}

	props.Address = address

	return props, nil
}
