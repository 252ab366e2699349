package bluetooth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// The service class identifiers of the Bluetooth profiles relevant to
// audio streaming and media control.
const (
	AudioSourceServiceClass     = 0x110a
	AudioSinkServiceClass       = 0x110b
	AvRemoteTargetServiceClass  = 0x110c
	AdvancedAudioServiceClass   = 0x110d
	AvRemoteControlServiceClass = 0x110e
)

// baseServiceUUID is the Bluetooth base UUID into which the 16-bit
// service class identifiers are substituted.
const baseServiceUUID = "0000%04x-0000-1000-8000-00805f9b34fb"

// ServiceUUID expands a 16-bit service class identifier into its full
// 128-bit Bluetooth profile UUID.
func ServiceUUID(service uint32) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf(baseServiceUUID, service))
}

// ServiceExists returns whether the given service class identifier occurs
// within a device's advertised profile UUIDs.
func ServiceExists(uuids []string, service uint32) bool {
	serviceUUID := ServiceUUID(service).String()

	for _, u := range uuids {
		if strings.EqualFold(u, serviceUUID) {
			return true
		}
	}

	return false
}
