package bluetooth

// DeviceData holds the static bluetooth device information installed for a system.
type DeviceData struct {
	// Name holds the name of the device.
	Name string `json:"name,omitempty" codec:"Name,omitempty"`

	// Class holds the device type class specifier.
	Class uint32 `json:"class,omitempty" codec:"Class,omitempty"`

	// Type holds the type name of the device.
	// For example, type of the device can be "Phone", "Headset" etc.
	Type string `json:"type,omitempty" codec:"Type,omitempty"`

	// Alias holds the optional or user-assigned name for the device.
	Alias string `json:"alias,omitempty" codec:"Alias,omitempty"`

	DeviceEventData
}

// DeviceEventData holds the dynamic (variable) bluetooth device information.
// This is primarily used to send device event related data.
type DeviceEventData struct {
	// Address holds the Bluetooth MAC address of the device.
	Address MacAddress `json:"address,omitempty" codec:"Address,omitempty"`

	// AssociatedAdapter holds the Bluetooth MAC address of the adapter
	// the device is associated with.
	AssociatedAdapter MacAddress `json:"associated_adapter,omitempty" codec:"AssociatedAdapter,omitempty"`

	// Paired indicates if the device is paired.
	Paired bool `json:"paired,omitempty" codec:"Paired,omitempty"`

	// Connected indicates if the device is connected.
	Connected bool `json:"connected,omitempty" codec:"Connected,omitempty"`

	// Trusted indicates if the device is marked as trusted.
	Trusted bool `json:"trusted,omitempty" codec:"Trusted,omitempty"`

	// Blocked indicates if the device is marked as blocked.
	Blocked bool `json:"blocked,omitempty" codec:"Blocked,omitempty"`

	// RSSI indicates the signal strength of the device.
	RSSI int16 `json:"rssi,omitempty" codec:"RSSI,omitempty"`

	// UUIDs holds the device-supported Bluetooth profile UUIDs.
	UUIDs []string `json:"uuids,omitempty" codec:"UUIDs,omitempty"`
}

// HaveService returns if the device advertises a specific service (Bluetooth profile).
func (d *DeviceData) HaveService(service uint32) bool {
	return ServiceExists(d.UUIDs, service)
}

// DeviceTypeFromClass parses the device class and returns its type.
//
//gocyclo:ignore
func DeviceTypeFromClass(class uint32) string {
	/*
		Adapted from:
		https://gitlab.freedesktop.org/upower/upower/-/blob/master/src/linux/up-device-bluez.c#L64
	*/
	switch (class & 0x1f00) >> 8 {
	case 0x01:
		return "Computer"

	case 0x02:
		switch (class & 0xfc) >> 2 {
		case 0x01, 0x02, 0x03, 0x05:
			return "Phone"

		case 0x04:
			return "Modem"
		}

	case 0x03:
		return "Network"

	case 0x04:
		switch (class & 0xfc) >> 2 {
		case 0x01, 0x02:
			return "Headset"

		case 0x05:
			return "Speakers"

		case 0x06:
			return "Headphones"

		case 0x0b, 0x0c, 0x0d:
			return "Video"

		default:
			return "Audio device"
		}

	case 0x05:
		switch (class & 0xc0) >> 6 {
		case 0x00:
			switch (class & 0x1e) >> 2 {
			case 0x01, 0x02:
				return "Gaming input"

			case 0x03:
				return "Remote control"
			}

		case 0x01:
			return "Keyboard"

		case 0x02:
			switch (class & 0x1e) >> 2 {
			case 0x05:
				return "Tablet"

			default:
				return "Mouse"
			}
		}

	case 0x06:
		if (class & 0x80) > 0 {
			return "Printer"
		}

		if (class & 0x40) > 0 {
			return "Scanner"
		}

		if (class & 0x20) > 0 {
			return "Camera"
		}

		if (class & 0x10) > 0 {
			return "Monitor"
		}

	case 0x07:
		return "Wearable"

	case 0x08:
		return "Toy"
	}

	return "Unknown"
}
