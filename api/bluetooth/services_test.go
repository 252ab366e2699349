package bluetooth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceUUID(t *testing.T) {
	assert.Equal(t, "0000110b-0000-1000-8000-00805f9b34fb", ServiceUUID(AudioSinkServiceClass).String())
	assert.Equal(t, "0000110a-0000-1000-8000-00805f9b34fb", ServiceUUID(AudioSourceServiceClass).String())
}

func TestServiceExists(t *testing.T) {
	uuids := []string{
		"0000110B-0000-1000-8000-00805F9B34FB",
		"0000110e-0000-1000-8000-00805f9b34fb",
	}

	assert.True(t, ServiceExists(uuids, AudioSinkServiceClass))
	assert.True(t, ServiceExists(uuids, AvRemoteControlServiceClass))
	assert.False(t, ServiceExists(uuids, AudioSourceServiceClass))
	assert.False(t, ServiceExists(nil, AudioSinkServiceClass))
}

func TestHaveService(t *testing.T) {
	device := DeviceData{}
	device.UUIDs = []string{"0000110a-0000-1000-8000-00805f9b34fb"}

	assert.True(t, device.HaveService(AudioSourceServiceClass))
	assert.False(t, device.HaveService(AudioSinkServiceClass))
}
