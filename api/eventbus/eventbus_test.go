package eventbus

import (
	"errors"
	"testing"
	"time"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, events chan Event) Event {
	t.Helper()

	select {
	case event := <-events:
		return event

	case <-time.After(time.Second):
		t.Fatal("no event was published")
		return Event{}
	}
}

func TestPublishSubscribe(t *testing.T) {
	events := Subscribe(TopicDevice)
	defer Unsubscribe(events, TopicDevice)

	address, err := bluetooth.ParseMAC("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)

	Publish(TopicDevice, Event{Kind: EventConnected, Address: address})

	event := waitForEvent(t, events)

	assert.Equal(t, EventConnected, event.Kind)
	assert.Equal(t, address, event.Address)
}

func TestPublishError(t *testing.T) {
	events := Subscribe(TopicError)
	defer Unsubscribe(events, TopicError)

	PublishError(bluetooth.MacAddress{}, errors.New("endpoint is gone"))

	event := waitForEvent(t, events)

	assert.Equal(t, EventError, event.Kind)
	assert.Equal(t, "endpoint is gone", event.Message)
}

func TestPublishNilError(t *testing.T) {
	events := Subscribe(TopicError)
	defer Unsubscribe(events, TopicError)

	PublishError(bluetooth.MacAddress{}, nil)

	select {
	case event := <-events:
		t.Fatalf("unexpected event: %v", event)

	case <-time.After(50 * time.Millisecond):
	}
}
