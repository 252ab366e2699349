// Package eventbus provides a process-wide event stream for session,
// stream and error events.
package eventbus

import (
	"github.com/cskr/pubsub/v2"
	"github.com/darkhz/bluestream/api/bluetooth"
)

// Topic names for the event stream.
const (
	TopicDevice = "device"
	TopicStream = "stream"
	TopicError  = "error"
)

// EventKind describes the kind of a published event.
type EventKind string

// The different event kinds.
const (
	EventDiscovered       EventKind = "discovered"
	EventPaired           EventKind = "paired"
	EventConnected        EventKind = "connected"
	EventDisconnected     EventKind = "disconnected"
	EventRemoved          EventKind = "removed"
	EventEndpointResolved EventKind = "endpoint-resolved"
	EventStreamStarted    EventKind = "stream-started"
	EventStreamStopped    EventKind = "stream-stopped"
	EventError            EventKind = "error"
)

// Event holds the data for a published event.
type Event struct {
	// Kind holds the kind of the event.
	Kind EventKind

	// Address holds the Bluetooth MAC address of the device
	// the event relates to, if any.
	Address bluetooth.MacAddress

	// Message holds an optional human-readable description.
	Message string
}

const eventChanCapacity = 10

var emitter = pubsub.New[string, Event](eventChanCapacity)

// Publish publishes an event to the given topic. Publishing never blocks;
// events to saturated subscribers are dropped.
func Publish(topic string, event Event) {
	emitter.TryPub(event, topic)
}

// PublishError publishes an error event to the error topic.
func PublishError(address bluetooth.MacAddress, err error) {
	if err == nil {
		return
	}

	Publish(TopicError, Event{
		Kind:    EventError,
		Address: address,
		Message: err.Error(),
	})
}

// Subscribe subscribes to events on the given topics.
func Subscribe(topics ...string) chan Event {
	return emitter.Sub(topics...)
}

// Unsubscribe removes a subscription created with Subscribe.
func Unsubscribe(ch chan Event, topics ...string) {
	go emitter.Unsub(ch, topics...)

	for range ch {
	}
}
