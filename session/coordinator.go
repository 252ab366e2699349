package session

import (
	"context"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/darkhz/bluestream/api/eventbus"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// DeviceManager is the device lifecycle controller the coordinator
// drives. It is implemented by the bluez session.
type DeviceManager interface {
	Discover(ctx context.Context, controller string, timeout time.Duration) ([]bluetooth.DeviceData, error)
	Pair(ctx context.Context, address bluetooth.MacAddress) error
	Connect(ctx context.Context, address bluetooth.MacAddress) error
	Disconnect(address bluetooth.MacAddress) error
	Remove(address bluetooth.MacAddress) error
	Connected(address bluetooth.MacAddress) (bool, error)
	ConnectedDevicesByService(service uint32) ([]bluetooth.DeviceData, error)
}

// AudioQuerier observes the audio server's active playback streams.
type AudioQuerier interface {
	BluetoothStreamActive() (bool, error)
}

// Streamer owns the playback and transcode subprocesses.
type Streamer interface {
	Prepare(ctx context.Context, path string) (string, error)
	Start(path string) (StreamHandle, error)
	Stop(handle StreamHandle) error
}

// Coordinator holds one session per device address and exposes the
// endpoint-gated operations. Operations on the same address are
// serialized by a per-session lock; operations on different addresses
// are independent.
type Coordinator struct {
	log *zap.SugaredLogger

	devices  DeviceManager
	resolver *Resolver
	streamer Streamer
	audio    AudioQuerier

	// controller restricts media control resolution to one adapter's
	// subtree. Empty selects the any-controller mode.
	controller string

	sessions *xsync.MapOf[bluetooth.MacAddress, *Session]
}

// NewCoordinator returns a session coordinator.
func NewCoordinator(
	logger *zap.SugaredLogger,
	devices DeviceManager,
	resolver *Resolver,
	streamer Streamer,
	audio AudioQuerier,
	controller string,
) *Coordinator {
	return &Coordinator{
		log:        logger.Named("coordinator"),
		devices:    devices,
		resolver:   resolver,
		streamer:   streamer,
		audio:      audio,
		controller: controller,
		sessions:   xsync.NewMapOf[bluetooth.MacAddress, *Session](),
	}
}

// GetOrCreate returns the session for the given address, creating it on
// first interaction.
func (c *Coordinator) GetOrCreate(address bluetooth.MacAddress) *Session {
	session, _ := c.sessions.LoadOrCompute(address, func() *Session {
		return newSession(address)
	})

	return session
}

// Discover scans for devices for the given duration. Discovery is global
// and holds no per-device lock.
func (c *Coordinator) Discover(ctx context.Context, timeout time.Duration) ([]bluetooth.DeviceData, error) {
	devices, err := c.devices.Discover(ctx, c.controller, timeout)
	if err != nil {
		return nil, err
	}

	for _, device := range devices {
		eventbus.Publish(eventbus.TopicDevice, eventbus.Event{
			Kind:    eventbus.EventDiscovered,
			Address: device.Address,
			Message: device.Alias,
		})
	}

	return devices, nil
}

// Pair pairs the device.
func (c *Coordinator) Pair(ctx context.Context, address bluetooth.MacAddress) error {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := c.devices.Pair(ctx, address); err != nil {
		eventbus.PublishError(address, err)
		return err
	}

	eventbus.Publish(eventbus.TopicDevice, eventbus.Event{
		Kind:    eventbus.EventPaired,
		Address: address,
	})

	return nil
}

// Connect connects the device. Every attempt opens a new connection
// epoch, so endpoint references from earlier connections can never be
// reused.
func (c *Coordinator) Connect(ctx context.Context, address bluetooth.MacAddress) error {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	return c.connectLocked(ctx, session)
}

// connectLocked connects the session's device. The session lock must be held.
func (c *Coordinator) connectLocked(ctx context.Context, session *Session) error {
	session.invalidateEndpoints()

	if err := c.devices.Connect(ctx, session.Address); err != nil {
		eventbus.PublishError(session.Address, err)
		return err
	}

	eventbus.Publish(eventbus.TopicDevice, eventbus.Event{
		Kind:    eventbus.EventConnected,
		Address: session.Address,
	})

	return nil
}

// Disconnect disconnects the device and invalidates its endpoint
// references. Disconnecting an already disconnected device succeeds.
func (c *Coordinator) Disconnect(address bluetooth.MacAddress) error {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	session.invalidateEndpoints()

	if err := c.devices.Disconnect(address); err != nil {
		eventbus.PublishError(address, err)
		return err
	}

	eventbus.Publish(eventbus.TopicDevice, eventbus.Event{
		Kind:    eventbus.EventDisconnected,
		Address: address,
	})

	return nil
}

// Remove removes the device from the daemon's registry and destroys the
// session. Removing an absent device succeeds.
func (c *Coordinator) Remove(address bluetooth.MacAddress) error {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	session.invalidateEndpoints()

	if err := c.devices.Remove(address); err != nil {
		eventbus.PublishError(address, err)
		return err
	}

	c.sessions.Delete(address)

	eventbus.Publish(eventbus.TopicDevice, eventbus.Event{
		Kind:    eventbus.EventRemoved,
		Address: address,
	})

	return nil
}

// EnsureReady checks that the device is connected and that the required
// endpoint is resolved under the current connection epoch, resolving it
// when absent or stale. It fails fast with a not-connected error before
// ever touching the resolver when the device is not connected; retrying
// endpoint resolution against a device whose transport is down can only
// waste the retry budget.
func (c *Coordinator) EnsureReady(ctx context.Context, address bluetooth.MacAddress, need Need) error {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	return c.ensureReadyLocked(ctx, session, need)
}

// ensureReadyLocked implements EnsureReady. The session lock must be held.
func (c *Coordinator) ensureReadyLocked(ctx context.Context, session *Session, need Need) error {
	connected, err := c.devices.Connected(session.Address)
	if err != nil {
		return err
	}

	if !connected {
		session.invalidateEndpoints()

		return fault.Wrap(errorkinds.ErrNotConnected,
			fctx.With(ctx,
				"error_at", "coordinator-ensure-ready",
				"address", session.Address.String(),
				"need", need.String(),
			),
			ftag.With(ftag.Kind("FAILED_PRECONDITION")),
			fmsg.With("Device is not connected"),
		)
	}

	epoch := session.epoch.Load()

	switch need {
	case NeedSink:
		if session.sink.current(epoch) {
			return nil
		}

		sink, err := c.resolver.AudioSink(ctx, session.Address)
		if err != nil {
			return err
		}

		session.sink.set(sink, epoch)

	case NeedMediaControl:
		if session.control.current(epoch) {
			return nil
		}

		control, err := c.resolver.MediaControl(ctx, session.Address, c.controller)
		if err != nil {
			return err
		}

		session.control.set(control, epoch)
	}

	eventbus.Publish(eventbus.TopicDevice, eventbus.Event{
		Kind:    eventbus.EventEndpointResolved,
		Address: session.Address,
		Message: need.String(),
	})

	return nil
}

// StartStream connects the device when needed, waits for its audio sink
// to appear, prepares the file for playback and spawns the playback
// subprocess. A transcode failure aborts before any playback attempt.
func (c *Coordinator) StartStream(ctx context.Context, address bluetooth.MacAddress, path string) error {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.stream != nil && session.stream.Running() {
		return fault.Wrap(errorkinds.ErrStreamActive,
			fctx.With(ctx,
				"error_at", "coordinator-start-stream",
				"address", address.String(),
				"path", session.stream.Path(),
			),
			ftag.With(ftag.AlreadyExists),
			fmsg.With("A stream is already active for this device"),
		)
	}

	connected, err := c.devices.Connected(address)
	if err != nil {
		return err
	}

	if !connected {
		if err := c.connectLocked(ctx, session); err != nil {
			return err
		}
	}

	if err := c.ensureReadyLocked(ctx, session, NeedSink); err != nil {
		return err
	}

	playPath, err := c.streamer.Prepare(ctx, path)
	if err != nil {
		eventbus.PublishError(address, err)
		return err
	}

	handle, err := c.streamer.Start(playPath)
	if err != nil {
		eventbus.PublishError(address, err)
		return err
	}

	session.stream = handle

	c.log.Infow("Stream started",
		"address", address.String(),
		"sink", session.sink.value.Name,
		"path", playPath,
	)

	eventbus.Publish(eventbus.TopicStream, eventbus.Event{
		Kind:    eventbus.EventStreamStarted,
		Address: address,
		Message: playPath,
	})

	return nil
}

// StopStream terminates the playback subprocess for the device. The
// returned boolean reports whether a stream was actually stopped; a
// missing or exited handle is not an error.
func (c *Coordinator) StopStream(address bluetooth.MacAddress) (bool, error) {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.stream == nil {
		return false, nil
	}

	handle := session.stream

	if !handle.Running() {
		session.stream = nil
		return false, nil
	}

	// The handle is dropped only once the subprocess is down; a failed
	// stop must stay retryable.
	if err := c.streamer.Stop(handle); err != nil {
		eventbus.PublishError(address, err)
		return false, err
	}

	session.stream = nil

	eventbus.Publish(eventbus.TopicStream, eventbus.Event{
		Kind:    eventbus.EventStreamStopped,
		Address: address,
	})

	return true, nil
}

// SendCommand validates and sends a transport command to the device's
// media control endpoint. An unknown command is rejected before any bus
// operation. When the invocation itself fails, the cached endpoint
// reference is treated as potentially stale and cleared, so the next
// call re-resolves instead of repeating against a dead handle.
func (c *Coordinator) SendCommand(ctx context.Context, address bluetooth.MacAddress, command bluetooth.Command) error {
	if !command.Valid() {
		return fault.Wrap(errorkinds.ErrInvalidCommand,
			fctx.With(ctx,
				"error_at", "coordinator-send-command",
				"address", address.String(),
				"command", string(command),
			),
			ftag.With(ftag.InvalidArgument),
			fmsg.With("Unknown media control command"),
		)
	}

	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := c.ensureReadyLocked(ctx, session, NeedMediaControl); err != nil {
		return err
	}

	if err := session.control.value.Send(command); err != nil {
		session.control.clear()

		eventbus.PublishError(address, err)

		return fault.Wrap(errorkinds.ErrStaleEndpoint,
			fctx.With(ctx,
				"error_at", "coordinator-send-command",
				"address", address.String(),
				"command", string(command),
				"cause", err.Error(),
			),
			ftag.With(ftag.Kind("UNAVAILABLE")),
			fmsg.With("The media control command failed; the endpoint reference was discarded"),
		)
	}

	return nil
}

// StreamActive reports whether this process has a live playback
// subprocess for the device.
func (c *Coordinator) StreamActive(address bluetooth.MacAddress) bool {
	session := c.GetOrCreate(address)

	session.mu.Lock()
	defer session.mu.Unlock()

	return session.stream != nil && session.stream.Running()
}

// StreamingActive reports whether any playback stream routes through a
// Bluetooth-class sink. This observes the audio server directly and is
// independent of the local subprocess handle.
func (c *Coordinator) StreamingActive() (bool, error) {
	return c.audio.BluetoothStreamActive()
}

// ConnectedSourceDevices lists the connected devices that advertise the
// A2DP source profile.
func (c *Coordinator) ConnectedSourceDevices() ([]bluetooth.DeviceData, error) {
	return c.devices.ConnectedDevicesByService(bluetooth.AudioSourceServiceClass)
}

// ConnectedSinkDevices lists the connected devices that advertise the
// A2DP sink profile.
func (c *Coordinator) ConnectedSinkDevices() ([]bluetooth.DeviceData, error) {
	return c.devices.ConnectedDevicesByService(bluetooth.AudioSinkServiceClass)
}
