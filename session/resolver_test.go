package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/darkhz/bluestream/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSinks struct {
	failures int
	calls    int
}

func (c *countingSinks) FindSink(_ bluetooth.MacAddress) (audio.Sink, error) {
	c.calls++

	if c.calls <= c.failures {
		return audio.Sink{}, errorkinds.ErrEndpointNotReady
	}

	return audio.Sink{Name: "bluez_sink"}, nil
}

type countingControls struct {
	calls int
}

func (c *countingControls) FindMediaControl(_ bluetooth.MacAddress, _ string) (MediaController, error) {
	c.calls++
	return nil, errorkinds.ErrEndpointNotReady
}

func resolverAddress(t *testing.T) bluetooth.MacAddress {
	t.Helper()

	address, err := bluetooth.ParseMAC("11:22:33:44:55:66")
	require.NoError(t, err)

	return address
}

func TestResolverDefaults(t *testing.T) {
	r := NewResolver(zap.NewNop().Sugar(), &countingSinks{}, &countingControls{}, 0, 0)

	assert.Equal(t, DefaultResolveAttempts, r.attempts)
	assert.Equal(t, DefaultResolveInterval, r.interval)
}

func TestResolverSucceedsAfterRetries(t *testing.T) {
	sinks := &countingSinks{failures: 2}
	r := NewResolver(zap.NewNop().Sugar(), sinks, &countingControls{}, 5, time.Millisecond)

	sink, err := r.AudioSink(context.Background(), resolverAddress(t))

	require.NoError(t, err)
	assert.Equal(t, "bluez_sink", sink.Name)
	assert.Equal(t, 3, sinks.calls)
}

func TestResolverExhaustsBudget(t *testing.T) {
	controls := &countingControls{}
	r := NewResolver(zap.NewNop().Sugar(), &countingSinks{}, controls, 3, time.Millisecond)

	_, err := r.MediaControl(context.Background(), resolverAddress(t), "hci0")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errorkinds.ErrEndpointNotReady))
	assert.Equal(t, 3, controls.calls, "probing must stop at the attempt limit")
}

func TestResolverCancellation(t *testing.T) {
	sinks := &countingSinks{failures: 10}
	r := NewResolver(zap.NewNop().Sugar(), sinks, &countingControls{}, 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.AudioSink(ctx, resolverAddress(t))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, sinks.calls, "cancellation must interrupt the wait between probes")
}
