// Package audio queries the PulseAudio server for sinks and active
// playback streams. Bluetooth sinks are created by the audio server only
// after the A2DP profile handshake completes, so sink lookups here are
// single-shot probes meant to be retried by the caller.
package audio

import (
	"context"
	"net"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/jfreymuth/pulse/proto"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

// bluezSinkPrefix occurs in the names of sinks the audio server creates
// for Bluetooth output endpoints.
const bluezSinkPrefix = "bluez"

// Sink describes an audio output endpoint.
type Sink struct {
	Index       uint32
	Name        string
	Description string
}

// Stream describes an active playback stream and the sink it routes to.
type Stream struct {
	Index    uint32
	Media    string
	Process  string
	SinkName string
}

// Client is a connection to the PulseAudio server's native protocol socket.
type Client struct {
	log    *zap.SugaredLogger
	client *proto.Client
	conn   net.Conn
}

// NewClient connects to the PulseAudio server.
func NewClient(logger *zap.SugaredLogger) (*Client, error) {
	client, conn, err := proto.Connect("")
	if err != nil {
		return nil, fault.Wrap(errorkinds.ErrSessionStart,
			fctx.With(context.Background(),
				"error_at", "audio-connect",
				"cause", err.Error(),
			),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot establish a PulseAudio connection"),
		)
	}

	request := proto.SetClientName{
		Props: proto.PropList{
			"application.name": proto.PropListString("bluestream-" + xid.New().String()),
		},
	}
	if err := client.Request(&request, &proto.SetClientNameReply{}); err != nil {
		conn.Close()

		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "audio-client-name"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot set the PulseAudio client name"),
		)
	}

	return &Client{
		log:    logger.Named("audio"),
		client: client,
		conn:   conn,
	}, nil
}

// Close closes the connection to the audio server.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Sinks lists the audio server's sinks.
func (c *Client) Sinks() ([]Sink, error) {
	var reply proto.GetSinkInfoListReply

	if err := c.client.Request(&proto.GetSinkInfoList{}, &reply); err != nil {
		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "audio-sink-list"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot list audio sinks"),
		)
	}

	sinks := make([]Sink, 0, len(reply))
	for _, info := range reply {
		sinks = append(sinks, Sink{
			Index:       info.SinkIndex,
			Name:        info.SinkName,
			Description: info.Device,
		})
	}

	return sinks, nil
}

// FindSink finds the sink belonging to the Bluetooth device with the
// given address. The address is matched case-insensitively against the
// sink name with ':' and '_' treated as equivalent.
func (c *Client) FindSink(address bluetooth.MacAddress) (Sink, error) {
	sinks, err := c.Sinks()
	if err != nil {
		return Sink{}, err
	}

	for _, sink := range sinks {
		if address.MatchesFuzzy(sink.Name) {
			return sink, nil
		}
	}

	return Sink{}, fault.Wrap(errorkinds.ErrEndpointNotReady,
		fctx.With(context.Background(),
			"error_at", "audio-sink-find",
			"address", address.String(),
		),
		ftag.With(ftag.NotFound),
		fmsg.With("No audio sink is present for the device yet"),
	)
}

// PlaybackStreams lists the active playback streams with their sink
// names resolved.
func (c *Client) PlaybackStreams() ([]Stream, error) {
	var reply proto.GetSinkInputInfoListReply

	if err := c.client.Request(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "audio-stream-list"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot list active playback streams"),
		)
	}

	sinks, err := c.Sinks()
	if err != nil {
		return nil, err
	}

	sinkNames := make(map[uint32]string, len(sinks))
	for _, sink := range sinks {
		sinkNames[sink.Index] = sink.Name
	}

	streams := make([]Stream, 0, len(reply))
	for _, info := range reply {
		stream := Stream{
			Index:    info.SinkInputIndex,
			Media:    info.MediaName,
			SinkName: sinkNames[info.SinkIndex],
		}

		if process, ok := info.Properties["application.process.binary"]; ok {
			stream.Process = process.String()
		}

		streams = append(streams, stream)
	}

	return streams, nil
}

// BluetoothStreamActive reports whether any active playback stream
// routes through a Bluetooth-class sink. This is observational and
// independent of locally started playback; it also detects streams
// started by other means.
func (c *Client) BluetoothStreamActive() (bool, error) {
	streams, err := c.PlaybackStreams()
	if err != nil {
		return false, err
	}

	for _, stream := range streams {
		if strings.Contains(strings.ToLower(stream.SinkName), bluezSinkPrefix) {
			return true, nil
		}
	}

	return false, nil
}
