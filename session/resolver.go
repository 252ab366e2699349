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
	"github.com/darkhz/bluestream/audio"
	"go.uber.org/zap"
)

const (
	// DefaultResolveAttempts is the default number of endpoint probes
	// before resolution is reported as failed.
	DefaultResolveAttempts = 5

	// DefaultResolveInterval is the default pause between endpoint probes.
	DefaultResolveInterval = time.Second
)

// SinkFinder probes the audio server once for a device's sink.
type SinkFinder interface {
	FindSink(address bluetooth.MacAddress) (audio.Sink, error)
}

// ControlFinder probes the object tree once for a device's media
// control endpoint.
type ControlFinder interface {
	FindMediaControl(address bluetooth.MacAddress, controller string) (MediaController, error)
}

// MediaController is a resolved media control endpoint that accepts
// transport commands.
type MediaController interface {
	Send(command bluetooth.Command) error
}

// Resolver resolves the endpoints that appear asynchronously after a
// device connects. The audio sink and the media control object are both
// created once profile negotiation on the stack completes, which lags
// the Connected property by an unbounded but typically sub-few-second
// interval. A single probe immediately after connecting therefore races
// the profile handshake; every resolution here is a bounded retry loop.
type Resolver struct {
	log *zap.SugaredLogger

	sinks    SinkFinder
	controls ControlFinder

	attempts int
	interval time.Duration
}

// NewResolver returns an endpoint resolver. Non-positive attempts or
// interval select the defaults.
func NewResolver(logger *zap.SugaredLogger, sinks SinkFinder, controls ControlFinder, attempts int, interval time.Duration) *Resolver {
	if attempts <= 0 {
		attempts = DefaultResolveAttempts
	}
	if interval <= 0 {
		interval = DefaultResolveInterval
	}

	return &Resolver{
		log:      logger.Named("resolver"),
		sinks:    sinks,
		controls: controls,
		attempts: attempts,
		interval: interval,
	}
}

// AudioSink resolves the device's audio sink, retrying while the audio
// server has not created it yet.
func (r *Resolver) AudioSink(ctx context.Context, address bluetooth.MacAddress) (audio.Sink, error) {
	var sink audio.Sink

	err := r.retry(ctx, address, "audio-sink", func() error {
		var err error

		sink, err = r.sinks.FindSink(address)

		return err
	})

	return sink, err
}

// MediaControl resolves the device's media control endpoint, retrying
// while the object has not appeared on the bus yet.
func (r *Resolver) MediaControl(ctx context.Context, address bluetooth.MacAddress, controller string) (MediaController, error) {
	var control MediaController

	err := r.retry(ctx, address, "media-control", func() error {
		var err error

		control, err = r.controls.FindMediaControl(address, controller)

		return err
	})

	return control, err
}

// retry runs the probe up to the configured attempt count, pausing for
// the configured interval between attempts. The loop is cancellable.
func (r *Resolver) retry(ctx context.Context, address bluetooth.MacAddress, endpoint string, probe func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		lastErr = probe()
		if lastErr == nil {
			if attempt > 1 {
				r.log.Debugw("Endpoint resolved after retries",
					"endpoint", endpoint,
					"address", address.String(),
					"attempt", attempt,
				)
			}

			return nil
		}

		if attempt == r.attempts {
			break
		}

		select {
		case <-time.After(r.interval):

		case <-ctx.Done():
			return fault.Wrap(ctx.Err(),
				fctx.With(ctx,
					"error_at", "resolver-cancel",
					"endpoint", endpoint,
					"address", address.String(),
				),
				ftag.With(ftag.Cancelled),
				fmsg.With("Endpoint resolution was cancelled"),
			)
		}
	}

	return fault.Wrap(errorkinds.ErrEndpointNotReady,
		fctx.With(ctx,
			"error_at", "resolver-exhausted",
			"endpoint", endpoint,
			"address", address.String(),
			"cause", lastErr.Error(),
		),
		ftag.With(ftag.Kind("UNAVAILABLE")),
		fmsg.With("Endpoint did not appear within the retry budget"),
	)
}
