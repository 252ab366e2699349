package session

import (
	"context"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/bluez"
	"github.com/darkhz/bluestream/player"
)

// bluezControlFinder adapts the bluez session's endpoint probe to the
// ControlFinder interface.
type bluezControlFinder struct {
	session *bluez.Session
}

// NewControlFinder returns a ControlFinder backed by the bluez session.
func NewControlFinder(session *bluez.Session) ControlFinder {
	return bluezControlFinder{session: session}
}

func (b bluezControlFinder) FindMediaControl(address bluetooth.MacAddress, controller string) (MediaController, error) {
	control, err := b.session.FindMediaControl(address, controller)
	if err != nil {
		return nil, err
	}

	return control, nil
}

// playerStreamer adapts the subprocess manager to the Streamer interface.
type playerStreamer struct {
	manager *player.Manager
}

// NewStreamer returns a Streamer backed by the subprocess manager.
func NewStreamer(manager *player.Manager) Streamer {
	return playerStreamer{manager: manager}
}

func (p playerStreamer) Prepare(ctx context.Context, path string) (string, error) {
	return p.manager.EnsurePlayable(ctx, path)
}

func (p playerStreamer) Start(path string) (StreamHandle, error) {
	proc, err := p.manager.Start(path)
	if err != nil {
		return nil, err
	}

	return proc, nil
}

func (p playerStreamer) Stop(handle StreamHandle) error {
	proc, ok := handle.(*player.Process)
	if !ok {
		return nil
	}

	return p.manager.Stop(proc)
}
