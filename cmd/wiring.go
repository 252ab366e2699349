package cmd

import (
	"sync"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/audio"
	"github.com/darkhz/bluestream/bluez"
	"github.com/darkhz/bluestream/player"
	"github.com/darkhz/bluestream/session"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// DefaultController is the controller whose subtree endpoint resolution
// is restricted to unless the any-controller mode is selected.
const DefaultController = "hci0"

// appEnv holds the wired application components for one invocation.
type appEnv struct {
	cfg *Config
	log *zap.SugaredLogger

	bluez       *bluez.Session
	audio       *lazyAudioClient
	coordinator *session.Coordinator
}

// setup loads the configuration and wires the session coordinator with
// its collaborators.
func setup(cliCtx *cli.Context) (*appEnv, error) {
	cfg := NewConfig()
	if err := cfg.Load(koanf.New("."), cliCtx); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Values.Debug)
	if err != nil {
		return nil, err
	}

	bz, err := bluez.NewSession(logger)
	if err != nil {
		return nil, err
	}

	if cfg.Values.SettleDelay > 0 {
		bz.SetSettleDelay(cfg.Values.SettleDelay)
	}

	audioClient := &lazyAudioClient{log: logger}

	resolver := session.NewResolver(
		logger,
		audioClient,
		session.NewControlFinder(bz),
		cfg.Values.ResolveAttempts,
		cfg.Values.ResolveInterval,
	)

	manager := player.NewManager(logger, cfg.Values.Player, cfg.Values.Converter)

	coordinator := session.NewCoordinator(
		logger,
		bz,
		resolver,
		session.NewStreamer(manager),
		audioClient,
		cfg.Controller(),
	)

	return &appEnv{
		cfg:         cfg,
		log:         logger,
		bluez:       bz,
		audio:       audioClient,
		coordinator: coordinator,
	}, nil
}

// close releases the bus and audio server connections.
func (e *appEnv) close() {
	e.audio.close()
	_ = e.bluez.Close()
	_ = e.log.Sync()
}

// lazyAudioClient connects to the audio server on first use, so
// commands that never query it do not require a running server.
type lazyAudioClient struct {
	log *zap.SugaredLogger

	mu     sync.Mutex
	client *audio.Client
}

// get returns the audio client, connecting when needed.
func (l *lazyAudioClient) get() (*audio.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil {
		client, err := audio.NewClient(l.log)
		if err != nil {
			return nil, err
		}

		l.client = client
	}

	return l.client, nil
}

// FindSink implements session.SinkFinder.
func (l *lazyAudioClient) FindSink(address bluetooth.MacAddress) (audio.Sink, error) {
	client, err := l.get()
	if err != nil {
		return audio.Sink{}, err
	}

	return client.FindSink(address)
}

// BluetoothStreamActive implements session.AudioQuerier.
func (l *lazyAudioClient) BluetoothStreamActive() (bool, error) {
	client, err := l.get()
	if err != nil {
		return false, err
	}

	return client.BluetoothStreamActive()
}

// close closes the audio server connection if one was made.
func (l *lazyAudioClient) close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		_ = l.client.Close()
		l.client = nil
	}
}
