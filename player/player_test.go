package player

import (
	"context"
	"testing"

	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(zap.NewNop().Sugar(), "", "")

	assert.Equal(t, DefaultPlayerBin, m.playerBin)
	assert.Equal(t, DefaultConverterBin, m.converterBin)

	m = NewManager(zap.NewNop().Sugar(), "mpv", "sox")

	assert.Equal(t, "mpv", m.playerBin)
	assert.Equal(t, "sox", m.converterBin)
}

func TestEnsurePlayableNativeFormats(t *testing.T) {
	m := NewManager(zap.NewNop().Sugar(), "", "")

	for _, path := range []string{"track.mp3", "track.MP3", "/music/track.mp2"} {
		playable, err := m.EnsurePlayable(context.Background(), path)

		require.NoError(t, err)
		assert.Equal(t, path, playable, "native formats are handed over untouched")
	}
}

func TestConvertFailure(t *testing.T) {
	// A binary that cannot exist, so the transcode fails immediately.
	m := NewManager(zap.NewNop().Sugar(), "", "/nonexistent/transcoder")

	_, err := m.EnsurePlayable(context.Background(), "track.ogg")

	require.Error(t, err)
	assert.ErrorIs(t, err, errorkinds.ErrConvertMedia)
}

func TestProcessLifecycleReporting(t *testing.T) {
	proc := &Process{path: "track.mp3", done: make(chan struct{})}

	assert.True(t, proc.Running())
	assert.Equal(t, "track.mp3", proc.Path())

	close(proc.done)

	assert.False(t, proc.Running())
}
