package bluetooth

import (
	"testing"

	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandValid(t *testing.T) {
	for _, command := range Commands() {
		assert.True(t, command.Valid(), string(command))
	}

	assert.False(t, Command("shuffle").Valid())
	assert.False(t, Command("").Valid())
	assert.False(t, Command("Play").Valid(), "method names are not commands")
}

func TestCommandMethod(t *testing.T) {
	methods := map[Command]string{
		CommandPlay:     "Play",
		CommandPause:    "Pause",
		CommandNext:     "Next",
		CommandPrevious: "Previous",
		CommandRewind:   "Rewind",
	}

	for command, want := range methods {
		method, err := command.Method()

		require.NoError(t, err)
		assert.Equal(t, want, method)
	}

	_, err := Command("stop").Method()
	assert.ErrorIs(t, err, errorkinds.ErrInvalidCommand)
}
