package bluetooth

import "github.com/darkhz/bluestream/api/errorkinds"

// Command represents a media transport command that can be sent to a
// connected device's media control endpoint.
type Command string

// The supported media transport commands.
const (
	CommandPlay     Command = "play"
	CommandPause    Command = "pause"
	CommandNext     Command = "next"
	CommandPrevious Command = "previous"
	CommandRewind   Command = "rewind"
)

// commandMethods maps each transport command to the method it invokes on
// the media control endpoint. Commands are validated against this map
// before any bus call is made; there is no dynamic name dispatch.
var commandMethods = map[Command]string{
	CommandPlay:     "Play",
	CommandPause:    "Pause",
	CommandNext:     "Next",
	CommandPrevious: "Previous",
	CommandRewind:   "Rewind",
}

// Commands returns all supported transport commands.
func Commands() []Command {
	return []Command{
		CommandPlay,
		CommandPause,
		CommandNext,
		CommandPrevious,
		CommandRewind,
	}
}

// Valid reports whether the command is a supported transport command.
func (c Command) Valid() bool {
	_, ok := commandMethods[c]
	return ok
}

// Method returns the media control method name for the command.
func (c Command) Method() (string, error) {
	method, ok := commandMethods[c]
	if !ok {
		return "", errorkinds.ErrInvalidCommand
	}

	return method, nil
}
