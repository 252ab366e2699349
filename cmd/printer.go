package cmd

import (
	"fmt"
	"strings"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/eventbus"
	"github.com/fatih/color"
)

// printSuccess prints a confirmation to the screen.
func printSuccess(message string) {
	message = "[+] " + message

	color.New(color.FgGreen, color.Bold).Println(message)
}

// printWarn prints a warning to the screen.
func printWarn(message string) {
	message = "[-] " + message

	color.New(color.FgYellow, color.Bold).Println(message)
}

// printError prints an error to the screen.
func printError(err error) {
	message := "[!] " + err.Error()

	color.New(color.FgRed, color.Bold).Println(message)
}

// printDevices prints a device listing to the screen.
func printDevices(devices []bluetooth.DeviceData) {
	if len(devices) == 0 {
		printWarn("No devices found.")
		return
	}

	var sb strings.Builder

	for _, device := range devices {
		sb.WriteString("- ")
		sb.WriteString(device.Address.String())

		name := device.Alias
		if name == "" {
			name = device.Name
		}
		if name != "" {
			sb.WriteString(" ")
			sb.WriteString(name)
		}

		if device.Type != "" {
			sb.WriteString(" (")
			sb.WriteString(device.Type)
			sb.WriteString(")")
		}

		var states []string
		if device.Paired {
			states = append(states, "paired")
		}
		if device.Connected {
			states = append(states, "connected")
		}
		if len(states) > 0 {
			sb.WriteString(" [")
			sb.WriteString(strings.Join(states, ", "))
			sb.WriteString("]")
		}

		sb.WriteString("\n")
	}

	fmt.Print(sb.String())
}

// printNowPlaying prints the media player information to the screen.
func printNowPlaying(media bluetooth.MediaData) {
	var sb strings.Builder

	title := media.Title
	if title == "" {
		title = "Unknown track"
	}

	sb.WriteString(title)
	if media.Artist != "" {
		sb.WriteString(" - ")
		sb.WriteString(media.Artist)
	}
	if media.Album != "" {
		sb.WriteString(" (")
		sb.WriteString(media.Album)
		sb.WriteString(")")
	}
	if media.Status != "" {
		sb.WriteString(" [")
		sb.WriteString(string(media.Status))
		sb.WriteString("]")
	}

	fmt.Println(sb.String())

	if media.Duration > 0 {
		fmt.Printf("%s / %s\n",
			formatTrackTime(media.Position),
			formatTrackTime(media.Duration),
		)
	}
}

// printAudioProfiles prints an audio profile listing to the screen.
func printAudioProfiles(profiles []bluetooth.AudioProfile) {
	if len(profiles) == 0 {
		printWarn("No audio profiles found.")
		return
	}

	for _, profile := range profiles {
		marker := " "
		if profile.Active {
			marker = "*"
		}

		fmt.Printf("%s %s: %s\n", marker, profile.Name, profile.Description)
	}
}

// printEvent prints a published event to the screen.
func printEvent(event eventbus.Event) {
	var sb strings.Builder

	sb.WriteString(string(event.Kind))
	if !event.Address.IsNil() {
		sb.WriteString(" ")
		sb.WriteString(event.Address.String())
	}
	if event.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(event.Message)
	}

	if event.Kind == eventbus.EventError {
		printError(fmt.Errorf("%s", sb.String()))
		return
	}

	fmt.Println(sb.String())
}

// formatTrackTime formats a track position in milliseconds as mm:ss.
func formatTrackTime(ms uint32) string {
	seconds := ms / 1000

	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
