package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/eventbus"
	"github.com/darkhz/bluestream/audio"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

// These values are set at compile-time.
var (
	Version  = ""
	Revision = ""
)

// Run runs the commandline application.
func Run() error {
	return newApp().Run(os.Args)
}

// newApp returns a new commandline application.
func newApp() *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s (%s)\n", Version, Revision)
	}

	return &cli.App{
		Name:                   "bluestream",
		Usage:                  "Bluetooth audio streamer.",
		Version:                Version + " (" + Revision + ")",
		Description:            "Streams audio to Bluetooth devices and controls their media players.",
		Copyright:              "(c) darkhz.",
		Compiled:               time.Now(),
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Suggest:                true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "adapter",
				Aliases: []string{"a"},
				EnvVars: []string{"BLUESTREAM_ADAPTER"},
				Usage:   "Specify an adapter to use. (For example, hci0)",
			},
			&cli.BoolFlag{
				Name:    "any-controller",
				EnvVars: []string{"BLUESTREAM_ANY_CONTROLLER"},
				Usage:   "Match media control endpoints under any controller.",
			},
			&cli.StringFlag{
				Name:    "player",
				Aliases: []string{"p"},
				EnvVars: []string{"BLUESTREAM_PLAYER"},
				Usage:   "Specify the playback command. (For example, mpg123)",
			},
			&cli.StringFlag{
				Name:    "converter",
				EnvVars: []string{"BLUESTREAM_CONVERTER"},
				Usage:   "Specify the media converter command. (For example, ffmpeg)",
			},
			&cli.IntFlag{
				Name:  "resolve-attempts",
				Usage: "Specify the maximum endpoint resolution attempts after a device connects.",
			},
			&cli.DurationFlag{
				Name:  "resolve-interval",
				Usage: "Specify the pause between endpoint resolution attempts.",
			},
			&cli.DurationFlag{
				Name:  "settle-delay",
				Usage: "Specify the delay before pair and connect results are confirmed.",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging.",
			},
		},
		Commands: []*cli.Command{
			discoverCommand(),
			pairCommand(),
			connectCommand(),
			disconnectCommand(),
			removeCommand(),
			trustCommand(),
			blockCommand(),
			adapterCommand(),
			devicesCommand(),
			playCommand(),
			stopCommand(),
			controlCommand(),
			nowPlayingCommand(),
			profilesCommand(),
			statusCommand(),
			monitorCommand(),
		},
		ExitErrHandler: func(_ *cli.Context, err error) {
			if err == nil {
				return
			}

			printError(err)
		},
	}
}

// addressArg parses the device address from the first command argument.
func addressArg(cliCtx *cli.Context) (bluetooth.MacAddress, error) {
	return bluetooth.ParseMAC(cliCtx.Args().First())
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Scan for devices.",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   10 * time.Second,
				Usage:   "Specify the scan duration.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			timeout := cliCtx.Duration("timeout")

			bar := progressbar.NewOptions(int(timeout/time.Second),
				progressbar.OptionSetDescription("Scanning"),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetWriter(os.Stderr),
			)

			done := make(chan struct{})
			go func() {
				ticker := time.NewTicker(1 * time.Second)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						bar.Add(1)

					case <-done:
						bar.Finish()
						return
					}
				}
			}()

			devices, err := env.coordinator.Discover(cliCtx.Context, timeout)
			close(done)
			if err != nil {
				return err
			}

			printDevices(devices)

			return nil
		},
	}
}

func pairCommand() *cli.Command {
	return &cli.Command{
		Name:      "pair",
		Usage:     "Pair with a device.",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "trust",
				Usage: "Trust the device after pairing.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			if err := env.coordinator.Pair(cliCtx.Context, address); err != nil {
				return err
			}

			if cliCtx.Bool("trust") {
				if err := env.bluez.SetTrusted(address, true); err != nil {
					return err
				}
			}

			printSuccess("Paired with " + address.String() + ".")

			return nil
		},
	}
}

func connectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Connect to a device.",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Connect a single profile by its service UUID.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			if profile := cliCtx.String("profile"); profile != "" {
				profileUUID, err := uuid.Parse(profile)
				if err != nil {
					return err
				}

				if err := env.bluez.ConnectProfile(address, profileUUID); err != nil {
					return err
				}

				printSuccess("Connected profile " + profile + " on " + address.String() + ".")

				return nil
			}

			if err := env.coordinator.Connect(cliCtx.Context, address); err != nil {
				return err
			}

			printSuccess("Connected to " + address.String() + ".")

			return nil
		},
	}
}

func disconnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "disconnect",
		Usage:     "Disconnect from a device.",
		ArgsUsage: "<address>",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			if err := env.coordinator.Disconnect(address); err != nil {
				return err
			}

			printSuccess("Disconnected from " + address.String() + ".")

			return nil
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a device from the adapter.",
		ArgsUsage: "<address>",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			if err := env.coordinator.Remove(address); err != nil {
				return err
			}

			printSuccess("Removed " + address.String() + ".")

			return nil
		},
	}
}

func trustCommand() *cli.Command {
	return &cli.Command{
		Name:      "trust",
		Usage:     "Trust a device.",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "revoke",
				Usage: "Revoke the device's trusted status instead.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			enable := !cliCtx.Bool("revoke")
			if err := env.bluez.SetTrusted(address, enable); err != nil {
				return err
			}

			if enable {
				printSuccess("Trusted " + address.String() + ".")
			} else {
				printSuccess("Untrusted " + address.String() + ".")
			}

			return nil
		},
	}
}

func blockCommand() *cli.Command {
	return &cli.Command{
		Name:      "block",
		Usage:     "Block a device.",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "revoke",
				Usage: "Unblock the device instead.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			enable := !cliCtx.Bool("revoke")
			if err := env.bluez.SetBlocked(address, enable); err != nil {
				return err
			}

			if enable {
				printSuccess("Blocked " + address.String() + ".")
			} else {
				printSuccess("Unblocked " + address.String() + ".")
			}

			return nil
		},
	}
}

func adapterCommand() *cli.Command {
	return &cli.Command{
		Name:      "adapter",
		Usage:     "Set adapter states.",
		ArgsUsage: "<states>",
		Description: "States are provided as a comma-separated list of 'property:yes/no' pairs.\n" +
			"For example: 'powered:yes,discoverable:yes,pairable:no'.",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			states := cliCtx.Args().First()
			if states == "" {
				return fmt.Errorf("no adapter states were provided")
			}

			controller := env.cfg.Controller()

			for _, state := range strings.Split(states, ",") {
				property, value, ok := strings.Cut(state, ":")
				if !ok {
					return fmt.Errorf("invalid adapter state %q", state)
				}

				var enable bool
				switch value {
				case "yes", "y":
					enable = true

				case "no", "n":
					enable = false

				default:
					return fmt.Errorf("invalid adapter state value %q", value)
				}

				if err := env.bluez.SetAdapterState(controller, property, enable); err != nil {
					return err
				}
			}

			if controller == "" {
				printSuccess("Adapter states applied.")
			} else {
				printSuccess("Adapter states applied on " + controller + ".")
			}

			return nil
		},
	}
}

func devicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List devices known to the adapter.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "sources",
				Usage: "List connected audio source devices only.",
			},
			&cli.BoolFlag{
				Name:  "sinks",
				Usage: "List connected audio sink devices only.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			var devices []bluetooth.DeviceData

			switch {
			case cliCtx.Bool("sources"):
				devices, err = env.coordinator.ConnectedSourceDevices()

			case cliCtx.Bool("sinks"):
				devices, err = env.coordinator.ConnectedSinkDevices()

			default:
				devices, err = env.bluez.Devices()
			}
			if err != nil {
				return err
			}

			printDevices(devices)

			return nil
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Stream an audio file to a device.",
		ArgsUsage: "<address> <file>",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			path := cliCtx.Args().Get(1)
			if path == "" {
				return fmt.Errorf("no media file was provided")
			}

			if err := env.coordinator.StartStream(cliCtx.Context, address, path); err != nil {
				return err
			}

			printSuccess("Streaming " + path + " to " + address.String() + ". Press Ctrl-C to stop.")

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()

		wait:
			for {
				select {
				case <-interrupt:
					break wait

				case <-ticker.C:
					if !env.coordinator.StreamActive(address) {
						break wait
					}
				}
			}

			if _, err := env.coordinator.StopStream(address); err != nil {
				return err
			}

			printSuccess("Stream finished.")

			return nil
		},
	}
}

func stopCommand() *cli.Command {
	return &cli.Command{
		Name:      "stop",
		Usage:     "Stop an active stream.",
		ArgsUsage: "<address>",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			stopped, err := env.coordinator.StopStream(address)
			if err != nil {
				return err
			}

			if !stopped {
				printWarn("No stream is active for " + address.String() + ".")
				return nil
			}

			printSuccess("Stream stopped.")

			return nil
		},
	}
}

func controlCommand() *cli.Command {
	var names []string
	for _, command := range bluetooth.Commands() {
		names = append(names, string(command))
	}

	return &cli.Command{
		Name:      "control",
		Usage:     "Send a media control command to a device. (" + strings.Join(names, ", ") + ")",
		ArgsUsage: "<address> <command>",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			command := bluetooth.Command(cliCtx.Args().Get(1))

			if err := env.coordinator.SendCommand(cliCtx.Context, address, command); err != nil {
				return err
			}

			printSuccess("Sent '" + string(command) + "' to " + address.String() + ".")

			return nil
		},
	}
}

func nowPlayingCommand() *cli.Command {
	return &cli.Command{
		Name:      "now-playing",
		Usage:     "Show the media playing on a device.",
		ArgsUsage: "<address>",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			control, err := env.bluez.FindMediaControl(address, env.cfg.Controller())
			if err != nil {
				return err
			}

			media, err := control.NowPlaying()
			if err != nil {
				return err
			}

			printNowPlaying(media)

			return nil
		},
	}
}

func profilesCommand() *cli.Command {
	return &cli.Command{
		Name:      "profiles",
		Usage:     "List or set the audio profiles of a device.",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "set",
				Usage: "Activate the audio profile with the given name.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			address, err := addressArg(cliCtx)
			if err != nil {
				return err
			}

			profiles, err := audio.AudioProfiles(address)
			if err != nil {
				return err
			}

			if name := cliCtx.String("set"); name != "" {
				for _, profile := range profiles {
					if profile.Name != name {
						continue
					}

					if err := audio.SetAudioProfile(address, profile); err != nil {
						return err
					}

					printSuccess("Activated profile " + name + " on " + address.String() + ".")

					return nil
				}

				return fmt.Errorf("the device has no audio profile named %q", name)
			}

			printAudioProfiles(profiles)

			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the streaming status.",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			active, err := env.coordinator.StreamingActive()
			if err != nil {
				return err
			}

			if active {
				printSuccess("Audio is streaming through a Bluetooth device.")
			} else {
				printWarn("No Bluetooth audio stream is active.")
			}

			return nil
		},
	}
}

func monitorCommand() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Watch device and stream events.",
		Action: func(cliCtx *cli.Context) error {
			env, err := setup(cliCtx)
			if err != nil {
				return err
			}
			defer env.close()

			topics := []string{
				eventbus.TopicDevice,
				eventbus.TopicStream,
				eventbus.TopicError,
			}

			events := eventbus.Subscribe(topics...)
			defer eventbus.Unsubscribe(events, topics...)

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

			for {
				select {
				case event := <-events:
					printEvent(event)

				case <-interrupt:
					return nil
				}
			}
		},
	}
}
