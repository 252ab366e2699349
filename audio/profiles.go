package audio

import (
	"context"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/bluetooth"
	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/mafik/pulseaudio"
)

// AudioProfiles lists the available audio profiles of the card that
// belongs to the device with the given address, such as the A2DP sink
// and handsfree profiles.
func AudioProfiles(address bluetooth.MacAddress) ([]bluetooth.AudioProfile, error) {
	client, err := pulseaudio.NewClient()
	if err != nil {
		return nil, wrapProfileError(err, "audio-profiles-connect", address)
	}
	defer client.Close()

	cards, err := client.Cards()
	if err != nil {
		return nil, wrapProfileError(err, "audio-profiles-cards", address)
	}

	for _, card := range cards {
		addr, ok := card.PropList["device.string"]
		if !ok || addr != address.String() {
			continue
		}

		var profiles []bluetooth.AudioProfile

		for profileName, profile := range card.Profiles {
			if profile.Available != 1 {
				continue
			}

			profiles = append(profiles, bluetooth.AudioProfile{
				Index:       card.Index,
				Name:        profileName,
				Description: profile.Description,
				Active:      profile.Name == card.ActiveProfile.Name,
			})
		}

		return profiles, nil
	}

	return nil, wrapProfileError(errorkinds.ErrEndpointNotReady, "audio-profiles-card", address)
}

// SetAudioProfile activates an audio profile on the device's card.
func SetAudioProfile(address bluetooth.MacAddress, profile bluetooth.AudioProfile) error {
	client, err := pulseaudio.NewClient()
	if err != nil {
		return wrapProfileError(err, "audio-profiles-set-connect", address)
	}
	defer client.Close()

	if err := client.SetCardProfile(profile.Index, profile.Name); err != nil {
		return wrapProfileError(err, "audio-profiles-set", address)
	}

	return nil
}

// wrapProfileError wraps an audio card profile related error.
func wrapProfileError(err error, at string, address bluetooth.MacAddress) error {
	return fault.Wrap(err,
		fctx.With(context.Background(),
			"error_at", at,
			"address", address.String(),
		),
		ftag.With(ftag.Internal),
		fmsg.With("Cannot access the audio profiles of the device"),
	)
}
