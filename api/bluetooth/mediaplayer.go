package bluetooth

// MediaStatus indicates the status of the media player.
type MediaStatus string

// The different values for the media player status.
const (
	MediaPlaying     MediaStatus = "playing"
	MediaPaused      MediaStatus = "paused"
	MediaForwardSeek MediaStatus = "forward-seek"
	MediaReverseSeek MediaStatus = "reverse-seek"
	MediaStopped     MediaStatus = "stopped"
)

// MediaData holds the media player information.
type MediaData struct {
	// Address holds the Bluetooth MAC address of the device.
	Address MacAddress `json:"address,omitempty" codec:"Address,omitempty"`

	// Status indicates the status of the player.
	Status MediaStatus `json:"status,omitempty" codec:"Status,omitempty"`

	// Position indicates the current position of the playing track.
	Position uint32 `json:"position,omitempty" codec:"Position,omitempty"`

	TrackData
}

// TrackData describes the track properties of the currently playing media.
type TrackData struct {
	// Title holds the title name of the track.
	Title string `json:"title,omitempty" codec:"Title,omitempty"`

	// Album holds the album name of the track.
	Album string `json:"album,omitempty" codec:"Album,omitempty"`

	// Artist holds the artist name of the track.
	Artist string `json:"artist,omitempty" codec:"Artist,omitempty"`

	// Duration holds the duration of the track.
	Duration uint32 `json:"duration,omitempty" codec:"Duration,omitempty"`

	// TrackNumber holds the playlist position of the track.
	TrackNumber uint32 `json:"track_number,omitempty" codec:"TrackNumber,omitempty"`

	// TotalTracks holds the total number of tracks.
	TotalTracks uint32 `json:"total_tracks,omitempty" codec:"TotalTracks,omitempty"`
}

// AudioProfile stores the device's audio profile information.
type AudioProfile struct {
	// Name holds the name of the audio profile.
	Name string `json:"name,omitempty" codec:"Name,omitempty"`

	// Description holds a brief description of the audio profile.
	Description string `json:"description,omitempty" codec:"Description,omitempty"`

	// Index holds the index of the card the profile belongs to.
	Index uint32 `json:"index,omitempty" codec:"Index,omitempty"`

	// Active specifies if the profile is active.
	Active bool `json:"active,omitempty" codec:"Active,omitempty"`
}
