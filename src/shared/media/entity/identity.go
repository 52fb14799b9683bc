package mediaentity

const (
	UnknownArtist = "Unknown Artist"
	UnknownSong   = "Unknown Song"
)

// MediaIdentity is the raw naming metadata of one media item, taken once from
// the download collaborator and never modified afterwards.
type MediaIdentity struct {
	URL             string  `json:"url"`
	RawTitle        string  `json:"raw_title"`
	Channel         string  `json:"channel"`
	Uploader        string  `json:"uploader"`
	TrackTag        string  `json:"track_tag"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type CanonicalName struct {
	Artist string `json:"artist"`
	Song   string `json:"song"`
}

func (c CanonicalName) IsZero() bool {
	return c.Artist == "" && c.Song == ""
}
