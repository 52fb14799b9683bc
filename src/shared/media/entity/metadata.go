package mediaentity

import (
	"github.com/veedubyou/midifi/src/shared/lib/jsonlib"
)

const (
	playlistType = "playlist"
	// flat playlist entries carry only enough to find the item again
	urlType            = "url"
	urlTransparentType = "url_transparent"
)

type MetadataFields struct {
	ID         string  `json:"id"`
	Type       string  `json:"_type"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	Track      string  `json:"track"`
	Duration   float64 `json:"duration"`
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
}

// Metadata is the info document the downloader reports for one item. Fields
// the pipeline does not use are kept in Extra so they round trip untouched.
type Metadata struct {
	jsonlib.Flatten[MetadataFields]
}

func NewMetadata(fields MetadataFields) Metadata {
	metadata := Metadata{}
	metadata.Defined = fields
	metadata.Extra = map[string]any{}
	return metadata
}

func (m Metadata) IsPlaylist() bool {
	return m.Defined.Type == playlistType
}

func (m Metadata) IsFlat() bool {
	return m.Defined.Type == urlType || m.Defined.Type == urlTransparentType
}

// ItemURL is the URL to hand back to the downloader for this single item.
func (m Metadata) ItemURL(fallback string) string {
	switch {
	case m.Defined.WebpageURL != "":
		return m.Defined.WebpageURL
	case m.Defined.URL != "":
		return m.Defined.URL
	default:
		return fallback
	}
}

func (m Metadata) Identity(sourceURL string) MediaIdentity {
	return MediaIdentity{
		URL:             m.ItemURL(sourceURL),
		RawTitle:        m.Defined.Title,
		Channel:         m.Defined.Channel,
		Uploader:        m.Defined.Uploader,
		TrackTag:        m.Defined.Track,
		DurationSeconds: m.Defined.Duration,
	}
}
