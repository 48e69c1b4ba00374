package player

import (
	"fmt"
	"time"
)

// SourceKind describes how a track was resolved.
type SourceKind int

const (
	// SourceSearch means the track came from a free-text search against the
	// primary video platform.
	SourceSearch SourceKind = iota
	// SourceCatalog means the track came from a catalog link (e.g. a Spotify
	// track/album/playlist) mapped to a playable video by secondary search.
	SourceCatalog
	// SourceExtractor means the track came from a direct link handled by the
	// extraction backend.
	SourceExtractor
)

func (k SourceKind) String() string {
	switch k {
	case SourceSearch:
		return "search"
	case SourceCatalog:
		return "catalog"
	case SourceExtractor:
		return "extractor"
	default:
		return "unknown"
	}
}

// Track is one resolved, playable audio item. It is immutable once resolved:
// the queue entry owns its value, and loop reinsertion stores a copy so a
// queued track never aliases the one being rendered.
type Track struct {
	// Title is the display title of the track.
	Title string
	// MediaURL is the direct streamable endpoint handed to the transport.
	MediaURL string
	// PageURL is the canonical reference link shown to users.
	PageURL string
	// Duration is the track length; zero means unknown.
	Duration time.Duration
	// ThumbnailURL is an optional cover image.
	ThumbnailURL string
	// Uploader is the name of the channel or artist that published the track.
	Uploader string
	// Kind records how this track was resolved.
	Kind SourceKind

	// RequestedBy is the display name of the user who requested the track.
	RequestedBy string
	// RequesterAvatarURL is the requester's avatar, when available.
	RequesterAvatarURL string
	// Query is the original text the requester submitted.
	Query string
	// ChannelID is the text channel the request came from; announcements for
	// this track go there.
	ChannelID string
}

// DurationLabel renders the track length as m:ss (or h:mm:ss), with "N/A"
// for unknown durations.
func (t Track) DurationLabel() string {
	if t.Duration <= 0 {
		return "N/A"
	}
	total := int(t.Duration.Round(time.Second).Seconds())
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
