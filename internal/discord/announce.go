package discord

import (
	"log/slog"

	"github.com/MrWong99/troubadour/internal/player"
)

// Announcer posts playback lifecycle notices to the text channel a track was
// requested from. It implements [player.Notifier].
type Announcer struct {
	messenger Messenger
	log       *slog.Logger
}

var _ player.Notifier = (*Announcer)(nil)

// NewAnnouncer creates an Announcer sending through m.
func NewAnnouncer(m Messenger, log *slog.Logger) *Announcer {
	if log == nil {
		log = slog.Default()
	}
	return &Announcer{messenger: m, log: log}
}

// TrackStarted announces a track that began playing.
func (a *Announcer) TrackStarted(t player.Track) {
	if t.ChannelID == "" {
		return
	}
	Reply(a.messenger, t.ChannelID, "Now playing: **"+t.Title+"** (Requested by: "+t.RequestedBy+")")
}

// TrackFailed announces a track that could not be played. The diagnostic
// goes to the log; users get a short notice.
func (a *Announcer) TrackFailed(t player.Track, err error) {
	a.log.Warn("track failed", "title", t.Title, "err", err)
	if t.ChannelID == "" {
		return
	}
	Reply(a.messenger, t.ChannelID, "Error playing **"+t.Title+"**. Skipping to the next song.")
}

// QueueFinished announces queue exhaustion.
func (a *Announcer) QueueFinished(channelID string) {
	if channelID == "" {
		return
	}
	Reply(a.messenger, channelID, "Queue finished.")
}
