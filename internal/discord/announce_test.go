package discord_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/troubadour/internal/discord"
	"github.com/MrWong99/troubadour/internal/discord/mock"
	"github.com/MrWong99/troubadour/internal/player"
)

func TestAnnouncerTrackStarted(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	a := discord.NewAnnouncer(m, nil)

	a.TrackStarted(player.Track{Title: "Some Song", RequestedBy: "alice", ChannelID: "chan-1"})

	sent := m.LastSent()
	if sent == nil || sent.ChannelID != "chan-1" {
		t.Fatalf("announcement = %+v, want one in chan-1", sent)
	}
	if !strings.Contains(sent.Content, "Now playing") || !strings.Contains(sent.Content, "Some Song") {
		t.Errorf("content = %q, want a now-playing notice with the title", sent.Content)
	}
}

func TestAnnouncerTrackFailed(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	a := discord.NewAnnouncer(m, nil)

	a.TrackFailed(player.Track{Title: "Bad Song", ChannelID: "chan-1"}, errors.New("403 from cdn"))

	sent := m.LastSent()
	if sent == nil {
		t.Fatal("no failure notice sent")
	}
	if !strings.Contains(sent.Content, "Bad Song") {
		t.Errorf("content = %q, want the track title", sent.Content)
	}
	if strings.Contains(sent.Content, "403") {
		t.Errorf("content = %q leaks the raw error to users", sent.Content)
	}
}

func TestAnnouncerQueueFinished(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	a := discord.NewAnnouncer(m, nil)

	a.QueueFinished("chan-1")
	if sent := m.LastSent(); sent == nil || sent.Content != "Queue finished." {
		t.Errorf("notice = %+v, want %q in chan-1", sent, "Queue finished.")
	}
}

func TestAnnouncerSkipsWithoutChannel(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	a := discord.NewAnnouncer(m, nil)

	a.TrackStarted(player.Track{Title: "Some Song"})
	a.TrackFailed(player.Track{Title: "Some Song"}, errors.New("x"))
	a.QueueFinished("")

	if m.SentCount() != 0 {
		t.Errorf("sends = %d, want 0 without a channel", m.SentCount())
	}
}
