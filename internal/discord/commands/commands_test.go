package commands_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/discord"
	"github.com/MrWong99/troubadour/internal/discord/commands"
	dmock "github.com/MrWong99/troubadour/internal/discord/mock"
	"github.com/MrWong99/troubadour/internal/player"
	"github.com/MrWong99/troubadour/internal/resolver"
	amock "github.com/MrWong99/troubadour/pkg/audio/mock"
)

// stubResolver returns canned results. The last result set is sticky so
// repeated plays keep resolving.
type stubResolver struct {
	mu      sync.Mutex
	results [][]player.Track
	items   []resolver.ItemError
	err     error
	calls   []string
}

func (r *stubResolver) Resolve(_ context.Context, input string) ([]player.Track, []resolver.ItemError, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, input)
	if r.err != nil {
		return nil, nil, r.err
	}
	if len(r.results) == 0 {
		return nil, nil, resolver.ErrNotFound
	}
	res := r.results[0]
	if len(r.results) > 1 {
		r.results = r.results[1:]
	}
	return res, r.items, nil
}

func (r *stubResolver) CatalogEnabled() bool { return true }

type fixture struct {
	router   *discord.CommandRouter
	msgr     *dmock.Messenger
	platform *amock.Platform
	conn     *amock.Connection
	manager  *player.Manager
	resolver *stubResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := discordgo.NewState()
	err := st.GuildAdd(&discordgo.Guild{
		ID: "guild-1",
		Channels: []*discordgo.Channel{
			{ID: "vc-1", GuildID: "guild-1", Name: "General", Type: discordgo.ChannelTypeGuildVoice},
			{ID: "vc-2", GuildID: "guild-1", Name: "AFK", Type: discordgo.ChannelTypeGuildVoice},
			{ID: "text-1", GuildID: "guild-1", Name: "music", Type: discordgo.ChannelTypeGuildText},
		},
		VoiceStates: []*discordgo.VoiceState{
			{GuildID: "guild-1", UserID: "user-1", ChannelID: "vc-1"},
			{GuildID: "guild-1", UserID: "user-2", ChannelID: "vc-2"},
		},
	})
	if err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}

	conn := &amock.Connection{Channel: "vc-1"}
	platform := &amock.Platform{ConnectResult: conn}
	manager := player.NewManager(platform, 100, nil, nil, nil)
	t.Cleanup(manager.Shutdown)

	msgr := &dmock.Messenger{}
	res := &stubResolver{}
	router := discord.NewCommandRouter()
	commands.New(manager, res, msgr, st, nil, nil).Register(router)

	return &fixture{
		router:   router,
		msgr:     msgr,
		platform: platform,
		conn:     conn,
		manager:  manager,
		resolver: res,
	}
}

// dispatch runs a text command as user-1 in the music channel.
func (f *fixture) dispatch(content string) {
	f.dispatchAs("user-1", content)
}

func (f *fixture) dispatchAs(userID, content string) {
	f.router.DispatchMessage("!", &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   content,
			GuildID:   "guild-1",
			ChannelID: "text-1",
			Author:    &discordgo.User{ID: userID, Username: "tester"},
		},
	})
}

// replied reports whether any recorded reply contains substr.
func (f *fixture) replied(substr string) bool {
	for _, s := range f.msgr.Sent {
		if strings.Contains(s.Content, substr) {
			return true
		}
	}
	return false
}

func (f *fixture) requireReply(t *testing.T, substr string) {
	t.Helper()
	if !f.replied(substr) {
		t.Fatalf("no reply containing %q; replies: %v", substr, f.msgr.Sent)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func track(title string) player.Track {
	return player.Track{
		Title:    title,
		MediaURL: "https://cdn.example/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")),
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!ping")
	f.requireReply(t, "Pong!")
}

func TestJoinRequiresVoiceChannel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatchAs("user-3", "!join")
	f.requireReply(t, "You need to be in a voice channel to use this command.")
	if len(f.platform.ConnectCalls) != 0 {
		t.Errorf("connect calls = %d, want 0", len(f.platform.ConnectCalls))
	}
}

func TestJoinConnects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!join")
	f.requireReply(t, "Joined voice channel: General")
	if len(f.platform.ConnectCalls) != 1 || f.platform.ConnectCalls[0].ChannelID != "vc-1" {
		t.Errorf("connect calls = %+v, want one for vc-1", f.platform.ConnectCalls)
	}
}

func TestJoinAlreadyConnected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!join")
	f.dispatch("!join")
	f.requireReply(t, "I am already in your voice channel.")
	if len(f.platform.ConnectCalls) != 1 {
		t.Errorf("connect calls = %d, want 1", len(f.platform.ConnectCalls))
	}
}

func TestLeave(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!leave")
	f.requireReply(t, "I am not in a voice channel.")

	f.dispatch("!join")
	f.dispatch("!leave")
	f.requireReply(t, "Left the voice channel.")
	if f.conn.DisconnectCalls != 1 {
		t.Errorf("disconnects = %d, want 1", f.conn.DisconnectCalls)
	}
}

func TestPlayStartsImmediately(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}}

	f.dispatch("!play song a")

	f.requireReply(t, "Searching for: `song a`...")
	if got := f.conn.PlayCount(); got != 1 {
		t.Errorf("plays = %d, want 1", got)
	}
	if f.replied("Added to queue") {
		t.Error("immediate start was reported as queued")
	}
}

func TestPlayQueuesWhileActive(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}, {track("Song B")}}

	f.dispatch("!play song a")
	f.dispatch("!play song b")

	f.requireReply(t, "Added to queue: **Song B** (Requested by: tester)")
	if got := f.conn.PlayCount(); got != 1 {
		t.Errorf("plays = %d, want 1 while Song A is active", got)
	}
}

func TestPlayWithoutArgs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!play")
	f.requireReply(t, "Please provide a song name or link.")
}

func TestPlayResolutionFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.err = resolver.ErrNotFound

	f.dispatch("!play gibberish")
	f.requireReply(t, "Could not find a suitable audio source.")
}

func TestPlayCatalogUnavailable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.err = fmt.Errorf("spotify link: %w", resolver.ErrCatalogUnavailable)

	f.dispatch("!play https://open.spotify.com/track/abc")
	f.requireReply(t, "Spotify links are not supported")
}

func TestPlayReportsItemFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}}
	f.resolver.items = []resolver.ItemError{{Query: "Artist - Gone Song", Err: resolver.ErrNotFound}}

	f.dispatch("!play https://open.spotify.com/album/abc")
	f.requireReply(t, "Could not find a suitable audio source for `Artist - Gone Song`.")
	if got := f.conn.PlayCount(); got != 1 {
		t.Errorf("plays = %d, want 1; item failures must not abort the batch", got)
	}
}

func TestPauseRequiresSameChannel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}}
	f.dispatch("!play song a")

	f.dispatchAs("user-2", "!pause")
	f.requireReply(t, "You need to be in the same voice channel as the bot to use this command.")
	if f.conn.PauseCalls != 0 {
		t.Errorf("pauses = %d, want 0", f.conn.PauseCalls)
	}
}

func TestPauseWithoutBotConnection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!pause")
	f.requireReply(t, "I am not connected to a voice channel.")
}

func TestPauseResumeFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}}
	f.dispatch("!play song a")

	f.dispatch("!pause")
	f.requireReply(t, "Playback paused.")

	f.dispatch("!resume")
	f.requireReply(t, "Playback resumed.")
}

func TestResumeWhenNotPaused(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}}
	f.dispatch("!play song a")

	f.dispatch("!resume")
	f.requireReply(t, "Playback is not paused.")
}

func TestStopClearsAndDisconnects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}, {track("Song B")}}
	f.dispatch("!play song a")
	f.dispatch("!play song b")

	f.dispatch("!stop")
	f.requireReply(t, "Queue cleared.")
	f.requireReply(t, "Disconnected from the voice channel.")
	if f.conn.DisconnectCalls != 1 {
		t.Errorf("disconnects = %d, want 1", f.conn.DisconnectCalls)
	}
}

func TestSkipWithNothingPlaying(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!join")
	f.dispatch("!skip")
	f.requireReply(t, "Not playing anything to skip.")
}

func TestSkipAdvancesQueue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}, {track("Song B")}}
	f.dispatch("!play song a")
	f.dispatch("!play song b")

	f.dispatch("!skip")
	f.requireReply(t, "Skipping current song...")
	waitFor(t, func() bool { return f.conn.PlayCount() == 2 })
}

func TestQueueRender(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}, {track("Song B")}, {track("Song C")}}
	f.dispatch("!play song a")
	f.dispatch("!play song b")
	f.dispatch("!play song c")

	f.dispatch("!queue")
	f.requireReply(t, "Now Playing: **Song A** (Requested by: tester)")
	f.requireReply(t, "1. **Song B** (Requested by: tester)")
	f.requireReply(t, "2. **Song C** (Requested by: tester)")
}

func TestQueueEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!queue")
	f.requireReply(t, "The queue is currently empty and nothing is playing.")
}

func TestQueueWithCurrentOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}}
	f.dispatch("!play song a")

	f.dispatch("!q")
	f.requireReply(t, "The upcoming queue is empty.")
}

func TestNowPlaying(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!np")
	f.requireReply(t, "Nothing is currently playing.")

	f.resolver.results = [][]player.Track{{track("Song A")}}
	f.dispatch("!play song a")
	f.dispatch("!nowplaying")
	f.requireReply(t, "Now Playing: **Song A** (Requested by: tester)")
}

func TestShuffleEmptyQueue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dispatch("!shuffle")
	f.requireReply(t, "The upcoming queue is empty.")
}

func TestShuffle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}, {track("Song B")}}
	f.dispatch("!play song a")
	f.dispatch("!play song b")

	f.dispatch("!shuffle")
	f.requireReply(t, "Queue shuffled.")
}

func TestLoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.dispatch("!loop")
	f.requireReply(t, "Current loop mode: off.")

	f.dispatch("!loop song")
	f.requireReply(t, "Loop mode set to: song.")

	f.dispatch("!loop banana")
	f.requireReply(t, "Usage: loop [off|song]")
}

func TestVolume(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.results = [][]player.Track{{track("Song A")}}
	f.dispatch("!play song a")

	f.dispatch("!volume")
	f.requireReply(t, "Current volume is: 100%")

	f.dispatch("!volume 50")
	f.requireReply(t, "Volume set to 50%.")

	f.dispatch("!volume")
	f.requireReply(t, "Current volume is: 50%")

	f.dispatch("!volume 250")
	f.requireReply(t, "Volume must be between 0 and 200.")

	f.dispatch("!volume loud")
	f.requireReply(t, "Invalid volume level. Please use a number between 0 and 200.")
}
