// Package commands implements the prefix text commands and playback panel
// button handlers for Troubadour.
package commands

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/discord"
	"github.com/MrWong99/troubadour/internal/observe"
	"github.com/MrWong99/troubadour/internal/player"
	"github.com/MrWong99/troubadour/internal/resolver"
)

// Resolver is the slice of the track resolver the commands use. Tests
// substitute a stub.
type Resolver interface {
	Resolve(ctx context.Context, input string) ([]player.Track, []resolver.ItemError, error)
	CatalogEnabled() bool
}

// Commands holds the dependencies shared by all command handlers.
type Commands struct {
	manager   *player.Manager
	resolver  Resolver
	messenger discord.Messenger
	state     *discordgo.State
	metrics   *observe.Metrics
	log       *slog.Logger
}

// New creates the command set. metrics may be nil, in which case command
// invocations are not counted.
func New(manager *player.Manager, res Resolver, messenger discord.Messenger, state *discordgo.State, metrics *observe.Metrics, log *slog.Logger) *Commands {
	if log == nil {
		log = slog.Default()
	}
	return &Commands{
		manager:   manager,
		resolver:  res,
		messenger: messenger,
		state:     state,
		metrics:   metrics,
		log:       log,
	}
}

// Register registers every text command and panel component handler with the
// router.
func (c *Commands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("ping", c.handlePing)
	router.RegisterCommand("join", c.handleJoin)
	router.RegisterCommand("leave", c.handleLeave)
	router.RegisterCommand("play", c.handlePlay, "p")
	router.RegisterCommand("pause", c.handlePause)
	router.RegisterCommand("resume", c.handleResume)
	router.RegisterCommand("stop", c.handleStop)
	router.RegisterCommand("skip", c.handleSkip)
	router.RegisterCommand("queue", c.handleQueue, "q")
	router.RegisterCommand("nowplaying", c.handleNowPlaying, "np")
	router.RegisterCommand("shuffle", c.handleShuffle)
	router.RegisterCommand("loop", c.handleLoop)
	router.RegisterCommand("volume", c.handleVolume)

	router.RegisterComponent(discord.PanelToggleID, c.handlePanelToggle)
	router.RegisterComponent(discord.PanelSkipID, c.handlePanelSkip)
	router.RegisterComponent(discord.PanelStopID, c.handlePanelStop)
}

// record counts one command invocation.
func (c *Commands) record(name string) {
	if c.metrics != nil {
		c.metrics.RecordCommand(context.Background(), name)
	}
}

// reply sends a user-facing notice to the command's text channel.
func (c *Commands) reply(channelID, content string) {
	discord.Reply(c.messenger, channelID, content)
}

// guardPlayback applies the shared precondition of playback-mutating
// commands: the caller must be in a voice channel, the bot must be connected
// in the guild, and both must share the channel. On success it returns the
// guild's engine; otherwise a user-facing reason.
func (c *Commands) guardPlayback(guildID, userID string) (*player.Engine, string) {
	userChannel := discord.VoiceChannelOf(c.state, guildID, userID)
	if userChannel == "" {
		return nil, "You need to be in a voice channel to use this command."
	}
	eng := c.manager.Get(guildID)
	if eng == nil {
		return nil, "I am not connected to a voice channel."
	}
	botChannel, ok := eng.Connected()
	if !ok {
		return nil, "I am not connected to a voice channel."
	}
	if botChannel != userChannel {
		return nil, "You need to be in the same voice channel as the bot to use this command."
	}
	return eng, ""
}

// channelName resolves a channel ID to its name via the state cache, or ""
// when unknown.
func (c *Commands) channelName(channelID string) string {
	if c.state == nil {
		return ""
	}
	ch, err := c.state.Channel(channelID)
	if err != nil {
		return ""
	}
	return ch.Name
}

// interactionUserID extracts the acting user of an interaction, which sits
// in Member for guild interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
