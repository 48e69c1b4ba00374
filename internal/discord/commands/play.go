package commands

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/discord"
	"github.com/MrWong99/troubadour/internal/resolver"
)

func (c *Commands) handlePlay(m *discordgo.MessageCreate, args string) {
	c.record("play")
	if args == "" {
		c.reply(m.ChannelID, "Please provide a song name or link.")
		return
	}
	userChannel := discord.VoiceChannelOf(c.state, m.GuildID, m.Author.ID)
	if userChannel == "" {
		c.reply(m.ChannelID, "You need to be in a voice channel to use this command.")
		return
	}

	ctx := context.Background()
	eng := c.manager.GetOrCreate(m.GuildID)
	_, wasConnected := eng.Connected()
	moved, err := eng.Connect(ctx, userChannel)
	if err != nil {
		c.log.Warn("voice join failed", "guild_id", m.GuildID, "channel_id", userChannel, "err", err)
		c.reply(m.ChannelID, "Error joining voice channel.")
		return
	}
	if name := c.channelName(userChannel); name != "" {
		if moved {
			c.reply(m.ChannelID, "Moved to your voice channel: "+name)
		} else if !wasConnected {
			c.reply(m.ChannelID, "Joined voice channel: "+name)
		}
	}

	c.reply(m.ChannelID, "Searching for: `"+args+"`...")

	start := time.Now()
	tracks, itemErrs, err := c.resolver.Resolve(ctx, args)
	if c.metrics != nil {
		c.metrics.RecordResolve(ctx, time.Since(start), err != nil)
	}
	if err != nil {
		if errors.Is(err, resolver.ErrCatalogUnavailable) {
			c.reply(m.ChannelID, "Spotify links are not supported on this bot (no Spotify credentials configured).")
			return
		}
		c.log.Warn("resolution failed", "guild_id", m.GuildID, "input", args, "err", err)
		c.reply(m.ChannelID, "Could not find a suitable audio source.")
		return
	}
	for _, ie := range itemErrs {
		c.log.Warn("playlist item failed", "guild_id", m.GuildID, "query", ie.Query, "err", ie.Err)
		c.reply(m.ChannelID, "Could not find a suitable audio source for `"+ie.Query+"`.")
	}

	for _, t := range tracks {
		t.RequestedBy = m.Author.Username
		t.RequesterAvatarURL = m.Author.AvatarURL("")
		t.ChannelID = m.ChannelID

		queued, err := eng.EnqueueOrPlay(t)
		if err != nil {
			c.log.Warn("enqueue failed", "guild_id", m.GuildID, "title", t.Title, "err", err)
			c.reply(m.ChannelID, "Bot is not connected to a voice channel anymore.")
			return
		}
		// A track that starts immediately is announced by the notifier.
		if queued {
			c.reply(m.ChannelID, "Added to queue: **"+t.Title+"** (Requested by: "+t.RequestedBy+")")
		}
	}
}
