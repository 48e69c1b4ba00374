package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/discord"
)

func (c *Commands) handlePing(m *discordgo.MessageCreate, _ string) {
	c.record("ping")
	c.reply(m.ChannelID, "Pong!")
}

func (c *Commands) handleJoin(m *discordgo.MessageCreate, _ string) {
	c.record("join")
	userChannel := discord.VoiceChannelOf(c.state, m.GuildID, m.Author.ID)
	if userChannel == "" {
		c.reply(m.ChannelID, "You need to be in a voice channel to use this command.")
		return
	}

	eng := c.manager.GetOrCreate(m.GuildID)
	if botChannel, ok := eng.Connected(); ok && botChannel == userChannel {
		c.reply(m.ChannelID, "I am already in your voice channel.")
		return
	}

	moved, err := eng.Connect(context.Background(), userChannel)
	if err != nil {
		c.log.Warn("voice join failed", "guild_id", m.GuildID, "channel_id", userChannel, "err", err)
		c.reply(m.ChannelID, "Could not join your voice channel.")
		return
	}
	name := c.channelName(userChannel)
	switch {
	case moved && name != "":
		c.reply(m.ChannelID, "Moved to your voice channel: "+name)
	case moved:
		c.reply(m.ChannelID, "Moved to your voice channel.")
	case name != "":
		c.reply(m.ChannelID, "Joined voice channel: "+name)
	default:
		c.reply(m.ChannelID, "Joined your voice channel.")
	}
}

func (c *Commands) handleLeave(m *discordgo.MessageCreate, _ string) {
	c.record("leave")
	eng := c.manager.Get(m.GuildID)
	if eng == nil {
		c.reply(m.ChannelID, "I am not in a voice channel.")
		return
	}
	if _, ok := eng.Connected(); !ok {
		c.reply(m.ChannelID, "I am not in a voice channel.")
		return
	}
	if err := eng.Stop(); err != nil {
		c.log.Warn("voice leave failed", "guild_id", m.GuildID, "err", err)
	}
	c.reply(m.ChannelID, "Left the voice channel.")
}
