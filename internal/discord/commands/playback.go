package commands

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/player"
)

func (c *Commands) handlePause(m *discordgo.MessageCreate, _ string) {
	c.record("pause")
	eng, reason := c.guardPlayback(m.GuildID, m.Author.ID)
	if eng == nil {
		c.reply(m.ChannelID, reason)
		return
	}
	switch err := eng.Pause(); {
	case errors.Is(err, player.ErrNothingPlaying):
		c.reply(m.ChannelID, "I am not playing anything right now.")
	case err != nil:
		c.log.Warn("pause failed", "guild_id", m.GuildID, "err", err)
		c.reply(m.ChannelID, "Could not pause playback.")
	default:
		c.reply(m.ChannelID, "Playback paused.")
	}
}

func (c *Commands) handleResume(m *discordgo.MessageCreate, _ string) {
	c.record("resume")
	eng, reason := c.guardPlayback(m.GuildID, m.Author.ID)
	if eng == nil {
		c.reply(m.ChannelID, reason)
		return
	}
	switch err := eng.Resume(); {
	case errors.Is(err, player.ErrNotPaused):
		c.reply(m.ChannelID, "Playback is not paused.")
	case err != nil:
		c.log.Warn("resume failed", "guild_id", m.GuildID, "err", err)
		c.reply(m.ChannelID, "Could not resume playback.")
	default:
		c.reply(m.ChannelID, "Playback resumed.")
	}
}

func (c *Commands) handleStop(m *discordgo.MessageCreate, _ string) {
	c.record("stop")
	eng, reason := c.guardPlayback(m.GuildID, m.Author.ID)
	if eng == nil {
		c.reply(m.ChannelID, reason)
		return
	}
	snap, _ := eng.Snapshot()
	if err := eng.Stop(); err != nil {
		c.log.Warn("stop failed", "guild_id", m.GuildID, "err", err)
	}
	if len(snap.Queue) > 0 {
		c.reply(m.ChannelID, "Queue cleared.")
	}
	c.reply(m.ChannelID, "Disconnected from the voice channel.")
}

func (c *Commands) handleSkip(m *discordgo.MessageCreate, _ string) {
	c.record("skip")
	eng, reason := c.guardPlayback(m.GuildID, m.Author.ID)
	if eng == nil {
		c.reply(m.ChannelID, reason)
		return
	}
	switch err := eng.Skip(); {
	case errors.Is(err, player.ErrNothingPlaying):
		c.reply(m.ChannelID, "Not playing anything to skip.")
	case err != nil:
		c.log.Warn("skip failed", "guild_id", m.GuildID, "err", err)
	default:
		c.reply(m.ChannelID, "Skipping current song...")
	}
}
