package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/discord"
	"github.com/MrWong99/troubadour/internal/player"
)

// Panel buttons are gated by the same preconditions as the equivalent text
// commands; rejections go out as ephemeral responses so they only reach the
// clicker.

func (c *Commands) handlePanelToggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.record("panel:toggle")
	eng, reason := c.guardPlayback(i.GuildID, interactionUserID(i))
	if eng == nil {
		discord.RespondEphemeral(s, i, reason)
		return
	}
	discord.AckComponent(s, i)

	snap, err := eng.Snapshot()
	if err != nil {
		return
	}
	if snap.Status == player.StatusPaused {
		err = eng.Resume()
	} else {
		err = eng.Pause()
	}
	if err != nil {
		c.log.Debug("panel toggle rejected", "guild_id", i.GuildID, "err", err)
	}
}

func (c *Commands) handlePanelSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.record("panel:skip")
	eng, reason := c.guardPlayback(i.GuildID, interactionUserID(i))
	if eng == nil {
		discord.RespondEphemeral(s, i, reason)
		return
	}
	discord.AckComponent(s, i)
	if err := eng.Skip(); err != nil {
		c.log.Debug("panel skip rejected", "guild_id", i.GuildID, "err", err)
	}
}

func (c *Commands) handlePanelStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.record("panel:stop")
	eng, reason := c.guardPlayback(i.GuildID, interactionUserID(i))
	if eng == nil {
		discord.RespondEphemeral(s, i, reason)
		return
	}
	discord.AckComponent(s, i)
	if err := eng.Stop(); err != nil {
		c.log.Warn("panel stop failed", "guild_id", i.GuildID, "err", err)
	}
}
