package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/player"
)

func (c *Commands) handleVolume(m *discordgo.MessageCreate, args string) {
	c.record("volume")
	eng, reason := c.guardPlayback(m.GuildID, m.Author.ID)
	if eng == nil {
		c.reply(m.ChannelID, reason)
		return
	}

	if args == "" {
		v, err := eng.Volume()
		if err != nil {
			return
		}
		c.reply(m.ChannelID, fmt.Sprintf("Current volume is: %d%%", v))
		return
	}

	level, err := strconv.Atoi(args)
	if err != nil {
		c.reply(m.ChannelID, "Invalid volume level. Please use a number between 0 and 200.")
		return
	}
	if level < 0 || level > 200 {
		c.reply(m.ChannelID, "Volume must be between 0 and 200.")
		return
	}

	switch err := eng.SetVolume(level); {
	case errors.Is(err, player.ErrNothingPlaying):
		c.reply(m.ChannelID, "Not currently playing anything or volume is not adjustable.")
	case err != nil:
		c.log.Warn("volume change failed", "guild_id", m.GuildID, "err", err)
	default:
		c.reply(m.ChannelID, fmt.Sprintf("Volume set to %d%%.", level))
	}
}
