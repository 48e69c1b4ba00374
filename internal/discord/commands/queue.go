package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/player"
)

// queueRenderLimit keeps the queue listing under the Discord message length
// cap, with room for the truncation notice.
const queueRenderLimit = 1900

func (c *Commands) handleQueue(m *discordgo.MessageCreate, _ string) {
	c.record("queue")
	eng := c.manager.Get(m.GuildID)
	if eng == nil {
		c.reply(m.ChannelID, "The queue is currently empty and nothing is playing.")
		return
	}
	snap, err := eng.Snapshot()
	if err != nil {
		return
	}

	var b strings.Builder
	if snap.Current != nil {
		fmt.Fprintf(&b, "Now Playing: **%s** (Requested by: %s)\n\n", snap.Current.Title, snap.Current.RequestedBy)
	}
	if len(snap.Queue) == 0 {
		if b.Len() == 0 {
			c.reply(m.ChannelID, "The queue is currently empty and nothing is playing.")
			return
		}
		c.reply(m.ChannelID, b.String()+"The upcoming queue is empty.")
		return
	}

	b.WriteString("Upcoming Queue:\n")
	for i, t := range snap.Queue {
		fmt.Fprintf(&b, "%d. **%s** (Requested by: %s)\n", i+1, t.Title, t.RequestedBy)
	}

	response := b.String()
	if len(response) > queueRenderLimit {
		response = response[:queueRenderLimit] + "\n... (queue too long to display fully)"
	}
	c.reply(m.ChannelID, response)
}

func (c *Commands) handleNowPlaying(m *discordgo.MessageCreate, _ string) {
	c.record("nowplaying")
	eng := c.manager.Get(m.GuildID)
	if eng == nil {
		c.reply(m.ChannelID, "Nothing is currently playing.")
		return
	}
	snap, err := eng.Snapshot()
	if err != nil || snap.Current == nil {
		c.reply(m.ChannelID, "Nothing is currently playing.")
		return
	}
	c.reply(m.ChannelID, fmt.Sprintf("Now Playing: **%s** (Requested by: %s)", snap.Current.Title, snap.Current.RequestedBy))
}

func (c *Commands) handleShuffle(m *discordgo.MessageCreate, _ string) {
	c.record("shuffle")
	eng := c.manager.Get(m.GuildID)
	if eng == nil {
		c.reply(m.ChannelID, "The upcoming queue is empty.")
		return
	}
	switch err := eng.Shuffle(); {
	case errors.Is(err, player.ErrEmptyQueue):
		c.reply(m.ChannelID, "The upcoming queue is empty.")
	case err != nil:
		c.log.Warn("shuffle failed", "guild_id", m.GuildID, "err", err)
	default:
		c.reply(m.ChannelID, "Queue shuffled.")
	}
}

func (c *Commands) handleLoop(m *discordgo.MessageCreate, args string) {
	c.record("loop")
	eng := c.manager.GetOrCreate(m.GuildID)
	if args == "" {
		mode, err := eng.LoopMode()
		if err != nil {
			return
		}
		c.reply(m.ChannelID, "Current loop mode: "+mode.String()+".")
		return
	}
	mode, ok := player.ParseLoopMode(strings.ToLower(args))
	if !ok {
		c.reply(m.ChannelID, "Usage: loop [off|song]")
		return
	}
	if err := eng.SetLoopMode(mode); err != nil {
		return
	}
	c.reply(m.ChannelID, "Loop mode set to: "+mode.String()+".")
}
