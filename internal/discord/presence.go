package discord

import "github.com/bwmarrin/discordgo"

// VoiceChannelOf returns the voice channel userID is currently in within
// guildID, or "" when they are in none. Reads the gateway state cache; the
// GuildVoiceStates intent keeps it current.
func VoiceChannelOf(st *discordgo.State, guildID, userID string) string {
	if st == nil {
		return ""
	}
	vs, err := st.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}
