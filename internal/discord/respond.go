package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Messenger is the slice of the Discord API the bot uses to talk to text
// channels. *discordgo.Session satisfies it; tests substitute a recorder.
type Messenger interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Reply sends content to a text channel, logging delivery failures instead
// of surfacing them; a failed user notice must never fail the operation.
func Reply(m Messenger, channelID, content string) {
	if _, err := m.ChannelMessageSend(channelID, content); err != nil {
		slog.Warn("discord: failed to send message", "channel_id", channelID, "err", err)
	}
}

// AckComponent acknowledges a component interaction without changing the
// message; the panel is re-rendered separately once the action took effect.
func AckComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		slog.Warn("discord: failed to ack component", "custom_id", i.MessageComponentData().CustomID, "err", err)
	}
}

// RespondEphemeral sends an ephemeral text response to an interaction. Used
// for precondition rejections on panel buttons.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("discord: failed to send ephemeral response", "err", err)
	}
}
