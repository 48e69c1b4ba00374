package discord

import (
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/player"
)

// Component custom IDs of the playback panel buttons.
const (
	PanelToggleID = "panel:toggle"
	PanelSkipID   = "panel:skip"
	PanelStopID   = "panel:stop"
)

// PanelManager keeps at most one live playback panel per guild. A new panel
// retires (disables) the previous one instead of deleting it, and edits
// against messages that were deleted externally are treated as benign.
// It implements [player.Surface].
type PanelManager struct {
	messenger Messenger
	log       *slog.Logger

	mu   sync.Mutex
	live map[string]*panelRef // guild ID → live panel
}

type panelRef struct {
	channelID string
	messageID string
	snap      player.Snapshot
}

var _ player.Surface = (*PanelManager)(nil)

// NewPanelManager creates a PanelManager sending through m.
func NewPanelManager(m Messenger, log *slog.Logger) *PanelManager {
	if log == nil {
		log = slog.Default()
	}
	return &PanelManager{
		messenger: m,
		log:       log,
		live:      make(map[string]*panelRef),
	}
}

// Publish retires the guild's previous panel and posts a fresh one for the
// snapshot's current track, in the channel the track was requested from.
func (p *PanelManager) Publish(snap player.Snapshot) {
	if snap.Current == nil || snap.Current.ChannelID == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.retireLocked(snap.GuildID)

	embed, components := renderPanel(snap, false)
	msg, err := p.messenger.ChannelMessageSendComplex(snap.Current.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		p.log.Warn("failed to publish panel", "guild_id", snap.GuildID, "err", err)
		return
	}
	p.live[snap.GuildID] = &panelRef{
		channelID: snap.Current.ChannelID,
		messageID: msg.ID,
		snap:      snap,
	}
}

// Update re-renders the guild's live panel in place so the buttons never
// lie about transport state. Without a live panel this is a no-op.
func (p *PanelManager) Update(snap player.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref, ok := p.live[snap.GuildID]
	if !ok {
		return
	}

	embed, components := renderPanel(snap, false)
	if err := p.editPanel(ref, embed, components); err != nil {
		// Message likely deleted externally; forget it.
		p.log.Debug("panel update failed, dropping panel",
			"guild_id", snap.GuildID, "err", err)
		delete(p.live, snap.GuildID)
		return
	}
	ref.snap = snap
}

// Retire disables the guild's live panel and clears the stored reference.
func (p *PanelManager) Retire(guildID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retireLocked(guildID)
}

// retireLocked disables and forgets the live panel. Callers hold p.mu.
func (p *PanelManager) retireLocked(guildID string) {
	ref, ok := p.live[guildID]
	if !ok {
		return
	}
	delete(p.live, guildID)

	embed, components := renderPanel(ref.snap, true)
	if err := p.editPanel(ref, embed, components); err != nil {
		// The message being gone already is the same outcome.
		p.log.Debug("panel retire edit failed", "guild_id", guildID, "err", err)
	}
}

func (p *PanelManager) editPanel(ref *panelRef, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := p.messenger.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    ref.channelID,
		ID:         ref.messageID,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

// renderPanel builds the panel message for a playback snapshot. It is a
// pure function of the snapshot: button labels and enablement derive from
// the playback status, nothing is captured from the command that caused
// the render.
func renderPanel(snap player.Snapshot, retired bool) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title: "Now Playing",
		Color: 0x5865f2,
	}
	if cur := snap.Current; cur != nil {
		if cur.PageURL != "" {
			embed.Description = "[" + cur.Title + "](" + cur.PageURL + ")"
		} else {
			embed.Description = "**" + cur.Title + "**"
		}
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Requested by", Value: orDash(cur.RequestedBy), Inline: true},
			{Name: "Duration", Value: cur.DurationLabel(), Inline: true},
			{Name: "Uploader", Value: orDash(cur.Uploader), Inline: true},
		}
		if cur.ThumbnailURL != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.ThumbnailURL}
		}
		if cur.RequesterAvatarURL != "" {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text:    "Requested by " + cur.RequestedBy,
				IconURL: cur.RequesterAvatarURL,
			}
		}
	}

	toggleLabel := "Pause"
	if snap.Status == player.StatusPaused {
		toggleLabel = "Resume"
	}
	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				CustomID: PanelToggleID,
				Label:    toggleLabel,
				Style:    discordgo.PrimaryButton,
				Disabled: retired,
			},
			discordgo.Button{
				CustomID: PanelSkipID,
				Label:    "Skip",
				Style:    discordgo.SecondaryButton,
				Disabled: retired,
			},
			discordgo.Button{
				CustomID: PanelStopID,
				Label:    "Stop",
				Style:    discordgo.DangerButton,
				Disabled: retired,
			},
		},
	}
	return embed, []discordgo.MessageComponent{row}
}

func orDash(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
