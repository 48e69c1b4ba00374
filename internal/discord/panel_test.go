package discord_test

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/discord"
	"github.com/MrWong99/troubadour/internal/discord/mock"
	"github.com/MrWong99/troubadour/internal/player"
)

func playingSnapshot(guildID string) player.Snapshot {
	return player.Snapshot{
		GuildID: guildID,
		Status:  player.StatusPlaying,
		Current: &player.Track{
			Title:       "Some Song",
			PageURL:     "https://video.example/watch?v=1",
			RequestedBy: "alice",
			ChannelID:   "chan-1",
		},
		HasSource: true,
	}
}

func panelButtons(t *testing.T, components []discordgo.MessageComponent) []discordgo.Button {
	t.Helper()
	if len(components) != 1 {
		t.Fatalf("component rows = %d, want 1", len(components))
	}
	row, ok := components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("component row type = %T, want ActionsRow", components[0])
	}
	buttons := make([]discordgo.Button, 0, len(row.Components))
	for _, c := range row.Components {
		b, ok := c.(discordgo.Button)
		if !ok {
			t.Fatalf("component type = %T, want Button", c)
		}
		buttons = append(buttons, b)
	}
	return buttons
}

func TestPublishPostsPanelWithControls(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	p := discord.NewPanelManager(m, nil)

	p.Publish(playingSnapshot("guild-1"))

	if len(m.Complex) != 1 {
		t.Fatalf("published messages = %d, want 1", len(m.Complex))
	}
	msg := m.Complex[0]
	if len(msg.Embeds) != 1 || msg.Embeds[0].Description == "" {
		t.Error("panel embed missing the track description")
	}
	buttons := panelButtons(t, msg.Components)
	if len(buttons) != 3 {
		t.Fatalf("buttons = %d, want 3", len(buttons))
	}
	if buttons[0].Label != "Pause" || buttons[0].CustomID != discord.PanelToggleID {
		t.Errorf("toggle button = %q/%q, want Pause/%s", buttons[0].Label, buttons[0].CustomID, discord.PanelToggleID)
	}
	for _, b := range buttons {
		if b.Disabled {
			t.Errorf("button %s disabled on a live panel", b.CustomID)
		}
	}
}

func TestPublishRetiresPreviousPanel(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	p := discord.NewPanelManager(m, nil)

	p.Publish(playingSnapshot("guild-1"))
	p.Publish(playingSnapshot("guild-1"))

	if len(m.Complex) != 2 {
		t.Fatalf("published messages = %d, want 2", len(m.Complex))
	}
	if len(m.Edits) != 1 {
		t.Fatalf("edits = %d, want 1 (the retirement of the first panel)", len(m.Edits))
	}
	edit := m.Edits[0]
	if edit.ID != "msg-1" {
		t.Errorf("retired message = %q, want the first panel msg-1", edit.ID)
	}
	for _, b := range panelButtons(t, *edit.Components) {
		if !b.Disabled {
			t.Errorf("button %s still enabled on the retired panel", b.CustomID)
		}
	}
}

func TestUpdateReflectsPausedState(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	p := discord.NewPanelManager(m, nil)

	p.Publish(playingSnapshot("guild-1"))

	paused := playingSnapshot("guild-1")
	paused.Status = player.StatusPaused
	p.Update(paused)

	if len(m.Edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(m.Edits))
	}
	buttons := panelButtons(t, *m.Edits[0].Components)
	if buttons[0].Label != "Resume" {
		t.Errorf("toggle label after pause = %q, want Resume", buttons[0].Label)
	}
}

func TestUpdateWithoutLivePanelIsNoOp(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	p := discord.NewPanelManager(m, nil)

	p.Update(playingSnapshot("guild-1"))
	if len(m.Edits) != 0 {
		t.Errorf("edits = %d, want 0", len(m.Edits))
	}
}

func TestRetireToleratesDeletedMessage(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	p := discord.NewPanelManager(m, nil)

	p.Publish(playingSnapshot("guild-1"))
	m.EditError = errors.New("Unknown Message")

	p.Retire("guild-1")
	// The reference is gone either way; a second retire edits nothing.
	m.EditError = nil
	p.Retire("guild-1")
	if len(m.Edits) != 1 {
		t.Errorf("edits = %d, want 1", len(m.Edits))
	}
}

func TestRetireWithoutPanelIsNoOp(t *testing.T) {
	t.Parallel()
	m := &mock.Messenger{}
	p := discord.NewPanelManager(m, nil)

	p.Retire("guild-1")
	if len(m.Edits) != 0 {
		t.Errorf("edits = %d, want 0", len(m.Edits))
	}
}
