package discord_test

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/internal/discord"
)

func message(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   content,
			GuildID:   "guild-1",
			ChannelID: "chan-1",
			Author:    &discordgo.User{ID: "user-1"},
		},
	}
}

func TestDispatchMessage(t *testing.T) {
	t.Parallel()
	r := discord.NewCommandRouter()

	var gotArgs string
	calls := 0
	r.RegisterCommand("play", func(_ *discordgo.MessageCreate, args string) {
		calls++
		gotArgs = args
	}, "p")

	if !r.DispatchMessage("!", message("!play some song  ")) {
		t.Fatal("DispatchMessage() did not recognise the command")
	}
	if gotArgs != "some song" {
		t.Errorf("args = %q, want %q", gotArgs, "some song")
	}

	if !r.DispatchMessage("!", message("!p another")) {
		t.Error("DispatchMessage() did not recognise the alias")
	}
	if !r.DispatchMessage("!", message("!PLAY loud")) {
		t.Error("DispatchMessage() is not case-insensitive on the command word")
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestDispatchMessageIgnoresNonCommands(t *testing.T) {
	t.Parallel()
	r := discord.NewCommandRouter()
	r.RegisterCommand("play", func(_ *discordgo.MessageCreate, _ string) {
		t.Error("handler invoked for a non-command message")
	})

	cases := []string{"hello there", "play no prefix", "!", "!unknown", "?play wrong prefix"}
	for _, content := range cases {
		if r.DispatchMessage("!", message(content)) {
			t.Errorf("DispatchMessage(%q) reported a recognised command", content)
		}
	}
}

func TestHandleInteractionComponents(t *testing.T) {
	t.Parallel()
	r := discord.NewCommandRouter()

	var got []string
	r.RegisterComponent("panel:skip", func(_ *discordgo.Session, _ *discordgo.InteractionCreate) {
		got = append(got, "exact")
	})
	r.RegisterComponentPrefix("queue:", func(_ *discordgo.Session, _ *discordgo.InteractionCreate) {
		got = append(got, "prefix")
	})

	interaction := func(customID string) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{
				Type: discordgo.InteractionMessageComponent,
				Data: discordgo.MessageComponentInteractionData{CustomID: customID},
			},
		}
	}

	r.HandleInteraction(nil, interaction("panel:skip"))
	r.HandleInteraction(nil, interaction("queue:page:2"))
	r.HandleInteraction(nil, interaction("something:else"))

	if len(got) != 2 || got[0] != "exact" || got[1] != "prefix" {
		t.Errorf("dispatched handlers = %v, want [exact prefix]", got)
	}
}
