// Package discord provides the gateway layer for Troubadour: it owns the
// discordgo session lifecycle, routes prefix text commands and panel button
// interactions to registered handlers, and keeps the playback panel and
// announcements flowing back to text channels.
package discord

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Config holds Discord bot configuration.
type Config struct {
	// Token is the bot token.
	Token string

	// CommandPrefix introduces text commands, e.g. "!".
	CommandPrefix string
}

// Bot owns the Discord gateway connection and routes messages and
// interactions to registered handlers.
type Bot struct {
	session   *discordgo.Session
	router    *CommandRouter
	prefix    string
	closeOnce sync.Once
}

// New creates a Bot and connects to the gateway. Command handlers may be
// registered on the router before or after New returns; dispatch looks them
// up per message.
func New(cfg Config) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	// MessageContent is required to read prefix commands; GuildVoiceStates
	// keeps the state cache current for the same-channel checks.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	b := &Bot{
		session: session,
		router:  NewCommandRouter(),
		prefix:  cfg.CommandPrefix,
	}

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("discord gateway ready",
			"user", r.User.Username, "guilds", len(r.Guilds))
	})
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.router.HandleInteraction(s, i)
	})

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}
	return b, nil
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return // playback is guild-scoped; DMs carry no voice context
	}
	b.router.DispatchMessage(b.prefix, m)
}

// Session returns the underlying discordgo session, for subsystems needing
// direct API access (voice joins, panel edits).
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Ready reports whether the gateway session has completed its READY
// handshake. Used as the readiness probe.
func (b *Bot) Ready() bool {
	b.session.RLock()
	defer b.session.RUnlock()
	return b.session.DataReady
}

// Router returns the command router for registering handlers.
func (b *Bot) Router() *CommandRouter {
	return b.router
}

// State returns the gateway state cache.
func (b *Bot) State() *discordgo.State {
	return b.session.State
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		if err := b.session.Close(); err != nil {
			closeErr = fmt.Errorf("discord: close session: %w", err)
		}
		slog.Info("discord bot closed")
	})
	return closeErr
}
