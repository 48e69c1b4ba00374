package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/pkg/audio"
)

// Platform joins Discord voice channels through an active gateway session.
// It tracks one connection per guild and reuses it when asked to connect to
// the channel it is already on.
type Platform struct {
	session *discordgo.Session

	mu      sync.Mutex
	conns   map[string]*connection // guild ID -> active connection
	onDelta func(delta int)
}

var _ audio.Platform = (*Platform)(nil)

// NewPlatform creates a Platform bound to an open gateway session.
func NewPlatform(session *discordgo.Session) *Platform {
	return &Platform{
		session: session,
		conns:   make(map[string]*connection),
	}
}

// SetConnectionGauge registers a callback invoked with +1 when a guild voice
// connection is established and -1 when one closes. Feeds the voice
// connection metric; set before the first Connect.
func (p *Platform) SetConnectionGauge(fn func(delta int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDelta = fn
}

// Connect implements [audio.Platform]. ChannelVoiceJoin moves the bot when it
// is already in a different channel of the guild, so relocation needs no
// special handling beyond replacing the tracked connection.
func (p *Platform) Connect(ctx context.Context, guildID, channelID string) (audio.Connection, error) {
	p.mu.Lock()
	existing := p.conns[guildID]
	p.mu.Unlock()

	if existing != nil {
		if existing.ChannelID() == channelID {
			return existing, nil
		}
		// Moving channels tears down the running stream first. Disconnect
		// drops the tracked connection through its close hook.
		_ = existing.Disconnect()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discord: connect: %w", err)
	}

	vc, err := p.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("discord: join voice channel %s: %w", channelID, err)
	}

	conn := newConnection(vc, func() { p.dropConnection(guildID) })
	p.mu.Lock()
	p.conns[guildID] = conn
	onDelta := p.onDelta
	p.mu.Unlock()
	if onDelta != nil {
		onDelta(1)
	}
	return conn, nil
}

// dropConnection forgets a guild's connection once it closed, wherever the
// Disconnect came from, so a later Connect never hands out a dead connection.
func (p *Platform) dropConnection(guildID string) {
	p.mu.Lock()
	delete(p.conns, guildID)
	onDelta := p.onDelta
	p.mu.Unlock()
	if onDelta != nil {
		onDelta(-1)
	}
}

// DisconnectAll tears down every tracked voice connection. Called during
// shutdown.
func (p *Platform) DisconnectAll() {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*connection)
	p.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Disconnect()
	}
}
