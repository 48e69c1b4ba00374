// Package mock provides test doubles for the audio transport interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/troubadour/pkg/audio"
)

// Platform is a configurable mock implementing [audio.Platform].
type Platform struct {
	mu sync.Mutex

	// ConnectResult is returned from Connect when ConnectError is nil.
	// When nil, a fresh *Connection is created per guild and reused.
	ConnectResult audio.Connection
	// ConnectResults queues per-call results consumed before ConnectResult.
	ConnectResults []audio.Connection
	ConnectError   error

	ConnectCalls []ConnectCall

	conns map[string]*Connection
}

// ConnectCall records the arguments of one Connect invocation.
type ConnectCall struct {
	GuildID   string
	ChannelID string
}

var _ audio.Platform = (*Platform)(nil)

func (p *Platform) Connect(_ context.Context, guildID, channelID string) (audio.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{GuildID: guildID, ChannelID: channelID})
	if p.ConnectError != nil {
		return nil, p.ConnectError
	}
	if len(p.ConnectResults) > 0 {
		conn := p.ConnectResults[0]
		p.ConnectResults = p.ConnectResults[1:]
		return conn, nil
	}
	if p.ConnectResult != nil {
		return p.ConnectResult, nil
	}
	if p.conns == nil {
		p.conns = make(map[string]*Connection)
	}
	conn, ok := p.conns[guildID]
	if !ok || conn.ChannelID() != channelID {
		conn = &Connection{Channel: channelID}
		p.conns[guildID] = conn
	}
	return conn, nil
}

// Connection is a configurable mock implementing [audio.Connection].
// Tests drive stream completion by calling [Connection.FinishStream].
type Connection struct {
	mu sync.Mutex

	// Channel is returned from ChannelID.
	Channel string

	// PlayError, when set, is returned from Play.
	PlayError error
	// PlayErrors queues per-call errors consumed before PlayError; a nil
	// entry means that call succeeds.
	PlayErrors []error

	PlayCalls       []string // media URLs passed to Play
	PauseCalls      int
	ResumeCalls     int
	StopCalls       int
	DisconnectCalls int

	playing bool
	paused  bool
	onDone  func(error)
	source  *Source
}

var _ audio.Connection = (*Connection)(nil)

func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Channel
}

func (c *Connection) Play(mediaURL string, onDone func(error)) (audio.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PlayCalls = append(c.PlayCalls, mediaURL)
	if len(c.PlayErrors) > 0 {
		err := c.PlayErrors[0]
		c.PlayErrors = c.PlayErrors[1:]
		if err != nil {
			return nil, err
		}
	} else if c.PlayError != nil {
		return nil, c.PlayError
	}
	c.playing = true
	c.paused = false
	c.onDone = onDone
	c.source = &Source{volume: 100}
	return c.source, nil
}

// PlayCount returns the number of Play invocations so far. Safe to call
// while other goroutines drive the connection.
func (c *Connection) PlayCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.PlayCalls)
}

// FinishStream simulates the active stream ending with err, invoking the
// registered onDone callback the way the real transport does: on a separate
// goroutine after the stream slot is cleared. It blocks until the callback
// returns.
func (c *Connection) FinishStream(err error) {
	c.mu.Lock()
	onDone := c.onDone
	c.onDone = nil
	c.playing = false
	c.paused = false
	c.source = nil
	c.mu.Unlock()
	if onDone == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		onDone(err)
	}()
	<-done
}

func (c *Connection) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PauseCalls++
	c.paused = true
	return nil
}

func (c *Connection) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResumeCalls++
	c.paused = false
	return nil
}

func (c *Connection) Stop() {
	c.mu.Lock()
	c.StopCalls++
	active := c.playing
	c.mu.Unlock()
	if active {
		c.FinishStream(nil)
	}
}

func (c *Connection) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing && !c.paused
}

func (c *Connection) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing && c.paused
}

func (c *Connection) Disconnect() error {
	c.mu.Lock()
	c.DisconnectCalls++
	active := c.playing
	c.mu.Unlock()
	if active {
		c.FinishStream(nil)
	}
	return nil
}

// Source is a mock implementing [audio.Source].
type Source struct {
	mu     sync.Mutex
	volume int
}

var _ audio.Source = (*Source)(nil)

func (s *Source) SetVolume(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if percent < 0 {
		percent = 0
	} else if percent > 200 {
		percent = 200
	}
	s.volume = percent
}

func (s *Source) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}
