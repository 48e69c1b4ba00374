// Package discord implements the audio transport contract on top of
// discordgo voice connections: media URLs are decoded by an ffmpeg
// subprocess, run through a volume stage, Opus-encoded, and sent over the
// voice websocket.
package discord

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/troubadour/pkg/audio"
)

// ErrStreamActive is returned by Play when a stream is already running on
// the connection.
var ErrStreamActive = errors.New("discord: a stream is already active")

// ErrNoStream is returned by Pause/Resume when no stream is active.
var ErrNoStream = errors.New("discord: no active stream")

// connection is an active voice session in one guild.
// It implements [audio.Connection].
type connection struct {
	vc      *discordgo.VoiceConnection
	onClose func()

	mu      sync.Mutex
	current *source

	closed    chan struct{}
	closeOnce sync.Once
}

var _ audio.Connection = (*connection)(nil)

// newConnection wraps an established voice connection. onClose fires exactly
// once when the connection is torn down, from any caller of Disconnect.
func newConnection(vc *discordgo.VoiceConnection, onClose func()) *connection {
	return &connection{
		vc:      vc,
		onClose: onClose,
		closed:  make(chan struct{}),
	}
}

// ChannelID implements [audio.Connection].
func (c *connection) ChannelID() string {
	return c.vc.ChannelID
}

// Play implements [audio.Connection]. The stream loop runs on its own
// goroutine; onDone fires from there after the connection has cleared the
// stream slot, so callers may start the next track from inside the callback.
func (c *connection) Play(mediaURL string, onDone func(error)) (audio.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return nil, fmt.Errorf("discord: play: connection closed")
	default:
	}
	if c.current != nil {
		return nil, ErrStreamActive
	}

	src, err := newSource(mediaURL)
	if err != nil {
		return nil, err
	}
	src.onDone = func(streamErr error) {
		c.mu.Lock()
		if c.current == src {
			c.current = nil
		}
		c.mu.Unlock()
		_ = c.vc.Speaking(false)
		if onDone != nil {
			onDone(streamErr)
		}
	}

	if err := src.start(); err != nil {
		return nil, err
	}
	if err := c.vc.Speaking(true); err != nil {
		src.stop()
		_ = src.cmd.Wait()
		return nil, fmt.Errorf("discord: set speaking: %w", err)
	}

	c.current = src
	go src.run(c.send)
	return src, nil
}

// send delivers one Opus packet to the voice websocket. It returns false
// once the connection is closing so the stream loop can wind down.
func (c *connection) send(pkt []byte) bool {
	select {
	case <-c.closed:
		return false
	case c.vc.OpusSend <- pkt:
		return true
	}
}

// Pause implements [audio.Connection].
func (c *connection) Pause() error {
	c.mu.Lock()
	src := c.current
	c.mu.Unlock()
	if src == nil {
		return ErrNoStream
	}
	src.pause()
	return nil
}

// Resume implements [audio.Connection].
func (c *connection) Resume() error {
	c.mu.Lock()
	src := c.current
	c.mu.Unlock()
	if src == nil {
		return ErrNoStream
	}
	src.resume()
	return nil
}

// Stop implements [audio.Connection].
func (c *connection) Stop() {
	c.mu.Lock()
	src := c.current
	c.mu.Unlock()
	if src != nil {
		src.stop()
	}
}

// IsPlaying implements [audio.Connection].
func (c *connection) IsPlaying() bool {
	c.mu.Lock()
	src := c.current
	c.mu.Unlock()
	return src != nil && !src.isPaused()
}

// IsPaused implements [audio.Connection].
func (c *connection) IsPaused() bool {
	c.mu.Lock()
	src := c.current
	c.mu.Unlock()
	return src != nil && src.isPaused()
}

// Disconnect implements [audio.Connection].
func (c *connection) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.Stop()
		err = c.vc.Disconnect()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}
