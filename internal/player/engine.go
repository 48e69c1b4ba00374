// Package player implements the per-guild playback coordinator: a FIFO
// track queue, a playback state machine driven by a single goroutine per
// guild, and the advancement logic that turns transport completion signals
// into the next track starting or the guild going idle.
package player

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/MrWong99/troubadour/pkg/audio"
)

var (
	// ErrEngineClosed is returned by every operation after Close.
	ErrEngineClosed = errors.New("player: engine closed")
	// ErrNotConnected is returned when an operation needs a voice connection
	// and none is attached.
	ErrNotConnected = errors.New("player: not connected to a voice channel")
	// ErrNothingPlaying is returned by operations that need an active track.
	ErrNothingPlaying = errors.New("player: nothing is playing")
	// ErrNotPaused is returned by Resume when playback is not paused.
	ErrNotPaused = errors.New("player: playback is not paused")
	// ErrEmptyQueue is returned by Shuffle when there is nothing to shuffle.
	ErrEmptyQueue = errors.New("player: the queue is empty")
)

// Notifier receives playback lifecycle announcements. Implementations post
// them to the originating text channel.
type Notifier interface {
	TrackStarted(t Track)
	TrackFailed(t Track, err error)
	QueueFinished(channelID string)
}

// Surface keeps the interactive control panel of a guild in sync with
// playback. At most one live panel exists per guild: Publish retires the
// previous one before posting, Update re-renders the live panel in place,
// Retire disables it. All three must tolerate the underlying message being
// gone.
type Surface interface {
	Publish(snap Snapshot)
	Update(snap Snapshot)
	Retire(guildID string)
}

// trackDone is the transport completion signal, marshalled onto the engine
// goroutine through the events channel. gen identifies which track start it
// belongs to; a mismatch means the engine already moved on (Stop, channel
// move) and the event is dropped.
type trackDone struct {
	gen int
	err error
}

// Engine owns all playback state of one guild. Every mutation runs on the
// engine's single goroutine: command-path calls are funneled through the ops
// channel, and transport completions arrive as events. That makes queue
// pops, current/handle swaps, and surface transitions free of interleaving.
type Engine struct {
	guildID  string
	log      *slog.Logger
	platform audio.Platform
	notifier Notifier
	surface  Surface

	ops    chan func()
	events chan trackDone
	done   chan struct{}
	once   sync.Once

	// Everything below is owned by the run goroutine.
	st            guildState
	conn          audio.Connection
	handle        audio.Source
	gen           int
	lastChannelID string
}

// NewEngine creates and starts the engine for one guild. defaultVolume is
// the volume percent applied to every track until changed.
func NewEngine(guildID string, platform audio.Platform, defaultVolume int, notifier Notifier, surface Surface, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		guildID:  guildID,
		log:      log,
		platform: platform,
		notifier: notifier,
		surface:  surface,
		ops:      make(chan func()),
		events:   make(chan trackDone, 4),
		done:     make(chan struct{}),
		st:       guildState{status: StatusIdle, volume: defaultVolume},
	}
	go e.run()
	return e
}

// GuildID returns the guild this engine serves.
func (e *Engine) GuildID() string { return e.guildID }

// Close terminates the engine goroutine. Pending and future operations
// return ErrEngineClosed. Close does not tear down playback; call Stop
// first for a clean shutdown.
func (e *Engine) Close() {
	e.once.Do(func() { close(e.done) })
}

func (e *Engine) run() {
	for {
		select {
		case fn := <-e.ops:
			fn()
		case ev := <-e.events:
			if ev.gen != e.gen {
				continue // stale completion from a superseded track
			}
			e.advance(ev.err)
		case <-e.done:
			return
		}
	}
}

// do runs fn on the engine goroutine and waits for it to complete.
func (e *Engine) do(fn func()) error {
	ran := make(chan struct{})
	op := func() {
		defer close(ran)
		fn()
	}
	select {
	case e.ops <- op:
	case <-e.done:
		return ErrEngineClosed
	}
	select {
	case <-ran:
		return nil
	case <-e.done:
		return ErrEngineClosed
	}
}

// Connect joins (or moves to) the given voice channel. moved reports that
// the bot was already connected elsewhere in the guild and relocated. A move
// while a track is playing restarts that track from the beginning on the new
// connection and keeps the queue intact; performing the whole exchange on
// the engine goroutine means the old connection's completion signal is
// already stale by the time it can arrive.
func (e *Engine) Connect(ctx context.Context, channelID string) (moved bool, err error) {
	opErr := e.do(func() {
		if e.conn != nil {
			if e.conn.ChannelID() == channelID {
				return
			}
			moved = true
		}
		conn, connErr := e.platform.Connect(ctx, e.guildID, channelID)
		if connErr != nil {
			// The old connection and generation stay valid, so the current
			// track's completion still advances the queue.
			err = connErr
			return
		}
		e.gen++ // a completion from the old connection must not advance us
		e.conn = conn
		e.handle = nil
		if e.st.current != nil {
			cur := *e.st.current
			e.st.current = nil
			e.st.queue = append([]Track{cur}, e.st.queue...)
			e.startNext(false)
		}
	})
	if opErr != nil {
		return false, opErr
	}
	return moved, err
}

// Connected reports whether a voice connection is attached and the channel
// it is on.
func (e *Engine) Connected() (channelID string, ok bool) {
	_ = e.do(func() {
		if e.conn != nil {
			channelID = e.conn.ChannelID()
			ok = true
		}
	})
	return channelID, ok
}

// EnqueueOrPlay appends t to the queue, starting it immediately when nothing
// is current. queued reports whether the track went to the queue rather than
// starting playback.
func (e *Engine) EnqueueOrPlay(t Track) (queued bool, err error) {
	opErr := e.do(func() {
		if e.conn == nil {
			err = ErrNotConnected
			return
		}
		e.st.queue = append(e.st.queue, t)
		if e.st.current != nil {
			queued = true
			return
		}
		e.startNext(false)
	})
	if opErr != nil {
		return false, opErr
	}
	return queued, err
}

// Skip stops the current track; the transport completion then advances the
// queue. The queue itself is untouched here.
func (e *Engine) Skip() error {
	var err error
	opErr := e.do(func() {
		if e.st.status != StatusPlaying && e.st.status != StatusPaused {
			err = ErrNothingPlaying
			return
		}
		e.conn.Stop()
	})
	if opErr != nil {
		return opErr
	}
	return err
}

// Stop tears down all playback state of the guild: queue, current track,
// volume handle, voice connection, and control panel. Valid from any state
// and idempotent.
func (e *Engine) Stop() error {
	return e.do(func() {
		e.gen++ // the stopped stream's completion must not advance
		e.st.queue = nil
		e.st.current = nil
		e.handle = nil
		e.st.status = StatusIdle
		if e.conn != nil {
			e.conn.Stop()
			_ = e.conn.Disconnect()
			e.conn = nil
		}
		if e.surface != nil {
			e.surface.Retire(e.guildID)
		}
	})
}

// Pause suspends the current track.
func (e *Engine) Pause() error {
	var err error
	opErr := e.do(func() {
		if e.st.status != StatusPlaying {
			err = ErrNothingPlaying
			return
		}
		if pauseErr := e.conn.Pause(); pauseErr != nil {
			err = pauseErr
			return
		}
		e.st.status = StatusPaused
		if e.surface != nil {
			e.surface.Update(e.snapshot())
		}
	})
	if opErr != nil {
		return opErr
	}
	return err
}

// Resume continues a paused track.
func (e *Engine) Resume() error {
	var err error
	opErr := e.do(func() {
		if e.st.status != StatusPaused {
			err = ErrNotPaused
			return
		}
		if resumeErr := e.conn.Resume(); resumeErr != nil {
			err = resumeErr
			return
		}
		e.st.status = StatusPlaying
		if e.surface != nil {
			e.surface.Update(e.snapshot())
		}
	})
	if opErr != nil {
		return opErr
	}
	return err
}

// SetLoopMode sets the loop mode. It takes effect on the next advancement.
func (e *Engine) SetLoopMode(mode LoopMode) error {
	return e.do(func() { e.st.loop = mode })
}

// LoopMode returns the current loop mode.
func (e *Engine) LoopMode() (LoopMode, error) {
	var mode LoopMode
	err := e.do(func() { mode = e.st.loop })
	return mode, err
}

// Shuffle permutes the pending queue uniformly at random. The current track
// is untouched. Errors when the queue is empty.
func (e *Engine) Shuffle() error {
	var err error
	opErr := e.do(func() {
		if len(e.st.queue) == 0 {
			err = ErrEmptyQueue
			return
		}
		rand.Shuffle(len(e.st.queue), func(i, j int) {
			e.st.queue[i], e.st.queue[j] = e.st.queue[j], e.st.queue[i]
		})
	})
	if opErr != nil {
		return opErr
	}
	return err
}

// SetVolume sets playback volume in percent (0–200) on the live stream and
// records it as the guild volume for subsequent tracks. Errors when nothing
// is playing.
func (e *Engine) SetVolume(percent int) error {
	var err error
	opErr := e.do(func() {
		if e.handle == nil {
			err = ErrNothingPlaying
			return
		}
		e.handle.SetVolume(percent)
		e.st.volume = percent
	})
	if opErr != nil {
		return opErr
	}
	return err
}

// Volume returns the guild volume percent.
func (e *Engine) Volume() (int, error) {
	var v int
	err := e.do(func() { v = e.st.volume })
	return v, err
}

// Snapshot returns a consistent copy of the guild's playback state.
func (e *Engine) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := e.do(func() { snap = e.snapshot() })
	return snap, err
}

// advance is the single decision point for "play next or go idle". It runs
// on every exit from a current track that expects a successor: natural
// completion, mid-play failure, and skip. Runs on the engine goroutine.
func (e *Engine) advance(streamErr error) {
	finished := e.st.current
	e.st.current = nil
	e.handle = nil
	if finished != nil {
		if streamErr != nil {
			e.log.Warn("track ended with error",
				"guild_id", e.guildID, "title", finished.Title, "err", streamErr)
			if e.notifier != nil {
				e.notifier.TrackFailed(*finished, streamErr)
			}
		} else if e.st.loop == LoopSong {
			cp := *finished
			e.st.queue = append([]Track{cp}, e.st.queue...)
		}
	}
	e.startNext(true)
}

// startNext pops queue entries until one starts or the queue is exhausted.
// Each failed start consumes one entry, so the walk is bounded by queue
// length. announceIdle controls the queue-finished notice when nothing is
// left. Runs on the engine goroutine.
func (e *Engine) startNext(announceIdle bool) {
	for len(e.st.queue) > 0 {
		t := e.st.queue[0]
		e.st.queue = e.st.queue[1:]
		if e.startTrack(t) {
			return
		}
	}
	e.goIdle(announceIdle)
}

// startTrack attempts to begin playback of t. Runs on the engine goroutine.
func (e *Engine) startTrack(t Track) bool {
	if e.conn == nil {
		return false
	}
	e.gen++
	gen := e.gen
	cur := t
	e.st.current = &cur
	e.st.status = StatusStarting
	if t.ChannelID != "" {
		e.lastChannelID = t.ChannelID
	}

	src, err := e.conn.Play(t.MediaURL, func(streamErr error) {
		select {
		case e.events <- trackDone{gen: gen, err: streamErr}:
		case <-e.done:
		}
	})
	if err != nil {
		e.st.current = nil
		e.log.Warn("failed to start track",
			"guild_id", e.guildID, "title", t.Title, "err", err)
		if e.notifier != nil {
			e.notifier.TrackFailed(t, err)
		}
		return false
	}

	e.handle = src
	src.SetVolume(e.st.volume)
	e.st.status = StatusPlaying
	e.log.Info("track started", "guild_id", e.guildID, "title", t.Title)
	if e.notifier != nil {
		e.notifier.TrackStarted(cur)
	}
	if e.surface != nil {
		e.surface.Publish(e.snapshot())
	}
	return true
}

// goIdle transitions to idle and retires the control panel. Runs on the
// engine goroutine.
func (e *Engine) goIdle(announce bool) {
	e.st.status = StatusIdle
	if e.surface != nil {
		e.surface.Retire(e.guildID)
	}
	if announce && e.notifier != nil && e.lastChannelID != "" {
		e.notifier.QueueFinished(e.lastChannelID)
	}
}
