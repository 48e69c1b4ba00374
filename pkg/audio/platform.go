// Package audio defines the interfaces for voice-channel playback transport
// within Troubadour.
//
// The two primary abstractions are:
//
//   - [Platform] — joins a voice channel in a guild and returns a [Connection].
//   - [Connection] — an active voice session that can stream one media URL at
//     a time, with pause/resume/stop control and a volume-adjustable [Source].
//
// Implementations are provided by platform-specific adapter packages
// (e.g., audio/discord). The interfaces are intentionally narrow to keep the
// playback engine decoupled from provider details.
//
// This package lives under pkg/ because external code (third-party platform
// adapters) is expected to implement [Platform] and [Connection].
package audio

import "context"

// Platform is the entry point for a voice-channel provider.
// Implementations wrap provider-specific SDKs and expose a uniform
// [Connection] abstraction.
//
// Implementations must be safe for concurrent use.
type Platform interface {
	// Connect joins the voice channel identified by channelID in guildID and
	// returns an active [Connection]. If the platform is already connected to
	// a different channel in that guild, it relocates there. The supplied ctx
	// governs the connection attempt only; once connected, the Connection
	// remains alive until [Connection.Disconnect] is called.
	Connect(ctx context.Context, guildID, channelID string) (Connection, error)
}

// Connection represents an active voice session in one guild. At most one
// media stream plays at a time.
//
// Implementations must be safe for concurrent use.
type Connection interface {
	// ChannelID returns the voice channel this connection is currently on.
	ChannelID() string

	// Play begins streaming the audio at mediaURL. It returns a [Source]
	// handle for volume control, or an error if the stream could not be
	// started or another stream is still active.
	//
	// onDone is invoked exactly once when the stream ends: with nil on
	// natural completion or an explicit [Connection.Stop], and with a non-nil
	// error when the stream fails mid-play. onDone is never invoked
	// synchronously from within Play and runs on an internal goroutine —
	// callers must not block it on work that re-enters this Connection.
	Play(mediaURL string, onDone func(error)) (Source, error)

	// Pause suspends the active stream. Returns an error if nothing is playing.
	Pause() error

	// Resume continues a paused stream. Returns an error if nothing is paused.
	Resume() error

	// Stop terminates the active stream, triggering its onDone callback with
	// nil. Stopping when nothing is playing is a no-op.
	Stop()

	// IsPlaying reports whether a stream is active and not paused.
	IsPlaying() bool

	// IsPaused reports whether a stream is active and paused.
	IsPaused() bool

	// Disconnect stops any active stream and leaves the voice channel.
	// It is safe to call more than once; subsequent calls return nil.
	Disconnect() error
}

// Source is the volume-adjustable handle for an active stream, valid from
// [Connection.Play] until the stream's onDone fires.
type Source interface {
	// SetVolume sets playback volume as a percentage in [0, 200].
	// 100 is unity gain. Values outside the range are clamped.
	SetVolume(percent int)

	// Volume returns the current volume percentage.
	Volume() int
}
