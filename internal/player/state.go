package player

// Status is the playback lifecycle state of one guild.
type Status int

const (
	// StatusIdle means nothing is playing and the queue is empty.
	StatusIdle Status = iota
	// StatusStarting means a track has been dequeued and the transport start
	// is in flight.
	StatusStarting
	// StatusPlaying means the transport is actively rendering the current track.
	StatusPlaying
	// StatusPaused means the current track is suspended.
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStarting:
		return "starting"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// LoopMode controls what happens to a track that finishes without error.
type LoopMode int

const (
	// LoopOff plays each track once.
	LoopOff LoopMode = iota
	// LoopSong reinserts a copy of the finished track at the queue front, so
	// it plays again without starving the rest of the queue.
	LoopSong
)

func (m LoopMode) String() string {
	switch m {
	case LoopOff:
		return "off"
	case LoopSong:
		return "song"
	default:
		return "unknown"
	}
}

// ParseLoopMode parses the user-facing loop mode names.
func ParseLoopMode(s string) (LoopMode, bool) {
	switch s {
	case "off":
		return LoopOff, true
	case "song":
		return LoopSong, true
	default:
		return LoopOff, false
	}
}

// guildState is the mutable playback record of one guild. It is owned by the
// engine's run goroutine; nothing else reads or writes it.
type guildState struct {
	queue   []Track
	current *Track
	status  Status
	loop    LoopMode
	volume  int
}

// Snapshot is a consistent copy of a guild's playback state, safe to read
// outside the engine goroutine. The panel renderer and the read-only commands
// work from snapshots only.
type Snapshot struct {
	GuildID string
	Status  Status
	Current *Track
	Queue   []Track
	Loop    LoopMode
	Volume  int
	// HasSource reports whether a live volume handle exists. It can only be
	// true while Current is non-nil.
	HasSource bool
	// VoiceChannelID is the voice channel the engine is connected to, empty
	// when disconnected.
	VoiceChannelID string
}

// snapshot copies the engine-owned state. Must run on the engine goroutine.
func (e *Engine) snapshot() Snapshot {
	snap := Snapshot{
		GuildID:   e.guildID,
		Status:    e.st.status,
		Loop:      e.st.loop,
		Volume:    e.st.volume,
		HasSource: e.handle != nil,
	}
	if e.st.current != nil {
		cur := *e.st.current
		snap.Current = &cur
	}
	if len(e.st.queue) > 0 {
		snap.Queue = make([]Track, len(e.st.queue))
		copy(snap.Queue, e.st.queue)
	}
	if e.conn != nil {
		snap.VoiceChannelID = e.conn.ChannelID()
	}
	return snap
}
