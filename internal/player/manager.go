package player

import (
	"log/slog"
	"sync"

	"github.com/MrWong99/troubadour/pkg/audio"
)

// Manager holds one Engine per guild, created lazily on first use.
type Manager struct {
	platform      audio.Platform
	notifier      Notifier
	surface       Surface
	defaultVolume int
	log           *slog.Logger

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewManager creates a Manager. notifier and surface may be nil, in which
// case the engines run silently (used in tests).
func NewManager(platform audio.Platform, defaultVolume int, notifier Notifier, surface Surface, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		platform:      platform,
		notifier:      notifier,
		surface:       surface,
		defaultVolume: defaultVolume,
		log:           log,
		engines:       make(map[string]*Engine),
	}
}

// Get returns the engine for guildID, or nil if none exists yet.
func (m *Manager) Get(guildID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engines[guildID]
}

// GetOrCreate returns the engine for guildID, creating and starting it on
// first use.
func (m *Manager) GetOrCreate(guildID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.engines[guildID]; ok {
		return e
	}
	e := NewEngine(guildID, m.platform, m.defaultVolume, m.notifier, m.surface, m.log)
	m.engines[guildID] = e
	return e
}

// Shutdown stops playback in every guild and terminates all engines.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	engines := m.engines
	m.engines = make(map[string]*Engine)
	m.mu.Unlock()

	for _, e := range engines {
		if err := e.Stop(); err != nil {
			m.log.Warn("engine stop during shutdown", "guild_id", e.GuildID(), "err", err)
		}
		e.Close()
	}
}
