// Package config provides the configuration schema and loader for the
// Troubadour bot.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return d.Std().String() }

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l onto the slog level scale. Unset levels map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Discord  DiscordConfig  `yaml:"discord"`
	Player   PlayerConfig   `yaml:"player"`
	Resolver ResolverConfig `yaml:"resolver"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address serving /metrics, /healthz, and /readyz
	// (e.g., ":8080"). Empty disables the HTTP server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DiscordConfig holds the gateway credentials and command settings.
type DiscordConfig struct {
	// Token is the bot token. Usually supplied through the DISCORD_TOKEN
	// environment variable (a .env file is honoured) rather than YAML.
	Token string `yaml:"token"`

	// CommandPrefix introduces text commands. Defaults to "!".
	CommandPrefix string `yaml:"command_prefix"`
}

// PlayerConfig tunes per-guild playback.
type PlayerConfig struct {
	// DefaultVolume is the volume percent (0–200) applied to every track
	// until a guild changes it. Defaults to 100.
	DefaultVolume int `yaml:"default_volume"`
}

// ResolverConfig tunes track resolution.
type ResolverConfig struct {
	// Timeout bounds every extraction and catalog call. Defaults to 30s.
	Timeout Duration `yaml:"timeout"`

	// PlaylistItemCap bounds how many items of a catalog link are resolved.
	// Defaults to 10.
	PlaylistItemCap int `yaml:"playlist_item_cap"`

	// CookieFile is an optional cookies.txt handed to the extraction
	// backend, for age-restricted or rate-limited sources.
	CookieFile string `yaml:"cookie_file"`
}

// SpotifyConfig enables catalog-link resolution. With either field empty,
// catalog links are rejected with a notice and everything else works.
// Usually supplied through SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}
