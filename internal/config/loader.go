package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, overlays environment
// variables (including a .env file in the working directory, if present),
// and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result. No
// environment overlay is applied. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg, err := decode(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Discord.CommandPrefix == "" {
		cfg.Discord.CommandPrefix = "!"
	}
	if cfg.Player.DefaultVolume == 0 {
		cfg.Player.DefaultVolume = 100
	}
	if cfg.Resolver.Timeout == 0 {
		cfg.Resolver.Timeout = Duration(30 * time.Second)
	}
	if cfg.Resolver.PlaylistItemCap == 0 {
		cfg.Resolver.PlaylistItemCap = 10
	}
}

// ApplyEnv overlays credentials from the environment onto cfg. A .env file
// in the working directory is loaded first when present; real environment
// variables win over it.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token is required (or set DISCORD_TOKEN)"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Player.DefaultVolume < 0 || cfg.Player.DefaultVolume > 200 {
		errs = append(errs, fmt.Errorf("player.default_volume %d is out of range [0, 200]", cfg.Player.DefaultVolume))
	}
	if cfg.Resolver.Timeout < 0 {
		errs = append(errs, fmt.Errorf("resolver.timeout %v must not be negative", cfg.Resolver.Timeout))
	}
	if cfg.Resolver.PlaylistItemCap < 0 {
		errs = append(errs, fmt.Errorf("resolver.playlist_item_cap %d must not be negative", cfg.Resolver.PlaylistItemCap))
	}
	if cfg.Resolver.CookieFile != "" {
		if _, err := os.Stat(cfg.Resolver.CookieFile); err != nil {
			errs = append(errs, fmt.Errorf("resolver.cookie_file %q: %w", cfg.Resolver.CookieFile, err))
		}
	}
	if (cfg.Spotify.ClientID == "") != (cfg.Spotify.ClientSecret == "") {
		errs = append(errs, errors.New("spotify.client_id and spotify.client_secret must be set together"))
	}

	return errors.Join(errs...)
}
