// Command troubadour is the main entry point for the Troubadour music bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/troubadour/internal/config"
	discordbot "github.com/MrWong99/troubadour/internal/discord"
	"github.com/MrWong99/troubadour/internal/discord/commands"
	"github.com/MrWong99/troubadour/internal/health"
	"github.com/MrWong99/troubadour/internal/observe"
	"github.com/MrWong99/troubadour/internal/player"
	"github.com/MrWong99/troubadour/internal/resolver"
	discordaudio "github.com/MrWong99/troubadour/pkg/audio/discord"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "troubadour: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "troubadour: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	slog.Info("troubadour starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"prefix", cfg.Discord.CommandPrefix,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "troubadour"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	metrics := observe.DefaultMetrics()

	// ── Discord gateway ───────────────────────────────────────────────────────
	bot, err := discordbot.New(discordbot.Config{
		Token:         cfg.Discord.Token,
		CommandPrefix: cfg.Discord.CommandPrefix,
	})
	if err != nil {
		slog.Error("failed to connect to Discord", "err", err)
		return 1
	}

	// ── Playback stack ────────────────────────────────────────────────────────
	platform := discordaudio.NewPlatform(bot.Session())
	platform.SetConnectionGauge(func(delta int) {
		metrics.ActiveVoiceConnections.Add(context.Background(), int64(delta))
	})

	panel := discordbot.NewPanelManager(bot.Session(), logger)
	notifier := &meteredNotifier{
		inner:   discordbot.NewAnnouncer(bot.Session(), logger),
		metrics: metrics,
	}
	manager := player.NewManager(platform, cfg.Player.DefaultVolume, notifier, panel, logger)

	res := resolver.New(resolver.Config{
		Timeout:             cfg.Resolver.Timeout.Std(),
		CookieFile:          cfg.Resolver.CookieFile,
		ItemCap:             cfg.Resolver.PlaylistItemCap,
		SpotifyClientID:     cfg.Spotify.ClientID,
		SpotifyClientSecret: cfg.Spotify.ClientSecret,
	}, logger)
	if !res.CatalogEnabled() {
		slog.Info("spotify credentials not configured, catalog links disabled")
	}

	commands.New(manager, res, bot.Session(), bot.State(), metrics, logger).Register(bot.Router())

	// ── HTTP server (metrics + health) ────────────────────────────────────────
	var httpServer *http.Server
	if cfg.Server.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		health.New(health.Ready("gateway", bot.Ready)).Register(mux)

		httpServer = &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
		go func() {
			slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
			}
		}()
	}

	slog.Info("troubadour ready, press Ctrl+C to shut down")
	<-ctx.Done()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	manager.Shutdown()
	platform.DisconnectAll()
	if err := bot.Close(); err != nil {
		slog.Warn("discord close error", "err", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown error", "err", err)
		}
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}

	slog.Info("goodbye")
	return 0
}

// meteredNotifier layers playback counters over the user-facing announcer.
type meteredNotifier struct {
	inner   player.Notifier
	metrics *observe.Metrics
}

func (n *meteredNotifier) TrackStarted(t player.Track) {
	n.metrics.TracksPlayed.Add(context.Background(), 1)
	n.inner.TrackStarted(t)
}

func (n *meteredNotifier) TrackFailed(t player.Track, err error) {
	n.metrics.TrackFailures.Add(context.Background(), 1)
	n.inner.TrackFailed(t, err)
}

func (n *meteredNotifier) QueueFinished(channelID string) {
	n.inner.QueueFinished(channelID)
}
