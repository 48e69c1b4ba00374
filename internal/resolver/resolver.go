// Package resolver turns user input — a direct link, free search text, or a
// catalog link — into playable tracks with direct stream URLs.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"

	"github.com/MrWong99/troubadour/internal/player"
)

var (
	// ErrNotFound means the input yielded no playable track.
	ErrNotFound = errors.New("resolver: no playable track found")
	// ErrCatalogUnavailable means a catalog link was submitted but no catalog
	// credentials are configured.
	ErrCatalogUnavailable = errors.New("resolver: catalog resolution is not configured")
)

// ItemError reports one failed item of a multi-item resolution. The rest of
// the batch is unaffected.
type ItemError struct {
	Query string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("resolver: item %q: %v", e.Query, e.Err)
}

// Config tunes the resolver.
type Config struct {
	// Timeout bounds every extraction and catalog call.
	Timeout time.Duration
	// CookieFile is an optional cookies.txt passed to the extraction backend.
	CookieFile string
	// ItemCap bounds how many items of a catalog link are resolved.
	ItemCap int
	// SpotifyClientID and SpotifyClientSecret enable catalog-link resolution.
	// Leave empty to disable it; everything else keeps working.
	SpotifyClientID     string
	SpotifyClientSecret string
}

// Resolver resolves user input to tracks. Safe for concurrent use.
type Resolver struct {
	cfg     Config
	log     *slog.Logger
	limiter *rate.Limiter
	catalog *catalogClient
}

// New creates a Resolver. Catalog support is enabled only when both Spotify
// credentials are set.
func New(cfg Config, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ItemCap <= 0 {
		cfg.ItemCap = 10
	}
	r := &Resolver{
		cfg: cfg,
		log: log,
		// One extraction per second sustained, with room for a catalog burst.
		limiter: rate.NewLimiter(rate.Limit(1), cfg.ItemCap),
	}
	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		r.catalog = newCatalogClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	}
	return r
}

// CatalogEnabled reports whether catalog-link resolution is configured.
func (r *Resolver) CatalogEnabled() bool { return r.catalog != nil }

// Resolve maps input to one or more tracks. A catalog link may return
// several tracks plus per-item errors for the ones that failed; the other
// input shapes return at most one track. The error return is non-nil only
// when the whole resolution failed.
func (r *Resolver) Resolve(ctx context.Context, input string) ([]player.Track, []ItemError, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("resolver: empty input: %w", ErrNotFound)
	}

	if isCatalogLink(input) {
		return r.resolveCatalog(ctx, input)
	}

	kind := player.SourceSearch
	target := "ytsearch:" + input
	if isLink(input) {
		kind = player.SourceExtractor
		target = input
	}

	track, err := r.extract(ctx, target, input, kind)
	if err != nil {
		return nil, nil, err
	}
	return []player.Track{track}, nil, nil
}

func isLink(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// extract runs the extraction backend for one target and applies the
// stream-URL fallback chain.
func (r *Resolver) extract(ctx context.Context, target, query string, kind player.SourceKind) (player.Track, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return player.Track{}, fmt.Errorf("resolver: rate limit wait: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	cmd := ytdlp.New().
		DumpSingleJSON().
		Format("bestaudio/best").
		NoPlaylist().
		NoWarnings().
		IgnoreConfig()
	if r.cfg.CookieFile != "" {
		cmd = cmd.Cookies(r.cfg.CookieFile)
	}

	res, err := cmd.Run(ctx, target)
	if err != nil {
		r.log.Warn("extraction failed", "query", query, "err", err)
		return player.Track{}, fmt.Errorf("resolver: extract %q: %w", query, ErrNotFound)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil || len(infos) == 0 {
		return player.Track{}, fmt.Errorf("resolver: parse extraction for %q: %w", query, ErrNotFound)
	}
	info := infos[0]
	// Searches come back as a one-entry playlist.
	if len(info.Entries) > 0 {
		info = info.Entries[0]
	}

	track, ok := trackFromInfo(info, query, kind)
	if !ok {
		return player.Track{}, fmt.Errorf("resolver: no stream url for %q: %w", query, ErrNotFound)
	}
	r.log.Debug("resolved track",
		"query", query, "title", track.Title, "took", time.Since(start))
	return track, nil
}

// trackFromInfo builds a track from extracted metadata, applying the
// stream-URL fallback: the top-level URL first, then the first audio-only
// format, then the first format carrying any URL at all.
func trackFromInfo(info *ytdlp.ExtractedInfo, query string, kind player.SourceKind) (player.Track, bool) {
	mediaURL, ok := pickStreamURL(info)
	if !ok {
		return player.Track{}, false
	}
	t := player.Track{
		Title:        strVal(info.Title),
		MediaURL:     mediaURL,
		PageURL:      strVal(info.WebpageURL),
		ThumbnailURL: strVal(info.Thumbnail),
		Uploader:     strVal(info.Uploader),
		Kind:         kind,
		Query:        query,
	}
	if t.Title == "" {
		t.Title = query
	}
	if info.Duration != nil && *info.Duration > 0 {
		t.Duration = time.Duration(*info.Duration * float64(time.Second))
	}
	return t, true
}

func pickStreamURL(info *ytdlp.ExtractedInfo) (string, bool) {
	if u := strVal(info.URL); u != "" {
		return u, true
	}
	for _, f := range info.Formats {
		if f == nil {
			continue
		}
		if u := f.URL; u != "" &&
			strVal(f.ACodec) != "none" && strVal(f.VCodec) == "none" {
			return u, true
		}
	}
	for _, f := range info.Formats {
		if f == nil {
			continue
		}
		if u := f.URL; u != "" {
			return u, true
		}
	}
	return "", false
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
