package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/raitonoberu/ytmusic"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/troubadour/internal/player"
)

// catalogFanOutLimit bounds how many item lookups run at once.
const catalogFanOutLimit = 4

// catalogKind identifies the shape of a catalog link.
type catalogKind int

const (
	catalogTrack catalogKind = iota
	catalogAlbum
	catalogPlaylist
)

// isCatalogLink reports whether input is a Spotify track/album/playlist link.
func isCatalogLink(input string) bool {
	_, _, ok := parseCatalogLink(input)
	return ok
}

// parseCatalogLink extracts the kind and ID from an open.spotify.com link.
func parseCatalogLink(input string) (catalogKind, string, bool) {
	u, err := url.Parse(input)
	if err != nil || !strings.HasSuffix(u.Hostname(), "open.spotify.com") {
		return 0, "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// Localized links carry a leading segment like /intl-de/track/....
	if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
		parts = parts[1:]
	}
	if len(parts) < 2 || parts[1] == "" {
		return 0, "", false
	}
	switch parts[0] {
	case "track":
		return catalogTrack, parts[1], true
	case "album":
		return catalogAlbum, parts[1], true
	case "playlist":
		return catalogPlaylist, parts[1], true
	default:
		return 0, "", false
	}
}

// catalogClient wraps the Spotify Web API behind client-credentials auth.
// The API client is built lazily on first use so construction never needs
// network access.
type catalogClient struct {
	creds clientcredentials.Config

	mu     sync.Mutex
	client *spotify.Client
}

func newCatalogClient(clientID, clientSecret string) *catalogClient {
	return &catalogClient{
		creds: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
	}
}

func (c *catalogClient) api(ctx context.Context) (*spotify.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolver: catalog auth: %w", err)
	}
	httpClient := spotifyauth.New().Client(ctx, token)
	c.client = spotify.New(httpClient)
	return c.client, nil
}

// items returns the "title artist" search queries for a catalog link, capped
// at limit entries.
func (c *catalogClient) items(ctx context.Context, kind catalogKind, id string, limit int) ([]string, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	var queries []string
	switch kind {
	case catalogTrack:
		track, err := api.GetTrack(ctx, spotify.ID(id))
		if err != nil {
			return nil, fmt.Errorf("resolver: catalog track %s: %w", id, err)
		}
		queries = append(queries, trackQuery(track.Name, track.Artists))
	case catalogAlbum:
		album, err := api.GetAlbum(ctx, spotify.ID(id))
		if err != nil {
			return nil, fmt.Errorf("resolver: catalog album %s: %w", id, err)
		}
		for _, track := range album.Tracks.Tracks {
			queries = append(queries, trackQuery(track.Name, track.Artists))
		}
	case catalogPlaylist:
		page, err := api.GetPlaylistItems(ctx, spotify.ID(id))
		if err != nil {
			return nil, fmt.Errorf("resolver: catalog playlist %s: %w", id, err)
		}
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue // episodes and removed tracks
			}
			queries = append(queries, trackQuery(item.Track.Track.Name, item.Track.Track.Artists))
		}
	}

	if len(queries) > limit {
		queries = queries[:limit]
	}
	return queries, nil
}

func trackQuery(name string, artists []spotify.SimpleArtist) string {
	if len(artists) == 0 {
		return name
	}
	return name + " " + artists[0].Name
}

// resolveCatalog expands a catalog link into tracks: fetch the item list,
// then map every item to a playable video via a music search, with bounded
// concurrency and independent per-item failure.
func (r *Resolver) resolveCatalog(ctx context.Context, input string) ([]player.Track, []ItemError, error) {
	if r.catalog == nil {
		return nil, nil, ErrCatalogUnavailable
	}
	kind, id, ok := parseCatalogLink(input)
	if !ok {
		return nil, nil, fmt.Errorf("resolver: unrecognized catalog link: %w", ErrNotFound)
	}

	itemCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	queries, err := r.catalog.items(itemCtx, kind, id, r.cfg.ItemCap)
	if err != nil {
		return nil, nil, err
	}
	if len(queries) == 0 {
		return nil, nil, fmt.Errorf("resolver: catalog link has no tracks: %w", ErrNotFound)
	}

	tracks := make([]player.Track, len(queries))
	found := make([]bool, len(queries))
	var mu sync.Mutex
	var itemErrs []ItemError

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogFanOutLimit)
	for i, q := range queries {
		g.Go(func() error {
			track, err := r.resolveCatalogItem(gctx, q)
			if err != nil {
				mu.Lock()
				itemErrs = append(itemErrs, ItemError{Query: q, Err: err})
				mu.Unlock()
				return nil // one bad item must not sink the batch
			}
			tracks[i] = track
			found[i] = true
			return nil
		})
	}
	_ = g.Wait()

	resolved := tracks[:0]
	for i := range tracks {
		if found[i] {
			resolved = append(resolved, tracks[i])
		}
	}
	if len(resolved) == 0 {
		return nil, itemErrs, fmt.Errorf("resolver: no catalog item resolved: %w", ErrNotFound)
	}
	return resolved, itemErrs, nil
}

// resolveCatalogItem maps one catalog item to a playable track: a music
// search for the best matching video, then a full extraction of that video.
func (r *Resolver) resolveCatalogItem(ctx context.Context, query string) (player.Track, error) {
	search := ytmusic.TrackSearch(query)
	result, err := search.Next()
	if err != nil {
		return player.Track{}, fmt.Errorf("resolver: music search %q: %w", query, err)
	}
	var videoID string
	for _, t := range result.Tracks {
		if t.VideoID != "" {
			videoID = t.VideoID
			break
		}
	}
	if videoID == "" {
		return player.Track{}, fmt.Errorf("resolver: music search %q: %w", query, ErrNotFound)
	}

	track, err := r.extract(ctx, "https://music.youtube.com/watch?v="+videoID, query, player.SourceCatalog)
	if err != nil {
		return player.Track{}, err
	}
	return track, nil
}
