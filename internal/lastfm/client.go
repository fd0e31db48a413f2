// Package lastfm wraps the Last.fm API for supplementary text and tags:
// artist biographies, album wiki summaries and top tags. Request signing
// is handled by the shkh/lastfm-go library. Without an API key every
// lookup reports no data.
package lastfm

import (
	"context"
	"strings"

	lastfmgo "github.com/shkh/lastfm-go/lastfm"

	"github.com/franz/melodeon/internal/ratelimit"
	"github.com/franz/melodeon/internal/util"
)

// Client wraps the Last.fm API
type Client struct {
	api     *lastfmgo.Api
	limiter *ratelimit.Limiter

	warnedNoKey bool
}

// NewClient creates a Last.fm client. An empty API key is allowed; every
// lookup then returns nil.
func NewClient(apiKey, apiSecret string, limiter *ratelimit.Limiter) *Client {
	c := &Client{limiter: limiter}
	if apiKey != "" {
		c.api = lastfmgo.New(apiKey, apiSecret)
	}
	return c
}

// ArtistInfo holds the supplementary artist text from Last.fm
type ArtistInfo struct {
	Name string
	MBID string
	URL  string
	Bio  string
}

// AlbumInfo holds the supplementary album text from Last.fm
type AlbumInfo struct {
	Name   string
	Artist string
	MBID   string
	URL    string
	Wiki   string
}

// GetArtistInfo fetches an artist biography. Returns nil on missing key
// or any failure.
func (c *Client) GetArtistInfo(ctx context.Context, name string) *ArtistInfo {
	if !c.ready(ctx) || name == "" {
		return nil
	}

	result, err := c.api.Artist.GetInfo(lastfmgo.P{"artist": name, "autocorrect": 1})
	if err != nil {
		util.DebugLog("Last.fm: artist.getInfo failed for %q: %v", name, err)
		return nil
	}

	return &ArtistInfo{
		Name: result.Name,
		MBID: result.Mbid,
		URL:  result.Url,
		Bio:  cleanDescription(result.Bio.Summary),
	}
}

// GetAlbumInfo fetches an album wiki summary. Returns nil on missing key
// or any failure.
func (c *Client) GetAlbumInfo(ctx context.Context, artist, album string) *AlbumInfo {
	if !c.ready(ctx) || album == "" {
		return nil
	}

	result, err := c.api.Album.GetInfo(lastfmgo.P{"artist": artist, "album": album, "autocorrect": 1})
	if err != nil {
		util.DebugLog("Last.fm: album.getInfo failed for %q / %q: %v", artist, album, err)
		return nil
	}

	return &AlbumInfo{
		Name:   result.Name,
		Artist: result.Artist,
		MBID:   result.Mbid,
		URL:    result.Url,
		Wiki:   cleanDescription(result.Wiki.Summary),
	}
}

// GetArtistTopTags fetches an artist's top tags. Returns nil on missing
// key or any failure.
func (c *Client) GetArtistTopTags(ctx context.Context, name string) []string {
	if !c.ready(ctx) || name == "" {
		return nil
	}

	result, err := c.api.Artist.GetTopTags(lastfmgo.P{"artist": name, "autocorrect": 1})
	if err != nil {
		util.DebugLog("Last.fm: artist.getTopTags failed for %q: %v", name, err)
		return nil
	}

	tags := make([]string, 0, len(result.Tags))
	for _, t := range result.Tags {
		if t.Name != "" {
			tags = append(tags, t.Name)
		}
	}
	return tags
}

// ready acquires a rate-limit slot and reports whether the client is
// usable at all
func (c *Client) ready(ctx context.Context) bool {
	if c.api == nil {
		if !c.warnedNoKey {
			util.InfoLog("Last.fm API key not configured, catalog disabled")
			c.warnedNoKey = true
		}
		return false
	}
	return c.limiter.Acquire(ctx, ratelimit.ServiceLastFM) == nil
}

// cleanDescription strips the "Read more on Last.fm" link trailer that
// Last.fm appends to bio and wiki text
func cleanDescription(s string) string {
	if idx := strings.Index(s, `<a href="https://www.last.fm`); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
