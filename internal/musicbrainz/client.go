// Package musicbrainz is a typed client for the MusicBrainz ws/2 API.
// All calls are paced by the shared rate limiter (MusicBrainz allows one
// request per second) and degrade to nil results on any failure: callers
// treat "no data" and "request failed" uniformly.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franz/melodeon/internal/ratelimit"
	"github.com/franz/melodeon/internal/util"
)

const (
	// DefaultBaseURL is the MusicBrainz API base URL
	DefaultBaseURL = "https://musicbrainz.org/ws/2"

	// UserAgent identifies this application to MusicBrainz,
	// which rejects anonymous clients
	UserAgent = "melodeon/1.0 (https://github.com/franz/melodeon)"

	requestTimeout = 10 * time.Second
)

// Client handles MusicBrainz API requests
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *ratelimit.Limiter
}

// NewClient creates a new MusicBrainz API client paced by the given limiter
func NewClient(limiter *ratelimit.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    DefaultBaseURL,
		userAgent:  UserAgent,
		limiter:    limiter,
	}
}

// SetBaseURL overrides the API base URL (tests point this at a mock server)
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimSuffix(base, "/")
}

// SearchRecordings searches recordings with a Lucene query string.
// Returns nil on any failure.
func (c *Client) SearchRecordings(ctx context.Context, query string, limit int) []Recording {
	var result RecordingSearchResult
	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", fmt.Sprint(limit))
	if !c.get(ctx, "/recording/?"+params.Encode(), &result) {
		return nil
	}
	return result.Recordings
}

// SearchReleases searches releases with a Lucene query string.
// Returns nil on any failure.
func (c *Client) SearchReleases(ctx context.Context, query string, limit int) []Release {
	var result ReleaseSearchResult
	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", fmt.Sprint(limit))
	if !c.get(ctx, "/release/?"+params.Encode(), &result) {
		return nil
	}
	return result.Releases
}

// LookupRecording fetches a recording with artist credits, releases,
// credit relations and tags. Returns nil on any failure.
func (c *Client) LookupRecording(ctx context.Context, mbid string) *Recording {
	if mbid == "" {
		return nil
	}
	var rec Recording
	if !c.get(ctx, "/recording/"+url.PathEscape(mbid)+"?fmt=json&inc=artist-credits+releases+artist-rels+tags", &rec) {
		return nil
	}
	return &rec
}

// LookupRelease fetches a release with artist credits, labels, the
// release group, its annotation and tags. Returns nil on any failure.
func (c *Client) LookupRelease(ctx context.Context, mbid string) *Release {
	if mbid == "" {
		return nil
	}
	var rel Release
	if !c.get(ctx, "/release/"+url.PathEscape(mbid)+"?fmt=json&inc=artist-credits+labels+release-groups+annotation+tags", &rel) {
		return nil
	}
	return &rel
}

// LookupArtist fetches an artist with url relations and tags.
// Returns nil on any failure.
func (c *Client) LookupArtist(ctx context.Context, mbid string) *Artist {
	if mbid == "" {
		return nil
	}
	var artist Artist
	if !c.get(ctx, "/artist/"+url.PathEscape(mbid)+"?fmt=json&inc=url-rels+tags", &artist) {
		return nil
	}
	return &artist
}

// WikipediaURL extracts a Wikipedia or Wikidata page title from an
// artist's url relations. Returns the full resource URL, or ""
func (a *Artist) WikipediaURL() string {
	var wikidata string
	for _, rel := range a.Relations {
		if rel.URL == nil {
			continue
		}
		switch rel.Type {
		case "wikipedia":
			return rel.URL.Resource
		case "wikidata":
			wikidata = rel.URL.Resource
		}
	}
	return wikidata
}

// get performs one rate-limited GET against the API and decodes the JSON
// body into out. Returns false on any failure.
func (c *Client) get(ctx context.Context, path string, out interface{}) bool {
	if err := c.limiter.Acquire(ctx, ratelimit.ServiceMusicBrainz); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		util.DebugLog("MusicBrainz: bad request for %s: %v", path, err)
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.DebugLog("MusicBrainz: request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		util.WarnLog("MusicBrainz service unavailable (503) - rate limit exceeded or maintenance")
		return false
	}
	if resp.StatusCode != http.StatusOK {
		util.DebugLog("MusicBrainz: unexpected status %d for %s", resp.StatusCode, path)
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		util.DebugLog("MusicBrainz: failed to decode response: %v", err)
		return false
	}
	return true
}

// EscapeLucene escapes characters with meaning in Lucene query syntax
func EscapeLucene(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '+', '-', '&', '|', '!', '(', ')', '{', '}', '[', ']', '^', '"', '~', '*', '?', ':', '\\', '/':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
