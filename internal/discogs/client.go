// Package discogs is a reduced-fidelity fallback catalog: when MusicBrainz
// search yields nothing, Discogs can still supply coarse genre/style tags,
// a year and a label. It is never used for credits or fine-grained
// matching.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/franz/melodeon/internal/ratelimit"
	"github.com/franz/melodeon/internal/util"
)

const (
	// DefaultBaseURL is the Discogs API base URL
	DefaultBaseURL = "https://api.discogs.com"

	userAgent      = "melodeon/1.0 +https://github.com/franz/melodeon"
	requestTimeout = 10 * time.Second
)

// Client handles Discogs API requests. A client without a token degrades
// to always returning nil.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *ratelimit.Limiter

	warnedNoToken bool
}

// NewClient creates a Discogs client. An empty token is allowed; every
// lookup then reports no data.
func NewClient(token string, limiter *ratelimit.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    DefaultBaseURL,
		token:      token,
		limiter:    limiter,
	}
}

// SetBaseURL overrides the API base URL (tests point this at a mock server)
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// ReleaseInfo is the subset of a Discogs release used by enrichment
type ReleaseInfo struct {
	Title  string
	Artist string
	Year   int
	Genres []string
	Styles []string
	Label  string
}

type searchResponse struct {
	Results []struct {
		ID          int    `json:"id"`
		ResourceURL string `json:"resource_url"`
	} `json:"results"`
}

type releaseResponse struct {
	Title   string   `json:"title"`
	Year    int      `json:"year"`
	Genres  []string `json:"genres"`
	Styles  []string `json:"styles"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// SearchRelease searches the Discogs database for a release and fetches
// its details. Returns nil on missing token, no results, or any failure.
func (c *Client) SearchRelease(ctx context.Context, artist, album string) *ReleaseInfo {
	if c.token == "" {
		if !c.warnedNoToken {
			util.InfoLog("Discogs token not configured, catalog disabled")
			c.warnedNoToken = true
		}
		return nil
	}
	if album == "" {
		return nil
	}

	params := url.Values{}
	if artist != "" {
		params.Set("q", fmt.Sprintf("%s %s", artist, album))
	} else {
		params.Set("q", album)
	}
	params.Set("type", "release")
	params.Set("token", c.token)

	var search searchResponse
	if !c.get(ctx, "/database/search?"+params.Encode(), &search) {
		return nil
	}
	if len(search.Results) == 0 {
		util.DebugLog("Discogs: no results for %q / %q", artist, album)
		return nil
	}

	var release releaseResponse
	detailPath := fmt.Sprintf("/releases/%d?token=%s", search.Results[0].ID, url.QueryEscape(c.token))
	if !c.get(ctx, detailPath, &release) {
		return nil
	}

	info := &ReleaseInfo{
		Title:  release.Title,
		Year:   release.Year,
		Genres: release.Genres,
		Styles: release.Styles,
	}
	if len(release.Artists) > 0 {
		info.Artist = stripNameSuffix(release.Artists[0].Name)
	}
	if len(release.Labels) > 0 {
		info.Label = release.Labels[0].Name
	}
	return info
}

// get performs one rate-limited GET and decodes the JSON body into out.
// Returns false on any failure.
func (c *Client) get(ctx context.Context, path string, out interface{}) bool {
	if err := c.limiter.Acquire(ctx, ratelimit.ServiceDiscogs); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.DebugLog("Discogs: request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.DebugLog("Discogs: unexpected status %d", resp.StatusCode)
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		util.DebugLog("Discogs: failed to decode response: %v", err)
		return false
	}
	return true
}

// stripNameSuffix removes Discogs disambiguation suffixes like "Artist (2)"
func stripNameSuffix(name string) string {
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '(' && i >= 2 && name[i-1] == ' ' {
			// Only strip when the parenthesized part is purely numeric
			inner := name[i+1:]
			if len(inner) > 0 && inner[len(inner)-1] == ')' {
				digits := inner[:len(inner)-1]
				allDigits := len(digits) > 0
				for _, r := range digits {
					if r < '0' || r > '9' {
						allDigits = false
						break
					}
				}
				if allDigits {
					return name[:i-1]
				}
			}
			break
		}
	}
	return name
}
