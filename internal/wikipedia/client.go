// Package wikipedia fetches page summaries from the Wikipedia REST API,
// used for artist descriptions when Last.fm has nothing.
package wikipedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franz/melodeon/internal/ratelimit"
	"github.com/franz/melodeon/internal/util"
)

const (
	// DefaultBaseURL is the Wikipedia REST API base URL
	DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

	userAgent      = "melodeon/1.0 (https://github.com/franz/melodeon)"
	requestTimeout = 10 * time.Second
)

// Client fetches Wikipedia page summaries
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *ratelimit.Limiter
}

// NewClient creates a Wikipedia client
func NewClient(limiter *ratelimit.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    DefaultBaseURL,
		limiter:    limiter,
	}
}

// SetBaseURL overrides the API base URL (tests point this at a mock server)
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// Summary is a page summary from the REST API
type Summary struct {
	Title     string
	Extract   string
	PageURL   string
	Thumbnail string
}

type summaryResponse struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// GetSummary fetches the summary of a page by title. Returns nil on any
// failure, including page-not-found.
func (c *Client) GetSummary(ctx context.Context, title string) *Summary {
	if title == "" {
		return nil
	}
	if err := c.limiter.Acquire(ctx, ratelimit.ServiceWikipedia); err != nil {
		return nil
	}

	path := c.baseURL + "/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.DebugLog("Wikipedia: request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.DebugLog("Wikipedia: status %d for %q", resp.StatusCode, title)
		return nil
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		util.DebugLog("Wikipedia: failed to decode response: %v", err)
		return nil
	}
	if body.Extract == "" {
		return nil
	}

	return &Summary{
		Title:     body.Title,
		Extract:   body.Extract,
		PageURL:   body.ContentURLs.Desktop.Page,
		Thumbnail: body.Thumbnail.Source,
	}
}

// TitleFromURL extracts the page title from a Wikipedia article URL.
// Returns "" when the URL is not a Wikipedia article link.
func TitleFromURL(wikiURL string) string {
	u, err := url.Parse(wikiURL)
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(u.Host, "wikipedia.org") {
		return ""
	}
	const prefix = "/wiki/"
	if !strings.HasPrefix(u.Path, prefix) {
		return ""
	}
	title, err := url.PathUnescape(strings.TrimPrefix(u.Path, prefix))
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(title, "_", " ")
}
