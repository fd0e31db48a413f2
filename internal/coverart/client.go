// Package coverart downloads release cover images from the Cover Art
// Archive. Fetches run on a background queue decoupled from the metadata
// commit: cover art is a large binary from an independent service, and
// its failure must never affect already-resolved metadata.
package coverart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/melodeon/internal/ratelimit"
	"github.com/franz/melodeon/internal/util"
)

const (
	// DefaultBaseURL is the Cover Art Archive base URL
	DefaultBaseURL = "https://coverartarchive.org"

	downloadTimeout = 30 * time.Second
)

// Client fetches cover images from the Cover Art Archive
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *ratelimit.Limiter
}

// NewClient creates a Cover Art Archive client
func NewClient(limiter *ratelimit.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: downloadTimeout},
		baseURL:    DefaultBaseURL,
		limiter:    limiter,
	}
}

// SetBaseURL overrides the base URL (tests point this at a mock server)
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

type imageList struct {
	Images []struct {
		Front      bool   `json:"front"`
		Image      string `json:"image"`
		Thumbnails struct {
			Large string `json:"large"`
		} `json:"thumbnails"`
	} `json:"images"`
}

// FrontImageURL resolves the front cover image URL for a release, falling
// back to the release group. Returns "" when no cover exists.
func (c *Client) FrontImageURL(ctx context.Context, releaseMBID, releaseGroupMBID string) string {
	if u := c.frontImage(ctx, "/release/"+releaseMBID); u != "" {
		return u
	}
	if releaseGroupMBID != "" {
		return c.frontImage(ctx, "/release-group/"+releaseGroupMBID)
	}
	return ""
}

func (c *Client) frontImage(ctx context.Context, path string) string {
	if err := c.limiter.Acquire(ctx, ratelimit.ServiceCoverArt); err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return ""
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.DebugLog("CoverArt: request failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var list imageList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return ""
	}
	for _, img := range list.Images {
		if img.Front {
			if img.Thumbnails.Large != "" {
				return img.Thumbnails.Large
			}
			return img.Image
		}
	}
	if len(list.Images) > 0 {
		return list.Images[0].Image
	}
	return ""
}

// Download fetches an image URL to destDir, named after the release mbid.
// Returns the stored file path.
func (c *Client) Download(ctx context.Context, imageURL, destDir, releaseMBID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover download status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	ext := ".jpg"
	switch resp.Header.Get("Content-Type") {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	}
	dest := filepath.Join(destDir, releaseMBID+ext)

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}
