// Package acoustid identifies audio files by chromaprint fingerprint via
// the AcoustID lookup API. Requests are signed by the client key (a plain
// parameter, not an HMAC). Used when local tags are too poor to search by
// text.
package acoustid

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
	// DefaultBaseURL is the AcoustID API base URL
	DefaultBaseURL = "https://api.acoustid.org/v2"

	requestTimeout = 10 * time.Second
)

// Client handles AcoustID lookup requests. Without a client key every
// lookup reports no data.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientKey  string
	fpcalcPath string
	limiter    *ratelimit.Limiter

	warnedNoKey bool
}

// NewClient creates an AcoustID client. An empty client key is allowed;
// lookups then return nil.
func NewClient(clientKey, fpcalcPath string, limiter *ratelimit.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    DefaultBaseURL,
		clientKey:  clientKey,
		fpcalcPath: fpcalcPath,
		limiter:    limiter,
	}
}

// SetBaseURL overrides the API base URL (tests point this at a mock server)
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// Match is one identified recording from a fingerprint lookup
type Match struct {
	Score         float64
	RecordingMBID string
	Title         string
	Artist        string
}

type lookupResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Score      float64 `json:"score"`
		Recordings []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"recordings"`
	} `json:"results"`
}

// Lookup queries AcoustID with a fingerprint. Returns nil on missing key
// or any failure; matches come back score-ordered.
func (c *Client) Lookup(ctx context.Context, fp *Fingerprint) []Match {
	if c.clientKey == "" {
		if !c.warnedNoKey {
			util.InfoLog("AcoustID client key not configured, fingerprinting disabled")
			c.warnedNoKey = true
		}
		return nil
	}
	if err := c.limiter.Acquire(ctx, ratelimit.ServiceAcoustID); err != nil {
		return nil
	}

	form := url.Values{}
	form.Set("client", c.clientKey)
	form.Set("duration", fmt.Sprint(int(fp.Duration)))
	form.Set("fingerprint", fp.Fingerprint)
	form.Set("meta", "recordings")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lookup",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.DebugLog("AcoustID: request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.DebugLog("AcoustID: unexpected status %d", resp.StatusCode)
		return nil
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		util.DebugLog("AcoustID: failed to decode response: %v", err)
		return nil
	}
	if body.Status != "ok" {
		util.DebugLog("AcoustID: lookup status %q", body.Status)
		return nil
	}

	var matches []Match
	for _, result := range body.Results {
		for _, rec := range result.Recordings {
			m := Match{
				Score:         result.Score,
				RecordingMBID: rec.ID,
				Title:         rec.Title,
			}
			if len(rec.Artists) > 0 {
				m.Artist = rec.Artists[0].Name
			}
			matches = append(matches, m)
		}
	}
	return matches
}

// Identify fingerprints a file and looks it up in one call. The error
// reports fingerprinting problems only; lookup failures follow the nil
// convention of Lookup.
func (c *Client) Identify(ctx context.Context, audioPath string) ([]Match, error) {
	if c.clientKey == "" {
		return nil, nil
	}
	fp, err := CalcFingerprint(ctx, c.fpcalcPath, audioPath)
	if err != nil {
		return nil, err
	}
	return c.Lookup(ctx, fp), nil
}
