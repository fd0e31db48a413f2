package discogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franz/melodeon/internal/ratelimit"
)

func fastLimiter() *ratelimit.Limiter {
	return ratelimit.NewWithIntervals(map[string]time.Duration{})
}

func TestSearchRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/database/search":
			if r.URL.Query().Get("token") != "tok" {
				t.Errorf("token missing from search query")
			}
			if r.URL.Query().Get("type") != "release" {
				t.Errorf("type = %q", r.URL.Query().Get("type"))
			}
			w.Write([]byte(`{"results":[{"id":1234,"resource_url":"x"}]}`))
		case "/releases/1234":
			w.Write([]byte(`{
				"title": "Music Has the Right to Children",
				"year": 1998,
				"genres": ["Electronic"],
				"styles": ["IDM", "Downtempo"],
				"artists": [{"name": "Boards of Canada (2)"}],
				"labels": [{"name": "Warp Records"}]
			}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient("tok", fastLimiter())
	c.SetBaseURL(server.URL)

	info := c.SearchRelease(context.Background(), "Boards of Canada", "Music Has the Right to Children")
	if info == nil {
		t.Fatal("expected release info")
	}
	if info.Year != 1998 {
		t.Errorf("Year = %d, want 1998", info.Year)
	}
	if info.Artist != "Boards of Canada" {
		t.Errorf("Artist = %q, disambiguation suffix should be stripped", info.Artist)
	}
	if len(info.Styles) != 2 || info.Styles[0] != "IDM" {
		t.Errorf("Styles = %v", info.Styles)
	}
	if info.Label != "Warp Records" {
		t.Errorf("Label = %q", info.Label)
	}
}

func TestSearchReleaseNoToken(t *testing.T) {
	c := NewClient("", fastLimiter())
	if info := c.SearchRelease(context.Background(), "a", "b"); info != nil {
		t.Errorf("expected nil without a token, got %+v", info)
	}
}

func TestSearchReleaseNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	c := NewClient("tok", fastLimiter())
	c.SetBaseURL(server.URL)
	if info := c.SearchRelease(context.Background(), "a", "b"); info != nil {
		t.Errorf("expected nil for empty results, got %+v", info)
	}
}

func TestStripNameSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Boards of Canada (2)", "Boards of Canada"},
		{"John Williams (4)", "John Williams"},
		{"Plain Name", "Plain Name"},
		{"Parens (But Words)", "Parens (But Words)"},
		{"(2)", "(2)"},
	}
	for _, tt := range tests {
		if got := stripNameSuffix(tt.in); got != tt.want {
			t.Errorf("stripNameSuffix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
