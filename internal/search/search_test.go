package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franz/melodeon/internal/musicbrainz"
	"github.com/franz/melodeon/internal/ratelimit"
)

// fastLimiter returns a limiter with no pacing so tests run instantly
func fastLimiter() *ratelimit.Limiter {
	return ratelimit.NewWithIntervals(map[string]time.Duration{})
}

func recordingJSON(id, title, artist string) map[string]any {
	return map[string]any{
		"id":    id,
		"title": title,
		"artist-credit": []map[string]any{
			{"name": artist, "artist": map[string]any{"id": id + "-artist", "name": artist}},
		},
	}
}

func TestFindRecordingExactMatch(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"recordings": []map[string]any{
				recordingJSON("mbid-roygbiv", "Roygbiv", "Boards of Canada"),
			},
		})
	}))
	defer server.Close()

	mb := musicbrainz.NewClient(fastLimiter())
	mb.SetBaseURL(server.URL)
	finder := NewFinder(mb)

	match := finder.FindRecording(context.Background(), "Boards of Canada", "Roygbiv", "Music Has the Right to Children")
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Recording.ID != "mbid-roygbiv" {
		t.Errorf("matched %q, want mbid-roygbiv", match.Recording.ID)
	}
	if match.Score <= MatchThreshold {
		t.Errorf("score %v should be above the threshold", match.Score)
	}
	// The exact candidate comes back on the first, most precise strategy
	if n := requests.Load(); n != 1 {
		t.Errorf("made %d requests, want 1", n)
	}
}

// A cleaned local title must match a catalog entry stored without the
// edition annotation
func TestFindRecordingCleanedTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if strings.Contains(query, "Remaster") {
			t.Errorf("query %q should not carry the annotation", query)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"recordings": []map[string]any{
				recordingJSON("mbid-roygbiv", "Roygbiv", "Boards of Canada"),
			},
		})
	}))
	defer server.Close()

	mb := musicbrainz.NewClient(fastLimiter())
	mb.SetBaseURL(server.URL)
	finder := NewFinder(mb)

	match := finder.FindRecording(context.Background(), "Boards of Canada", "Roygbiv (2013 Remaster)", "")
	if match == nil {
		t.Fatal("expected a match")
	}
}

func TestFindRecordingBelowThreshold(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		// Every strategy returns the same unrelated candidate
		json.NewEncoder(w).Encode(map[string]any{
			"recordings": []map[string]any{
				recordingJSON("mbid-other", "Completely Different Song", "Somebody Else"),
			},
		})
	}))
	defer server.Close()

	mb := musicbrainz.NewClient(fastLimiter())
	mb.SetBaseURL(server.URL)
	finder := NewFinder(mb)

	match := finder.FindRecording(context.Background(), "Boards of Canada", "Roygbiv", "Music Has the Right to Children")
	if match != nil {
		t.Fatalf("expected no match, got %q (score %v)", match.Recording.Title, match.Score)
	}
	// All three strategies must have been tried before giving up
	if n := requests.Load(); n != 3 {
		t.Errorf("made %d requests, want 3", n)
	}
}

func TestFindRecordingStrategyFallback(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n == 1 {
			// The album-constrained query finds nothing
			json.NewEncoder(w).Encode(map[string]any{"recordings": []map[string]any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"recordings": []map[string]any{
				recordingJSON("mbid-roygbiv", "Roygbiv", "Boards of Canada"),
			},
		})
	}))
	defer server.Close()

	mb := musicbrainz.NewClient(fastLimiter())
	mb.SetBaseURL(server.URL)
	finder := NewFinder(mb)

	match := finder.FindRecording(context.Background(), "Boards of Canada", "Roygbiv", "Wrong Album Tag")
	if match == nil {
		t.Fatal("expected a match from the second strategy")
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("made %d requests, want 2", n)
	}
}

func TestFindRecordingNilClient(t *testing.T) {
	finder := NewFinder(nil)
	if match := finder.FindRecording(context.Background(), "a", "b", "c"); match != nil {
		t.Error("nil client should never match")
	}
}

func TestFindRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"releases": []map[string]any{
				{
					"id":    "rel-geogaddi",
					"title": "Geogaddi",
					"artist-credit": []map[string]any{
						{"name": "Boards of Canada", "artist": map[string]any{"id": "a1", "name": "Boards of Canada"}},
					},
				},
				{
					"id":    "rel-other",
					"title": "Something Unrelated",
					"artist-credit": []map[string]any{
						{"name": "Somebody Else", "artist": map[string]any{"id": "a2", "name": "Somebody Else"}},
					},
				},
			},
		})
	}))
	defer server.Close()

	mb := musicbrainz.NewClient(fastLimiter())
	mb.SetBaseURL(server.URL)
	finder := NewFinder(mb)

	match := finder.FindRelease(context.Background(), "Boards of Canada", "Geogaddi")
	if match == nil {
		t.Fatal("expected a release match")
	}
	if match.Release.ID != "rel-geogaddi" {
		t.Errorf("matched %q, want rel-geogaddi", match.Release.ID)
	}

	// The unfiltered candidate list keeps both
	all := finder.Releases(context.Background(), "Boards of Canada", "Geogaddi")
	if len(all) != 2 {
		t.Errorf("Releases returned %d candidates, want 2", len(all))
	}
}
