package enrich

import (
	"context"
	"sync"

	"github.com/franz/melodeon/internal/musicbrainz"
)

// runCaches holds the per-run detail caches. They are constructed at run
// start and passed through the call chain, so runs are independent and
// parallel workers enriching tracks of the same album share one detail
// fetch instead of repeating it. A mutex guards each map; a fetch for a
// missing key is performed outside the lock, so two workers may race to
// fetch the same key once - the second write is a harmless overwrite of
// an identical value.
type runCaches struct {
	mu        sync.Mutex
	releases  map[string]*musicbrainz.Release
	artists   map[string]*musicbrainz.Artist
	wikiText  map[string]string
	genreTags map[string]string
}

func newRunCaches() *runCaches {
	return &runCaches{
		releases:  make(map[string]*musicbrainz.Release),
		artists:   make(map[string]*musicbrainz.Artist),
		wikiText:  make(map[string]string),
		genreTags: make(map[string]string),
	}
}

// release returns the cached release detail for an mbid, fetching it on
// first use. A nil result (lookup failed) is cached too so repeated
// failures don't repeat the call within one run.
func (c *runCaches) release(ctx context.Context, mb *musicbrainz.Client, mbid string) *musicbrainz.Release {
	if mbid == "" || mb == nil {
		return nil
	}
	c.mu.Lock()
	rel, ok := c.releases[mbid]
	c.mu.Unlock()
	if ok {
		return rel
	}

	rel = mb.LookupRelease(ctx, mbid)
	c.mu.Lock()
	c.releases[mbid] = rel
	c.mu.Unlock()
	return rel
}

// artist returns the cached artist detail for an mbid, fetching on first use
func (c *runCaches) artist(ctx context.Context, mb *musicbrainz.Client, mbid string) *musicbrainz.Artist {
	if mbid == "" || mb == nil {
		return nil
	}
	c.mu.Lock()
	a, ok := c.artists[mbid]
	c.mu.Unlock()
	if ok {
		return a
	}

	a = mb.LookupArtist(ctx, mbid)
	c.mu.Lock()
	c.artists[mbid] = a
	c.mu.Unlock()
	return a
}

// description returns the cached supplementary text for a cache key,
// computing it on first use
func (c *runCaches) description(key string, fetch func() string) string {
	c.mu.Lock()
	text, ok := c.wikiText[key]
	c.mu.Unlock()
	if ok {
		return text
	}

	text = fetch()
	c.mu.Lock()
	c.wikiText[key] = text
	c.mu.Unlock()
	return text
}

// genre returns the cached genre for a cache key, computing it on first use
func (c *runCaches) genre(key string, fetch func() string) string {
	c.mu.Lock()
	g, ok := c.genreTags[key]
	c.mu.Unlock()
	if ok {
		return g
	}

	g = fetch()
	c.mu.Lock()
	c.genreTags[key] = g
	c.mu.Unlock()
	return g
}
