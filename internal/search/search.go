// Package search matches loosely-structured local tags against external
// catalog entries. Search terms are cleaned deterministically, candidates
// are scored with Dice bigram similarity, and queries run precision-first:
// an exact-phrase search with the album constraint, then without it, then
// an unquoted query that trades precision for recall. A candidate below
// the threshold is discarded even if nothing better exists - "no match"
// is a valid, final outcome.
package search

import (
	"context"
	"fmt"

	"github.com/franz/melodeon/internal/musicbrainz"
	"github.com/franz/melodeon/internal/util"
)

const searchLimit = 10

// Finder runs candidate searches against MusicBrainz
type Finder struct {
	mb *musicbrainz.Client
}

// NewFinder creates a Finder backed by the given MusicBrainz client,
// which may be nil (every search then reports no match)
func NewFinder(mb *musicbrainz.Client) *Finder {
	return &Finder{mb: mb}
}

// RecordingMatch is an accepted recording candidate
type RecordingMatch struct {
	Recording musicbrainz.Recording
	Score     float64
}

// ReleaseMatch is an accepted release candidate
type ReleaseMatch struct {
	Release musicbrainz.Release
	Score   float64
}

// FindRecording searches for the recording matching the local tags.
// Returns nil when every strategy is exhausted without a candidate
// clearing the score threshold.
func (f *Finder) FindRecording(ctx context.Context, artist, title, album string) *RecordingMatch {
	if f.mb == nil || title == "" {
		return nil
	}

	cleanedTitle := CleanTitle(title)
	cleanedAlbum := CleanAlbum(album)

	queries := recordingQueries(artist, cleanedTitle, cleanedAlbum)
	for i, query := range queries {
		candidates := f.mb.SearchRecordings(ctx, query, searchLimit)
		if match := f.scoreRecordings(candidates, cleanedTitle, artist); match != nil {
			util.DebugLog("search: matched %q by %q on strategy %d (score %.2f)",
				title, artist, i+1, match.Score)
			return match
		}
	}

	util.DebugLog("search: no recording match for %q by %q", title, artist)
	return nil
}

// FindRelease searches for the release matching a local album. Used by the
// album-grouped enrichment mode and the manual-match lookup.
func (f *Finder) FindRelease(ctx context.Context, artist, album string) *ReleaseMatch {
	candidates := f.Releases(ctx, artist, album)
	cleanedAlbum := CleanAlbum(album)

	var best *ReleaseMatch
	for _, rel := range candidates {
		score := CombinedScore(
			Similarity(cleanedAlbum, CleanAlbum(rel.Title)),
			artistSimilarity(artist, musicbrainz.CreditedArtist(rel.ArtistCredit)),
		)
		if score <= MatchThreshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &ReleaseMatch{Release: rel, Score: score}
		}
	}
	return best
}

// Releases returns scored-order release candidates without applying the
// threshold; the manual-match UI shows them all
func (f *Finder) Releases(ctx context.Context, artist, album string) []musicbrainz.Release {
	if f.mb == nil || album == "" {
		return nil
	}

	cleanedAlbum := CleanAlbum(album)
	queries := releaseQueries(artist, cleanedAlbum)
	for _, query := range queries {
		if candidates := f.mb.SearchReleases(ctx, query, searchLimit); len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

// scoreRecordings picks the best above-threshold candidate, first-found on
// ties (catalogs return relevance-ordered results)
func (f *Finder) scoreRecordings(candidates []musicbrainz.Recording, cleanedTitle, artist string) *RecordingMatch {
	var best *RecordingMatch
	for _, rec := range candidates {
		score := CombinedScore(
			Similarity(cleanedTitle, CleanTitle(rec.Title)),
			artistSimilarity(artist, musicbrainz.CreditedArtist(rec.ArtistCredit)),
		)
		if score <= MatchThreshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &RecordingMatch{Recording: rec, Score: score}
		}
	}
	return best
}

func artistSimilarity(local, candidate string) float64 {
	return Similarity(NormalizeArtist(local), NormalizeArtist(candidate))
}

// recordingQueries builds the fallback chain of Lucene queries for a
// recording search, most precise first
func recordingQueries(artist, title, album string) []string {
	t := musicbrainz.EscapeLucene(title)
	a := musicbrainz.EscapeLucene(artist)

	var queries []string
	if album != "" && artist != "" {
		queries = append(queries, fmt.Sprintf(`recording:"%s" AND artist:"%s" AND release:"%s"`,
			t, a, musicbrainz.EscapeLucene(album)))
	}
	if artist != "" {
		queries = append(queries, fmt.Sprintf(`recording:"%s" AND artist:"%s"`, t, a))
		queries = append(queries, fmt.Sprintf(`%s %s`, t, a))
	} else {
		queries = append(queries, fmt.Sprintf(`recording:"%s"`, t))
		queries = append(queries, t)
	}
	return queries
}

// releaseQueries builds the fallback chain for a release search
func releaseQueries(artist, album string) []string {
	r := musicbrainz.EscapeLucene(album)
	if artist == "" {
		return []string{fmt.Sprintf(`release:"%s"`, r), r}
	}
	a := musicbrainz.EscapeLucene(artist)
	return []string{
		fmt.Sprintf(`release:"%s" AND artist:"%s"`, r, a),
		fmt.Sprintf(`%s %s`, r, a),
	}
}
