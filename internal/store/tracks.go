package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Track is a local file-backed unit. Identity is the filesystem path.
// The artist/album columns hold the free-text strings as tagged in the
// file; mbid and release_mbid are filled in by enrichment.
type Track struct {
	ID          int64
	Path        string
	Title       string
	Artist      string
	Album       string
	DurationMs  int64
	Format      string
	Genre       string
	MBID        string
	ReleaseMBID string
	Enriched    bool
	Missing     bool
}

const trackColumns = `id, path, title, artist, album, duration_ms, format, genre,
	COALESCE(mbid, ''), COALESCE(release_mbid, ''), enriched, missing`

func scanTrack(row interface{ Scan(...any) error }) (*Track, error) {
	var t Track
	err := row.Scan(&t.ID, &t.Path, &t.Title, &t.Artist, &t.Album, &t.DurationMs,
		&t.Format, &t.Genre, &t.MBID, &t.ReleaseMBID, &t.Enriched, &t.Missing)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTrack returns a track by id, or nil if it does not exist
func GetTrack(q Queryer, id int64) (*Track, error) {
	t, err := scanTrack(q.QueryRow("SELECT "+trackColumns+" FROM tracks WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// GetTrackByPath returns a track by its filesystem path, or nil
func GetTrackByPath(q Queryer, path string) (*Track, error) {
	t, err := scanTrack(q.QueryRow("SELECT "+trackColumns+" FROM tracks WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// UpsertTrack creates a track row for a scanned file, or refreshes its
// tag-derived columns if the path already exists. Enrichment state is
// preserved on refresh.
func UpsertTrack(q Queryer, t *Track) (int64, error) {
	existing, err := GetTrackByPath(q, t.Path)
	if err != nil {
		return 0, fmt.Errorf("lookup track by path: %w", err)
	}
	if existing != nil {
		_, err = q.Exec(`
			UPDATE tracks SET title = ?, artist = ?, album = ?, duration_ms = ?,
				format = ?, missing = 0, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			t.Title, t.Artist, t.Album, t.DurationMs, t.Format, existing.ID)
		if err != nil {
			return 0, fmt.Errorf("refresh track: %w", err)
		}
		// Embedded ids from file tags are recorded once, never overwritten
		if t.MBID != "" {
			if _, err := q.Exec("UPDATE tracks SET mbid = ? WHERE id = ? AND mbid IS NULL", t.MBID, existing.ID); err != nil {
				return 0, err
			}
		}
		if t.ReleaseMBID != "" {
			if _, err := q.Exec("UPDATE tracks SET release_mbid = ? WHERE id = ? AND release_mbid IS NULL", t.ReleaseMBID, existing.ID); err != nil {
				return 0, err
			}
		}
		return existing.ID, nil
	}

	res, err := q.Exec(`
		INSERT INTO tracks (path, title, artist, album, duration_ms, format, mbid, release_mbid)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
		t.Path, t.Title, t.Artist, t.Album, t.DurationMs, t.Format, t.MBID, t.ReleaseMBID)
	if err != nil {
		return 0, fmt.Errorf("insert track: %w", err)
	}
	return res.LastInsertId()
}

// UnenrichedTracks returns tracks eligible for enrichment. With force set,
// already-enriched tracks are included as well.
func UnenrichedTracks(q Queryer, force bool) ([]*Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE missing = 0"
	if !force {
		query += " AND enriched = 0"
	}
	query += " ORDER BY artist, album, path"

	rows, err := q.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

/// AlbumGroup is one unit of work in album-grouped enrichment: all tracks
// sharing a case-insensitive (artist, album) key
type AlbumGroup struct {
	Artist string
	Album  string
	Tracks []*Track
}

// AlbumGroups groups eligible tracks by (artist, album). Tracks without an
// album tag form single-track groups keyed by path so they still get the
// per-track treatment.
func AlbumGroups(q Queryer, force bool) ([]*AlbumGroup, error) {
	tracks, err := UnenrichedTracks(q, force)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*AlbumGroup)
	var keys []string
	for _, t := range tracks {
		key := strings.ToLower(t.Artist) + "\x00" + strings.ToLower(t.Album)
		if t.Album == "" {
			key = "\x00path:" + t.Path
		}
		g, ok := groups[key]
		if !ok {
			g = &AlbumGroup{Artist: t.Artist, Album: t.Album}
			groups[key] = g
			keys = append(keys, key)
		}
		g.Tracks = append(g.Tracks, t)
	}

	sort.Strings(keys)
	result := make([]*AlbumGroup, 0, len(keys))
	for _, key := range keys {
		result = append(result, groups[key])
	}
	return result, nil
}

// EmbeddedMBID returns the first embedded release id found in a group's
// tracks, used to short-circuit searching when file tags already carry
// the answer
func (g *AlbumGroup) EmbeddedMBID() string {
	for _, t := range g.Tracks {
		if t.ReleaseMBID != "" {
			return t.ReleaseMBID
		}
	}
	return ""
}

// EmbeddedRecordingMBID returns the first embedded recording id in a
// group's tracks, or "". A lone recording id still names its release
// through a lookup, sparing the group a search.
func (g *AlbumGroup) EmbeddedRecordingMBID() string {
	for _, t := range g.Tracks {
		if t.MBID != "" {
			return t.MBID
		}
	}
	return ""
}

// UpdateTrackEnrichment records the result of enriching one track: the
// resolved ids, the genre, and the enriched flag. Runs inside the
// orchestrator's commit transaction.
func UpdateTrackEnrichment(q Queryer, trackID int64, mbid, releaseMBID, genre string, enriched bool) error {
	_, err := q.Exec(`
		UPDATE tracks SET
			mbid = COALESCE(NULLIF(?, ''), mbid),
			release_mbid = COALESCE(NULLIF(?, ''), release_mbid),
			genre = CASE WHEN ? != '' THEN ? ELSE genre END,
			enriched = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		mbid, releaseMBID, genre, genre, enriched, trackID)
	return err
}

// MarkTrackEnriched sets the enriched flag without touching other fields,
// the terminal state for tracks where every search strategy came up empty
func MarkTrackEnriched(q Queryer, trackID int64) error {
	_, err := q.Exec("UPDATE tracks SET enriched = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", trackID)
	return err
}

// MarkTrackMissing flags a track whose file disappeared from disk
func MarkTrackMissing(q Queryer, path string) error {
	_, err := q.Exec("UPDATE tracks SET missing = 1, updated_at = CURRENT_TIMESTAMP WHERE path = ?", path)
	return err
}

// ListTrackPaths returns every non-missing track path, used by the
// scanner's missing-file pass
func ListTrackPaths(q Queryer) ([]string, error) {
	rows, err := q.Query("SELECT path FROM tracks WHERE missing = 0 ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// CountTracks returns total and enriched track counts
func CountTracks(q Queryer) (total, enriched int64, err error) {
	err = q.QueryRow("SELECT COUNT(*), COALESCE(SUM(enriched), 0) FROM tracks WHERE missing = 0").
		Scan(&total, &enriched)
	return total, enriched, err
}
