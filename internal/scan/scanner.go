// Package scan walks the music directory, reads file tags and keeps the
// local track table in sync with what is on disk. It reads tags only;
// matching against external catalogs is the enrichment pipeline's job.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
)

// audioExtensions are the file types the scanner picks up
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".m4a":  true,
	".m4b":  true,
	".aac":  true,
	".wav":  true,
	".aiff": true,
	".wma":  true,
}

// Scanner syncs a directory tree into the track table
type Scanner struct {
	store *store.Store
}

// New creates a Scanner
func New(st *store.Store) *Scanner {
	return &Scanner{store: st}
}

// Result summarizes one scan pass
type Result struct {
	Added   int
	Updated int
	Missing int
	Errors  []error
}

// ScanDirectory walks root and upserts every audio file found, then
// marks tracks whose files are gone. progress may be nil; when set it is
// called once per file before it is read.
func (s *Scanner) ScanDirectory(ctx context.Context, root string, progress func(path string)) (*Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[string]bool)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Hidden directories hold artwork caches and trash, skip them
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		if progress != nil {
			progress(path)
		}
		seen[path] = true

		added, err := s.scanFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		if added {
			result.Added++
		} else {
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	// Missing pass: tracks in the database whose files are gone
	paths, err := store.ListTrackPaths(s.store.DB())
	if err != nil {
		return result, fmt.Errorf("list tracks: %w", err)
	}
	for _, p := range paths {
		if seen[p] {
			continue
		}
		if !strings.HasPrefix(p, root+string(filepath.Separator)) {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := store.MarkTrackMissing(s.store.DB(), p); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		util.DebugLog("Scan: marked missing %s", p)
		result.Missing++
	}

	util.InfoLog("Scan: %d added, %d updated, %d missing, %d errors",
		result.Added, result.Updated, result.Missing, len(result.Errors))
	return result, nil
}

// scanFile reads one audio file's tags and upserts the track row.
// Returns true when the row was newly created.
func (s *Scanner) scanFile(path string) (bool, error) {
	track, err := readTrack(path)
	if err != nil {
		return false, err
	}

	existing, err := store.GetTrackByPath(s.store.DB(), track.Path)
	if err != nil {
		return false, err
	}
	if _, err := store.UpsertTrack(s.store.DB(), track); err != nil {
		return false, err
	}
	return existing == nil, nil
}

// readTrack extracts a track row from a file's tags. A file whose tags
// cannot be parsed still gets a row, titled by its filename, so the
// library reflects everything on disk.
func readTrack(path string) (*store.Track, error) {
	track := &store.Track{
		Path:   path,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		track.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return track, nil
	}

	track.Title = m.Title()
	track.Artist = m.Artist()
	track.Album = m.Album()
	track.Genre = m.Genre()
	if track.Title == "" {
		track.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	track.MBID, track.ReleaseMBID = embeddedIDs(m.Raw())
	return track, nil
}

// embeddedIDs digs MusicBrainz identifiers out of the raw tag map.
// Vorbis comments use MUSICBRAINZ_TRACKID; ID3 hides the recording id in
// a UFID frame and the release id in a TXXX frame.
func embeddedIDs(raw map[string]interface{}) (mbid, releaseMBID string) {
	for key, value := range raw {
		text := rawString(value)
		if text == "" {
			continue
		}
		switch normalizeRawKey(key) {
		case "musicbrainztrackid", "musicbrainzrecordingid", "ufidhttpmusicbrainzorg":
			if mbid == "" {
				mbid = text
			}
		case "musicbrainzalbumid", "musicbrainzreleaseid", "txxxmusicbrainzalbumid":
			if releaseMBID == "" {
				releaseMBID = text
			}
		}
	}
	return mbid, releaseMBID
}

// normalizeRawKey lowercases a raw tag key and strips separators so the
// ID3, vorbis and MP4 spellings of one field collapse to one form
func normalizeRawKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// rawString coerces a raw tag value to text; UFID frames arrive as a
// struct whose string form carries the identifier
func rawString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}
