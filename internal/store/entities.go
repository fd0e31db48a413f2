package store

import (
	"database/sql"
	"fmt"
)

// Artist is a canonical performer entity. At most one row exists per
// distinct real-world artist; the resolver's upsert order enforces it and
// the dedup pass restores it after violations.
type Artist struct {
	ID          int64
	Name        string
	SortName    string
	MBID        string
	Description string
	ImagePath   string
	WikiURL     string
}

// Release is an album-level entity identified by its external id
type Release struct {
	ID          int64
	MBID        string
	Title       string
	ArtistID    sql.NullInt64
	Year        int
	ReleaseType string
	Description string
	LabelMBID   string
	CoverPath   string
}

// Label is a record label entity identified by its external id
type Label struct {
	ID   int64
	MBID string
	Name string
}

// Credit ties a track to a contributor name and canonicalized role
type Credit struct {
	ID       int64
	TrackID  int64
	ArtistID sql.NullInt64
	Name     string
	Role     string
}

const artistColumns = `id, name, sort_name, COALESCE(mbid, ''),
	COALESCE(description, ''), COALESCE(image_path, ''), COALESCE(wiki_url, '')`

func scanArtist(row interface{ Scan(...any) error }) (*Artist, error) {
	var a Artist
	err := row.Scan(&a.ID, &a.Name, &a.SortName, &a.MBID, &a.Description, &a.ImagePath, &a.WikiURL)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetArtistByName looks up an artist by case-insensitive name, or nil
func GetArtistByName(q Queryer, name string) (*Artist, error) {
	a, err := scanArtist(q.QueryRow(
		"SELECT "+artistColumns+" FROM artists WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1", name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// GetArtistByMBID looks up an artist by external id, or nil
func GetArtistByMBID(q Queryer, mbid string) (*Artist, error) {
	if mbid == "" {
		return nil, nil
	}
	a, err := scanArtist(q.QueryRow(
		"SELECT "+artistColumns+" FROM artists WHERE mbid = ? ORDER BY id LIMIT 1", mbid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// GetArtist looks up an artist by row id, or nil
func GetArtist(q Queryer, id int64) (*Artist, error) {
	a, err := scanArtist(q.QueryRow("SELECT "+artistColumns+" FROM artists WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// InsertArtist inserts a new artist row and returns its id
func InsertArtist(q Queryer, a *Artist) (int64, error) {
	res, err := q.Exec(`
		INSERT INTO artists (name, sort_name, mbid, description, image_path, wiki_url)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))`,
		a.Name, a.SortName, a.MBID, a.Description, a.ImagePath, a.WikiURL)
	if err != nil {
		return 0, fmt.Errorf("insert artist %q: %w", a.Name, err)
	}
	return res.LastInsertId()
}

// BackfillArtistMBID sets an artist's external id only when it was
// previously null. External ids are immutable once set: a pre-enriched
// row's id is assumed already correct.
func BackfillArtistMBID(q Queryer, id int64, mbid string) error {
	if mbid == "" {
		return nil
	}
	_, err := q.Exec("UPDATE artists SET mbid = ? WHERE id = ? AND mbid IS NULL", mbid, id)
	return err
}

// FillArtistProfile populates description, image path and wiki URL on an
// artist, but never overwrites a value that is already set
func FillArtistProfile(q Queryer, id int64, description, imagePath, wikiURL string) error {
	_, err := q.Exec(`
		UPDATE artists SET
			description = COALESCE(description, NULLIF(?, '')),
			image_path = COALESCE(image_path, NULLIF(?, '')),
			wiki_url = COALESCE(wiki_url, NULLIF(?, ''))
		WHERE id = ?`,
		description, imagePath, wikiURL, id)
	return err
}

const releaseColumns = `id, mbid, title, artist_id, COALESCE(year, 0), release_type,
	COALESCE(description, ''), COALESCE(label_mbid, ''), COALESCE(cover_path, '')`

func scanRelease(row interface{ Scan(...any) error }) (*Release, error) {
	var r Release
	err := row.Scan(&r.ID, &r.MBID, &r.Title, &r.ArtistID, &r.Year, &r.ReleaseType,
		&r.Description, &r.LabelMBID, &r.CoverPath)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReleaseByMBID looks up a release by external id, or nil
func GetReleaseByMBID(q Queryer, mbid string) (*Release, error) {
	if mbid == "" {
		return nil, nil
	}
	r, err := scanRelease(q.QueryRow("SELECT "+releaseColumns+" FROM releases WHERE mbid = ?", mbid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// InsertRelease inserts a new release row and returns its id
func InsertRelease(q Queryer, r *Release) (int64, error) {
	res, err := q.Exec(`
		INSERT INTO releases (mbid, title, artist_id, year, release_type, description, label_mbid)
		VALUES (?, ?, ?, NULLIF(?, 0), ?, NULLIF(?, ''), NULLIF(?, ''))`,
		r.MBID, r.Title, r.ArtistID, r.Year, r.ReleaseType, r.Description, r.LabelMBID)
	if err != nil {
		return 0, fmt.Errorf("insert release %q: %w", r.MBID, err)
	}
	return res.LastInsertId()
}

// RefreshRelease updates only the description and type of an existing
// release. The narrow update is deliberate: a re-run must not clobber
// other fields the first run resolved.
func RefreshRelease(q Queryer, mbid, description, releaseType string) error {
	_, err := q.Exec(`
		UPDATE releases SET
			description = COALESCE(NULLIF(?, ''), description),
			release_type = CASE WHEN ? != '' THEN ? ELSE release_type END
		WHERE mbid = ?`,
		description, releaseType, releaseType, mbid)
	return err
}

// SetReleaseCover records the stored cover image path for a release
func SetReleaseCover(q Queryer, mbid, coverPath string) error {
	_, err := q.Exec("UPDATE releases SET cover_path = ? WHERE mbid = ?", coverPath, mbid)
	return err
}

// GetLabelByMBID looks up a label by external id, or nil
func GetLabelByMBID(q Queryer, mbid string) (*Label, error) {
	if mbid == "" {
		return nil, nil
	}
	var l Label
	err := q.QueryRow("SELECT id, mbid, name FROM labels WHERE mbid = ?", mbid).
		Scan(&l.ID, &l.MBID, &l.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// InsertLabel inserts a new label row and returns its id
func InsertLabel(q Queryer, l *Label) (int64, error) {
	res, err := q.Exec("INSERT INTO labels (mbid, name) VALUES (?, ?)", l.MBID, l.Name)
	if err != nil {
		return 0, fmt.Errorf("insert label %q: %w", l.MBID, err)
	}
	return res.LastInsertId()
}

// InsertCredit writes a contribution record; repeated enrichment runs hit
// the unique constraint and are silently ignored
func InsertCredit(q Queryer, c *Credit) (InsertOutcome, error) {
	outcome, _, err := InsertOrIgnore(q, `
		INSERT OR IGNORE INTO credits (track_id, artist_id, name, role)
		VALUES (?, ?, ?, ?)`,
		c.TrackID, c.ArtistID, c.Name, c.Role)
	return outcome, err
}

// LinkTrackArtist links a track to a resolved artist; duplicates ignored
func LinkTrackArtist(q Queryer, trackID, artistID int64) (InsertOutcome, error) {
	outcome, _, err := InsertOrIgnore(q,
		"INSERT OR IGNORE INTO track_artists (track_id, artist_id) VALUES (?, ?)",
		trackID, artistID)
	return outcome, err
}

// ListArtists returns all artist rows ordered by id
func ListArtists(q Queryer) ([]*Artist, error) {
	rows, err := q.Query("SELECT " + artistColumns + " FROM artists ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// ListLabels returns all label rows ordered by id
func ListLabels(q Queryer) ([]*Label, error) {
	rows, err := q.Query("SELECT id, mbid, name FROM labels ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []*Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.MBID, &l.Name); err != nil {
			return nil, err
		}
		labels = append(labels, &l)
	}
	return labels, rows.Err()
}

// CreditsForTrack returns a track's credits ordered by role then name
func CreditsForTrack(q Queryer, trackID int64) ([]*Credit, error) {
	rows, err := q.Query(
		"SELECT id, track_id, artist_id, name, role FROM credits WHERE track_id = ? ORDER BY role, name",
		trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var credits []*Credit
	for rows.Next() {
		var c Credit
		if err := rows.Scan(&c.ID, &c.TrackID, &c.ArtistID, &c.Name, &c.Role); err != nil {
			return nil, err
		}
		credits = append(credits, &c)
	}
	return credits, rows.Err()
}
