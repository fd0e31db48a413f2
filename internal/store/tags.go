package store

import (
	"database/sql"
	"fmt"
)

// Entity types usable in the polymorphic tag link table
const (
	EntityTrack   = "track"
	EntityRelease = "release"
	EntityArtist  = "artist"
)

// Tag is a canonical vocabulary term with a denormalized usage count
type Tag struct {
	ID    int64
	Name  string
	Count int64
}

// EnsureTag returns the id of the tag with the given canonical name,
// creating the row if needed
func EnsureTag(q Queryer, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("tag name cannot be empty")
	}

	outcome, id, err := InsertOrIgnore(q, "INSERT OR IGNORE INTO tags (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("ensure tag %q: %w", name, err)
	}
	if outcome == Inserted {
		return id, nil
	}

	err = q.QueryRow("SELECT id FROM tags WHERE name = ?", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("lookup tag %q: %w", name, err)
	}
	return id, nil
}

// LinkTag attaches a tag to an entity. Duplicate links are ignored, so
// re-enrichment never inflates the usage count (the triggers only fire on
// rows actually inserted).
func LinkTag(q Queryer, tagID int64, entityType string, entityID int64) (InsertOutcome, error) {
	outcome, _, err := InsertOrIgnore(q,
		"INSERT OR IGNORE INTO tag_links (tag_id, entity_type, entity_id) VALUES (?, ?, ?)",
		tagID, entityType, entityID)
	return outcome, err
}

// GetTagByName returns a tag row by canonical name, or nil
func GetTagByName(q Queryer, name string) (*Tag, error) {
	var t Tag
	err := q.QueryRow("SELECT id, name, count FROM tags WHERE name = ?", name).
		Scan(&t.ID, &t.Name, &t.Count)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TagsForEntity returns the tags linked to one entity
func TagsForEntity(q Queryer, entityType string, entityID int64) ([]*Tag, error) {
	rows, err := q.Query(`
		SELECT t.id, t.name, t.count FROM tags t
		JOIN tag_links l ON l.tag_id = t.id
		WHERE l.entity_type = ? AND l.entity_id = ?
		ORDER BY t.count DESC, t.name`,
		entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// SyncTagCounts recomputes every tag's denormalized count from its live
// links and removes tags with no links left. Run after dedup merges.
func SyncTagCounts(q Queryer) error {
	_, err := q.Exec(`
		UPDATE tags SET count = (
			SELECT COUNT(*) FROM tag_links WHERE tag_links.tag_id = tags.id
		)`)
	if err != nil {
		return fmt.Errorf("sync tag counts: %w", err)
	}
	_, err = q.Exec("DELETE FROM tags WHERE count = 0")
	return err
}
