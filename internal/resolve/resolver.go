// Package resolve maps external catalog entities onto local database
// rows, creating them only when no matching row exists. Rows that already
// carry an external identifier are preferred over newly-discovered ones,
// and an identifier is never overwritten once set.
package resolve

import (
	"fmt"

	"github.com/franz/melodeon/internal/canonical"
	"github.com/franz/melodeon/internal/store"
)

// ArtistCandidate is an external artist entity to resolve
type ArtistCandidate struct {
	Name     string
	SortName string
	MBID     string
}

// ReleaseCandidate is an external release entity to resolve
type ReleaseCandidate struct {
	MBID        string
	Title       string
	ArtistID    int64 // local artist row id, 0 when unknown
	Year        int
	Type        string
	Description string
	LabelMBID   string
}

// LabelCandidate is an external label entity to resolve
type LabelCandidate struct {
	MBID string
	Name string
}

// UpsertArtist resolves an artist candidate to a local row id.
//
// Lookup order is name-first: a row matching the case-insensitive name
// wins and gets its external id backfilled only if it had none. The
// secondary mbid lookup covers two differently-cased name variants that
// map to one external entity. Only when both miss is a new row created.
func UpsertArtist(q store.Queryer, c ArtistCandidate) (int64, error) {
	name := canonical.NormalizeArtistName(c.Name)
	if name == "" {
		return 0, fmt.Errorf("artist candidate has empty name")
	}

	existing, err := store.GetArtistByName(q, name)
	if err != nil {
		return 0, fmt.Errorf("artist lookup by name: %w", err)
	}
	if existing != nil {
		if err := store.BackfillArtistMBID(q, existing.ID, c.MBID); err != nil {
			return 0, fmt.Errorf("backfill artist mbid: %w", err)
		}
		return existing.ID, nil
	}

	existing, err = store.GetArtistByMBID(q, c.MBID)
	if err != nil {
		return 0, fmt.Errorf("artist lookup by mbid: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	sortName := c.SortName
	if sortName == "" {
		sortName = canonical.SortName(name)
	}
	id, err := store.InsertArtist(q, &store.Artist{
		Name:     name,
		SortName: sortName,
		MBID:     c.MBID,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertRelease resolves a release candidate to a local row id. Releases
// are always identified externally; when the row exists only the
// description and type fields are refreshed.
func UpsertRelease(q store.Queryer, c ReleaseCandidate) (int64, error) {
	if c.MBID == "" {
		return 0, fmt.Errorf("release candidate has no external id")
	}

	existing, err := store.GetReleaseByMBID(q, c.MBID)
	if err != nil {
		return 0, fmt.Errorf("release lookup: %w", err)
	}
	if existing != nil {
		if c.Description != "" || c.Type != "" {
			if err := store.RefreshRelease(q, c.MBID, c.Description, c.Type); err != nil {
				return 0, fmt.Errorf("refresh release: %w", err)
			}
		}
		return existing.ID, nil
	}

	rel := &store.Release{
		MBID:        c.MBID,
		Title:       c.Title,
		Year:        c.Year,
		ReleaseType: c.Type,
		Description: c.Description,
		LabelMBID:   c.LabelMBID,
	}
	if c.ArtistID != 0 {
		rel.ArtistID.Int64 = c.ArtistID
		rel.ArtistID.Valid = true
	}
	return store.InsertRelease(q, rel)
}

// UpsertLabel resolves a label candidate by external id only. There is no
// name-based merge for labels: their cardinality is low and the risk of
// same-name-different-label collisions outweighs the dedup benefit.
func UpsertLabel(q store.Queryer, c LabelCandidate) (int64, error) {
	if c.MBID == "" {
		return 0, fmt.Errorf("label candidate has no external id")
	}

	existing, err := store.GetLabelByMBID(q, c.MBID)
	if err != nil {
		return 0, fmt.Errorf("label lookup: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	return store.InsertLabel(q, &store.Label{MBID: c.MBID, Name: c.Name})
}

// AddCredit writes a contribution record with its role canonicalized.
// Safe to repeat: duplicate credits are ignored at the persistence layer.
func AddCredit(q store.Queryer, trackID int64, artistID int64, name, role string) error {
	c := &store.Credit{
		TrackID: trackID,
		Name:    canonical.NormalizeArtistName(name),
		Role:    canonical.NormalizeRole(role),
	}
	if artistID != 0 {
		c.ArtistID.Int64 = artistID
		c.ArtistID.Valid = true
	}
	_, err := store.InsertCredit(q, c)
	return err
}

// AddTag links a canonicalized tag to an entity, creating the vocabulary
// term if needed. Safe to repeat.
func AddTag(q store.Queryer, rawTag, entityType string, entityID int64) error {
	name := canonical.NormalizeTag(rawTag)
	if name == "" {
		return nil
	}
	tagID, err := store.EnsureTag(q, name)
	if err != nil {
		return err
	}
	_, err = store.LinkTag(q, tagID, entityType, entityID)
	return err
}
