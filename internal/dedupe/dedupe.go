// Package dedupe is the library maintenance pass: it merges entity rows
// that refer to the same real-world artist or label under case-variant
// names, repointing every reference to the surviving row. Each merge is
// one transaction, so a crash mid-pass leaves only unmerged duplicates,
// never dangling references.
package dedupe

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/franz/melodeon/internal/canonical"
	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
)

// Result summarizes one maintenance run
type Result struct {
	ArtistsMerged int
	LabelsMerged  int
	TagsMerged    int
	RolesRenamed  int
	Errors        []error
}

// Ledger name for the dedup migration entry point.
const migrationDedupe = "dedupe-entities"

// RunOnce runs the full maintenance pass under the migration ledger:
// once a pass has completed cleanly, later calls no-op unless forced.
// The pass commits merge by merge, so the ledger entry is written only
// after an error-free run and a partial run stays retryable. The
// returned bool reports whether the pass actually ran.
func RunOnce(st *store.Store, force bool) (*Result, bool, error) {
	if !force {
		applied, err := st.MigrationApplied(migrationDedupe)
		if err != nil {
			return nil, false, err
		}
		if applied {
			util.DebugLog("Dedupe: %q already applied, skipping", migrationDedupe)
			return nil, false, nil
		}
	}
	result := Run(st)
	if len(result.Errors) == 0 {
		if err := st.RecordMigration(migrationDedupe); err != nil {
			return result, true, err
		}
	}
	return result, true, nil
}

// Run executes the full maintenance pass: artist and label dedup, then
// tag and role canonicalization, then a tag count resync.
func Run(st *store.Store) *Result {
	result := &Result{}

	n, err := MergeDuplicateArtists(st)
	result.ArtistsMerged = n
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	n, err = MergeDuplicateLabels(st)
	result.LabelsMerged = n
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	n, err = CanonicalizeTags(st)
	result.TagsMerged = n
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	n, err = CanonicalizeRoles(st)
	result.RolesRenamed = n
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	if err := store.SyncTagCounts(st.DB()); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("sync tag counts: %w", err))
	}
	return result
}

// MergeDuplicateArtists merges artists whose names differ only in case
// or normalization. The keeper is the row with an external id, else the
// lowest id; rows carrying a different external id than the keeper are
// genuinely distinct artists and are left alone. Returns the number of
// rows merged away.
func MergeDuplicateArtists(st *store.Store) (int, error) {
	artists, err := store.ListArtists(st.DB())
	if err != nil {
		return 0, fmt.Errorf("list artists: %w", err)
	}

	groups := make(map[string][]*store.Artist)
	for _, a := range artists {
		key := strings.ToLower(canonical.NormalizeArtistName(a.Name))
		groups[key] = append(groups[key], a)
	}

	merged := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		keeper := pickArtistKeeper(group)
		for _, loser := range group {
			if loser.ID == keeper.ID {
				continue
			}
			if loser.MBID != "" && keeper.MBID != "" && loser.MBID != keeper.MBID {
				continue
			}
			err := st.Transaction(func(tx *sql.Tx) error {
				return mergeArtist(tx, keeper, loser)
			})
			if err != nil {
				return merged, fmt.Errorf("merge artist %q into %q: %w", loser.Name, keeper.Name, err)
			}
			util.DebugLog("Dedupe: merged artist %q (id %d) into %q (id %d)",
				loser.Name, loser.ID, keeper.Name, keeper.ID)
			merged++
		}
	}
	return merged, nil
}

// pickArtistKeeper prefers the row with an external id, breaking ties by
// lowest id so repeated runs pick the same keeper
func pickArtistKeeper(group []*store.Artist) *store.Artist {
	keeper := group[0]
	for _, a := range group[1:] {
		switch {
		case a.MBID != "" && keeper.MBID == "":
			keeper = a
		case (a.MBID != "") == (keeper.MBID != "") && a.ID < keeper.ID:
			keeper = a
		}
	}
	return keeper
}

// mergeArtist repoints every reference from loser to keeper and deletes
// the loser. Primary-key collisions on junction rows mean the keeper
// already holds the link, so the loser's copy is simply dropped.
func mergeArtist(tx *sql.Tx, keeper, loser *store.Artist) error {
	if _, err := tx.Exec(`UPDATE credits SET artist_id = ? WHERE artist_id = ?`, keeper.ID, loser.ID); err != nil {
		return fmt.Errorf("repoint credits: %w", err)
	}
	if _, err := tx.Exec(`UPDATE OR IGNORE track_artists SET artist_id = ? WHERE artist_id = ?`, keeper.ID, loser.ID); err != nil {
		return fmt.Errorf("repoint track_artists: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM track_artists WHERE artist_id = ?`, loser.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE releases SET artist_id = ? WHERE artist_id = ?`, keeper.ID, loser.ID); err != nil {
		return fmt.Errorf("repoint releases: %w", err)
	}
	if _, err := tx.Exec(`UPDATE OR IGNORE tag_links SET entity_id = ? WHERE entity_type = ? AND entity_id = ?`,
		keeper.ID, store.EntityArtist, loser.ID); err != nil {
		return fmt.Errorf("repoint tag links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tag_links WHERE entity_type = ? AND entity_id = ?`,
		store.EntityArtist, loser.ID); err != nil {
		return err
	}

	// The keeper inherits whatever profile data it lacks
	if loser.MBID != "" {
		if err := store.BackfillArtistMBID(tx, keeper.ID, loser.MBID); err != nil {
			return err
		}
	}
	if err := store.FillArtistProfile(tx, keeper.ID,
		loser.Description, loser.ImagePath, loser.WikiURL); err != nil {
		return err
	}

	_, err := tx.Exec(`DELETE FROM artists WHERE id = ?`, loser.ID)
	return err
}

// MergeDuplicateLabels merges labels sharing a case-insensitive name.
// Labels always carry an external id, so duplicates are distinct ids
// for one imprint; the lowest row id survives and releases are
// repointed to its id.
func MergeDuplicateLabels(st *store.Store) (int, error) {
	labels, err := store.ListLabels(st.DB())
	if err != nil {
		return 0, fmt.Errorf("list labels: %w", err)
	}

	groups := make(map[string][]*store.Label)
	for _, l := range labels {
		groups[strings.ToLower(l.Name)] = append(groups[strings.ToLower(l.Name)], l)
	}

	merged := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		keeper := group[0]
		for _, l := range group[1:] {
			if l.ID < keeper.ID {
				keeper = l
			}
		}
		for _, loser := range group {
			if loser.ID == keeper.ID {
				continue
			}
			err := st.Transaction(func(tx *sql.Tx) error {
				if _, err := tx.Exec(`UPDATE releases SET label_mbid = ? WHERE label_mbid = ?`,
					keeper.MBID, loser.MBID); err != nil {
					return fmt.Errorf("repoint releases: %w", err)
				}
				_, err := tx.Exec(`DELETE FROM labels WHERE id = ?`, loser.ID)
				return err
			})
			if err != nil {
				return merged, fmt.Errorf("merge label %q: %w", loser.Name, err)
			}
			merged++
		}
	}
	return merged, nil
}
