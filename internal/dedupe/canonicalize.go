package dedupe

import (
	"database/sql"
	"fmt"

	"github.com/franz/melodeon/internal/canonical"
	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
)

// Ledger name for the canonicalization migration entry point.
const migrationCanonicalize = "canonicalize-tags-roles"

// CanonicalizeOnce runs the sort-name backfill and the tag and role
// rewrites under the migration ledger; a clean run records the pass so
// later calls no-op unless forced. Returns the tag and role rewrite
// counts and whether the pass ran.
func CanonicalizeOnce(st *store.Store, force bool) (tags, roles int, ran bool, err error) {
	if !force {
		applied, err := st.MigrationApplied(migrationCanonicalize)
		if err != nil {
			return 0, 0, false, err
		}
		if applied {
			util.DebugLog("Canonicalize: %q already applied, skipping", migrationCanonicalize)
			return 0, 0, false, nil
		}
	}
	if err := BackfillSortNames(st); err != nil {
		return 0, 0, true, err
	}
	tags, err = CanonicalizeTags(st)
	if err != nil {
		return tags, 0, true, err
	}
	roles, err = CanonicalizeRoles(st)
	if err != nil {
		return tags, roles, true, err
	}
	return tags, roles, true, st.RecordMigration(migrationCanonicalize)
}

// BackfillSortNames fills empty artist sort names from the display
// name. A one-shot: rows written before sort names existed get one, and
// the migration ledger keeps later runs from touching anything.
func BackfillSortNames(st *store.Store) error {
	return st.RunNamedMigration("backfill-artist-sort-names", func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT id, name FROM artists WHERE sort_name = ''`)
		if err != nil {
			return err
		}
		type artistRow struct {
			id   int64
			name string
		}
		var artists []artistRow
		for rows.Next() {
			var a artistRow
			if err := rows.Scan(&a.id, &a.name); err != nil {
				rows.Close()
				return err
			}
			artists = append(artists, a)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, a := range artists {
			if _, err := tx.Exec(`UPDATE artists SET sort_name = ? WHERE id = ?`,
				canonical.SortName(a.name), a.id); err != nil {
				return err
			}
		}
		return nil
	})
}

// CanonicalizeTags rewrites every tag name through the canonical tag
// table. When the canonical name already exists as its own row, the two
// rows are merged and links repointed. Returns the number of tags
// renamed or merged.
func CanonicalizeTags(st *store.Store) (int, error) {
	rows, err := st.DB().Query(`SELECT id, name FROM tags ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("list tags: %w", err)
	}
	type tagRow struct {
		id   int64
		name string
	}
	var tags []tagRow
	for rows.Next() {
		var t tagRow
		if err := rows.Scan(&t.id, &t.name); err != nil {
			rows.Close()
			return 0, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	changed := 0
	for _, t := range tags {
		canon := canonical.NormalizeTag(t.name)
		if canon == t.name {
			continue
		}
		err := st.Transaction(func(tx *sql.Tx) error {
			existing, err := store.GetTagByName(tx, canon)
			if err != nil {
				return err
			}
			if existing == nil || existing.ID == t.id {
				_, err := tx.Exec(`UPDATE tags SET name = ? WHERE id = ?`, canon, t.id)
				return err
			}
			// Merge into the existing canonical row; a primary-key
			// collision means the entity carried both spellings
			if _, err := tx.Exec(`UPDATE OR IGNORE tag_links SET tag_id = ? WHERE tag_id = ?`,
				existing.ID, t.id); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM tag_links WHERE tag_id = ?`, t.id); err != nil {
				return err
			}
			_, err = tx.Exec(`DELETE FROM tags WHERE id = ?`, t.id)
			return err
		})
		if err != nil {
			return changed, fmt.Errorf("canonicalize tag %q: %w", t.name, err)
		}
		util.DebugLog("Canonicalize: tag %q -> %q", t.name, canon)
		changed++
	}
	return changed, nil
}

// CanonicalizeRoles rewrites every credit role through the canonical
// role table. A unique collision means the track already carries the
// credit under the canonical spelling, so the variant row is dropped.
// Returns the number of distinct role spellings rewritten.
func CanonicalizeRoles(st *store.Store) (int, error) {
	rows, err := st.DB().Query(`SELECT DISTINCT role FROM credits`)
	if err != nil {
		return 0, fmt.Errorf("list roles: %w", err)
	}
	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			rows.Close()
			return 0, err
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	changed := 0
	for _, role := range roles {
		canon := canonical.NormalizeRole(role)
		if canon == role {
			continue
		}
		err := st.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(`UPDATE OR IGNORE credits SET role = ? WHERE role = ?`, canon, role); err != nil {
				return err
			}
			_, err := tx.Exec(`DELETE FROM credits WHERE role = ?`, role)
			return err
		})
		if err != nil {
			return changed, fmt.Errorf("canonicalize role %q: %w", role, err)
		}
		util.DebugLog("Canonicalize: role %q -> %q", role, canon)
		changed++
	}
	return changed, nil
}
