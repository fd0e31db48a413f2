package store

import (
	"database/sql"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUpsertTrackPreservesEnrichment(t *testing.T) {
	st := openTestStore(t)

	id, err := UpsertTrack(st.DB(), &Track{
		Path:   "/music/boc/roygbiv.flac",
		Title:  "Roygbiv",
		Artist: "Boards of Canada",
		Album:  "Music Has the Right to Children",
		Format: "flac",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := UpdateTrackEnrichment(st.DB(), id, "mbid-1", "rel-1", "Electronic", true); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	// A rescan of the same path refreshes tags but keeps enrichment
	id2, err := UpsertTrack(st.DB(), &Track{
		Path:   "/music/boc/roygbiv.flac",
		Title:  "ROYGBIV",
		Artist: "Boards of Canada",
		Album:  "Music Has the Right to Children",
		Format: "flac",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if id2 != id {
		t.Fatalf("refresh created a new row: %d != %d", id2, id)
	}

	track, err := GetTrack(st.DB(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if track.Title != "ROYGBIV" {
		t.Errorf("title not refreshed: %q", track.Title)
	}
	if !track.Enriched || track.MBID != "mbid-1" || track.ReleaseMBID != "rel-1" {
		t.Errorf("enrichment lost on refresh: %+v", track)
	}
}

func TestUpsertTrackEmbeddedIDsWriteOnce(t *testing.T) {
	st := openTestStore(t)

	id, err := UpsertTrack(st.DB(), &Track{Path: "/m/a.flac", Title: "A", MBID: "embedded-1"})
	if err != nil {
		t.Fatal(err)
	}

	// A later scan with a different embedded id must not overwrite
	if _, err := UpsertTrack(st.DB(), &Track{Path: "/m/a.flac", Title: "A", MBID: "embedded-2"}); err != nil {
		t.Fatal(err)
	}

	track, err := GetTrack(st.DB(), id)
	if err != nil {
		t.Fatal(err)
	}
	if track.MBID != "embedded-1" {
		t.Errorf("embedded id overwritten: %q", track.MBID)
	}
}

func TestUnenrichedTracksForce(t *testing.T) {
	st := openTestStore(t)

	id, _ := UpsertTrack(st.DB(), &Track{Path: "/m/a.flac", Title: "A"})
	UpsertTrack(st.DB(), &Track{Path: "/m/b.flac", Title: "B"})
	if err := MarkTrackEnriched(st.DB(), id); err != nil {
		t.Fatal(err)
	}

	tracks, err := UnenrichedTracks(st.DB(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 {
		t.Fatalf("got %d unenriched tracks, want 1", len(tracks))
	}

	tracks, err = UnenrichedTracks(st.DB(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 {
		t.Fatalf("force: got %d tracks, want 2", len(tracks))
	}
}

func TestAlbumGroups(t *testing.T) {
	st := openTestStore(t)

	// Case-variant artist/album tags land in one group
	UpsertTrack(st.DB(), &Track{Path: "/m/1.flac", Title: "One", Artist: "Boards of Canada", Album: "Geogaddi"})
	UpsertTrack(st.DB(), &Track{Path: "/m/2.flac", Title: "Two", Artist: "boards of canada", Album: "GEOGADDI"})
	// Album-less tracks become single-track groups
	UpsertTrack(st.DB(), &Track{Path: "/m/3.flac", Title: "Stray", Artist: "Boards of Canada"})

	groups, err := AlbumGroups(st.DB(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	var albumGroup *AlbumGroup
	for _, g := range groups {
		if g.Album != "" {
			albumGroup = g
		}
	}
	if albumGroup == nil || len(albumGroup.Tracks) != 2 {
		t.Fatalf("expected one album group with 2 tracks, got %+v", groups)
	}
}

func TestAlbumGroupEmbeddedMBID(t *testing.T) {
	g := &AlbumGroup{Tracks: []*Track{
		{Path: "/m/1.flac"},
		{Path: "/m/2.flac", ReleaseMBID: "rel-9"},
	}}
	if got := g.EmbeddedMBID(); got != "rel-9" {
		t.Errorf("EmbeddedMBID = %q, want rel-9", got)
	}
	if got := (&AlbumGroup{}).EmbeddedMBID(); got != "" {
		t.Errorf("empty group EmbeddedMBID = %q, want empty", got)
	}
}

func TestInsertOrIgnoreOutcomes(t *testing.T) {
	st := openTestStore(t)

	outcome, id, err := InsertOrIgnore(st.DB(), "INSERT OR IGNORE INTO tags (name) VALUES (?)", "Electronic")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Inserted || id == 0 {
		t.Fatalf("first insert: outcome %v, id %d", outcome, id)
	}

	outcome, _, err = InsertOrIgnore(st.DB(), "INSERT OR IGNORE INTO tags (name) VALUES (?)", "Electronic")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != AlreadyExists {
		t.Fatalf("second insert: outcome %v, want AlreadyExists", outcome)
	}
}

func TestTagCountTriggers(t *testing.T) {
	st := openTestStore(t)

	trackID, _ := UpsertTrack(st.DB(), &Track{Path: "/m/a.flac", Title: "A"})
	tagID, err := EnsureTag(st.DB(), "Ambient")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := LinkTag(st.DB(), tagID, EntityTrack, trackID); err != nil {
		t.Fatal(err)
	}
	// Re-linking is ignored and must not inflate the count
	if _, err := LinkTag(st.DB(), tagID, EntityTrack, trackID); err != nil {
		t.Fatal(err)
	}

	tag, err := GetTagByName(st.DB(), "Ambient")
	if err != nil {
		t.Fatal(err)
	}
	if tag.Count != 1 {
		t.Errorf("tag count = %d, want 1", tag.Count)
	}

	if _, err := st.DB().Exec("DELETE FROM tag_links WHERE tag_id = ?", tagID); err != nil {
		t.Fatal(err)
	}
	tag, _ = GetTagByName(st.DB(), "Ambient")
	if tag.Count != 0 {
		t.Errorf("tag count after unlink = %d, want 0", tag.Count)
	}
}

func TestSyncTagCounts(t *testing.T) {
	st := openTestStore(t)

	trackID, _ := UpsertTrack(st.DB(), &Track{Path: "/m/a.flac", Title: "A"})
	tagID, _ := EnsureTag(st.DB(), "Ambient")
	orphanID, _ := EnsureTag(st.DB(), "Unused")
	LinkTag(st.DB(), tagID, EntityTrack, trackID)

	// Skew a count behind the triggers' back
	if _, err := st.DB().Exec("UPDATE tags SET count = 42 WHERE id = ?", tagID); err != nil {
		t.Fatal(err)
	}

	if err := SyncTagCounts(st.DB()); err != nil {
		t.Fatal(err)
	}

	tag, _ := GetTagByName(st.DB(), "Ambient")
	if tag == nil || tag.Count != 1 {
		t.Errorf("count not resynced: %+v", tag)
	}
	// Zero-count tags are swept
	orphan, _ := GetTagByName(st.DB(), "Unused")
	if orphan != nil {
		t.Errorf("orphan tag %d survived the sync", orphanID)
	}
}

func TestNamedMigrationLedger(t *testing.T) {
	st := openTestStore(t)

	runs := 0
	fn := func(tx *sql.Tx) error {
		runs++
		return nil
	}

	if err := st.RunNamedMigration("test-oneshot", fn); err != nil {
		t.Fatal(err)
	}
	if err := st.RunNamedMigration("test-oneshot", fn); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Errorf("migration ran %d times, want 1", runs)
	}

	applied, err := st.MigrationApplied("test-oneshot")
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Error("migration not recorded in ledger")
	}
}

func TestSettings(t *testing.T) {
	st := openTestStore(t)

	if _, ok := st.GetSetting(SettingDiscogsToken); ok {
		t.Error("unset setting reported as present")
	}
	if err := st.SetSetting(SettingDiscogsToken, "tok-1"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetSetting(SettingDiscogsToken, "tok-2"); err != nil {
		t.Fatal(err)
	}
	value, ok := st.GetSetting(SettingDiscogsToken)
	if !ok || value != "tok-2" {
		t.Errorf("GetSetting = %q/%v, want tok-2", value, ok)
	}
}

func TestMarkTrackMissing(t *testing.T) {
	st := openTestStore(t)

	UpsertTrack(st.DB(), &Track{Path: "/m/gone.flac", Title: "Gone"})
	if err := MarkTrackMissing(st.DB(), "/m/gone.flac"); err != nil {
		t.Fatal(err)
	}

	tracks, err := UnenrichedTracks(st.DB(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 0 {
		t.Errorf("missing track still eligible for enrichment")
	}

	// A rescan that finds the file again clears the flag
	UpsertTrack(st.DB(), &Track{Path: "/m/gone.flac", Title: "Gone"})
	tracks, _ = UnenrichedTracks(st.DB(), false)
	if len(tracks) != 1 {
		t.Errorf("reappeared track not eligible again")
	}
}
