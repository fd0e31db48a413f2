package dedupe

import (
	"testing"

	"github.com/franz/melodeon/internal/resolve"
	"github.com/franz/melodeon/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// insertArtist writes an artist row directly, bypassing the resolver's
// name-first lookup, the way pre-dedup databases accumulated duplicates
func insertArtist(t *testing.T, st *store.Store, name, mbid string) int64 {
	t.Helper()
	id, err := store.InsertArtist(st.DB(), &store.Artist{Name: name, MBID: mbid})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestMergeDuplicateArtists(t *testing.T) {
	st := openTestStore(t)

	keeperID := insertArtist(t, st, "Boards of Canada", "mbid-boc")
	loserID := insertArtist(t, st, "boards of canada", "")
	insertArtist(t, st, "Aphex Twin", "mbid-aphex")

	trackID, _ := store.UpsertTrack(st.DB(), &store.Track{Path: "/m/a.flac", Title: "A"})
	if err := resolve.AddCredit(st.DB(), trackID, loserID, "boards of canada", "performer"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LinkTrackArtist(st.DB(), trackID, loserID); err != nil {
		t.Fatal(err)
	}
	// The keeper already holds this link; the loser's copy must be dropped
	if _, err := store.LinkTrackArtist(st.DB(), trackID, keeperID); err != nil {
		t.Fatal(err)
	}

	merged, err := MergeDuplicateArtists(st)
	if err != nil {
		t.Fatal(err)
	}
	if merged != 1 {
		t.Fatalf("merged %d artists, want 1", merged)
	}

	artists, _ := store.ListArtists(st.DB())
	if len(artists) != 2 {
		t.Fatalf("got %d artists after merge, want 2", len(artists))
	}
	if loser, _ := store.GetArtist(st.DB(), loserID); loser != nil {
		t.Error("loser row survived the merge")
	}

	// The credit follows the keeper
	credits, _ := store.CreditsForTrack(st.DB(), trackID)
	if len(credits) != 1 {
		t.Fatalf("got %d credits, want 1", len(credits))
	}
	if !credits[0].ArtistID.Valid || credits[0].ArtistID.Int64 != keeperID {
		t.Errorf("credit points at %v, want keeper %d", credits[0].ArtistID, keeperID)
	}

	// No dangling junction rows
	var n int
	if err := st.DB().QueryRow(
		"SELECT COUNT(*) FROM track_artists WHERE artist_id = ?", loserID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d track_artists rows still point at the loser", n)
	}
}

// The keeper with an external id wins regardless of insertion order
func TestMergeKeeperPrefersMBID(t *testing.T) {
	st := openTestStore(t)

	first := insertArtist(t, st, "burial", "")
	second := insertArtist(t, st, "Burial", "mbid-burial")

	if _, err := MergeDuplicateArtists(st); err != nil {
		t.Fatal(err)
	}

	if gone, _ := store.GetArtist(st.DB(), first); gone != nil {
		t.Error("row without external id should have been merged away")
	}
	keeper, _ := store.GetArtist(st.DB(), second)
	if keeper == nil || keeper.MBID != "mbid-burial" {
		t.Errorf("keeper lost: %+v", keeper)
	}
}

// Same-name artists with different external ids are genuinely distinct
// and must never be merged
func TestMergeDistinctMBIDsUntouched(t *testing.T) {
	st := openTestStore(t)

	insertArtist(t, st, "John Williams", "mbid-composer")
	insertArtist(t, st, "john williams", "mbid-guitarist")

	merged, err := MergeDuplicateArtists(st)
	if err != nil {
		t.Fatal(err)
	}
	if merged != 0 {
		t.Errorf("merged %d artists, want 0", merged)
	}
	artists, _ := store.ListArtists(st.DB())
	if len(artists) != 2 {
		t.Errorf("got %d artists, want 2", len(artists))
	}
}

func TestMergeInheritsProfile(t *testing.T) {
	st := openTestStore(t)

	// The keeper has the external id; only the loser has profile text
	keeperID := insertArtist(t, st, "Autechre", "mbid-ae")
	loserID := insertArtist(t, st, "autechre", "")
	if err := store.FillArtistProfile(st.DB(), loserID, "Sheffield duo.", "", "https://en.wikipedia.org/wiki/Autechre"); err != nil {
		t.Fatal(err)
	}

	if _, err := MergeDuplicateArtists(st); err != nil {
		t.Fatal(err)
	}

	survivors, _ := store.ListArtists(st.DB())
	if len(survivors) != 1 {
		t.Fatalf("got %d artists, want 1", len(survivors))
	}
	got := survivors[0]
	if got.ID != keeperID {
		t.Fatalf("wrong survivor: %+v", got)
	}
	if got.MBID != "mbid-ae" || got.Description != "Sheffield duo." {
		t.Errorf("profile not inherited: %+v", got)
	}
}

func TestMergeDuplicateLabels(t *testing.T) {
	st := openTestStore(t)

	if _, err := resolve.UpsertLabel(st.DB(), resolve.LabelCandidate{MBID: "lbl-1", Name: "Warp"}); err != nil {
		t.Fatal(err)
	}
	if _, err := resolve.UpsertLabel(st.DB(), resolve.LabelCandidate{MBID: "lbl-2", Name: "WARP"}); err != nil {
		t.Fatal(err)
	}
	if _, err := resolve.UpsertRelease(st.DB(), resolve.ReleaseCandidate{
		MBID: "rel-1", Title: "LP5", LabelMBID: "lbl-2",
	}); err != nil {
		t.Fatal(err)
	}

	merged, err := MergeDuplicateLabels(st)
	if err != nil {
		t.Fatal(err)
	}
	if merged != 1 {
		t.Fatalf("merged %d labels, want 1", merged)
	}

	labels, _ := store.ListLabels(st.DB())
	if len(labels) != 1 {
		t.Fatalf("got %d labels, want 1", len(labels))
	}
	rel, _ := store.GetReleaseByMBID(st.DB(), "rel-1")
	if rel.LabelMBID != "lbl-1" {
		t.Errorf("release label not repointed: %q", rel.LabelMBID)
	}
}

func TestCanonicalizeTagsMerges(t *testing.T) {
	st := openTestStore(t)

	trackID, _ := store.UpsertTrack(st.DB(), &store.Track{Path: "/m/a.flac", Title: "A"})

	// Write variant tags directly, as an older database would hold them
	for _, name := range []string{"hip hop", "Hip-Hop"} {
		tagID, err := store.EnsureTag(st.DB(), name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.LinkTag(st.DB(), tagID, store.EntityTrack, trackID); err != nil {
			t.Fatal(err)
		}
	}

	changed, err := CanonicalizeTags(st)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 1 {
		t.Errorf("changed %d tags, want 1", changed)
	}

	if old, _ := store.GetTagByName(st.DB(), "hip hop"); old != nil {
		t.Error("variant tag row survived")
	}
	canon, _ := store.GetTagByName(st.DB(), "Hip-Hop")
	if canon == nil {
		t.Fatal("canonical tag missing")
	}
	// Both links collapsed onto the same (tag, entity) row
	tags, _ := store.TagsForEntity(st.DB(), store.EntityTrack, trackID)
	if len(tags) != 1 {
		t.Errorf("entity carries %d tags, want 1", len(tags))
	}
}

func TestCanonicalizeTagsIdempotent(t *testing.T) {
	st := openTestStore(t)

	trackID, _ := store.UpsertTrack(st.DB(), &store.Track{Path: "/m/a.flac", Title: "A"})
	if err := resolve.AddTag(st.DB(), "rap", store.EntityTrack, trackID); err != nil {
		t.Fatal(err)
	}

	// Resolver-written tags are already canonical; a pass changes nothing
	changed, err := CanonicalizeTags(st)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 0 {
		t.Errorf("changed %d tags on already-canonical data", changed)
	}
}

func TestCanonicalizeRoles(t *testing.T) {
	st := openTestStore(t)

	trackID, _ := store.UpsertTrack(st.DB(), &store.Track{Path: "/m/a.flac", Title: "A"})
	// Insert variant-role credits directly
	for _, role := range []string{"produced by", "Producer"} {
		if _, err := store.InsertCredit(st.DB(), &store.Credit{
			TrackID: trackID, Name: "Nigel Godrich", Role: role,
		}); err != nil {
			t.Fatal(err)
		}
	}

	changed, err := CanonicalizeRoles(st)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 1 {
		t.Errorf("changed %d roles, want 1", changed)
	}

	credits, _ := store.CreditsForTrack(st.DB(), trackID)
	if len(credits) != 1 {
		t.Fatalf("got %d credits after canonicalization, want 1", len(credits))
	}
	if credits[0].Role != "Producer" {
		t.Errorf("role = %q, want Producer", credits[0].Role)
	}
}

func TestBackfillSortNamesOnce(t *testing.T) {
	st := openTestStore(t)

	id := insertArtist(t, st, "The Beatles", "")
	if err := BackfillSortNames(st); err != nil {
		t.Fatal(err)
	}

	artist, _ := store.GetArtist(st.DB(), id)
	if artist.SortName != "Beatles, The" {
		t.Errorf("sort name = %q", artist.SortName)
	}

	// The ledger makes the second call a no-op, even for new empty rows
	id2 := insertArtist(t, st, "The Cure", "")
	if err := BackfillSortNames(st); err != nil {
		t.Fatal(err)
	}
	artist2, _ := store.GetArtist(st.DB(), id2)
	if artist2.SortName != "" {
		t.Errorf("one-shot ran twice: %q", artist2.SortName)
	}
}

func TestRunFullPass(t *testing.T) {
	st := openTestStore(t)

	insertArtist(t, st, "Four Tet", "mbid-4t")
	insertArtist(t, st, "four tet", "")

	result := Run(st)
	if len(result.Errors) > 0 {
		t.Fatalf("maintenance pass errors: %v", result.Errors)
	}
	if result.ArtistsMerged != 1 {
		t.Errorf("merged %d artists, want 1", result.ArtistsMerged)
	}
}

// A completed pass lands in the migration ledger; later calls no-op
// unless forced
func TestRunOnceLedgered(t *testing.T) {
	st := openTestStore(t)

	insertArtist(t, st, "Four Tet", "mbid-4t")
	insertArtist(t, st, "four tet", "")

	result, ran, err := RunOnce(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if !ran || result.ArtistsMerged != 1 {
		t.Fatalf("first pass: ran=%v, merged=%d", ran, result.ArtistsMerged)
	}

	insertArtist(t, st, "Caribou", "mbid-car")
	insertArtist(t, st, "caribou", "")

	if _, ran, err = RunOnce(st, false); err != nil {
		t.Fatal(err)
	} else if ran {
		t.Error("ledgered pass ran again without force")
	}

	result, ran, err = RunOnce(st, true)
	if err != nil {
		t.Fatal(err)
	}
	if !ran || result.ArtistsMerged != 1 {
		t.Errorf("forced pass: ran=%v, merged=%d, want the new duplicate merged", ran, result.ArtistsMerged)
	}
}

func TestCanonicalizeOnceLedgered(t *testing.T) {
	st := openTestStore(t)

	if _, err := store.EnsureTag(st.DB(), "hip hop"); err != nil {
		t.Fatal(err)
	}

	tags, _, ran, err := CanonicalizeOnce(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if !ran || tags != 1 {
		t.Fatalf("first pass: ran=%v, tags=%d", ran, tags)
	}

	if _, _, ran, err = CanonicalizeOnce(st, false); err != nil {
		t.Fatal(err)
	} else if ran {
		t.Error("ledgered pass ran again without force")
	}

	if _, _, ran, err = CanonicalizeOnce(st, true); err != nil {
		t.Fatal(err)
	} else if !ran {
		t.Error("forced pass did not run")
	}
}
