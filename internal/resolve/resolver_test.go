package resolve

import (
	"testing"

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

func TestUpsertArtistNameFirst(t *testing.T) {
	st := openTestStore(t)

	// First seen without an external id (e.g. from a Discogs credit)
	id1, err := UpsertArtist(st.DB(), ArtistCandidate{Name: "Boards of Canada"})
	if err != nil {
		t.Fatal(err)
	}

	// Later seen with the external id: same row, id backfilled
	id2, err := UpsertArtist(st.DB(), ArtistCandidate{Name: "boards of canada", MBID: "mbid-boc"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 {
		t.Fatalf("case-variant name created a second row: %d != %d", id2, id1)
	}

	artist, err := store.GetArtist(st.DB(), id1)
	if err != nil {
		t.Fatal(err)
	}
	if artist.MBID != "mbid-boc" {
		t.Errorf("mbid not backfilled: %q", artist.MBID)
	}
}

func TestUpsertArtistMBIDImmutable(t *testing.T) {
	st := openTestStore(t)

	id, err := UpsertArtist(st.DB(), ArtistCandidate{Name: "Aphex Twin", MBID: "mbid-aphex"})
	if err != nil {
		t.Fatal(err)
	}

	// A conflicting id for the same name must not replace the stored one
	id2, err := UpsertArtist(st.DB(), ArtistCandidate{Name: "Aphex Twin", MBID: "mbid-other"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id {
		t.Fatalf("same name resolved to different rows: %d != %d", id2, id)
	}

	artist, _ := store.GetArtist(st.DB(), id)
	if artist.MBID != "mbid-aphex" {
		t.Errorf("stored mbid overwritten: %q", artist.MBID)
	}
}

func TestUpsertArtistSortName(t *testing.T) {
	st := openTestStore(t)

	id, err := UpsertArtist(st.DB(), ArtistCandidate{Name: "The Beatles"})
	if err != nil {
		t.Fatal(err)
	}
	artist, _ := store.GetArtist(st.DB(), id)
	if artist.SortName != "Beatles, The" {
		t.Errorf("derived sort name = %q, want 'Beatles, The'", artist.SortName)
	}

	// A catalog-provided sort name wins over the derived one
	id2, err := UpsertArtist(st.DB(), ArtistCandidate{Name: "múm", SortName: "mum"})
	if err != nil {
		t.Fatal(err)
	}
	artist, _ = store.GetArtist(st.DB(), id2)
	if artist.SortName != "mum" {
		t.Errorf("provided sort name lost: %q", artist.SortName)
	}
}

func TestUpsertReleaseRefresh(t *testing.T) {
	st := openTestStore(t)

	id1, err := UpsertRelease(st.DB(), ReleaseCandidate{
		MBID: "rel-1", Title: "Geogaddi", Year: 2002, Type: "Album",
	})
	if err != nil {
		t.Fatal(err)
	}

	// A second upsert refreshes description and type only
	id2, err := UpsertRelease(st.DB(), ReleaseCandidate{
		MBID: "rel-1", Title: "Renamed", Year: 1999, Type: "EP", Description: "Second album.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 {
		t.Fatalf("same external id resolved to different rows")
	}

	rel, err := store.GetReleaseByMBID(st.DB(), "rel-1")
	if err != nil {
		t.Fatal(err)
	}
	if rel.Title != "Geogaddi" || rel.Year != 2002 {
		t.Errorf("immutable fields changed on refresh: %+v", rel)
	}
	if rel.Description != "Second album." || rel.ReleaseType != "EP" {
		t.Errorf("refreshable fields not updated: %+v", rel)
	}
}

func TestUpsertReleaseRequiresMBID(t *testing.T) {
	st := openTestStore(t)
	if _, err := UpsertRelease(st.DB(), ReleaseCandidate{Title: "No ID"}); err == nil {
		t.Error("expected an error for a release without an external id")
	}
}

func TestUpsertLabel(t *testing.T) {
	st := openTestStore(t)

	id1, err := UpsertLabel(st.DB(), LabelCandidate{MBID: "lbl-warp", Name: "Warp"})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := UpsertLabel(st.DB(), LabelCandidate{MBID: "lbl-warp", Name: "Warp Records"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 {
		t.Errorf("same label id created two rows")
	}

	if _, err := UpsertLabel(st.DB(), LabelCandidate{Name: "No ID"}); err == nil {
		t.Error("expected an error for a label without an external id")
	}
}

func TestAddCreditIdempotent(t *testing.T) {
	st := openTestStore(t)

	trackID, err := store.UpsertTrack(st.DB(), &store.Track{Path: "/m/a.flac", Title: "A"})
	if err != nil {
		t.Fatal(err)
	}
	artistID, err := UpsertArtist(st.DB(), ArtistCandidate{Name: "Nigel Godrich"})
	if err != nil {
		t.Fatal(err)
	}

	// The raw role is canonicalized, so its variants land on one row
	if err := AddCredit(st.DB(), trackID, artistID, "Nigel Godrich", "produced by"); err != nil {
		t.Fatal(err)
	}
	if err := AddCredit(st.DB(), trackID, artistID, "Nigel Godrich", "producer"); err != nil {
		t.Fatal(err)
	}

	credits, err := store.CreditsForTrack(st.DB(), trackID)
	if err != nil {
		t.Fatal(err)
	}
	if len(credits) != 1 {
		t.Fatalf("got %d credits, want 1", len(credits))
	}
	if credits[0].Role != "Producer" {
		t.Errorf("role = %q, want Producer", credits[0].Role)
	}
	if !credits[0].ArtistID.Valid || credits[0].ArtistID.Int64 != artistID {
		t.Errorf("credit not linked to artist row: %+v", credits[0])
	}
}

func TestAddTagCanonicalizes(t *testing.T) {
	st := openTestStore(t)

	trackID, err := store.UpsertTrack(st.DB(), &store.Track{Path: "/m/a.flac", Title: "A"})
	if err != nil {
		t.Fatal(err)
	}

	// Three raw spellings, one canonical tag
	for _, raw := range []string{"hip hop", "Hip-Hop", "rap"} {
		if err := AddTag(st.DB(), raw, store.EntityTrack, trackID); err != nil {
			t.Fatal(err)
		}
	}

	tag, err := store.GetTagByName(st.DB(), "Hip-Hop")
	if err != nil {
		t.Fatal(err)
	}
	if tag == nil {
		t.Fatal("canonical tag not created")
	}
	if tag.Count != 1 {
		t.Errorf("tag count = %d, want 1 (duplicate links must be ignored)", tag.Count)
	}

	// Empty after normalization is a no-op, not an error
	if err := AddTag(st.DB(), "   ", store.EntityTrack, trackID); err != nil {
		t.Errorf("blank tag should be ignored, got %v", err)
	}
}
