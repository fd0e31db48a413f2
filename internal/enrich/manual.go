package enrich

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/melodeon/internal/canonical"
	"github.com/franz/melodeon/internal/coverart"
	"github.com/franz/melodeon/internal/musicbrainz"
	"github.com/franz/melodeon/internal/resolve"
	"github.com/franz/melodeon/internal/store"
)

// SearchReleases lists release candidates for a manual match. No score
// threshold is applied: the caller picks, so weak candidates are shown
// rather than hidden.
func (o *Orchestrator) SearchReleases(ctx context.Context, artist, album string) []musicbrainz.Release {
	return o.finder.Releases(ctx, artist, album)
}

// EnrichTrackWithRelease applies a manually chosen release to a track,
// bypassing the score threshold entirely.
func (o *Orchestrator) EnrichTrackWithRelease(ctx context.Context, trackID int64, releaseMBID string) error {
	track, err := store.GetTrack(o.store.DB(), trackID)
	if err != nil {
		return err
	}
	if track == nil {
		return fmt.Errorf("track %d not found", trackID)
	}

	if o.clients.MusicBrainz == nil {
		return fmt.Errorf("musicbrainz client not available")
	}
	release := o.clients.MusicBrainz.LookupRelease(ctx, releaseMBID)
	if release == nil {
		return fmt.Errorf("release %s not found", releaseMBID)
	}

	credited := musicbrainz.CreditedArtist(release.ArtistCredit)
	artist := resolve.ArtistCandidate{Name: credited}
	if artist.Name == "" {
		artist.Name = track.Artist
	}
	if len(release.ArtistCredit) > 0 {
		artist.MBID = release.ArtistCredit[0].Artist.ID
		artist.SortName = release.ArtistCredit[0].Artist.SortName
	}

	caches := newRunCaches()
	var artistDetail *musicbrainz.Artist
	if artist.MBID != "" {
		artistDetail = caches.artist(ctx, o.clients.MusicBrainz, artist.MBID)
	}
	bio, wikiURL := o.artistText(ctx, caches, artist.Name, artistDetail)
	albumWiki := o.albumText(ctx, caches, artist.Name, release)
	genre := canonical.NormalizeTag(bestTag(release.Tags))

	groupMBID := ""
	releaseType := ""
	if release.ReleaseGroup != nil {
		groupMBID = release.ReleaseGroup.ID
		releaseType = release.ReleaseGroup.PrimaryType
	}

	err = o.store.Transaction(func(tx *sql.Tx) error {
		artistID, err := resolve.UpsertArtist(tx, artist)
		if err != nil {
			return err
		}
		if bio != "" || wikiURL != "" {
			if err := store.FillArtistProfile(tx, artistID, bio, "", wikiURL); err != nil {
				return err
			}
		}

		labelMBID := ""
		if len(release.LabelInfo) > 0 && release.LabelInfo[0].Label != nil && release.LabelInfo[0].Label.ID != "" {
			lbl := release.LabelInfo[0].Label
			if _, err := resolve.UpsertLabel(tx, resolve.LabelCandidate{MBID: lbl.ID, Name: lbl.Name}); err != nil {
				return err
			}
			labelMBID = lbl.ID
		}

		description := albumWiki
		if description == "" {
			description = release.Annotation
		}
		releaseID, err := resolve.UpsertRelease(tx, resolve.ReleaseCandidate{
			MBID:        release.ID,
			Title:       release.Title,
			ArtistID:    artistID,
			Year:        release.Year(),
			Type:        releaseType,
			Description: description,
			LabelMBID:   labelMBID,
		})
		if err != nil {
			return err
		}
		for _, t := range topTags(release.Tags, 5) {
			if err := resolve.AddTag(tx, t, store.EntityRelease, releaseID); err != nil {
				return err
			}
		}

		if err := store.UpdateTrackEnrichment(tx, track.ID, track.MBID, release.ID, genre, true); err != nil {
			return err
		}
		_, err = store.LinkTrackArtist(tx, track.ID, artistID)
		return err
	})
	if err != nil {
		return fmt.Errorf("apply release %s: %w", releaseMBID, err)
	}

	if o.clients.Covers != nil {
		o.clients.Covers.Enqueue(coverart.Job{ReleaseMBID: release.ID, ReleaseGroupMBID: groupMBID})
	}
	return nil
}
