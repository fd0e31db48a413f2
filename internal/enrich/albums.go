package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/sourcegraph/conc"

	"github.com/franz/melodeon/internal/canonical"
	"github.com/franz/melodeon/internal/coverart"
	"github.com/franz/melodeon/internal/musicbrainz"
	"github.com/franz/melodeon/internal/resolve"
	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
)

// StartAlbums launches an album-grouped enrichment run: tracks sharing
// an (artist, album) tag pair are resolved with one release search and
// committed in one transaction per group. Much cheaper than per-track
// mode against rate-limited catalogs.
func (o *Orchestrator) StartAlbums(ctx context.Context, workers int, force bool) (Status, error) {
	groups, err := store.AlbumGroups(o.store.DB(), force)
	if err != nil {
		return Status{}, fmt.Errorf("load album groups: %w", err)
	}
	workers = albumWorkers(workers, len(groups))
	total := 0
	for _, g := range groups {
		total += len(g.Tracks)
	}

	status, err := o.beginRun(ModeAlbum, total, len(groups))
	if err != nil {
		return Status{}, err
	}

	go func() {
		defer o.endRun(status)
		caches := newRunCaches()

		// Workers pull group indexes from a shared counter so a large
		// album never stalls the others behind it
		var next atomic.Int64
		var wg conc.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Go(func() {
				for {
					if o.stop.Load() || ctx.Err() != nil {
						return
					}
					idx := int(next.Add(1)) - 1
					if idx >= len(groups) {
						return
					}
					group := groups[idx]
					status.setCurrent(group.Artist + " - " + group.Album)
					o.enrichGroup(ctx, caches, group, status)
					status.markProcessed(true)
					status.addProcessed(len(group.Tracks) - 1)
				}
			})
		}
		wg.Wait()

		snap := status.Snapshot()
		if o.stop.Load() {
			util.InfoLog("Album enrichment stopped after %d/%d groups", snap.AlbumsProcessed, len(groups))
			return
		}
		util.SuccessLog("Album enrichment complete: %d groups, %d tracks, %d errors",
			len(groups), total, len(snap.Errors))
	}()

	return status.Snapshot(), nil
}

// albumWorkers sizes the worker pool: at least one, and never more than
// there are groups to process
func albumWorkers(requested, groups int) int {
	if requested < 1 {
		requested = 1
	}
	if groups > 0 && requested > groups {
		return groups
	}
	return requested
}

// enrichGroup resolves one album group and applies the result to all of
// its tracks in a single transaction. Failures are recorded per group;
// the run continues.
func (o *Orchestrator) enrichGroup(ctx context.Context, caches *runCaches, group *store.AlbumGroup, status *runStatus) {
	// Album-less singletons have no release to search for; they get the
	// full per-track treatment instead of the release-only path
	if group.Album == "" {
		for _, track := range group.Tracks {
			o.enrichOne(ctx, caches, track, status)
		}
		return
	}

	release := o.resolveGroupRelease(ctx, caches, group)

	if release == nil {
		// No release anywhere: Discogs may still supply a genre
		o.finishGroupUnmatched(ctx, caches, group, status)
		return
	}

	facts := o.gatherGroupFacts(ctx, caches, group, release)
	var coverJob *coverart.Job
	err := o.store.Transaction(func(tx *sql.Tx) error {
		job, err := o.writeGroupFacts(tx, group, facts)
		if err != nil {
			return err
		}
		coverJob = job
		return nil
	})
	if err != nil {
		// The group stays unenriched and is retried next run
		for _, t := range group.Tracks {
			status.addError(t.Path, err.Error())
		}
		util.ErrorLog("Enrich: group commit failed for %q / %q: %v", group.Artist, group.Album, err)
		return
	}

	if coverJob != nil && o.clients.Covers != nil {
		o.clients.Covers.Enqueue(*coverJob)
	}
}

// resolveGroupRelease finds the release for a group. An embedded release
// id in any track's tags short-circuits the search entirely.
func (o *Orchestrator) resolveGroupRelease(ctx context.Context, caches *runCaches, group *store.AlbumGroup) *musicbrainz.Release {
	if mbid := group.EmbeddedMBID(); mbid != "" {
		if rel := caches.release(ctx, o.clients.MusicBrainz, mbid); rel != nil {
			return rel
		}
	}
	// An embedded recording id alone still names its release via lookup
	if mbid := group.EmbeddedRecordingMBID(); mbid != "" {
		if rec := o.lookupRecording(ctx, mbid); rec != nil {
			if relID := pickRelease(rec, group.Album); relID != "" {
				if rel := caches.release(ctx, o.clients.MusicBrainz, relID); rel != nil {
					return rel
				}
			}
		}
	}
	if group.Album == "" {
		return nil
	}
	match := o.finder.FindRelease(ctx, group.Artist, group.Album)
	if match == nil {
		return nil
	}
	// The search result is bare; the cached detail lookup carries
	// labels, release-group and tags
	if full := caches.release(ctx, o.clients.MusicBrainz, match.Release.ID); full != nil {
		return full
	}
	return &match.Release
}

// groupFacts is the network-gathered result for one album group
type groupFacts struct {
	release *musicbrainz.Release
	artist  resolve.ArtistCandidate
	bio     string
	wikiURL string
	wiki    string
	genre   string
}

func (o *Orchestrator) gatherGroupFacts(ctx context.Context, caches *runCaches, group *store.AlbumGroup, release *musicbrainz.Release) *groupFacts {
	facts := &groupFacts{release: release}

	facts.artist = resolve.ArtistCandidate{Name: musicbrainz.CreditedArtist(release.ArtistCredit)}
	if facts.artist.Name == "" {
		facts.artist.Name = group.Artist
	}
	var artistDetail *musicbrainz.Artist
	if len(release.ArtistCredit) > 0 {
		facts.artist.MBID = release.ArtistCredit[0].Artist.ID
		facts.artist.SortName = release.ArtistCredit[0].Artist.SortName
		artistDetail = caches.artist(ctx, o.clients.MusicBrainz, facts.artist.MBID)
	}

	facts.bio, facts.wikiURL = o.artistText(ctx, caches, facts.artist.Name, artistDetail)
	facts.wiki = o.albumText(ctx, caches, facts.artist.Name, release)

	facts.genre = bestTag(release.Tags)
	if facts.genre == "" {
		facts.genre = caches.genre("artist:"+facts.artist.Name, func() string {
			if o.clients.LastFM == nil {
				return ""
			}
			tags := o.clients.LastFM.GetArtistTopTags(ctx, facts.artist.Name)
			if len(tags) == 0 {
				return ""
			}
			return tags[0]
		})
	}
	facts.genre = canonical.NormalizeTag(facts.genre)
	return facts
}

func (o *Orchestrator) writeGroupFacts(tx *sql.Tx, group *store.AlbumGroup, facts *groupFacts) (*coverart.Job, error) {
	artistID, err := resolve.UpsertArtist(tx, facts.artist)
	if err != nil {
		return nil, fmt.Errorf("upsert artist %q: %w", facts.artist.Name, err)
	}
	if facts.bio != "" || facts.wikiURL != "" {
		if err := store.FillArtistProfile(tx, artistID, facts.bio, "", facts.wikiURL); err != nil {
			return nil, err
		}
	}

	rel := facts.release
	labelMBID := ""
	if len(rel.LabelInfo) > 0 && rel.LabelInfo[0].Label != nil && rel.LabelInfo[0].Label.ID != "" {
		lbl := rel.LabelInfo[0].Label
		if _, err := resolve.UpsertLabel(tx, resolve.LabelCandidate{MBID: lbl.ID, Name: lbl.Name}); err != nil {
			return nil, err
		}
		labelMBID = lbl.ID
	}

	releaseType := ""
	groupMBID := ""
	if rel.ReleaseGroup != nil {
		releaseType = rel.ReleaseGroup.PrimaryType
		groupMBID = rel.ReleaseGroup.ID
	}
	description := facts.wiki
	if description == "" {
		description = rel.Annotation
	}
	releaseID, err := resolve.UpsertRelease(tx, resolve.ReleaseCandidate{
		MBID:        rel.ID,
		Title:       rel.Title,
		ArtistID:    artistID,
		Year:        rel.Year(),
		Type:        releaseType,
		Description: description,
		LabelMBID:   labelMBID,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert release %q: %w", rel.Title, err)
	}
	for _, t := range topTags(rel.Tags, 5) {
		if err := resolve.AddTag(tx, t, store.EntityRelease, releaseID); err != nil {
			return nil, err
		}
	}

	for _, track := range group.Tracks {
		if err := store.UpdateTrackEnrichment(tx, track.ID, track.MBID, rel.ID, facts.genre, true); err != nil {
			return nil, fmt.Errorf("update track %s: %w", track.Path, err)
		}
		if _, err := store.LinkTrackArtist(tx, track.ID, artistID); err != nil {
			return nil, err
		}
		if facts.genre != "" {
			if err := resolve.AddTag(tx, facts.genre, store.EntityTrack, track.ID); err != nil {
				return nil, err
			}
		}
	}
	return &coverart.Job{ReleaseMBID: rel.ID, ReleaseGroupMBID: groupMBID}, nil
}

// finishGroupUnmatched handles a group no catalog could place: Discogs
// may still supply a coarse genre, and every track is marked enriched so
// reruns skip the group unless forced.
func (o *Orchestrator) finishGroupUnmatched(ctx context.Context, caches *runCaches, group *store.AlbumGroup, status *runStatus) {
	genre := ""
	if o.clients.Discogs != nil && group.Album != "" {
		genre = caches.genre("discogs:"+group.Artist+"\x00"+group.Album, func() string {
			info := o.clients.Discogs.SearchRelease(ctx, group.Artist, group.Album)
			if info == nil {
				return ""
			}
			if len(info.Styles) > 0 {
				return canonical.NormalizeTag(info.Styles[0])
			}
			if len(info.Genres) > 0 {
				return canonical.NormalizeTag(info.Genres[0])
			}
			return ""
		})
	}

	reason := reasonNoMatchBoth
	if genre != "" {
		reason = reasonNoMatch
	}
	err := o.store.Transaction(func(tx *sql.Tx) error {
		for _, track := range group.Tracks {
			if err := store.UpdateTrackEnrichment(tx, track.ID, track.MBID, track.ReleaseMBID, genre, true); err != nil {
				return err
			}
			if genre != "" {
				if err := resolve.AddTag(tx, genre, store.EntityTrack, track.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		for _, t := range group.Tracks {
			status.addError(t.Path, err.Error())
		}
		return
	}
	for _, t := range group.Tracks {
		status.addError(t.Path, reason)
	}
}
