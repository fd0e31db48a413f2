// Package enrich is the top-level metadata enrichment pipeline. It
// matches local tracks against external catalogs, merges the results and
// commits them atomically, one track or one album group at a time. Every
// per-unit failure is caught, classified and recorded in the run status;
// a run never aborts because one unit failed.
package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/franz/melodeon/internal/acoustid"
	"github.com/franz/melodeon/internal/canonical"
	"github.com/franz/melodeon/internal/coverart"
	"github.com/franz/melodeon/internal/discogs"
	"github.com/franz/melodeon/internal/lastfm"
	"github.com/franz/melodeon/internal/musicbrainz"
	"github.com/franz/melodeon/internal/resolve"
	"github.com/franz/melodeon/internal/search"
	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
	"github.com/franz/melodeon/internal/wikipedia"
)

// Reasons surfaced when no catalog produced a match
const (
	reasonNoMatch     = "No match found"
	reasonNoMatchBoth = "No match found (MB + Discogs)"
)

// Clients are the catalog clients available to a run. Any of them may be
// nil: the orchestrator degrades gracefully with zero, one or all
// configured.
type Clients struct {
	MusicBrainz *musicbrainz.Client
	Discogs     *discogs.Client
	LastFM      *lastfm.Client
	Wikipedia   *wikipedia.Client
	AcoustID    *acoustid.Client
	Covers      *coverart.Queue
}

// Config holds orchestrator configuration
type Config struct {
	Store   *store.Store
	Clients Clients
}

// Orchestrator runs enrichment jobs over the local library
type Orchestrator struct {
	store   *store.Store
	clients Clients
	finder  *search.Finder

	mu      sync.Mutex
	running bool
	status  *runStatus
	stop    atomic.Bool
}

// New creates an Orchestrator
func New(cfg *Config) *Orchestrator {
	return &Orchestrator{
		store:   cfg.Store,
		clients: cfg.Clients,
		finder:  search.NewFinder(cfg.Clients.MusicBrainz),
		status:  &runStatus{},
	}
}

// Result is the outcome of enriching a single track
type Result struct {
	Success bool
	MBID    string
	Reason  string
}

// GetStatus returns a snapshot of the current (or last) run's progress
func (o *Orchestrator) GetStatus() Status {
	o.mu.Lock()
	s := o.status
	o.mu.Unlock()
	return s.Snapshot()
}

// Stop requests a cooperative stop. The in-progress unit completes; the
// run honors the request between units.
func (o *Orchestrator) Stop() {
	o.stop.Store(true)
}

// beginRun claims the single active-run slot and installs a fresh status
func (o *Orchestrator) beginRun(mode string, total, albums int) (*runStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return nil, fmt.Errorf("an enrichment run is already active")
	}
	o.running = true
	o.stop.Store(false)
	o.status = &runStatus{s: Status{
		RunID:       uuid.NewString(),
		IsEnriching: true,
		Mode:        mode,
		Total:       total,
		AlbumsTotal: albums,
		StartedAt:   time.Now(),
	}}
	return o.status, nil
}

func (o *Orchestrator) endRun(status *runStatus) {
	status.finish()
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// Start launches a per-track enrichment run in the background and
// returns its initial status. Progress is polled via GetStatus.
func (o *Orchestrator) Start(ctx context.Context, force bool) (Status, error) {
	tracks, err := store.UnenrichedTracks(o.store.DB(), force)
	if err != nil {
		return Status{}, fmt.Errorf("load tracks: %w", err)
	}

	status, err := o.beginRun(ModeTrack, len(tracks), 0)
	if err != nil {
		return Status{}, err
	}

	go func() {
		defer o.endRun(status)
		caches := newRunCaches()
		for _, track := range tracks {
			if o.stop.Load() || ctx.Err() != nil {
				util.InfoLog("Enrichment stopped after %d/%d tracks", status.Snapshot().Processed, len(tracks))
				return
			}
			status.setCurrent(track.Path)
			res := o.enrichOne(ctx, caches, track, status)
			status.markProcessed(false)
			if !res.Success && res.Reason != "" {
				util.DebugLog("Enrich: %s: %s", track.Path, res.Reason)
			}
		}
		util.SuccessLog("Per-track enrichment complete: %d tracks, %d errors",
			len(tracks), len(status.Snapshot().Errors))
	}()

	return status.Snapshot(), nil
}

// EnrichTrack enriches a single track synchronously. Used by the manual
// single-track path; failures are reported in the result, never raised.
func (o *Orchestrator) EnrichTrack(ctx context.Context, track *store.Track) Result {
	return o.enrichOne(ctx, newRunCaches(), track, nil)
}

// enrichOne drives one track through enrichment: embedded-identifier
// short-circuit, then search, then commit or fall back.
func (o *Orchestrator) enrichOne(ctx context.Context, caches *runCaches, track *store.Track, status *runStatus) Result {
	var match *search.RecordingMatch

	// Embedded identifier short-circuit: tags already carry the answer
	if track.MBID != "" {
		if rec := o.lookupRecording(ctx, track.MBID); rec != nil {
			match = &search.RecordingMatch{Recording: *rec, Score: 1.0}
		}
	}

	if match == nil {
		match = o.finder.FindRecording(ctx, track.Artist, track.Title, track.Album)
	}

	// Text search exhausted: the audio itself may still identify the
	// track when its tags are too poor to search by
	if match == nil {
		if rec := o.identifyByFingerprint(ctx, track); rec != nil {
			match = &search.RecordingMatch{Recording: *rec, Score: 1.0}
		}
	}

	if match != nil {
		if err := o.commitRecording(ctx, caches, track, &match.Recording); err != nil {
			// A failed commit leaves the track unenriched so the next
			// run retries it
			if status != nil {
				status.addError(track.Path, err.Error())
			}
			util.ErrorLog("Enrich: commit failed for %s: %v", track.Path, err)
			return Result{Success: false, Reason: err.Error()}
		}
		return Result{Success: true, MBID: match.Recording.ID}
	}

	// Fallback: Discogs supplies coarse genre/style/year only. A track
	// no catalog could place is marked enriched so reruns skip it unless
	// forced; a track whose fallback data failed to commit stays
	// unenriched and is retried next run.
	applied, err := o.applyDiscogsFallback(ctx, caches, track)
	if err != nil {
		if status != nil {
			status.addError(track.Path, err.Error())
		}
		util.ErrorLog("Enrich: %s: %v", track.Path, err)
		return Result{Success: false, Reason: err.Error()}
	}
	reason := reasonNoMatchBoth
	if applied {
		reason = reasonNoMatch
	} else if err := store.MarkTrackEnriched(o.store.DB(), track.ID); err != nil {
		if status != nil {
			status.addError(track.Path, err.Error())
		}
		return Result{Success: false, Reason: err.Error()}
	}
	if status != nil {
		status.addError(track.Path, reason)
	}
	return Result{Success: false, Reason: reason}
}

func (o *Orchestrator) lookupRecording(ctx context.Context, mbid string) *musicbrainz.Recording {
	if o.clients.MusicBrainz == nil {
		return nil
	}
	return o.clients.MusicBrainz.LookupRecording(ctx, mbid)
}

// acoustidMinScore is the fingerprint confidence below which a match is
// discarded rather than applied
const acoustidMinScore = 0.9

// identifyByFingerprint resolves a track by chromaprint fingerprint.
// Best-effort: any failure falls through to the Discogs fallback.
func (o *Orchestrator) identifyByFingerprint(ctx context.Context, track *store.Track) *musicbrainz.Recording {
	if o.clients.AcoustID == nil {
		return nil
	}
	matches, err := o.clients.AcoustID.Identify(ctx, track.Path)
	if err != nil {
		util.DebugLog("Enrich: fingerprint %s: %v", track.Path, err)
		return nil
	}
	if len(matches) == 0 || matches[0].Score < acoustidMinScore || matches[0].RecordingMBID == "" {
		return nil
	}
	util.DebugLog("Enrich: fingerprint matched %s to %s (%.2f)",
		track.Path, matches[0].RecordingMBID, matches[0].Score)
	return o.lookupRecording(ctx, matches[0].RecordingMBID)
}

// trackFacts is everything commitRecording gathered over the network,
// ready to be written in a single transaction.
type trackFacts struct {
	recording *musicbrainz.Recording
	release   *musicbrainz.Release
	credited  string
	artist    resolve.ArtistCandidate
	bio       string
	wikiURL   string
	imageURL  string
	albumWiki string
	genre     string
}

// commitRecording fetches the details a matched recording needs and
// commits everything in one transaction. Cover art is enqueued after the
// commit; its failure never rolls back resolved metadata.
func (o *Orchestrator) commitRecording(ctx context.Context, caches *runCaches, track *store.Track, rec *musicbrainz.Recording) error {
	facts := o.gatherFacts(ctx, caches, track, rec)

	var coverJob *coverart.Job
	err := o.store.Transaction(func(tx *sql.Tx) error {
		job, err := o.writeFacts(tx, track, facts)
		if err != nil {
			return err
		}
		coverJob = job
		return nil
	})
	if err != nil {
		return err
	}

	if coverJob != nil && o.clients.Covers != nil {
		o.clients.Covers.Enqueue(*coverJob)
	}
	return nil
}

// gatherFacts performs all network I/O for one matched track. The write
// transaction opens only after this returns.
func (o *Orchestrator) gatherFacts(ctx context.Context, caches *runCaches, track *store.Track, rec *musicbrainz.Recording) *trackFacts {
	// Search results carry bare recordings; fetch the relation-bearing
	// detail unless we already have one
	if len(rec.Relations) == 0 {
		if full := o.lookupRecording(ctx, rec.ID); full != nil {
			rec = full
		}
	}

	releaseMBID := track.ReleaseMBID
	if releaseMBID == "" {
		releaseMBID = pickRelease(rec, track.Album)
	}
	release := caches.release(ctx, o.clients.MusicBrainz, releaseMBID)

	facts := &trackFacts{
		recording: rec,
		release:   release,
		credited:  musicbrainz.CreditedArtist(rec.ArtistCredit),
	}

	facts.artist = resolve.ArtistCandidate{Name: facts.credited}
	var artistDetail *musicbrainz.Artist
	if len(rec.ArtistCredit) > 0 {
		facts.artist.MBID = rec.ArtistCredit[0].Artist.ID
		facts.artist.SortName = rec.ArtistCredit[0].Artist.SortName
		artistDetail = caches.artist(ctx, o.clients.MusicBrainz, facts.artist.MBID)
	}

	facts.bio, facts.wikiURL = o.artistText(ctx, caches, facts.credited, artistDetail)
	facts.albumWiki = o.albumText(ctx, caches, facts.credited, release)
	facts.genre = canonical.NormalizeTag(o.pickGenre(ctx, caches, facts.credited, rec, release))
	return facts
}

// writeFacts applies gathered facts inside an open transaction and
// returns the cover job to enqueue after commit, if any.
func (o *Orchestrator) writeFacts(tx *sql.Tx, track *store.Track, facts *trackFacts) (*coverart.Job, error) {
	artistID, err := resolve.UpsertArtist(tx, facts.artist)
	if err != nil {
		return nil, fmt.Errorf("upsert artist %q: %w", facts.artist.Name, err)
	}
	if facts.bio != "" || facts.wikiURL != "" {
		if err := store.FillArtistProfile(tx, artistID, facts.bio, "", facts.wikiURL); err != nil {
			return nil, fmt.Errorf("fill artist profile: %w", err)
		}
	}

	var coverJob *coverart.Job
	releaseMBID := ""
	if rel := facts.release; rel != nil {
		releaseMBID = rel.ID
		labelMBID := ""
		if len(rel.LabelInfo) > 0 && rel.LabelInfo[0].Label != nil && rel.LabelInfo[0].Label.ID != "" {
			lbl := rel.LabelInfo[0].Label
			if _, err := resolve.UpsertLabel(tx, resolve.LabelCandidate{MBID: lbl.ID, Name: lbl.Name}); err != nil {
				return nil, fmt.Errorf("upsert label %q: %w", lbl.Name, err)
			}
			labelMBID = lbl.ID
		}

		releaseType := ""
		groupMBID := ""
		if rel.ReleaseGroup != nil {
			releaseType = rel.ReleaseGroup.PrimaryType
			groupMBID = rel.ReleaseGroup.ID
		}
		description := facts.albumWiki
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
		coverJob = &coverart.Job{ReleaseMBID: rel.ID, ReleaseGroupMBID: groupMBID}
	}

	// Credits: the credited artists perform; relation artists carry
	// their relation type as role
	for _, ac := range facts.recording.ArtistCredit {
		cID, err := resolve.UpsertArtist(tx, resolve.ArtistCandidate{
			Name:     ac.Artist.Name,
			SortName: ac.Artist.SortName,
			MBID:     ac.Artist.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert credited artist %q: %w", ac.Artist.Name, err)
		}
		if err := resolve.AddCredit(tx, track.ID, cID, ac.Artist.Name, "performer"); err != nil {
			return nil, err
		}
	}
	for _, rel := range facts.recording.Relations {
		if rel.Artist == nil || rel.Artist.Name == "" {
			continue
		}
		cID, err := resolve.UpsertArtist(tx, resolve.ArtistCandidate{
			Name:     rel.Artist.Name,
			SortName: rel.Artist.SortName,
			MBID:     rel.Artist.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert relation artist %q: %w", rel.Artist.Name, err)
		}
		if err := resolve.AddCredit(tx, track.ID, cID, rel.Artist.Name, rel.Type); err != nil {
			return nil, err
		}
	}

	for _, t := range topTags(facts.recording.Tags, 5) {
		if err := resolve.AddTag(tx, t, store.EntityTrack, track.ID); err != nil {
			return nil, err
		}
	}

	if err := store.UpdateTrackEnrichment(tx, track.ID, facts.recording.ID, releaseMBID, facts.genre, true); err != nil {
		return nil, fmt.Errorf("update track: %w", err)
	}
	if _, err := store.LinkTrackArtist(tx, track.ID, artistID); err != nil {
		return nil, err
	}
	return coverJob, nil
}

// artistText resolves artist description and wiki URL: Last.fm bio
// first, then the Wikipedia summary reached through the artist's
// MusicBrainz URL relations.
func (o *Orchestrator) artistText(ctx context.Context, caches *runCaches, name string, detail *musicbrainz.Artist) (bio, wikiURL string) {
	if detail != nil {
		wikiURL = detail.WikipediaURL()
	}
	bio = caches.description("artist:"+name, func() string {
		if o.clients.LastFM != nil {
			if info := o.clients.LastFM.GetArtistInfo(ctx, name); info != nil && info.Bio != "" {
				return info.Bio
			}
		}
		if o.clients.Wikipedia != nil && wikiURL != "" {
			if title := wikipedia.TitleFromURL(wikiURL); title != "" {
				if sum := o.clients.Wikipedia.GetSummary(ctx, title); sum != nil {
					return sum.Extract
				}
			}
		}
		return ""
	})
	return bio, wikiURL
}

// albumText resolves a release description from the Last.fm album wiki
func (o *Orchestrator) albumText(ctx context.Context, caches *runCaches, artist string, release *musicbrainz.Release) string {
	if release == nil || o.clients.LastFM == nil {
		return ""
	}
	return caches.description("album:"+artist+"\x00"+release.Title, func() string {
		if info := o.clients.LastFM.GetAlbumInfo(ctx, artist, release.Title); info != nil {
			return info.Wiki
		}
		return ""
	})
}

// pickGenre chooses a single genre for a track: release tags first,
// then recording tags, then Last.fm artist top tags.
func (o *Orchestrator) pickGenre(ctx context.Context, caches *runCaches, artist string, rec *musicbrainz.Recording, release *musicbrainz.Release) string {
	if release != nil {
		if g := bestTag(release.Tags); g != "" {
			return g
		}
	}
	if g := bestTag(rec.Tags); g != "" {
		return g
	}
	return caches.genre("artist:"+artist, func() string {
		if o.clients.LastFM == nil {
			return ""
		}
		tags := o.clients.LastFM.GetArtistTopTags(ctx, artist)
		if len(tags) == 0 {
			return ""
		}
		return tags[0]
	})
}

// applyDiscogsFallback covers tracks MusicBrainz could not place: a
// Discogs release lookup supplies genre, style and year only. Returns
// whether Discogs produced data; a non-nil error means the data was
// there but the commit failed, so the track must stay retryable.
func (o *Orchestrator) applyDiscogsFallback(ctx context.Context, caches *runCaches, track *store.Track) (bool, error) {
	if o.clients.Discogs == nil || track.Album == "" {
		return false, nil
	}
	genre := caches.genre("discogs:"+track.Artist+"\x00"+track.Album, func() string {
		info := o.clients.Discogs.SearchRelease(ctx, track.Artist, track.Album)
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
	if genre == "" {
		return false, nil
	}
	err := o.store.Transaction(func(tx *sql.Tx) error {
		if err := store.UpdateTrackEnrichment(tx, track.ID, track.MBID, track.ReleaseMBID, genre, true); err != nil {
			return err
		}
		return resolve.AddTag(tx, genre, store.EntityTrack, track.ID)
	})
	if err != nil {
		return false, fmt.Errorf("discogs fallback: %w", err)
	}
	return true, nil
}

// pickRelease selects the release a recording should attach to: prefer
// one whose title matches the local album tag, else the first listed.
func pickRelease(rec *musicbrainz.Recording, album string) string {
	if len(rec.Releases) == 0 {
		return ""
	}
	if album != "" {
		want := search.NormalizeArtist(album)
		for _, r := range rec.Releases {
			if search.NormalizeArtist(r.Title) == want {
				return r.ID
			}
		}
	}
	return rec.Releases[0].ID
}

// bestTag returns the highest-voted tag name, empty when none
func bestTag(tags []musicbrainz.Tag) string {
	best := ""
	bestCount := -1
	for _, t := range tags {
		if t.Count > bestCount && t.Name != "" {
			best = t.Name
			bestCount = t.Count
		}
	}
	return best
}

// topTags returns up to n tag names ordered by vote count
func topTags(tags []musicbrainz.Tag, n int) []string {
	sorted := make([]musicbrainz.Tag, len(tags))
	copy(sorted, tags)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Count > sorted[j-1].Count; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	names := make([]string, 0, n)
	for _, t := range sorted {
		if t.Name == "" {
			continue
		}
		names = append(names, t.Name)
		if len(names) == n {
			break
		}
	}
	return names
}
