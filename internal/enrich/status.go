package enrich

import (
	"sync"
	"time"
)

// Run modes
const (
	ModeTrack = "track"
	ModeAlbum = "album"
)

// RunError is one per-unit failure surfaced to the status endpoint
type RunError struct {
	Track  string
	Reason string
}

// Status is a snapshot of one enrichment run's progress
type Status struct {
	RunID           string
	IsEnriching     bool
	Mode            string
	Total           int
	Processed       int
	CurrentTrack    string
	AlbumsTotal     int
	AlbumsProcessed int
	Errors          []RunError
	StartedAt       time.Time
	FinishedAt      time.Time
}

// runStatus is the mutable state of the active run, owned by the
// orchestrator. Snapshot returns copies so pollers never observe a
// partially-updated value.
type runStatus struct {
	mu sync.Mutex
	s  Status
}

// Snapshot returns a copy of the current status
func (r *runStatus) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := r.s
	copied.Errors = append([]RunError(nil), r.s.Errors...)
	return copied
}

func (r *runStatus) setCurrent(track string) {
	r.mu.Lock()
	r.s.CurrentTrack = track
	r.mu.Unlock()
}

// markProcessed advances progress; progress is monotonic even for units
// that failed to commit
func (r *runStatus) markProcessed(albums bool) {
	r.mu.Lock()
	r.s.Processed++
	if albums {
		r.s.AlbumsProcessed++
	}
	r.mu.Unlock()
}

func (r *runStatus) addProcessed(n int) {
	r.mu.Lock()
	r.s.Processed += n
	r.mu.Unlock()
}

func (r *runStatus) addError(track, reason string) {
	r.mu.Lock()
	r.s.Errors = append(r.s.Errors, RunError{Track: track, Reason: reason})
	r.mu.Unlock()
}

func (r *runStatus) finish() {
	r.mu.Lock()
	r.s.IsEnriching = false
	r.s.CurrentTrack = ""
	r.s.FinishedAt = time.Now()
	r.mu.Unlock()
}
