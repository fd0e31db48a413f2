package coverart

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
)

// Job is one cover-art fetch request
type Job struct {
	ReleaseMBID      string
	ReleaseGroupMBID string
}

// Queue is the best-effort background worker for cover downloads.
// Enqueue never blocks the enrichment commit path; fetch failures are
// retried with backoff and then dropped.
type Queue struct {
	client  *Client
	store   *store.Store
	destDir string

	jobs    chan Job
	wg      conc.WaitGroup
	once    sync.Once
	timeout time.Duration
}

// NewQueue creates a cover-art queue and starts its worker
func NewQueue(client *Client, st *store.Store, destDir string) *Queue {
	q := &Queue{
		client:  client,
		store:   st,
		destDir: destDir,
		jobs:    make(chan Job, 256),
		timeout: 2 * time.Minute,
	}
	q.wg.Go(q.run)
	return q
}

// Enqueue submits a fetch job. Returns false when the queue is full or
// closed; the caller treats that as a skipped best-effort side effect.
func (q *Queue) Enqueue(job Job) bool {
	if job.ReleaseMBID == "" {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		util.DebugLog("CoverArt: queue full, dropping job for %s", job.ReleaseMBID)
		return false
	}
}

// Close stops accepting jobs and waits for in-flight downloads to finish
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *Queue) run() {
	for job := range q.jobs {
		q.process(job)
	}
}

func (q *Queue) process(job Job) {
	// Idempotent: a release that already has its cover keeps it
	rel, err := store.GetReleaseByMBID(q.store.DB(), job.ReleaseMBID)
	if err != nil || rel == nil || rel.CoverPath != "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	imageURL := q.client.FrontImageURL(ctx, job.ReleaseMBID, job.ReleaseGroupMBID)
	if imageURL == "" {
		util.DebugLog("CoverArt: no image for release %s", job.ReleaseMBID)
		return
	}

	path, err := util.RetryWithBackoff(nil, func() (string, error) {
		return q.client.Download(ctx, imageURL, q.destDir, job.ReleaseMBID)
	}, "cover download "+job.ReleaseMBID)
	if err != nil {
		util.WarnLog("CoverArt: download failed for %s: %v", job.ReleaseMBID, err)
		return
	}

	if err := store.SetReleaseCover(q.store.DB(), job.ReleaseMBID, path); err != nil {
		util.WarnLog("CoverArt: failed to record cover path for %s: %v", job.ReleaseMBID, err)
		return
	}
	util.DebugLog("CoverArt: stored cover for %s at %s", job.ReleaseMBID, path)
}
