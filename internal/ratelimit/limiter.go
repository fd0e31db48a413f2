// Package ratelimit paces outgoing requests to external catalog services.
// Each service has a single shared timestamp: no request for a service is
// issued before its minimum interval has elapsed since the previous one,
// regardless of how many workers are issuing requests concurrently.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Service keys for the external catalogs
const (
	ServiceMusicBrainz = "musicbrainz"
	ServiceDiscogs     = "discogs"
	ServiceAcoustID    = "acoustid"
	ServiceLastFM      = "lastfm"
	ServiceWikipedia   = "wikipedia"
	ServiceCoverArt    = "coverart"
)

// DefaultIntervals holds the minimum spacing between requests per service.
// MusicBrainz and Discogs require 1 req/s; AcoustID allows ~2.5 req/s.
var DefaultIntervals = map[string]time.Duration{
	ServiceMusicBrainz: time.Second,
	ServiceDiscogs:     time.Second,
	ServiceAcoustID:    400 * time.Millisecond,
	ServiceLastFM:      250 * time.Millisecond,
	ServiceWikipedia:   200 * time.Millisecond,
	ServiceCoverArt:    500 * time.Millisecond,
}

// Limiter is a per-service minimum-interval gate
type Limiter struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
	next      map[string]time.Time
}

// New creates a Limiter with the default per-service intervals
func New() *Limiter {
	return NewWithIntervals(DefaultIntervals)
}

// NewWithIntervals creates a Limiter with custom per-service intervals
func NewWithIntervals(intervals map[string]time.Duration) *Limiter {
	m := make(map[string]time.Duration, len(intervals))
	for k, v := range intervals {
		m[k] = v
	}
	return &Limiter{
		intervals: m,
		next:      make(map[string]time.Time),
	}
}

// Acquire blocks until the caller may issue a request for the given service.
// A slot is reserved under the lock before sleeping, so N concurrent callers
// are serialized and the span of N acquisitions is at least (N-1) intervals.
// The only error is context cancellation; the limiter itself never fails.
func (l *Limiter) Acquire(ctx context.Context, service string) error {
	interval, ok := l.intervalFor(service)
	if !ok || interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	at := l.next[service]
	if at.Before(now) {
		at = now
	}
	l.next[service] = at.Add(interval)
	l.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) intervalFor(service string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.intervals[service]
	return d, ok
}

// SetInterval overrides the minimum interval for a service
func (l *Limiter) SetInterval(service string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intervals[service] = interval
}
