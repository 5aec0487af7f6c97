// Package ratelimit provides the per-IP admission limiter that sits in
// front of the storage core (§5: "a rate limiter bounds write-transaction
// admission per source IP before a request reaches the write queue").
//
// It is a token bucket per key, built on golang.org/x/time/rate, with a
// background sweep that evicts buckets idle longer than the configured
// threshold so the limiter's memory stays bounded under a churn of
// distinct IPs.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
	"github.com/ludwig-forum/ludwig/internal/metrics"
)

// Limiter is a per-key token bucket rate limiter with idle eviction.
type Limiter struct {
	entries   map[string]*entry
	mu        sync.RWMutex
	rate      rate.Limit
	burst     int
	idleAfter time.Duration
	stopClean chan struct{}
}

type entry struct {
	bucket     *rate.Limiter
	lastAccess time.Time
}

// New creates a Limiter with one token bucket per key, holding up to burst
// tokens and refilled at one token per window.
// idleAfter bounds how long an idle key's bucket is retained before the
// background sweep reclaims it.
func New(burst int, window time.Duration, idleAfter time.Duration) *Limiter {
	return &Limiter{
		entries:   make(map[string]*entry),
		rate:      rate.Every(window),
		burst:     burst,
		idleAfter: idleAfter,
		stopClean: make(chan struct{}),
	}
}

// Allow reports whether the operation keyed by key (typically a source
// IP) may proceed, consuming one token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{bucket: rate.NewLimiter(l.rate, l.burst), lastAccess: time.Now()}
		l.entries[key] = e
	} else {
		e.lastAccess = time.Now()
	}
	bucket := e.bucket
	l.mu.Unlock()
	return bucket.Allow()
}

// Check is Allow wrapped in the storage core's error convention, for call
// sites that want to return directly.
func (l *Limiter) Check(op, key string) error {
	if !l.Allow(key) {
		metrics.RateLimitRejections.WithLabelValues(op).Inc()
		return ludwigerr.New(ludwigerr.RateLimited, op, "rate limit exceeded for "+key)
	}
	return nil
}

// StartSweep runs the idle-bucket eviction loop until Stop is called. It
// is meant to be launched as a suture-supervised service so a panic here
// restarts the sweep rather than leaking it silently.
func (l *Limiter) StartSweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopClean:
			return
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	threshold := time.Now().Add(-l.idleAfter)
	for key, e := range l.entries {
		if e.lastAccess.Before(threshold) {
			delete(l.entries, key)
		}
	}
}

// Stop ends the sweep loop started by StartSweep.
func (l *Limiter) Stop() {
	close(l.stopClean)
}

// Size reports the number of tracked keys, for tests and metrics.
func (l *Limiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
