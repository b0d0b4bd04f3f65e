// Package cache provides the short-lived response deduplication cache that
// sits behind the auth gate and collapses bursts of identical GET requests.
//
// The cache stores completed responses only. Two identical requests that are
// in flight at the same time both reach the backend; the second is absorbed
// only once the first has finished and its response is captured. True
// request coalescing (one upstream execution fanned out to all concurrent
// callers) is a possible enhancement, not current behavior.
package cache

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is a captured response.
type Entry struct {
	StatusCode  int
	Body        []byte
	ContentType string
	capturedAt  time.Time
}

// Dedup is an in-process, time-bounded response cache. Entries expire lazily
// on lookup after TTL; a background sweep removes anything older than 5x TTL
// to bound memory.
type Dedup struct {
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        *zap.Logger

	mu      sync.Mutex
	entries map[string]Entry

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewDedup builds a cache service. Start must be called to arm the sweep; the
// sweep timer is owned by the service, armed once at startup and stopped at
// shutdown, never re-armed per request.
func NewDedup(ttl, sweepInterval time.Duration, logger *zap.Logger) *Dedup {
	if ttl <= 0 {
		ttl = time.Second
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Second
	}
	return &Dedup{
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           time.Now,
		logger:        logger,
		entries:       make(map[string]Entry),
		stopCh:        make(chan struct{}),
	}
}

// WithClock overrides the time source, used by tests to control expiry.
func (d *Dedup) WithClock(now func() time.Time) *Dedup {
	d.now = now
	return d
}

// Key builds a cache key. The principal id (or "anonymous") is part of the
// key so two callers never observe each other's cached response.
func Key(method, pathWithQuery, principalID string) string {
	if principalID == "" {
		principalID = "anonymous"
	}
	return method + "|" + pathWithQuery + "|" + principalID
}

// Lookup returns the cached entry for the key, or false when the key is
// absent or the entry has outlived the TTL. A racing expiry reads as a miss.
func (d *Dedup) Lookup(key string) (Entry, bool) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[key]
	if !ok {
		return Entry{}, false
	}
	if now.Sub(entry.capturedAt) >= d.ttl {
		delete(d.entries, key)
		return Entry{}, false
	}
	return entry, true
}

// Store captures a completed response. Callers only invoke it for 2xx GET
// responses on cacheable routes.
func (d *Dedup) Store(key string, statusCode int, contentType string, body []byte) {
	captured := make([]byte, len(body))
	copy(captured, body)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = Entry{
		StatusCode:  statusCode,
		Body:        captured,
		ContentType: contentType,
		capturedAt:  d.now(),
	}
}

// Len reports the number of resident entries, expired or not.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Start arms the background sweep.
func (d *Dedup) Start() {
	go func() {
		ticker := time.NewTicker(d.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.Sweep()
			case <-d.stopCh:
				return
			}
		}
	}()
}

// Stop halts the background sweep. Safe to call more than once.
func (d *Dedup) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// Sweep purges entries older than 5x TTL. Lazy expiry on Lookup handles
// freshness; the sweep only bounds memory.
func (d *Dedup) Sweep() {
	now := d.now()
	maxAge := 5 * d.ttl

	d.mu.Lock()
	removed := 0
	for key, entry := range d.entries {
		if now.Sub(entry.capturedAt) >= maxAge {
			delete(d.entries, key)
			removed++
		}
	}
	d.mu.Unlock()

	if removed > 0 && d.logger != nil {
		d.logger.Debug("dedup cache swept", zap.Int("removed", removed))
	}
}

// skipPrefixes lists route prefixes excluded from deduplication.
var skipPrefixes = []string{"/health", "/docs", "/swagger"}

// Cacheable reports whether a request is eligible for deduplication.
func Cacheable(method, path string) bool {
	if method != "GET" {
		return false
	}
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
