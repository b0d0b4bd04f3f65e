package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDedup() (*Dedup, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	d := NewDedup(time.Second, 5*time.Second, nil).WithClock(clock.Now)
	return d, clock
}

func TestLookupWithinTTL(t *testing.T) {
	d, clock := newTestDedup()
	key := Key("GET", "/courses?page=1", "user-1")

	d.Store(key, 200, "application/json", []byte(`{"ok":true}`))

	entry, hit := d.Lookup(key)
	require.True(t, hit)
	assert.Equal(t, 200, entry.StatusCode)
	assert.Equal(t, []byte(`{"ok":true}`), entry.Body)

	clock.Advance(999 * time.Millisecond)
	_, hit = d.Lookup(key)
	assert.True(t, hit)
}

func TestLookupAfterTTLMisses(t *testing.T) {
	d, clock := newTestDedup()
	key := Key("GET", "/courses", "user-1")

	d.Store(key, 200, "application/json", []byte("a"))
	clock.Advance(time.Second)

	_, hit := d.Lookup(key)
	assert.False(t, hit)
}

func TestPrincipalIsolation(t *testing.T) {
	d, _ := newTestDedup()

	keyA := Key("GET", "/grades", "user-a")
	keyB := Key("GET", "/grades", "user-b")
	require.NotEqual(t, keyA, keyB)

	d.Store(keyA, 200, "application/json", []byte("a-body"))

	_, hit := d.Lookup(keyB)
	assert.False(t, hit)

	entry, hit := d.Lookup(keyA)
	require.True(t, hit)
	assert.Equal(t, []byte("a-body"), entry.Body)
}

func TestAnonymousMarkerInKey(t *testing.T) {
	assert.Equal(t, "GET|/p|anonymous", Key("GET", "/p", ""))
}

func TestStoreCopiesBody(t *testing.T) {
	d, _ := newTestDedup()
	key := Key("GET", "/p", "u")

	body := []byte("original")
	d.Store(key, 200, "text/plain", body)
	body[0] = 'X'

	entry, hit := d.Lookup(key)
	require.True(t, hit)
	assert.Equal(t, []byte("original"), entry.Body)
}

func TestSweepBoundsMemory(t *testing.T) {
	d, clock := newTestDedup()

	d.Store(Key("GET", "/old", "u"), 200, "text/plain", []byte("old"))
	clock.Advance(5 * time.Second) // 5x TTL
	d.Store(Key("GET", "/new", "u"), 200, "text/plain", []byte("new"))

	d.Sweep()
	assert.Equal(t, 1, d.Len())

	_, hit := d.Lookup(Key("GET", "/new", "u"))
	assert.True(t, hit)
}

func TestCacheable(t *testing.T) {
	assert.True(t, Cacheable("GET", "/courses"))
	assert.False(t, Cacheable("POST", "/courses"))
	assert.False(t, Cacheable("GET", "/health/live"))
	assert.False(t, Cacheable("GET", "/docs/index.html"))
	assert.False(t, Cacheable("GET", "/swagger"))
}
