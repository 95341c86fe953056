package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingLister struct {
	calls   int
	proxies []model.ProxyCredential
	err     error
}

func (l *countingLister) List(_ context.Context) ([]model.ProxyCredential, error) {
	l.calls++
	return l.proxies, l.err
}

type memCache struct {
	snap Snapshot
	ok   bool
	puts int
}

func (c *memCache) Get() (Snapshot, bool, error) { return c.snap, c.ok, nil }
func (c *memCache) Put(s Snapshot) error {
	c.snap, c.ok = s, true
	c.puts++
	return nil
}

var (
	cachedProxy = model.ProxyCredential{Server: "http://10.0.0.1:8000", Username: "u", Password: "p", Location: "US - Boston"}
	freshProxy  = model.ProxyCredential{Server: "http://10.0.0.2:9000", Username: "v", Password: "q", Location: "DE - N/A"}
)

func newTestPool(apiKey string, l Lister, c CacheStore, now time.Time) *Pool {
	p := NewPool(apiKey, l, c, time.Hour, discardLogger())
	p.now = func() time.Time { return now }
	return p
}

func TestPool_DisabledWithoutAPIKey(t *testing.T) {
	lister := &countingLister{proxies: []model.ProxyCredential{freshProxy}}
	pool := newTestPool("", lister, &memCache{}, time.Now())

	assert.False(t, pool.Enabled())
	assert.Empty(t, pool.Load(context.Background()))
	assert.Nil(t, pool.Draw())
	assert.Zero(t, lister.calls)
}

func TestPool_FreshCacheReusedWithoutNetwork(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := &memCache{ok: true, snap: Snapshot{
		FetchedAt: now.Add(-10 * time.Second),
		Proxies:   []model.ProxyCredential{cachedProxy},
	}}
	lister := &countingLister{proxies: []model.ProxyCredential{freshProxy}}
	pool := newTestPool("key", lister, cache, now)

	got := pool.Load(context.Background())

	assert.Equal(t, []model.ProxyCredential{cachedProxy}, got)
	assert.Zero(t, lister.calls, "fresh cache must not hit the API")
	assert.Zero(t, cache.puts)
	require.NotNil(t, pool.Draw())
	assert.Equal(t, cachedProxy, *pool.Draw())
}

func TestPool_ExpiredCacheRefetches(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := &memCache{ok: true, snap: Snapshot{
		FetchedAt: now.Add(-4000 * time.Second),
		Proxies:   []model.ProxyCredential{cachedProxy},
	}}
	lister := &countingLister{proxies: []model.ProxyCredential{freshProxy}}
	pool := newTestPool("key", lister, cache, now)

	got := pool.Load(context.Background())

	assert.Equal(t, []model.ProxyCredential{freshProxy}, got)
	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, now, cache.snap.FetchedAt, "cache rewritten with a fresh timestamp")
}

func TestPool_FetchFailureYieldsEmpty(t *testing.T) {
	lister := &countingLister{err: errors.New("connection refused")}
	cache := &memCache{}
	pool := newTestPool("key", lister, cache, time.Now())

	assert.Empty(t, pool.Load(context.Background()))
	assert.Nil(t, pool.Draw())
	assert.Zero(t, cache.puts)
}

func TestPool_RefreshBypassesCache(t *testing.T) {
	now := time.Now()
	cache := &memCache{ok: true, snap: Snapshot{FetchedAt: now, Proxies: []model.ProxyCredential{cachedProxy}}}
	lister := &countingLister{proxies: []model.ProxyCredential{freshProxy}}
	pool := newTestPool("key", lister, cache, now)

	got := pool.Refresh(context.Background())

	assert.Equal(t, []model.ProxyCredential{freshProxy}, got)
	assert.Equal(t, 1, lister.calls)
}

func TestPool_DrawIsUniformOverSet(t *testing.T) {
	lister := &countingLister{proxies: []model.ProxyCredential{cachedProxy, freshProxy}}
	pool := newTestPool("key", lister, &memCache{}, time.Now())
	pool.Load(context.Background())

	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		seen[pool.Draw().Server]++
	}
	assert.Len(t, seen, 2)
}

func TestPool_WithFileCache(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := NewFileCache(filepath.Join(t.TempDir(), "data", "webshare_proxies_cache.json"))
	require.NoError(t, cache.Put(Snapshot{FetchedAt: now.Add(-10 * time.Second), Proxies: []model.ProxyCredential{cachedProxy}}))

	lister := &countingLister{proxies: []model.ProxyCredential{freshProxy}}
	pool := newTestPool("key", lister, cache, now)

	assert.Equal(t, []model.ProxyCredential{cachedProxy}, pool.Load(context.Background()))
	assert.Zero(t, lister.calls)
}
