package proxy

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// Snapshot is a cached proxy list together with the time it was fetched.
type Snapshot struct {
	FetchedAt time.Time
	Proxies   []model.ProxyCredential
}

// Fresh reports whether the snapshot is younger than ttl at now.
func (s Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.FetchedAt) < ttl
}

// CacheStore persists proxy snapshots between runs.
// Get returns ok=false when nothing usable is stored.
type CacheStore interface {
	Get() (Snapshot, bool, error)
	Put(s Snapshot) error
}

// Lister fetches the current proxy list from the provider API.
type Lister interface {
	List(ctx context.Context) ([]model.ProxyCredential, error)
}

// Pool is a time-bounded cached set of proxy credentials. The set is
// read-only once loaded.
type Pool struct {
	enabled bool
	lister  Lister
	cache   CacheStore
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	proxies []model.ProxyCredential
}

// NewPool creates a pool. An empty apiKey disables the pool permanently:
// Load returns nothing and Draw always returns nil.
func NewPool(apiKey string, lister Lister, cache CacheStore, ttl time.Duration, logger *slog.Logger) *Pool {
	return &Pool{
		enabled: apiKey != "",
		lister:  lister,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Enabled reports whether the pool was configured with an API key.
func (p *Pool) Enabled() bool {
	return p.enabled
}

// Load returns the cached proxies when the cache is younger than the TTL,
// otherwise fetches a fresh list and rewrites the cache. Fetch failures are
// logged and yield an empty list; running without a proxy is always valid.
func (p *Pool) Load(ctx context.Context) []model.ProxyCredential {
	if !p.enabled {
		return nil
	}

	if snap, ok := p.cached(); ok {
		p.logger.Info("using cached proxy list", "count", len(snap.Proxies), "age", p.now().Sub(snap.FetchedAt).Round(time.Second))
		p.set(snap.Proxies)
		return snap.Proxies
	}

	return p.Refresh(ctx)
}

// Refresh bypasses the cache, fetches the list from the API and stores it.
func (p *Pool) Refresh(ctx context.Context) []model.ProxyCredential {
	if !p.enabled {
		return nil
	}

	proxies, err := p.lister.List(ctx)
	if err != nil {
		p.logger.Error("failed to fetch proxy list", "error", err)
		p.set(nil)
		return nil
	}

	snap := Snapshot{FetchedAt: p.now(), Proxies: proxies}
	if err := p.cache.Put(snap); err != nil {
		p.logger.Warn("failed to write proxy cache", "error", err)
	}

	p.logger.Info("fetched proxy list", "count", len(proxies))
	p.set(proxies)
	return proxies
}

// Draw returns a uniformly random proxy, or nil when the pool is empty or disabled.
func (p *Pool) Draw() *model.ProxyCredential {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.proxies) == 0 {
		return nil
	}
	c := p.proxies[rand.IntN(len(p.proxies))]
	return &c
}

func (p *Pool) cached() (Snapshot, bool) {
	snap, ok, err := p.cache.Get()
	if err != nil {
		p.logger.Warn("ignoring unreadable proxy cache", "error", err)
		return Snapshot{}, false
	}
	if !ok || !snap.Fresh(p.now(), p.ttl) {
		return Snapshot{}, false
	}
	return snap, true
}

func (p *Pool) set(proxies []model.ProxyCredential) {
	p.mu.Lock()
	p.proxies = proxies
	p.mu.Unlock()
}
