package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// ProviderLimiter enforces a minimum delay between calls to the same search provider.
type ProviderLimiter struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time // key: provider name
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewProviderLimiter creates a limiter enforcing minDelay between consecutive
// calls to the same provider. overrides replaces minDelay per provider.
func NewProviderLimiter(minDelay time.Duration, overrides map[string]time.Duration) *ProviderLimiter {
	return &ProviderLimiter{
		lastCall:  make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *ProviderLimiter) delayFor(provider string) time.Duration {
	if d, ok := r.overrides[provider]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until enough time has passed since the last call to provider.
// Returns an error if the context is cancelled while waiting.
func (r *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	r.mu.Lock()
	last, ok := r.lastCall[provider]
	now := time.Now()
	minDelay := r.delayFor(provider)

	if !ok || now.Sub(last) >= minDelay {
		r.lastCall[provider] = now
		r.mu.Unlock()
		return nil
	}

	remaining := minDelay - now.Sub(last)
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", provider, ctx.Err())
	case <-time.After(remaining):
	}

	r.mu.Lock()
	r.lastCall[provider] = time.Now()
	r.mu.Unlock()

	return nil
}

// RateLimitedSource is a decorator that waits on the provider limiter before
// delegating to the wrapped JobSource.
type RateLimitedSource struct {
	inner   model.JobSource
	limiter *ProviderLimiter
}

// NewRateLimitedSource wraps a JobSource with provider-level rate limiting.
// All sources for the same provider should share one limiter.
func NewRateLimitedSource(inner model.JobSource, limiter *ProviderLimiter) *RateLimitedSource {
	return &RateLimitedSource{inner: inner, limiter: limiter}
}

// Name returns the wrapped source's name.
func (s *RateLimitedSource) Name() string {
	return s.inner.Name()
}

// Search waits for the limiter, then delegates.
func (s *RateLimitedSource) Search(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	if err := s.limiter.Wait(ctx, s.inner.Name()); err != nil {
		return nil, err
	}
	return s.inner.Search(ctx, q)
}
