// Package enrich visits job posting URLs and turns the page into a
// description, a contact email and a final status.
//
// Each job goes through at most MaxRetries attempts:
//
//	Pending -> Attempting(n) -> Succeeded
//	                         -> Blocked | Failed -> Retrying -> Attempting(n+1)
//	                                             -> ExhaustedRetries
//
// A record that exhausts its attempts is labelled with the category of the
// last attempt: blocked when the last page was a bot challenge, otherwise
// failed_after_retries.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/browser"
	"github.com/amishk599/jobscout/internal/model"
)

// OutcomeKind is the category of one scrape attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeBlocked
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "failed"
	}
}

// Outcome is the result of one attempt. Description and Email are set only
// on success; Err only on failure.
type Outcome struct {
	Kind        OutcomeKind
	Description string
	Email       string
	Err         error
}

// ProxySource hands out a proxy per attempt. Draw may return nil.
type ProxySource interface {
	Draw() *model.ProxyCredential
}

// HostWaiter throttles navigations per host.
type HostWaiter interface {
	WaitURL(ctx context.Context, raw string) error
}

// Config tunes the retry loop.
type Config struct {
	MaxRetries        int
	NavigationTimeout time.Duration
	ReadTimeout       time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	UserAgents        []string
	Viewport          browser.Viewport
	AcceptLanguage    string
}

// DefaultConfig returns three attempts, 12s/20s timeouts and a 2-5s backoff.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		NavigationTimeout: 12 * time.Second,
		ReadTimeout:       20 * time.Second,
		BackoffMin:        2 * time.Second,
		BackoffMax:        5 * time.Second,
		Viewport:          browser.DefaultViewport,
		AcceptLanguage:    browser.DefaultAcceptLanguage,
	}
}

// Engine enriches job records one at a time.
type Engine struct {
	fetcher browser.Fetcher
	proxies ProxySource
	hosts   HostWaiter
	cfg     Config
	logger  *slog.Logger

	sleep   func(ctx context.Context, d time.Duration) error
	backoff func(min, max time.Duration) time.Duration
}

// Option customises an Engine.
type Option func(*Engine)

// WithHostLimiter throttles navigations through w before every attempt.
func WithHostLimiter(w HostWaiter) Option {
	return func(e *Engine) { e.hosts = w }
}

// NewEngine creates an Engine. proxies may be nil to always connect directly.
func NewEngine(fetcher browser.Fetcher, proxies ProxySource, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	e := &Engine{
		fetcher: fetcher,
		proxies: proxies,
		cfg:     cfg,
		logger:  logger,
		sleep:   sleepCtx,
		backoff: uniform,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich scrapes job.URL and returns a new record with description, email
// and status filled in. A record without a URL is returned unchanged.
func (e *Engine) Enrich(ctx context.Context, job model.JobRecord) model.JobRecord {
	if job.URL == "" {
		return job
	}

	var last Outcome
	for n := 1; n <= e.cfg.MaxRetries; n++ {
		last = e.attempt(ctx, job, n, e.drawProxy(), browser.RandomUserAgent(e.cfg.UserAgents))

		if last.Kind == OutcomeSuccess {
			job.Description = last.Description
			job.Email = last.Email
			job.Status = model.StatusScraped
			e.logger.Info("scraped job", "url", job.URL, "attempt", n, "email", job.Email != "")
			return job
		}

		e.logger.Warn("scrape attempt failed",
			"url", job.URL,
			"attempt", n,
			"max_retries", e.cfg.MaxRetries,
			"outcome", last.Kind,
			"error", last.Err,
		)

		if ctx.Err() != nil || n == e.cfg.MaxRetries {
			break
		}
		if err := e.sleep(ctx, e.backoff(e.cfg.BackoffMin, e.cfg.BackoffMax)); err != nil {
			break
		}
	}

	return exhausted(job, last)
}

// attempt performs one navigation and classifies the page.
func (e *Engine) attempt(ctx context.Context, job model.JobRecord, n int, proxy *model.ProxyCredential, userAgent string) Outcome {
	if e.hosts != nil {
		if err := e.hosts.WaitURL(ctx, job.URL); err != nil {
			return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("host rate limit: %w", err)}
		}
	}

	attrs := []any{"url", job.URL, "attempt", n, "user_agent", userAgent}
	if proxy != nil {
		attrs = append(attrs, "proxy", proxy.Location)
	}
	e.logger.Debug("visiting job page", attrs...)

	text, err := e.fetcher.FetchVisibleText(ctx, job.URL, browser.Options{
		NavigationTimeout: e.cfg.NavigationTimeout,
		ReadTimeout:       e.cfg.ReadTimeout,
		UserAgent:         userAgent,
		Viewport:          e.cfg.Viewport,
		AcceptLanguage:    e.cfg.AcceptLanguage,
		Proxy:             proxy,
	})
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	return classifyText(text)
}

// classifyText maps page text to a Blocked or Success outcome.
func classifyText(text string) Outcome {
	if IsBlocked(text) {
		return Outcome{Kind: OutcomeBlocked}
	}
	return Outcome{
		Kind:        OutcomeSuccess,
		Description: strings.TrimSpace(text),
		Email:       ExtractEmail(text),
	}
}

func exhausted(job model.JobRecord, last Outcome) model.JobRecord {
	if last.Kind == OutcomeBlocked {
		job.Status = model.StatusBlocked
		job.Description = model.SentinelBlocked
	} else {
		job.Status = model.StatusFailedAfterRetries
		job.Description = model.SentinelFailed
	}
	job.Email = ""
	return job
}

func (e *Engine) drawProxy() *model.ProxyCredential {
	if e.proxies == nil {
		return nil
	}
	return e.proxies.Draw()
}

func uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
