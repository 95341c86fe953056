// Package pipeline runs one search end to end: fetch postings, enrich each
// page, check its language, and append the result to every sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobscout/internal/langdetect"
	"github.com/amishk599/jobscout/internal/model"
)

// Searcher returns the raw postings for a query.
type Searcher interface {
	Search(ctx context.Context, q model.Query) []model.JobRecord
}

// Enricher turns a pending record into an enriched one.
type Enricher interface {
	Enrich(ctx context.Context, job model.JobRecord) model.JobRecord
}

// Config tunes a Pipeline.
type Config struct {
	Language  string // target ISO 639-1 code
	PacingMin time.Duration
	PacingMax time.Duration
	RunID     string // generated when empty
}

// Pipeline processes jobs strictly one after another.
type Pipeline struct {
	searcher   Searcher
	enricher   Enricher
	classifier langdetect.Classifier
	sinks      []model.Sink
	filter     model.JobFilter
	notifier   model.Notifier
	cfg        Config
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	pace  func(min, max time.Duration) time.Duration
	now   func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithFilter drops postings that do not match f before they are enriched.
func WithFilter(f model.JobFilter) Option {
	return func(p *Pipeline) { p.filter = f }
}

// WithNotifier reports the run summary through n.
func WithNotifier(n model.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// New creates a Pipeline writing to sinks.
func New(searcher Searcher, enricher Enricher, classifier langdetect.Classifier, sinks []model.Sink, cfg Config, logger *slog.Logger, opts ...Option) *Pipeline {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	p := &Pipeline{
		searcher:   searcher,
		enricher:   enricher,
		classifier: classifier,
		sinks:      sinks,
		cfg:        cfg,
		logger:     logger.With("run_id", cfg.RunID),
		sleep:      sleepCtx,
		pace:       uniform,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunID identifies the records written by this pipeline.
func (p *Pipeline) RunID() string {
	return p.cfg.RunID
}

// Run searches for q, keeps at most limit postings (0 = all) and processes
// them in order, pausing between jobs. It returns the run counters; the
// error is non-nil only when ctx was cancelled before the batch finished.
func (p *Pipeline) Run(ctx context.Context, q model.Query, limit int) (model.Summary, error) {
	var sum model.Summary

	jobs := p.searcher.Search(ctx, q)
	sum.Fetched = len(jobs)

	if p.filter != nil {
		kept := jobs[:0:0]
		for _, j := range jobs {
			if p.filter.Match(j) {
				kept = append(kept, j)
			}
		}
		sum.Skipped = len(jobs) - len(kept)
		jobs = kept
	}

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}

	p.logger.Info("starting enrichment",
		"what", q.What,
		"where", q.Where,
		"remote", q.RemoteOnly,
		"fetched", sum.Fetched,
		"to_process", len(jobs),
	)

	var runErr error
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		p.logger.Info("processing job", "index", i+1, "total", len(jobs), "title", job.Title, "url", job.URL)
		p.process(ctx, job, &sum)

		if i < len(jobs)-1 {
			if err := p.sleep(ctx, p.pace(p.cfg.PacingMin, p.cfg.PacingMax)); err != nil {
				runErr = err
				break
			}
		}
	}

	p.logger.Info("run complete",
		"fetched", sum.Fetched,
		"processed", sum.Processed,
		"saved", sum.Saved,
		"blocked", sum.Blocked,
		"failed", sum.Failed,
		"language_filtered", sum.Filtered,
		"skipped", sum.Skipped,
	)

	if p.notifier != nil {
		// The run context may already be cancelled; the summary is still worth sending.
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		if err := p.notifier.NotifySummary(nctx, q, sum); err != nil {
			p.logger.Error("failed to send run summary", "error", err)
		}
		cancel()
	}

	if runErr != nil {
		return sum, fmt.Errorf("run interrupted: %w", runErr)
	}
	return sum, nil
}

func (p *Pipeline) process(ctx context.Context, job model.JobRecord, sum *model.Summary) {
	enriched := p.enricher.Enrich(ctx, job)
	if ctx.Err() != nil {
		// The status reflects the interruption, not the page.
		p.logger.Warn("job interrupted, not saved", "url", job.URL)
		return
	}
	sum.Processed++

	switch enriched.Status {
	case model.StatusBlocked:
		sum.Blocked++
	case model.StatusFailedAfterRetries:
		sum.Failed++
	}

	var lang string
	if enriched.Description != "" && !model.IsSentinel(enriched.Description) {
		detected, err := p.classifier.Detect(enriched.Description)
		if err != nil {
			if !errors.Is(err, langdetect.ErrUndetectable) {
				p.logger.Warn("language detection error", "url", enriched.URL, "error", err)
			}
			p.logger.Info("skipping job with undetectable language", "url", enriched.URL)
			sum.Filtered++
			return
		}
		if detected != p.cfg.Language {
			p.logger.Info("skipping job in other language", "url", enriched.URL, "language", detected, "want", p.cfg.Language)
			sum.Filtered++
			return
		}
		lang = detected
	}

	stored := model.StoredJob{
		JobRecord: enriched,
		ID:        uuid.NewString(),
		RunID:     p.cfg.RunID,
		Language:  lang,
		ScrapedAt: p.now(),
	}

	written := 0
	for _, s := range p.sinks {
		if err := s.Append(ctx, stored); err != nil {
			p.logger.Error("failed to write job", "sink", s.Name(), "url", stored.URL, "error", err)
			continue
		}
		written++
	}
	if written > 0 {
		sum.Saved++
	}
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
