// Package search fans a query out to every job source.
package search

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobscout/internal/model"
)

// Aggregator queries several sources concurrently and concatenates results
// in source order.
type Aggregator struct {
	sources []model.JobSource
	timeout time.Duration
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator. timeout bounds each source's search;
// zero means no per-source limit.
func NewAggregator(sources []model.JobSource, timeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{sources: sources, timeout: timeout, logger: logger}
}

// Search runs q against every source. A failing source is logged and
// contributes no jobs; it never fails the whole search.
func (a *Aggregator) Search(ctx context.Context, q model.Query) []model.JobRecord {
	results := make([][]model.JobRecord, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			sctx := ctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, a.timeout)
				defer cancel()
			}

			start := time.Now()
			jobs, err := src.Search(sctx, q)
			if err != nil {
				a.logger.Error("job source failed, skipping", "source", src.Name(), "error", err)
				return nil
			}
			a.logger.Info("job source returned results",
				"source", src.Name(),
				"count", len(jobs),
				"duration", time.Since(start).Round(time.Millisecond),
			)
			results[i] = jobs
			return nil
		})
	}
	g.Wait()

	var all []model.JobRecord
	for _, jobs := range results {
		all = append(all, jobs...)
	}
	return all
}
