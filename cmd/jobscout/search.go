package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/adapter"
	"github.com/amishk599/jobscout/internal/browser"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/enrich"
	"github.com/amishk599/jobscout/internal/filter"
	"github.com/amishk599/jobscout/internal/langdetect"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/pipeline"
	"github.com/amishk599/jobscout/internal/ratelimit"
	"github.com/amishk599/jobscout/internal/retry"
	"github.com/amishk599/jobscout/internal/search"
	"github.com/amishk599/jobscout/internal/sink"
)

// Search-wide timeout covering every provider call including retries.
const searchTimeout = 2 * time.Minute

var searchOpts struct {
	remote bool
	lang   string
	limit  int
	dryRun bool
}

var searchCmd = &cobra.Command{
	Use:   "search <what> <where>",
	Short: "Search providers and enrich every posting",
	Long:  "Runs one search across the enabled providers, scrapes each posting and writes the results. Blocks until done or SIGINT/SIGTERM.",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	addSearchFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&searchOpts.remote, "remote", false, "only remote positions")
	cmd.Flags().StringVar(&searchOpts.lang, "lang", "", "keep only descriptions in this language (default: config language)")
	cmd.Flags().IntVar(&searchOpts.limit, "limit", 0, "process at most this many postings (0 = all)")
	cmd.Flags().BoolVar(&searchOpts.dryRun, "dry-run", false, "scrape but do not write any output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	if searchOpts.lang != "" {
		cfg.Language = searchOpts.lang
	}
	lang, err := langdetect.Normalize(cfg.Language)
	if err != nil {
		logger.Error("invalid language", "error", err)
		os.Exit(1)
	}

	if err := resolveCredentials(cfg); err != nil {
		logger.Warn("keychain lookup failed", "error", err)
	}
	if cfg.Providers.Adzuna.Enabled && (cfg.Providers.Adzuna.AppID == "" || cfg.Providers.Adzuna.AppKey == "") {
		logger.Error("missing Adzuna credentials: set ADZUNA_APP_ID and ADZUNA_APP_KEY, or run `jobscout secrets set adzuna_app_id`")
		return nil
	}

	ctx := cmd.Context()
	q := model.Query{What: args[0], Where: args[1], RemoteOnly: searchOpts.remote}

	logger.Info("config loaded",
		"what", q.What,
		"where", q.Where,
		"remote", q.RemoteOnly,
		"language", lang,
		"engine", cfg.Enrichment.Engine,
		"formats", cfg.Output.Formats,
		"dry_run", searchOpts.dryRun,
	)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	pool := setupProxyPool(cfg, httpClient, logger)
	if pool.Enabled() {
		proxies := pool.Load(ctx)
		logger.Info("proxy pool ready", "proxies", len(proxies))
	}

	var sinks []model.Sink
	if searchOpts.dryRun {
		logger.Info("dry-run mode enabled, nothing will be written")
		sinks = []model.Sink{sink.NewNopSink()}
	} else {
		sinks, err = sink.Open(cfg.Output.Formats, cfg.Output.Dir, cfg.Output.SQLitePath, q, time.Now())
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
	}
	defer func() {
		if err := sink.CloseAll(sinks); err != nil {
			logger.Error("failed to close output", "error", err)
		}
	}()

	b, err := openBrowser(cfg.Enrichment)
	if err != nil {
		return fmt.Errorf("start %s browser: %w", cfg.Enrichment.Engine, err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	var engineOpts []enrich.Option
	if cfg.Enrichment.HostRate > 0 {
		engineOpts = append(engineOpts, enrich.WithHostLimiter(ratelimit.NewHostLimiter(cfg.Enrichment.HostRate, 1)))
	}
	engine := enrich.NewEngine(browser.NewSession(b, logger), pool, enrichConfig(cfg.Enrichment), logger, engineOpts...)

	opts := []pipeline.Option{pipeline.WithNotifier(setupNotifier(cfg, httpClient, logger))}
	jobFilter := filter.NewKeywordFilter(
		cfg.Filters.TitleKeywords,
		cfg.Filters.TitleExcludeKeywords,
		cfg.Filters.Locations,
		cfg.Filters.ExcludeLocations,
	)
	if !jobFilter.Empty() {
		opts = append(opts, pipeline.WithFilter(jobFilter))
	}

	aggregator := search.NewAggregator(buildSources(cfg, httpClient, logger), searchTimeout, logger)
	p := pipeline.New(aggregator, engine, langdetect.Whatlang{}, sinks, pipeline.Config{
		Language:  lang,
		PacingMin: cfg.Enrichment.PacingMin,
		PacingMax: cfg.Enrichment.PacingMax,
	}, logger, opts...)

	if _, err := p.Run(ctx, q, searchOpts.limit); err != nil {
		logger.Warn("run interrupted", "error", err)
	}
	logger.Info("goodbye")
	return nil
}

// buildSources wraps each enabled provider with retry and per-provider rate limiting.
func buildSources(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.JobSource {
	limiter := ratelimit.NewProviderLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.ProviderOverrides)

	var raw []model.JobSource
	if az := cfg.Providers.Adzuna; az.Enabled {
		raw = append(raw, adapter.NewAdzunaAdapter(az.AppID, az.AppKey, az.Country, az.ResultsPerPage, httpClient))
	}
	if cfg.Providers.Arbeitnow.Enabled {
		raw = append(raw, adapter.NewArbeitnowAdapter(httpClient))
	}

	sources := make([]model.JobSource, 0, len(raw))
	for _, s := range raw {
		limited := ratelimit.NewRateLimitedSource(s, limiter)
		sources = append(sources, retry.NewRetrySource(limited, 2, 5*time.Second, logger))
		logger.Info("registered provider", "name", s.Name(), "min_delay", cfg.RateLimit.MinDelayFor(s.Name()).String())
	}
	return sources
}

func openBrowser(e config.EnrichmentConfig) (browser.Browser, error) {
	if e.Engine == "static" {
		return browser.NewStaticBrowser(), nil
	}
	pw, err := browser.LaunchPlaywright(e.Headless)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func enrichConfig(e config.EnrichmentConfig) enrich.Config {
	c := enrich.DefaultConfig()
	c.MaxRetries = e.MaxRetries
	c.NavigationTimeout = e.NavigationTimeout
	c.ReadTimeout = e.ReadTimeout
	c.BackoffMin = e.BackoffMin
	c.BackoffMax = e.BackoffMax
	c.UserAgents = e.UserAgents
	return c
}
