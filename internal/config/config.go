package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a jobscout run.
type Config struct {
	Language     string // target ISO 639-1 code, overridable with --lang
	Output       OutputConfig
	Providers    ProvidersConfig
	Enrichment   EnrichmentConfig
	Proxy        ProxyConfig
	RateLimit    RateLimitConfig
	Filters      FilterConfig
	Notification NotificationConfig
}

// OutputConfig controls where enriched records are written.
type OutputConfig struct {
	Dir        string
	Formats    []string // any of "csv", "jsonl", "sqlite"
	SQLitePath string
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	Adzuna    AdzunaConfig
	Arbeitnow ArbeitnowConfig
}

// AdzunaConfig configures the Adzuna search API. AppID and AppKey are mandatory.
type AdzunaConfig struct {
	Enabled        bool
	AppID          string
	AppKey         string
	Country        string
	ResultsPerPage int
}

// ArbeitnowConfig configures the public Arbeitnow job board API.
type ArbeitnowConfig struct {
	Enabled bool
}

// EnrichmentConfig tunes the per-job scraping loop.
type EnrichmentConfig struct {
	Engine            string // "playwright" or "static"
	Headless          bool
	MaxRetries        int
	NavigationTimeout time.Duration
	ReadTimeout       time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	PacingMin         time.Duration
	PacingMax         time.Duration
	UserAgents        []string // empty = built-in rotation set
	HostRate          float64  // navigations per second per host, 0 disables
}

// ProxyConfig controls the optional Webshare proxy pool. An empty APIKey disables it.
type ProxyConfig struct {
	APIKey    string
	APIURL    string
	CachePath string
	TTL       time.Duration
	MaxPages  int
}

// RateLimitConfig controls provider-level rate limiting of search API calls.
type RateLimitConfig struct {
	MinDelay          time.Duration            // minimum gap between calls to the same provider
	ProviderOverrides map[string]time.Duration // keyed by provider name
}

// MinDelayFor returns the configured delay for the given provider, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(provider string) time.Duration {
	if d, ok := r.ProviderOverrides[provider]; ok {
		return d
	}
	return r.MinDelay
}

// FilterConfig holds keyword and location pre-filters applied before enrichment.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// NotificationConfig controls where the run summary is reported.
type NotificationConfig struct {
	Type           string `yaml:"type"`        // "log", "slack" or "telegram"
	WebhookURL     string `yaml:"webhook_url"` // required if type is "slack"
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

const (
	DefaultWebshareURL = "https://proxy.webshare.io/api/v2/proxy/list/?page=1&page_size=20&mode=direct"
	slackWebhookPrefix = "https://hooks.slack.com/"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Language: "en",
		Output: OutputConfig{
			Dir:        "data",
			Formats:    []string{"csv", "jsonl"},
			SQLitePath: "data/jobscout.db",
		},
		Providers: ProvidersConfig{
			Adzuna:    AdzunaConfig{Enabled: true, Country: "us", ResultsPerPage: 10},
			Arbeitnow: ArbeitnowConfig{Enabled: true},
		},
		Enrichment: EnrichmentConfig{
			Engine:            "playwright",
			Headless:          true,
			MaxRetries:        3,
			NavigationTimeout: 12 * time.Second,
			ReadTimeout:       20 * time.Second,
			BackoffMin:        2 * time.Second,
			BackoffMax:        5 * time.Second,
			PacingMin:         1 * time.Second,
			PacingMax:         3 * time.Second,
		},
		Proxy: ProxyConfig{
			APIURL:    DefaultWebshareURL,
			CachePath: "data/webshare_proxies_cache.json",
			TTL:       time.Hour,
			MaxPages:  1,
		},
		RateLimit: RateLimitConfig{
			MinDelay:          time.Second,
			ProviderOverrides: map[string]time.Duration{},
		},
		Notification: NotificationConfig{Type: "log"},
	}
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Language     string             `yaml:"language"`
	Output       rawOutputConfig    `yaml:"output"`
	Providers    rawProvidersConfig `yaml:"providers"`
	Enrichment   rawEnrichment      `yaml:"enrichment"`
	Proxy        rawProxyConfig     `yaml:"proxy"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Filters      FilterConfig       `yaml:"filters"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawOutputConfig struct {
	Dir        string   `yaml:"dir"`
	Formats    []string `yaml:"formats"`
	SQLitePath string   `yaml:"sqlite_path"`
}

type rawProvidersConfig struct {
	Adzuna struct {
		Enabled        *bool  `yaml:"enabled"`
		AppID          string `yaml:"app_id"`
		AppKey         string `yaml:"app_key"`
		Country        string `yaml:"country"`
		ResultsPerPage int    `yaml:"results_per_page"`
	} `yaml:"adzuna"`
	Arbeitnow struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"arbeitnow"`
}

type rawEnrichment struct {
	Engine            string   `yaml:"engine"`
	Headless          *bool    `yaml:"headless"`
	MaxRetries        int      `yaml:"max_retries"`
	NavigationTimeout string   `yaml:"navigation_timeout"`
	ReadTimeout       string   `yaml:"read_timeout"`
	BackoffMin        string   `yaml:"backoff_min"`
	BackoffMax        string   `yaml:"backoff_max"`
	PacingMin         string   `yaml:"pacing_min"`
	PacingMax         string   `yaml:"pacing_max"`
	UserAgents        []string `yaml:"user_agents"`
	HostRate          float64  `yaml:"host_rate"`
}

type rawProxyConfig struct {
	APIKey    string `yaml:"api_key"`
	APIURL    string `yaml:"api_url"`
	CachePath string `yaml:"cache_path"`
	TTL       string `yaml:"ttl"`
	MaxPages  int    `yaml:"max_pages"`
}

type rawRateLimitConfig struct {
	MinDelay          string            `yaml:"min_delay"`
	ProviderOverrides map[string]string `yaml:"provider_overrides"`
}

// Load reads the YAML config file at path on top of Default, fills missing
// credentials from the environment, validates, and returns the Config.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		var raw rawConfig
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if err := apply(cfg, &raw); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func apply(cfg *Config, raw *rawConfig) error {
	if raw.Language != "" {
		cfg.Language = raw.Language
	}

	if raw.Output.Dir != "" {
		cfg.Output.Dir = raw.Output.Dir
	}
	if len(raw.Output.Formats) > 0 {
		cfg.Output.Formats = raw.Output.Formats
	}
	if raw.Output.SQLitePath != "" {
		cfg.Output.SQLitePath = raw.Output.SQLitePath
	}

	az := raw.Providers.Adzuna
	if az.Enabled != nil {
		cfg.Providers.Adzuna.Enabled = *az.Enabled
	}
	cfg.Providers.Adzuna.AppID = az.AppID
	cfg.Providers.Adzuna.AppKey = az.AppKey
	if az.Country != "" {
		cfg.Providers.Adzuna.Country = az.Country
	}
	if az.ResultsPerPage > 0 {
		cfg.Providers.Adzuna.ResultsPerPage = az.ResultsPerPage
	}
	if raw.Providers.Arbeitnow.Enabled != nil {
		cfg.Providers.Arbeitnow.Enabled = *raw.Providers.Arbeitnow.Enabled
	}

	e := raw.Enrichment
	if e.Engine != "" {
		cfg.Enrichment.Engine = e.Engine
	}
	if e.Headless != nil {
		cfg.Enrichment.Headless = *e.Headless
	}
	if e.MaxRetries != 0 {
		cfg.Enrichment.MaxRetries = e.MaxRetries
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"enrichment.navigation_timeout", e.NavigationTimeout, &cfg.Enrichment.NavigationTimeout},
		{"enrichment.read_timeout", e.ReadTimeout, &cfg.Enrichment.ReadTimeout},
		{"enrichment.backoff_min", e.BackoffMin, &cfg.Enrichment.BackoffMin},
		{"enrichment.backoff_max", e.BackoffMax, &cfg.Enrichment.BackoffMax},
		{"enrichment.pacing_min", e.PacingMin, &cfg.Enrichment.PacingMin},
		{"enrichment.pacing_max", e.PacingMax, &cfg.Enrichment.PacingMax},
		{"proxy.ttl", raw.Proxy.TTL, &cfg.Proxy.TTL},
		{"rate_limit.min_delay", raw.RateLimit.MinDelay, &cfg.RateLimit.MinDelay},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", d.key, d.raw, err)
		}
		*d.dst = v
	}
	if len(e.UserAgents) > 0 {
		cfg.Enrichment.UserAgents = e.UserAgents
	}
	if e.HostRate > 0 {
		cfg.Enrichment.HostRate = e.HostRate
	}

	cfg.Proxy.APIKey = raw.Proxy.APIKey
	if raw.Proxy.APIURL != "" {
		cfg.Proxy.APIURL = raw.Proxy.APIURL
	}
	if raw.Proxy.CachePath != "" {
		cfg.Proxy.CachePath = raw.Proxy.CachePath
	}
	if raw.Proxy.MaxPages > 0 {
		cfg.Proxy.MaxPages = raw.Proxy.MaxPages
	}

	for provider, v := range raw.RateLimit.ProviderOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse rate_limit.provider_overrides[%q]: %w", provider, err)
		}
		cfg.RateLimit.ProviderOverrides[provider] = d
	}

	cfg.Filters = raw.Filters
	if raw.Notification.Type != "" {
		cfg.Notification = raw.Notification
	}
	return nil
}

// applyEnv fills credentials that the file left empty.
func applyEnv(cfg *Config) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&cfg.Providers.Adzuna.AppID, "ADZUNA_APP_ID")
	fill(&cfg.Providers.Adzuna.AppKey, "ADZUNA_APP_KEY")
	fill(&cfg.Proxy.APIKey, "WEBSHARE_API_KEY")
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Language) == "" {
		return fmt.Errorf("language must not be empty")
	}

	if len(cfg.Output.Formats) == 0 {
		return fmt.Errorf("output.formats must list at least one format")
	}
	for _, f := range cfg.Output.Formats {
		switch f {
		case "csv", "jsonl", "sqlite":
		default:
			return fmt.Errorf("output.formats: unsupported format %q", f)
		}
	}

	e := cfg.Enrichment
	if e.Engine != "playwright" && e.Engine != "static" {
		return fmt.Errorf("enrichment.engine must be \"playwright\" or \"static\", got %q", e.Engine)
	}
	if e.MaxRetries < 1 {
		return fmt.Errorf("enrichment.max_retries must be at least 1, got %d", e.MaxRetries)
	}
	if e.NavigationTimeout <= 0 || e.ReadTimeout <= 0 {
		return fmt.Errorf("enrichment timeouts must be positive")
	}
	if e.NavigationTimeout > e.ReadTimeout {
		return fmt.Errorf("enrichment.navigation_timeout (%v) must not exceed read_timeout (%v)", e.NavigationTimeout, e.ReadTimeout)
	}
	if e.BackoffMin < 0 || e.BackoffMin > e.BackoffMax {
		return fmt.Errorf("enrichment backoff range invalid: [%v, %v]", e.BackoffMin, e.BackoffMax)
	}
	if e.PacingMin < 0 || e.PacingMin > e.PacingMax {
		return fmt.Errorf("enrichment pacing range invalid: [%v, %v]", e.PacingMin, e.PacingMax)
	}

	if cfg.Proxy.TTL <= 0 {
		return fmt.Errorf("proxy.ttl must be positive, got %v", cfg.Proxy.TTL)
	}

	if !cfg.Providers.Adzuna.Enabled && !cfg.Providers.Arbeitnow.Enabled {
		return fmt.Errorf("at least one provider must be enabled")
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	case "telegram":
		if cfg.Notification.TelegramToken == "" || cfg.Notification.TelegramChatID == 0 {
			return fmt.Errorf("notification.telegram_token and telegram_chat_id are required when type is \"telegram\"")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\", \"slack\" or \"telegram\", got %q", cfg.Notification.Type)
	}

	return nil
}
