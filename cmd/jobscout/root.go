package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/notifier"
	"github.com/amishk599/jobscout/internal/proxy"
	"github.com/amishk599/jobscout/internal/secrets"
)

const defaultConfigFile = "jobscout.yaml"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscout <what> <where>",
	Short: "Search job boards and scrape every posting",
	Long: "jobscout queries job search APIs, visits each posting in a headless browser, " +
		"extracts the description and contact email, and writes the records to CSV, JSONL or SQLite.",
	// Default to `search` so that `jobscout "go developer" berlin` works directly.
	Args:         cobra.ExactArgs(2),
	RunE:         runSearch,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./jobscout.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	addSearchFlags(rootCmd)
}

// resolveConfigPath picks the config file.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./jobscout.yaml" if present > none.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// loadConfig parses the resolved config file, or returns defaults when there is none.
func loadConfig(path string) (*config.Config, error) {
	return config.Load(resolveConfigPath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// resolveCredentials fills API keys from the OS keychain when neither the
// environment nor the config file provided them.
func resolveCredentials(cfg *config.Config) error {
	targets := []struct {
		name string
		dst  *string
	}{
		{"adzuna_app_id", &cfg.Providers.Adzuna.AppID},
		{"adzuna_app_key", &cfg.Providers.Adzuna.AppKey},
		{"webshare_api_key", &cfg.Proxy.APIKey},
	}
	for _, t := range targets {
		v, err := secrets.Lookup(t.name, *t.dst)
		if err != nil {
			return err
		}
		*t.dst = v
	}
	return nil
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "telegram":
		n, err := notifier.NewTelegramNotifier(cfg.Notification.TelegramToken, cfg.Notification.TelegramChatID, logger)
		if err != nil {
			logger.Warn("telegram notifier unavailable, falling back to log", "error", err)
			return notifier.NewLogNotifier(logger)
		}
		logger.Info("using telegram notifier")
		return n
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupProxyPool(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *proxy.Pool {
	lister := proxy.NewWebshareLister(cfg.Proxy.APIKey, cfg.Proxy.APIURL, cfg.Proxy.MaxPages, httpClient)
	cache := proxy.NewFileCache(cfg.Proxy.CachePath)
	return proxy.NewPool(cfg.Proxy.APIKey, lister, cache, cfg.Proxy.TTL, logger)
}

// mustLoadConfig loads the config or exits 1, as a broken file is unrecoverable.
func mustLoadConfig(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}
