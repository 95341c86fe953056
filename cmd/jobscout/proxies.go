package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/model"
)

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Inspect the Webshare proxy pool",
}

var proxiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the proxies the next run will use (cache or API)",
	RunE:  runProxiesList,
}

var proxiesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch a fresh proxy list and rewrite the cache",
	RunE:  runProxiesRefresh,
}

func init() {
	proxiesCmd.AddCommand(proxiesListCmd, proxiesRefreshCmd)
	rootCmd.AddCommand(proxiesCmd)
}

func runProxiesList(cmd *cobra.Command, args []string) error {
	return withProxyPool(cmd, false)
}

func runProxiesRefresh(cmd *cobra.Command, args []string) error {
	return withProxyPool(cmd, true)
}

func withProxyPool(cmd *cobra.Command, refresh bool) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)
	if err := resolveCredentials(cfg); err != nil {
		logger.Warn("keychain lookup failed", "error", err)
	}

	pool := setupProxyPool(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	if !pool.Enabled() {
		fmt.Println("Proxy pool disabled: set WEBSHARE_API_KEY or run `jobscout secrets set webshare_api_key`.")
		return nil
	}

	var proxies []model.ProxyCredential
	if refresh {
		proxies = pool.Refresh(cmd.Context())
	} else {
		proxies = pool.Load(cmd.Context())
	}
	printProxies(proxies)
	return nil
}

func printProxies(proxies []model.ProxyCredential) {
	if len(proxies) == 0 {
		fmt.Println("No proxies available.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVER\tUSER\tLOCATION")
	for _, p := range proxies {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Server, p.Username, p.Location)
	}
	w.Flush()
	fmt.Printf("\n%d proxies\n", len(proxies))
}
