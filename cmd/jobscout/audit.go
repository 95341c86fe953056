package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/audit"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/sink"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse stored records interactively (TUI)",
	Long:  "Shows the run picker, then a split view of scraped versus blocked/failed records read from the SQLite output.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Log output before the alt-screen starts corrupts the display, so only
	// config failures are logged.
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	store, err := sink.NewSQLiteSink(cfg.Output.SQLitePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Output.SQLitePath, err)
	}
	defer store.Close()

	jobs, err := audit.RunLoader(cfg.Output.SQLitePath, func(ctx context.Context) ([]model.StoredJob, error) {
		return store.List(ctx, "")
	})
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	runs := audit.GroupRuns(jobs)
	if len(runs) == 0 {
		fmt.Println("No stored records. Run a search with the sqlite output format first.")
		return nil
	}

	for {
		choice, err := audit.RunPicker(runs)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}

		wantQuit, err := audit.RunAuditTUI(runs[choice].Jobs)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
