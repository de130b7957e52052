package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopy-docs/canopy/internal/config"
	"github.com/canopy-docs/canopy/internal/telemetry"
)

var historyLimit int
var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the history index",
	Long: `history reads logs/history.db (populated when telemetry.history_database
is enabled) and prints the most recent runs, newest first.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "emit machine-readable JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(c *cobra.Command, _ []string) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Telemetry.HistoryDatabase {
		return fmt.Errorf("telemetry.history_database is disabled; no history index to read")
	}

	idx, err := telemetry.OpenHistoryIndex(cfg.Telemetry.Dir)
	if err != nil {
		return fmt.Errorf("opening history index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	records, err := idx.Recent(historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if historyJSON {
		return outputJSON(records)
	}

	out := c.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "no runs recorded yet")
		return nil
	}
	fmt.Fprintf(out, "%-38s %-20s %7s %7s %9s\n", "RUN ID", "STARTED", "OK", "FAILED", "TOKENS")
	for _, r := range records {
		fmt.Fprintf(out, "%-38s %-20s %7d %7d %9d\n",
			truncateString(r.RunID, 38), r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FilesProcessed, r.FilesFailed, r.TotalTokens)
	}
	return nil
}
