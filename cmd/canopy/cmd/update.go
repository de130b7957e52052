package cmd

import (
	"github.com/spf13/cobra"
)

var updOnly string

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Regenerate documentation for files changed since the last run",
	Long: `update discovers source files, classifies each against the ".sum"
artifacts left by a previous run, and processes only what's Added or
Modified. Directories on the path from a changed file up to the project
root are resynthesized; unaffected directories and the root are rewritten
only when an ancestor's children changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runGenerateOrUpdate(c, args, true, updOnly)
	},
}

func init() {
	updateCmd.Flags().StringVar(&updOnly, "only", "", "fuzzy-match file paths to restrict this run to")
	rootCmd.AddCommand(updateCmd)
}
