package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/canopy-docs/canopy/internal/core"
	"github.com/canopy-docs/canopy/internal/pipeline"
	"github.com/canopy-docs/canopy/internal/progress"
	"github.com/canopy-docs/canopy/internal/telemetry"
)

var (
	genOnly string
)

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Generate documentation for every discovered source file",
	Long: `generate walks the project from a full start: every discovered source
file is analyzed, every directory containing one is synthesized, and a
project-level overview is written at the root. Use update for incremental
runs that only touch changed files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runGenerateOrUpdate(c, args, false, genOnly)
	},
}

func init() {
	generateCmd.Flags().StringVar(&genOnly, "only", "", "fuzzy-match file paths to restrict this run to")
	rootCmd.AddCommand(generateCmd)
}

// runGenerateOrUpdate is shared by generate and update: both build a plan,
// wire progress reporting into the driver, and run all three phases.
func runGenerateOrUpdate(c *cobra.Command, args []string, incremental bool, only string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	deps, err := initDeps()
	if err != nil {
		return err
	}
	defer func() { _, _ = deps.Trace.Close() }()
	defer deps.CrashDump.RecoverAndDump()

	ctx := c.Context()
	deps.Monitor.Start(ctx)
	defer deps.Monitor.Stop()

	plan, prompts, err := buildPlan(deps.RunID, root, deps.Config, incremental, only)
	if err != nil {
		return fmt.Errorf("building plan: %w", err)
	}

	if deps.Reporter != nil {
		deps.Reporter.SetTotal(progress.Total{
			Files:       len(plan.ByKind(core.KindFile)),
			Directories: len(plan.ByKind(core.KindDirectory)),
			Roots:       len(plan.ByKind(core.KindRoot)),
		})
	}

	opts := pipeline.RunOptions{
		Concurrency:     resolveConcurrency(deps.Config),
		SkipRootIfEmpty: deps.Config.Execution.SkipRootIfEmpty,
	}
	if deps.Reporter != nil {
		opts.OnComplete = deps.Reporter.OnComplete
		opts.OnDirectoryComplete = deps.Reporter.OnDirectoryOrRootComplete
		opts.OnRootComplete = deps.Reporter.OnDirectoryOrRootComplete
	}
	opts.OnTaskStart = func(phase core.TaskKind, taskID core.TaskID) {
		deps.CrashDump.SetCurrentContext(string(phase), string(taskID))
	}

	startedAt := time.Now()
	summary, err := deps.Driver.Run(ctx, plan, prompts, opts)
	endedAt := time.Now()

	runSummary, finalizeErr := deps.Telemetry.Finalize(deps.Config.Telemetry.Dir)
	if finalizeErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warning: recording run history: %v\n", finalizeErr)
	} else if deps.Config.Telemetry.HistoryDatabase {
		if idx, idxErr := telemetry.OpenHistoryIndex(deps.Config.Telemetry.Dir); idxErr == nil {
			if recErr := idx.Record(deps.RunID, startedAt, endedAt, runSummary); recErr != nil {
				_, _ = fmt.Fprintf(os.Stderr, "warning: updating history index: %v\n", recErr)
			}
			_ = idx.Close()
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.OutOrStdout(), "files: %d ok, %d failed; directories: %d; root: %d\n",
		summary.FilesProcessed, summary.FilesFailed, summary.DirsProcessed, summary.RootsProcessed)
	if summary.FilesFailed > 0 {
		return fmt.Errorf("%d file(s) failed", summary.FilesFailed)
	}
	return nil
}
