package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/canopy-docs/canopy/internal/discovery"
	"github.com/canopy-docs/canopy/internal/statusapi"
	"github.com/canopy-docs/canopy/internal/watch"
)

var watchOnly string

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-run update on a debounce whenever the source tree changes",
	Long: `watch starts an fsnotify watcher over the project tree and triggers an
incremental update once events stop arriving for watch.debounce_millis.
If server.enabled is true it also starts the status HTTP server so a
dashboard can poll the currently running update's progress.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOnly, "only", "", "fuzzy-match file paths to restrict each update to")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(c *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	deps, err := initDeps()
	if err != nil {
		return err
	}
	defer func() { _, _ = deps.Trace.Close() }()

	var store *statusapi.Store
	if deps.Config.Server.Enabled {
		store = statusapi.NewStore()
		if deps.Reporter != nil {
			deps.Reporter.Subscribe(store.Update)
		}
		server := statusapi.New(deps.Config.Server, store, deps.Logger)
		server.Start()
		defer func() { _ = server.Shutdown(c.Context()) }()
	}

	ignore := discovery.NewMatcher(deps.Config.Discovery.Exclude)
	if deps.Config.Discovery.RespectGitIgnore {
		_ = ignore.LoadGitignore(root)
	}

	debounce := time.Duration(deps.Config.Watch.DebounceMillis) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	trigger := func() {
		if store != nil {
			store.SetPhase("update")
		}
		if err := runGenerateOrUpdate(c, args, true, watchOnly); err != nil {
			fmt.Fprintf(os.Stderr, "watch: update failed: %v\n", err)
		}
		if store != nil {
			store.MarkDone()
		}
	}

	watcher, err := watch.New(root, debounce, ignore, trigger, deps.Logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	fmt.Fprintf(c.OutOrStdout(), "watching %s (debounce %s)\n", root, debounce)

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watcher.Run(ctx)
}
