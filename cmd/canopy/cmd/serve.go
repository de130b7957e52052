package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/canopy-docs/canopy/internal/statusapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a polling JSON status endpoint for the watch companion",
	Long: `serve starts the status HTTP server on its own, without running a
pipeline. It is mainly useful for probing GET /status and /health while
developing a dashboard; "canopy watch" starts the same server inline
whenever server.enabled is true.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "override server.addr from config")
	rootCmd.AddCommand(serveCmd)
}

func runServe(c *cobra.Command, _ []string) error {
	deps, err := initDeps()
	if err != nil {
		return err
	}
	defer func() { _, _ = deps.Trace.Close() }()

	cfg := deps.Config.Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if cfg.Addr == "" {
		cfg.Addr = ":4242"
	}

	store := statusapi.NewStore()
	if deps.Reporter != nil {
		deps.Reporter.Subscribe(store.Update)
	}
	server := statusapi.New(cfg, store, deps.Logger)
	server.Start()

	fmt.Fprintf(c.OutOrStdout(), "status server listening on %s (GET /status, /health)\n", cfg.Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	return server.Shutdown(c.Context())
}
