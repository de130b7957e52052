package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/canopy-docs/canopy/internal/adapters"
	"github.com/canopy-docs/canopy/internal/aicall"
	"github.com/canopy-docs/canopy/internal/config"
	"github.com/canopy-docs/canopy/internal/core"
	"github.com/canopy-docs/canopy/internal/diagnostics"
	"github.com/canopy-docs/canopy/internal/logging"
	"github.com/canopy-docs/canopy/internal/pipeline"
	"github.com/canopy-docs/canopy/internal/progress"
	"github.com/canopy-docs/canopy/internal/promptgen"
	"github.com/canopy-docs/canopy/internal/retry"
	"github.com/canopy-docs/canopy/internal/supervisor"
	"github.com/canopy-docs/canopy/internal/telemetry"
	"github.com/canopy-docs/canopy/internal/trace"
)

// Deps bundles every dependency a subcommand needs to run a pipeline.
// Built once per invocation by initDeps: a single struct constructed up
// front so every subcommand shares the same config load, logger, and
// wiring instead of repeating it.
type Deps struct {
	Config    *config.Config
	Logger    *logging.Logger
	RunID     string
	Driver    *pipeline.Driver
	Reporter  *progress.Reporter
	Telemetry *telemetry.Recorder
	Trace     trace.Writer
	Monitor   *diagnostics.ResourceMonitor
	CrashDump *diagnostics.CrashDumpWriter
}

// initDeps loads configuration, validates it, and constructs the full
// dependency graph: registry -> supervisor -> retry policy -> telemetry
// recorder -> trace writer -> AI call service -> pipeline driver.
func initDeps() (*Deps, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	level := cfg.Log.Level
	if quiet {
		level = "warn"
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
	})

	runID := uuid.NewString()

	registry := adapters.NewRegistry()
	configureAgents(registry, cfg)

	// memoryThresholdMB warns on heap-in-use, a different axis than
	// cfg.Diagnostics.MinFreeMemoryMB (host free memory, checked at
	// startup by config validation); a fixed default is used here rather
	// than reusing that value for an unrelated threshold.
	monitor := diagnostics.NewResourceMonitor(30*time.Second, 90, 10000, 4096, 120, logger.Logger)
	crashDir := filepath.Join(cfg.Telemetry.Dir, "crashdumps")
	crashDump := diagnostics.NewCrashDumpWriter(crashDir, 10, true, false, logger.Logger, monitor)

	sup := supervisor.New(logger).WithDiagnostics(monitor, crashDump)

	policy := retry.DefaultPolicy()
	if cfg.Execution.MaxRetries > 0 {
		policy.MaxAttempts = cfg.Execution.MaxRetries
	}

	rec := telemetry.New(runID)

	var tw trace.Writer
	if cfg.Trace.Enabled {
		tw, err = trace.NewFile(cfg.Trace.Dir, runID, logger)
		if err != nil {
			return nil, fmt.Errorf("opening trace writer: %w", err)
		}
	} else {
		tw = trace.NewNoop()
	}

	ai := aicall.New(registry, sup, policy, rec, tw, logger)

	synth, err := buildSynthesizer(cfg, ai)
	if err != nil {
		return nil, err
	}

	driver := pipeline.New(ai, synth, logger)

	var reporter *progress.Reporter
	if cfg.Progress.Enabled && !quiet {
		reporter = progress.New(nil, nil, cfg.Progress.ETAWindow)
	}

	return &Deps{
		Config:    cfg,
		Logger:    logger,
		RunID:     runID,
		Driver:    driver,
		Reporter:  reporter,
		Telemetry: rec,
		Trace:     tw,
		Monitor:   monitor,
		CrashDump: crashDump,
	}, nil
}

// configureAgents registers every enabled backend from cfg.Agents with
// the adapter registry under its fixed core.Agent* name.
func configureAgents(reg *adapters.Registry, cfg *config.Config) {
	type entry struct {
		name string
		cfg  config.AgentConfig
	}
	for _, e := range []entry{
		{core.AgentClaude, cfg.Agents.Claude},
		{core.AgentGemini, cfg.Agents.Gemini},
		{core.AgentCodex, cfg.Agents.Codex},
		{core.AgentCopilot, cfg.Agents.Copilot},
		{core.AgentOpenCode, cfg.Agents.OpenCode},
	} {
		if !e.cfg.Enabled {
			continue
		}
		reg.Configure(e.name, e.cfg.Path)
	}
}

// buildSynthesizer resolves the Open Question on AI-driven vs rule-based
// directory/root synthesis via cfg.Synthesis.Mode.
func buildSynthesizer(cfg *config.Config, ai *aicall.Service) (pipeline.DirectorySynthesizer, error) {
	switch cfg.Synthesis.Mode {
	case "", "ai":
		agentCfg := cfg.Agents.GetAgentConfig(cfg.Agents.Default)
		var model, effort string
		if agentCfg != nil {
			model, effort = agentCfg.Model, agentCfg.Effort
		}
		timeout, err := time.ParseDuration(cfg.Execution.Timeout)
		if err != nil {
			timeout = 5 * time.Minute
		}
		return promptgen.NewAISynthesizer(ai, cfg.Agents.Default, model, effort, timeout), nil
	case "rulebased":
		return promptgen.NewRuleBasedSynthesizer(), nil
	default:
		return nil, fmt.Errorf("synthesis.mode %q: must be ai or rulebased", cfg.Synthesis.Mode)
	}
}

// resolveConcurrency returns cfg.Execution.Concurrency when set, otherwise
// derives it from the host's cores and memory (spec.md §5's formula).
func resolveConcurrency(cfg *config.Config) int {
	if cfg.Execution.Concurrency > 0 {
		return cfg.Execution.Concurrency
	}
	report := diagnostics.CollectHardwareReport()
	return diagnostics.ResolveConcurrency(report.CPUCores, report.TotalMemGB)
}
