package config

// Config holds all canopy configuration, loaded in layers by Loader.Load
// (flags > env > project file > user file > defaults, spec.md §5).
type Config struct {
	Log         LogConfig             `mapstructure:"log"`
	Trace       TraceConfig           `mapstructure:"trace"`
	Telemetry   TelemetryConfig       `mapstructure:"telemetry"`
	Execution   ExecutionConfig       `mapstructure:"execution"`
	Agents      AgentsConfig          `mapstructure:"agents"`
	Discovery   DiscoveryConfig       `mapstructure:"discovery"`
	Changes     ChangesConfig         `mapstructure:"changes"`
	Synthesis   SynthesisConfig       `mapstructure:"synthesis"`
	Progress    ProgressConfig        `mapstructure:"progress"`
	Diagnostics DiagnosticsConfig     `mapstructure:"diagnostics"`
	Server      ServerConfig          `mapstructure:"server"`
	Watch       WatchConfig           `mapstructure:"watch"`
	Pricing     map[string]ModelPrice `mapstructure:"pricing"`
}

// LogConfig configures structured logging (internal/logging).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// TraceConfig configures the NDJSON trace writer (internal/trace).
type TraceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir"`
	MaxFiles int    `mapstructure:"max_files"`
}

// TelemetryConfig configures the per-run telemetry recorder (internal/telemetry).
type TelemetryConfig struct {
	Dir             string `mapstructure:"dir"`
	RetainRuns      int    `mapstructure:"retain_runs"`
	HistoryDatabase bool   `mapstructure:"history_database"`
}

// ExecutionConfig configures concurrency and timeouts for the pipeline
// driver (spec.md §5's concurrency formula and §4.1 timeouts).
type ExecutionConfig struct {
	// Concurrency overrides the computed worker count when > 0. Zero means
	// "derive from cores/memory via ResolveConcurrency".
	Concurrency     int    `mapstructure:"concurrency"`
	Timeout         string `mapstructure:"timeout"`
	MaxRetries      int    `mapstructure:"max_retries"`
	SkipRootIfEmpty bool   `mapstructure:"skip_root_if_empty"`
}

// AgentsConfig configures available CLI backend adapters.
type AgentsConfig struct {
	Default  string      `mapstructure:"default"`
	Claude   AgentConfig `mapstructure:"claude"`
	Gemini   AgentConfig `mapstructure:"gemini"`
	Codex    AgentConfig `mapstructure:"codex"`
	Copilot  AgentConfig `mapstructure:"copilot"`
	OpenCode AgentConfig `mapstructure:"opencode"`
}

// AgentConfig configures a single CLI backend.
type AgentConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Model   string `mapstructure:"model"`
	Effort  string `mapstructure:"effort"`
}

// GetAgentConfig returns the named agent's config, or nil if unknown.
func (a AgentsConfig) GetAgentConfig(name string) *AgentConfig {
	switch name {
	case "claude":
		return &a.Claude
	case "gemini":
		return &a.Gemini
	case "codex":
		return &a.Codex
	case "copilot":
		return &a.Copilot
	case "opencode":
		return &a.OpenCode
	default:
		return nil
	}
}

// DiscoveryConfig configures file discovery (internal/discovery).
type DiscoveryConfig struct {
	Include          []string `mapstructure:"include"`
	Exclude          []string `mapstructure:"exclude"`
	RespectGitIgnore bool     `mapstructure:"respect_gitignore"`
	MaxFileBytes     int64    `mapstructure:"max_file_bytes"`
}

// ChangesConfig configures incremental change detection (internal/changes).
type ChangesConfig struct {
	// RenameSimilarity is the minimum Jaccard similarity required to treat
	// a deleted+added pair as a rename. Resolves spec.md's Open Question
	// on rename detection as a config field rather than a hardcoded
	// constant; 0 falls back to the package default of 0.85.
	RenameSimilarity float64 `mapstructure:"rename_similarity"`
}

// SynthesisConfig selects and configures how directory/root overviews are
// produced (spec.md's Open Question on AI-driven vs rule-based synthesis).
type SynthesisConfig struct {
	// Mode is "ai" (default, drives internal/aicall) or "rulebased"
	// (internal/promptgen/rulebased.go, no subprocess calls).
	Mode string `mapstructure:"mode"`
}

// ProgressConfig configures the terminal progress reporter (internal/progress).
type ProgressConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	ETAWindow int  `mapstructure:"eta_window"`
}

// DiagnosticsConfig configures system introspection used both by the
// concurrency formula and `canopy doctor` (internal/diagnostics).
type DiagnosticsConfig struct {
	MinFreeMemoryMB int `mapstructure:"min_free_memory_mb"`
}

// ServerConfig configures the optional local status HTTP endpoint
// (internal/statusapi, `canopy serve`).
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// WatchConfig configures the fsnotify watch companion command
// (internal/watch, `canopy watch`).
type WatchConfig struct {
	DebounceMillis int `mapstructure:"debounce_millis"`
}

// ModelPrice is the per-million-token pricing used to estimate run cost
// from telemetry token counts. Injected via config rather than hardcoded,
// since prices change independently of canopy releases.
type ModelPrice struct {
	InputPerMillion  float64 `mapstructure:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million"`
}
