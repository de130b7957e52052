package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

const msgInvalidReasoningEffort = "invalid reasoning effort (valid: minimal, low, medium, high, xhigh, max)"

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateTrace(&cfg.Trace)
	v.validateTelemetry(&cfg.Telemetry)
	v.validateExecution(&cfg.Execution)
	v.validateAgents(&cfg.Agents)
	v.validateDiscovery(&cfg.Discovery)
	v.validateChanges(&cfg.Changes)
	v.validateSynthesis(&cfg.Synthesis)
	v.validateProgress(&cfg.Progress)
	v.validateDiagnostics(&cfg.Diagnostics)
	v.validateServer(&cfg.Server)
	v.validateWatch(&cfg.Watch)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		core.LogDebug: true, core.LogInfo: true, core.LogWarn: true, core.LogError: true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		core.LogFormatAuto: true, core.LogFormatText: true, core.LogFormatJSON: true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateTrace(cfg *TraceConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Dir == "" {
		v.addError("trace.dir", cfg.Dir, "directory required when enabled")
	} else if !isValidPath(cfg.Dir) {
		v.addError("trace.dir", cfg.Dir, "invalid directory path")
	}
	if cfg.MaxFiles <= 0 {
		v.addError("trace.max_files", cfg.MaxFiles, "must be positive")
	}
}

func (v *Validator) validateTelemetry(cfg *TelemetryConfig) {
	if cfg.Dir == "" {
		v.addError("telemetry.dir", cfg.Dir, "directory required")
	} else if !isValidPath(cfg.Dir) {
		v.addError("telemetry.dir", cfg.Dir, "invalid directory path")
	}
	if cfg.RetainRuns < 0 {
		v.addError("telemetry.retain_runs", cfg.RetainRuns, "must be >= 0")
	}
}

func (v *Validator) validateExecution(cfg *ExecutionConfig) {
	if cfg.Concurrency < 0 {
		v.addError("execution.concurrency", cfg.Concurrency, "must be >= 0 (0 means auto-derive)")
	}
	if cfg.Timeout == "" {
		cfg.Timeout = "5m"
	}
	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		v.addError("execution.timeout", cfg.Timeout, "invalid duration format")
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		v.addError("execution.max_retries", cfg.MaxRetries, "must be between 0 and 10")
	}
}

func (v *Validator) validateAgents(cfg *AgentsConfig) {
	if !core.IsValidAgent(cfg.Default) {
		v.addError("agents.default", cfg.Default, "unknown agent")
	}

	defaultCfg := cfg.GetAgentConfig(cfg.Default)
	if defaultCfg != nil && !defaultCfg.Enabled {
		v.addError("agents.default", cfg.Default, "default agent must be enabled")
	}

	v.validateAgent("agents.claude", &cfg.Claude)
	v.validateAgent("agents.gemini", &cfg.Gemini)
	v.validateAgent("agents.codex", &cfg.Codex)
	v.validateAgent("agents.copilot", &cfg.Copilot)
	v.validateAgent("agents.opencode", &cfg.OpenCode)
}

func (v *Validator) validateAgent(prefix string, cfg *AgentConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Path == "" {
		v.addError(prefix+".path", cfg.Path, "path required when enabled")
	}
	v.validateReasoningEffort(prefix+".effort", cfg.Effort)
}

func (v *Validator) validateReasoningEffort(prefix, effort string) {
	if effort == "" {
		return
	}
	if !core.IsValidReasoningEffort(effort) {
		v.addError(prefix, effort, msgInvalidReasoningEffort)
	}
}

func (v *Validator) validateDiscovery(cfg *DiscoveryConfig) {
	if cfg.MaxFileBytes < 0 {
		v.addError("discovery.max_file_bytes", cfg.MaxFileBytes, "must be >= 0 (0 means unlimited)")
	}
}

func (v *Validator) validateChanges(cfg *ChangesConfig) {
	if cfg.RenameSimilarity < 0 || cfg.RenameSimilarity > 1 {
		v.addError("changes.rename_similarity", cfg.RenameSimilarity, "must be between 0 and 1")
	}
}

func (v *Validator) validateSynthesis(cfg *SynthesisConfig) {
	switch cfg.Mode {
	case "", "ai", "rulebased":
	default:
		v.addError("synthesis.mode", cfg.Mode, "must be ai or rulebased")
	}
}

func (v *Validator) validateProgress(cfg *ProgressConfig) {
	if cfg.ETAWindow < 0 {
		v.addError("progress.eta_window", cfg.ETAWindow, "must be >= 0")
	}
}

func (v *Validator) validateDiagnostics(cfg *DiagnosticsConfig) {
	if cfg.MinFreeMemoryMB < 0 {
		v.addError("diagnostics.min_free_memory_mb", cfg.MinFreeMemoryMB, "must be >= 0")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Addr == "" {
		v.addError("server.addr", cfg.Addr, "address required when enabled")
		return
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		v.addError("server.addr", cfg.Addr, "must be a valid host:port address")
	}
}

func (v *Validator) validateWatch(cfg *WatchConfig) {
	if cfg.DebounceMillis < 0 {
		v.addError("watch.debounce_millis", cfg.DebounceMillis, "must be >= 0")
	}
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
