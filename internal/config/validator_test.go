package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Log:       LogConfig{Level: "info", Format: "auto"},
		Trace:     TraceConfig{Enabled: false},
		Telemetry: TelemetryConfig{Dir: ".canopy/logs", RetainRuns: 50},
		Execution: ExecutionConfig{Concurrency: 0, Timeout: "5m", MaxRetries: 5},
		Agents: AgentsConfig{
			Default: "claude",
			Claude:  AgentConfig{Enabled: true, Path: "claude", Effort: "high"},
		},
		Changes:     ChangesConfig{RenameSimilarity: 0.85},
		Synthesis:   SynthesisConfig{Mode: "ai"},
		Progress:    ProgressConfig{ETAWindow: 10},
		Diagnostics: DiagnosticsConfig{MinFreeMemoryMB: 256},
		Server:      ServerConfig{Enabled: false},
		Watch:       WatchConfig{DebounceMillis: 500},
	}
}

func TestValidator_AcceptsDefaultConfig(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Validate(validConfig()))
}

func TestValidator_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	v := NewValidator()
	err := v.Validate(cfg)
	require.Error(t, err)
	require.True(t, v.Errors().HasErrors())
}

func TestValidator_TraceDirRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Trace.Enabled = true
	cfg.Trace.Dir = ""
	cfg.Trace.MaxFiles = 10
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_NegativeConcurrencyRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Execution.Concurrency = -1
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_InvalidTimeoutRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Execution.Timeout = "not-a-duration"
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_UnknownDefaultAgentRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Agents.Default = "not-an-agent"
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_EnabledAgentWithoutPathRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Agents.Gemini.Enabled = true
	cfg.Agents.Gemini.Path = ""
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_InvalidReasoningEffortRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Agents.Claude.Effort = "extreme"
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_RenameSimilarityOutOfRangeRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Changes.RenameSimilarity = 1.5
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_InvalidSynthesisModeRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Synthesis.Mode = "magic"
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_ServerAddrRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Enabled = true
	cfg.Server.Addr = "not-a-host-port"
	v := NewValidator()
	require.Error(t, v.Validate(cfg))
}

func TestValidator_ServerAddrValidWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Enabled = true
	cfg.Server.Addr = "127.0.0.1:4505"
	v := NewValidator()
	require.NoError(t, v.Validate(cfg))
}

func TestValidationErrors_JoinsMessages(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "also bad"},
	}
	require.True(t, errs.HasErrors())
	require.Contains(t, errs.Error(), "a:")
	require.Contains(t, errs.Error(), "b:")
}
