// Package adapters normalizes the handful of AI coding-assistant CLIs
// canopy can drive (Claude Code, Gemini CLI, Codex CLI, and friends)
// behind one contract, so internal/aicall never needs to know which
// backend it's talking to.
package adapters

import (
	"context"
	"time"
)

// CallOptions is everything an adapter needs to build one invocation.
type CallOptions struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Effort       string // low/medium/high/max, normalized per-backend by internal/core reasoning helpers
	WorkDir      string
	Timeout      time.Duration
}

// Response is an adapter's normalized view of a completed call.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	RawExitCode  int
}

// Adapter is the contract every backend CLI integration implements.
type Adapter interface {
	// Name is the backend identifier ("claude", "gemini", "codex", ...).
	Name() string

	// CLICommand is the executable canopy looks for on PATH.
	CLICommand() string

	// IsAvailable reports whether the backend binary can be found and
	// responds to a cheap liveness probe (e.g. --version).
	IsAvailable(ctx context.Context) bool

	// BuildArgs constructs the CLI argument vector for one call.
	BuildArgs(opts CallOptions) []string

	// ComposeStdin builds the stdin payload, or nil if the backend takes
	// its prompt as an argument instead.
	ComposeStdin(opts CallOptions) []byte

	// ParseResponse interprets raw subprocess stdout into a Response.
	// exitCode is passed through so parsers can distinguish a clean exit
	// carrying an in-band error payload from a genuine crash.
	ParseResponse(stdout []byte, wall time.Duration, exitCode int) (Response, error)

	// InstallInstructions is surfaced in CLI_NOT_FOUND errors.
	InstallInstructions() string
}

// Factory constructs an Adapter, given its CLI path override (empty means
// "use Name() as the PATH lookup").
type Factory func(cliPath string) Adapter
