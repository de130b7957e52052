package adapters

import (
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
)

// claudeAdapter drives Claude Code's one-shot print mode, which emits a
// single stable JSON object on stdout (spec.md §4.2 "stable JSON"
// strategy).
type claudeAdapter struct {
	cliPath string
}

// NewClaude constructs the Claude Code adapter.
func NewClaude(cliPath string) Adapter {
	if cliPath == "" {
		cliPath = "claude"
	}
	return &claudeAdapter{cliPath: cliPath}
}

func (a *claudeAdapter) Name() string       { return "claude" }
func (a *claudeAdapter) CLICommand() string { return a.cliPath }

func (a *claudeAdapter) IsAvailable(ctx context.Context) bool {
	path, err := exec.LookPath(a.cliPath)
	if err != nil {
		return false
	}
	cmd := exec.CommandContext(ctx, path, "--version")
	return cmd.Run() == nil
}

func (a *claudeAdapter) BuildArgs(opts CallOptions) []string {
	args := []string{"--print", "--output-format", "json", "--dangerously-skip-permissions"}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.Effort != "" {
		args = append(args, "--effort", core.NormalizeEffortForAgent(core.AgentClaude, opts.Model, opts.Effort))
	}
	return args
}

// ComposeStdin wraps the system prompt in a tag, since one-shot print mode
// has no dedicated system-prompt flag.
func (a *claudeAdapter) ComposeStdin(opts CallOptions) []byte {
	payload := opts.UserPrompt
	if opts.SystemPrompt != "" {
		payload = "<system-instructions>\n" + opts.SystemPrompt + "\n</system-instructions>\n\n" + opts.UserPrompt
	}
	return []byte(payload)
}

type claudeStableResponse struct {
	Type       string `json:"type"`
	Subtype    string `json:"subtype"`
	Result     string `json:"result"`
	Error      string `json:"error"`
	Model      string `json:"model"`
	Usage      struct {
		InputTokens       int `json:"input_tokens"`
		CacheReadTokens   int `json:"cache_read_input_tokens"`
		OutputTokens      int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *claudeAdapter) ParseResponse(stdout []byte, wall time.Duration, exitCode int) (Response, error) {
	var resp claudeStableResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return Response{}, core.ErrParse("claude: could not parse stable JSON result").WithCause(err)
	}
	if resp.Type == "result" && resp.Subtype == "error" {
		return Response{}, core.ErrSubprocess("claude reported an in-band error: " + resp.Error)
	}
	return Response{
		Text:         resp.Result,
		Model:        resp.Model,
		InputTokens:  NormalizeInputTokens(resp.Usage.InputTokens, resp.Usage.CacheReadTokens),
		OutputTokens: resp.Usage.OutputTokens,
		RawExitCode:  exitCode,
	}, nil
}

func (a *claudeAdapter) InstallInstructions() string {
	return "install the Claude Code CLI: https://docs.claude.com/en/docs/claude-code"
}

var _ Adapter = (*claudeAdapter)(nil)
