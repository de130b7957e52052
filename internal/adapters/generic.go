package adapters

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
)

// genericAdapter covers backends that take a prompt on argv and print
// plain text to stdout with no structured envelope at all (e.g. GitHub
// Copilot CLI, OpenCode). There is nothing to parse beyond trimming, so
// token counts are always reported as zero.
type genericAdapter struct {
	name       string
	cliPath    string
	promptFlag string
	modelFlag  string
	installMsg string
}

// NewCopilot constructs the GitHub Copilot CLI adapter.
func NewCopilot(cliPath string) Adapter {
	if cliPath == "" {
		cliPath = "copilot"
	}
	return &genericAdapter{
		name:       "copilot",
		cliPath:    cliPath,
		promptFlag: "-p",
		modelFlag:  "--model",
		installMsg: "install the GitHub Copilot CLI: npm install -g @github/copilot",
	}
}

// NewOpenCode constructs the OpenCode CLI adapter.
func NewOpenCode(cliPath string) Adapter {
	if cliPath == "" {
		cliPath = "opencode"
	}
	return &genericAdapter{
		name:       "opencode",
		cliPath:    cliPath,
		promptFlag: "run",
		modelFlag:  "--model",
		installMsg: "install OpenCode: npm install -g opencode-ai",
	}
}

func (a *genericAdapter) Name() string       { return a.name }
func (a *genericAdapter) CLICommand() string { return a.cliPath }

func (a *genericAdapter) IsAvailable(ctx context.Context) bool {
	path, err := exec.LookPath(a.cliPath)
	if err != nil {
		return false
	}
	cmd := exec.CommandContext(ctx, path, "--version")
	return cmd.Run() == nil
}

func (a *genericAdapter) BuildArgs(opts CallOptions) []string {
	args := []string{a.promptFlag}
	if opts.Model != "" {
		args = append(args, a.modelFlag, opts.Model)
	}
	return args
}

func (a *genericAdapter) ComposeStdin(opts CallOptions) []byte {
	payload := opts.UserPrompt
	if opts.SystemPrompt != "" {
		payload = opts.SystemPrompt + "\n\n" + opts.UserPrompt
	}
	return []byte(payload)
}

func (a *genericAdapter) ParseResponse(stdout []byte, wall time.Duration, exitCode int) (Response, error) {
	text := strings.TrimSpace(string(stdout))
	if text == "" {
		return Response{}, core.ErrParse(a.name + ": empty output")
	}
	return Response{
		Text:        text,
		RawExitCode: exitCode,
	}, nil
}

func (a *genericAdapter) InstallInstructions() string {
	return a.installMsg
}

var _ Adapter = (*genericAdapter)(nil)
