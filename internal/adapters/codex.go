package adapters

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
)

// codexAdapter drives the Codex CLI. Its JSONL output shape has drifted
// across releases (message text has lived under at least three different
// key paths), so ParseResponse applies a tiered extraction instead of
// unmarshaling into one fixed struct (spec.md §4.2 "JSONL unstable shape"
// strategy).
type codexAdapter struct {
	cliPath string
}

// NewCodex constructs the Codex CLI adapter.
func NewCodex(cliPath string) Adapter {
	if cliPath == "" {
		cliPath = "codex"
	}
	return &codexAdapter{cliPath: cliPath}
}

func (a *codexAdapter) Name() string       { return "codex" }
func (a *codexAdapter) CLICommand() string { return a.cliPath }

func (a *codexAdapter) IsAvailable(ctx context.Context) bool {
	path, err := exec.LookPath(a.cliPath)
	if err != nil {
		return false
	}
	cmd := exec.CommandContext(ctx, path, "--version")
	return cmd.Run() == nil
}

func (a *codexAdapter) BuildArgs(opts CallOptions) []string {
	args := []string{"exec", "--json", "--skip-git-repo-check"}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.Effort != "" {
		args = append(args, "--config", "model_reasoning_effort="+core.NormalizeEffortForAgent(core.AgentCodex, opts.Model, opts.Effort))
	}
	return args
}

func (a *codexAdapter) ComposeStdin(opts CallOptions) []byte {
	payload := opts.UserPrompt
	if opts.SystemPrompt != "" {
		payload = opts.SystemPrompt + "\n\n" + opts.UserPrompt
	}
	return []byte(payload)
}

// extractCodexText tries each known shape in turn, oldest-compatible
// first, and returns the first one present on the line.
func extractCodexText(raw map[string]any) (string, bool) {
	// Shape 1 (oldest): {"msg": {"type": "agent_message", "message": "..."}}
	if msg, ok := raw["msg"].(map[string]any); ok {
		if text, ok := msg["message"].(string); ok && text != "" {
			return text, true
		}
	}
	// Shape 2: {"item": {"type": "agent_message", "text": "..."}}
	if item, ok := raw["item"].(map[string]any); ok {
		if text, ok := item["text"].(string); ok && text != "" {
			return text, true
		}
	}
	// Shape 3 (newest): {"type": "item.completed", "item": {"content": [{"text": "..."}]}}
	if item, ok := raw["item"].(map[string]any); ok {
		if content, ok := item["content"].([]any); ok {
			var parts []string
			for _, c := range content {
				if cm, ok := c.(map[string]any); ok {
					if text, ok := cm["text"].(string); ok {
						parts = append(parts, text)
					}
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ""), true
			}
		}
	}
	return "", false
}

func extractCodexUsage(raw map[string]any) (model string, input, cached, output int, ok bool) {
	usageHolder, found := raw["msg"].(map[string]any)
	if !found {
		usageHolder, found = raw["info"].(map[string]any)
	}
	if !found {
		return "", 0, 0, 0, false
	}
	if m, ok := usageHolder["model"].(string); ok {
		model = m
	}
	usage, found := usageHolder["usage"].(map[string]any)
	if !found {
		return model, 0, 0, 0, model != ""
	}
	if v, ok := usage["input_tokens"].(float64); ok {
		input = int(v)
	}
	if v, ok := usage["cached_input_tokens"].(float64); ok {
		cached = int(v)
	}
	if v, ok := usage["output_tokens"].(float64); ok {
		output = int(v)
	}
	return model, input, cached, output, true
}

func (a *codexAdapter) ParseResponse(stdout []byte, wall time.Duration, exitCode int) (Response, error) {
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var fragments []string
	var model string
	var inputTokens, cachedTokens, outputTokens int
	sawLine := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}
		sawLine = true
		if text, ok := extractCodexText(raw); ok {
			fragments = append(fragments, text)
		}
		if m, in, cr, out, ok := extractCodexUsage(raw); ok {
			if m != "" {
				model = m
			}
			if in > 0 {
				inputTokens, cachedTokens, outputTokens = in, cr, out
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, core.ErrParse("codex: JSONL scan failed").WithCause(err)
	}
	if !sawLine {
		return Response{}, core.ErrParse("codex: no parseable JSONL records in output")
	}
	if len(fragments) == 0 {
		return Response{}, core.ErrParse("codex: no known message shape matched any output record")
	}

	return Response{
		Text:         dedupFragments(fragments),
		Model:        model,
		InputTokens:  NormalizeInputTokens(inputTokens, cachedTokens),
		OutputTokens: outputTokens,
		RawExitCode:  exitCode,
	}, nil
}

func (a *codexAdapter) InstallInstructions() string {
	return "install the Codex CLI: npm install -g @openai/codex"
}

var _ Adapter = (*codexAdapter)(nil)
