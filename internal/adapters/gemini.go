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

// geminiAdapter drives the Gemini CLI, which streams a sequence of NDJSON
// events on stdout rather than a single terminal object (spec.md §4.2
// "NDJSON event stream" strategy).
type geminiAdapter struct {
	cliPath string
}

// NewGemini constructs the Gemini CLI adapter.
func NewGemini(cliPath string) Adapter {
	if cliPath == "" {
		cliPath = "gemini"
	}
	return &geminiAdapter{cliPath: cliPath}
}

func (a *geminiAdapter) Name() string       { return "gemini" }
func (a *geminiAdapter) CLICommand() string { return a.cliPath }

func (a *geminiAdapter) IsAvailable(ctx context.Context) bool {
	path, err := exec.LookPath(a.cliPath)
	if err != nil {
		return false
	}
	cmd := exec.CommandContext(ctx, path, "--version")
	return cmd.Run() == nil
}

func (a *geminiAdapter) BuildArgs(opts CallOptions) []string {
	args := []string{"--output-format", "stream-json"}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	return args
}

func (a *geminiAdapter) ComposeStdin(opts CallOptions) []byte {
	payload := opts.UserPrompt
	if opts.SystemPrompt != "" {
		payload = opts.SystemPrompt + "\n\n" + opts.UserPrompt
	}
	return []byte(payload)
}

// geminiEvent is the union of event shapes this adapter understands. Only
// a subset of fields is populated for any given event "type".
type geminiEvent struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CachedContentTokens  int `json:"cachedContentTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *geminiAdapter) ParseResponse(stdout []byte, wall time.Duration, exitCode int) (Response, error) {
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var fragments []string
	var model string
	var inputTokens, cachedTokens, outputTokens int
	sawEvent := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev geminiEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			// One malformed line in an otherwise good stream is tolerated;
			// the rest of the stream carries the content.
			continue
		}
		sawEvent = true
		switch ev.Type {
		case "content", "text", "assistant":
			if ev.Text != "" {
				fragments = append(fragments, ev.Text)
			}
		case "error":
			return Response{}, core.ErrSubprocess("gemini reported an in-band error: " + ev.Error.Message)
		}
		if ev.Model != "" {
			model = ev.Model
		}
		if ev.Usage.PromptTokenCount > 0 {
			inputTokens = ev.Usage.PromptTokenCount
			cachedTokens = ev.Usage.CachedContentTokens
			outputTokens = ev.Usage.CandidatesTokenCount
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, core.ErrParse("gemini: NDJSON stream scan failed").WithCause(err)
	}
	if !sawEvent {
		return Response{}, core.ErrParse("gemini: no parseable NDJSON events in output")
	}

	return Response{
		Text:         dedupFragments(fragments),
		Model:        model,
		InputTokens:  NormalizeInputTokens(inputTokens, cachedTokens),
		OutputTokens: outputTokens,
		RawExitCode:  exitCode,
	}, nil
}

func (a *geminiAdapter) InstallInstructions() string {
	return "install the Gemini CLI: npm install -g @google/gemini-cli"
}

var _ Adapter = (*geminiAdapter)(nil)
