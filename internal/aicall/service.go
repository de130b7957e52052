// Package aicall wraps the backend adapter, subprocess supervisor, and
// retry controller behind one call, emitting telemetry and trace events
// for every invocation (spec.md §4.4). It never talks to an LLM API
// directly — every call goes out as a CLI subprocess via
// internal/supervisor.
package aicall

import (
	"context"
	"time"

	"github.com/canopy-docs/canopy/internal/adapters"
	"github.com/canopy-docs/canopy/internal/core"
	"github.com/canopy-docs/canopy/internal/logging"
	"github.com/canopy-docs/canopy/internal/retry"
	"github.com/canopy-docs/canopy/internal/supervisor"
	"github.com/canopy-docs/canopy/internal/telemetry"
	"github.com/canopy-docs/canopy/internal/trace"
)

// Options is the contract between the pipeline driver and one AI call.
type Options struct {
	TaskID       core.TaskID
	Phase        core.TaskKind
	Agent        string // backend name, or "" for registry.AutoDetect
	SystemPrompt string
	UserPrompt   string
	Model        string
	Effort       string
	WorkDir      string
	Timeout      time.Duration
}

// Result is what the pipeline driver does with a completed call.
type Result struct {
	Text         string
	Model        string
	Agent        string
	InputTokens  int
	OutputTokens int
	WallClock    time.Duration
	RetryCount   int
}

// Service implements the 9-step pipeline: resolve backend, check
// availability, build invocation, submit through the retry controller
// (which itself calls the supervisor), classify the outcome, parse the
// response, record telemetry, emit trace events, and return. Structurally
// ported from the call sequencing in the teacher's
// internal/service/workflow/executor.go (resolve agent -> build
// invocation -> supervise -> classify -> parse -> record -> trace).
type Service struct {
	Adapters   *adapters.Registry
	Supervisor *supervisor.Supervisor
	Retry      retry.Policy
	Telemetry  *telemetry.Recorder
	Trace      trace.Writer
	Logger     *logging.Logger
}

// New constructs a Service. A nil logger or trace writer falls back to
// safe no-ops.
func New(reg *adapters.Registry, sup *supervisor.Supervisor, policy retry.Policy, rec *telemetry.Recorder, tw trace.Writer, logger *logging.Logger) *Service {
	if tw == nil {
		tw = trace.NewNoop()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{Adapters: reg, Supervisor: sup, Retry: policy, Telemetry: rec, Trace: tw, Logger: logger}
}

// Call runs the full pipeline for one task's AI call.
func (s *Service) Call(ctx context.Context, opts Options) (Result, error) {
	// Step 1: resolve the backend adapter.
	adapter, err := s.resolveAdapter(ctx, opts.Agent)
	if err != nil {
		s.recordFailure(opts, err, 0, 0)
		return Result{}, err
	}

	// Step 2: availability check surfaces CLI_NOT_FOUND before any spawn.
	if !adapter.IsAvailable(ctx) {
		err := core.ErrCLINotFound(adapter.Name(), adapter.InstallInstructions())
		s.recordFailure(opts, err, 0, 0)
		return Result{}, err
	}

	callOpts := adapters.CallOptions{
		SystemPrompt: opts.SystemPrompt,
		UserPrompt:   opts.UserPrompt,
		Model:        opts.Model,
		Effort:       opts.Effort,
		WorkDir:      opts.WorkDir,
		Timeout:      opts.Timeout,
	}

	var (
		resp       adapters.Response
		wall       time.Duration
		retryCount int
	)

	s.Trace.Record(core.NewTraceEvent(core.TraceTaskStarted, opts.TaskID).WithAgent(adapter.Name()))

	// Steps 3-6: build args/stdin, submit via supervisor, classify, retry
	// on RATE_LIMIT only.
	execErr := s.Retry.ExecuteWithNotify(ctx, func(ctx context.Context) error {
		args := adapter.BuildArgs(callOpts)
		stdin := adapter.ComposeStdin(callOpts)

		invokeStart := time.Now()
		invokeResult, invokeErr := s.Supervisor.Invoke(ctx, supervisor.InvokeRequest{
			Command: adapter.CLICommand(),
			Args:    args,
			Stdin:   stdin,
			Dir:     opts.WorkDir,
			Env:     supervisor.ManagedEnv(adapter.Name(), 0),
			Timeout: opts.Timeout,
		})
		wall = time.Since(invokeStart)

		if invokeErr != nil {
			if retry.DetectRateLimit(string(invokeResult.Stderr)) {
				return core.ErrRateLimit("backend reported a rate limit").WithCause(invokeErr)
			}
			return invokeErr
		}

		parsed, parseErr := adapter.ParseResponse(invokeResult.Stdout, wall, invokeResult.ExitCode)
		if parseErr != nil {
			return parseErr
		}
		resp = parsed
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		retryCount = attempt
		s.Trace.Record(core.NewTraceEvent(core.TraceTaskRetried, opts.TaskID).
			WithAgent(adapter.Name()).
			WithData(map[string]any{"attempt": attempt, "delay_ms": delay.Milliseconds(), "error": err.Error()}))
	})

	if execErr != nil {
		s.Trace.Record(core.NewTraceEvent(core.TraceTaskFailed, opts.TaskID).WithAgent(adapter.Name()))
		s.recordFailure(opts, execErr, retryCount, wall)
		return Result{}, execErr
	}

	s.Trace.Record(core.NewTraceEvent(core.TraceTaskCompleted, opts.TaskID).
		WithAgent(adapter.Name()).
		WithData(map[string]any{"input_tokens": resp.InputTokens, "output_tokens": resp.OutputTokens}))

	if s.Telemetry != nil {
		s.Telemetry.Append(core.TelemetryEntry{
			Timestamp:    time.Now(),
			TaskID:       opts.TaskID,
			Agent:        adapter.Name(),
			Model:        resp.Model,
			ResponseText: resp.Text,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			WallClockMs:  wall.Milliseconds(),
			ExitCode:     resp.RawExitCode,
			RetryCount:   retryCount,
		})
	}

	return Result{
		Text:         resp.Text,
		Model:        resp.Model,
		Agent:        adapter.Name(),
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		WallClock:    wall,
		RetryCount:   retryCount,
	}, nil
}

// AmendLastEntry appends the paths a call's backend read mid-call (e.g.
// via its own file-reading tool calls) to the most recent telemetry
// entry, guarded by the recorder's own write-chain mutex.
func (s *Service) AmendLastEntry(filesRead []string) {
	if s.Telemetry == nil || len(filesRead) == 0 {
		return
	}
	s.Telemetry.AmendLast(func(e *core.TelemetryEntry) {
		e.FilesRead = append(e.FilesRead, filesRead...)
	})
}

func (s *Service) resolveAdapter(ctx context.Context, agent string) (adapters.Adapter, error) {
	if agent == "" {
		return s.Adapters.AutoDetect(ctx)
	}
	return s.Adapters.Get(agent)
}

func (s *Service) recordFailure(opts Options, err error, retryCount int, wall time.Duration) {
	if s.Telemetry == nil {
		return
	}
	domainErr, _ := err.(*core.DomainError)
	entry := core.TelemetryEntry{
		Timestamp:   time.Now(),
		TaskID:      opts.TaskID,
		Agent:       opts.Agent,
		WallClockMs: wall.Milliseconds(),
		RetryCount:  retryCount,
		ErrorMessage: err.Error(),
	}
	if domainErr != nil {
		entry.ErrorKind = domainErr.Code
	} else {
		entry.ErrorKind = "UNKNOWN"
	}
	s.Telemetry.Append(entry)
}
