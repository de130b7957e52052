// Package pipeline drives an ExecutionPlan through canopy's three
// ordered phases: parallel file analysis, post-order directory
// aggregation, and sequential root synthesis (spec.md §4.6). Phases
// never overlap; within a phase, task completion order is never
// promised to callers.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/canopy-docs/canopy/internal/aicall"
	"github.com/canopy-docs/canopy/internal/artifact"
	"github.com/canopy-docs/canopy/internal/changes"
	"github.com/canopy-docs/canopy/internal/core"
	"github.com/canopy-docs/canopy/internal/logging"
	"github.com/canopy-docs/canopy/internal/worker"
)

// DirectorySynthesizer produces a directory or root overview body from
// its children's artifacts. The default implementation lives in
// internal/promptgen and drives it through internal/aicall; a
// rule-based alternative can be swapped in without touching the driver
// (spec.md's Open Question on AI-driven vs rule-based synthesis,
// resolved by making this pluggable).
type DirectorySynthesizer interface {
	Synthesize(ctx context.Context, task *core.Task, childArtifacts []core.Artifact) (string, error)
}

// TaskResult is what one worker produces for one file task.
type TaskResult struct {
	TaskID core.TaskID
	Text   string
	Model  string
}

// RunOptions configures one Run invocation.
type RunOptions struct {
	Concurrency     int
	SkipRootIfEmpty bool
	OnComplete      func(worker.Result[TaskResult])

	// OnDirectoryComplete and OnRootComplete report phase-2/phase-3 task
	// settlement one task at a time, mirroring OnComplete's role for the
	// file phase. Both phases run sequentially, so these are called
	// synchronously from within Run and may safely drive single-writer
	// progress reporting.
	OnDirectoryComplete func(err error)
	OnRootComplete      func(err error)

	// OnTaskStart fires right before a task enters its phase's work, with
	// the phase kind and task ID. diagnostics.CrashDumpWriter.SetCurrentContext
	// is the intended consumer: whichever task was in flight is visible in
	// a crash dump taken mid-run.
	OnTaskStart func(phase core.TaskKind, taskID core.TaskID)
}

// RunSummary reports what happened across all three phases.
type RunSummary struct {
	FilesProcessed int
	FilesFailed    int
	DirsProcessed  int
	RootsProcessed int
}

// Driver executes an ExecutionPlan. ai drives file-task AI calls directly
// (system/user prompts are already embedded in each core.Task by the
// caller, per spec.md's "external caller supplies ... a prepared prompt
// pair"); synth drives directory/root aggregation.
type Driver struct {
	AI     *aicall.Service
	Synth  DirectorySynthesizer
	Logger *logging.Logger
}

// New constructs a Driver.
func New(ai *aicall.Service, synth DirectorySynthesizer, logger *logging.Logger) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Driver{AI: ai, Synth: synth, Logger: logger}
}

// taskPrompt is embedded in core.Task metadata by the caller (cmd/canopy
// or a test) to carry the prepared system/user prompt pair and model
// options spec.md's Flow says the external caller supplies.
type TaskPrompt struct {
	SystemPrompt string
	UserPrompt   string
	Agent        string
	Model        string
	Effort       string
	Timeout      time.Duration
}

// Prompts maps every task ID in the plan to its prepared prompt pair.
type Prompts map[core.TaskID]TaskPrompt

// Run executes all three phases of plan in order.
func (d *Driver) Run(ctx context.Context, plan *core.ExecutionPlan, prompts Prompts, opts RunOptions) (RunSummary, error) {
	var summary RunSummary

	fileSummary, err := d.runFilePhase(ctx, plan, prompts, opts)
	if err != nil {
		return summary, err
	}
	summary.FilesProcessed = fileSummary.processed
	summary.FilesFailed = fileSummary.failed

	dirCount, err := d.runDirectoryPhase(ctx, plan, prompts, opts)
	if err != nil {
		return summary, err
	}
	summary.DirsProcessed = dirCount

	if opts.SkipRootIfEmpty && dirCount == 0 && summary.FilesProcessed == 0 {
		return summary, nil
	}

	rootCount, err := d.runRootPhase(ctx, plan, prompts, opts)
	if err != nil {
		return summary, err
	}
	summary.RootsProcessed = rootCount

	return summary, nil
}

type filePhaseSummary struct {
	processed int
	failed    int
}

// runFilePhase submits every file task to the worker pool under the
// configured concurrency (spec.md §4.6 Phase 1).
func (d *Driver) runFilePhase(ctx context.Context, plan *core.ExecutionPlan, prompts Prompts, opts RunOptions) (filePhaseSummary, error) {
	tasks := plan.ByKind(core.KindFile)
	if len(tasks) == 0 {
		return filePhaseSummary{}, nil
	}

	ids := make([]string, len(tasks))
	byPath := make(map[string]*core.Task, len(tasks))
	for i, t := range tasks {
		ids[i] = string(t.ID)
		byPath[string(t.ID)] = t
	}

	pool := worker.NewPool[TaskResult](opts.Concurrency)
	results := pool.Process(ctx, ids, func(ctx context.Context, id string) (TaskResult, error) {
		task := byPath[id]
		prompt := prompts[task.ID]

		if opts.OnTaskStart != nil {
			opts.OnTaskStart(core.KindFile, task.ID)
		}

		resp, err := d.AI.Call(ctx, aicall.Options{
			TaskID:       task.ID,
			Phase:        core.KindFile,
			Agent:        prompt.Agent,
			SystemPrompt: prompt.SystemPrompt,
			UserPrompt:   prompt.UserPrompt,
			Model:        prompt.Model,
			Effort:       prompt.Effort,
			Timeout:      prompt.Timeout,
		})
		if err != nil {
			return TaskResult{}, err
		}

		hash, hashErr := hashSource(task.Path)
		if hashErr != nil {
			return TaskResult{}, hashErr
		}

		artifactPath := changes.ArtifactPath(task.Path)
		writeErr := artifact.Write(artifactPath, core.Artifact{
			Kind:        core.KindFile,
			SourcePath:  task.Path,
			OutputPath:  artifactPath,
			Body:        resp.Text,
			ContentHash: hash,
			GeneratedAt: time.Now(),
			ModelUsed:   resp.Model,
		})
		if writeErr != nil {
			return TaskResult{}, writeErr
		}

		return TaskResult{TaskID: task.ID, Text: resp.Text, Model: resp.Model}, nil
	}, func(index int, value TaskResult, err error) {
		task := tasks[index]
		_ = task.MarkRunning()
		if err != nil {
			_ = task.MarkFailed(err)
		} else {
			_ = task.MarkCompleted()
		}
		if opts.OnComplete != nil {
			opts.OnComplete(worker.Result[TaskResult]{Index: index, Value: value, Err: err})
		}
	})

	var summary filePhaseSummary
	for _, r := range results {
		if r.Err != nil {
			summary.failed++
		} else {
			summary.processed++
		}
	}
	return summary, nil
}

// runDirectoryPhase processes directory tasks strictly deepest-first,
// sequentially within each depth (spec.md §4.6 Phase 2).
func (d *Driver) runDirectoryPhase(ctx context.Context, plan *core.ExecutionPlan, prompts Prompts, opts RunOptions) (int, error) {
	tasks := plan.ByKind(core.KindDirectory)
	if len(tasks) == 0 {
		return 0, nil
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return directoryDepth(tasks[i].Path) > directoryDepth(tasks[j].Path)
	})

	processed := 0
	for _, task := range tasks {
		childFiles := childSourceFiles(plan, task)
		if !directoryReady(childFiles) {
			task.MarkSkipped("directory not ready: missing child artifacts")
			if opts.OnDirectoryComplete != nil {
				opts.OnDirectoryComplete(nil)
			}
			continue
		}

		childArtifacts, err := loadChildArtifacts(childFiles)
		if err != nil {
			return processed, err
		}
		childArtifacts = append(childArtifacts, loadChildDirectoryOverviews(task, tasks)...)

		overviewPath := filepath.Join(task.Path, "OVERVIEW.md")
		preserved, err := preserveUserOverview(overviewPath)
		if err != nil {
			return processed, err
		}

		if opts.OnTaskStart != nil {
			opts.OnTaskStart(core.KindDirectory, task.ID)
		}
		_ = task.MarkRunning()
		body, err := d.Synth.Synthesize(ctx, task, childArtifacts)
		if err != nil {
			_ = task.MarkFailed(err)
			if opts.OnDirectoryComplete != nil {
				opts.OnDirectoryComplete(err)
			}
			continue
		}
		if preserved != "" {
			body = preserved + "\n\n" + body
		}

		if err := artifact.WriteOverview(overviewPath, body); err != nil {
			return processed, err
		}

		_ = task.MarkCompleted(core.Artifact{
			Kind:       core.KindDirectory,
			SourcePath: task.Path,
			OutputPath: overviewPath,
			Body:       body,
			HasMarker:  true,
		})
		processed++
		if opts.OnDirectoryComplete != nil {
			opts.OnDirectoryComplete(nil)
		}
	}
	return processed, nil
}

// runRootPhase runs root tasks one at a time; concurrency here is always
// 1 because root prompts synthesize every directory overview at once
// (spec.md §4.6 Phase 3).
func (d *Driver) runRootPhase(ctx context.Context, plan *core.ExecutionPlan, prompts Prompts, opts RunOptions) (int, error) {
	tasks := plan.ByKind(core.KindRoot)
	rootChildren := loadTopLevelDirectoryOverviews(plan)
	processed := 0
	for _, task := range tasks {
		if opts.OnTaskStart != nil {
			opts.OnTaskStart(core.KindRoot, task.ID)
		}
		_ = task.MarkRunning()
		body, err := d.Synth.Synthesize(ctx, task, rootChildren)
		if err != nil {
			_ = task.MarkFailed(err)
			if opts.OnRootComplete != nil {
				opts.OnRootComplete(err)
			}
			continue
		}
		if err := artifact.WriteOverview(task.Path, body); err != nil {
			return processed, err
		}
		_ = task.MarkCompleted(core.Artifact{Kind: core.KindRoot, SourcePath: task.Path, OutputPath: task.Path, Body: body, HasMarker: true})
		processed++
		if opts.OnRootComplete != nil {
			opts.OnRootComplete(nil)
		}
	}
	return processed, nil
}

func childSourceFiles(plan *core.ExecutionPlan, dirTask *core.Task) []string {
	var out []string
	for _, t := range plan.ByKind(core.KindFile) {
		if filepath.Dir(t.Path) == dirTask.Path {
			out = append(out, t.Path)
		}
	}
	return out
}

func loadChildArtifacts(sourceFiles []string) ([]core.Artifact, error) {
	out := make([]core.Artifact, 0, len(sourceFiles))
	for _, f := range sourceFiles {
		path := changes.ArtifactPath(f)
		raw, err := os.ReadFile(path)
		if err != nil {
			continue // file task failed; no artifact, skip it per readiness probing rules
		}
		a, err := artifact.Read(path, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// loadChildDirectoryOverviews reads the already-generated OVERVIEW.md of
// every directory task one level below dirTask (deepest-first ordering
// guarantees they ran first). A missing overview means that child
// directory failed or was skipped; it is silently omitted, same as a
// missing file artifact in loadChildArtifacts.
func loadChildDirectoryOverviews(dirTask *core.Task, allDirTasks []*core.Task) []core.Artifact {
	var out []core.Artifact
	for _, t := range allDirTasks {
		if t.Path == dirTask.Path || filepath.Dir(t.Path) != dirTask.Path {
			continue
		}
		overviewPath := filepath.Join(t.Path, "OVERVIEW.md")
		raw, err := os.ReadFile(overviewPath)
		if err != nil {
			continue
		}
		out = append(out, core.Artifact{
			Kind:       core.KindDirectory,
			SourcePath: t.Path,
			OutputPath: overviewPath,
			Body:       stripOverviewMarker(string(raw)),
		})
	}
	return out
}

// loadTopLevelDirectoryOverviews collects the overviews of every
// directory task with no parent directory task in the plan — the set
// root synthesis aggregates over (spec.md §4.6 Phase 3).
func loadTopLevelDirectoryOverviews(plan *core.ExecutionPlan) []core.Artifact {
	dirs := plan.ByKind(core.KindDirectory)
	byPath := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		byPath[d.Path] = true
	}

	var out []core.Artifact
	for _, t := range dirs {
		parent := filepath.Dir(t.Path)
		if parent != t.Path && byPath[parent] {
			continue
		}
		overviewPath := filepath.Join(t.Path, "OVERVIEW.md")
		raw, err := os.ReadFile(overviewPath)
		if err != nil {
			continue
		}
		out = append(out, core.Artifact{
			Kind:       core.KindDirectory,
			SourcePath: t.Path,
			OutputPath: overviewPath,
			Body:       stripOverviewMarker(string(raw)),
		})
	}
	return out
}

// stripOverviewMarker removes the leading generated-file marker line so
// a parent synthesis sees just the aggregated body.
func stripOverviewMarker(raw string) string {
	text := strings.TrimLeft(raw, "\n\r\t ")
	_, rest, found := strings.Cut(text, "\n")
	if !found {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(rest)
}

func hashSource(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", core.ErrSpawn("reading source file " + path).WithCause(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// DryRunReport is the deterministic, AI-free description of a plan.
type DryRunReport struct {
	Files       []string
	Directories []string
	Roots       []string
}

// DryRun prints the plan without invoking the AI, grounded on the
// teacher's internal/service/workflow/planner.go plan-printing helpers.
func DryRun(plan *core.ExecutionPlan) DryRunReport {
	report := DryRunReport{}
	for _, t := range plan.ByKind(core.KindFile) {
		report.Files = append(report.Files, t.Path)
	}
	dirs := plan.ByKind(core.KindDirectory)
	sort.SliceStable(dirs, func(i, j int) bool { return directoryDepth(dirs[i].Path) > directoryDepth(dirs[j].Path) })
	for _, t := range dirs {
		report.Directories = append(report.Directories, t.Path)
	}
	for _, t := range plan.ByKind(core.KindRoot) {
		report.Roots = append(report.Roots, t.Path)
	}
	return report
}

// String renders a DryRunReport as a human-readable plan listing.
func (r DryRunReport) String() string {
	out := fmt.Sprintf("files (%d):\n", len(r.Files))
	for _, f := range r.Files {
		out += "  " + f + "\n"
	}
	out += fmt.Sprintf("directories (%d, deepest-first):\n", len(r.Directories))
	for _, d := range r.Directories {
		out += "  " + d + "\n"
	}
	out += fmt.Sprintf("roots (%d):\n", len(r.Roots))
	for _, rt := range r.Roots {
		out += "  " + rt + "\n"
	}
	return out
}
