package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/canopy-docs/canopy/internal/changes"
	"github.com/canopy-docs/canopy/internal/config"
	"github.com/canopy-docs/canopy/internal/core"
	"github.com/canopy-docs/canopy/internal/discovery"
	"github.com/canopy-docs/canopy/internal/fsutil"
	"github.com/canopy-docs/canopy/internal/pipeline"
	"github.com/canopy-docs/canopy/internal/promptgen"
)

// rootOverviewFileName is where the root synthesis phase writes the
// project-level orientation document. The root task's ID is always "."
// (core.NewTask's documented convention); its Path is this filename.
const rootOverviewFileName = "PROJECT_OVERVIEW.md"

// buildPlan discovers source files under root, optionally narrows them to
// incremental changes, and assembles an ExecutionPlan plus the prompt
// pairs cmd/canopy is responsible for preparing (spec.md's "external
// caller supplies a prepared prompt pair", SPEC_FULL.md §3.13). No
// dedicated planner package exists in the spec; this assembly intentionally
// lives alongside the command tree that consumes it.
func buildPlan(runID, root string, cfg *config.Config, incremental bool, onlyPattern string) (*core.ExecutionPlan, pipeline.Prompts, error) {
	discovered, err := discovery.Walk(root, cfg.Discovery)
	if err != nil {
		return nil, nil, err
	}
	if onlyPattern != "" {
		discovered = discovery.FilterByPattern(discovered, onlyPattern)
	}

	var runFiles, dirPaths []string
	if incremental {
		tracked, err := listTrackedSources(root)
		if err != nil {
			return nil, nil, err
		}
		detector := changes.NewDetector(root)
		classified, err := detector.Classify(discovered, tracked)
		if err != nil {
			return nil, nil, err
		}
		if err := changes.Cleanup(classified.Changes); err != nil {
			return nil, nil, err
		}
		for _, c := range classified.Changes {
			if c.Classification == changes.Added || c.Classification == changes.Modified {
				runFiles = append(runFiles, c.Path)
			}
		}
		dirPaths = classified.AffectedDirectories
	} else {
		runFiles = discovered
		dirPaths = allDirectories(discovered)
	}
	sort.Strings(runFiles)
	sort.Strings(dirPaths)

	agentCfg := cfg.Agents.GetAgentConfig(cfg.Agents.Default)
	var model, effort string
	if agentCfg != nil {
		model, effort = agentCfg.Model, agentCfg.Effort
	}
	timeout, err := parseDurationDefault(cfg.Execution.Timeout, 5*time.Minute)
	if err != nil {
		return nil, nil, err
	}

	tasks := make([]*core.Task, 0, len(runFiles)+len(dirPaths)+1)
	prompts := make(pipeline.Prompts, len(runFiles))

	fileIDsByDir := make(map[string][]core.TaskID)
	for _, f := range runFiles {
		content, err := fsutil.ReadFileScoped(filepath.Join(root, f))
		if err != nil {
			return nil, nil, err
		}
		id := core.TaskID(f)
		tasks = append(tasks, core.NewTask(id, f, core.KindFile))

		sys, user := promptgen.ForFile(f, string(content))
		prompts[id] = pipeline.TaskPrompt{
			SystemPrompt: sys,
			UserPrompt:   user,
			Agent:        cfg.Agents.Default,
			Model:        model,
			Effort:       effort,
			Timeout:      timeout,
		}

		dir := filepath.Dir(f)
		fileIDsByDir[dir] = append(fileIDsByDir[dir], id)
	}

	dirIDByPath := make(map[string]core.TaskID, len(dirPaths))
	for _, d := range dirPaths {
		dirIDByPath[d] = core.TaskID(d)
	}

	// Deepest-first so a shallower directory's dependency list can
	// reference child directory tasks already constructed.
	sortedDirs := append([]string(nil), dirPaths...)
	sort.Slice(sortedDirs, func(i, j int) bool {
		return strings.Count(sortedDirs[i], string(filepath.Separator)) >
			strings.Count(sortedDirs[j], string(filepath.Separator))
	})

	for _, d := range sortedDirs {
		deps := append([]core.TaskID(nil), fileIDsByDir[d]...)
		for _, other := range dirPaths {
			if other != d && filepath.Dir(other) == d {
				deps = append(deps, dirIDByPath[other])
			}
		}
		tasks = append(tasks, core.NewTask(dirIDByPath[d], d, core.KindDirectory).WithDependencies(deps...))
	}

	if len(dirPaths) > 0 || len(runFiles) > 0 {
		var rootDeps []core.TaskID
		for _, d := range dirPaths {
			parent := filepath.Dir(d)
			if _, hasParentDir := dirIDByPath[parent]; !hasParentDir || parent == d {
				rootDeps = append(rootDeps, dirIDByPath[d])
			}
		}
		tasks = append(tasks, core.NewTask(core.TaskID("."), rootOverviewFileName, core.KindRoot).WithDependencies(rootDeps...))
	}

	plan, err := core.NewExecutionPlan(runID, tasks)
	if err != nil {
		return nil, nil, err
	}
	return plan, prompts, nil
}

// allDirectories returns the unique set of directories containing at
// least one discovered file, for a full (non-incremental) run.
func allDirectories(files []string) []string {
	set := make(map[string]bool)
	for _, f := range files {
		set[filepath.Dir(f)] = true
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	return out
}

// listTrackedSources finds every source file with an existing ".sum"
// artifact on disk, the "previously tracked" input to changes.Classify.
func listTrackedSources(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".sum") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		out = append(out, strings.TrimSuffix(rel, ".sum"))
		return nil
	})
	return out, err
}
