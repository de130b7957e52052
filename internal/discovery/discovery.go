package discovery

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/canopy-docs/canopy/internal/config"
)

// Walk returns every regular file under root that survives the discovery
// config's include/exclude rules and optional .gitignore, as paths
// relative to root. Directories themselves are not returned; callers
// derive directory tasks from the file list (pipeline.Driver does this
// via each file's parent chain).
func Walk(root string, cfg config.DiscoveryConfig) ([]string, error) {
	matcher := NewMatcher(cfg.Exclude)
	if cfg.RespectGitIgnore {
		if err := matcher.LoadGitignore(root); err != nil {
			return nil, err
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if matcher.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if cfg.MaxFileBytes > 0 {
			info, statErr := d.Info()
			if statErr == nil && info.Size() > cfg.MaxFileBytes {
				return nil
			}
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	files = filterIncludes(files, cfg.Include)
	sort.Strings(files)
	return files, nil
}

// filterIncludes narrows files to those matching at least one include
// pattern, when any are configured. Empty Include means "everything
// discovery's exclude rules didn't drop".
func filterIncludes(files []string, include []string) []string {
	if len(include) == 0 {
		return files
	}
	var kept []string
	for _, f := range files {
		for _, pattern := range include {
			m := NewMatcher([]string{pattern})
			if m.Match(f, false) {
				kept = append(kept, f)
				break
			}
		}
	}
	return kept
}

// FilterByPattern narrows files to those fuzzy-matching pattern, ranked
// by match score, for the `--only <pattern>` CLI flag. An empty pattern
// returns files unchanged.
func FilterByPattern(files []string, pattern string) []string {
	if pattern == "" {
		return files
	}
	matches := fuzzy.Find(pattern, files)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, files[m.Index])
	}
	return out
}
