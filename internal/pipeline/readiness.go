package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/canopy-docs/canopy/internal/changes"
)

// directoryDepth counts path separators in a relative path, used to sort
// directory tasks deepest-first (spec.md §4.6 Phase 2).
func directoryDepth(relPath string) int {
	if relPath == "." || relPath == "" {
		return 0
	}
	return strings.Count(filepath.ToSlash(relPath), "/") + 1
}

// directoryReady probes the filesystem directly for every child file's
// artifact — never in-memory task-result bookkeeping, since file tasks
// may have failed and left no artifact behind (spec.md §4.6 Phase 2
// readiness predicate).
func directoryReady(childSourceFiles []string) bool {
	for _, f := range childSourceFiles {
		if _, err := os.Stat(changes.ArtifactPath(f)); err != nil {
			return false
		}
	}
	return true
}
