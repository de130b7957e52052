package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/canopy-docs/canopy/internal/artifact"
	"github.com/canopy-docs/canopy/internal/core"
)

// localSuffix is appended to a user-authored overview's name before it is
// folded into the top of freshly-generated content.
const localSuffix = ".local"

// preserveUserOverview implements spec.md §4.6's Phase-2 preservation
// rule: if overviewPath exists and does not begin with
// core.DirectoryOverviewMarker, it is user-authored. Rename it to
// <name>.local<ext> (if that file does not already exist) and return its
// contents so the caller can prepend them to the new overview body.
// Idempotent: if the .local file already exists and overviewPath is
// already marker-prefixed, no rename happens and nil is returned.
func preserveUserOverview(overviewPath string) (preserved string, err error) {
	raw, readErr := os.ReadFile(overviewPath)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", nil
		}
		return "", core.ErrSpawn("reading overview " + overviewPath).WithCause(readErr)
	}

	if artifact.IsGenerated(raw) {
		return "", nil
	}

	localPath := localVariant(overviewPath)
	if _, statErr := os.Stat(localPath); statErr == nil {
		existing, err := os.ReadFile(localPath)
		if err != nil {
			return "", core.ErrSpawn("reading preserved overview " + localPath).WithCause(err)
		}
		return string(existing), nil
	}

	if err := os.Rename(overviewPath, localPath); err != nil {
		return "", core.ErrSpawn("preserving user overview").WithCause(err)
	}
	return string(raw), nil
}

func localVariant(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + localSuffix + ext
}
