// Package changes implements canopy's incremental change detection: the
// minimal set of file tasks that must re-run, computed entirely from
// content hashes embedded in artifacts on disk (spec.md §4.7). It needs
// no database or state file — relocating or re-cloning the tree never
// invalidates detection.
package changes

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/canopy-docs/canopy/internal/artifact"
	"github.com/canopy-docs/canopy/internal/core"
)

// Classification is the outcome of comparing one source file's current
// content hash against its artifact's stored hash.
type Classification string

const (
	Added     Classification = "added"
	Modified  Classification = "modified"
	Unchanged Classification = "unchanged"
	Deleted   Classification = "deleted"
)

// FileChange is one discovered or orphaned file's classification.
type FileChange struct {
	Path           string
	Classification Classification
	CurrentHash    string // empty for Deleted
}

// ClassifiedSet is the result of one Classify call.
type ClassifiedSet struct {
	Changes             []FileChange
	AffectedDirectories []string // ancestor directories of every non-unchanged change, root included
}

// ArtifactPath returns the ".sum" artifact path for a source file.
func ArtifactPath(sourcePath string) string {
	return sourcePath + ".sum"
}

// Detector classifies a project tree's files against their on-disk
// artifacts.
type Detector struct {
	Root          string
	RenameDetect  RenameDetector // optional; nil disables rename enrichment
}

// NewDetector creates a Detector rooted at root.
func NewDetector(root string) *Detector {
	return &Detector{Root: root}
}

// Classify implements spec.md §4.7's seven-step algorithm: read each
// discovered file's artifact if present, compare stored vs current
// content hash, classify added/modified/unchanged, then classify any
// artifact whose source no longer exists as deleted.
func (d *Detector) Classify(discovered []string, previouslyTracked []string) (ClassifiedSet, error) {
	var changesOut []FileChange
	discoveredSet := make(map[string]bool, len(discovered))

	for _, path := range discovered {
		discoveredSet[path] = true

		current, err := hashFile(path)
		if err != nil {
			return ClassifiedSet{}, core.ErrSpawn("hashing " + path).WithCause(err)
		}

		artPath := ArtifactPath(path)
		raw, readErr := os.ReadFile(artPath)
		if readErr != nil {
			changesOut = append(changesOut, FileChange{Path: path, Classification: Added, CurrentHash: current})
			continue
		}

		a, parseErr := artifact.Read(artPath, raw)
		if parseErr != nil || !a.HasValidHash() {
			changesOut = append(changesOut, FileChange{Path: path, Classification: Added, CurrentHash: current})
			continue
		}

		if a.ContentHash != current {
			changesOut = append(changesOut, FileChange{Path: path, Classification: Modified, CurrentHash: current})
			continue
		}

		changesOut = append(changesOut, FileChange{Path: path, Classification: Unchanged, CurrentHash: current})
	}

	for _, tracked := range previouslyTracked {
		if !discoveredSet[tracked] {
			changesOut = append(changesOut, FileChange{Path: tracked, Classification: Deleted})
		}
	}

	if d.RenameDetect != nil {
		changesOut = d.RenameDetect.Enrich(changesOut)
	}

	return ClassifiedSet{
		Changes:             changesOut,
		AffectedDirectories: affectedDirectories(d.Root, changesOut),
	}, nil
}

func hashFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// affectedDirectories computes the union of ancestor directories of every
// non-unchanged classification, up to and including root.
func affectedDirectories(root string, changesOut []FileChange) []string {
	set := make(map[string]bool)
	for _, c := range changesOut {
		if c.Classification == Unchanged {
			continue
		}
		dir := filepath.Dir(c.Path)
		for {
			rel, err := filepath.Rel(root, dir)
			if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
				break
			}
			set[dir] = true
			if dir == root || rel == "." {
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	out := make([]string, 0, len(set))
	for dir := range set {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// Cleanup removes orphaned artifacts for every Deleted classification and
// removes a directory's generated overview once it has no remaining
// artifacts, never touching an overview lacking the generated marker.
func Cleanup(changesOut []FileChange) error {
	touchedDirs := make(map[string]bool)
	for _, c := range changesOut {
		if c.Classification != Deleted {
			continue
		}
		artPath := ArtifactPath(c.Path)
		if err := os.Remove(artPath); err != nil && !os.IsNotExist(err) {
			return core.ErrSpawn("removing orphaned artifact " + artPath).WithCause(err)
		}
		touchedDirs[filepath.Dir(c.Path)] = true
	}

	for dir := range touchedDirs {
		remaining, err := hasRemainingArtifacts(dir)
		if err != nil {
			return err
		}
		if remaining {
			continue
		}
		if err := removeOverviewIfGenerated(dir); err != nil {
			return err
		}
	}
	return nil
}

func hasRemainingArtifacts(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, core.ErrSpawn("listing " + dir).WithCause(err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sum") {
			return true, nil
		}
	}
	return false, nil
}

func removeOverviewIfGenerated(dir string) error {
	overviewPath := filepath.Join(dir, overviewFileName)
	raw, err := os.ReadFile(overviewPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return core.ErrSpawn("reading overview " + overviewPath).WithCause(err)
	}
	if !artifact.IsGenerated(raw) {
		return nil
	}
	if err := os.Remove(overviewPath); err != nil && !os.IsNotExist(err) {
		return core.ErrSpawn("removing overview " + overviewPath).WithCause(err)
	}
	return nil
}

// overviewFileName is the conventional name of a directory's overview
// document.
const overviewFileName = "OVERVIEW.md"

// RenameDetector enriches a classified set by folding an added/deleted
// pair into a modified-at-new-path entry when a VCS or content similarity
// signal indicates a rename (spec.md §4.7 step 7, an optional
// enrichment — canopy's default is to skip this and classify renames as
// independent added+deleted pairs).
type RenameDetector interface {
	Enrich(changesOut []FileChange) []FileChange
}
