package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canopy-docs/canopy/internal/config"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestWalk_ExcludesConfiguredPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":                  "package main",
		"vendor/lib/lib.go":        "package lib",
		".git/HEAD":                "ref: refs/heads/main",
		"node_modules/pkg/pkg.json": "{}",
	})

	cfg := config.DiscoveryConfig{
		Exclude: []string{"**/.git/**", "**/node_modules/**", "**/vendor/**"},
	}

	files, err := Walk(root, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"main.go"}, files)
}

func TestWalk_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":      "package main",
		"build/out.o":  "binary",
		".gitignore":   "build/\n",
	})

	cfg := config.DiscoveryConfig{RespectGitIgnore: true}
	files, err := Walk(root, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{".gitignore", "main.go"}, files)
}

func TestWalk_MaxFileBytesSkipsLargeFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.go": "package a",
		"big.go":   string(make([]byte, 100)),
	})

	cfg := config.DiscoveryConfig{MaxFileBytes: 50}
	files, err := Walk(root, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"small.go"}, files)
}

func TestWalk_IncludeNarrowsToPattern(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.go":   "package a",
		"a.md":   "# doc",
		"sub/b.go": "package b",
	})

	cfg := config.DiscoveryConfig{Include: []string{"**/*.go"}}
	files, err := Walk(root, cfg)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.go", "sub/b.go"}, files)
}

func TestFilterByPattern_RanksFuzzyMatches(t *testing.T) {
	files := []string{"internal/config/loader.go", "internal/pipeline/driver.go", "cmd/canopy/main.go"}
	got := FilterByPattern(files, "pipeline")
	require.Contains(t, got, "internal/pipeline/driver.go")
}

func TestFilterByPattern_EmptyPatternReturnsAll(t *testing.T) {
	files := []string{"a.go", "b.go"}
	require.Equal(t, files, FilterByPattern(files, ""))
}
