package promptgen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canopy-docs/canopy/internal/core"
)

func TestForFile_IncludesPathAndContent(t *testing.T) {
	system, user := ForFile("internal/foo/foo.go", "package foo")
	require.NotEmpty(t, system)
	require.Contains(t, user, "internal/foo/foo.go")
	require.Contains(t, user, "package foo")
}

func TestForDirectory_ListsChildArtifacts(t *testing.T) {
	children := []core.Artifact{
		{SourcePath: "internal/foo/foo.go", Body: "Foo does a thing."},
		{SourcePath: "internal/foo/bar.go", Body: "Bar does another thing."},
	}
	system, user := ForDirectory("internal/foo", children)
	require.NotEmpty(t, system)
	require.Contains(t, user, "internal/foo/foo.go")
	require.Contains(t, user, "Bar does another thing.")
}

func TestForDirectory_EmptyChildrenStillProducesPrompt(t *testing.T) {
	_, user := ForDirectory("internal/empty", nil)
	require.Contains(t, user, "no child artifacts")
}

func TestForRoot_ListsAllDirectoryOverviews(t *testing.T) {
	children := []core.Artifact{
		{SourcePath: "internal/foo", Body: "Foo subsystem."},
		{SourcePath: "cmd/canopy", Body: "CLI entrypoint."},
	}
	_, user := ForRoot(children)
	require.Contains(t, user, "internal/foo")
	require.Contains(t, user, "CLI entrypoint.")
}
