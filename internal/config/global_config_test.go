package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserConfigPathInDir(t *testing.T) {
	got := userConfigPathInDir("/home/dev")
	require.Equal(t, filepath.Join("/home/dev", ".config", "canopy", "config.yaml"), got)
}

func TestEnsureUserConfigFileInDir_CreatesFile(t *testing.T) {
	home := t.TempDir()

	path, err := ensureUserConfigFileInDir(home)
	require.NoError(t, err)
	require.FileExists(t, path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigYAML, string(contents))
}

func TestEnsureUserConfigFileInDir_IdempotentOnExistingFile(t *testing.T) {
	home := t.TempDir()
	path := userConfigPathInDir(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	got, err := ensureUserConfigFileInDir(home)
	require.NoError(t, err)
	require.Equal(t, path, got)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "log:\n  level: debug\n", string(contents))
}
