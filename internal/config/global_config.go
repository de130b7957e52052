package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// UserConfigPath returns the default user-level configuration path,
// shared across every canopy project on this machine
// (~/.config/canopy/config.yaml). Loader.Load adds this path as the
// lowest-priority file layer, below any project-local .canopy/config.yaml.
func UserConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return userConfigPathInDir(homeDir), nil
}

func userConfigPathInDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", "canopy", "config.yaml")
}

// EnsureUserConfigFile ensures the user-level configuration file exists on
// disk, creating it from DefaultConfigYAML if absent.
func EnsureUserConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return ensureUserConfigFileInDir(homeDir)
}

// ensureUserConfigFileInDir ensures the user config exists in a specific
// directory (exposed for testing, takes an injected home directory).
func ensureUserConfigFileInDir(homeDir string) (string, error) {
	path := userConfigPathInDir(homeDir)

	if _, statErr := os.Stat(path); statErr == nil {
		return path, nil
	} else if !os.IsNotExist(statErr) {
		return "", fmt.Errorf("checking user config: %w", statErr)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("creating user config directory: %w", err)
	}

	if err := AtomicWrite(path, []byte(DefaultConfigYAML)); err != nil {
		return "", fmt.Errorf("creating user config: %w", err)
	}

	return path, nil
}
