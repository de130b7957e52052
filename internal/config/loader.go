package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v              *viper.Viper
	configFile     string
	envPrefix      string
	projectDir     string     // Resolved project root directory (set by Load)
	projectDirHint string     // Optional: override project root directory for path resolution
	resolvePaths   bool       // Whether to resolve relative paths to absolute on Load
	mu             sync.Mutex // Protects concurrent access to viper operations
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:            viper.New(),
		envPrefix:    "CANOPY",
		resolvePaths: true,
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:            v,
		envPrefix:    "CANOPY",
		resolvePaths: true,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithProjectDir provides a project root directory hint for resolving relative paths.
// This is required for scenarios where the config file is not located under the project
// root (e.g. a global config shared by many projects).
func (l *Loader) WithProjectDir(path string) *Loader {
	l.projectDirHint = path
	return l
}

// WithResolvePaths controls whether relative paths are resolved to absolute paths on Load().
// For API editing endpoints, you typically want resolvePaths=false to preserve relative values.
func (l *Loader) WithResolvePaths(resolve bool) *Loader {
	l.resolvePaths = resolve
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (CANOPY_*)
// 3. Project config (.canopy/config.yaml - new location)
// 4. Legacy project config (.canopy.yaml - for backwards compatibility)
// 5. User config (~/.config/canopy/config.yaml)
// 6. Defaults
func (l *Loader) Load() (*Config, error) {
	// Lock to prevent concurrent map writes in viper
	l.mu.Lock()
	defer l.mu.Unlock()

	// Set defaults first
	l.setDefaults()

	// Configure environment variable reading
	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// Config file setup
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		// Try new location first: .canopy/config.yaml
		newConfigPath := filepath.Join(".canopy", "config.yaml")
		if _, err := os.Stat(newConfigPath); err == nil {
			l.v.SetConfigFile(newConfigPath)
		} else {
			// Fall back to legacy location: .canopy.yaml
			l.v.SetConfigName(".canopy")
			l.v.SetConfigType("yaml")

			// Add search paths in precedence order (first found wins)
			// Project config takes precedence over user config
			l.v.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				l.v.AddConfigPath(filepath.Join(home, ".config", "canopy"))
			}
		}
	}

	// Read config file (ignore not found)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// ignore
		} else if errors.Is(err, os.ErrNotExist) {
			// Explicit config file path does not exist: treat as "no config file" and fall back to defaults.
		} else {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Normalize legacy keys from config file (e.g., maxretries -> max_retries)
	if configPath := l.v.ConfigFileUsed(); configPath != "" {
		// If we were given an explicit config file path that doesn't exist, viper may still
		// report it as "used". Skip normalization in that case.
		if _, err := os.Stat(configPath); err == nil {
			normalized, err := loadNormalizedConfigMap(configPath)
			if err != nil {
				return nil, fmt.Errorf("normalizing config: %w", err)
			}
			if len(normalized) > 0 {
				if err := l.v.MergeConfigMap(normalized); err != nil {
					return nil, fmt.Errorf("merging normalized config: %w", err)
				}
			}
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Resolve all relative paths to absolute paths
	// Use the project root (parent of .canopy/) as the base for relative paths
	projectDir := ""
	if configPath := l.v.ConfigFileUsed(); configPath != "" {
		absConfigPath, err := filepath.Abs(configPath)
		if err == nil {
			configDir := filepath.Dir(absConfigPath)
			// If config is in .canopy/ directory, use its parent as project root
			// e.g., /project/.canopy/config.yaml -> /project/
			if filepath.Base(configDir) == ".canopy" {
				projectDir = filepath.Dir(configDir)
			} else {
				// Legacy .canopy.yaml in project root
				projectDir = configDir
			}
		}
	}
	// If no config file found, fall back to current working directory
	if projectDir == "" {
		projectDir, _ = os.Getwd()
	}
	// Override project dir when caller provides a hint (e.g. global config shared by many projects).
	if strings.TrimSpace(l.projectDirHint) != "" {
		projectDir = l.projectDirHint
	}
	l.projectDir = projectDir
	if l.resolvePaths {
		l.resolveAbsolutePaths(&cfg, projectDir)
	}

	return &cfg, nil
}

// ProjectDir returns the resolved project root directory.
// This is the directory containing the .canopy/ config folder (or CWD as fallback).
// Available after Load() has been called.
func (l *Loader) ProjectDir() string {
	return l.projectDir
}

// resolveAbsolutePaths converts all relative paths in the config to absolute paths.
// Relative paths are resolved relative to baseDir (typically the config file's directory).
// This prevents issues when canopy is executed from different working directories.
func (l *Loader) resolveAbsolutePaths(cfg *Config, baseDir string) {
	if cfg.Trace.Dir != "" {
		cfg.Trace.Dir = resolvePathRelativeTo(cfg.Trace.Dir, baseDir)
	}
	if cfg.Telemetry.Dir != "" {
		cfg.Telemetry.Dir = resolvePathRelativeTo(cfg.Telemetry.Dir, baseDir)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = resolvePathRelativeTo(cfg.Log.File, baseDir)
	}
}

// resolvePathRelativeTo converts a relative path to an absolute path using baseDir as the base.
// If the path is already absolute, it is returned unchanged.
// Example: resolvePathRelativeTo(".canopy/traces", "/home/user/project")
//
//	→ "/home/user/project/.canopy/traces"
func resolvePathRelativeTo(path, baseDir string) string {
	// Check for absolute paths (including Unix-style paths on Windows)
	if filepath.IsAbs(path) {
		return path
	}
	// On Windows, filepath.IsAbs("/unix/path") returns false
	// But such paths should be treated as absolute
	if len(path) > 0 && (path[0] == '/' || path[0] == '\\') {
		return path
	}
	return filepath.Join(baseDir, path)
}

func loadNormalizedConfigMap(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	normalizeLegacyConfigMap(raw)
	return raw, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	// Log defaults
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	// Trace defaults
	l.v.SetDefault("trace.enabled", false)
	l.v.SetDefault("trace.dir", ".canopy/traces")
	l.v.SetDefault("trace.max_files", 500)

	// Telemetry defaults
	l.v.SetDefault("telemetry.dir", ".canopy/logs")
	l.v.SetDefault("telemetry.retain_runs", 50)
	l.v.SetDefault("telemetry.history_database", true)

	// Execution defaults
	l.v.SetDefault("execution.concurrency", 0)
	l.v.SetDefault("execution.timeout", "5m")
	l.v.SetDefault("execution.max_retries", 5)
	l.v.SetDefault("execution.skip_root_if_empty", true)

	// Agent defaults
	l.v.SetDefault("agents.default", "claude")
	l.v.SetDefault("agents.claude.enabled", true)
	l.v.SetDefault("agents.claude.path", "claude")
	l.v.SetDefault("agents.claude.model", "")
	l.v.SetDefault("agents.claude.effort", "high")
	l.v.SetDefault("agents.gemini.enabled", true)
	l.v.SetDefault("agents.gemini.path", "gemini")
	l.v.SetDefault("agents.gemini.model", "")
	l.v.SetDefault("agents.codex.enabled", true)
	l.v.SetDefault("agents.codex.path", "codex")
	l.v.SetDefault("agents.codex.model", "")
	l.v.SetDefault("agents.codex.effort", "high")
	l.v.SetDefault("agents.copilot.enabled", false)
	l.v.SetDefault("agents.copilot.path", "copilot")
	l.v.SetDefault("agents.copilot.model", "")
	l.v.SetDefault("agents.opencode.enabled", false)
	l.v.SetDefault("agents.opencode.path", "opencode")
	l.v.SetDefault("agents.opencode.model", "")

	// Discovery defaults
	l.v.SetDefault("discovery.include", []string{})
	l.v.SetDefault("discovery.exclude", []string{"**/.git/**", "**/node_modules/**", "**/vendor/**"})
	l.v.SetDefault("discovery.respect_gitignore", true)
	l.v.SetDefault("discovery.max_file_bytes", 1048576)

	// Changes defaults
	l.v.SetDefault("changes.rename_similarity", 0.85)

	// Synthesis defaults
	l.v.SetDefault("synthesis.mode", "ai")

	// Progress defaults
	l.v.SetDefault("progress.enabled", true)
	l.v.SetDefault("progress.eta_window", 10)

	// Diagnostics defaults
	l.v.SetDefault("diagnostics.min_free_memory_mb", 256)

	// Server defaults
	l.v.SetDefault("server.enabled", false)
	l.v.SetDefault("server.addr", "127.0.0.1:4505")

	// Watch defaults
	l.v.SetDefault("watch.debounce_millis", 500)
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	if l.configFile != "" {
		return l.configFile
	}
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// Validate checks configuration consistency and returns an error if invalid.
// This provides fail-fast validation for agent references before any
// subprocess is spawned.
func Validate(cfg *Config) error {
	if cfg.Agents.Default == "" {
		return fmt.Errorf("agents.default is required")
	}
	defaultAgent := cfg.Agents.GetAgentConfig(cfg.Agents.Default)
	if defaultAgent == nil {
		return fmt.Errorf("agents.default references unknown agent %q", cfg.Agents.Default)
	}
	if !defaultAgent.Enabled {
		return fmt.Errorf("agents.default references disabled agent %q", cfg.Agents.Default)
	}

	if cfg.Changes.RenameSimilarity < 0 || cfg.Changes.RenameSimilarity > 1 {
		return fmt.Errorf("changes.rename_similarity must be between 0 and 1, got %v", cfg.Changes.RenameSimilarity)
	}

	switch cfg.Synthesis.Mode {
	case "", "ai", "rulebased":
	default:
		return fmt.Errorf("synthesis.mode must be %q or %q, got %q", "ai", "rulebased", cfg.Synthesis.Mode)
	}

	if cfg.Execution.Concurrency < 0 {
		return fmt.Errorf("execution.concurrency must be >= 0, got %d", cfg.Execution.Concurrency)
	}

	return nil
}
