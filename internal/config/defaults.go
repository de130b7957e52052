package config

// DefaultConfigYAML contains the default configuration written by `canopy
// init` and used as the base layer of every Load(). Values not specified
// by a project/user file fall back to setDefaults() in loader.go; this
// YAML is the human-editable starting point, not the sole source of
// defaults.
const DefaultConfigYAML = `# canopy configuration
# Values not specified here use sensible defaults.

log:
  level: info
  format: auto

trace:
  enabled: false
  dir: .canopy/traces
  max_files: 500

telemetry:
  dir: .canopy/logs
  retain_runs: 50
  history_database: true

execution:
  concurrency: 0   # 0 = derive from cores/memory
  timeout: 5m
  max_retries: 5
  skip_root_if_empty: true

agents:
  default: claude

  claude:
    enabled: true
    path: claude
    model: ""
    effort: high

  gemini:
    enabled: true
    path: gemini
    model: ""

  codex:
    enabled: true
    path: codex
    model: ""
    effort: high

  copilot:
    enabled: false
    path: copilot
    model: ""

  opencode:
    enabled: false
    path: opencode
    model: ""

discovery:
  include: []
  exclude:
    - "**/.git/**"
    - "**/node_modules/**"
    - "**/vendor/**"
  respect_gitignore: true
  max_file_bytes: 1048576

changes:
  rename_similarity: 0.85

synthesis:
  mode: ai

progress:
  enabled: true
  eta_window: 10

diagnostics:
  min_free_memory_mb: 256

server:
  enabled: false
  addr: 127.0.0.1:4505

watch:
  debounce_millis: 500
`
