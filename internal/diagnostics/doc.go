// Package diagnostics provides system resource introspection for canopy:
// sizing the worker pool from available cores/memory, detecting low-memory
// conditions mid-run, and the static hardware/backend report behind
// `canopy doctor`.
//
// The package implements three main components:
//
//   - SystemMetricsCollector: samples CPU/memory/disk utilization and
//     resolves the default worker pool concurrency.
//
//   - ResourceMonitor: periodically tracks goroutines, file descriptors, and
//     memory usage during a run, producing HealthWarnings on concerning trends.
//
//   - CrashDumpWriter: captures and persists diagnostic information when a
//     pipeline run panics, enabling post-mortem debugging.
//
// Configuration is managed through config.DiagnosticsConfig.
package diagnostics
