package telemetry

import (
	"database/sql"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/canopy-docs/canopy/internal/core"
)

// HistoryIndex mirrors finalized run summaries into a queryable SQLite
// database for the `canopy history` subcommand. It is a derived read
// index only — canopy's own change-detection never consults it, per
// spec.md §1.3's "no persistence between invocations beyond the content
// hash" non-goal.
type HistoryIndex struct {
	db *sql.DB
}

// OpenHistoryIndex opens (creating if absent) logs/history.db under
// logsDir.
func OpenHistoryIndex(logsDir string) (*HistoryIndex, error) {
	path := filepath.Join(logsDir, "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.ErrSpawn("opening history index").WithCause(err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	ended_at TEXT NOT NULL,
	files_processed INTEGER NOT NULL,
	files_failed INTEGER NOT NULL,
	files_skipped INTEGER NOT NULL,
	total_calls INTEGER NOT NULL,
	total_input_tokens INTEGER NOT NULL,
	total_output_tokens INTEGER NOT NULL,
	total_retries INTEGER NOT NULL,
	wall_clock_ms INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, core.ErrSpawn("creating history schema").WithCause(err)
	}
	return &HistoryIndex{db: db}, nil
}

// Record upserts one finalized run's summary.
func (h *HistoryIndex) Record(runID string, startedAt, endedAt time.Time, s core.RunSummary) error {
	const stmt = `
INSERT INTO runs (run_id, started_at, ended_at, files_processed, files_failed, files_skipped,
	total_calls, total_input_tokens, total_output_tokens, total_retries, wall_clock_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
	ended_at=excluded.ended_at,
	files_processed=excluded.files_processed,
	files_failed=excluded.files_failed,
	files_skipped=excluded.files_skipped,
	total_calls=excluded.total_calls,
	total_input_tokens=excluded.total_input_tokens,
	total_output_tokens=excluded.total_output_tokens,
	total_retries=excluded.total_retries,
	wall_clock_ms=excluded.wall_clock_ms;`
	_, err := h.db.Exec(stmt, runID, startedAt.UTC().Format(time.RFC3339), endedAt.UTC().Format(time.RFC3339),
		s.FilesProcessed, s.FilesFailed, s.FilesSkipped, s.TotalCalls, s.TotalInputTokens,
		s.TotalOutputTokens, s.TotalRetries, s.WallClockMs)
	if err != nil {
		return core.ErrSpawn("recording run history").WithCause(err)
	}
	return nil
}

// RunRecord is one row from the history index.
type RunRecord struct {
	RunID          string
	StartedAt      time.Time
	EndedAt        time.Time
	FilesProcessed int
	FilesFailed    int
	TotalCalls     int
	TotalTokens    int
}

// Recent returns up to limit most recent runs, newest first.
func (h *HistoryIndex) Recent(limit int) ([]RunRecord, error) {
	rows, err := h.db.Query(`
SELECT run_id, started_at, ended_at, files_processed, files_failed, total_calls,
	total_input_tokens + total_output_tokens AS total_tokens
FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, core.ErrSpawn("querying run history").WithCause(err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.RunID, &startedAt, &endedAt, &rec.FilesProcessed, &rec.FilesFailed, &rec.TotalCalls, &rec.TotalTokens); err != nil {
			return nil, core.ErrSpawn("scanning run history row").WithCause(err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		rec.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (h *HistoryIndex) Close() error {
	return h.db.Close()
}
