package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AppendAndFinalize(t *testing.T) {
	dir := t.TempDir()
	r := New("run-1")

	r.Append(core.TelemetryEntry{TaskID: "t1", InputTokens: 100, OutputTokens: 10})
	r.Append(core.TelemetryEntry{TaskID: "t2", InputTokens: 50, OutputTokens: 5, ErrorKind: "TIMEOUT"})

	summary, err := r.Finalize(dir)
	require.NoError(t, err)
	require.Equal(t, 1, summary.FilesProcessed)
	require.Equal(t, 1, summary.FilesFailed)
	require.Equal(t, 2, summary.TotalCalls)
	require.Equal(t, 150, summary.TotalInputTokens)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Name(), "run-")
}

func TestRecorder_AmendLast(t *testing.T) {
	r := New("run-2")
	r.Append(core.TelemetryEntry{TaskID: "t1"})
	r.AmendLast(func(e *core.TelemetryEntry) {
		e.FilesRead = []string{"a.go", "b.go"}
	})
	summary, err := r.Finalize(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 1, summary.UniqueFilesRead)
}

func TestPrune_KeepsMostRecent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 55; i++ {
		path := filepath.Join(dir, "run-"+time.Now().Add(time.Duration(i)*time.Second).Format("20060102T150405")+".json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}
	require.NoError(t, prune(dir, MaxRetainedRunLogs))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.LessOrEqual(t, len(entries), MaxRetainedRunLogs)
}

func TestHistoryIndex_RecordAndRecent(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenHistoryIndex(dir)
	require.NoError(t, err)
	defer idx.Close()

	now := time.Now()
	require.NoError(t, idx.Record("run-1", now, now.Add(time.Minute), core.RunSummary{
		FilesProcessed: 3, TotalCalls: 4, TotalInputTokens: 100, TotalOutputTokens: 20,
	}))

	recs, err := idx.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "run-1", recs[0].RunID)
	require.Equal(t, 120, recs[0].TotalTokens)
}
