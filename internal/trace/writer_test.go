package trace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/canopy-docs/canopy/internal/core"
	"github.com/stretchr/testify/require"
)

func TestNoop_Disabled(t *testing.T) {
	w := NewNoop()
	require.False(t, w.Enabled())
	w.Record(core.NewTraceEvent(core.TraceRunStarted, ""))
	summary, err := w.Close()
	require.NoError(t, err)
	require.Zero(t, summary.TotalEvents)
}

func TestFileWriter_RecordsDenseSeq(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFile(dir, "run/../weird id", nil)
	require.NoError(t, err)
	require.True(t, w.Enabled())

	for i := 0; i < 5; i++ {
		w.Record(core.NewTraceEvent(core.TraceTaskStarted, core.TaskID("t1")))
	}
	summary, err := w.Close()
	require.NoError(t, err)
	require.EqualValues(t, 5, summary.TotalEvents)

	f, err := os.Open(summary.Path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	seen := 0
	for scanner.Scan() {
		var ev core.TraceEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		require.EqualValues(t, seen, ev.Seq)
		seen++
	}
	require.Equal(t, 5, seen)
}

func TestFileWriter_SanitizesRunIDForFilename(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFile(dir, "../../etc/passwd", nil)
	require.NoError(t, err)
	summary, err := w.Close()
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(summary.Path))
	require.NotContains(t, filepath.Base(summary.Path), "..")
}
