package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canopy-docs/canopy/internal/pipeline"
	"github.com/canopy-docs/canopy/internal/worker"
)

func TestReporter_OnComplete_WritesOneLinePerEvent(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil, 10)
	r.SetTotal(Total{Files: 2})

	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 0, Value: pipeline.TaskResult{}})
	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 1, Value: pipeline.TaskResult{}})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "[1/2]")
	require.Contains(t, lines[1], "[2/2]")
}

func TestReporter_OnComplete_MarksFailuresInLine(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil, 10)
	r.SetTotal(Total{Files: 1})

	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 0, Err: errors.New("boom")})

	require.Contains(t, out.String(), "failed")
}

func TestReporter_ETA_HiddenBeforeTwoSamples(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil, 10)
	r.SetTotal(Total{Files: 3})

	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 0})
	require.NotContains(t, out.String(), "eta=")
}

func TestReporter_ETA_ShownAfterTwoSamples(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil, 10)
	r.SetTotal(Total{Files: 3})

	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 0})
	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 1})
	require.Contains(t, out.String(), "eta=")
}

func TestReporter_LogFileSinkStripsANSI(t *testing.T) {
	var out, logFile bytes.Buffer
	r := New(&out, &logFile, 10)
	r.SetTotal(Total{Files: 1})

	r.writeLine("\x1b[32m[1/1] ok\x1b[0m")
	require.Contains(t, logFile.String(), "[1/1] ok")
	require.NotContains(t, logFile.String(), "\x1b[32m")
}

func TestReporter_SubscribersNotifiedOnEachCompletion(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil, 10)
	r.SetTotal(Total{Files: 2})

	var seen []int
	r.Subscribe(func(completed, total int, lastErr error) {
		seen = append(seen, completed)
	})

	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 0})
	r.OnComplete(worker.Result[pipeline.TaskResult]{Index: 1})

	require.Equal(t, []int{1, 2}, seen)
}

func TestReporter_DurationWindowCapsAtETAWindow(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, nil, 2)
	r.SetTotal(Total{Files: 5})

	for i := 0; i < 5; i++ {
		r.OnComplete(worker.Result[pipeline.TaskResult]{Index: i})
	}
	require.LessOrEqual(t, len(r.durations), 2)
}
