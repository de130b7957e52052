// Package trace records canopy's eleven lifecycle event kinds as one
// NDJSON line per event, serialized through a single background
// goroutine so concurrent workers never interleave partial writes
// (spec.md §4.8). Narrowed and generalized from the teacher's
// internal/service/trace.go fileTraceWriter/noopTraceWriter pair, whose
// workflow/consensus-specific TraceEvent shape this package replaces
// with exactly core.TraceEventKind's eleven kinds.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/renameio/v2"

	"github.com/canopy-docs/canopy/internal/core"
	"github.com/canopy-docs/canopy/internal/logging"
)

// Summary reports end-of-run trace totals.
type Summary struct {
	RunID       string
	TotalEvents int64
	Path        string
}

// Writer is the contract internal/aicall and internal/pipeline record
// lifecycle events through.
type Writer interface {
	Enabled() bool
	Record(core.TraceEvent)
	Close() (Summary, error)
}

// noopWriter is the default: tracing is opt-in per spec.md §4.8.
type noopWriter struct{}

// NewNoop returns a Writer that discards every event.
func NewNoop() Writer { return noopWriter{} }

func (noopWriter) Enabled() bool           { return false }
func (noopWriter) Record(core.TraceEvent)  {}
func (noopWriter) Close() (Summary, error) { return Summary{}, nil }

type recordMsg struct {
	event core.TraceEvent
}

// fileWriter appends one NDJSON line per Record call, from a single
// background goroutine reading an unbounded channel — the "single writer
// goroutine" design spec.md's Design Notes call out as equivalent to a
// promise chain.
type fileWriter struct {
	runID     string
	path      string
	startedAt time.Time
	logger    *logging.Logger

	seq   atomic.Int64
	total atomic.Int64

	ch   chan recordMsg
	done chan struct{}
	file *os.File
	enc  *json.Encoder
}

// NewFile creates an NDJSON trace writer rooted at dir, writing to
// dir/trace-<safeRunID>.ndjson.
func NewFile(dir, runID string, logger *logging.Logger) (Writer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	safe := sanitizeRunID(runID)
	if safe == "" {
		safe = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.ErrSpawn("creating trace directory").WithCause(err)
	}

	path := filepath.Join(dir, fmt.Sprintf("trace-%s.ndjson", safe))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, core.ErrSpawn("opening trace file").WithCause(err)
	}

	w := &fileWriter{
		runID:     safe,
		path:      path,
		startedAt: time.Now(),
		logger:    logger,
		ch:        make(chan recordMsg, 256),
		done:      make(chan struct{}),
		file:      f,
		enc:       json.NewEncoder(f),
	}
	go w.run()
	return w, nil
}

func (w *fileWriter) Enabled() bool { return true }

func (w *fileWriter) Record(ev core.TraceEvent) {
	ev.Seq = w.seq.Add(1) - 1
	ev.Timestamp = time.Now()
	ev.ElapsedMs = time.Since(w.startedAt).Milliseconds()
	ev.Pid = os.Getpid()
	w.ch <- recordMsg{event: ev}
}

func (w *fileWriter) run() {
	defer close(w.done)
	for msg := range w.ch {
		if err := w.enc.Encode(msg.event); err != nil {
			w.logger.Warn("trace write failed", "error", err)
			continue
		}
		w.total.Add(1)
	}
}

func (w *fileWriter) Close() (Summary, error) {
	close(w.ch)
	<-w.done
	if err := w.file.Close(); err != nil {
		return Summary{}, core.ErrSpawn("closing trace file").WithCause(err)
	}
	return Summary{RunID: w.runID, TotalEvents: w.total.Load(), Path: w.path}, nil
}

var _ Writer = (*fileWriter)(nil)

func sanitizeRunID(input string) string {
	var b strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// WriteManifest persists a small run manifest alongside the NDJSON trace,
// atomically, so a reader can learn the run's start time without
// scanning the whole event stream.
func WriteManifest(dir, runID string, startedAt time.Time) error {
	manifest := struct {
		RunID     string    `json:"run_id"`
		StartedAt time.Time `json:"started_at"`
	}{RunID: runID, StartedAt: startedAt}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(filepath.Join(dir, "trace-"+sanitizeRunID(runID)+".manifest.json"), data, 0o644)
}
