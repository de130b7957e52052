// Package telemetry records one TelemetryEntry per AI call and finalizes
// them into a RunLog on disk, mirroring internal/trace's single-writer
// discipline so concurrent workers never race on the same file
// (spec.md §4.8).
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/canopy-docs/canopy/internal/core"
)

// MaxRetainedRunLogs is how many run-<timestamp>.json files Finalize
// keeps before pruning the oldest.
const MaxRetainedRunLogs = 50

type appendMsg struct {
	entry core.TelemetryEntry
}

type amendMsg struct {
	mutate func(*core.TelemetryEntry)
	done   chan struct{}
}

// Recorder accumulates TelemetryEntries for one run behind a single
// background goroutine, then writes the finalized RunLog atomically.
type Recorder struct {
	runID     string
	startedAt time.Time

	mu  sync.Mutex // guards log directly; the channel below serializes writers
	log core.RunLog

	appendCh chan appendMsg
	amendCh  chan amendMsg
	done     chan struct{}
}

// New creates a Recorder for runID.
func New(runID string) *Recorder {
	r := &Recorder{
		runID:     runID,
		startedAt: time.Now(),
		log:       core.RunLog{RunID: runID, StartedAt: time.Now()},
		appendCh:  make(chan appendMsg, 256),
		amendCh:   make(chan amendMsg),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		select {
		case msg, ok := <-r.appendCh:
			if !ok {
				return
			}
			r.mu.Lock()
			r.log.Append(msg.entry)
			r.mu.Unlock()
		case msg := <-r.amendCh:
			r.mu.Lock()
			if n := len(r.log.Entries); n > 0 {
				msg.mutate(&r.log.Entries[n-1])
			}
			r.mu.Unlock()
			close(msg.done)
		}
	}
}

// Append queues one entry. Safe to call concurrently from worker
// goroutines; entries are serialized through the recorder's single
// writer goroutine.
func (r *Recorder) Append(e core.TelemetryEntry) {
	r.appendCh <- appendMsg{entry: e}
}

// AmendLast applies mutate to the most recently appended entry, used to
// attach a list of files the AI call read mid-call (spec.md §4.4
// AmendLastEntry). Blocks until applied, so callers observe a
// happens-before relationship with any Append issued afterward.
func (r *Recorder) AmendLast(mutate func(*core.TelemetryEntry)) {
	done := make(chan struct{})
	r.amendCh <- amendMsg{mutate: mutate, done: done}
	<-done
}

// Finalize stops accepting new entries, computes the aggregate summary,
// writes logs/run-<safeTimestamp>.json atomically, prunes old run logs
// beyond MaxRetainedRunLogs, and returns the summary.
func (r *Recorder) Finalize(logsDir string) (core.RunSummary, error) {
	close(r.appendCh)
	<-r.done

	r.mu.Lock()
	r.log.EndedAt = time.Now()
	r.log.Summary.UniqueFilesRead = r.log.UniqueFilesRead()
	for _, e := range r.log.Entries {
		switch {
		case e.ErrorKind != "":
			r.log.Summary.FilesFailed++
		default:
			r.log.Summary.FilesProcessed++
		}
	}
	runLog := r.log
	r.mu.Unlock()

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return core.RunSummary{}, core.ErrSpawn("creating logs directory").WithCause(err)
	}

	data, err := json.MarshalIndent(runLog, "", "  ")
	if err != nil {
		return core.RunSummary{}, core.ErrValidation("RUNLOG_ENCODE", "could not encode run log").WithCause(err)
	}

	safe := sanitizeTimestamp(runLog.EndedAt)
	path := filepath.Join(logsDir, fmt.Sprintf("run-%s.json", safe))
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return core.RunSummary{}, core.ErrSpawn("writing run log").WithCause(err)
	}

	if err := prune(logsDir, MaxRetainedRunLogs); err != nil {
		return runLog.Summary, err
	}

	return runLog.Summary, nil
}

func sanitizeTimestamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format("20060102T150405.000Z"), ".", "")
}

// prune keeps only the keep most recently modified run-*.json files in
// dir, deleting the rest.
func prune(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return core.ErrSpawn("listing logs directory").WithCause(err)
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}
	var runLogs []fileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "run-") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runLogs = append(runLogs, fileInfo{name: e.Name(), modTime: info.ModTime()})
	}
	if len(runLogs) <= keep {
		return nil
	}

	sort.Slice(runLogs, func(i, j int) bool { return runLogs[i].modTime.After(runLogs[j].modTime) })
	for _, f := range runLogs[keep:] {
		_ = os.Remove(filepath.Join(dir, f.name))
	}
	return nil
}
