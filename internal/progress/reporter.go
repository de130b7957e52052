// Package progress reports pipeline run progress to the terminal (and
// optionally a log file), and feeds the same completion stream to any
// other subscriber — internal/statusapi's JSON endpoint in particular
// (spec.md §4.9).
package progress

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/canopy-docs/canopy/internal/pipeline"
	"github.com/canopy-docs/canopy/internal/worker"
)

// ansiPattern strips ANSI color escapes for sinks that don't render them
// (a log file, a piped terminal).
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Total describes the work one Reporter is tracking.
type Total struct {
	Files       int
	Directories int
	Roots       int
}

func (t Total) sum() int { return t.Files + t.Directories + t.Roots }

// Subscriber is notified once per completed task, in addition to the
// Reporter's own terminal/log output. internal/statusapi registers one
// to serve /status without re-implementing completion tracking.
type Subscriber func(completed, total int, lastErr error)

// Reporter tracks completions across all three phases and renders one
// line per event. It is safe for concurrent use by pipeline.Driver's
// worker pool callbacks.
type Reporter struct {
	mu         sync.Mutex
	out        io.Writer
	logFile    io.Writer
	tty        bool
	etaWindow  int
	total      Total
	completed  int
	failed     int
	durations  []time.Duration
	started    time.Time
	lastEvent  time.Time
	subscribers []Subscriber
}

// New constructs a Reporter writing to out (typically os.Stdout) with an
// optional logFile sink (ANSI stripped) and an ETA moving-average window
// (config.ProgressConfig.ETAWindow; 0 falls back to 10).
func New(out io.Writer, logFile io.Writer, etaWindow int) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	if etaWindow <= 0 {
		etaWindow = 10
	}
	now := time.Now()
	return &Reporter{
		out:       out,
		logFile:   logFile,
		tty:       isTerminal(out),
		etaWindow: etaWindow,
		started:   now,
		lastEvent: now,
	}
}

// SetTotal records how many tasks each phase is expected to process.
// Call once the plan is known, before the first OnComplete.
func (r *Reporter) SetTotal(t Total) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = t
}

// Subscribe registers a callback invoked after every OnComplete, in
// addition to the reporter's own line output.
func (r *Reporter) Subscribe(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, s)
}

// OnComplete is pipeline.RunOptions.OnComplete: wire it in directly as
// the file-phase worker pool's completion callback. The observed
// duration sample is the wall-clock gap since the previous completion
// (under concurrency this approximates per-task cost rather than
// measuring it exactly, since worker.Pool does not hand back a
// dispatch timestamp).
func (r *Reporter) OnComplete(res worker.Result[pipeline.TaskResult]) {
	r.record(res.Err)
}

// OnDirectoryOrRootComplete records one directory/root-phase completion.
// The driver's runDirectoryPhase/runRootPhase run sequentially, so each
// call here does correspond to one task's wall-clock cost.
func (r *Reporter) OnDirectoryOrRootComplete(err error) {
	r.record(err)
}

func (r *Reporter) record(err error) {
	r.mu.Lock()
	now := time.Now()
	dur := now.Sub(r.lastEvent)
	r.lastEvent = now

	r.completed++
	if err != nil {
		r.failed++
	}
	r.durations = append(r.durations, dur)
	if len(r.durations) > r.etaWindow {
		r.durations = r.durations[len(r.durations)-r.etaWindow:]
	}

	line := r.renderLocked(err)
	completed, total := r.completed, r.total.sum()
	subs := append([]Subscriber(nil), r.subscribers...)
	r.mu.Unlock()

	r.writeLine(line)
	for _, s := range subs {
		s(completed, total, err)
	}
}

// renderLocked must be called with r.mu held.
func (r *Reporter) renderLocked(taskErr error) string {
	total := r.total.sum()
	status := "ok"
	if taskErr != nil {
		status = "failed"
	}
	line := fmt.Sprintf("[%d/%d] %s", r.completed, total, status)
	if eta, ok := r.etaLocked(); ok {
		line += fmt.Sprintf(" eta=%s", eta.Round(time.Second))
	}
	return line
}

// etaLocked estimates remaining time from the moving average of observed
// durations. Requires at least 2 samples (spec.md §4.9's "displayed once
// >=2 observed").
func (r *Reporter) etaLocked() (time.Duration, bool) {
	if len(r.durations) < 2 {
		return 0, false
	}
	var sum time.Duration
	for _, d := range r.durations {
		sum += d
	}
	avg := sum / time.Duration(len(r.durations))
	remaining := r.total.sum() - r.completed
	if remaining < 0 {
		remaining = 0
	}
	return avg * time.Duration(remaining), true
}

// writeLine emits one atomic write to the terminal sink and, if
// configured, a second ANSI-stripped write to the log file sink. Each
// sink gets exactly one os.Stdout.Write-equivalent call per line; the
// line is never split across two writes.
func (r *Reporter) writeLine(line string) {
	_, _ = io.WriteString(r.out, line+"\n")
	if r.logFile != nil {
		_, _ = io.WriteString(r.logFile, ansiPattern.ReplaceAllString(line, "")+"\n")
	}
}

// IsTTY reports whether the reporter's primary sink is a terminal.
func (r *Reporter) IsTTY() bool { return r.tty }

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
