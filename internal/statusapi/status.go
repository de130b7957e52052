// Package statusapi exposes a run's progress as a polling JSON endpoint
// (`canopy serve --status`), fed by the same progress.Reporter
// completion stream the terminal line output uses (spec.md §4.9,
// SPEC_FULL.md §3.14). It never duplicates the TUI: no SSE, no
// websocket, one endpoint.
package statusapi

import (
	"sync"
	"time"
)

// Status is the JSON shape served at /status.
type Status struct {
	Phase       string  `json:"phase"`
	Completed   int     `json:"completed"`
	Total       int     `json:"total"`
	Failed      int     `json:"failed"`
	ETASeconds  float64 `json:"eta_seconds,omitempty"`
	LastError   string  `json:"last_error,omitempty"`
	Done        bool    `json:"done"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store holds the current run status and is safe for concurrent use: one
// goroutine updates it from progress.Reporter's completion stream while
// HTTP handler goroutines read snapshots.
type Store struct {
	mu      sync.RWMutex
	status  Status
}

// NewStore creates an empty Store with StartedAt set to now.
func NewStore() *Store {
	return &Store{status: Status{StartedAt: time.Now()}}
}

// SetPhase records which of the three phases is currently running. The
// caller (cmd/canopy) invokes this once per phase transition; it is not
// derivable from progress.Reporter's completion stream alone.
func (s *Store) SetPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Phase = phase
	s.status.UpdatedAt = time.Now()
}

// Update matches progress.Subscriber's signature — register it via
// reporter.Subscribe(store.Update) to keep /status in sync with the
// terminal output with no duplicated completion-tracking logic.
func (s *Store) Update(completed, total int, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Completed = completed
	s.status.Total = total
	if lastErr != nil {
		s.status.Failed++
		s.status.LastError = lastErr.Error()
	}
	s.status.UpdatedAt = time.Now()
}

// SetETA records the reporter's current ETA estimate, in seconds.
func (s *Store) SetETA(eta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.ETASeconds = eta.Seconds()
}

// MarkDone records that the run has finished (all phases complete).
func (s *Store) MarkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Done = true
	s.status.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the current status.
func (s *Store) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
