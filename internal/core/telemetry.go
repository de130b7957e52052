package core

import "time"

// TelemetryEntry records one AI backend call. Append-only: once written
// to a RunLog it is never mutated (spec.md §3.1).
type TelemetryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	TaskID         TaskID    `json:"task_id"`
	Agent          string    `json:"agent"`
	Model          string    `json:"model"`
	InputDescriptor string   `json:"input_descriptor"` // redacted summary of what was sent, never the raw prompt
	ResponseText   string    `json:"response_text"`
	InputTokens    int       `json:"input_tokens"`
	OutputTokens   int       `json:"output_tokens"`
	CacheReadTokens int      `json:"cache_read_tokens"`
	CacheCreationTokens int  `json:"cache_creation_tokens"`
	WallClockMs    int64     `json:"wall_clock_ms"`
	ExitCode       int       `json:"exit_code"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	RetryCount     int       `json:"retry_count"`
	FilesRead      []string  `json:"files_read,omitempty"`
}

// RunSummary aggregates one RunLog's entries.
type RunSummary struct {
	FilesProcessed     int   `json:"files_processed"`
	FilesFailed        int   `json:"files_failed"`
	FilesSkipped       int   `json:"files_skipped"`
	TotalCalls         int   `json:"total_calls"`
	TotalInputTokens   int   `json:"total_input_tokens"`
	TotalOutputTokens  int   `json:"total_output_tokens"`
	TotalRetries       int   `json:"total_retries"`
	UniqueFilesRead    int   `json:"unique_files_read"`
	WallClockMs        int64 `json:"wall_clock_ms"`
}

// RunLog wraps every TelemetryEntry produced by one invocation plus its
// aggregate RunSummary.
type RunLog struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at"`
	Entries   []TelemetryEntry `json:"entries"`
	Summary   RunSummary       `json:"summary"`
}

// Append adds an entry and folds it into the running summary.
func (r *RunLog) Append(e TelemetryEntry) {
	r.Entries = append(r.Entries, e)
	r.Summary.TotalCalls++
	r.Summary.TotalInputTokens += e.InputTokens
	r.Summary.TotalOutputTokens += e.OutputTokens
	r.Summary.TotalRetries += e.RetryCount
	r.Summary.WallClockMs += e.WallClockMs
}

// UniqueFilesRead computes how many distinct file paths were read across
// every entry's FilesRead list, for the final summary.
func (r *RunLog) UniqueFilesRead() int {
	seen := make(map[string]bool)
	for _, e := range r.Entries {
		for _, f := range e.FilesRead {
			seen[f] = true
		}
	}
	return len(seen)
}
