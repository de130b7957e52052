package core

import "time"

// TraceEventKind enumerates the eleven trace event kinds of spec.md §3.1 —
// the full lifecycle of one task's AI call, from invocation to settlement.
type TraceEventKind string

const (
	TraceRunStarted       TraceEventKind = "run_started"
	TraceRunEnded         TraceEventKind = "run_ended"
	TracePhaseStarted     TraceEventKind = "phase_started"
	TracePhaseEnded       TraceEventKind = "phase_ended"
	TraceTaskStarted      TraceEventKind = "task_started"
	TraceTaskSpawned      TraceEventKind = "task_spawned"
	TraceTaskRetried      TraceEventKind = "task_retried"
	TraceTaskCompleted    TraceEventKind = "task_completed"
	TraceTaskFailed       TraceEventKind = "task_failed"
	TraceTaskSkipped      TraceEventKind = "task_skipped"
	TraceArtifactWritten  TraceEventKind = "artifact_written"
)

// TraceEvent is one entry in the NDJSON trace stream (spec.md §4.8). Seq is
// assigned by the trace writer under its own lock and is always dense and
// zero-based per run, never left to the emitting goroutine to compute.
type TraceEvent struct {
	Seq       int64          `json:"seq"`
	Kind      TraceEventKind `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	ElapsedMs int64          `json:"elapsed_ms"`
	Pid       int            `json:"pid"`
	TaskID    TaskID         `json:"task_id,omitempty"`
	Phase     TaskKind       `json:"phase,omitempty"`
	Agent     string         `json:"agent,omitempty"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewTraceEvent creates a trace event stamped with the current time. Seq
// and ElapsedMs are filled in by the trace writer, not the caller.
func NewTraceEvent(kind TraceEventKind, taskID TaskID) TraceEvent {
	return TraceEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		TaskID:    taskID,
	}
}

// WithData attaches structured payload to the event.
func (e TraceEvent) WithData(data map[string]any) TraceEvent {
	e.Data = data
	return e
}

// WithAgent records which backend CLI produced the event.
func (e TraceEvent) WithAgent(agent string) TraceEvent {
	e.Agent = agent
	return e
}
