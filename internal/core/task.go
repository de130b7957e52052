package core

import (
	"fmt"
	"sort"
	"time"
)

// TaskID uniquely identifies a task within an execution plan. For file and
// directory tasks this is the filesystem path relative to the project
// root; for the root task it is the fixed string "." (see NewTask).
type TaskID string

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// Task is a unit of documentation work: summarize one file, aggregate one
// directory, or synthesize the root orientation document.
type Task struct {
	ID           TaskID
	Kind         TaskKind
	Path         string // relative path of the file or directory
	Dependencies []TaskID
	Status       TaskStatus
	Outputs      []Artifact
	Retries      int
	MaxRetries   int
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Error        string
}

// NewTask creates a new pending task.
func NewTask(id TaskID, path string, kind TaskKind) *Task {
	return &Task{
		ID:         id,
		Kind:       kind,
		Path:       path,
		Status:     TaskStatusPending,
		MaxRetries: 3,
	}
}

// WithDependencies sets the task's dependency IDs.
func (t *Task) WithDependencies(deps ...TaskID) *Task {
	t.Dependencies = deps
	return t
}

// WithMaxRetries sets the maximum retry count.
func (t *Task) WithMaxRetries(maxRetries int) *Task {
	t.MaxRetries = maxRetries
	return t
}

// IsReady reports whether every dependency of t has settled (completed or
// skipped — a failed dependency blocks readiness, per the post-order
// readiness predicate of spec.md §4.6).
func (t *Task) IsReady(settled map[TaskID]bool) bool {
	if t.Status != TaskStatusPending {
		return false
	}
	for _, dep := range t.Dependencies {
		if !settled[dep] {
			return false
		}
	}
	return true
}

// MarkRunning transitions the task to running.
func (t *Task) MarkRunning() error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("cannot start task %q in %s state", t.ID, t.Status)
	}
	t.Status = TaskStatusRunning
	now := time.Now()
	t.StartedAt = &now
	return nil
}

// MarkCompleted transitions the task to completed.
func (t *Task) MarkCompleted(outputs ...Artifact) error {
	if t.Status != TaskStatusRunning {
		return fmt.Errorf("cannot complete task %q in %s state", t.ID, t.Status)
	}
	t.Status = TaskStatusCompleted
	t.Outputs = outputs
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// MarkFailed transitions the task to failed.
func (t *Task) MarkFailed(err error) error {
	if t.Status != TaskStatusRunning {
		return fmt.Errorf("cannot fail task %q in %s state", t.ID, t.Status)
	}
	t.Status = TaskStatusFailed
	t.Error = err.Error()
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// MarkSkipped transitions the task to skipped, e.g. because a dependency
// failed (spec.md §4.6 readiness predicate).
func (t *Task) MarkSkipped(reason string) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("cannot skip task %q in %s state", t.ID, t.Status)
	}
	t.Status = TaskStatusSkipped
	t.Error = reason
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// CanRetry reports whether the task failed and has retries remaining.
func (t *Task) CanRetry() bool {
	return t.Status == TaskStatusFailed && t.Retries < t.MaxRetries
}

// Reset prepares a failed task for another attempt.
func (t *Task) Reset() error {
	if !t.CanRetry() {
		return fmt.Errorf("cannot retry task %q: retries=%d, max=%d", t.ID, t.Retries, t.MaxRetries)
	}
	t.Retries++
	t.Status = TaskStatusPending
	t.Error = ""
	t.StartedAt = nil
	t.CompletedAt = nil
	return nil
}

// Validate checks task invariants, including the file < directory < root
// dependency ordering invariant (spec.md §3.1).
func (t *Task) Validate() error {
	if t.ID == "" {
		return &DomainError{Category: ErrCatValidation, Code: "TASK_ID_REQUIRED", Message: "task ID cannot be empty"}
	}
	if !ValidKind(t.Kind) {
		return &DomainError{Category: ErrCatValidation, Code: "INVALID_TASK_KIND", Message: fmt.Sprintf("invalid task kind: %s", t.Kind)}
	}
	return nil
}

// Duration returns the task's execution duration so far.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt)
}

// IsTerminal reports whether the task has settled.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed || t.Status == TaskStatusSkipped
}

// IsSuccess reports whether the task completed successfully.
func (t *Task) IsSuccess() bool {
	return t.Status == TaskStatusCompleted
}

// ExecutionPlan is the ordered, validated set of tasks a pipeline run
// executes. It is built once by an external collaborator (file discovery
// + prompt composition, spec.md §1.2) and handed to internal/pipeline.
type ExecutionPlan struct {
	RunID string
	Tasks map[TaskID]*Task
}

// NewExecutionPlan validates that every dependency named by a task is
// present in the plan (spec.md §3.1 ExecutionPlan invariant) before
// returning it.
func NewExecutionPlan(runID string, tasks []*Task) (*ExecutionPlan, error) {
	index := make(map[TaskID]*Task, len(tasks))
	for _, t := range tasks {
		index[t.ID] = t
	}
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := index[dep]; !ok {
				return nil, &DomainError{
					Category: ErrCatValidation,
					Code:     "DANGLING_DEPENDENCY",
					Message:  fmt.Sprintf("task %q depends on unknown task %q", t.ID, dep),
				}
			}
		}
	}
	return &ExecutionPlan{RunID: runID, Tasks: index}, nil
}

// ByKind returns the plan's tasks of a given kind, sorted by path for
// deterministic iteration order.
func (p *ExecutionPlan) ByKind(kind TaskKind) []*Task {
	var out []*Task
	for _, t := range p.Tasks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// IsEmpty reports whether the plan has no tasks at all.
func (p *ExecutionPlan) IsEmpty() bool {
	return len(p.Tasks) == 0
}
