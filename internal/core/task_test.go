package core

import "testing"

func TestTask_StateTransitions(t *testing.T) {
	t.Parallel()
	task := NewTask("t1", "pkg/foo.go", KindFile)

	if err := task.MarkCompleted(); err == nil {
		t.Fatalf("expected error completing from pending")
	}

	if err := task.MarkRunning(); err != nil {
		t.Fatalf("unexpected error starting task: %v", err)
	}
	if task.Status != TaskStatusRunning {
		t.Fatalf("expected status running, got %s", task.Status)
	}
	if task.StartedAt == nil {
		t.Fatalf("expected StartedAt to be set")
	}

	if err := task.MarkRunning(); err == nil {
		t.Fatalf("expected error starting from running")
	}

	if err := task.MarkCompleted(); err != nil {
		t.Fatalf("unexpected error completing task: %v", err)
	}
	if task.Status != TaskStatusCompleted {
		t.Fatalf("expected status completed, got %s", task.Status)
	}
	if task.CompletedAt == nil {
		t.Fatalf("expected CompletedAt to be set")
	}
}

func TestTask_IsReady(t *testing.T) {
	t.Parallel()
	task := NewTask("dir/", "dir", KindDirectory).
		WithDependencies("dir/a.go", "dir/b.go")

	settled := map[TaskID]bool{"dir/a.go": true}
	if task.IsReady(settled) {
		t.Fatalf("expected task not ready with missing dependency")
	}

	settled["dir/b.go"] = true
	if !task.IsReady(settled) {
		t.Fatalf("expected task ready when all dependencies are settled")
	}

	task.Status = TaskStatusRunning
	if task.IsReady(settled) {
		t.Fatalf("expected task not ready when not pending")
	}
}

func TestTask_Retry(t *testing.T) {
	t.Parallel()
	task := NewTask("t1", "pkg/foo.go", KindFile)
	if err := task.MarkRunning(); err != nil {
		t.Fatalf("unexpected error starting task: %v", err)
	}
	if err := task.MarkFailed(errTest("boom")); err != nil {
		t.Fatalf("unexpected error failing task: %v", err)
	}

	if !task.CanRetry() {
		t.Fatalf("expected task to be retryable")
	}

	if err := task.Reset(); err != nil {
		t.Fatalf("unexpected error resetting task: %v", err)
	}
	if task.Retries != 1 {
		t.Fatalf("expected retries to increment, got %d", task.Retries)
	}
	if task.Status != TaskStatusPending {
		t.Fatalf("expected status pending after reset, got %s", task.Status)
	}

	task.Status = TaskStatusFailed
	task.Retries = task.MaxRetries
	if task.CanRetry() {
		t.Fatalf("expected task not retryable at max retries")
	}
	if err := task.Reset(); err == nil {
		t.Fatalf("expected error when resetting beyond max retries")
	}
}

func TestTask_Validate(t *testing.T) {
	t.Parallel()
	valid := NewTask("t1", "pkg/foo.go", KindFile)
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error validating task: %v", err)
	}

	missingID := NewTask("", "pkg/foo.go", KindFile)
	if err := missingID.Validate(); err == nil {
		t.Fatalf("expected error for missing ID")
	}

	invalidKind := NewTask("t1", "pkg/foo.go", "bogus")
	if err := invalidKind.Validate(); err == nil {
		t.Fatalf("expected error for invalid kind")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestTask_MarkSkipped(t *testing.T) {
	t.Parallel()
	task := NewTask("t1", "pkg/foo.go", KindFile)

	err := task.MarkSkipped("dependency failed")
	if err != nil {
		t.Fatalf("MarkSkipped() error = %v", err)
	}
	if task.Status != TaskStatusSkipped {
		t.Errorf("Status = %s, want skipped", task.Status)
	}
	if task.Error != "dependency failed" {
		t.Errorf("Error = %s, want dependency failed", task.Error)
	}
	if task.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}
}

func TestTask_Duration(t *testing.T) {
	t.Parallel()
	task := NewTask("t1", "pkg/foo.go", KindFile)

	if task.Duration() != 0 {
		t.Error("Duration should be 0 when not started")
	}

	_ = task.MarkRunning()
	_ = task.MarkCompleted()

	if task.Duration() < 0 {
		t.Error("Duration should be non-negative after completion")
	}
}

func TestTask_IsTerminal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status   TaskStatus
		terminal bool
	}{
		{TaskStatusPending, false},
		{TaskStatusRunning, false},
		{TaskStatusCompleted, true},
		{TaskStatusFailed, true},
		{TaskStatusSkipped, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			task := NewTask("t1", "pkg/foo.go", KindFile)
			task.Status = tt.status

			if task.IsTerminal() != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", task.IsTerminal(), tt.terminal)
			}
		})
	}
}

func TestTask_IsSuccess(t *testing.T) {
	t.Parallel()
	task := NewTask("t1", "pkg/foo.go", KindFile)

	if task.IsSuccess() {
		t.Error("Pending task should not be success")
	}

	_ = task.MarkRunning()
	if task.IsSuccess() {
		t.Error("Running task should not be success")
	}

	_ = task.MarkCompleted()
	if !task.IsSuccess() {
		t.Error("Completed task should be success")
	}
}

func TestTask_MarkFailed_WithError(t *testing.T) {
	t.Parallel()
	task := NewTask("t1", "pkg/foo.go", KindFile)
	_ = task.MarkRunning()

	testErr := errTest("test error message")
	err := task.MarkFailed(testErr)
	if err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	if task.Error != "test error message" {
		t.Errorf("Error = %s, want test error message", task.Error)
	}
}

func TestNewExecutionPlan_DanglingDependency(t *testing.T) {
	t.Parallel()
	tasks := []*Task{
		NewTask("dir/", "dir", KindDirectory).WithDependencies("dir/missing.go"),
	}
	if _, err := NewExecutionPlan("run1", tasks); err == nil {
		t.Fatalf("expected error for dangling dependency")
	}
}

func TestNewExecutionPlan_ByKind(t *testing.T) {
	t.Parallel()
	tasks := []*Task{
		NewTask("a.go", "a.go", KindFile),
		NewTask("b.go", "b.go", KindFile),
		NewTask("dir/", "dir", KindDirectory).WithDependencies("a.go", "b.go"),
	}
	plan, err := NewExecutionPlan("run1", tasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.ByKind(KindFile)) != 2 {
		t.Fatalf("expected 2 file tasks")
	}
	if len(plan.ByKind(KindDirectory)) != 1 {
		t.Fatalf("expected 1 directory task")
	}
	if plan.IsEmpty() {
		t.Fatalf("expected plan not to be empty")
	}
}
