package workqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus names the lifecycle phase of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
	TaskStatusPaused    TaskStatus = "paused"
)

// Task is a unit of background work.
type Task interface {
	// ID uniquely identifies this task instance.
	ID() string

	// Name labels the task in logs and status endpoints.
	Name() string

	// Heavy marks tasks that walk large record sets, such as a full
	// duplicate scan. Heavy tasks compete for a limited slot pool; light
	// tasks have a lane of their own.
	Heavy() bool

	// Execute runs the task. The enqueuer lets a task schedule follow-up
	// work on the same queue.
	Execute(ctx context.Context, enqueuer TaskEnqueuer) error
}

// TaskEnqueuer schedules follow-up tasks.
type TaskEnqueuer interface {
	Enqueue(task Task)
}

// taskState tracks one admitted task through its lifecycle. The queue is the
// only writer; snapshots are the read surface for everyone else.
type taskState struct {
	task Task

	mu          sync.RWMutex
	status      TaskStatus
	startedAt   *time.Time
	completedAt *time.Time
	err         error
	retries     int
}

func newTaskState(task Task) *taskState {
	return &taskState{
		task:   task,
		status: TaskStatusPending,
	}
}

func (ts *taskState) getStatus() TaskStatus {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.status
}

// setStatus moves the task to a new phase and stamps the transition time.
func (ts *taskState) setStatus(status TaskStatus) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.status = status
	now := time.Now()

	switch status {
	case TaskStatusRunning:
		ts.startedAt = &now
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled, TaskStatusPaused:
		ts.completedAt = &now
	}
}

func (ts *taskState) setError(err error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.err = err
}

func (ts *taskState) getError() error {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.err
}

// incRetries bumps the retry counter and returns the new value.
func (ts *taskState) incRetries() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.retries++
	return ts.retries
}

func (ts *taskState) getRetries() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.retries
}

// snapshot copies the state into an immutable view.
func (ts *taskState) snapshot() TaskSnapshot {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	var errMsg string
	if ts.err != nil {
		errMsg = ts.err.Error()
	}

	return TaskSnapshot{
		ID:          ts.task.ID(),
		Name:        ts.task.Name(),
		Heavy:       ts.task.Heavy(),
		Status:      ts.status,
		StartedAt:   ts.startedAt,
		CompletedAt: ts.completedAt,
		Error:       errMsg,
	}
}

// TaskSnapshot is a point-in-time view of a task, safe to serialize.
type TaskSnapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Heavy       bool       `json:"heavy"`
	Status      TaskStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// BaseTask carries identity for concrete tasks; embed it and implement
// Execute.
type BaseTask struct {
	id    string
	name  string
	heavy bool
}

// NewBaseTask assigns a fresh ID to a task with the given name and weight.
func NewBaseTask(name string, heavy bool) BaseTask {
	return BaseTask{
		id:    uuid.New().String(),
		name:  name,
		heavy: heavy,
	}
}

func (t BaseTask) ID() string {
	return t.id
}

func (t BaseTask) Name() string {
	return t.name
}

func (t BaseTask) Heavy() bool {
	return t.heavy
}
