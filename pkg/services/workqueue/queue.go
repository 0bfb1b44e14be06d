// Package workqueue runs background tasks with bounded concurrency and
// retry. Duplicate scans are the main tenant: a scan walks every active
// evidence record for a user, so at most one heavy task runs per slot while
// light maintenance tasks proceed alongside.
package workqueue

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds how often and how fast a transient failure is retried.
type RetryConfig struct {
	MaxRetries     int           // attempts after the first (0 disables retry)
	InitialBackoff time.Duration // delay before the first retry
	MaxBackoff     time.Duration // ceiling for the backoff delay
	BackoffFactor  float64       // growth factor between retries
}

// DefaultRetryConfig yields the schedule 2s, 4s, 8s, 16s, 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}
}

// Queue admits tasks through a ConcurrencyStrategy and retries transient
// failures with jittered exponential backoff. A single Queue serves the whole
// process; per-user scoping happens inside the tasks themselves.
type Queue struct {
	mu     sync.Mutex
	states []*taskState
	closed bool
	paused bool // a paused queue is closed too; the flag picks the terminal status

	strategy ConcurrencyStrategy
	retry    RetryConfig

	// done closes when every admitted task reaches a terminal status.
	done chan struct{}
	wg   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	observer func([]TaskSnapshot)

	logger *zap.Logger
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithStrategy replaces the default serialized admission strategy.
func WithStrategy(strategy ConcurrencyStrategy) QueueOption {
	return func(q *Queue) {
		if strategy != nil {
			q.strategy = strategy
		}
	}
}

// WithRetryConfig replaces the default retry schedule.
func WithRetryConfig(config RetryConfig) QueueOption {
	return func(q *Queue) {
		q.retry = config
	}
}

// New builds a queue. With no options it serializes heavy tasks against each
// other and light tasks against each other, two independent lanes.
func New(logger *zap.Logger, opts ...QueueOption) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		strategy: NewSerializedStrategy(),
		retry:    DefaultRetryConfig(),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.Named("workqueue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// SetOnUpdate registers a callback fired on every task state change with a
// snapshot of all tasks.
//
// The callback runs under the queue lock. Calling back into the Queue from
// it deadlocks; hand the snapshot to a channel and return.
func (q *Queue) SetOnUpdate(callback func([]TaskSnapshot)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observer = callback
}

// Enqueue admits a task and starts whatever the strategy allows. A cancelled
// or paused queue drops the task.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Warn("queue closed, dropping task",
			zap.String("task_id", task.ID()),
			zap.String("task_name", task.Name()))
		return
	}

	// A finished batch closed the done channel; reopen it for this one.
	select {
	case <-q.done:
		q.done = make(chan struct{})
	default:
	}

	q.states = append(q.states, newTaskState(task))

	q.logger.Info("task enqueued",
		zap.String("task_id", task.ID()),
		zap.String("task_name", task.Name()),
		zap.Bool("heavy", task.Heavy()))

	q.publishLocked()
	q.dispatchLocked()
}

// dispatchLocked starts every pending task the strategy admits.
func (q *Queue) dispatchLocked() {
	if q.closed {
		return
	}

	for _, ts := range q.states {
		if ts.getStatus() != TaskStatusPending {
			continue
		}

		if ts.task.Heavy() {
			if !q.strategy.CanStartHeavy() {
				continue
			}
			q.strategy.OnStartHeavy()
		} else {
			if !q.strategy.CanStartLight() {
				continue
			}
			q.strategy.OnStartLight()
		}

		ts.setStatus(TaskStatusRunning)
		q.publishLocked()

		q.logger.Info("starting task",
			zap.String("task_id", ts.task.ID()),
			zap.String("task_name", ts.task.Name()))

		q.wg.Add(1)
		go q.execute(ts)
	}
}

// execute runs a task to a terminal status, retrying transient errors.
func (q *Queue) execute(ts *taskState) {
	defer q.wg.Done()

	delay := q.retry.InitialBackoff
	var lastErr error

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			backoff := withJitter(delay)
			q.logger.Info("retrying task after backoff",
				zap.String("task_id", ts.task.ID()),
				zap.String("task_name", ts.task.Name()),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", q.retry.MaxRetries),
				zap.Duration("backoff", backoff))

			select {
			case <-q.ctx.Done():
				q.settle(ts, q.ctx.Err())
				return
			case <-time.After(backoff):
			}

			delay = time.Duration(float64(delay) * q.retry.BackoffFactor)
			if delay > q.retry.MaxBackoff {
				delay = q.retry.MaxBackoff
			}
		}

		err := ts.task.Execute(q.ctx, q)
		if err == nil {
			q.settle(ts, nil)
			return
		}
		lastErr = err

		if errors.Is(err, context.Canceled) {
			break
		}
		if !IsRetryable(err) {
			q.logger.Warn("non-retryable error, failing task",
				zap.String("task_id", ts.task.ID()),
				zap.String("task_name", ts.task.Name()),
				zap.Error(err))
			break
		}

		retries := ts.incRetries()
		if attempt >= q.retry.MaxRetries {
			q.logger.Error("task failed after max retries",
				zap.String("task_id", ts.task.ID()),
				zap.String("task_name", ts.task.Name()),
				zap.Int("retry_count", retries),
				zap.Error(err))
			break
		}

		q.logger.Warn("transient task error",
			zap.String("task_id", ts.task.ID()),
			zap.String("task_name", ts.task.Name()),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", q.retry.MaxRetries),
			zap.Error(err))
	}

	q.settle(ts, lastErr)
}

// withJitter spreads a delay by up to ten percent either way so concurrent
// retries do not land on the same instant.
func withJitter(d time.Duration) time.Duration {
	jitter := float64(d) * 0.1 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

// settle records a terminal status for the task, releases its strategy slot,
// and dispatches whatever became admissible.
func (q *Queue) settle(ts *taskState, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ts.task.Heavy() {
		q.strategy.OnCompleteHeavy()
	} else {
		q.strategy.OnCompleteLight()
	}

	switch {
	case err == nil:
		ts.setStatus(TaskStatusCompleted)
		q.logger.Info("task completed",
			zap.String("task_id", ts.task.ID()),
			zap.String("task_name", ts.task.Name()),
			zap.Int("retry_count", ts.getRetries()))
	case errors.Is(err, context.Canceled) && q.paused:
		ts.setStatus(TaskStatusPaused)
		q.logger.Info("task paused",
			zap.String("task_id", ts.task.ID()),
			zap.String("task_name", ts.task.Name()))
	case errors.Is(err, context.Canceled):
		ts.setStatus(TaskStatusCancelled)
		q.logger.Info("task cancelled",
			zap.String("task_id", ts.task.ID()),
			zap.String("task_name", ts.task.Name()))
	default:
		ts.setStatus(TaskStatusFailed)
		ts.setError(err)
		q.logger.Error("task failed",
			zap.String("task_id", ts.task.ID()),
			zap.String("task_name", ts.task.Name()),
			zap.Int("retry_count", ts.getRetries()),
			zap.Error(err))
	}

	p := q.progressLocked()
	q.logger.Debug("queue progress",
		zap.Int("completed", p.Completed),
		zap.Int("failed", p.Failed),
		zap.Int("total", p.Total))

	q.publishLocked()

	if q.drainedLocked() {
		q.closeDoneLocked()
		return
	}
	q.dispatchLocked()
}

// drainedLocked reports whether every task reached a terminal status.
func (q *Queue) drainedLocked() bool {
	for _, ts := range q.states {
		switch ts.getStatus() {
		case TaskStatusPending, TaskStatusRunning:
			return false
		}
	}
	return true
}

func (q *Queue) closeDoneLocked() {
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}

func (q *Queue) publishLocked() {
	if q.observer == nil {
		return
	}
	q.observer(q.snapshotLocked())
}

func (q *Queue) snapshotLocked() []TaskSnapshot {
	snapshots := make([]TaskSnapshot, len(q.states))
	for i, ts := range q.states {
		snapshots[i] = ts.snapshot()
	}
	return snapshots
}

// GetTasks returns a snapshot of every task admitted so far.
func (q *Queue) GetTasks() []TaskSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Wait blocks until every task reaches a terminal status or ctx expires.
// A task failure surfaces as the first failed task's error; ctx expiry
// cancels the queue and returns ctx.Err().
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	empty := len(q.states) == 0
	q.mu.Unlock()
	if empty {
		return nil
	}

	select {
	case <-q.done:
		q.mu.Lock()
		defer q.mu.Unlock()
		for _, ts := range q.states {
			if ts.getStatus() == TaskStatusFailed {
				return ts.getError()
			}
		}
		return nil
	case <-ctx.Done():
		q.Cancel()
		return ctx.Err()
	}
}

// Cancel stops accepting tasks, interrupts running ones, and marks pending
// tasks cancelled. Terminal: a cancelled queue never runs anything again.
func (q *Queue) Cancel() {
	q.shutdown(false)
}

// Pause behaves like Cancel except tasks end up paused rather than
// cancelled, so a caller inspecting snapshots can tell the two apart.
func (q *Queue) Pause() {
	q.shutdown(true)
}

func (q *Queue) shutdown(pause bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.paused = pause

	verb := "cancelled"
	waiting := TaskStatusCancelled
	if pause {
		verb = "paused"
		waiting = TaskStatusPaused
	}
	q.logger.Info("queue " + verb + ", signaling running tasks to stop")

	q.cancel()

	// Running tasks pick their terminal status up in settle.
	for _, ts := range q.states {
		if ts.getStatus() == TaskStatusPending {
			ts.setStatus(waiting)
		}
	}

	q.publishLocked()

	if q.drainedLocked() {
		q.closeDoneLocked()
	}
}

// IsPaused reports whether the queue was paused rather than cancelled.
func (q *Queue) IsPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// HasFailures reports whether any task ended in failure.
func (q *Queue) HasFailures() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ts := range q.states {
		if ts.getStatus() == TaskStatusFailed {
			return true
		}
	}
	return false
}

// TaskCount returns the number of tasks admitted so far.
func (q *Queue) TaskCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.states)
}

// CompletedCount returns the number of tasks that finished successfully.
func (q *Queue) CompletedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for _, ts := range q.states {
		if ts.getStatus() == TaskStatusCompleted {
			count++
		}
	}
	return count
}

// Progress summarizes the queue by task status.
func (q *Queue) Progress() Progress {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.progressLocked()
}

func (q *Queue) progressLocked() Progress {
	p := Progress{Total: len(q.states)}
	for _, ts := range q.states {
		switch ts.getStatus() {
		case TaskStatusPending:
			p.Pending++
		case TaskStatusRunning:
			p.Running++
		case TaskStatusCompleted:
			p.Completed++
		case TaskStatusFailed:
			p.Failed++
		case TaskStatusCancelled:
			p.Cancelled++
		case TaskStatusPaused:
			p.Paused++
		}
	}
	return p
}

// Progress counts tasks by status.
type Progress struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Paused    int `json:"paused"`
}

// Percentage reports how much of the queue reached a terminal status, 0-100.
func (p Progress) Percentage() int {
	if p.Total == 0 {
		return 100
	}
	done := p.Completed + p.Failed + p.Cancelled + p.Paused
	return (done * 100) / p.Total
}
