package workqueue

import "sync"

// ConcurrencyStrategy controls how tasks are allowed to start concurrently.
// The strategy is responsible for tracking running tasks and determining
// if a new task can start based on the current state.
type ConcurrencyStrategy interface {
	// CanStartHeavy returns true if a heavy task can start given current state
	CanStartHeavy() bool
	// CanStartLight returns true if a light task can start given current state
	CanStartLight() bool
	// OnStartHeavy is called when a heavy task starts
	OnStartHeavy()
	// OnStartLight is called when a light task starts
	OnStartLight()
	// OnCompleteHeavy is called when a heavy task completes
	OnCompleteHeavy()
	// OnCompleteLight is called when a light task completes
	OnCompleteLight()
}

// SerializedStrategy serializes both heavy and light tasks.
// Only one heavy task and one light task can run at a time,
// but a heavy task and a light task can run in parallel.
type SerializedStrategy struct {
	mu           sync.Mutex
	heavyRunning bool
	lightRunning bool
}

// NewSerializedStrategy creates a strategy that serializes heavy tasks
// (only one at a time) and serializes light tasks (only one at a time).
func NewSerializedStrategy() *SerializedStrategy {
	return &SerializedStrategy{}
}

func (s *SerializedStrategy) CanStartHeavy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.heavyRunning
}

func (s *SerializedStrategy) CanStartLight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lightRunning
}

func (s *SerializedStrategy) OnStartHeavy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heavyRunning = true
}

func (s *SerializedStrategy) OnStartLight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightRunning = true
}

func (s *SerializedStrategy) OnCompleteHeavy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heavyRunning = false
}

func (s *SerializedStrategy) OnCompleteLight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightRunning = false
}

// ThrottledStrategy allows up to maxConcurrent heavy tasks to run in parallel.
// Light tasks are still serialized (only one at a time).
type ThrottledStrategy struct {
	mu            sync.Mutex
	maxConcurrent int
	heavyRunning  int
	lightRunning  bool
}

// NewThrottledStrategy creates a strategy that allows up to maxConcurrent
// heavy tasks to run in parallel while serializing light tasks.
func NewThrottledStrategy(maxConcurrent int) *ThrottledStrategy {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ThrottledStrategy{
		maxConcurrent: maxConcurrent,
	}
}

func (s *ThrottledStrategy) CanStartHeavy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heavyRunning < s.maxConcurrent
}

func (s *ThrottledStrategy) CanStartLight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lightRunning
}

func (s *ThrottledStrategy) OnStartHeavy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heavyRunning++
}

func (s *ThrottledStrategy) OnStartLight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightRunning = true
}

func (s *ThrottledStrategy) OnCompleteHeavy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heavyRunning > 0 {
		s.heavyRunning--
	}
}

func (s *ThrottledStrategy) OnCompleteLight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightRunning = false
}
