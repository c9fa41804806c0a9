package schedule

import (
	"sync"
	"time"
)

// Task is a start/stoppable periodic callback. It exists so the poll loop and
// the inactivity sweep run on the same abstraction, and so a push transport
// could replace the timer without touching the merge logic.
type Task struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

func NewTask(interval time.Duration, fn func()) *Task {
	return &Task{
		interval: interval,
		fn:       fn,
	}
}

// Start begins ticking. Starting a running task is a no-op.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.fn()
			case <-stop:
				return
			}
		}
	}(t.stop)
}

// Stop halts ticking. Stopping a stopped task is a no-op. A tick already in
// flight is allowed to finish.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
}

func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
