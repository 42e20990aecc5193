// Package schedule runs cooperative recurring tasks.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Task invokes a function on a fixed interval from a single goroutine, so two runs
// never overlap. A stopped task never runs again, including a tick that was already
// due when Stop was called.
type Task struct {
	interval time.Duration
	fn       func(context.Context)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	runs uint64
}

// Start begins running fn every interval until Stop is called or parent is done.
// The first run happens one interval after Start.
func Start(parent context.Context, interval time.Duration, fn func(context.Context)) *Task {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		interval: interval,
		fn:       fn,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *Task) loop() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			if t.ctx.Err() != nil {
				return
			}
			t.fn(t.ctx)
			t.mu.Lock()
			t.runs++
			t.mu.Unlock()
		}
	}
}

// Stop cancels the task. It is safe to call more than once and from inside the
// task's own function; it does not wait for an in-progress run to finish.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
}

// Stopped reports whether Stop was called or the parent context ended.
func (t *Task) Stopped() bool {
	return t == nil || t.ctx.Err() != nil
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Runs returns the number of completed runs.
func (t *Task) Runs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}
