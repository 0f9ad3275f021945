// Package host provides frame schedulers that drive an ecs.Loop.
package host

import "sync"

// Queue holds requested frames until Fire is called. Requests may come from
// any goroutine; callbacks run on the goroutine calling Fire.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

func (q *Queue) RequestFrame(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Fire runs the callbacks queued before the call and returns how many ran.
// Frames requested by those callbacks wait for the next Fire.
func (q *Queue) Fire() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of queued callbacks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
