package host

import (
	"context"
	"time"
)

// DefaultInterval is roughly one display refresh at 60 Hz.
const DefaultInterval = 16 * time.Millisecond

// Ticker fires queued frames on a fixed wall-clock interval, on the
// goroutine that calls Run.
type Ticker struct {
	Queue
	interval time.Duration
}

func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{interval: interval}
}

// Run fires frames until ctx is done and returns ctx.Err().
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Fire()
		}
	}
}
