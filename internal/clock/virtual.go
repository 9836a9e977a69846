package clock

import (
	"context"
	"sync"
)

// Virtual is a manually-advanced Clock for deterministic tests: it lets a
// test drive the scheduler's dispatch loop without real sleeps, so the
// testable property "replay with same seed -> identical interval sequence"
// (spec §8) can be checked without waiting wall-clock time.
type Virtual struct {
	mu      sync.Mutex
	now     int64
	waiters []virtualWaiter
}

type virtualWaiter struct {
	deadline int64
	done     chan struct{}
}

// NewVirtual creates a Virtual clock starting at t=0.
func NewVirtual() *Virtual {
	return &Virtual{}
}

func (c *Virtual) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d nanoseconds, waking any SleepUntil
// callers whose deadline has now passed.
func (c *Virtual) Advance(d int64) {
	c.mu.Lock()
	c.now += d
	var remaining []virtualWaiter
	for _, w := range c.waiters {
		if w.deadline <= c.now {
			close(w.done)
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()
}

func (c *Virtual) SleepUntil(ctx context.Context, t int64) error {
	c.mu.Lock()
	if t <= c.now {
		c.mu.Unlock()
		return ctx.Err()
	}
	done := make(chan struct{})
	c.waiters = append(c.waiters, virtualWaiter{deadline: t, done: done})
	c.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
