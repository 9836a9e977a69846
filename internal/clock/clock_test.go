package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystemNowIsMonotonicNonDecreasing(t *testing.T) {
	c := NewSystem()
	a := c.Now()
	time.Sleep(time.Millisecond)
	b := c.Now()
	require.GreaterOrEqual(t, b, a)
}

func TestSystemSleepUntilHonorsCancellation(t *testing.T) {
	c := NewSystem()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SleepUntil(ctx, c.Now()+int64(time.Hour))
	require.Error(t, err)
}

func TestSystemSleepUntilPastTimeReturnsImmediately(t *testing.T) {
	c := NewSystem()
	start := time.Now()
	err := c.SleepUntil(context.Background(), c.Now()-1)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestVirtualAdvanceWakesSleepers(t *testing.T) {
	c := NewVirtual()
	done := make(chan struct{})
	go func() {
		_ = c.SleepUntil(context.Background(), 100)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("sleeper woke before deadline")
	case <-time.After(20 * time.Millisecond):
	}

	c.Advance(100)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sleeper did not wake after Advance")
	}
}

func TestVirtualSleepUntilPastNowReturnsImmediately(t *testing.T) {
	c := NewVirtual()
	c.Advance(1000)
	require.NoError(t, c.SleepUntil(context.Background(), 500))
}
