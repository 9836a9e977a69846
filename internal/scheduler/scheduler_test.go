package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/guidellm/guidellm-go/internal/backend"
	"github.com/guidellm/guidellm-go/internal/clock"
	"github.com/guidellm/guidellm-go/internal/config"
	"github.com/guidellm/guidellm-go/internal/model"
	"github.com/guidellm/guidellm-go/internal/ratestrategy"
	"github.com/guidellm/guidellm-go/internal/source"
	"github.com/guidellm/guidellm-go/internal/workerpool"
)

// instantAdapter completes every request immediately with one token, for
// dispatch-loop tests that care about counts and phases, not timing.
type instantAdapter struct{ clk clock.Clock }

func (a *instantAdapter) Probe(ctx context.Context) error { return nil }

func (a *instantAdapter) Execute(ctx context.Context, payload model.Payload, deadline time.Time) <-chan backend.Event {
	out := make(chan backend.Event, 4)
	now := a.clk.Now()
	out <- backend.Event{Kind: backend.FirstByte, Time: now}
	out <- backend.Event{Kind: backend.Token, Time: now, TokenText: "x", TokenCountDelta: 1}
	out <- backend.Event{Kind: backend.Done, Time: now, PromptTokens: 3, OutputTokens: 1}
	close(out)
	return out
}

func staticPayloads(n int) []model.Payload {
	items := make([]model.Payload, n)
	for i := range items {
		items[i] = model.Payload{DatasetIndex: i, Endpoint: model.EndpointChat, Messages: []model.ChatMessage{{Role: "user", Content: "hi"}}}
	}
	return items
}

func TestSchedulerDispatchesAllAndStopsOnMaxRequests(t *testing.T) {
	clk := clock.NewVirtual()
	adapter := &instantAdapter{clk: clk}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := workerpool.New(ctx, 4, adapter, clk, time.Second, 16)
	src := source.NewStatic(staticPayloads(10), source.Sequential, nil)
	strategy := ratestrategy.NewThroughput()

	cfg := config.Default()
	cfg.MaxRequests = 5
	cfg.DrainTimeout = time.Second

	sched := New(cfg, strategy, pool, src, clk, uuid.New(), clk.Now(), zerolog.Nop())

	var received []*model.Record
	done := make(chan struct{})
	go func() {
		for rec := range sched.Records {
			received = append(received, rec)
		}
		close(done)
	}()

	err := sched.Run(ctx, cancel)
	require.NoError(t, err)
	<-done

	require.Len(t, received, 5)
	for _, rec := range received {
		require.Equal(t, model.Completed, rec.Outcome)
		require.Equal(t, model.Measured, rec.Phase)
	}
	require.Equal(t, uint64(5), sched.State().TotalDispatched())
	require.Equal(t, uint64(0), sched.State().LiveConcurrency)
}

func TestSchedulerTagsWarmupByRequestCount(t *testing.T) {
	clk := clock.NewVirtual()
	adapter := &instantAdapter{clk: clk}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := workerpool.New(ctx, 4, adapter, clk, time.Second, 16)
	src := source.NewStatic(staticPayloads(6), source.Sequential, nil)
	strategy := ratestrategy.NewThroughput()

	cfg := config.Default()
	cfg.MaxRequests = 6
	cfg.WarmupRequests = 2
	cfg.DrainTimeout = time.Second

	sched := New(cfg, strategy, pool, src, clk, uuid.New(), clk.Now(), zerolog.Nop())

	var received []*model.Record
	done := make(chan struct{})
	go func() {
		for rec := range sched.Records {
			received = append(received, rec)
		}
		close(done)
	}()

	require.NoError(t, sched.Run(ctx, cancel))
	<-done

	require.Len(t, received, 6)
	warmup, measured := 0, 0
	for _, rec := range received {
		switch rec.Phase {
		case model.Warmup:
			warmup++
		case model.Measured:
			measured++
		}
	}
	require.Equal(t, 2, warmup)
	require.Equal(t, 4, measured)
}

func TestSchedulerStopsWhenSourceExhausted(t *testing.T) {
	clk := clock.NewVirtual()
	adapter := &instantAdapter{clk: clk}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := workerpool.New(ctx, 4, adapter, clk, time.Second, 16)
	src := source.NewStatic(staticPayloads(3), source.Sequential, nil)
	strategy := ratestrategy.NewThroughput()

	cfg := config.Default()
	cfg.MaxRequests = 100
	cfg.DrainTimeout = time.Second

	sched := New(cfg, strategy, pool, src, clk, uuid.New(), clk.Now(), zerolog.Nop())

	var count int
	done := make(chan struct{})
	go func() {
		for range sched.Records {
			count++
		}
		close(done)
	}()

	require.NoError(t, sched.Run(ctx, cancel))
	<-done

	require.Equal(t, 3, count)
}
