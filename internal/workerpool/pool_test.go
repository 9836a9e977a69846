package workerpool

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/guidellm/guidellm-go/internal/backend"
	"github.com/guidellm/guidellm-go/internal/clock"
	"github.com/guidellm/guidellm-go/internal/model"
)

// fakeAdapter yields a fixed token stream then completes, for pool tests
// that don't need a real HTTP server.
type fakeAdapter struct {
	clk     clock.Clock
	tokens  int
	perTok  time.Duration
	failing bool
}

func (f *fakeAdapter) Probe(ctx context.Context) error { return nil }

func (f *fakeAdapter) Execute(ctx context.Context, payload model.Payload, deadline time.Time) <-chan backend.Event {
	out := make(chan backend.Event, f.tokens+2)
	out <- backend.Event{Kind: backend.FirstByte, Time: f.clk.Now()}
	if f.failing {
		out <- backend.Event{Kind: backend.Error, Time: f.clk.Now(), ErrorKind: model.ErrorHTTPStatus, ErrorMessage: "boom"}
		close(out)
		return out
	}
	for i := 0; i < f.tokens; i++ {
		out <- backend.Event{Kind: backend.Token, Time: f.clk.Now(), TokenText: "x", TokenCountDelta: 1}
	}
	out <- backend.Event{Kind: backend.Done, Time: f.clk.Now(), PromptTokens: 5, OutputTokens: f.tokens}
	close(out)
	return out
}

func TestPoolCompletesSuccessfulRecord(t *testing.T) {
	clk := clock.NewVirtual()
	adapter := &fakeAdapter{clk: clk, tokens: 3}
	pool := New(context.Background(), 2, adapter, clk, time.Second, 4)

	ticket := model.NewTicket(uuid.Nil, model.Payload{}, 0, model.Measured, clk.Now())
	require.NoError(t, pool.Acquire(context.Background()))
	pool.Submit(ticket)

	comp := <-pool.Completions()
	require.Equal(t, model.Completed, comp.Record.Outcome)
	require.Equal(t, 3, comp.Record.OutputTokens)
	require.True(t, comp.Record.HasFirstToken)
	require.True(t, comp.Record.HasCompletion)
}

func TestPoolRecordsFailure(t *testing.T) {
	clk := clock.NewVirtual()
	adapter := &fakeAdapter{clk: clk, failing: true}
	pool := New(context.Background(), 1, adapter, clk, time.Second, 4)

	ticket := model.NewTicket(uuid.Nil, model.Payload{}, 0, model.Measured, clk.Now())
	require.NoError(t, pool.Acquire(context.Background()))
	pool.Submit(ticket)

	comp := <-pool.Completions()
	require.Equal(t, model.Failed, comp.Record.Outcome)
	require.Equal(t, model.ErrorHTTPStatus, comp.Record.ErrorKind)
}

func TestPoolAcquireBlocksAtCapacity(t *testing.T) {
	clk := clock.NewVirtual()
	adapter := &fakeAdapter{clk: clk, tokens: 1}
	pool := New(context.Background(), 1, adapter, clk, time.Second, 4)

	require.NoError(t, pool.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Acquire(ctx)
	require.Error(t, err)
}
