// Package workerpool implements the Worker Pool (spec §4.6): a set of
// parallel request executors bounded by a fixed parallelism cap, driving
// the Backend Adapter for each dispatched ticket and streaming its events
// into a RequestRecord.
//
// Ported from the teacher's bench.Benchmark.worker/Run goroutine-per-
// connection model, generalized from a single synchronous Requester call
// to the spec's richer per-token timing capture, and from the teacher's
// hand-rolled sync.WaitGroup bookkeeping to golang.org/x/sync's
// semaphore (parallelism cap - the pool's only backpressure path, spec
// §4.6) and errgroup (coordinated shutdown).
package workerpool

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/guidellm/guidellm-go/internal/backend"
	"github.com/guidellm/guidellm-go/internal/clock"
	"github.com/guidellm/guidellm-go/internal/model"
)

// Completion is the one-way message a worker emits to the Scheduler when
// a ticket's Record reaches a terminal Outcome (spec §9's "one-way
// message passing" design note: the Scheduler applies
// rate_strategy.OnCompletion and in-flight table bookkeeping itself,
// single-threadedly, off of these messages).
type Completion struct {
	Record *model.Record
}

// Pool drives the Backend Adapter for each ticket it is given, bounded to
// a fixed parallelism cap.
type Pool struct {
	sem            *semaphore.Weighted
	adapter        backend.Adapter
	clk            clock.Clock
	requestTimeout time.Duration
	completions    chan Completion
	group          *errgroup.Group
	groupCtx       context.Context
}

// New creates a Pool with the given parallelism cap, driving adapter and
// stamping events with clk. completionsBuffer sizes the completions
// channel; the Scheduler should drain it promptly since a full channel
// blocks worker goroutines from reporting (not just from accepting new
// work).
func New(ctx context.Context, cap int64, adapter backend.Adapter, clk clock.Clock, requestTimeout time.Duration, completionsBuffer int) *Pool {
	group, groupCtx := errgroup.WithContext(ctx)
	return &Pool{
		sem:            semaphore.NewWeighted(cap),
		adapter:        adapter,
		clk:            clk,
		requestTimeout: requestTimeout,
		completions:    make(chan Completion, completionsBuffer),
		group:          group,
		groupCtx:       groupCtx,
	}
}

// Completions returns the channel the Scheduler listens on for finished
// records.
func (p *Pool) Completions() <-chan Completion { return p.completions }

// Acquire blocks until a worker slot is free or ctx is done — this is the
// Scheduler's backpressure suspension point (spec §4.6, §5).
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Submit runs one ticket's request to completion in a new goroutine,
// assuming the caller already called Acquire. The Record is built fresh
// from the ticket (spec §4.5 step 5) and is exclusively owned by this
// goroutine until it reaches a terminal Outcome, at which point ownership
// transfers via the Completion message (spec §5 "Shared-resource policy").
func (p *Pool) Submit(ticket *model.Ticket) {
	p.group.Go(func() error {
		defer p.sem.Release(1)
		rec := p.run(ticket)
		p.completions <- Completion{Record: rec}
		return nil
	})
}

// run drives the backend adapter for ticket until a terminal event,
// populating the resulting Record's timing fields as events arrive (spec
// §4.6).
func (p *Pool) run(ticket *model.Ticket) *model.Record {
	rec := model.NewRecord(ticket.RunID, ticket.SequenceIndex, ticket.Phase, ticket.Payload.DatasetIndex, ticket.TargetedDispatch)

	rec.ActualDispatch = p.clk.Now()
	rec.HasActualDispatch = true

	// Deadline is anchored to targeted_dispatch, not actual_dispatch (spec
	// §4.6: "targeted_dispatch + per_request_timeout"): a request delayed
	// behind schedule by worker-pool backpressure gets a correspondingly
	// tighter wall-clock budget rather than a fresh window starting now.
	remaining := (rec.TargetedDispatch + int64(p.requestTimeout)) - rec.ActualDispatch
	deadline := time.Now().Add(time.Duration(remaining))

	events := p.adapter.Execute(p.groupCtx, ticket.Payload, deadline)

	for ev := range events {
		switch ev.Kind {
		case backend.FirstByte:
			rec.FirstResponseByte = ev.Time
			rec.HasFirstResponseByte = true

		case backend.Token:
			if !rec.HasFirstToken {
				rec.FirstToken = ev.Time
				rec.HasFirstToken = true
			}
			rec.LastToken = ev.Time
			rec.HasLastToken = true
			rec.TokenArrivals = append(rec.TokenArrivals, model.TokenArrival{Time: ev.Time, Delta: ev.TokenCountDelta})
			rec.OutputTokens += ev.TokenCountDelta

		case backend.Done:
			rec.Completion = ev.Time
			rec.HasCompletion = true
			rec.PromptTokens = ev.PromptTokens
			if ev.OutputTokens > 0 {
				rec.OutputTokens = ev.OutputTokens
			}
			rec.Outcome = model.Completed

		case backend.Error:
			rec.Completion = ev.Time
			rec.HasCompletion = true
			rec.ErrorKind = ev.ErrorKind
			rec.ErrorMessage = ev.ErrorMessage
			if ev.ErrorKind == model.ErrorCancelled {
				rec.Outcome = model.Cancelled
			} else {
				rec.Outcome = model.Failed
			}
		}
	}

	// Defensive: an adapter that closes its channel without a terminal
	// event is an internal invariant violation (spec §7 `internal`); mark
	// it rather than leave the record permanently Pending.
	if rec.Outcome == model.Pending {
		rec.Completion = p.clk.Now()
		rec.HasCompletion = true
		rec.Outcome = model.Failed
		rec.ErrorKind = model.ErrorInternal
		rec.ErrorMessage = "adapter closed event stream without a terminal event"
	}

	return rec
}

// Wait blocks until every goroutine started by Submit has returned, that
// is, until every submitted ticket's Completion has been received.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
