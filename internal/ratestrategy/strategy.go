// Package ratestrategy implements the tagged variant over rate strategies
// described in spec §4.4 and §9's "Dynamic dispatch over strategies"
// note: a small capability shared by every variant, dispatched through one
// constructor table so adding a strategy touches one file.
package ratestrategy

import "github.com/guidellm/guidellm-go/internal/model"

// Decision is what a Strategy wants the Scheduler to do next.
type Decision struct {
	// BlockedOnCompletion, when true, means the Scheduler must wait for
	// an on-completion signal before consulting the strategy again
	// (synchronous, concurrent(N) at the cap). At is meaningless when
	// this is set.
	BlockedOnCompletion bool

	// At is the strategy's targeted dispatch time (monotonic ns) for the
	// next ticket. If At <= the now passed to NextDispatch, the
	// Scheduler dispatches immediately without waiting (spec §4.4 tie
	// break: never batch multiple dispatches in one tick even when
	// behind schedule).
	At int64
}

// Immediate reports whether the Scheduler should dispatch without
// waiting, given the now it queried NextDispatch with.
func (d Decision) Immediate(now int64) bool {
	return !d.BlockedOnCompletion && d.At <= now
}

// Strategy is consulted by the Scheduler's dispatch loop. Strategies do
// not observe phase (warmup/measured/cooldown); the Scheduler tags
// tickets independently (spec §4.4).
type Strategy interface {
	// NextDispatch returns when the next request should be dispatched,
	// given now (monotonic ns).
	NextDispatch(now int64) Decision

	// OnCompletion is called by the Scheduler when the worker's Completion
	// message for rec (now terminal) arrives, letting completion-gated strategies (synchronous,
	// concurrent) release the next slot.
	OnCompletion(rec *model.Record)
}
