// Package scheduler implements the Scheduler (spec §4.5): it owns the
// BenchmarkState, the Rate Strategy, and the Worker Pool, and runs the
// dispatch loop that enforces warmup/cooldown phase tagging and the
// overall duration/request-count/cancellation termination conditions.
//
// Ported from the teacher's bench.Benchmark.Run orchestration (ticker +
// worker goroutines + results collector), generalized from "one fixed
// tick rate shared by N connections" to the spec's per-strategy dispatch
// timing and explicit warmup/measured/cooldown phase tagging.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guidellm/guidellm-go/internal/clock"
	"github.com/guidellm/guidellm-go/internal/config"
	"github.com/guidellm/guidellm-go/internal/model"
	"github.com/guidellm/guidellm-go/internal/ratestrategy"
	"github.com/guidellm/guidellm-go/internal/source"
	"github.com/guidellm/guidellm-go/internal/workerpool"
)

// Scheduler owns one BenchmarkState for the duration of one run.
type Scheduler struct {
	cfg      config.Config
	strategy ratestrategy.Strategy
	pool     *workerpool.Pool
	src      source.Source
	clk      clock.Clock
	log      zerolog.Logger

	runID    uuid.UUID
	state    *model.State
	inFlight map[uint64]struct{}

	// Records flows finished, strategy-applied records downstream to the
	// Aggregator — the Scheduler is their only producer (spec §5 "the
	// Aggregator is single-consumer").
	Records chan *model.Record
}

// New creates a Scheduler for one run. t0 is the run's monotonic start
// time, used both as the strategy's anchor and as BenchmarkState.StartTime.
func New(cfg config.Config, strategy ratestrategy.Strategy, pool *workerpool.Pool, src source.Source, clk clock.Clock, runID uuid.UUID, t0 int64, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		strategy: strategy,
		pool:     pool,
		src:      src,
		clk:      clk,
		log:      log.With().Str("component", "scheduler").Str("run_id", runID.String()).Logger(),
		runID:    runID,
		state:    model.NewState(runID, t0),
		inFlight: make(map[uint64]struct{}),
		Records:  make(chan *model.Record, 64),
	}
}

// State returns the Scheduler's live BenchmarkState, for progress
// reporting (spec §7 "Progress reporting shows in-flight count, completed
// counts by outcome, and running rate").
func (s *Scheduler) State() *model.State { return s.state }

// Run drives the dispatch loop to completion: dispatching per the rate
// strategy, tagging phases, enforcing termination conditions, then
// draining outstanding requests. It closes Records before returning.
//
// ctx must be the same context the Scheduler's Worker Pool was built
// with (spec §9's in-flight table and its owning pool must share one
// cancellation signal); cancel must be that context's CancelFunc, so
// that a drain timeout can actually reach in-flight requests rather than
// only the Scheduler's own bookkeeping.
func (s *Scheduler) Run(ctx context.Context, cancel context.CancelFunc) error {
	defer close(s.Records)

	// MaxRequests is a literal cap, not an "unset means uncapped" sentinel
	// (spec §8: "running with max_requests = 0 yields an empty, well-formed
	// report"); callers that want an unbounded count under a duration cap
	// must set MaxRequests to the desired ceiling.
	if s.cfg.MaxRequests == 0 {
		s.drain(ctx, cancel)
		return nil
	}

	sourceExhausted := false

dispatchLoop:
	for {
		// Drain any completions that arrived without blocking the
		// dispatch decision (keeps in-flight bookkeeping current even
		// under a fast-firing strategy).
		for drained := true; drained; {
			select {
			case comp, ok := <-s.pool.Completions():
				if ok {
					s.handleCompletion(comp)
				}
			default:
				drained = false
			}
		}

		if ctx.Err() != nil {
			break dispatchLoop
		}
		if s.terminationMet() {
			break dispatchLoop
		}

		decision := s.strategy.NextDispatch(s.clk.Now())

		if decision.BlockedOnCompletion {
			select {
			case comp, ok := <-s.pool.Completions():
				if ok {
					s.handleCompletion(comp)
				}
				continue dispatchLoop
			case <-ctx.Done():
				break dispatchLoop
			}
		}

		if now := s.clk.Now(); decision.At > now {
			if interrupted := s.waitForDispatchOrCompletion(ctx, decision.At); interrupted == waitCancelled {
				break dispatchLoop
			}
			// waitCompletion or waitElapsed: query the strategy again. A
			// time-based strategy only advances its schedule once a target is
			// due, so the re-query returns this same target for dispatch.
			continue dispatchLoop
		}

		payload, ok := s.src.Next()
		if !ok {
			sourceExhausted = true
			break dispatchLoop
		}

		phase := s.determinePhase(decision.At)

		if err := s.pool.Acquire(ctx); err != nil {
			break dispatchLoop
		}

		seq := s.state.NextSequenceIndex
		s.state.NextSequenceIndex++

		ticket := model.NewTicket(s.runID, payload, seq, phase, decision.At)
		s.inFlight[seq] = struct{}{}
		s.state.DispatchedByPhase[phase]++
		s.state.LiveConcurrency++
		s.state.LastDispatch = decision.At

		s.pool.Submit(ticket)
	}

	s.log.Debug().Bool("source_exhausted", sourceExhausted).Int("in_flight", len(s.inFlight)).Msg("entering drain")
	s.drain(ctx, cancel)
	return nil
}

type waitResult int

const (
	waitElapsed waitResult = iota
	waitCompletion
	waitCancelled
)

// waitForDispatchOrCompletion blocks until target, a completion arrives,
// or ctx is cancelled — whichever comes first. A completion that arrives
// early is applied immediately so the in-flight table and strategy state
// never lag behind reality (spec §5 "no component busy-waits").
func (s *Scheduler) waitForDispatchOrCompletion(ctx context.Context, target int64) waitResult {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sleepDone := make(chan struct{})
	go func() {
		_ = s.clk.SleepUntil(waitCtx, target)
		close(sleepDone)
	}()

	select {
	case comp, ok := <-s.pool.Completions():
		cancel()
		<-sleepDone
		if ok {
			s.handleCompletion(comp)
		}
		return waitCompletion
	case <-sleepDone:
		if ctx.Err() != nil {
			return waitCancelled
		}
		return waitElapsed
	}
}

// handleCompletion applies a worker's completion message: strategy
// notification, in-flight table removal, state bookkeeping, and handoff
// to the Aggregator (spec §9 one-way message passing).
func (s *Scheduler) handleCompletion(comp workerpool.Completion) {
	rec := comp.Record
	delete(s.inFlight, rec.SequenceIndex)
	if s.state.LiveConcurrency > 0 {
		s.state.LiveConcurrency--
	}
	s.state.ReceivedByPhase[rec.Phase]++
	s.strategy.OnCompletion(rec)

	// Blocks if the Aggregator falls behind; every dispatched record must
	// reach it with a terminal outcome, so dropping on backpressure would
	// silently violate that invariant.
	s.Records <- rec
}

// terminationMet evaluates the OR-combined termination conditions from
// spec §4.5 (excluding source exhaustion, which is only known once Next()
// is actually called).
func (s *Scheduler) terminationMet() bool {
	if s.state.TotalDispatched() >= s.cfg.MaxRequests {
		return true
	}
	if s.cfg.MaxSeconds > 0 && time.Duration(s.clk.Now()-s.state.StartTime) >= s.cfg.MaxSeconds {
		return true
	}
	return false
}

// determinePhase resolves the Open Question in spec §9: both wall-time
// and request-count warmup/cooldown boundaries are honored simultaneously
// when configured — a request is warmup while *either* condition holds.
func (s *Scheduler) determinePhase(dispatchTime int64) model.Phase {
	elapsed := time.Duration(dispatchTime - s.state.StartTime)
	dispatched := s.state.TotalDispatched()

	if s.inWarmup(elapsed, dispatched) {
		return model.Warmup
	}
	if s.inCooldown(elapsed) {
		return model.Cooldown
	}
	return model.Measured
}

func (s *Scheduler) inWarmup(elapsed time.Duration, dispatched uint64) bool {
	if s.cfg.WarmupRequests > 0 && dispatched < s.cfg.WarmupRequests {
		return true
	}
	if s.cfg.WarmupPercent > 0 && s.cfg.MaxSeconds > 0 {
		warmupDuration := time.Duration(float64(s.cfg.MaxSeconds) * s.cfg.WarmupPercent)
		if elapsed < warmupDuration {
			return true
		}
	}
	return false
}

func (s *Scheduler) inCooldown(elapsed time.Duration) bool {
	if s.cfg.CooldownRequests > 0 && s.cfg.MaxRequests > 0 {
		remaining := s.cfg.MaxRequests - minU64(s.state.TotalDispatched(), s.cfg.MaxRequests)
		if remaining <= s.cfg.CooldownRequests {
			return true
		}
	}
	if s.cfg.CooldownPercent > 0 && s.cfg.MaxSeconds > 0 {
		cooldownStart := time.Duration(float64(s.cfg.MaxSeconds) * (1 - s.cfg.CooldownPercent))
		if elapsed >= cooldownStart {
			return true
		}
	}
	return false
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// drain stops issuing new dispatches (already true on entry) and waits up
// to DrainTimeout for outstanding records to complete; anything still
// in-flight past the deadline is cancelled and marked Cancelled (spec
// §4.5 Drain).
func (s *Scheduler) drain(ctx context.Context, cancelRun context.CancelFunc) {
	if len(s.inFlight) == 0 {
		return
	}

	deadline := time.NewTimer(s.cfg.DrainTimeout)
	defer deadline.Stop()

	for len(s.inFlight) > 0 {
		select {
		case comp, ok := <-s.pool.Completions():
			if !ok {
				return
			}
			s.handleCompletion(comp)
		case <-deadline.C:
			s.cancelRemaining(cancelRun)
			return
		case <-ctx.Done():
			s.cancelRemaining(cancelRun)
			return
		}
	}
}

// cancelRemaining cancels every still in-flight request and marks its
// record Cancelled, draining their completions so the Aggregator still
// sees a terminal outcome for every dispatched record (spec §3 invariant).
func (s *Scheduler) cancelRemaining(cancelRun context.CancelFunc) {
	cancelRun()
	for len(s.inFlight) > 0 {
		comp := <-s.pool.Completions()
		rec := comp.Record
		if rec.Outcome == model.Pending {
			rec.Outcome = model.Cancelled
			rec.ErrorKind = model.ErrorCancelled
			if !rec.HasCompletion {
				rec.Completion = s.clk.Now()
				rec.HasCompletion = true
			}
		}
		s.handleCompletion(comp)
	}
}
