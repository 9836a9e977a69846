// Package benchmarker implements the Benchmarker (spec §4.8): it drives
// one or more runs — a sweep is several — resetting the source and
// constructing a fresh scheduler/aggregator pair for each, then
// assembles the final report(s).
//
// Grounded on the teacher's main.go (config -> benchmark -> summary
// pipeline) generalized from one fixed-rate run to the spec's sweep
// meta-strategy, and on bench.Benchmark.Run's top-level orchestration
// shape (build workers, run, collect, summarize).
package benchmarker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guidellm/guidellm-go/internal/aggregator"
	"github.com/guidellm/guidellm-go/internal/backend"
	"github.com/guidellm/guidellm-go/internal/clock"
	"github.com/guidellm/guidellm-go/internal/config"
	"github.com/guidellm/guidellm-go/internal/ratestrategy"
	"github.com/guidellm/guidellm-go/internal/report"
	"github.com/guidellm/guidellm-go/internal/scheduler"
	"github.com/guidellm/guidellm-go/internal/source"
	"github.com/guidellm/guidellm-go/internal/workerpool"
)

// Benchmarker owns one logical benchmark invocation: a probe, then one
// run (or, for rate_type=sweep, several runs over a derived list of
// strategies).
type Benchmarker struct {
	cfg     config.Config
	adapter backend.Adapter
	src     source.Source
	clk     clock.Clock
	log     zerolog.Logger
}

// New creates a Benchmarker. cfg must already have passed Validate.
func New(cfg config.Config, adapter backend.Adapter, src source.Source, clk clock.Clock, log zerolog.Logger) *Benchmarker {
	return &Benchmarker{cfg: cfg, adapter: adapter, src: src, clk: clk, log: log.With().Str("component", "benchmarker").Logger()}
}

// Probe validates backend reachability before any measurement (spec §4.2,
// §7 backend_unreachable — fatal before dispatch).
func (b *Benchmarker) Probe(ctx context.Context) error {
	if err := b.adapter.Probe(ctx); err != nil {
		return fmt.Errorf("backend_unreachable: %w", err)
	}
	return nil
}

// Run executes the configured rate_type. For rate_type=sweep this runs
// several inner strategies in sequence and returns a SweepReport;
// otherwise it runs once and wraps the single BenchmarkReport.
func (b *Benchmarker) Run(ctx context.Context) (*report.SweepReport, error) {
	if b.cfg.RateType != config.RateSweep {
		rep, err := b.runOne(ctx, b.cfg)
		return &report.SweepReport{Steps: []report.BenchmarkReport{rep}}, err
	}
	return b.runSweep(ctx)
}

// runOne executes a single strategy end to end: builds the worker pool,
// rate strategy, and scheduler, drains the scheduler's Records into a
// fresh Aggregator, and folds the result into a BenchmarkReport (spec
// §4.8).
func (b *Benchmarker) runOne(ctx context.Context, cfg config.Config) (report.BenchmarkReport, error) {
	b.src.Reset()

	runID := uuid.New()
	startedAt := time.Now()
	t0 := b.clk.Now()

	strategy, err := ratestrategy.New(cfg, t0)
	if err != nil {
		return report.BenchmarkReport{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := workerpool.New(runCtx, int64(cfg.MaxConcurrency), b.adapter, b.clk, cfg.RequestTimeout, int(cfg.MaxConcurrency)*2)
	sched := scheduler.New(cfg, strategy, pool, b.src, b.clk, runID, t0, b.log)

	agg := aggregator.New(false, cfg.ExactQuantileLimit)

	schedErr := make(chan error, 1)
	go func() {
		schedErr <- sched.Run(runCtx, cancel)
	}()

	for rec := range sched.Records {
		agg.Observe(rec)
	}

	if err := <-schedErr; err != nil {
		// Internal invariant violation (spec §7 "internal"): still attempt
		// to flush whatever the aggregator collected before surfacing it.
		result := agg.Finalize()
		rep := report.FromAggregatorResult(runID, cfg, startedAt, time.Since(startedAt), result)
		return rep, fmt.Errorf("internal: scheduler run failed: %w", err)
	}

	result := agg.Finalize()
	return report.FromAggregatorResult(runID, cfg, startedAt, time.Since(startedAt), result), nil
}

// runSweep resolves the Open Question in spec §9: the step list is
// synchronous, then throughput, then SweepSteps geometrically-spaced
// constant(r) rates between the two runs' observed achieved request
// rates.
func (b *Benchmarker) runSweep(ctx context.Context) (*report.SweepReport, error) {
	syncCfg := b.cfg
	syncCfg.RateType = config.RateSynchronous
	syncRep, err := b.runOne(ctx, syncCfg)
	if err != nil {
		return &report.SweepReport{Steps: []report.BenchmarkReport{syncRep}}, err
	}

	throughputCfg := b.cfg
	throughputCfg.RateType = config.RateThroughput
	throughputRep, err := b.runOne(ctx, throughputCfg)
	if err != nil {
		return &report.SweepReport{Steps: []report.BenchmarkReport{syncRep, throughputRep}}, err
	}

	steps := []report.BenchmarkReport{syncRep, throughputRep}

	low, high := syncRep.AchievedRequestRate, throughputRep.AchievedRequestRate
	if low <= 0 {
		low = 1
	}
	if high <= low {
		high = low * 2
	}

	n := b.cfg.SweepSteps
	if n <= 0 {
		n = 5
	}

	for _, rate := range geometricSteps(low, high, n) {
		stepCfg := b.cfg
		stepCfg.RateType = config.RateConstant
		stepCfg.Rate = rate

		rep, err := b.runOne(ctx, stepCfg)
		if err != nil {
			steps = append(steps, rep)
			return &report.SweepReport{Steps: steps}, err
		}
		steps = append(steps, rep)
	}

	return &report.SweepReport{Steps: steps}, nil
}

// geometricSteps returns n rates geometrically spaced strictly between
// low and high (exclusive of both endpoints, which the synchronous and
// throughput runs already cover).
func geometricSteps(low, high float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	ratio := math.Pow(high/low, 1.0/float64(n+1))
	steps := make([]float64, n)
	r := low
	for i := 0; i < n; i++ {
		r *= ratio
		steps[i] = r
	}
	return steps
}
