// Package aggregator implements the Aggregator (spec §4.7): the single
// consumer of completed RequestRecords, folding them into running
// statistics and bounded-memory percentile estimates while masking out
// warmup/cooldown phases.
//
// Grounded on the teacher's bench.Benchmark.collectorFunc (streaming
// mean/count folding, per-error-kind counting) and bench/summary.go's use
// of hdrhistogram for percentile reporting, generalized from one
// "success latency" histogram to the spec's three latency metrics (TTFT,
// end-to-end, ITL) plus achieved-rate derivation.
package aggregator

import (
	"sync"
	"time"

	"github.com/guidellm/guidellm-go/internal/model"
)

// Aggregator is single-owner: exactly one goroutine (the Benchmarker,
// draining a Scheduler's Records channel) calls Observe (spec §9
// "Aggregator is single-consumer"). The mutex guards only Snapshot/
// Finalize reading concurrently with Observe from a progress reporter.
type Aggregator struct {
	mu sync.Mutex

	retainFullFidelity bool
	retained           []*model.Record

	countByPhase   map[model.Phase]uint64
	outcomeByPhase map[model.Phase]map[model.Outcome]uint64
	errorCounts    map[model.ErrorKind]uint64

	ttft MetricAccumulator
	e2e  MetricAccumulator
	itl  MetricAccumulator

	outputTokens uint64
	promptTokens uint64

	firstActualDispatch    int64
	hasFirstActualDispatch bool
	lastCompletion         int64
	hasLastCompletion      bool
}

// MetricAccumulator bundles the streaming stats and percentile estimator
// for one latency metric. Below exactLimit observations it also retains
// the raw samples so percentiles can be computed exactly; once that limit
// is crossed the exact samples are dropped and percentiles fall back to
// the bounded-memory histogram estimator for the rest of the run (spec
// §4.7: "exact quantiles over retained samples when request count is
// below a configured memory limit").
type MetricAccumulator struct {
	Stats RunningStats
	hist  *latencyHistogram

	exactLimit int
	exact      []int64
}

func newMetricAccumulator(exactLimit int) MetricAccumulator {
	return MetricAccumulator{hist: newLatencyHistogram(), exactLimit: exactLimit}
}

func (m *MetricAccumulator) add(ns int64) {
	m.Stats.Add(float64(ns))
	m.hist.record(ns)

	if m.exactLimit <= 0 {
		return
	}
	if m.Stats.Count <= int64(m.exactLimit) {
		m.exact = append(m.exact, ns)
	} else if m.exact != nil {
		m.exact = nil
	}
}

// Summary returns a snapshot of this metric's stats and percentiles,
// using exact order statistics while still under the memory limit and the
// histogram estimate once over it.
func (m *MetricAccumulator) Summary() MetricSummary {
	if len(m.exact) > 0 {
		return MetricSummary{Stats: m.Stats, Percentiles: exactPercentiles(m.exact)}
	}
	return MetricSummary{Stats: m.Stats, Percentiles: m.hist.percentiles()}
}

// New creates an empty Aggregator. retainFullFidelity, when true, keeps
// warmup/cooldown records in the report's retained set (but still excludes
// them from statistics, per spec §4.7's final paragraph). exactQuantileLimit
// is the sample-count threshold below which percentiles are computed
// exactly rather than estimated from the histogram; zero disables exact
// quantiles entirely.
func New(retainFullFidelity bool, exactQuantileLimit int) *Aggregator {
	return &Aggregator{
		retainFullFidelity: retainFullFidelity,
		countByPhase:       make(map[model.Phase]uint64),
		outcomeByPhase:     make(map[model.Phase]map[model.Outcome]uint64),
		errorCounts:        make(map[model.ErrorKind]uint64),
		ttft:               newMetricAccumulator(exactQuantileLimit),
		e2e:                newMetricAccumulator(exactQuantileLimit),
		itl:                newMetricAccumulator(exactQuantileLimit),
	}
}

// Observe folds one terminal RequestRecord in. Only measured-phase
// records contribute to statistics (spec §3 invariant); all phases are
// counted by outcome so the report's progress/error breakdown stays
// accurate even when warmup/cooldown windows are configured.
func (a *Aggregator) Observe(rec *model.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.countByPhase[rec.Phase]++
	if a.outcomeByPhase[rec.Phase] == nil {
		a.outcomeByPhase[rec.Phase] = make(map[model.Outcome]uint64)
	}
	a.outcomeByPhase[rec.Phase][rec.Outcome]++

	if rec.Outcome == model.Failed || rec.Outcome == model.Cancelled {
		a.errorCounts[rec.ErrorKind]++
	}

	if rec.Phase == model.Measured || a.retainFullFidelity {
		a.retained = append(a.retained, rec)
	}

	if rec.Phase != model.Measured {
		return
	}
	if rec.Outcome != model.Completed {
		return
	}

	if ttft, ok := rec.TTFT(); ok {
		a.ttft.add(ttft)
	}
	if e2e, ok := rec.EndToEnd(); ok {
		a.e2e.add(e2e)
	}
	for _, itl := range rec.InterTokenLatencies() {
		a.itl.add(itl)
	}

	a.outputTokens += uint64(rec.OutputTokens)
	a.promptTokens += uint64(rec.PromptTokens)

	if rec.HasActualDispatch {
		if !a.hasFirstActualDispatch || rec.ActualDispatch < a.firstActualDispatch {
			a.firstActualDispatch = rec.ActualDispatch
			a.hasFirstActualDispatch = true
		}
	}
	if rec.HasCompletion {
		if !a.hasLastCompletion || rec.Completion > a.lastCompletion {
			a.lastCompletion = rec.Completion
			a.hasLastCompletion = true
		}
	}
}

// Totals is a point-in-time snapshot for progress reporting (spec §7 "in-
// flight count, completed counts by outcome, and running rate").
type Totals struct {
	CountByPhase   map[model.Phase]uint64
	OutcomeByPhase map[model.Phase]map[model.Outcome]uint64
	ErrorCounts    map[model.ErrorKind]uint64
}

// Snapshot returns the current per-phase counts without finalizing
// anything, safe to call concurrently with Observe.
func (a *Aggregator) Snapshot() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := Totals{
		CountByPhase:   make(map[model.Phase]uint64, len(a.countByPhase)),
		OutcomeByPhase: make(map[model.Phase]map[model.Outcome]uint64, len(a.outcomeByPhase)),
		ErrorCounts:    make(map[model.ErrorKind]uint64, len(a.errorCounts)),
	}
	for k, v := range a.countByPhase {
		t.CountByPhase[k] = v
	}
	for phase, byOutcome := range a.outcomeByPhase {
		inner := make(map[model.Outcome]uint64, len(byOutcome))
		for o, n := range byOutcome {
			inner[o] = n
		}
		t.OutcomeByPhase[phase] = inner
	}
	for k, v := range a.errorCounts {
		t.ErrorCounts[k] = v
	}
	return t
}

// Result is the Aggregator's final computed output, folded by the
// Benchmarker into a BenchmarkReport.
type Result struct {
	RetainedRecords []*model.Record

	TTFT MetricSummary
	E2E  MetricSummary
	ITL  MetricSummary

	MeasuredCompleted uint64
	ErrorCounts       map[model.ErrorKind]uint64
	OutcomeByPhase    map[model.Phase]map[model.Outcome]uint64

	// AchievedRequestRate is measured-phase completed count divided by
	// measured-phase wall duration (spec §4.7).
	AchievedRequestRate float64
	// AchievedOutputTokenRate is total measured-phase output tokens
	// divided by the same duration.
	AchievedOutputTokenRate float64
	PromptTokens            uint64
	OutputTokens            uint64
}

// Finalize computes the derived rate metrics and returns the immutable
// Result. Safe to call more than once (e.g. best-effort on an internal
// error mid-run, per the Benchmarker's design note); later calls reflect
// whatever was observed by that point.
func (a *Aggregator) Finalize() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	var duration time.Duration
	if a.hasFirstActualDispatch && a.hasLastCompletion && a.lastCompletion > a.firstActualDispatch {
		duration = time.Duration(a.lastCompletion - a.firstActualDispatch)
	}

	completed := a.outcomeByPhase[model.Measured][model.Completed]

	var reqRate, tokRate float64
	if duration > 0 {
		seconds := duration.Seconds()
		reqRate = float64(completed) / seconds
		tokRate = float64(a.outputTokens) / seconds
	}

	errCopy := make(map[model.ErrorKind]uint64, len(a.errorCounts))
	for k, v := range a.errorCounts {
		errCopy[k] = v
	}
	outcomeCopy := make(map[model.Phase]map[model.Outcome]uint64, len(a.outcomeByPhase))
	for phase, byOutcome := range a.outcomeByPhase {
		inner := make(map[model.Outcome]uint64, len(byOutcome))
		for o, n := range byOutcome {
			inner[o] = n
		}
		outcomeCopy[phase] = inner
	}

	return Result{
		RetainedRecords:         append([]*model.Record(nil), a.retained...),
		TTFT:                    a.ttft.Summary(),
		E2E:                     a.e2e.Summary(),
		ITL:                     a.itl.Summary(),
		MeasuredCompleted:       completed,
		ErrorCounts:             errCopy,
		OutcomeByPhase:          outcomeCopy,
		AchievedRequestRate:     reqRate,
		AchievedOutputTokenRate: tokRate,
		PromptTokens:            a.promptTokens,
		OutputTokens:            a.outputTokens,
	}
}
