package aggregator

import (
	"math"
	"sort"
)

// RunningStats is a streaming accumulator (count, sum, sum-of-squares,
// min, max) kept without retaining samples, the same shape the teacher's
// bench.Benchmark.collectorFunc folds avgRequestTime from, generalized to
// report variance and extremes too.
type RunningStats struct {
	Count int64
	Sum   float64
	SumSq float64
	Min   float64
	Max   float64
}

// Add folds one observation (nanoseconds, or a token count) into the
// accumulator.
func (r *RunningStats) Add(v float64) {
	if r.Count == 0 {
		r.Min, r.Max = v, v
	} else {
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	r.Count++
	r.Sum += v
	r.SumSq += v * v
}

// Mean returns the running mean, or 0 if no observations were added.
func (r *RunningStats) Mean() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.Sum / float64(r.Count)
}

// StdDev returns the population standard deviation.
func (r *RunningStats) StdDev() float64 {
	if r.Count == 0 {
		return 0
	}
	mean := r.Mean()
	variance := r.SumSq/float64(r.Count) - mean*mean
	if variance < 0 {
		// Rounding error on near-constant samples can push this slightly
		// negative; clamp rather than return NaN from Sqrt.
		variance = 0
	}
	return math.Sqrt(variance)
}

// Percentiles is the fixed set of quantiles the report publishes for every
// latency metric.
type Percentiles struct {
	P50 float64
	P75 float64
	P90 float64
	P95 float64
	P99 float64
}

// MetricSummary bundles a RunningStats snapshot with its percentile
// estimate for one latency metric, in nanoseconds.
type MetricSummary struct {
	Stats       RunningStats
	Percentiles Percentiles
}

// exactPercentiles computes the fixed quantile set by nearest-rank order
// statistic over a copy of samples, used while the sample count is below
// the configured exact-quantile memory limit (spec §4.7).
func exactPercentiles(samples []int64) Percentiles {
	sorted := append([]int64(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return Percentiles{
		P50: float64(quantileAt(sorted, 0.50)),
		P75: float64(quantileAt(sorted, 0.75)),
		P90: float64(quantileAt(sorted, 0.90)),
		P95: float64(quantileAt(sorted, 0.95)),
		P99: float64(quantileAt(sorted, 0.99)),
	}
}

func quantileAt(sorted []int64, q float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	} else if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
