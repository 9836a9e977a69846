package aggregator

import "github.com/codahale/hdrhistogram"

// Histogram bounds for latency-metric recording, in nanoseconds. Mirrors
// the teacher's bench.minRecordableLatencyNS/maxRecordableLatencyNS/
// sigFigs constants, widened from 100s to 300s of latency headroom since
// end-to-end generation latency (unlike the teacher's single RPC) can
// legitimately run for minutes under a large max_tokens.
const (
	minRecordableLatencyNS = 1_000
	maxRecordableLatencyNS = 300_000_000_000
	sigFigs                = 5
)

// latencyHistogram wraps hdrhistogram.Histogram as the Aggregator's
// bounded-memory percentile estimator (spec's "compressed-histogram...
// with documented error bounds": HDR histogram bounds relative error to
// 10^-sigFigs of the recorded value, independent of sample count).
type latencyHistogram struct {
	h *hdrhistogram.Histogram
}

func newLatencyHistogram() *latencyHistogram {
	return &latencyHistogram{h: hdrhistogram.New(minRecordableLatencyNS, maxRecordableLatencyNS, sigFigs)}
}

// record folds one nanosecond latency sample in, clamping to the
// histogram's recordable range rather than erroring — an out-of-range
// sample is still worth counting approximately at the boundary.
func (l *latencyHistogram) record(ns int64) {
	if ns < minRecordableLatencyNS {
		ns = minRecordableLatencyNS
	}
	if ns > maxRecordableLatencyNS {
		ns = maxRecordableLatencyNS
	}
	_ = l.h.RecordValue(ns)
}

func (l *latencyHistogram) percentiles() Percentiles {
	return Percentiles{
		P50: float64(l.h.ValueAtQuantile(50)),
		P75: float64(l.h.ValueAtQuantile(75)),
		P90: float64(l.h.ValueAtQuantile(90)),
		P95: float64(l.h.ValueAtQuantile(95)),
		P99: float64(l.h.ValueAtQuantile(99)),
	}
}
