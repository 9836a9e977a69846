// Package report implements the BenchmarkReport value object (spec §3,
// §6) and its human-readable rendering, the role bench/summary.go's
// Summary played for the teacher — generalized from one flat latency
// histogram to the three latency metrics (TTFT, end-to-end, ITL) the
// Aggregator produces, and from a single run to one report per sweep
// step.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/guidellm/guidellm-go/internal/aggregator"
	"github.com/guidellm/guidellm-go/internal/config"
	"github.com/guidellm/guidellm-go/internal/model"
)

// BenchmarkReport is one run's immutable, serializable result (spec §3).
// The struct carries no encoding tags: cmd/guidellm persists it as YAML
// with yaml.v2's default field naming, and no JSON or CSV encoder is
// wired, so the struct itself is the contract.
type BenchmarkReport struct {
	RunID     uuid.UUID
	Config    config.Config
	StartedAt time.Time
	Duration  time.Duration

	Records []*model.Record

	TTFT aggregator.MetricSummary
	E2E  aggregator.MetricSummary
	ITL  aggregator.MetricSummary

	MeasuredCompleted      uint64
	AchievedRequestRate    float64
	AchievedOutputTokenRate float64
	PromptTokens           uint64
	OutputTokens           uint64

	ErrorCounts    map[model.ErrorKind]uint64
	OutcomeByPhase map[model.Phase]map[model.Outcome]uint64
}

// FromAggregatorResult assembles a BenchmarkReport from one run's
// Aggregator output; the Benchmarker is the only caller (spec §4.8).
func FromAggregatorResult(runID uuid.UUID, cfg config.Config, startedAt time.Time, duration time.Duration, result aggregator.Result) BenchmarkReport {
	return BenchmarkReport{
		RunID:                   runID,
		Config:                  cfg,
		StartedAt:               startedAt,
		Duration:                duration,
		Records:                 result.RetainedRecords,
		TTFT:                    result.TTFT,
		E2E:                     result.E2E,
		ITL:                     result.ITL,
		MeasuredCompleted:       result.MeasuredCompleted,
		AchievedRequestRate:     result.AchievedRequestRate,
		AchievedOutputTokenRate: result.AchievedOutputTokenRate,
		PromptTokens:            result.PromptTokens,
		OutputTokens:            result.OutputTokens,
		ErrorCounts:             result.ErrorCounts,
		OutcomeByPhase:          result.OutcomeByPhase,
	}
}

// Undefined reports spec §7's "a run with zero successful measured-phase
// requests emits the report but flags statistics as undefined".
func (r *BenchmarkReport) Undefined() bool {
	return r.MeasuredCompleted == 0
}

func ms(ns float64) float64 { return ns / 1e6 }

// String renders a human-readable summary, the same role
// bench/summary.go's Summary.String() played for the teacher: a header
// line followed by tablewriter-rendered metric and error-breakdown
// tables.
func (r *BenchmarkReport) String() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "\n{RunID: %s, RateType: %s, MeasuredCompleted: %d, AchievedRate: %.2f req/s, TokenRate: %.2f tok/s, Duration: %s}\n",
		r.RunID, r.Config.RateType, r.MeasuredCompleted, r.AchievedRequestRate, r.AchievedOutputTokenRate, r.Duration)

	if r.Undefined() {
		buf.WriteString("\nNo successful measured-phase requests; latency statistics are undefined.\n")
	}

	buf.WriteString("\n")
	metrics := tablewriter.NewWriter(&buf)
	metrics.SetHeader([]string{"Metric", "Mean (ms)", "StdDev (ms)", "P50", "P75", "P90", "P95", "P99"})
	appendMetricRow(metrics, "TTFT", r.TTFT)
	appendMetricRow(metrics, "End-to-End", r.E2E)
	appendMetricRow(metrics, "Inter-Token Latency", r.ITL)
	metrics.Render()

	if len(r.ErrorCounts) > 0 {
		buf.WriteString("\n")
		errTable := tablewriter.NewWriter(&buf)
		errTable.SetHeader([]string{"Error", "Count"})

		type row struct {
			kind  model.ErrorKind
			count uint64
		}
		rows := make([]row, 0, len(r.ErrorCounts))
		for k, v := range r.ErrorCounts {
			rows = append(rows, row{k, v})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].count > rows[j].count })
		for _, rw := range rows {
			errTable.Append([]string{rw.kind.String(), strconv.FormatUint(rw.count, 10)})
		}
		errTable.Render()
	}

	return buf.String()
}

func appendMetricRow(w *tablewriter.Table, label string, m aggregator.MetricSummary) {
	if m.Stats.Count == 0 {
		w.Append([]string{label, "-", "-", "-", "-", "-", "-", "-"})
		return
	}
	w.Append([]string{
		label,
		strconv.FormatFloat(ms(m.Stats.Mean()), 'f', 2, 64),
		strconv.FormatFloat(ms(m.Stats.StdDev()), 'f', 2, 64),
		strconv.FormatFloat(ms(m.Percentiles.P50), 'f', 2, 64),
		strconv.FormatFloat(ms(m.Percentiles.P75), 'f', 2, 64),
		strconv.FormatFloat(ms(m.Percentiles.P90), 'f', 2, 64),
		strconv.FormatFloat(ms(m.Percentiles.P95), 'f', 2, 64),
		strconv.FormatFloat(ms(m.Percentiles.P99), 'f', 2, 64),
	})
}

// SweepReport bundles every step's BenchmarkReport from a sweep run
// (spec §4.4's sweep meta-strategy "each inner strategy runs as a
// separate benchmark").
type SweepReport struct {
	Steps []BenchmarkReport
}

func (r *SweepReport) String() string {
	var buf bytes.Buffer
	for i, step := range r.Steps {
		fmt.Fprintf(&buf, "--- sweep step %d/%d (%s) ---", i+1, len(r.Steps), step.Config.RateType)
		buf.WriteString(step.String())
	}
	return buf.String()
}
