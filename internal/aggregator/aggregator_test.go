package aggregator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/guidellm/guidellm-go/internal/model"
)

func completedRecord(seq uint64, phase model.Phase, dispatch, firstToken, lastToken, completion int64, tokens int) *model.Record {
	rec := model.NewRecord(uuid.Nil, seq, phase, 0, dispatch)
	rec.ActualDispatch = dispatch
	rec.HasActualDispatch = true
	rec.FirstToken = firstToken
	rec.HasFirstToken = true
	rec.LastToken = lastToken
	rec.HasLastToken = true
	rec.Completion = completion
	rec.HasCompletion = true
	rec.Outcome = model.Completed
	rec.OutputTokens = tokens
	rec.PromptTokens = 10
	step := (lastToken - firstToken) / int64(maxInt(tokens-1, 1))
	for i := 0; i < tokens; i++ {
		rec.TokenArrivals = append(rec.TokenArrivals, model.TokenArrival{Time: firstToken + int64(i)*step, Delta: 1})
	}
	return rec
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestAggregatorIgnoresWarmupAndCooldown(t *testing.T) {
	a := New(false, 1000)

	a.Observe(completedRecord(0, model.Warmup, 0, 1_000_000, 2_000_000, 3_000_000, 3))
	a.Observe(completedRecord(1, model.Measured, 10_000_000, 11_000_000, 12_000_000, 13_000_000, 3))
	a.Observe(completedRecord(2, model.Cooldown, 20_000_000, 21_000_000, 22_000_000, 23_000_000, 3))

	result := a.Finalize()

	require.Equal(t, uint64(1), result.MeasuredCompleted)
	require.Len(t, result.RetainedRecords, 1)
	require.Equal(t, model.Measured, result.RetainedRecords[0].Phase)
	require.EqualValues(t, 1, result.TTFT.Stats.Count)
}

func TestAggregatorRetainsAllPhasesWhenFullFidelity(t *testing.T) {
	a := New(true, 1000)

	a.Observe(completedRecord(0, model.Warmup, 0, 1_000_000, 2_000_000, 3_000_000, 3))
	a.Observe(completedRecord(1, model.Measured, 10_000_000, 11_000_000, 12_000_000, 13_000_000, 3))

	result := a.Finalize()
	require.Len(t, result.RetainedRecords, 2)
	// Statistics still mask out the warmup record.
	require.EqualValues(t, 1, result.TTFT.Stats.Count)
}

func TestAggregatorTracksErrorsByKind(t *testing.T) {
	a := New(false, 1000)

	rec := model.NewRecord(uuid.Nil, 0, model.Measured, 0, 0)
	rec.Outcome = model.Failed
	rec.ErrorKind = model.ErrorTimeout
	rec.HasActualDispatch = true
	rec.HasCompletion = true
	a.Observe(rec)

	result := a.Finalize()
	require.Equal(t, uint64(1), result.ErrorCounts[model.ErrorTimeout])
	require.Equal(t, uint64(0), result.MeasuredCompleted)
}

func TestAggregatorComputesAchievedRates(t *testing.T) {
	a := New(false, 1000)

	// Two measured requests spanning exactly one second of wall duration,
	// 5 output tokens each.
	a.Observe(completedRecord(0, model.Measured, 0, 100_000_000, 200_000_000, 500_000_000, 5))
	a.Observe(completedRecord(1, model.Measured, 100_000_000, 300_000_000, 400_000_000, 1_000_000_000, 5))

	result := a.Finalize()
	require.InDelta(t, 2.0, result.AchievedRequestRate, 0.01)
	require.InDelta(t, 10.0, result.AchievedOutputTokenRate, 0.01)
}
