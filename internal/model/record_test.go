package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTTFTUndefinedUntilFirstToken(t *testing.T) {
	rec := NewRecord(uuid.Nil, 0, Measured, 0, 0)
	_, ok := rec.TTFT()
	require.False(t, ok)

	rec.ActualDispatch = 10
	rec.HasActualDispatch = true
	rec.FirstToken = 30
	rec.HasFirstToken = true

	ttft, ok := rec.TTFT()
	require.True(t, ok)
	require.Equal(t, int64(20), ttft)
}

func TestEndToEndRequiresCompletion(t *testing.T) {
	rec := NewRecord(uuid.Nil, 0, Measured, 0, 0)
	rec.ActualDispatch = 5
	rec.HasActualDispatch = true

	_, ok := rec.EndToEnd()
	require.False(t, ok)

	rec.Completion = 105
	rec.HasCompletion = true
	e2e, ok := rec.EndToEnd()
	require.True(t, ok)
	require.Equal(t, int64(100), e2e)
}

func TestInterTokenLatenciesExcludesFirstTokenGap(t *testing.T) {
	rec := NewRecord(uuid.Nil, 0, Measured, 0, 0)
	rec.ActualDispatch = 0
	rec.HasActualDispatch = true
	rec.TokenArrivals = []TokenArrival{
		{Time: 100, Delta: 1},
		{Time: 120, Delta: 1},
		{Time: 150, Delta: 1},
	}

	itl := rec.InterTokenLatencies()
	require.Equal(t, []int64{20, 30}, itl)
}

func TestInterTokenLatenciesNilWithFewerThanTwoTokens(t *testing.T) {
	rec := NewRecord(uuid.Nil, 0, Measured, 0, 0)
	rec.TokenArrivals = []TokenArrival{{Time: 100, Delta: 1}}
	require.Nil(t, rec.InterTokenLatencies())
}

func TestStateTotalDispatchedSumsAllPhases(t *testing.T) {
	s := NewState(uuid.Nil, 0)
	s.DispatchedByPhase[Warmup] = 3
	s.DispatchedByPhase[Measured] = 7
	s.DispatchedByPhase[Cooldown] = 2
	require.Equal(t, uint64(12), s.TotalDispatched())
}
