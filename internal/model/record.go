package model

import "github.com/google/uuid"

// TokenArrival is one streamed token (or token group)'s observation time.
type TokenArrival struct {
	Time  int64 // monotonic ns
	Delta int   // token_count_delta reported with this chunk
}

// Record is one row of measurement. Created by the Scheduler at dispatch
// time with TargetedDispatch set; mutated only by the worker handling it;
// ownership transfers to the Aggregator once a terminal Outcome is set.
//
// Invariant: TargetedDispatch <= ActualDispatch <= FirstResponseByte <=
// FirstToken <= LastToken <= Completion, for every timestamp that is set
// (whether a timestamp was reached is tracked via the Has* booleans below,
// not by a zero value, since 0 is a legitimate monotonic timestamp close
// to the epoch).
type Record struct {
	RunID         uuid.UUID
	SequenceIndex uint64
	Phase         Phase
	DatasetIndex  int

	TargetedDispatch  int64
	ActualDispatch    int64
	HasActualDispatch bool

	FirstResponseByte    int64
	HasFirstResponseByte bool

	FirstToken    int64
	HasFirstToken bool

	LastToken    int64
	HasLastToken bool

	Completion    int64
	HasCompletion bool

	TokenArrivals []TokenArrival

	PromptTokens int
	OutputTokens int

	Outcome      Outcome
	ErrorKind    ErrorKind
	ErrorMessage string
}

// NewRecord creates a freshly-dispatched record: identity and
// TargetedDispatch set, everything else pending.
func NewRecord(runID uuid.UUID, seq uint64, phase Phase, datasetIndex int, targetedDispatch int64) *Record {
	return &Record{
		RunID:            runID,
		SequenceIndex:    seq,
		Phase:            phase,
		DatasetIndex:     datasetIndex,
		TargetedDispatch: targetedDispatch,
		Outcome:          Pending,
	}
}

// TTFT returns the time-to-first-token and whether it is defined (both
// ActualDispatch and FirstToken must have been reached).
func (r *Record) TTFT() (int64, bool) {
	if !r.HasActualDispatch || !r.HasFirstToken {
		return 0, false
	}
	return r.FirstToken - r.ActualDispatch, true
}

// EndToEnd returns the completion - actual_dispatch latency and whether it
// is defined.
func (r *Record) EndToEnd() (int64, bool) {
	if !r.HasActualDispatch || !r.HasCompletion {
		return 0, false
	}
	return r.Completion - r.ActualDispatch, true
}

// InterTokenLatencies returns the successive differences within the
// token-arrival sequence, starting from FirstToken (spec's resolution of
// the ITL open question: excludes the actual_dispatch -> first_token gap).
func (r *Record) InterTokenLatencies() []int64 {
	if len(r.TokenArrivals) < 2 {
		return nil
	}
	out := make([]int64, 0, len(r.TokenArrivals)-1)
	for i := 1; i < len(r.TokenArrivals); i++ {
		out = append(out, r.TokenArrivals[i].Time-r.TokenArrivals[i-1].Time)
	}
	return out
}
