package model

import "github.com/google/uuid"

// State is the per-run accumulator owned by the Scheduler for the
// duration of one benchmark run. Rate strategies keep their own private
// state (Poisson RNG, sweep index, …) behind the ratestrategy.Strategy
// interface; State tracks only what the Scheduler itself needs to make
// phase/termination decisions.
type State struct {
	RunID uuid.UUID

	StartTime int64 // monotonic ns, set when the run begins

	DispatchedByPhase map[Phase]uint64
	ReceivedByPhase   map[Phase]uint64

	LiveConcurrency uint64
	LastDispatch    int64

	NextSequenceIndex uint64
}

// NewState creates a fresh per-run accumulator.
func NewState(runID uuid.UUID, startTime int64) *State {
	return &State{
		RunID:             runID,
		StartTime:         startTime,
		DispatchedByPhase: make(map[Phase]uint64),
		ReceivedByPhase:   make(map[Phase]uint64),
	}
}

// TotalDispatched sums dispatched counts across all phases.
func (s *State) TotalDispatched() uint64 {
	var total uint64
	for _, n := range s.DispatchedByPhase {
		total += n
	}
	return total
}
