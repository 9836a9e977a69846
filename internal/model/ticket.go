package model

import "github.com/google/uuid"

// Ticket is what the Scheduler hands to the Worker Pool for each payload it
// releases (spec §4.5 step 5: "Build a DispatchTicket... hand the ticket to
// the worker pool"). Immutable once built; the pool derives the fresh
// RequestRecord from it.
type Ticket struct {
	RunID            uuid.UUID
	Payload          Payload
	SequenceIndex    uint64
	Phase            Phase
	TargetedDispatch int64 // monotonic ns; when the strategy wanted this dispatched
}

// NewTicket builds a Ticket for one dispatch.
func NewTicket(runID uuid.UUID, payload Payload, seq uint64, phase Phase, targetedDispatch int64) *Ticket {
	return &Ticket{
		RunID:            runID,
		Payload:          payload,
		SequenceIndex:    seq,
		Phase:            phase,
		TargetedDispatch: targetedDispatch,
	}
}
