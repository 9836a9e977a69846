package ratestrategy

import "github.com/guidellm/guidellm-go/internal/model"

// Synchronous runs exactly one request in flight at a time: the next
// dispatch waits for the previous request's completion (spec §4.4). Not
// thread-safe on its own — callers (the Scheduler) must serialize access,
// per spec §9's "one-way message passing" design note: the Scheduler
// applies strategy calls single-threadedly, workers only emit completion
// messages.
type Synchronous struct {
	available bool
}

// NewSynchronous creates a Synchronous strategy with its first slot open.
func NewSynchronous() *Synchronous {
	return &Synchronous{available: true}
}

func (s *Synchronous) NextDispatch(now int64) Decision {
	if s.available {
		s.available = false
		return Decision{At: now}
	}
	return Decision{BlockedOnCompletion: true}
}

func (s *Synchronous) OnCompletion(rec *model.Record) {
	s.available = true
}
