package ratestrategy

import "github.com/guidellm/guidellm-go/internal/model"

// Concurrent holds exactly N requests in flight: on each completion it
// releases exactly one slot (spec §4.4).
type Concurrent struct {
	limit   uint64
	inFlight uint64
}

// NewConcurrent creates a Concurrent(limit) strategy.
func NewConcurrent(limit uint64) *Concurrent {
	return &Concurrent{limit: limit}
}

func (c *Concurrent) NextDispatch(now int64) Decision {
	if c.inFlight < c.limit {
		c.inFlight++
		return Decision{At: now}
	}
	return Decision{BlockedOnCompletion: true}
}

func (c *Concurrent) OnCompletion(rec *model.Record) {
	if c.inFlight > 0 {
		c.inFlight--
	}
}
