package ratestrategy

import "github.com/guidellm/guidellm-go/internal/model"

// Constant dispatches at t_k = t0 + k/rate, unbounded concurrency (capped
// only by the Worker Pool). It does not adjust for overrun: if dispatch
// falls behind, it dispatches back-to-back — one per NextDispatch call,
// never batching multiple tickets in one call — until the schedule catches
// up (spec §4.4 tie-break rule). A call made before the current target is
// due returns that target without advancing the schedule.
type Constant struct {
	t0         int64
	intervalNS float64
	k          uint64
}

// NewConstant creates a Constant(rate) strategy anchored at t0 (the run's
// monotonic start time).
func NewConstant(t0 int64, rate float64) *Constant {
	return &Constant{t0: t0, intervalNS: 1e9 / rate}
}

func (c *Constant) NextDispatch(now int64) Decision {
	target := c.t0 + int64(float64(c.k)*c.intervalNS)
	if now >= target {
		c.k++
	}
	return Decision{At: target}
}

func (c *Constant) OnCompletion(rec *model.Record) {}
