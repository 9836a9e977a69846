package ratestrategy

import "github.com/guidellm/guidellm-go/internal/model"

// Throughput dispatches as fast as the source and worker pool allow;
// concurrency is bounded only by the Worker Pool's cap, not by this
// strategy (spec §4.4).
type Throughput struct{}

func NewThroughput() *Throughput { return &Throughput{} }

func (t *Throughput) NextDispatch(now int64) Decision {
	return Decision{At: now}
}

func (t *Throughput) OnCompletion(rec *model.Record) {}
