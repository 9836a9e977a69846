package ratestrategy

import (
	"math"
	"math/rand"

	"github.com/guidellm/guidellm-go/internal/model"
)

// Poisson dispatches with exponentially-distributed inter-arrival times
// sampled from a seeded RNG (spec §4.4), so the sequence of
// TargetedDispatch times is reproducible given the same seed (spec §5
// "Determinism"). The inverse-transform sampling and "base next event on
// the planned time, not the actual time" anti-catch-up technique are
// ported from the pack's Andrewmatilde-cpusim load collector.
type Poisson struct {
	rng           *rand.Rand
	rate          float64
	nextEventTime int64
}

// NewPoisson creates a Poisson(rate) strategy anchored at t0 (the first
// dispatch's target), seeded by seed for reproducibility.
func NewPoisson(t0 int64, rate float64, seed int64) *Poisson {
	return &Poisson{
		rng:           rand.New(rand.NewSource(seed)),
		rate:          rate,
		nextEventTime: t0,
	}
}

func (p *Poisson) NextDispatch(now int64) Decision {
	target := p.nextEventTime
	if now >= target {
		p.nextEventTime = target + p.sampleInterval()
	}
	return Decision{At: target}
}

// sampleInterval draws one exponential inter-arrival time via inverse
// transform sampling: X = -ln(U)/rate where U ~ Uniform(0,1).
func (p *Poisson) sampleInterval() int64 {
	u := p.rng.Float64()
	if u == 0 {
		u = 1e-10
	}
	seconds := -math.Log(u) / p.rate
	return int64(seconds * 1e9)
}

func (p *Poisson) OnCompletion(rec *model.Record) {}
