package ratestrategy

import (
	"fmt"

	"github.com/guidellm/guidellm-go/internal/config"
)

// New builds the Strategy named by cfg.RateType. Sweep is not a Strategy
// itself (it is a meta-strategy the Benchmarker orchestrates by running
// several inner strategies as separate benchmarks, spec §4.4); callers
// that reach New with RateSweep should instead consult the benchmarker
// package's sweep plan.
func New(cfg config.Config, t0 int64) (Strategy, error) {
	switch cfg.RateType {
	case config.RateSynchronous:
		return NewSynchronous(), nil
	case config.RateThroughput:
		return NewThroughput(), nil
	case config.RateConcurrent:
		return NewConcurrent(uint64(cfg.Rate)), nil
	case config.RateConstant:
		return NewConstant(t0, cfg.Rate), nil
	case config.RatePoisson:
		return NewPoisson(t0, cfg.Rate, cfg.RandomSeed), nil
	default:
		return nil, fmt.Errorf("config_invalid: no single strategy for rate type %q", cfg.RateType)
	}
}
