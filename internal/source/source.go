// Package source implements the Request Source contract: a restartable,
// single-consumer lazy sequence of request payloads. Dataset loading and
// synthetic prompt generation proper are out-of-scope external
// collaborators (spec §1); the two sources here are deliberately thin
// stand-ins that satisfy the same contract so the Scheduler exercises the
// real interface end to end.
package source

import (
	"math/rand"

	"github.com/guidellm/guidellm-go/internal/model"
)

// Source is a restartable lazy sequence of payloads. Safe for
// single-consumer use only (spec §6).
type Source interface {
	// Reset returns the source to its start.
	Reset()

	// Next returns the next payload, or ok=false if the source is
	// exhausted (finite sources only; infinite sources never return
	// false).
	Next() (payload model.Payload, ok bool)
}

// SamplingPolicy controls the order finite sources are walked in. It is a
// source-construction concern only; downstream code (Scheduler, Worker
// Pool) treats the Source interface opaquely regardless of policy (spec
// §4.3).
type SamplingPolicy int

const (
	Sequential SamplingPolicy = iota
	Shuffled
)

// Static is a finite, restartable source over a fixed slice of payloads —
// the stand-in for an out-of-scope dataset loader. It ends once every
// item has been yielded once per Reset.
type Static struct {
	items   []model.Payload
	policy  SamplingPolicy
	rng     *rand.Rand
	order   []int
	cursor  int
}

// NewStatic creates a Static source over items, consumed according to
// policy. A seeded rng is required when policy is Shuffled so repeated
// Reset+consume cycles are reproducible (spec's determinism requirement
// on anything seed-driven).
func NewStatic(items []model.Payload, policy SamplingPolicy, rng *rand.Rand) *Static {
	s := &Static{items: items, policy: policy, rng: rng}
	s.Reset()
	return s
}

func (s *Static) Reset() {
	s.order = make([]int, len(s.items))
	for i := range s.order {
		s.order[i] = i
	}
	if s.policy == Shuffled && s.rng != nil {
		s.rng.Shuffle(len(s.order), func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}
	s.cursor = 0
}

func (s *Static) Next() (model.Payload, bool) {
	if s.cursor >= len(s.order) {
		return model.Payload{}, false
	}
	p := s.items[s.order[s.cursor]]
	s.cursor++
	return p, true
}

// Len returns the number of items the source will yield per cycle.
func (s *Static) Len() int { return len(s.items) }

// Synthetic is an infinite source generating payloads from a fixed
// template, standing in for an out-of-scope synthetic prompt generator —
// it never ends, matching spec §4.3's "infinite sources (synthetic) never
// end".
type Synthetic struct {
	template  model.Payload
	datasetIx int
}

// NewSynthetic creates an infinite source that repeats template forever,
// incrementing DatasetIndex on each yield so records remain distinguishable.
func NewSynthetic(template model.Payload) *Synthetic {
	return &Synthetic{template: template}
}

func (s *Synthetic) Reset() { s.datasetIx = 0 }

func (s *Synthetic) Next() (model.Payload, bool) {
	p := s.template
	p.DatasetIndex = s.datasetIx
	s.datasetIx++
	return p, true
}
