// Package backend implements the Backend Adapter contract (spec §4.2): it
// issues one HTTP request to an OpenAI-compatible endpoint and yields a
// lazy sequence of token-arrival events plus a terminal outcome. Transport
// setup is ported from the teacher's web_requester.go (connection reuse,
// linger, HTTP/1.1 vs HTTP/2); SSE line framing is ported from the pack's
// Kocoro-lab-Shannon OpenAI streamer (bufio.Scanner in a reader goroutine,
// channel hand-off so a slow consumer never blocks the network read).
package backend

import (
	"context"
	"time"

	"github.com/guidellm/guidellm-go/internal/clock"
	"github.com/guidellm/guidellm-go/internal/model"
)

// Adapter issues requests to a system under test and reports timing
// events on the shared Clock. It MUST NOT retry; retry policy, if any, is
// the Scheduler's (spec §4.2).
type Adapter interface {
	// Probe validates reachability and model availability before any
	// benchmark run. Failure is fatal (spec §4.2, §7 backend_unreachable).
	Probe(ctx context.Context) error

	// Execute issues payload and returns a channel of Events terminated by
	// exactly one Done or Error event, honoring deadline. The channel is
	// closed after the terminal event.
	Execute(ctx context.Context, payload model.Payload, deadline time.Time) <-chan Event
}

// clockSource is the subset of clock.Clock the adapter needs to stamp
// events; narrowed here so adapters can be tested with any monotonic
// source without importing the full Clock contract's SleepUntil.
type clockSource interface {
	Now() int64
}

var _ clockSource = (*clock.System)(nil)
