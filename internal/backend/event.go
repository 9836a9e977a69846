package backend

import "github.com/guidellm/guidellm-go/internal/model"

// EventKind discriminates the Backend Adapter's event stream (spec §4.2).
type EventKind int

const (
	FirstByte EventKind = iota
	Token
	Done
	Error
)

// Event is one item of the lazy sequence Execute yields. Timestamps are
// stamped by the adapter using the shared Clock at the point of
// observation, never upon yield to the caller (spec §4.2).
type Event struct {
	Kind EventKind
	Time int64 // monotonic ns

	// Token fields.
	TokenText       string
	TokenCountDelta int

	// Done fields.
	PromptTokens int
	OutputTokens int

	// Error fields.
	ErrorKind    model.ErrorKind
	ErrorMessage string
}
