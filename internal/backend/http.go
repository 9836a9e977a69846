package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/guidellm/guidellm-go/internal/model"
)

// HTTPAdapter is the Backend Adapter for OpenAI-compatible text/chat
// completion endpoints over HTTP/1.1 or HTTP/2 SSE streaming (spec §6).
type HTTPAdapter struct {
	client      *http.Client
	baseURL     string
	model       string
	clock       clockSource
	probePath   string
}

// NewHTTPAdapter creates an adapter targeting baseURL with the given model
// identifier, using clk to stamp every observed event.
func NewHTTPAdapter(client *http.Client, baseURL, modelName string, clk clockSource) *HTTPAdapter {
	return &HTTPAdapter{
		client:    client,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     modelName,
		clock:     clk,
		probePath: "/v1/models",
	}
}

// Probe checks reachability before any benchmark run: it issues GET
// /v1/models and fails on a transport error or a 5xx status. It does not
// read the response body, so it does not check that the configured model
// is listed. Failure here is fatal and must abort the benchmarker before
// any dispatch.
func (a *HTTPAdapter) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+a.probePath, nil)
	if err != nil {
		return fmt.Errorf("backend_unreachable: building probe request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend_unreachable: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend_unreachable: probe returned %d", resp.StatusCode)
	}
	return nil
}

func endpointPath(kind model.EndpointKind) string {
	if kind == model.EndpointChat {
		return "/v1/chat/completions"
	}
	return "/v1/completions"
}

type requestBody struct {
	Model       string        `json:"model"`
	Prompt      string        `json:"prompt,omitempty"`
	Messages    []wireMessage `json:"messages,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream"`
	StreamOpts  *streamOpts   `json:"stream_options,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type streamOpts struct {
	IncludeUsage bool `json:"include_usage"`
}

func (a *HTTPAdapter) buildBody(p model.Payload) requestBody {
	body := requestBody{
		Model:       a.model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		Stop:        p.StopSequences,
		Stream:      true,
		StreamOpts:  &streamOpts{IncludeUsage: true},
	}
	if p.Endpoint == model.EndpointChat {
		msgs := make([]wireMessage, len(p.Messages))
		for i, m := range p.Messages {
			msgs[i] = wireMessage{Role: m.Role, Content: m.Content}
		}
		body.Messages = msgs
	} else {
		body.Prompt = p.Prompt
	}
	return body
}

// Execute issues payload and streams events until deadline, a terminal
// Done/Error, or ctx cancellation. The adapter never retries (spec §4.2).
func (a *HTTPAdapter) Execute(ctx context.Context, payload model.Payload, deadline time.Time) <-chan Event {
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		reqCtx, cancel := context.WithDeadline(ctx, deadline)
		defer cancel()

		bodyBytes, err := json.Marshal(a.buildBody(payload))
		if err != nil {
			out <- a.errorEvent(model.ErrorDecode, fmt.Sprintf("encoding request: %v", err))
			return
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+endpointPath(payload.Endpoint), bytes.NewReader(bodyBytes))
		if err != nil {
			out <- a.errorEvent(model.ErrorConnect, fmt.Sprintf("building request: %v", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := a.client.Do(req)
		if err != nil {
			out <- a.classifyTransportError(reqCtx, err)
			return
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		out <- Event{Kind: FirstByte, Time: a.clock.Now()}

		if resp.StatusCode != http.StatusOK {
			out <- a.errorEvent(model.ErrorHTTPStatus, fmt.Sprintf("unexpected status %d", resp.StatusCode))
			return
		}

		done := reqCtx.Done()
		lines := scanSSELines(done, resp.Body)

		var outputTokens int
		var promptTokens int
		var usageSeen bool
		chat := payload.Endpoint == model.EndpointChat

		for {
			select {
			case <-done:
				out <- a.errorEvent(a.deadlineOrCancelKind(reqCtx), "cancelled during stream")
				return

			case res, ok := <-lines:
				if !ok {
					out <- Event{Kind: Done, Time: a.clock.Now(), PromptTokens: finalPromptTokens(promptTokens, usageSeen, payload), OutputTokens: outputTokens}
					return
				}
				if res.err != nil {
					out <- a.errorEvent(model.ErrorDecode, res.err.Error())
					return
				}

				data, ok := parseSSEData(res.line)
				if !ok {
					continue
				}
				if data == "[DONE]" {
					out <- Event{Kind: Done, Time: a.clock.Now(), PromptTokens: finalPromptTokens(promptTokens, usageSeen, payload), OutputTokens: outputTokens}
					return
				}

				c, err := parseChunk(data)
				if err != nil {
					out <- a.errorEvent(model.ErrorDecode, fmt.Sprintf("decoding chunk: %v", err))
					return
				}

				if c.Usage != nil {
					usageSeen = true
					promptTokens = c.Usage.PromptTokens
					if c.Usage.CompletionTokens > 0 {
						outputTokens = c.Usage.CompletionTokens
					}
				}

				if text, ok := c.tokenText(chat); ok && text != "" {
					delta := estimateTokenCount(text)
					outputTokens += delta
					out <- Event{Kind: Token, Time: a.clock.Now(), TokenText: text, TokenCountDelta: delta}
				}
			}
		}
	}()

	return out
}

func finalPromptTokens(promptTokens int, usageSeen bool, p model.Payload) int {
	if usageSeen {
		return promptTokens
	}
	return p.PromptTokenEstimate
}

func (a *HTTPAdapter) errorEvent(kind model.ErrorKind, msg string) Event {
	return Event{Kind: Error, Time: a.clock.Now(), ErrorKind: kind, ErrorMessage: msg}
}

func (a *HTTPAdapter) classifyTransportError(ctx context.Context, err error) Event {
	return a.errorEvent(a.deadlineOrCancelKind(ctx), err.Error())
}

func (a *HTTPAdapter) deadlineOrCancelKind(ctx context.Context) model.ErrorKind {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return model.ErrorTimeout
	case context.Canceled:
		return model.ErrorCancelled
	default:
		return model.ErrorConnect
	}
}

// estimateTokenCount is the fallback tokenizer estimate used when a chunk
// carries no usage object (spec §6: "token counts come from the terminal
// usage object when present, else from a tokenizer estimate"). It is a
// coarse whitespace/punctuation heuristic, not a model-accurate
// tokenizer — a real tokenizer is an out-of-scope dataset-layer concern.
func estimateTokenCount(text string) int {
	if text == "" {
		return 0
	}
	n := len(strings.Fields(text))
	if n == 0 {
		return 1
	}
	return n
}
