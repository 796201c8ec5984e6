// README: LLM provider contracts (one-shot generation plus optional streaming capability).
package ai

import (
	"context"
)

// Request is a single prompt sent to a provider.
type Request struct {
	// Task names what the prompt is for (e.g. "destinations", "chunk_locations").
	// Providers use it for logging; the mock provider uses it to pick a canned shape.
	Task      string
	Prompt    string
	MaxTokens int
	// Meta carries request facts (destination, country, traveler type) that
	// prompt-free providers can use to shape their output.
	Meta map[string]string
}

// Provider defines the contract for interacting with AI models.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Delta is one increment of a streamed completion. Exactly one field is set.
type Delta struct {
	Text    string
	Refusal string
}

// Streamer is implemented by providers that can stream incremental output.
// The callback's error aborts the stream and is returned as is.
type Streamer interface {
	Provider
	Stream(ctx context.Context, req Request, onDelta func(Delta) error) error
}

// CanStream reports whether p supports incremental output.
func CanStream(p Provider) bool {
	_, ok := p.(Streamer)
	return ok
}
