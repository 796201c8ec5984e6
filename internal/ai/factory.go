package ai

import (
	"context"
	"fmt"
	"time"
)

// Options selects and configures a provider.
type Options struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// NewProvider builds the provider named by opts. "mock" (and anything unknown)
// returns fallback, which the caller supplies.
func NewProvider(ctx context.Context, opts Options, fallback Provider) (Provider, error) {
	switch opts.Provider {
	case "openai":
		return NewOpenAIProvider(opts.APIKey, opts.BaseURL, opts.Model, opts.Temperature), nil
	case "anthropic":
		return NewAnthropicProvider(opts.APIKey, opts.BaseURL, opts.Model, opts.Temperature), nil
	case "gemini":
		p, err := NewGeminiProvider(ctx, opts.APIKey, opts.Model, opts.Temperature)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if fallback == nil {
		return nil, fmt.Errorf("no provider for %q", opts.Provider)
	}
	return fallback, nil
}

// WithTimeout wraps every call to p in a per-call deadline.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	tp := &timeoutProvider{Provider: p, timeout: d}
	if s, ok := p.(Streamer); ok {
		return &timeoutStreamer{timeoutProvider: tp, streamer: s}
	}
	return tp
}

type timeoutProvider struct {
	Provider
	timeout time.Duration
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.Provider.Generate(ctx, req)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s request timed out after %s: %w", t.Name(), t.timeout, context.DeadlineExceeded)
	}
	return out, err
}

type timeoutStreamer struct {
	*timeoutProvider
	streamer Streamer
}

func (t *timeoutStreamer) Stream(ctx context.Context, req Request, onDelta func(Delta) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.streamer.Stream(ctx, req, onDelta)
}
