package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	// DefaultAnthropicModel replaces the generic default model name.
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
)

// AnthropicProvider talks to the Messages API. It does not implement Streamer.
type AnthropicProvider struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpc       *http.Client
}

func NewAnthropicProvider(apiKey, baseURL, model string, temperature float64) *AnthropicProvider {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	if !strings.HasPrefix(strings.ToLower(model), "claude") {
		model = DefaultAnthropicModel
	}
	return &AnthropicProvider{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		httpc:       &http.Client{},
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, error) {
	raw, err := json.Marshal(messagesRequest{
		Model:       p.model,
		MaxTokens:   req.MaxTokens,
		System:      systemPrompt,
		Temperature: p.temperature,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}

	var text strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic: %w (stop_reason=%s)", ErrEmptyResponse, mr.StopReason)
	}
	return text.String(), nil
}
