package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// systemPrompt is sent with every chat-style request.
const systemPrompt = "You are an expert travel planner. Always answer with valid JSON only, without markdown or commentary."

// OpenAIProvider talks to the chat completions API (or any compatible endpoint).
type OpenAIProvider struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpc       *http.Client
}

func NewOpenAIProvider(apiKey, baseURL, model string, temperature float64) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		// deadlines come from the caller's context; streams may legitimately run long
		httpc: &http.Client{},
	}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Temperature         *float64      `json:"temperature,omitempty"`
	Stream              bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string  `json:"content"`
			Refusal *string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string  `json:"content"`
			Refusal *string `json:"refusal"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) buildRequest(req Request, stream bool) chatRequest {
	cr := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		Stream: stream,
	}
	// reasoning-era models only accept max_completion_tokens
	if usesCompletionTokens(p.model) {
		cr.MaxCompletionTokens = req.MaxTokens
	} else {
		cr.MaxTokens = req.MaxTokens
	}
	if SupportsTemperature(p.model) {
		t := p.temperature
		cr.Temperature = &t
	}
	return cr
}

func usesCompletionTokens(model string) bool {
	m := strings.ToLower(model)
	for _, prefix := range []string{"gpt-5", "o1", "o3", "o4"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func (p *OpenAIProvider) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: do request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	return resp, nil
}

// Generate sends one chat completion and returns the assistant text.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.post(ctx, p.buildRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	msg := cr.Choices[0].Message
	if msg.Content == "" && msg.Refusal != nil {
		return "", fmt.Errorf("openai: model refused: %s", *msg.Refusal)
	}
	if msg.Content == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return msg.Content, nil
}

// Stream sends a streaming chat completion and forwards each content or refusal delta.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request, onDelta func(Delta) error) error {
	resp, err := p.post(ctx, p.buildRequest(req, true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	events := newSSEReader(resp.Body)
	for {
		data, err := events.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("openai: read stream: %w", err)
		}
		if string(bytes.TrimSpace(data)) == doneSentinel {
			return nil
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("openai: decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("openai: stream error: %s", chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Refusal != nil && *choice.Delta.Refusal != "" {
				if err := onDelta(Delta{Refusal: *choice.Delta.Refusal}); err != nil {
					return err
				}
			}
			if choice.Delta.Content != "" {
				if err := onDelta(Delta{Text: choice.Delta.Content}); err != nil {
					return err
				}
			}
		}
	}
}
