package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultGeminiModel replaces the generic default model name.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements Provider and Streamer using Google's Gemini models.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiProvider initializes a new Gemini client.
func NewGeminiProvider(ctx context.Context, apiKey, model string, temperature float64) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(model), "gemini") {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model, temperature: float32(temperature)}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Name() string  { return "gemini" }
func (p *GeminiProvider) Model() string { return p.model }

// generativeModel is built per request; the SDK model carries mutable settings.
func (p *GeminiProvider) generativeModel(maxTokens int) *genai.GenerativeModel {
	m := p.client.GenerativeModel(p.model)
	// Force JSON response for structured parsing.
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(p.temperature)
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens))
	}
	m.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	return m
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.generativeModel(req.MaxTokens).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	text := candidateText(resp.Candidates[0])
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

// Stream forwards text parts as they arrive. A safety or recitation stop is
// reported as a refusal delta.
func (p *GeminiProvider) Stream(ctx context.Context, req Request, onDelta func(Delta) error) error {
	it := p.generativeModel(req.MaxTokens).GenerateContentStream(ctx, genai.Text(req.Prompt))
	for {
		resp, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gemini stream error: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content != nil {
				if text := candidateText(cand); text != "" {
					if err := onDelta(Delta{Text: text}); err != nil {
						return err
					}
				}
			}
			if cand.FinishReason == genai.FinishReasonSafety || cand.FinishReason == genai.FinishReasonRecitation {
				if err := onDelta(Delta{Refusal: "response blocked: " + cand.FinishReason.String()}); err != nil {
					return err
				}
			}
		}
	}
}

func candidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
