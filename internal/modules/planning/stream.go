package planning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"voyage/internal/ai"
)

// Stream event types, in the order a client sees them.
const (
	EventStart        = "start"
	EventContentDelta = "content_delta"
	EventRefusal      = "refusal"
	EventComplete     = "complete"
	EventError        = "error"
)

// StreamEvent is one SSE frame payload.
type StreamEvent struct {
	Type       string         `json:"type"`
	Chunk      *ChunkMeta     `json:"chunk,omitempty"`
	Content    string         `json:"content,omitempty"`
	Refusal    string         `json:"refusal,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	IsComplete *bool          `json:"isComplete,omitempty"`
	Error      string         `json:"error,omitempty"`
	Details    string         `json:"details,omitempty"`
	Preview    string         `json:"preview,omitempty"`
}

// StreamChunk generates one section through the provider's streaming API and
// reports progress through emit. Request and chunk errors are returned before
// anything is emitted; after the start event every failure is reported as an
// error event and StreamChunk returns nil. The accumulated text is parsed once,
// after the upstream stream ends.
func (s *Service) StreamChunk(ctx context.Context, req *TripRequest, chunkID int, emit func(StreamEvent) error) error {
	if err := req.Validate(); err != nil {
		return err
	}
	sec, err := SectionByID(chunkID)
	if err != nil {
		return err
	}
	streamer, ok := s.provider.(ai.Streamer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStreamUnsupported, s.provider.Name())
	}
	req.normalize()

	meta := sec.meta()
	if err := emit(StreamEvent{Type: EventStart, Chunk: &meta}); err != nil {
		return nil
	}

	prompt := sec.prompt(req)
	maxTokens := s.chunkBudget(prompt)
	ctx, span := tracer.Start(ctx, "planning."+sec.Task(), trace.WithAttributes(
		attribute.String("ai.provider", s.provider.Name()),
		attribute.String("ai.model", s.provider.Model()),
		attribute.Int("ai.max_tokens", maxTokens),
		attribute.Bool("ai.stream", true),
	))
	defer span.End()

	var buf strings.Builder
	start := time.Now()
	streamErr := streamer.Stream(ctx, ai.Request{
		Task:      sec.Task(),
		Prompt:    prompt,
		MaxTokens: maxTokens,
		Meta:      req.meta(),
	}, func(d ai.Delta) error {
		if d.Refusal != "" {
			return emit(StreamEvent{Type: EventRefusal, Refusal: d.Refusal})
		}
		buf.WriteString(d.Text)
		return emit(StreamEvent{Type: EventContentDelta, Content: d.Text})
	})
	s.observe(ctx, sec.Task(), prompt, buf.String(), start, streamErr)
	if streamErr != nil {
		span.RecordError(streamErr)
		span.SetStatus(codes.Error, streamErr.Error())
	}

	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		s.logger.Info("stream client disconnected", zap.String("section", sec.Name))
		_ = emit(StreamEvent{Type: EventError, Error: "client disconnected"})
		return nil
	case streamErr != nil:
		_ = emit(StreamEvent{Type: EventError, Error: "stream failed", Details: streamErr.Error()})
		return nil
	}

	data, err := decodeSection(sec, buf.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		ev := StreamEvent{Type: EventError, Error: "failed to parse streamed response", Details: err.Error()}
		var pe *ai.ParseError
		if errors.As(err, &pe) {
			ev.Preview = pe.Preview
		}
		_ = emit(ev)
		return nil
	}

	incomplete := false
	_ = emit(StreamEvent{Type: EventComplete, Chunk: &meta, Data: data, IsComplete: &incomplete})
	return nil
}
