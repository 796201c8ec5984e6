package planning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/ai"
)

func collect(events *[]StreamEvent) func(StreamEvent) error {
	return func(ev StreamEvent) error {
		*events = append(*events, ev)
		return nil
	}
}

func eventTypes(events []StreamEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func splitDeltas(text string, size int) []ai.Delta {
	var out []ai.Delta
	for len(text) > 0 {
		n := size
		if n > len(text) {
			n = len(text)
		}
		out = append(out, ai.Delta{Text: text[:n]})
		text = text[n:]
	}
	return out
}

func TestStreamChunkEmitsDeltasThenComplete(t *testing.T) {
	body := `{"culturalInsights":["bow"],"itinerary":[{"day":1}],"hiddenGems":["Philosopher's Path"]}`
	s := &scriptedStreamer{scriptedProvider: newScripted("gpt-4"), deltas: splitDeltas(body, 16)}
	svc := NewService(ServiceDeps{Provider: s, Settings: defaultSettings()})

	var events []StreamEvent
	err := svc.StreamChunk(context.Background(), tripRequest("Kyoto", "culture"), 4, collect(&events))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, 4, events[0].Chunk.ChunkID)

	var joined strings.Builder
	for _, ev := range events[1 : len(events)-1] {
		assert.Equal(t, EventContentDelta, ev.Type)
		joined.WriteString(ev.Content)
	}
	assert.Equal(t, body, joined.String())

	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Type)
	require.NotNil(t, last.IsComplete)
	assert.False(t, *last.IsComplete)
	assert.Contains(t, last.Data, "hiddenGems")
	assert.Equal(t, "cultural", last.Chunk.Section)
}

func TestStreamChunkForwardsRefusal(t *testing.T) {
	s := &scriptedStreamer{scriptedProvider: newScripted("gpt-4"), deltas: []ai.Delta{{Refusal: "I can't help with that."}}}
	svc := NewService(ServiceDeps{Provider: s, Settings: defaultSettings()})

	var events []StreamEvent
	require.NoError(t, svc.StreamChunk(context.Background(), tripRequest("Kyoto", "culture"), 1, collect(&events)))

	assert.Equal(t, []string{EventStart, EventRefusal, EventError}, eventTypes(events))
	assert.Equal(t, "I can't help with that.", events[1].Refusal)
}

func TestStreamChunkParseFailureCarriesPreview(t *testing.T) {
	s := &scriptedStreamer{scriptedProvider: newScripted("gpt-4"), deltas: splitDeltas(`{"transportation": "metro", "budget`, 8)}
	svc := NewService(ServiceDeps{Provider: s, Settings: defaultSettings()})

	var events []StreamEvent
	require.NoError(t, svc.StreamChunk(context.Background(), tripRequest("Kyoto", "culture"), 3, collect(&events)))

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, "failed to parse streamed response", last.Error)
	assert.Equal(t, `{"transportation": "metro", "budget`, last.Preview)
}

func TestStreamChunkUpstreamError(t *testing.T) {
	s := &scriptedStreamer{
		scriptedProvider: newScripted("gpt-4"),
		deltas:           []ai.Delta{{Text: `{"neigh`}},
		err:              errors.New("connection reset"),
	}
	svc := NewService(ServiceDeps{Provider: s, Settings: defaultSettings()})

	var events []StreamEvent
	require.NoError(t, svc.StreamChunk(context.Background(), tripRequest("Kyoto", "culture"), 1, collect(&events)))

	assert.Equal(t, []string{EventStart, EventContentDelta, EventError}, eventTypes(events))
	assert.Equal(t, "stream failed", events[2].Error)
	assert.Equal(t, "connection reset", events[2].Details)
}

func TestStreamChunkClientDisconnect(t *testing.T) {
	s := &scriptedStreamer{scriptedProvider: newScripted("gpt-4"), deltas: splitDeltas(`{"a":1}`, 2)}
	svc := NewService(ServiceDeps{Provider: s, Settings: defaultSettings()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var events []StreamEvent
	require.NoError(t, svc.StreamChunk(ctx, tripRequest("Kyoto", "culture"), 2, collect(&events)))

	assert.Equal(t, []string{EventStart, EventError}, eventTypes(events))
	assert.Equal(t, "client disconnected", events[1].Error)
}

func TestStreamChunkErrorsBeforeStart(t *testing.T) {
	var events []StreamEvent

	mock := NewService(ServiceDeps{Provider: NewMockProvider(0), Settings: defaultSettings()})
	err := mock.StreamChunk(context.Background(), tripRequest("Kyoto", "culture"), 1, collect(&events))
	assert.ErrorIs(t, err, ErrStreamUnsupported)
	assert.False(t, mock.CanStream())

	s := &scriptedStreamer{scriptedProvider: newScripted("gpt-4")}
	svc := NewService(ServiceDeps{Provider: s, Settings: defaultSettings()})
	assert.True(t, svc.CanStream())

	err = svc.StreamChunk(context.Background(), tripRequest("Kyoto", "culture"), 9, collect(&events))
	assert.ErrorIs(t, err, ErrInvalidChunk)

	err = svc.StreamChunk(context.Background(), &TripRequest{}, 1, collect(&events))
	assert.ErrorIs(t, err, ErrBadRequest)

	assert.Empty(t, events)
}
