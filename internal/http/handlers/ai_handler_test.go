// README: Handler tests for the AI planning endpoints (binding, chunk ids, SSE, quota).
package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/ai"
	"voyage/internal/http/handlers"
	httpmiddleware "voyage/internal/http/middleware"
	"voyage/internal/infra"
	"voyage/internal/modules/aiusage"
	"voyage/internal/modules/planning"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.AuthToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.AuthToken, error) {
	return s.token, s.err
}

// streamingMock streams the mock provider's output in two deltas.
type streamingMock struct {
	*planning.MockProvider
}

func (s streamingMock) Name() string { return "openai" }

func (s streamingMock) Stream(ctx context.Context, req ai.Request, onDelta func(ai.Delta) error) error {
	text, err := s.Generate(ctx, req)
	if err != nil {
		return err
	}
	mid := len(text) / 2
	for _, part := range []string{text[:mid], text[mid:]} {
		if err := onDelta(ai.Delta{Text: part}); err != nil {
			return err
		}
	}
	return nil
}

type stubQuota struct {
	err   error
	calls []string
}

func (q *stubQuota) UseToken(_ context.Context, uid string) error {
	q.calls = append(q.calls, uid)
	return q.err
}

func newPlanning(p ai.Provider) *planning.Service {
	return planning.NewService(planning.ServiceDeps{
		Provider: p,
		Settings: planning.Settings{MaxTokens: 8000, EnableChunking: true, ChunkTokenLimit: 4000, MaxChunks: 4, MockFallback: true},
	})
}

// buildAIRouter wires the AI handler behind optional auth, as the server does.
func buildAIRouter(p ai.Provider, quota handlers.TokenSpender, verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewAIHandler(newPlanning(p), quota, nil)
	g := r.Group("/api/ai", httpmiddleware.OptionalAuth(verifier))
	g.POST("/destinations", h.Destinations)
	g.POST("/trip-planning", h.TripPlan)
	g.POST("/trip-planning/manifest", h.Manifest)
	g.POST("/trip-planning/chunked", h.Chunked)
	g.POST("/trip-planning/stream", h.Stream)
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tripBody() map[string]any {
	return map[string]any{
		"destination":  map[string]any{"name": "Kyoto", "country": "Japan"},
		"travelerType": map[string]any{"id": "culture"},
		"preferences":  map[string]any{"duration": "4 days", "budget": "moderate"},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestDestinations_MockProvider(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/destinations", map[string]any{
		"travelerType":         map[string]any{"id": "adventure"},
		"destinationKnowledge": "no",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp planning.DestinationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mock", resp.Source)
	assert.NotEmpty(t, resp.Destinations)
	assert.LessOrEqual(t, len(resp.Destinations), 3)
}

func TestDestinations_UnknownTravelerType(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/destinations", map[string]any{
		"travelerType": map[string]any{"id": "astronaut"},
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unknown traveler type", body["error"])
	assert.Contains(t, body["validTravelerTypes"], "culture")
}

func TestTripPlan_MissingDestination(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	body := tripBody()
	delete(body, "destination")
	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning", body, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request", decode(t, w)["error"])
}

func TestTripPlan_EmptyBody(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)
	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTripPlan_Mock(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning", tripBody(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp planning.TripPlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mock", resp.Source)
	assert.NotEmpty(t, resp.Plan)
}

func TestManifest_ListsPendingSections(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/manifest", tripBody(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var m planning.Manifest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.NotEmpty(t, m.SessionID)
	require.Len(t, m.Sections, planning.TotalChunks)
	for _, s := range m.Sections {
		assert.Equal(t, "pending", s.Status)
	}
}

func TestChunked_ListsSectionsWithoutChunk(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/chunked", tripBody(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var list planning.SectionList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 4, list.TotalChunks)
	assert.Len(t, list.Chunks, 4)
}

func TestChunked_ChunkSources(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	tests := []struct {
		name    string
		query   string
		chunk   any
		section string
	}{
		{name: "query", query: "?chunk=1", section: "locations"},
		{name: "body number", chunk: 2, section: "food"},
		{name: "body string", chunk: "3", section: "practical"},
		{name: "query wins", query: "?chunk=4", chunk: 1, section: "cultural"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tripBody()
			if tt.chunk != nil {
				body["chunk"] = tt.chunk
			}
			w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/chunked"+tt.query, body, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var res planning.ChunkResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.section, res.Chunk.Section)
			assert.Equal(t, 4, res.Chunk.TotalChunks)
			assert.False(t, res.IsComplete)
			assert.NotEmpty(t, res.Data)
		})
	}
}

func TestChunked_InvalidChunk(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	for _, q := range []string{"?chunk=0", "?chunk=5", "?chunk=abc"} {
		w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/chunked"+q, tripBody(), "")
		require.Equal(t, http.StatusBadRequest, w.Code, q)
		body := decode(t, w)
		assert.Equal(t, "invalid chunk", body["error"], q)
		assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, body["validChunks"], q)
	}
}

func TestChunked_MissingFieldIsBadRequestForAnyChunk(t *testing.T) {
	quota := &stubQuota{}
	r := buildAIRouter(planning.NewMockProvider(0), quota, &stubTokenVerifier{token: &infra.AuthToken{UID: "user-1"}})

	for _, field := range []string{"destination", "travelerType", "preferences"} {
		for _, q := range []string{"", "?chunk=1", "?chunk=99"} {
			t.Run(field+q, func(t *testing.T) {
				body := tripBody()
				delete(body, field)

				w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/chunked"+q, body, "Bearer tok")
				require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
				assert.Equal(t, "invalid request", decode(t, w)["error"])
			})
		}
	}
	assert.Empty(t, quota.calls)
}

func TestStream_ProviderWithoutStreaming(t *testing.T) {
	r := buildAIRouter(planning.NewMockProvider(0), nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/stream?chunk=1", tripBody(), "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["streaming"])
	assert.Equal(t, handlers.ChunkedEndpoint, body["fallbackEndpoint"])
	assert.NotEmpty(t, body["message"])
}

func TestStream_RequiresChunk(t *testing.T) {
	r := buildAIRouter(streamingMock{planning.NewMockProvider(0)}, nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/stream", tripBody(), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid chunk", decode(t, w)["error"])
}

func TestStream_ServerSentEvents(t *testing.T) {
	r := buildAIRouter(streamingMock{planning.NewMockProvider(0)}, nil, nil)

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/stream?chunk=2", tripBody(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	var frames []string
	sc := bufio.NewScanner(strings.NewReader(w.Body.String()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	require.GreaterOrEqual(t, len(frames), 4)
	assert.Equal(t, "[DONE]", frames[len(frames)-1])
	assert.True(t, strings.HasSuffix(w.Body.String(), "data: [DONE]\n\n"))

	var types []string
	var last planning.StreamEvent
	for _, f := range frames[:len(frames)-1] {
		var ev planning.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(f), &ev), f)
		types = append(types, ev.Type)
		last = ev
	}
	assert.Equal(t, []string{"start", "content_delta", "content_delta", "complete"}, types)
	require.NotNil(t, last.IsComplete)
	assert.False(t, *last.IsComplete)
	assert.Equal(t, "food", last.Chunk.Section)
	assert.Contains(t, last.Data, "restaurants")
}

func TestQuota_ExhaustedForAuthenticatedCaller(t *testing.T) {
	quota := &stubQuota{err: aiusage.ErrInsufficientTokens}
	verifier := &stubTokenVerifier{token: &infra.AuthToken{UID: "user-1"}}
	r := buildAIRouter(planning.NewMockProvider(0), quota, verifier)

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning", tripBody(), "Bearer good")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, []string{"user-1"}, quota.calls)
}

func TestQuota_AnonymousNotCharged(t *testing.T) {
	quota := &stubQuota{err: aiusage.ErrInsufficientTokens}
	r := buildAIRouter(planning.NewMockProvider(0), quota, &stubTokenVerifier{token: &infra.AuthToken{UID: "user-1"}})

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/manifest", tripBody(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, quota.calls)
}

func TestQuota_NotChargedForSectionListing(t *testing.T) {
	quota := &stubQuota{}
	r := buildAIRouter(planning.NewMockProvider(0), quota, &stubTokenVerifier{token: &infra.AuthToken{UID: "user-1"}})

	w := doRequest(r, http.MethodPost, "/api/ai/trip-planning/chunked", tripBody(), "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, quota.calls)

	w = doRequest(r, http.MethodPost, "/api/ai/trip-planning/chunked?chunk=1", tripBody(), "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user-1"}, quota.calls)
}
