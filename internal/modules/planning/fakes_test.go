package planning

import (
	"context"
	"sync"

	"voyage/internal/ai"
	"voyage/internal/modules/aiusage"
)

// scriptedProvider answers from per-task replies and falls back to the mock
// provider for tasks without one.
type scriptedProvider struct {
	model   string
	replies map[string]string
	errs    map[string]error

	mu    sync.Mutex
	calls []ai.Request
}

func newScripted(model string) *scriptedProvider {
	return &scriptedProvider{model: model, replies: map[string]string{}, errs: map[string]error{}}
}

func (p *scriptedProvider) Name() string  { return "openai" }
func (p *scriptedProvider) Model() string { return p.model }

func (p *scriptedProvider) Generate(ctx context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()

	if err, ok := p.errs[req.Task]; ok {
		return "", err
	}
	if text, ok := p.replies[req.Task]; ok {
		return text, nil
	}
	return NewMockProvider(0).Generate(ctx, req)
}

func (p *scriptedProvider) tasks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	for i, c := range p.calls {
		out[i] = c.Task
	}
	return out
}

// scriptedStreamer replays deltas and then returns err.
type scriptedStreamer struct {
	*scriptedProvider
	deltas []ai.Delta
	err    error
}

func (s *scriptedStreamer) Stream(ctx context.Context, req ai.Request, onDelta func(ai.Delta) error) error {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	for _, d := range s.deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(d); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.err
}

type recordingUsage struct {
	mu      sync.Mutex
	entries []aiusage.Usage
}

func (r *recordingUsage) Record(_ context.Context, u aiusage.Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, u)
}

func tripRequest(destination, travelerType string) *TripRequest {
	return &TripRequest{
		Destination:  &Destination{Name: destination},
		TravelerType: &TravelerType{ID: travelerType},
		Preferences: &TripPreferences{
			Duration:  "4 days",
			Budget:    "moderate",
			Interests: []string{"history", "street food"},
		},
	}
}

func defaultSettings() Settings {
	return Settings{MaxTokens: 8000, EnableChunking: true, ChunkTokenLimit: 4000, MaxChunks: 4, MockFallback: true}
}
