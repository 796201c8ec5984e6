// README: Planning service; budgets, calls the provider and enforces response shapes.
package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"voyage/internal/ai"
	"voyage/internal/modules/aiusage"
	"voyage/internal/observability"
)

var tracer = otel.Tracer("voyage/planning")

const (
	// fullPlanTargetTokens is the expected size of a complete single-shot plan.
	fullPlanTargetTokens  = 6000
	manifestMaxTokens     = 800
	destinationsMaxTokens = 2000
	maxRecommendations    = 3
)

// Settings are the AI_* knobs the service needs.
type Settings struct {
	MaxTokens       int
	EnableChunking  bool
	ChunkTokenLimit int
	MaxChunks       int
	// MockFallback substitutes mock data when the aggregate endpoints
	// (destinations, single-shot plan, manifest) cannot get usable model output.
	MockFallback bool
}

// UsageRecorder receives one entry per provider call.
type UsageRecorder interface {
	Record(ctx context.Context, u aiusage.Usage)
}

type ServiceDeps struct {
	Provider ai.Provider
	Settings Settings
	Logger   *zap.Logger
	Usage    UsageRecorder
	Metrics  *observability.Collector
}

type Service struct {
	provider ai.Provider
	settings Settings
	logger   *zap.Logger
	usage    UsageRecorder
	metrics  *observability.Collector
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := deps.Settings
	if settings.MaxChunks < 1 {
		settings.MaxChunks = TotalChunks
	}
	return &Service{
		provider: deps.Provider,
		settings: settings,
		logger:   logger.Named("planning"),
		usage:    deps.Usage,
		metrics:  deps.Metrics,
	}
}

func (s *Service) ProviderName() string { return s.provider.Name() }

// CanStream reports whether the configured provider supports the streaming relay.
func (s *Service) CanStream() bool { return ai.CanStream(s.provider) }

// source tags model output; mock-provider output is labelled as such.
func (s *Service) source() string {
	if s.provider.Name() == SourceMock {
		return SourceMock
	}
	return SourceAI
}

// responseBudget is the model headroom for prompt, capped at limit when limit > 0.
func (s *Service) responseBudget(prompt string, limit int) int {
	n := ai.CalculateMaxTokensForRequest(prompt, ai.GetModelTokenLimit(s.provider.Model()), s.provider.Name())
	if limit > 0 && limit < n {
		return limit
	}
	return n
}

// chunkBudget applies the smaller of the model headroom and AI_CHUNK_TOKEN_LIMIT.
func (s *Service) chunkBudget(prompt string) int {
	return s.responseBudget(prompt, s.settings.ChunkTokenLimit)
}

func (s *Service) call(ctx context.Context, task, prompt string, maxTokens int, meta map[string]string) (string, error) {
	ctx, span := tracer.Start(ctx, "planning."+task, trace.WithAttributes(
		attribute.String("ai.provider", s.provider.Name()),
		attribute.String("ai.model", s.provider.Model()),
		attribute.Int("ai.max_tokens", maxTokens),
	))
	defer span.End()

	start := time.Now()
	text, err := s.provider.Generate(ctx, ai.Request{Task: task, Prompt: prompt, MaxTokens: maxTokens, Meta: meta})
	s.observe(ctx, task, prompt, text, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return text, err
}

// observe feeds metrics, the usage ledger and the debug log for one provider call.
func (s *Service) observe(ctx context.Context, task, prompt, output string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveProviderCall(s.provider.Name(), task, outcome, elapsed)

	promptTokens := ai.EstimateTokens(prompt, s.provider.Name())
	completionTokens := ai.EstimateTokens(output, s.provider.Name())
	if s.usage != nil {
		s.usage.Record(ctx, aiusage.Usage{
			UID:              aiusage.CallerFrom(ctx),
			Provider:         s.provider.Name(),
			Model:            s.provider.Model(),
			Task:             task,
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			Latency:          elapsed,
			Failed:           err != nil,
		})
	}

	fields := []zap.Field{
		zap.String("provider", s.provider.Name()),
		zap.String("model", s.provider.Model()),
		zap.String("task", task),
		zap.Int("prompt_tokens", promptTokens),
		zap.Duration("latency", elapsed),
	}
	if err != nil {
		s.logger.Warn("provider call failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Debug("provider call", append(fields, zap.Int("completion_tokens", completionTokens))...)
}

// degrade returns nil when mock substitution is allowed for task, else err.
func (s *Service) degrade(task string, err error) error {
	if !s.settings.MockFallback {
		return err
	}
	s.logger.Warn("substituting mock data", zap.String("task", task), zap.Error(err))
	s.metrics.IncFallback(task)
	return nil
}

// RecommendDestinations suggests 2-3 destinations for a traveler type.
func (s *Service) RecommendDestinations(ctx context.Context, req *DestinationRequest) (*DestinationsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tt, _ := LookupTravelerType(req.TravelerType.ID)

	prompt := DestinationsPrompt(req, tt)
	text, err := s.call(ctx, TaskDestinations, prompt, s.responseBudget(prompt, destinationsMaxTokens), map[string]string{
		"travelerType": tt.ID,
	})
	if err == nil {
		var resp DestinationsResponse
		if err = ai.DecodeJSON(TaskDestinations, text, &resp); err == nil {
			if err = checkDestinations(resp, text); err == nil {
				if len(resp.Destinations) > maxRecommendations {
					resp.Destinations = resp.Destinations[:maxRecommendations]
				}
				resp.Confidence = clampConfidence(resp.Confidence)
				resp.Source = s.source()
				return &resp, nil
			}
		}
	}
	if err := s.degrade(TaskDestinations, err); err != nil {
		return nil, err
	}
	resp := mockDestinations(tt.ID)
	return &resp, nil
}

func checkDestinations(resp DestinationsResponse, raw string) error {
	if len(resp.Destinations) == 0 {
		return &ai.ParseError{Task: TaskDestinations, Preview: ai.Preview(ai.CleanJSON(raw)), Cause: fmt.Errorf("%w: no destinations", ErrShapeMismatch)}
	}
	for i, d := range resp.Destinations {
		if !d.complete() {
			return &ai.ParseError{Task: TaskDestinations, Preview: ai.Preview(ai.CleanJSON(raw)),
				Cause: fmt.Errorf("%w: destination %d has empty fields", ErrShapeMismatch, i)}
		}
	}
	return nil
}

func clampConfidence(c float64) float64 {
	// some models answer on a 0-100 scale
	if c > 1 && c <= 100 {
		c /= 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// PlanTrip produces a complete plan. When the full plan does not fit one request's
// headroom and chunking is enabled, the sections are generated concurrently and merged.
func (s *Service) PlanTrip(ctx context.Context, req *TripRequest) (*TripPlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.normalize()

	prompt := TripPlanPrompt(req)
	headroom := s.responseBudget(prompt, s.settings.MaxTokens)
	if s.settings.EnableChunking {
		if b := ai.SplitBudget(fullPlanTargetTokens, headroom, s.settings.MaxChunks); b.NeedsSplit {
			s.logger.Debug("splitting trip plan into sections",
				zap.Int("headroom", headroom), zap.Int("parallel", b.Chunks), zap.Int("tokens_per_chunk", b.TokensPerChunk))
			return s.planFromSections(ctx, req, b.Chunks)
		}
	}

	text, err := s.call(ctx, TaskTripPlan, prompt, headroom, req.meta())
	if err == nil {
		var resp TripPlanResponse
		if err = ai.DecodeJSON(TaskTripPlan, text, &resp); err == nil {
			if len(resp.Plan) > 0 {
				resp.Confidence = clampConfidence(resp.Confidence)
				resp.Source = s.source()
				return &resp, nil
			}
			err = &ai.ParseError{Task: TaskTripPlan, Preview: ai.Preview(ai.CleanJSON(text)), Cause: fmt.Errorf("%w: empty plan", ErrShapeMismatch)}
		}
	}
	if err := s.degrade(TaskTripPlan, err); err != nil {
		return nil, err
	}
	resp := mockTripPlan(req)
	return &resp, nil
}

func (s *Service) planFromSections(ctx context.Context, req *TripRequest, parallel int) (*TripPlanResponse, error) {
	outcomes := s.generateAll(ctx, req, parallel)

	plan := map[string]any{
		"destination": req.Destination.Name,
		"overview":    mockOverview(req),
	}
	source := s.source()
	generated := 0
	for _, o := range outcomes {
		data := map[string]any(nil)
		if o.Err == nil {
			data = o.Result.Data
			generated++
		} else {
			if err := s.degrade(o.Section.Task(), o.Err); err != nil {
				return nil, err
			}
			data = o.Section.mock(req)
			source = SourceFallback
		}
		if o.Section.Name == "practical" {
			plan["practicalInfo"] = data
			continue
		}
		for k, v := range data {
			plan[k] = v
		}
	}

	confidence := 0.85
	if generated < len(outcomes) {
		confidence = 0.6
	}
	return &TripPlanResponse{
		Plan:             plan,
		Reasoning:        fmt.Sprintf("Assembled from %d of %d independently generated sections for a %s.", generated, len(outcomes), strings.ToLower(req.TravelerType.Name)),
		Confidence:       confidence,
		Personalizations: personalizations(req),
		Source:           source,
	}, nil
}

func personalizations(r *TripRequest) []string {
	out := []string{"Tailored to a " + strings.ToLower(r.TravelerType.Name)}
	p := r.Preferences
	if p.Budget != "" {
		out = append(out, "Recommendations kept within a "+p.Budget+" budget")
	}
	if len(p.Interests) > 0 {
		out = append(out, "Focused on "+strings.Join(p.Interests, ", "))
	}
	if len(p.DietaryRestrictions) > 0 {
		out = append(out, "Dining picks respect "+strings.Join(p.DietaryRestrictions, ", "))
	}
	if p.Duration != "" {
		out = append(out, "Itinerary paced for "+p.Duration)
	}
	return out
}

// Manifest returns a quick overview and the list of pending sections.
func (s *Service) Manifest(ctx context.Context, req *TripRequest) (*Manifest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.normalize()

	m := &Manifest{SessionID: uuid.NewString(), Source: s.source()}
	for _, sec := range Sections {
		m.Sections = append(m.Sections, ManifestSection{ChunkMeta: sec.meta(), Status: "pending"})
	}

	prompt := ManifestPrompt(req)
	text, err := s.call(ctx, TaskManifest, prompt, s.responseBudget(prompt, manifestMaxTokens), req.meta())
	if err == nil {
		var body manifestBody
		if err = ai.DecodeJSON(TaskManifest, text, &body); err == nil {
			if strings.TrimSpace(body.Overview) != "" {
				m.Overview = body.Overview
				m.QuickRecommendations = body.QuickRecommendations
				return m, nil
			}
			err = &ai.ParseError{Task: TaskManifest, Preview: ai.Preview(ai.CleanJSON(text)), Cause: fmt.Errorf("%w: empty overview", ErrShapeMismatch)}
		}
	}
	if err := s.degrade(TaskManifest, err); err != nil {
		return nil, err
	}
	body := mockManifestBody(req)
	m.Overview = body.Overview
	m.QuickRecommendations = body.QuickRecommendations
	m.Source = SourceFallback
	return m, nil
}
