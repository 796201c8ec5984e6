package planning

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"voyage/internal/ai"
)

// ListSections describes the sections a client can request one by one.
func (s *Service) ListSections() SectionList {
	out := SectionList{TotalChunks: TotalChunks}
	for _, sec := range Sections {
		out.Chunks = append(out.Chunks, sec.meta())
	}
	return out
}

// GenerateChunk produces one plan section. Provider and parse failures are
// returned to the caller; this path never substitutes mock data.
func (s *Service) GenerateChunk(ctx context.Context, req *TripRequest, chunkID int) (*ChunkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sec, err := SectionByID(chunkID)
	if err != nil {
		return nil, err
	}
	req.normalize()
	return s.generateSection(ctx, req, sec)
}

func (s *Service) generateSection(ctx context.Context, req *TripRequest, sec Section) (*ChunkResult, error) {
	prompt := sec.prompt(req)
	text, err := s.call(ctx, sec.Task(), prompt, s.chunkBudget(prompt), req.meta())
	if err != nil {
		return nil, fmt.Errorf("generate %s section: %w", sec.Name, err)
	}
	data, err := decodeSection(sec, text)
	if err != nil {
		return nil, err
	}
	return &ChunkResult{Chunk: sec.meta(), Data: data, IsComplete: false}, nil
}

// decodeSection parses model text and checks the section's top-level keys.
func decodeSection(sec Section, text string) (map[string]any, error) {
	var data map[string]any
	if err := ai.DecodeJSON(sec.Task(), text, &data); err != nil {
		return nil, err
	}
	var missing []string
	for _, k := range sec.RequiredKeys {
		if _, ok := data[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &ai.ParseError{
			Task:    sec.Task(),
			Preview: ai.Preview(ai.CleanJSON(text)),
			Cause:   fmt.Errorf("%w: missing %s", ErrShapeMismatch, strings.Join(missing, ", ")),
		}
	}
	return data, nil
}

// SectionOutcome is the result of one section in GenerateAll.
type SectionOutcome struct {
	Section Section
	Result  *ChunkResult
	Err     error
}

// GenerateAll validates req and runs every section with at most parallel
// calls in flight. Sections succeed or fail independently; outcomes are in
// chunk order.
func (s *Service) GenerateAll(ctx context.Context, req *TripRequest, parallel int) ([]SectionOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.normalize()
	return s.generateAll(ctx, req, parallel), nil
}

// generateAll expects a validated, normalized request.
func (s *Service) generateAll(ctx context.Context, req *TripRequest, parallel int) []SectionOutcome {
	if parallel < 1 {
		parallel = 1
	}
	outcomes := make([]SectionOutcome, len(Sections))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, sec := range Sections {
		i, sec := i, sec
		g.Go(func() error {
			res, err := s.generateSection(ctx, req, sec)
			outcomes[i] = SectionOutcome{Section: sec, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
