// README: Saved plan service (owner-scoped CRUD, share links with expiry, expired share sweeping).
package plans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voyage/internal/modules/planning"
)

type Service struct {
	repo     Repository
	shareTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, shareTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shareTTL <= 0 {
		shareTTL = 7 * 24 * time.Hour
	}
	return &Service{repo: repo, shareTTL: shareTTL, logger: logger.Named("plans"), now: time.Now}
}

// validID rejects ids that cannot match a UUID primary key.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: plan %q", ErrNotFound, id)
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Service) ListPlans(ctx context.Context, uid string) ([]PlanSummary, error) {
	return s.repo.ListPlans(ctx, uid)
}

func (s *Service) GetPlan(ctx context.Context, uid, id string) (*SavedPlan, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return s.repo.GetPlan(ctx, uid, id)
}

func (s *Service) CreatePlan(ctx context.Context, uid string, in CreatePlanInput) (*SavedPlan, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrBadRequest)
	case in.Destination == nil || strings.TrimSpace(in.Destination.Name) == "":
		return nil, fmt.Errorf("%w: destination is required", ErrBadRequest)
	case in.TravelerType == nil || in.TravelerType.ID == "":
		return nil, fmt.Errorf("%w: travelerType is required", ErrBadRequest)
	case len(in.AIResponse) == 0:
		return nil, fmt.Errorf("%w: aiResponse is required", ErrBadRequest)
	}
	prefs := in.Preferences
	if prefs == nil {
		prefs = &planning.TripPreferences{}
	}

	now := s.now().UTC()
	p := &SavedPlan{
		ID:           uuid.NewString(),
		UserID:       uid,
		Name:         name,
		Destination:  *in.Destination,
		TravelerType: *in.TravelerType,
		Preferences:  prefs,
		AIResponse:   in.AIResponse,
		Notes:        in.Notes,
		Tags:         cleanTags(in.Tags),
		IsFavorite:   in.IsFavorite,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("plan saved", zap.String("uid", uid), zap.String("plan_id", p.ID))
	return p, nil
}

func (s *Service) UpdatePlan(ctx context.Context, uid, id string, in UpdatePlanInput) (*SavedPlan, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrBadRequest)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrBadRequest)
		}
		in.Name = &name
	}
	if in.Tags != nil {
		tags := cleanTags(*in.Tags)
		in.Tags = &tags
	}
	return s.repo.UpdatePlan(ctx, uid, id, in, s.now().UTC())
}

func (s *Service) DeletePlan(ctx context.Context, uid, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	return s.repo.DeletePlan(ctx, uid, id)
}

func (s *Service) ListDestinations(ctx context.Context, uid string) ([]SavedDestination, error) {
	return s.repo.ListDestinations(ctx, uid)
}

func (s *Service) SaveDestination(ctx context.Context, uid string, in CreateDestinationInput) (*SavedDestination, error) {
	if in.Destination == nil || strings.TrimSpace(in.Destination.Name) == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrBadRequest)
	}
	dest := *in.Destination
	if dest.ID == "" {
		dest.ID = planning.ResolveDestination(dest.Name, dest.Country).ID
	}
	d := &SavedDestination{
		ID:          uuid.NewString(),
		UserID:      uid,
		Destination: dest,
		Notes:       in.Notes,
		Tags:        cleanTags(in.Tags),
		IsFavorite:  in.IsFavorite,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateDestination(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDestination(ctx context.Context, uid, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: destination %q", ErrNotFound, id)
	}
	return s.repo.DeleteDestination(ctx, uid, id)
}

// SharePlan creates a public link to one of the caller's plans, valid for the share TTL.
func (s *Service) SharePlan(ctx context.Context, uid, planID string) (*SharedPlan, error) {
	if _, err := s.GetPlan(ctx, uid, planID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sh := &SharedPlan{
		ID:        uuid.NewString(),
		PlanID:    planID,
		UserID:    uid,
		ExpiresAt: now.Add(s.shareTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateShare(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// GetShared resolves a share link for an anonymous reader. Expired links are not found.
func (s *Service) GetShared(ctx context.Context, shareID string) (*SharedPlanView, error) {
	if _, err := uuid.Parse(strings.TrimSpace(shareID)); err != nil {
		return nil, ErrNotFound
	}
	sh, plan, err := s.repo.GetShare(ctx, shareID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	plan.UserID = ""
	return &SharedPlanView{ShareID: sh.ID, ExpiresAt: sh.ExpiresAt, Plan: plan}, nil
}

// SweepExpiredShares deletes shares past their expiry and returns how many went.
func (s *Service) SweepExpiredShares(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredShares(ctx, s.now().UTC())
}

// RunShareSweeper sweeps expired shares every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (s *Service) RunShareSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpiredShares(ctx)
			if err != nil {
				s.logger.Warn("share sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expired shares removed", zap.Int64("count", n))
			}
		}
	}
}
