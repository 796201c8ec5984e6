package plans

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/modules/planning"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu     sync.Mutex
	plans  map[string]*SavedPlan
	dests  map[string]*SavedDestination
	shares map[string]*SharedPlan
}

func newMemRepo() *memRepo {
	return &memRepo{plans: map[string]*SavedPlan{}, dests: map[string]*SavedDestination{}, shares: map[string]*SharedPlan{}}
}

func (r *memRepo) ListPlans(_ context.Context, uid string) ([]PlanSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []PlanSummary{}
	for _, p := range r.plans {
		if p.UserID == uid {
			out = append(out, PlanSummary{ID: p.ID, Name: p.Name, Destination: p.Destination, TravelerType: p.TravelerType, Tags: p.Tags, IsFavorite: p.IsFavorite, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) GetPlan(_ context.Context, uid, id string) (*SavedPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.UserID != uid {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) CreatePlan(_ context.Context, p *SavedPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *memRepo) UpdatePlan(_ context.Context, uid, id string, in UpdatePlanInput, now time.Time) (*SavedPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.UserID != uid {
		return nil, ErrNotFound
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Notes != nil {
		p.Notes = in.Notes
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.IsFavorite != nil {
		p.IsFavorite = *in.IsFavorite
	}
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (r *memRepo) DeletePlan(_ context.Context, uid, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.UserID != uid {
		return ErrNotFound
	}
	delete(r.plans, id)
	for sid, sh := range r.shares {
		if sh.PlanID == id {
			delete(r.shares, sid)
		}
	}
	return nil
}

func (r *memRepo) ListDestinations(_ context.Context, uid string) ([]SavedDestination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []SavedDestination{}
	for _, d := range r.dests {
		if d.UserID == uid {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *memRepo) CreateDestination(_ context.Context, d *SavedDestination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.dests[d.ID] = &cp
	return nil
}

func (r *memRepo) DeleteDestination(_ context.Context, uid, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dests[id]
	if !ok || d.UserID != uid {
		return ErrNotFound
	}
	delete(r.dests, id)
	return nil
}

func (r *memRepo) CreateShare(_ context.Context, s *SharedPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.shares[s.ID] = &cp
	return nil
}

func (r *memRepo) GetShare(_ context.Context, shareID string, now time.Time) (*SharedPlan, *SavedPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.shares[shareID]
	if !ok || !sh.ExpiresAt.After(now) {
		return nil, nil, ErrNotFound
	}
	p, ok := r.plans[sh.PlanID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	cs, cp := *sh, *p
	return &cs, &cp, nil
}

func (r *memRepo) DeleteExpiredShares(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, sh := range r.shares {
		if !sh.ExpiresAt.After(now) {
			delete(r.shares, id)
			n++
		}
	}
	return n, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *memRepo, *fakeClock) {
	t.Helper()
	repo := newMemRepo()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo, 24*time.Hour, nil)
	svc.now = clock.now
	return svc, repo, clock
}

func planInput(name string) CreatePlanInput {
	return CreatePlanInput{
		Name:         name,
		Destination:  &planning.Destination{Name: "Kyoto", Country: "Japan"},
		TravelerType: &planning.TravelerType{ID: "culture"},
		AIResponse:   json.RawMessage(`{"plan":{"overview":"temples"}}`),
		Tags:         []string{" spring ", "", "temples"},
	}
}

func TestCreateAndGetPlan(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePlan(ctx, "alice", planInput(" Kyoto spring "))
	require.NoError(t, err)
	assert.Equal(t, "Kyoto spring", p.Name)
	assert.Equal(t, []string{"spring", "temples"}, p.Tags)
	require.NotNil(t, p.Preferences)

	got, err := svc.GetPlan(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan":{"overview":"temples"}}`, string(got.AIResponse))

	_, err = svc.GetPlan(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetPlan(ctx, "alice", "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePlanValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := planInput("")
	_, err := svc.CreatePlan(context.Background(), "alice", in)
	assert.ErrorIs(t, err, ErrBadRequest)

	in = planInput("x")
	in.AIResponse = nil
	_, err = svc.CreatePlan(context.Background(), "alice", in)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestListPlansNewestFirst(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, "alice", planInput("first"))
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Minute)
	_, err = svc.CreatePlan(ctx, "alice", planInput("second"))
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, "bob", planInput("other"))
	require.NoError(t, err)

	list, err := svc.ListPlans(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Name)
	assert.Equal(t, "first", list[1].Name)
}

func TestUpdatePlan(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	p, err := svc.CreatePlan(ctx, "alice", planInput("draft"))
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	fav := true
	name := "final"
	updated, err := svc.UpdatePlan(ctx, "alice", p.ID, UpdatePlanInput{Name: &name, IsFavorite: &fav})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Name)
	assert.True(t, updated.IsFavorite)
	assert.Equal(t, []string{"spring", "temples"}, updated.Tags)
	assert.Equal(t, clock.t, updated.UpdatedAt)

	_, err = svc.UpdatePlan(ctx, "alice", p.ID, UpdatePlanInput{})
	assert.ErrorIs(t, err, ErrBadRequest)

	blank := "  "
	_, err = svc.UpdatePlan(ctx, "alice", p.ID, UpdatePlanInput{Name: &blank})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.UpdatePlan(ctx, "bob", p.ID, UpdatePlanInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePlan(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p, err := svc.CreatePlan(ctx, "alice", planInput("gone"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeletePlan(ctx, "bob", p.ID), ErrNotFound)
	require.NoError(t, svc.DeletePlan(ctx, "alice", p.ID))
	assert.ErrorIs(t, svc.DeletePlan(ctx, "alice", p.ID), ErrNotFound)
}

func TestSaveDestination(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.SaveDestination(ctx, "alice", CreateDestinationInput{Destination: &planning.Destination{Name: "kyoto"}})
	require.NoError(t, err)
	assert.Equal(t, "kyoto-japan", d.Destination.ID)
	assert.Equal(t, []string{}, d.Tags)

	list, err := svc.ListDestinations(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.SaveDestination(ctx, "alice", CreateDestinationInput{})
	assert.ErrorIs(t, err, ErrBadRequest)

	assert.ErrorIs(t, svc.DeleteDestination(ctx, "bob", d.ID), ErrNotFound)
	require.NoError(t, svc.DeleteDestination(ctx, "alice", d.ID))
}

func TestShareLifecycle(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	p, err := svc.CreatePlan(ctx, "alice", planInput("shared"))
	require.NoError(t, err)

	_, err = svc.SharePlan(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	sh, err := svc.SharePlan(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(24*time.Hour), sh.ExpiresAt)

	view, err := svc.GetShared(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, view.Plan.ID)
	assert.Empty(t, view.Plan.UserID)

	clock.t = clock.t.Add(25 * time.Hour)
	_, err = svc.GetShared(ctx, sh.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := svc.SweepExpiredShares(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.GetShared(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunShareSweeperStopsOnCancel(t *testing.T) {
	svc, repo, clock := newTestService(t)
	ctx := context.Background()
	p, err := svc.CreatePlan(ctx, "alice", planInput("shared"))
	require.NoError(t, err)
	_, err = svc.SharePlan(ctx, "alice", p.ID)
	require.NoError(t, err)
	clock.t = clock.t.Add(48 * time.Hour)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		svc.RunShareSweeper(runCtx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.shares) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
