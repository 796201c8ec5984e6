// README: Saved plan store backed by Supabase PostgreSQL (pgx).
package plans

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the persistence contract the service needs. Every read and
// write except GetShare is scoped by the owner's uid.
type Repository interface {
	ListPlans(ctx context.Context, uid string) ([]PlanSummary, error)
	GetPlan(ctx context.Context, uid, id string) (*SavedPlan, error)
	CreatePlan(ctx context.Context, p *SavedPlan) error
	UpdatePlan(ctx context.Context, uid, id string, in UpdatePlanInput, now time.Time) (*SavedPlan, error)
	DeletePlan(ctx context.Context, uid, id string) error

	ListDestinations(ctx context.Context, uid string) ([]SavedDestination, error)
	CreateDestination(ctx context.Context, d *SavedDestination) error
	DeleteDestination(ctx context.Context, uid, id string) error

	CreateShare(ctx context.Context, s *SharedPlan) error
	GetShare(ctx context.Context, shareID string, now time.Time) (*SharedPlan, *SavedPlan, error)
	DeleteExpiredShares(ctx context.Context, now time.Time) (int64, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const planColumns = `id, user_id, name, destination, traveler_type, preferences, ai_response,
	notes, tags, is_favorite, created_at, updated_at`

func scanPlan(row pgx.Row) (*SavedPlan, error) {
	var p SavedPlan
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Destination, &p.TravelerType, &p.Preferences,
		&p.AIResponse, &p.Notes, &p.Tags, &p.IsFavorite, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func (s *Store) ListPlans(ctx context.Context, uid string) ([]PlanSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, destination, traveler_type, tags, is_favorite, created_at, updated_at
		FROM saved_plans
		WHERE user_id = $1
		ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PlanSummary{}
	for rows.Next() {
		var p PlanSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Destination, &p.TravelerType, &p.Tags, &p.IsFavorite, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, uid, id string) (*SavedPlan, error) {
	return scanPlan(s.db.QueryRow(ctx, `SELECT `+planColumns+` FROM saved_plans WHERE id = $1 AND user_id = $2`, id, uid))
}

func (s *Store) CreatePlan(ctx context.Context, p *SavedPlan) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO saved_plans (
			id, user_id, name, destination, traveler_type, preferences, ai_response,
			notes, tags, is_favorite, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.UserID, p.Name, p.Destination, p.TravelerType, p.Preferences, p.AIResponse,
		p.Notes, p.Tags, p.IsFavorite, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *Store) UpdatePlan(ctx context.Context, uid, id string, in UpdatePlanInput, now time.Time) (*SavedPlan, error) {
	// nil stays SQL NULL so COALESCE keeps the stored tags
	var tags any
	if in.Tags != nil {
		t := *in.Tags
		if t == nil {
			t = []string{}
		}
		tags = t
	}
	return scanPlan(s.db.QueryRow(ctx, `
		UPDATE saved_plans SET
			name = COALESCE($3::text, name),
			notes = CASE WHEN $4::boolean THEN $5::text ELSE notes END,
			tags = COALESCE($6::text[], tags),
			is_favorite = COALESCE($7::boolean, is_favorite),
			updated_at = $8
		WHERE id = $1 AND user_id = $2
		RETURNING `+planColumns,
		id, uid, in.Name, in.Notes != nil, in.Notes, tags, in.IsFavorite, now,
	))
}

func (s *Store) DeletePlan(ctx context.Context, uid, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM saved_plans WHERE id = $1 AND user_id = $2`, id, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListDestinations(ctx context.Context, uid string) ([]SavedDestination, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, destination, notes, tags, is_favorite, created_at
		FROM saved_destinations
		WHERE user_id = $1
		ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SavedDestination{}
	for rows.Next() {
		var d SavedDestination
		if err := rows.Scan(&d.ID, &d.UserID, &d.Destination, &d.Notes, &d.Tags, &d.IsFavorite, &d.CreatedAt); err != nil {
			return nil, err
		}
		if d.Tags == nil {
			d.Tags = []string{}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CreateDestination(ctx context.Context, d *SavedDestination) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO saved_destinations (id, user_id, destination, notes, tags, is_favorite, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.UserID, d.Destination, d.Notes, d.Tags, d.IsFavorite, d.CreatedAt,
	)
	return err
}

func (s *Store) DeleteDestination(ctx context.Context, uid, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM saved_destinations WHERE id = $1 AND user_id = $2`, id, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateShare(ctx context.Context, sh *SharedPlan) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO shared_plans (id, plan_id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sh.ID, sh.PlanID, sh.UserID, sh.ExpiresAt, sh.CreatedAt,
	)
	return err
}

// GetShare returns an unexpired share and its plan.
func (s *Store) GetShare(ctx context.Context, shareID string, now time.Time) (*SharedPlan, *SavedPlan, error) {
	var sh SharedPlan
	err := s.db.QueryRow(ctx, `
		SELECT id, plan_id, user_id, expires_at, created_at
		FROM shared_plans
		WHERE id = $1 AND expires_at > $2`, shareID, now,
	).Scan(&sh.ID, &sh.PlanID, &sh.UserID, &sh.ExpiresAt, &sh.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.GetPlan(ctx, sh.UserID, sh.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return &sh, plan, nil
}

func (s *Store) DeleteExpiredShares(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM shared_plans WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
