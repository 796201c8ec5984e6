package aiusage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_usage and ai_usage_events persistence.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func currentMonth() string {
	return time.Now().UTC().Format("2006-01")
}

// UseToken atomically checks the monthly quota and deducts one token.
// It resets the counter to DefaultTokens when last_reset_month is behind the current month.
// Returns ErrInsufficientTokens when 0 rows are updated (quota exhausted or user absent).
func (s *Store) UseToken(ctx context.Context, uid string) error {
	now := currentMonth()

	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			tokens_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, now, DefaultTokens, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

// EnsureUser inserts a new ai_usage row for uid with the default allowance.
// If the row already exists the insert is silently skipped (ON CONFLICT DO NOTHING).
func (s *Store) EnsureUser(ctx context.Context, uid string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, DefaultTokens, currentMonth())
	return err
}

// Remaining returns the tokens left this month; users without a row have the full allowance.
func (s *Store) Remaining(ctx context.Context, uid string) (int, error) {
	var remaining int
	var month string
	err := s.db.QueryRow(ctx, `SELECT tokens_remaining, last_reset_month FROM ai_usage WHERE uid = $1`, uid).
		Scan(&remaining, &month)
	if err != nil {
		if isNoRows(err) {
			return DefaultTokens, nil
		}
		return 0, err
	}
	if month < currentMonth() {
		return DefaultTokens, nil
	}
	return remaining, nil
}

// InsertUsage appends one provider call to the event ledger.
func (s *Store) InsertUsage(ctx context.Context, u Usage) error {
	var uid *string
	if u.UID != "" {
		uid = &u.UID
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage_events (uid, provider, model, task, prompt_tokens, completion_tokens, latency_ms, failed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uid, u.Provider, u.Model, u.Task, u.PromptTokens, u.CompletionTokens, u.Latency.Milliseconds(), u.Failed)
	return err
}

// MonthTotals sums the user's calls per task since the start of the current UTC month.
func (s *Store) MonthTotals(ctx context.Context, uid string) ([]TaskTotal, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	rows, err := s.db.Query(ctx, `
		SELECT task, COUNT(*), COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0)
		FROM ai_usage_events
		WHERE uid = $1 AND created_at >= $2
		GROUP BY task
		ORDER BY task
	`, uid, monthStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []TaskTotal{}
	for rows.Next() {
		var t TaskTotal
		if err := rows.Scan(&t.Task, &t.Calls, &t.PromptTokens, &t.CompletionTokens); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
