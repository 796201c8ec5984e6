// README: AI-usage module tests (lazy reset, quota boundary and ledger totals).
package aiusage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/infra"
)

// TestUseTokenCrossMonthReset verifies that a user with 0 tokens left from a previous month
// is automatically reset and the request succeeds (leaving 99 tokens).
func TestUseTokenCrossMonthReset(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	// Seed user with 0 tokens from a past month.
	if _, err := db.Exec(ctx, "INSERT INTO ai_usage VALUES ('user_reset', 0, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.UseToken(ctx, "user_reset"); err != nil {
		t.Fatalf("UseToken after cross-month reset: %v", err)
	}

	var remaining int
	if err := db.QueryRow(ctx, "SELECT tokens_remaining FROM ai_usage WHERE uid = 'user_reset'").Scan(&remaining); err != nil {
		t.Fatalf("query: %v", err)
	}
	if remaining != DefaultTokens-1 {
		t.Fatalf("expected %d tokens remaining, got %d", DefaultTokens-1, remaining)
	}
}

// TestUseTokenInsufficientCheck verifies that a user with 0 tokens in the current month is blocked.
func TestUseTokenInsufficientCheck(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month) VALUES ('user_zero', 0, $1)", currentMonth()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := svc.UseToken(ctx, "user_zero")
	if err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}

// TestUseTokenNewUser verifies that a user absent from the table is initialised on first call.
func TestUseTokenNewUser(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	if err := svc.UseToken(ctx, "user_new"); err != nil {
		t.Fatalf("UseToken for new user: %v", err)
	}

	var remaining int
	if err := db.QueryRow(ctx, "SELECT tokens_remaining FROM ai_usage WHERE uid = 'user_new'").Scan(&remaining); err != nil {
		t.Fatalf("query: %v", err)
	}
	if remaining != DefaultTokens-1 {
		t.Fatalf("expected %d tokens remaining after first use, got %d", DefaultTokens-1, remaining)
	}
}

func TestRecordAndReport(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	svc.Record(ctx, Usage{UID: "user_report", Provider: "openai", Model: "gpt-4", Task: "chunk_food", PromptTokens: 120, CompletionTokens: 800, Latency: time.Second})
	svc.Record(ctx, Usage{UID: "user_report", Provider: "openai", Model: "gpt-4", Task: "chunk_food", PromptTokens: 100, CompletionTokens: 0, Failed: true})
	svc.Record(ctx, Usage{UID: "user_report", Provider: "openai", Model: "gpt-4", Task: "manifest", PromptTokens: 50, CompletionTokens: 200})
	svc.Record(ctx, Usage{Provider: "openai", Model: "gpt-4", Task: "manifest", PromptTokens: 50})

	report, err := svc.Report(ctx, "user_report")
	require.NoError(t, err)

	assert.Equal(t, currentMonth(), report.Month)
	assert.Equal(t, DefaultTokens, report.TokensRemaining)
	require.Len(t, report.Tasks, 2)
	assert.Equal(t, TaskTotal{Task: "chunk_food", Calls: 2, PromptTokens: 220, CompletionTokens: 800}, report.Tasks[0])
	assert.Equal(t, TaskTotal{Task: "manifest", Calls: 1, PromptTokens: 50, CompletionTokens: 200}, report.Tasks[1])
}

func TestRecordSurvivesCancelledContext(t *testing.T) {
	svc, db := setupTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.Record(ctx, Usage{UID: "user_cancel", Provider: "mock", Model: "mock", Task: "destinations"})

	var n int
	require.NoError(t, db.QueryRow(context.Background(), "SELECT COUNT(*) FROM ai_usage_events WHERE uid = 'user_cancel'").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestCallerContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", CallerFrom(ctx))
	assert.Equal(t, "", CallerFrom(WithCaller(ctx, "")))
	assert.Equal(t, "uid-1", CallerFrom(WithCaller(ctx, "uid-1")))
}

// setupTestService creates a real postgres-backed Service for integration tests.
// It skips the test when VOYAGE_TEST_DSN is not set.
func setupTestService(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("VOYAGE_TEST_DSN")
	if dsn == "" {
		t.Skip("VOYAGE_TEST_DSN not set; skipping DB-backed tests")
	}

	if err := infra.Migrate(dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ctx := context.Background()
	db, err := infra.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(ctx, "TRUNCATE TABLE ai_usage, ai_usage_events"); err != nil {
		t.Fatalf("truncate ai_usage: %v", err)
	}

	return NewService(NewStore(db), nil), db
}
