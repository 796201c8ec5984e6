// README: Benchmark test cases for the planning API; includes HTTP, DB, Redis, streaming and performance checks.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"voyage/internal/infra"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 60 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func tripPayload(chunk any) map[string]any {
	body := map[string]any{
		"destination":  map[string]any{"name": "Kyoto", "country": "Japan"},
		"travelerType": map[string]any{"id": "culture"},
		"preferences": map[string]any{
			"duration":  "4 days",
			"budget":    "moderate",
			"interests": []string{"temples", "tea"},
		},
	}
	if chunk != nil {
		body["chunk"] = chunk
	}
	return body
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	ai := base + "/api/ai"
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "DB reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "Redis reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply embedded migrations",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.cfg.DSN == "" {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				if err := infra.Migrate(r.cfg.DSN); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "tables named in the *.up.sql files exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationDir)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS", Note: fmt.Sprintf("tables=%d", len(tables))}
			},
		},
		{
			Name:  "API: server reachable",
			Focus: "health endpoint answers OK",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			},
		},

		// Catalog
		httpCaseMethod("Catalog: traveler types", http.MethodGet, base+"/api/traveler-types", nil, []int{200}, nil),
		httpCaseMethod("Catalog: destinations", http.MethodGet, base+"/api/destinations", nil, []int{200}, nil),

		// Recommendations
		httpCase("AI: destinations (valid)", ai+"/destinations", map[string]any{
			"travelerType":         map[string]any{"id": "adventure"},
			"destinationKnowledge": "no",
		}, []int{200}, []int{429}),
		httpCase("AI: destinations (unknown traveler -> 400)", ai+"/destinations", map[string]any{
			"travelerType": map[string]any{"id": "astronaut"},
		}, []int{400}, nil),
		httpCase("AI: trip plan (missing fields -> 400)", ai+"/trip-planning", map[string]any{}, []int{400}, nil),

		// Progressive plan
		httpCase("Plan: manifest", ai+"/trip-planning/manifest", tripPayload(nil), []int{200}, []int{429}),
		httpCase("Plan: chunked section list", ai+"/trip-planning/chunked", tripPayload(nil), []int{200}, nil),
		httpCase("Plan: chunk 1 (query)", ai+"/trip-planning/chunked?chunk=1", tripPayload(nil), []int{200}, []int{429}),
		httpCase("Plan: chunk 2 (body)", ai+"/trip-planning/chunked", tripPayload(2), []int{200}, []int{429}),
		httpCase("Plan: invalid chunk -> 400", ai+"/trip-planning/chunked?chunk=9", tripPayload(nil), []int{400}, nil),
		{
			Name:  "Plan: stream chunk 3",
			Focus: "SSE frames end with [DONE], or a JSON fallback for non-streaming providers",
			Run: func(ctx context.Context, r *Runner) Result {
				return streamCase(ctx, r, ai+"/trip-planning/stream?chunk=3")
			},
		},
		httpCase("Plan: single-shot plan", ai+"/trip-planning", tripPayload(nil), []int{200}, []int{429}),

		// Images
		httpCaseMethod("Images: destination image", http.MethodGet, base+"/api/images/destination?destination=Kyoto&country=Japan", nil, []int{200}, nil),
		httpCaseMethod("Images: destination gallery", http.MethodGet, base+"/api/images/destination?destination=Lisbon&count=5", nil, []int{200}, nil),
		httpCaseMethod("Images: missing destination -> 400", http.MethodGet, base+"/api/images/destination", nil, []int{400}, nil),

		// Saved plans
		httpCaseMethod("User: plans without token -> 401", http.MethodGet, base+"/api/user/plans/list", nil, []int{401}, []int{503}),
		{
			Name:  "User: plans with token",
			Focus: "owner-scoped listing",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.Token == "" {
					return Result{Status: "SKIP", Note: "no -token given"}
				}
				return doCase(ctx, r, http.MethodGet, base+"/api/user/plans/list", nil, []int{200}, []int{503})
			},
		},
		httpCaseMethod("Shared: unknown share -> 404", http.MethodGet, base+"/api/shared/"+uuid.NewString(), nil, []int{404}, []int{503}),
		manualCase("Shared: expired share -> 404", "set SHARE_TTL=1s, share a plan and read it after expiry"),

		// Concurrency
		{
			Name:  "Concurrency: all sections in parallel",
			Focus: "every chunk succeeds when requested together",
			Run: func(ctx context.Context, r *Runner) Result {
				return parallelChunks(ctx, r, ai+"/trip-planning/chunked")
			},
		},

		// Error handling
		manualCase("Error: provider down -> mock fallback", "stop the provider (bad AI_BASE_URL) and check source=fallback"),
		manualCase("Error: redis down -> memory cache", "stop Redis and check image lookups still answer"),

		// Performance
		{
			Name:  "Perf: manifest throughput",
			Focus: "fast preview under load",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodPost, ai+"/trip-planning/manifest", tripPayload(nil))
			},
		},
		{
			Name:  "Perf: image lookup throughput",
			Focus: "cached image lookups",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodGet, base+"/api/images/destination?destination=Kyoto", nil)
			},
		},
	}
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, okStatuses, pendingStatuses)
}

func httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			return doCase(ctx, r, method, url, body, okStatuses, pendingStatuses)
		},
	}
}

func (r *Runner) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.Token != "" && strings.Contains(url, "/api/user/") {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	return req, nil
}

func doCase(ctx context.Context, r *Runner, method, url string, body any, okStatuses, pendingStatuses []int) Result {
	req, err := r.newRequest(ctx, method, url, body)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)

	if contains(okStatuses, resp.StatusCode) {
		return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	if contains(pendingStatuses, resp.StatusCode) {
		return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

func streamCase(ctx context.Context, r *Runner, url string) Result {
	req, err := r.newRequest(ctx, http.MethodPost, url, tripPayload(nil))
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode == http.StatusOK {
			return Result{Status: "SKIP", Latency: time.Since(start), Note: "provider does not stream"}
		}
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}

	frames, done := 0, false
	var firstFrame time.Duration
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		if frames == 0 {
			firstFrame = time.Since(start)
		}
		frames++
		if strings.TrimPrefix(line, "data: ") == "[DONE]" {
			done = true
		}
	}
	if !done {
		return Result{Status: "FAIL", Latency: time.Since(start), Note: fmt.Sprintf("frames=%d without [DONE]", frames)}
	}
	return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("frames=%d first=%s", frames, firstFrame)}
}

func parallelChunks(ctx context.Context, r *Runner, url string) Result {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for chunk := 1; chunk <= 4; chunk++ {
		chunk := chunk
		g.Go(func() error {
			req, err := r.newRequest(gctx, http.MethodPost, fmt.Sprintf("%s?chunk=%d", url, chunk), tripPayload(nil))
			if err != nil {
				return err
			}
			resp, err := r.httpc.Do(req)
			if err != nil {
				return err
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("chunk %d: status=%d", chunk, resp.StatusCode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	return Result{Status: "PASS", Latency: time.Since(start)}
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, err := r.newRequest(ctx, method, url, payload)
				if err != nil {
					return
				}
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

var createTable = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func extractTables(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations in %s", dir)
	}
	var tables []string
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		for _, m := range createTable.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
	}
	return tables, nil
}
