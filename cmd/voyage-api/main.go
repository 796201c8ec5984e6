// README: Entry point; loads config, wires services, starts HTTP server and background sweepers.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"voyage/internal/ai"
	"voyage/internal/config"
	httptransport "voyage/internal/http"
	"voyage/internal/infra"
	"voyage/internal/modules/aiusage"
	"voyage/internal/modules/images"
	"voyage/internal/modules/planning"
	"voyage/internal/modules/plans"
	"voyage/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewCollector()

	var dbPool *pgxpool.Pool
	if cfg.DB.DSN != "" {
		if cfg.DB.AutoMigrate {
			if err := infra.Migrate(cfg.DB.DSN); err != nil {
				logger.Fatal("migrate", zap.Error(err))
			}
		}
		dbPool, err = infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("db init", zap.Error(err))
		}
		defer dbPool.Close()
	} else {
		logger.Warn("DATABASE_URL not set; saved plans and usage tracking are disabled")
	}

	verifier, err := infra.NewVerifier(ctx, infra.VerifierOptions{
		Provider:               cfg.Auth.Provider,
		SupabaseURL:            cfg.Auth.SupabaseURL,
		SupabaseServiceRoleKey: cfg.Auth.SupabaseServiceRoleKey,
		SupabaseJWTSecret:      cfg.Auth.SupabaseJWTSecret,
		FirebaseProjectID:      cfg.Auth.FirebaseProjectID,
		FirebaseCredentials:    cfg.Auth.FirebaseCredentials,
	})
	if err != nil {
		logger.Warn("auth not configured; user routes will answer 503", zap.String("provider", cfg.Auth.Provider), zap.Error(err))
		verifier = nil
	}

	var usageSvc *aiusage.Service
	var plansSvc *plans.Service
	if dbPool != nil {
		usageSvc = aiusage.NewService(aiusage.NewStore(dbPool), logger)
		plansSvc = plans.NewService(plans.NewStore(dbPool), cfg.Shares.TTL, logger)
	}

	if cfg.AI.Degraded {
		logger.Warn("falling back to the mock AI provider", zap.String("reason", cfg.AI.DegradedReason))
	}
	provider, err := ai.NewProvider(ctx, ai.Options{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.AI.APIKey(),
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
	}, planning.NewMockProvider(cfg.AI.MockDelay))
	if err != nil {
		logger.Fatal("ai provider init", zap.String("provider", cfg.AI.Provider), zap.Error(err))
	}
	if closer, ok := provider.(interface{ Close() }); ok {
		defer closer.Close()
	}
	provider = ai.WithTimeout(provider, cfg.AI.Timeout)
	logger.Info("ai provider ready",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()),
		zap.Bool("streaming", ai.CanStream(provider)))

	planningDeps := planning.ServiceDeps{
		Provider: provider,
		Settings: planning.Settings{
			MaxTokens:       cfg.AI.MaxTokens,
			EnableChunking:  cfg.AI.EnableChunking,
			ChunkTokenLimit: cfg.AI.ChunkTokenLimit,
			MaxChunks:       cfg.AI.MaxChunks,
			MockFallback:    cfg.AI.ParseFallback,
		},
		Logger:  logger,
		Metrics: metrics,
	}
	if usageSvc != nil {
		planningDeps.Usage = usageSvc
	}
	planningSvc := planning.NewService(planningDeps)

	imagesSvc := buildImages(ctx, cfg, logger, metrics)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Planning:   planningSvc,
		Plans:      plansSvc,
		Images:     imagesSvc,
		Usage:      usageSvc,
		Verifier:   verifier,
		Metrics:    metrics,
		Logger:     logger,
		CORSOrigin: cfg.HTTP.CORSOrigin,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if plansSvc != nil {
		go plansSvc.RunShareSweeper(ctx, cfg.Shares.SweepInterval)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.Env))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server", zap.Error(err))
	}
}

// buildImages assembles the image sources in preference order: Unsplash,
// Google Places, then the static set. Redis backs the cache when reachable.
func buildImages(ctx context.Context, cfg config.Config, logger *zap.Logger, metrics *observability.Collector) *images.Service {
	deps := images.ServiceDeps{Logger: logger, Metrics: metrics}

	if cfg.Images.UnsplashKey != "" {
		deps.Sources = append(deps.Sources, images.NewUnsplashSource(cfg.Images.UnsplashKey, ""))
	}
	if cfg.Images.GoogleMapsKey != "" {
		places, err := images.NewPlacesSource(cfg.Images.GoogleMapsKey, httptransport.PlacePhotoPath)
		if err != nil {
			logger.Warn("google places disabled", zap.Error(err))
		} else {
			deps.Sources = append(deps.Sources, places)
			deps.Places = places
		}
	}

	deps.Cache = images.NewMemoryCache(cfg.Images.CacheTTL, cfg.Images.MaxEntries)
	if cfg.Redis.Addr != "" {
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis unavailable; using in-process image cache", zap.Error(err))
		} else {
			deps.Cache = images.NewRedisCache(client, cfg.Images.CacheTTL, logger)
		}
	}
	return images.NewService(deps)
}
