// README: Operator CLI; runs planning calls in-process, applies migrations and sweeps expired shares.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voyage/internal/ai"
	"voyage/internal/config"
	"voyage/internal/infra"
	"voyage/internal/modules/planning"
)

type tripFlags struct {
	destination string
	country     string
	traveler    string
	duration    string
	budget      string
	interests   []string
}

func (f *tripFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.destination, "destination", "d", "Kyoto", "destination name")
	cmd.Flags().StringVar(&f.country, "country", "Japan", "destination country")
	cmd.Flags().StringVarP(&f.traveler, "traveler", "t", "culture", "traveler type id")
	cmd.Flags().StringVar(&f.duration, "duration", "4 days", "trip duration")
	cmd.Flags().StringVar(&f.budget, "budget", "moderate", "budget band")
	cmd.Flags().StringSliceVar(&f.interests, "interests", nil, "comma-separated interests")
}

func (f *tripFlags) request() *planning.TripRequest {
	return &planning.TripRequest{
		Destination:  &planning.Destination{Name: f.destination, Country: f.country},
		TravelerType: &planning.TravelerType{ID: f.traveler},
		Preferences: &planning.TripPreferences{
			Duration:  f.duration,
			Budget:    f.budget,
			Interests: f.interests,
		},
	}
}

// app holds what every subcommand shares. The provider is built per
// command; migrate and sweep never touch one.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func (a *app) planning(ctx context.Context) (*planning.Service, func(), error) {
	if a.cfg.AI.Degraded {
		a.logger.Warn("falling back to the mock AI provider", zap.String("reason", a.cfg.AI.DegradedReason))
	}
	provider, err := ai.NewProvider(ctx, ai.Options{
		Provider:    a.cfg.AI.Provider,
		APIKey:      a.cfg.AI.APIKey(),
		BaseURL:     a.cfg.AI.BaseURL,
		Model:       a.cfg.AI.Model,
		Temperature: a.cfg.AI.Temperature,
	}, planning.NewMockProvider(0))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	if closer, ok := provider.(interface{ Close() }); ok {
		cleanup = closer.Close
	}
	svc := planning.NewService(planning.ServiceDeps{
		Provider: ai.WithTimeout(provider, a.cfg.AI.Timeout),
		Settings: planning.Settings{
			MaxTokens:       a.cfg.AI.MaxTokens,
			EnableChunking:  a.cfg.AI.EnableChunking,
			ChunkTokenLimit: a.cfg.AI.ChunkTokenLimit,
			MaxChunks:       a.cfg.AI.MaxChunks,
			MockFallback:    a.cfg.AI.ParseFallback,
		},
		Logger: a.logger,
	})
	return svc, cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logLevel := cfg.LogLevel
	if strings.EqualFold(logLevel, "info") {
		logLevel = "warn"
	}
	logger, err := infra.NewLogger(cfg.Env, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger}
	rootCmd := &cobra.Command{
		Use:           "voyagectl",
		Short:         "Run trip-planning calls and maintenance tasks without the HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		destinationsCmd(a),
		manifestCmd(a),
		chunkCmd(a),
		sectionsCmd(a),
		planCmd(a),
		migrateCmd(a),
		sweepCmd(a),
		usageCmd(a),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
