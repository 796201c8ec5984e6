package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"voyage/internal/infra"
	"voyage/internal/modules/aiusage"
	"voyage/internal/modules/planning"
	"voyage/internal/modules/plans"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

func destinationsCmd(a *app) *cobra.Command {
	var traveler, known string
	cmd := &cobra.Command{
		Use:   "destinations",
		Short: "Recommend destinations for a traveler type",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.planning(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			req := &planning.DestinationRequest{
				TravelerType:         &planning.TravelerType{ID: traveler},
				Preferences:          &planning.TripPreferences{},
				DestinationKnowledge: "no",
			}
			if known != "" {
				req.DestinationKnowledge = "yes"
				req.KnownDestination = known
			}
			resp, err := svc.RecommendDestinations(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVarP(&traveler, "traveler", "t", "culture", "traveler type id")
	cmd.Flags().StringVar(&known, "known", "", "a destination the traveler already has in mind")
	return cmd
}

func manifestCmd(a *app) *cobra.Command {
	var f tripFlags
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the quick overview and pending sections for a trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.planning(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			m, err := svc.Manifest(cmd.Context(), f.request())
			if err != nil {
				return err
			}
			return printJSON(m)
		},
	}
	f.register(cmd)
	return cmd
}

func chunkCmd(a *app) *cobra.Command {
	var f tripFlags
	var stream bool
	cmd := &cobra.Command{
		Use:   "chunk <id>",
		Short: "Generate one plan section (1-4)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", planning.ErrInvalidChunk, args[0])
			}
			svc, cleanup, err := a.planning(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if stream && svc.CanStream() {
				return svc.StreamChunk(cmd.Context(), f.request(), id, func(ev planning.StreamEvent) error {
					if ev.Type == planning.EventContentDelta {
						_, err := fmt.Fprint(cmd.OutOrStdout(), ev.Content)
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout())
					return printJSON(ev)
				})
			}
			res, err := svc.GenerateChunk(cmd.Context(), f.request(), id)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&stream, "stream", false, "print deltas as they arrive when the provider streams")
	return cmd
}

func sectionsCmd(a *app) *cobra.Command {
	var f tripFlags
	var parallel int
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Generate every plan section concurrently and report per-section timing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.planning(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			outcomes, err := svc.GenerateAll(cmd.Context(), f.request(), parallel)
			if err != nil {
				return err
			}
			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "section %d (%s): %v\n", o.Section.ID, o.Section.Name, o.Err)
					continue
				}
				if err := printJSON(o.Result); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d/%d sections in %s\n", len(outcomes)-failed, len(outcomes), time.Since(start).Round(time.Millisecond))
			if failed > 0 {
				return fmt.Errorf("%d section(s) failed", failed)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&parallel, "parallel", planning.TotalChunks, "maximum concurrent provider calls")
	return cmd
}

func planCmd(a *app) *cobra.Command {
	var f tripFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Produce a complete trip plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.planning(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			resp, err := svc.PlanTrip(cmd.Context(), f.request())
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	f.register(cmd)
	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DB.DSN == "" {
				return errNoDatabase
			}
			if err := infra.Migrate(a.cfg.DB.DSN); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func sweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-shares",
		Short: "Delete expired share links once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DB.DSN == "" {
				return errNoDatabase
			}
			pool, err := infra.NewDB(cmd.Context(), a.cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()
			svc := plans.NewService(plans.NewStore(pool), a.cfg.Shares.TTL, a.logger)
			n, err := svc.SweepExpiredShares(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired share(s)\n", n)
			return nil
		},
	}
}

func usageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage <uid>",
		Short: "Print a user's month-to-date AI usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DB.DSN == "" {
				return errNoDatabase
			}
			pool, err := infra.NewDB(cmd.Context(), a.cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()
			report, err := aiusage.NewService(aiusage.NewStore(pool), a.logger).Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}
