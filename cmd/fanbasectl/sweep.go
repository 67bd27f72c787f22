package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fanbase-service/internal/app"
	"fanbase-service/internal/service/expiry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openSweeper connects storage and the event publisher for expiry runs.
func openSweeper(cmd *cobra.Command, rt *runtime) (*expiry.Service, func(), error) {
	repos, err := app.OpenRepositories(cmd.Context(), rt.cfg, rt.logger)
	if err != nil {
		return nil, nil, err
	}
	publisher, closePublisher := app.NewPublisher(rt.cfg, rt.logger)

	svc := expiry.NewService(repos.Subscriptions, repos.Tx, publisher, nil, rt.logger)
	cleanup := func() {
		closePublisher()
		repos.Close(cmd.Context())
	}
	return svc, cleanup, nil
}

func newSweepCmd(rt *runtime) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sweep-expired",
		Short: "Expire active subscriptions whose end date has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				cutoff = parsed.UTC()
			}

			svc, cleanup, err := openSweeper(cmd, rt)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.SweepExpired(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d subscription(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "cutoff time in RFC3339 (defaults to now)")
	return cmd
}

func newWorkerCmd(rt *runtime) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the expiry sweep on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if schedule == "" {
				schedule = rt.cfg.ExpirySweepSchedule
			}

			svc, cleanup, err := openSweeper(cmd, rt)
			if err != nil {
				return err
			}
			defer cleanup()

			scheduler := app.NewScheduler(svc, schedule, rt.logger)
			if err := scheduler.Start(); err != nil {
				return err
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			rt.logger.Info("stopping worker")
			<-scheduler.Stop().Done()
			rt.logger.Info("worker stopped", zap.String("schedule", schedule))
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron spec (defaults to EXPIRY_SWEEP_SCHEDULE)")
	return cmd
}
