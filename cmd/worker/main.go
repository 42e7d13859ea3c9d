package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/pusher"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/app"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/config"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/infra/logx"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		once         bool
		interval     string
		dashboardURL string
	)
	cmd := &cobra.Command{
		Use:           "worker",
		Short:         "Collect listings where the exchanges are reachable and push them to the dashboard",
		Version:       config.Info().String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				if cfg.WorkerInterval, err = config.ParseInterval(interval); err != nil {
					return fmt.Errorf("--interval: %w", err)
				}
			}
			if dashboardURL != "" {
				cfg.DashboardURL = dashboardURL
			}
			once = once || cfg.WorkerOnce
			if cfg.WorkerSecret == "" {
				return errors.New("WORKER_SECRET is not set")
			}
			// the worker exists to reach the comparison exchanges
			cfg.DisableLocalComparison = false

			logger := logx.New().With("component", "worker")
			refresher := app.NewRefresher(cfg, logger, nil, nil, nil)
			w := &app.Worker{
				Collect: func(ctx context.Context) (listings.Result, error) {
					res, _, err := refresher.Collect(ctx, logger)
					return res, err
				},
				Pusher:     pusher.New(cfg.DashboardURL, cfg.WorkerSecret),
				Secret:     cfg.WorkerSecret,
				Interval:   cfg.WorkerInterval,
				RetryDelay: cfg.RetryDelay,
				Timeout:    cfg.CycleTimeout,
				Logger:     logger,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("worker start", "dashboard", cfg.DashboardURL, "once", once, "interval", cfg.WorkerInterval)
			if once {
				return w.RunOnce(ctx)
			}
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit (WORKER_ONCE=1)")
	cmd.Flags().StringVar(&interval, "interval", time.Hour.String(), "time between pushes, seconds or duration (WORKER_INTERVAL)")
	cmd.Flags().StringVar(&dashboardURL, "dashboard-url", "", "dashboard base URL (DASHBOARD_URL)")
	return cmd
}
