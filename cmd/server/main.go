/*
main.go - Application entry point

PURPOSE:
  Starts the rent ledger API server and runs the maintenance jobs by hand.

COMMANDS:
  serve           Run the HTTP API (and the meter repair cron when set)
  reconcile       Generate this month's rent for every Active tenant
  repair-meters   Reset tenant meter readings from their latest bill

FLAGS (override the environment):
  --db      SQLite database path (DWELLA_DB, default dwella.db)
  --addr    Listen address for serve (DWELLA_ADDR, default :8080)
  --owner   Limit reconcile or repair-meters to one owner

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler and wait for a running job
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server serve --db="./data/dwella.db"
  ./server reconcile --owner=6f1c...
  METER_REPAIR_CRON="15 3 * * *" ./server serve

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dwella/rent-engine/api"
	"github.com/dwella/rent-engine/auth"
	"github.com/dwella/rent-engine/config"
	"github.com/dwella/rent-engine/ledger"
	"github.com/dwella/rent-engine/rentals"
	"github.com/dwella/rent-engine/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Dwella rent ledger and electricity billing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")

	rootCmd.AddCommand(
		serveCmd(&cfg),
		reconcileCmd(&cfg),
		repairMetersCmd(&cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the wired dependencies shared by every command.
type app struct {
	logger   *logrus.Logger
	store    *sqlite.Store
	registry *prometheus.Registry
	rentals  *rentals.Service
}

func newApp(cfg *config.Server) (*app, error) {
	logger := config.NewLogger(cfg.LogLevel)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		logger:   logger,
		store:    store,
		registry: registry,
		rentals:  rentals.NewService(store, logger, rentals.NewMetrics(registry)),
	}, nil
}

// =============================================================================
// SERVE
// =============================================================================

func serveCmd(cfg *config.Server) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.store.Close()
			return serve(cmd.Context(), cfg, a)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	return cmd
}

func serve(ctx context.Context, cfg *config.Server, a *app) error {
	authService := auth.NewService(a.store, auth.NewTokenIssuer(cfg.JWTSigningKey, cfg.TokenTTL), cfg.AllowSignUp, a.logger)
	handler := api.NewHandler(a.rentals, authService, a.logger, api.NewHTTPMetrics(a.registry))
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    a.registry,
		Ping:        a.store.Ping,
	})

	var scheduler *api.MeterRepairScheduler
	if cfg.MeterRepairCron != "" {
		s, err := api.NewMeterRepairScheduler(a.rentals, cfg.MeterRepairCron, a.logger)
		if err != nil {
			return err
		}
		scheduler = s
		scheduler.Start()
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.WithFields(logrus.Fields{"addr": cfg.Addr, "db": cfg.DBPath}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// =============================================================================
// MAINTENANCE COMMANDS
// =============================================================================

func reconcileCmd(cfg *config.Server) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Generate this month's rent for every Active tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.store.Close()

			var created []ledger.Activity
			if owner != "" {
				created, err = a.rentals.ReconcileOwner(cmd.Context(), ledger.OwnerID(owner))
			} else {
				created, err = a.rentals.ReconcileAll(cmd.Context())
			}
			for _, c := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", c.TenantID, c.RentPeriod, c.SignedAmount().StringFixed(2))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rent charge(s) generated\n", len(created))
			return err
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only reconcile this owner's tenants")
	return cmd
}

func repairMetersCmd(cfg *config.Server) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "repair-meters",
		Short: "Reset tenant meter readings from their latest electricity bill",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.store.Close()

			var n int
			if owner != "" {
				n, err = a.rentals.RepairMeterReadings(cmd.Context(), ledger.OwnerID(owner))
			} else {
				n, err = a.rentals.RepairAllMeterReadings(cmd.Context())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d meter reading(s) repaired\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only repair this owner's tenants")
	return cmd
}
