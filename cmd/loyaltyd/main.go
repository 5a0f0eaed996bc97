/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the loyalty engine. Handles configuration,
  dependency injection, and graceful shutdown.

COMMANDS:
  loyaltyd serve            Run the HTTP server (kiosk + admin API)
  loyaltyd reconcile        Audit every cached balance against the ledger
  loyaltyd export-members   Print the fixed-width member report to stdout

CONFIGURATION:
  CONFIG_PATH points at an optional YAML file; every value can also be
  set via environment variables (see config/config.go). Use
  DATABASE_PATH=":memory:" for an in-memory database.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (shutdown_timeout)
  3. Stop the background scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  DATABASE_PATH="./data/loyalty.db" ./loyaltyd serve

  # Run on a different port
  SERVER_PORT=3000 ./loyaltyd serve

  # One-off audit from the shell
  ./loyaltyd reconcile

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tribe/loyalty-engine/api"
	"github.com/tribe/loyalty-engine/config"
	"github.com/tribe/loyalty-engine/loyalty"
	"github.com/tribe/loyalty-engine/store/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:           "loyaltyd",
		Short:         "Loyalty points ledger and reconciliation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), reconcileCmd(), exportMembersCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads config and wires the store and service. The caller owns the
// returned store and must Close it.
func setup() (*config.Config, *slog.Logger, *sqlite.Store, *loyalty.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log := newLogger(cfg.Logging)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("initializing database: %w", err)
	}

	svc := loyalty.NewService(store,
		loyalty.WithRules(cfg.Program.Rules()),
		loyalty.WithNotifier(&loyalty.StoreNotifier{Store: store, Log: log}),
		loyalty.WithLogger(log),
	)
	return cfg, log, store, svc, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, store, svc, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			handler := api.NewHandler(svc, log)
			router := api.NewRouter(handler, cfg.Server.CORSOrigins)

			sched := api.NewScheduler(svc, cfg.Scheduler, log)
			sched.Start()
			defer sched.Stop()

			server := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server starting", "addr", cfg.Server.Addr())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				log.Info("shutting down", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("forced shutdown: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Audit every cached balance against the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, svc, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			reports, err := svc.ReconcileAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println("All balances match the ledger.")
				return nil
			}
			for _, r := range reports {
				fmt.Printf("%s: cached %d, ledger %d (drift %+d) repaired\n",
					r.MemberID, r.PreviousBalance, r.TrueSum, r.Drift())
			}
			fmt.Printf("%d balance(s) repaired.\n", len(reports))
			return nil
		},
	}
}

func exportMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-members",
		Short: "Print the fixed-width member report to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, svc, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			members, err := svc.Members(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%-8s  %-32s  %-14s  %-8s  %10s\n", "PIN", "NAME", "PHONE", "LEVEL", "BALANCE")
			var total int64
			for _, m := range members {
				fmt.Printf("%-8s  %-32s  %-14s  %-8s  %10d\n",
					m.PIN, m.FullName(), m.Phone, m.Level(), m.Balance)
				total += m.Balance
			}
			fmt.Printf("\n%d members, %d points outstanding\n", len(members), total)
			return nil
		},
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
