// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/userward/userward/internal/auth"
	"github.com/userward/userward/internal/auth/postgres"
	"github.com/userward/userward/internal/logging"
	"github.com/userward/userward/internal/observability"
	"github.com/userward/userward/internal/store"
	"github.com/userward/userward/pkg/errutil"
)

// ServePool is the database handle the serve command needs: the
// repository's query surface plus liveness and cleanup.
type ServePool interface {
	postgres.DB
	Ping(ctx context.Context) error
	Close()
}

// ServeDeps lets tests substitute the serve command's external
// dependencies. Nil fields use the production implementations.
type ServeDeps struct {
	PoolFactory          func(ctx context.Context, databaseURL string) (ServePool, error)
	ObservabilityFactory func(addr string, ready observability.ReadinessChecker) *observability.Server
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the authentication service host",
		Long: `Connect to PostgreSQL, construct the authentication service, and
serve metrics and health probes on the metrics address until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, nil)
		},
	}
}

// runServe hosts the long-running process: database pool, instrumented
// authentication service, and the observability endpoints.
func runServe(cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.PoolFactory == nil {
		deps.PoolFactory = func(ctx context.Context, databaseURL string) (ServePool, error) {
			return store.Connect(ctx, databaseURL)
		}
	}
	if deps.ObservabilityFactory == nil {
		deps.ObservabilityFactory = observability.NewServer
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.SetDefault("userward", version, cfg.LogFormat)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	hasher := auth.NewArgon2idHasherWithParams(auth.HashParams{
		Time:    cfg.Hasher.Time,
		Memory:  cfg.Hasher.Memory,
		Threads: cfg.Hasher.Threads,
	})
	service, err := auth.NewService(postgres.NewUserRepository(pool), hasher)
	if err != nil {
		return err
	}

	// Ready while the database answers pings.
	obsServer := deps.ObservabilityFactory(cfg.MetricsAddr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	})
	service.Instrument(obsServer.Metrics())

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cmd.Println("Userward started")
	slog.Info("service ready", "metrics_addr", obsServer.Addr())

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := obsServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(slog.Default(), "failed to stop observability server", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when the server's error
// channel reports a failure. It returns when an error arrives, the
// channel closes, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(slog.Default().With("server", serverName), "server error, triggering shutdown", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
