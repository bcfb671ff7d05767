// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/loginmodule/pkg/errutil"
)

// Default interval between expired token purges.
const defaultPurgeInterval = 10 * time.Minute

// serveConfig holds configuration for the serve command.
type serveConfig struct {
	purgeInterval time.Duration
}

// Validate checks that the configuration is valid.
func (cfg *serveConfig) Validate() error {
	if cfg.purgeInterval <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("flag", "purge-interval").
			Errorf("purge-interval must be positive, got %s", cfg.purgeInterval)
	}
	return nil
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(deps *Deps) *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics and health checks and purge expired tokens",
		Long: `Open the configured backend, expose /metrics and /healthz endpoints
on metrics.addr and delete expired session tokens periodically until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cfg, cmd, deps)
		},
	}

	cmd.Flags().DurationVar(&cfg.purgeInterval, "purge-interval", defaultPurgeInterval, "interval between expired token purges")

	return cmd
}

// tokenPurger is the backend surface serve needs.
type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

func runServeWithDeps(ctx context.Context, cfg *serveConfig, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	env, err := loadEnvironment(cmd, deps)
	if err != nil {
		return err
	}
	if _, err := env.issuerName(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	obsServer := deps.ObservabilityServerFactory(env.cfg.Metrics.Addr, ready.Load, env.logger)
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			env.logger.Warn("error stopping observability server", "error", stopErr)
		}
	}()
	go monitorServerErrors(ctx, cancel, obsErrCh, "observability", env.logger)

	svc, release, err := deps.BackendOpener(ctx, env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer release()

	// Check the issuer can be built before reporting ready.
	if _, err := deps.Registry.NewModule(
		env.cfg.IssuerResolver(),
		env.cfg.Authentication.Issuer.Variant,
		issuerDeps(env, obsServer.Metrics().InstrumentBackend(svc)),
	); err != nil {
		return err
	}
	ready.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Serving on " + obsServer.Addr())
	env.logger.Info("login module ready",
		"backend", env.cfg.Backend.Kind,
		"metrics_addr", obsServer.Addr())

	ticker := time.NewTicker(cfg.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			env.logger.Info("received shutdown signal", "signal", sig)
			return nil
		case <-ctx.Done():
			env.logger.Info("context cancelled, shutting down")
			return nil
		case <-ticker.C:
			purgeExpired(ctx, svc, env.logger)
		}
	}
}

func purgeExpired(ctx context.Context, p tokenPurger, logger *slog.Logger) {
	n, err := p.PurgeExpiredTokens(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to purge expired tokens", "error", err)
		return
	}
	if n > 0 {
		logger.InfoContext(ctx, "purged expired tokens", "count", n)
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(ctx, logger, "server error, triggering shutdown", err, "server", serverName)
			cancel()
		}
	case <-ctx.Done():
	}
}
