// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/loginmodule/internal/backend"
	"github.com/holomush/loginmodule/internal/backend/memory"
	"github.com/holomush/loginmodule/internal/backend/postgres"
	"github.com/holomush/loginmodule/internal/config"
)

// openBackend builds the configured backend service and applies the seed
// file, or the default admin account when no seed file is given. The
// returned func releases the backend's resources.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend.Service, func(), error) {
	opts := backendOptions(cfg, logger)

	var (
		svc     *backend.Service
		release = func() {}
		err     error
	)
	switch cfg.Backend.Kind {
	case config.BackendPostgres:
		pool, connErr := postgres.Connect(ctx, cfg.Backend.DatabaseURL, postgres.ConnectConfig{
			MaxRetries: postgres.DefaultConnectRetries,
			BaseDelay:  postgres.DefaultConnectBaseDelay,
		})
		if connErr != nil {
			return nil, nil, connErr
		}
		release = pool.Close
		svc, err = postgres.NewService(pool, opts...)
	default:
		svc, err = memory.NewService(opts...)
	}
	if err != nil {
		release()
		return nil, nil, err
	}

	seed, err := seedFor(cfg)
	if err != nil {
		release()
		return nil, nil, err
	}
	if seed != nil {
		created, err := svc.ApplySeed(ctx, seed)
		if err != nil {
			release()
			return nil, nil, err
		}
		logger.DebugContext(ctx, "applied seed", "created", created, "backend", cfg.Backend.Kind)
	}

	return svc, release, nil
}

func backendOptions(cfg *config.Config, logger *slog.Logger) []backend.Option {
	opts := []backend.Option{
		backend.WithLogger(logger),
		backend.WithLockoutPolicy(backend.LockoutPolicy{
			Threshold: cfg.Authentication.Lockout.Threshold,
			Duration:  cfg.Authentication.Lockout.Duration,
		}),
		backend.WithTokenTTL(cfg.Authentication.Token.TTL),
	}
	// A missing issuer name is reported when the module is built.
	if name, err := cfg.IssuerResolver().IssuerName(); err == nil {
		opts = append(opts, backend.WithIssuer(name))
	}
	return opts
}

func seedFor(cfg *config.Config) (*backend.Seed, error) {
	switch {
	case cfg.Backend.SeedFile != "":
		seed, err := backend.LoadSeed(cfg.Backend.SeedFile)
		if err != nil {
			return nil, oops.With("backend", cfg.Backend.Kind).Wrap(err)
		}
		return seed, nil
	case cfg.Backend.SeedDefaultAdmin:
		return backend.DefaultSeed(), nil
	default:
		return nil, nil
	}
}
