// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/holomush/loginmodule/internal/backend"
	"github.com/holomush/loginmodule/internal/backend/postgres"
	"github.com/holomush/loginmodule/internal/config"
	"github.com/holomush/loginmodule/internal/issuer"
	"github.com/holomush/loginmodule/internal/logging"
	"github.com/holomush/loginmodule/internal/observability"
	"github.com/holomush/loginmodule/internal/xdg"
)

// Deps contains injectable dependencies shared by the subcommands.
// All fields with nil values use their default implementations.
type Deps struct {
	// ConfigLoader loads configuration from a file and flags.
	// Default: config.Load
	ConfigLoader func(path string, flags *pflag.FlagSet) (*config.Config, error)

	// ConfigFinder locates the config file when --config is not given.
	// Default: xdg.FindConfigFile
	ConfigFinder func() (string, error)

	// BackendOpener opens the configured identity backend and applies seeds.
	// Default: openBackend
	BackendOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend.Service, func(), error)

	// MigratorFactory creates a schema migrator.
	// Default: postgres.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Metrics records login attempts and backend latency for the modules
	// the commands build.
	// Default: observability.NewMetrics on a private registry
	Metrics *observability.Metrics

	// Registry resolves issuer variants.
	// Default: issuer.DefaultRegistry
	Registry *issuer.Registry

	// Logger replaces the logger built from configuration.
	Logger *slog.Logger
}

// Migrator wraps the methods used from postgres.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	if d == nil {
		d = &Deps{}
	}
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.ConfigFinder == nil {
		d.ConfigFinder = xdg.FindConfigFile
	}
	if d.BackendOpener == nil {
		d.BackendOpener = openBackend
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return postgres.NewMigrator(databaseURL)
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if d.Registry == nil {
		d.Registry = issuer.DefaultRegistry()
	}
	return d
}

// environment is the configuration and logger a subcommand runs with.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadEnvironment(cmd *cobra.Command, deps *Deps) (*environment, error) {
	path := configFile
	if path == "" {
		found, err := deps.ConfigFinder()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg, err := deps.ConfigLoader(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		logger = logging.Setup("loginmodule", version, cfg.Log.Format, level, logWriter(cmd))
	}
	return &environment{cfg: cfg, logger: logger}, nil
}

// issuerName resolves the configured issuer name. Commands that build a
// login module call it before opening the backend.
func (env *environment) issuerName() (string, error) {
	return env.cfg.IssuerResolver().IssuerName()
}

func logWriter(cmd *cobra.Command) io.Writer {
	return cmd.ErrOrStderr()
}
