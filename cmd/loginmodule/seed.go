// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/loginmodule/internal/backend"
)

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	dryRun  bool
	timeout time.Duration
}

// Validate checks that the configuration is valid.
func (cfg *seedConfig) Validate() error {
	if cfg.timeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("flag", "timeout").Errorf("timeout must be positive, got %s", cfg.timeout)
	}
	return nil
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(deps *Deps) *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the accounts listed in a seed file",
		Long: `Create every account in the seed file (or the default admin account
when no file is given). Existing accounts are left untouched, so the command
can be run repeatedly. With --dry-run the file is only validated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedWithDeps(cmd.Context(), cfg, cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&cfg.file, "file", "f", "", "seed file (default: backend.seed_file, then the default admin)")
	cmd.Flags().BoolVar(&cfg.dryRun, "dry-run", false, "validate the seed file without creating accounts")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultCommandTimeout, "timeout for database operations")

	return cmd
}

func runSeedWithDeps(ctx context.Context, cfg *seedConfig, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	env, err := loadEnvironment(cmd, deps)
	if err != nil {
		return err
	}

	path := cfg.file
	if path == "" {
		path = env.cfg.Backend.SeedFile
	}
	seed := backend.DefaultSeed()
	if path != "" {
		if seed, err = backend.LoadSeed(path); err != nil {
			return err
		}
	}

	if cfg.dryRun {
		cmd.Printf("Seed is valid: %d accounts\n", len(seed.Accounts))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	// Seeding is done explicitly below so the count can be reported.
	backendCfg := *env.cfg
	backendCfg.Backend.SeedFile = ""
	backendCfg.Backend.SeedDefaultAdmin = false

	svc, release, err := deps.BackendOpener(ctx, &backendCfg, env.logger)
	if err != nil {
		return err
	}
	defer release()

	created, err := svc.ApplySeed(ctx, seed)
	if err != nil {
		return err
	}
	cmd.Printf("Created %d of %d accounts\n", created, len(seed.Accounts))
	return nil
}
