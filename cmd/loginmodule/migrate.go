// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/loginmodule/internal/backend/postgres"
	"github.com/holomush/loginmodule/internal/config"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back the login schema. The database URL comes from
backend.database_url or --database-url.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateWithDeps(cmd, deps, func(m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Printf("Applied %d migrations\n", len(pending))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all login tables)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateWithDeps(cmd, deps, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rolled back all migrations")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateWithDeps(cmd, deps, func(m Migrator) error {
				return printMigrationStatus(cmd, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the recorded version without running migrations",
		Long: `Mark the schema as being at VERSION and clear the dirty flag. Use only
after fixing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return runMigrateWithDeps(cmd, deps, func(m Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced version %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

// runMigrateWithDeps opens a migrator for the configured database and runs op.
func runMigrateWithDeps(cmd *cobra.Command, deps *Deps, op func(Migrator) error) error {
	deps = deps.withDefaults()
	env, err := loadEnvironment(cmd, deps)
	if err != nil {
		return err
	}

	databaseURL, err := migrationDatabaseURL(env.cfg)
	if err != nil {
		return err
	}

	m, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			env.logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	return op(m)
}

func migrationDatabaseURL(cfg *config.Config) (string, error) {
	if cfg.Backend.DatabaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").
			With("key", "backend.database_url").
			Errorf("a database URL is required for migrations")
	}
	return cfg.Backend.DatabaseURL, nil
}

func printMigrationStatus(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		return err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}

	name, err := postgres.MigrationName(version)
	if err != nil {
		return err
	}
	current := fmt.Sprintf("%d", version)
	if name != "" {
		current = name
	}
	if dirty {
		current += " (dirty)"
	}

	cmd.Printf("Current version: %s\n", current)
	cmd.Printf("Applied: %d\n", len(applied))
	cmd.Printf("Pending: %d\n", len(pending))
	for _, v := range pending {
		pendingName, err := postgres.MigrationName(v)
		if err != nil {
			return err
		}
		cmd.Printf("  %s\n", pendingName)
	}
	return nil
}

// parseForceVersion parses the VERSION argument of migrate force.
func parseForceVersion(arg string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(arg), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", arg).Wrapf(err, "version must be an integer")
	}
	return version, nil
}
