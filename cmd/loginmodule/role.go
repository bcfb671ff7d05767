// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/loginmodule/internal/backend"
)

// roleConfig holds configuration for the role subcommands.
type roleConfig struct {
	timeout time.Duration
}

// Validate checks that the configuration is valid.
func (cfg *roleConfig) Validate() error {
	if cfg.timeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("flag", "timeout").Errorf("timeout must be positive, got %s", cfg.timeout)
	}
	return nil
}

// NewRoleCmd creates the role command group.
func NewRoleCmd(deps *Deps) *cobra.Command {
	cfg := &roleConfig{}

	cmd := &cobra.Command{
		Use:   "role",
		Short: "List, grant and revoke account roles",
		Long: `Edit the roles stored for an account. Roles become role principals
the next time the account logs in; subjects that are already committed keep
the roles they were granted until logout.`,
	}
	cmd.PersistentFlags().DurationVar(&cfg.timeout, "timeout", defaultCommandTimeout, "timeout for backend operations")

	list := &cobra.Command{
		Use:   "list USERNAME",
		Short: "Print the roles granted to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleWithDeps(cmd.Context(), cfg, cmd, deps, func(ctx context.Context, svc *backend.Service) error {
				names, err := svc.AccountRoles(ctx, args[0])
				if err != nil {
					return err
				}
				if len(names) == 0 {
					cmd.Printf("%s has no roles\n", args[0])
					return nil
				}
				cmd.Println(strings.Join(names, "\n"))
				return nil
			})
		},
	}

	grant := &cobra.Command{
		Use:   "grant USERNAME ROLE...",
		Short: "Grant roles to an account",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleWithDeps(cmd.Context(), cfg, cmd, deps, func(ctx context.Context, svc *backend.Service) error {
				for _, role := range args[1:] {
					if err := svc.GrantRole(ctx, args[0], role); err != nil {
						return err
					}
				}
				cmd.Printf("Granted %s to %s\n", strings.Join(args[1:], ", "), args[0])
				return nil
			})
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke USERNAME ROLE...",
		Short: "Revoke roles from an account",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleWithDeps(cmd.Context(), cfg, cmd, deps, func(ctx context.Context, svc *backend.Service) error {
				for _, role := range args[1:] {
					if err := svc.RevokeRole(ctx, args[0], role); err != nil {
						return err
					}
				}
				cmd.Printf("Revoked %s from %s\n", strings.Join(args[1:], ", "), args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, grant, revoke)
	return cmd
}

func runRoleWithDeps(ctx context.Context, cfg *roleConfig, cmd *cobra.Command, deps *Deps,
	fn func(context.Context, *backend.Service) error,
) error {
	deps = deps.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	env, err := loadEnvironment(cmd, deps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	svc, release, err := deps.BackendOpener(ctx, env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx, svc)
}
