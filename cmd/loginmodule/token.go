// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// tokenConfig holds configuration for the token subcommands.
type tokenConfig struct {
	username string
	timeout  time.Duration
}

// Validate checks that the configuration is valid.
func (cfg *tokenConfig) Validate() error {
	if cfg.timeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("flag", "timeout").Errorf("timeout must be positive, got %s", cfg.timeout)
	}
	return nil
}

// NewTokenCmd creates the token command group.
func NewTokenCmd(deps *Deps) *cobra.Command {
	cfg := &tokenConfig{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue, validate and revoke session tokens",
	}
	cmd.PersistentFlags().DurationVar(&cfg.timeout, "timeout", defaultCommandTimeout, "timeout for backend operations")

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Log in and print a session token",
		Long: `Run the login lifecycle and, once the principals are committed,
ask the backend to issue a session token for the authenticated identity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTokenIssueWithDeps(cmd.Context(), cfg, cmd, deps)
		},
	}
	issue.Flags().StringVarP(&cfg.username, "username", "u", "", "username (prompted when empty)")

	validate := &cobra.Command{
		Use:   "validate TOKEN",
		Short: "Print the identity a token was issued for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenValidateWithDeps(cmd.Context(), cfg, cmd, args[0], deps)
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke TOKEN",
		Short: "Revoke a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenRevokeWithDeps(cmd.Context(), cfg, cmd, args[0], deps)
		},
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTokenPurgeWithDeps(cmd.Context(), cfg, cmd, deps)
		},
	}

	cmd.AddCommand(issue, validate, revoke, purge)
	return cmd
}

func runTokenIssueWithDeps(ctx context.Context, cfg *tokenConfig, cmd *cobra.Command, deps *Deps) error {
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

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	svc, release, err := deps.BackendOpener(ctx, env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer release()

	subject, err := authenticate(ctx, cmd, cfg.username, env, deps, svc)
	if err != nil {
		return err
	}
	identity, err := committedIdentity(subject)
	if err != nil {
		return err
	}

	token, err := svc.GenerateToken(ctx, identity)
	if err != nil {
		return err
	}
	cmd.Println(token)
	return nil
}

func runTokenValidateWithDeps(ctx context.Context, cfg *tokenConfig, cmd *cobra.Command, token string, deps *Deps) error {
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

	identity, err := svc.ValidateToken(ctx, token)
	if err != nil {
		return err
	}
	cmd.Printf("identity: %s\nissuer: %s\nadmin: %t\n", identity.ID, identity.Issuer, identity.Admin)
	return nil
}

func runTokenRevokeWithDeps(ctx context.Context, cfg *tokenConfig, cmd *cobra.Command, token string, deps *Deps) error {
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

	if err := svc.RevokeToken(ctx, token); err != nil {
		return err
	}
	cmd.Println("Token revoked")
	return nil
}

func runTokenPurgeWithDeps(ctx context.Context, cfg *tokenConfig, cmd *cobra.Command, deps *Deps) error {
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

	n, err := svc.PurgeExpiredTokens(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Purged %d expired tokens\n", n)
	return nil
}
