// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/loginmodule/internal/issuer"
	"github.com/holomush/loginmodule/internal/login"
	"github.com/holomush/loginmodule/pkg/errutil"
)

// Default timeout for commands that touch the backend.
const defaultCommandTimeout = 30 * time.Second

// loginConfig holds configuration for the login command.
type loginConfig struct {
	username string
	timeout  time.Duration
}

// Validate checks that the configuration is valid.
func (cfg *loginConfig) Validate() error {
	if cfg.timeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("flag", "timeout").Errorf("timeout must be positive, got %s", cfg.timeout)
	}
	return nil
}

// NewLoginCmd creates the login subcommand.
func NewLoginCmd(deps *Deps) *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print the resulting principals",
		Long: `Prompt for a username and password, run the full login lifecycle
against the configured issuer and print every principal that was committed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoginWithDeps(cmd.Context(), cfg, cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&cfg.username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultCommandTimeout, "timeout for the whole login")

	return cmd
}

func runLoginWithDeps(ctx context.Context, cfg *loginConfig, cmd *cobra.Command, deps *Deps) error {
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

	for _, p := range subject.Principals() {
		cmd.Println(login.PrincipalKey(p))
	}
	return nil
}

// authenticate runs Initialize, Login and Commit, aborting on failure, and
// returns the populated subject. Attempts and backend latency are recorded
// on deps.Metrics.
func authenticate(ctx context.Context, cmd *cobra.Command, username string, env *environment, deps *Deps, b login.Backend) (*login.Subject, error) {
	module, err := deps.Registry.NewModule(
		env.cfg.IssuerResolver(),
		env.cfg.Authentication.Issuer.Variant,
		issuerDeps(env, deps.Metrics.InstrumentBackend(b)),
		login.WithRecorder(deps.Metrics),
	)
	if err != nil {
		return nil, err
	}

	subject := login.NewSubject()
	collector := login.NewCallbackCollector(newPromptHandler(cmd.InOrStdin(), cmd.ErrOrStderr(), username))
	if err := module.Initialize(subject, collector, map[string]any{}, map[string]any{}); err != nil {
		return nil, err
	}

	ok, err := module.Login(ctx)
	if err != nil || !ok {
		if _, abortErr := module.Abort(ctx); abortErr != nil {
			errutil.LogError(ctx, env.logger, "abort failed", abortErr)
		}
		if err == nil {
			err = oops.Code("LOGIN_FAILED").Wrap(login.ErrFailedAuthentication)
		}
		env.logger.WarnContext(ctx, "login failed", "code", errutil.Code(err))
		return nil, err
	}

	committed, err := module.Commit(ctx)
	if err != nil {
		return nil, err
	}
	if !committed {
		return nil, oops.Code("LOGIN_FAILED").Wrapf(login.ErrFailedAuthentication, "commit rejected")
	}
	return subject, nil
}

// committedIdentity returns the identity principal placed on subject by a
// committed login.
func committedIdentity(subject *login.Subject) (*login.Identity, error) {
	for _, p := range subject.Principals() {
		if ip, ok := p.(login.IdentityPrincipal); ok {
			return ip.Identity(), nil
		}
	}
	return nil, oops.Code("LOGIN_FAILED").Wrapf(login.ErrFailedAuthentication, "no identity principal on subject")
}

func issuerDeps(env *environment, b login.Backend) issuer.Deps {
	return issuer.Deps{Backend: b, Config: env.cfg.Authentication.Issuer, Logger: env.logger}
}
