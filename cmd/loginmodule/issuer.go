// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/loginmodule/internal/issuer"
)

// NewIssuerCmd creates the issuer subcommand.
func NewIssuerCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "issuer",
		Short: "Show the configured issuer and variant",
		Long: `Resolve the issuer name from configuration and check that the
configured variant is registered. Fails when no issuer name is defined.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssuerWithDeps(cmd, deps)
		},
	}
}

func runIssuerWithDeps(cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	env, err := loadEnvironment(cmd, deps)
	if err != nil {
		return err
	}

	name, err := env.cfg.IssuerResolver().IssuerName()
	if err != nil {
		return err
	}

	variant := env.cfg.Authentication.Issuer.Variant
	available := deps.Registry.Variants()
	known := false
	for _, v := range available {
		if v == variant {
			known = true
			break
		}
	}
	if !known {
		return oops.Code("ISSUER_UNKNOWN_VARIANT").
			With("variant", variant).
			With("available", available).
			Wrap(issuer.ErrUnknownVariant)
	}

	cmd.Printf("Issuer: %q\n", name)
	cmd.Printf("Variant: %s\n", variant)
	cmd.Printf("Available variants: %s\n", strings.Join(available, ", "))
	if filters := env.cfg.Authentication.Issuer.RoleFilters; len(filters) > 0 {
		cmd.Printf("Role filters: %s\n", strings.Join(filters, ", "))
	}
	return nil
}
