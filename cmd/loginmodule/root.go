// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/loginmodule/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the loginmodule CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd creates the root command with injectable dependencies.
func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loginmodule",
		Short: "Pluggable login module for HoloMUSH issuers",
		Long: `loginmodule authenticates users against a configured issuer and
produces a verified set of principals. Subcommands run a login, issue and
check session tokens, manage the database schema and expose metrics.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.String("issuer", "", "issuer name (overrides "+config.IssuerNameKey+")")
	flags.String("variant", config.DefaultVariant, "issuer variant")
	flags.String("backend", config.DefaultBackend, "identity backend: memory or postgres")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("seed-file", "", "YAML file of accounts to create at startup")
	flags.String("log-format", config.DefaultLogFormat, "log format: json or text")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	flags.String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address")

	cmd.AddCommand(NewLoginCmd(deps))
	cmd.AddCommand(NewTokenCmd(deps))
	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewIssuerCmd(deps))
	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewSeedCmd(deps))
	cmd.AddCommand(NewRoleCmd(deps))

	return cmd
}
