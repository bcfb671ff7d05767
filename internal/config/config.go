// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads login module configuration from a YAML file and
// command-line flags.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Backend kinds.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Defaults applied before the config file and flags are loaded.
const (
	DefaultBackend          = BackendMemory
	DefaultVariant          = "standard"
	DefaultLogFormat        = "json"
	DefaultLogLevel         = "info"
	DefaultMetricsAddr      = "127.0.0.1:9100"
	DefaultLockoutThreshold = 7
	DefaultLockoutDuration  = 15 * time.Minute
	DefaultTokenTTL         = 24 * time.Hour
)

// FlagKeys maps command-line flag names to configuration keys. Only flags
// the user actually set override the file.
var FlagKeys = map[string]string{
	"issuer":       IssuerNameKey,
	"variant":      "authentication.issuer.variant",
	"backend":      "backend.kind",
	"database-url": "backend.database_url",
	"seed-file":    "backend.seed_file",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
}

// Config is the decoded configuration.
type Config struct {
	Authentication AuthenticationConfig `koanf:"authentication"`
	Backend        BackendConfig        `koanf:"backend"`
	Log            LogConfig            `koanf:"log"`
	Metrics        MetricsConfig        `koanf:"metrics"`

	source *koanf.Koanf
}

// AuthenticationConfig holds issuer and credential policy settings.
type AuthenticationConfig struct {
	Issuer  IssuerConfig  `koanf:"issuer"`
	Lockout LockoutConfig `koanf:"lockout"`
	Token   TokenConfig   `koanf:"token"`
}

// IssuerConfig selects the issuer variant. Name is read through
// IssuerResolver so that absence can be detected.
type IssuerConfig struct {
	Name        string   `koanf:"name"`
	Variant     string   `koanf:"variant"`
	Roles       []string `koanf:"roles"`
	RoleFilters []string `koanf:"role_filters"`
}

// LockoutConfig controls progressive lockout after failed logins.
type LockoutConfig struct {
	Threshold int           `koanf:"threshold"`
	Duration  time.Duration `koanf:"duration"`
}

// TokenConfig controls session tokens issued after login.
type TokenConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// BackendConfig selects and configures the identity store.
type BackendConfig struct {
	Kind             string `koanf:"kind"`
	DatabaseURL      string `koanf:"database_url"`
	SeedFile         string `koanf:"seed_file"`
	SeedDefaultAdmin bool   `koanf:"seed_default_admin"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig controls the observability HTTP server.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

var defaults = map[string]any{
	"authentication.issuer.variant":    DefaultVariant,
	"authentication.lockout.threshold": DefaultLockoutThreshold,
	"authentication.lockout.duration":  DefaultLockoutDuration.String(),
	"authentication.token.ttl":         DefaultTokenTTL.String(),
	"backend.kind":                     DefaultBackend,
	"backend.seed_default_admin":       true,
	"log.format":                       DefaultLogFormat,
	"log.level":                        DefaultLogLevel,
	"metrics.addr":                     DefaultMetricsAddr,
}

// Load reads defaults, then the YAML file at path (skipped when empty), then
// the flags the user changed. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "loading flags")
		}
	}

	return Decode(k)
}

// Decode unmarshals and validates an already-populated koanf instance.
func Decode(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(ErrInvalid, "decode: %v", err)
	}
	cfg.source = k

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendMemory, BackendPostgres}, c.Backend.Kind) {
		return invalid("backend.kind", "must be %q or %q, got %q", BackendMemory, BackendPostgres, c.Backend.Kind)
	}
	if c.Backend.Kind == BackendPostgres && c.Backend.DatabaseURL == "" {
		return invalid("backend.database_url", "is required for the postgres backend")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Authentication.Lockout.Threshold < 0 {
		return invalid("authentication.lockout.threshold", "must not be negative")
	}
	if c.Authentication.Lockout.Duration < 0 {
		return invalid("authentication.lockout.duration", "must not be negative")
	}
	if c.Authentication.Token.TTL <= 0 {
		return invalid("authentication.token.ttl", "must be positive")
	}
	return nil
}

// Source returns the raw configuration for key lookups.
func (c *Config) Source() Source {
	if c.source == nil {
		return koanf.New(".")
	}
	return c.source
}

// IssuerResolver returns a resolver over this configuration.
func (c *Config) IssuerResolver() *IssuerResolver {
	return NewIssuerResolver(c.Source())
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").
		With("key", key).
		Wrapf(ErrInvalid, "%s %s", key, fmt.Sprintf(format, args...))
}
