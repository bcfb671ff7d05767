// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package backend

import (
	"context"
	"errors"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Default administrator account created when no seed file is given.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin" //nolint:gosec // G101: documented bootstrap credential
	DefaultAdminRole     = "admin"
)

// Seed is a set of accounts to create at startup.
type Seed struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// SeedAccount is one account in a Seed. Either Password or PasswordHash is
// required; a hash may be argon2id or bcrypt.
type SeedAccount struct {
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password,omitempty"`
	PasswordHash string   `yaml:"password_hash,omitempty"`
	Admin        bool     `yaml:"admin,omitempty"`
	Active       *bool    `yaml:"active,omitempty"`
	Roles        []string `yaml:"roles,omitempty"`
}

// DefaultSeed returns the bootstrap admin/admin account.
func DefaultSeed() *Seed {
	return &Seed{Accounts: []SeedAccount{{
		Username: DefaultAdminUsername,
		Password: DefaultAdminPassword,
		Admin:    true,
		Roles:    []string{DefaultAdminRole},
	}}}
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator configuration
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document and validates it.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, oops.Code("SEED_PARSE_FAILED").Wrap(err)
	}
	for i, acct := range seed.Accounts {
		if acct.Username == "" {
			return nil, oops.Code("SEED_INVALID").With("index", i).Errorf("account username is required")
		}
		if acct.Password == "" && acct.PasswordHash == "" {
			return nil, oops.Code("SEED_INVALID").
				With("index", i).
				With("username", acct.Username).
				Errorf("account needs a password or password_hash")
		}
	}
	return &seed, nil
}

// ApplySeed registers every seed account that does not already exist and
// returns how many were created.
func (s *Service) ApplySeed(ctx context.Context, seed *Seed) (int, error) {
	if seed == nil {
		return 0, nil
	}

	created := 0
	for _, acct := range seed.Accounts {
		_, err := s.Register(ctx, RegisterRequest{
			Username:     acct.Username,
			Password:     acct.Password,
			PasswordHash: acct.PasswordHash,
			Admin:        acct.Admin,
			Inactive:     acct.Active != nil && !*acct.Active,
			Roles:        acct.Roles,
		})
		if errors.Is(err, ErrAccountExists) {
			s.logger.DebugContext(ctx, "seed account already exists", "username", acct.Username)
			continue
		}
		if err != nil {
			return created, oops.Code("SEED_APPLY_FAILED").With("username", acct.Username).Wrap(err)
		}
		created++
		s.logger.InfoContext(ctx, "seeded account", "username", acct.Username, "admin", acct.Admin)
	}
	return created, nil
}
