// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package issuer

import (
	"context"
	"log/slog"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/loginmodule/internal/login"
)

// Claim names added by StandardVariant.
const (
	ClaimIssuer = "issuer"
	ClaimAdmin  = "admin"
)

var _ login.Variant = (*StandardVariant)(nil)

// StandardVariant fetches roles from a RoleProvider, keeps those matching
// the configured filters and tags the subject with issuer claims.
type StandardVariant struct {
	name    string
	backend login.Backend
	roles   login.RoleProvider
	filters []glob.Glob
	logger  *slog.Logger
}

// StandardOption configures a StandardVariant.
type StandardOption func(*StandardVariant) error

// WithRoleFilters keeps only roles matching at least one pattern. Patterns
// use ':' as the segment separator, so "game:*" matches "game:builder" but
// not "game:staff:lead".
func WithRoleFilters(patterns ...string) StandardOption {
	return func(v *StandardVariant) error {
		for _, p := range patterns {
			g, err := glob.Compile(p, ':')
			if err != nil {
				return oops.Code("ISSUER_INVALID_ROLE_FILTER").With("pattern", p).Wrap(err)
			}
			v.filters = append(v.filters, g)
		}
		return nil
	}
}

// WithVariantLogger sets the audit logger.
func WithVariantLogger(logger *slog.Logger) StandardOption {
	return func(v *StandardVariant) error {
		if logger != nil {
			v.logger = logger
		}
		return nil
	}
}

// NewStandardVariant creates a StandardVariant for the named issuer.
func NewStandardVariant(name string, backend login.Backend, roles login.RoleProvider, opts ...StandardOption) (*StandardVariant, error) {
	if backend == nil {
		return nil, oops.Code("ISSUER_INVALID_DEPENDENCY").Errorf("backend is required")
	}
	if roles == nil {
		return nil, oops.Code("ISSUER_INVALID_DEPENDENCY").Errorf("role provider is required")
	}

	v := &StandardVariant{
		name:    name,
		backend: backend,
		roles:   roles,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Backend implements login.BackendAccessor.
func (v *StandardVariant) Backend() login.Backend {
	return v.backend
}

// Roles returns the identity's roles that pass the filters.
func (v *StandardVariant) Roles(ctx context.Context, identity *login.Identity) ([]login.Role, error) {
	roles, err := v.roles.Roles(ctx, identity)
	if err != nil {
		return nil, oops.With("issuer", v.name).Wrap(err)
	}
	if len(v.filters) == 0 {
		return roles, nil
	}

	kept := make([]login.Role, 0, len(roles))
	for _, role := range roles {
		if v.allowed(role.Name) {
			kept = append(kept, role)
		}
	}
	return kept, nil
}

func (v *StandardVariant) allowed(role string) bool {
	for _, g := range v.filters {
		if g.Match(role) {
			return true
		}
	}
	return false
}

// ExtendPrincipals adds an issuer claim, plus an admin claim for
// administrators.
func (v *StandardVariant) ExtendPrincipals(_ context.Context, identity *login.Identity, principals *login.PrincipalSet) {
	principals.Add(login.ClaimPrincipal{Claim: ClaimIssuer, Value: v.name})
	if identity.Admin {
		principals.Add(login.ClaimPrincipal{Claim: ClaimAdmin, Value: "true"})
	}
}

// PostAuthentication writes an audit record.
func (v *StandardVariant) PostAuthentication(ctx context.Context, identity *login.Identity) {
	v.logger.InfoContext(ctx, "identity authenticated",
		"issuer", v.name,
		"identity", identity.ID,
		"admin", identity.Admin)
}
