// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package issuer

import (
	"context"

	"github.com/holomush/loginmodule/internal/login"
)

var _ login.Variant = (*StaticVariant)(nil)

// StaticVariant grants the same roles to every identity and adds no claims.
type StaticVariant struct {
	backend login.Backend
	roles   []login.Role
}

// NewStaticVariant creates a StaticVariant granting roles.
func NewStaticVariant(backend login.Backend, roles ...string) *StaticVariant {
	v := &StaticVariant{backend: backend}
	for _, r := range roles {
		v.roles = append(v.roles, login.Role{Name: r})
	}
	return v
}

// Backend implements login.BackendAccessor.
func (v *StaticVariant) Backend() login.Backend { return v.backend }

// Roles returns a copy of the fixed roles.
func (v *StaticVariant) Roles(context.Context, *login.Identity) ([]login.Role, error) {
	return append([]login.Role(nil), v.roles...), nil
}

// ExtendPrincipals is a no-op.
func (v *StaticVariant) ExtendPrincipals(context.Context, *login.Identity, *login.PrincipalSet) {}

// PostAuthentication is a no-op.
func (v *StaticVariant) PostAuthentication(context.Context, *login.Identity) {}
