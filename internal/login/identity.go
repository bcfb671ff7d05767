// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import "context"

// Identity is a verified account record returned by a Backend.
// The module only reads it.
type Identity struct {
	ID         string
	SecretHash string // opaque to this package
	Active     bool
	Admin      bool
	Issuer     string
}

// Role is a named role granted to an Identity.
type Role struct {
	Name string
}

// Backend performs the actual credential check and token issuance.
type Backend interface {
	// Login verifies username and secret. Implementations return an error or
	// a nil identity when the credentials do not match.
	Login(ctx context.Context, username, secret string) (*Identity, error)

	// GenerateToken issues a token for an identity that completed a login.
	// The module never calls it; callers use it after a successful flow.
	GenerateToken(ctx context.Context, identity *Identity) (string, error)
}

// RoleProvider retrieves the roles of an authenticated identity.
type RoleProvider interface {
	Roles(ctx context.Context, identity *Identity) ([]Role, error)
}

// PrincipalExtender appends issuer-specific principals during Commit.
type PrincipalExtender interface {
	ExtendPrincipals(ctx context.Context, identity *Identity, principals *PrincipalSet)
}

// PostAuthenticationHook runs once per successful Login, after roles are fetched.
type PostAuthenticationHook interface {
	PostAuthentication(ctx context.Context, identity *Identity)
}

// BackendAccessor supplies the Backend a variant authenticates against.
type BackendAccessor interface {
	Backend() Backend
}

// Variant is the capability set an issuer-specific module supplies.
type Variant interface {
	RoleProvider
	PrincipalExtender
	PostAuthenticationHook
	BackendAccessor
}
