// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import "fmt"

// Principal is a claim recognized by a Subject.
type Principal interface {
	Name() string
}

// keyed principals define their own set identity.
type keyed interface {
	Key() string
}

// PrincipalKey returns the identity of p inside a PrincipalSet or Subject.
func PrincipalKey(p Principal) string {
	if k, ok := p.(keyed); ok {
		return k.Key()
	}
	return fmt.Sprintf("%T/%s", p, p.Name())
}

// IdentityPrincipal identifies the authenticated entity.
// It carries the opaque secret hash from the Identity, never the raw secret.
type IdentityPrincipal struct {
	EntityID   string
	SecretHash string
	Admin      bool
	Issuer     string
}

// Name returns the entity ID.
func (p IdentityPrincipal) Name() string { return p.EntityID }

// Key implements set identity.
func (p IdentityPrincipal) Key() string { return "identity:" + p.Issuer + "/" + p.EntityID }

// String omits the secret hash so principals can be logged.
func (p IdentityPrincipal) String() string {
	return fmt.Sprintf("identity(%s, issuer=%s, admin=%t)", p.EntityID, p.Issuer, p.Admin)
}

// Identity rebuilds the active identity this principal was created from.
// Callers use it to request a token after a committed login.
func (p IdentityPrincipal) Identity() *Identity {
	return &Identity{
		ID:         p.EntityID,
		SecretHash: p.SecretHash,
		Active:     true,
		Admin:      p.Admin,
		Issuer:     p.Issuer,
	}
}

// RolePrincipal grants a role.
type RolePrincipal struct {
	Role string
}

// Name returns the role name.
func (p RolePrincipal) Name() string { return p.Role }

// Key implements set identity.
func (p RolePrincipal) Key() string { return "role:" + p.Role }

// ClaimPrincipal carries an issuer-specific claim.
type ClaimPrincipal struct {
	Claim string
	Value string
}

// Name returns the claim name.
func (p ClaimPrincipal) Name() string { return p.Claim }

// Key implements set identity.
func (p ClaimPrincipal) Key() string { return "claim:" + p.Claim + "=" + p.Value }

// PrincipalSet is an insertion-ordered set of principals.
type PrincipalSet struct {
	order []Principal
	index map[string]struct{}
}

// NewPrincipalSet creates an empty set.
func NewPrincipalSet() *PrincipalSet {
	return &PrincipalSet{index: make(map[string]struct{})}
}

// Add inserts p and reports whether it was not already present.
func (s *PrincipalSet) Add(p Principal) bool {
	if p == nil {
		return false
	}
	key := PrincipalKey(p)
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.order = append(s.order, p)
	return true
}

// Contains reports whether p is in the set.
func (s *PrincipalSet) Contains(p Principal) bool {
	_, ok := s.index[PrincipalKey(p)]
	return ok
}

// Len returns the number of principals.
func (s *PrincipalSet) Len() int { return len(s.order) }

// Principals returns a copy of the principals in insertion order.
func (s *PrincipalSet) Principals() []Principal {
	out := make([]Principal, len(s.order))
	copy(out, s.order)
	return out
}

// IdentityPrincipal returns the first identity principal in the set.
func (s *PrincipalSet) IdentityPrincipal() (IdentityPrincipal, bool) {
	for _, p := range s.order {
		if ip, ok := p.(IdentityPrincipal); ok {
			return ip, true
		}
	}
	return IdentityPrincipal{}, false
}

// RolePrincipals returns the role principals in insertion order.
func (s *PrincipalSet) RolePrincipals() []RolePrincipal {
	var roles []RolePrincipal
	for _, p := range s.order {
		if rp, ok := p.(RolePrincipal); ok {
			roles = append(roles, rp)
		}
	}
	return roles
}

// Clear empties the set.
func (s *PrincipalSet) Clear() {
	s.order = nil
	s.index = make(map[string]struct{})
}

// PrincipalFactory builds principals from a verified identity.
// Implementations must be pure and must not perform I/O.
type PrincipalFactory interface {
	IdentityPrincipal(identity *Identity) IdentityPrincipal
	RolePrincipal(role Role) RolePrincipal
}

// DefaultPrincipalFactory maps identities and roles one to one.
type DefaultPrincipalFactory struct{}

// IdentityPrincipal builds the identity principal.
func (DefaultPrincipalFactory) IdentityPrincipal(identity *Identity) IdentityPrincipal {
	return IdentityPrincipal{
		EntityID:   identity.ID,
		SecretHash: identity.SecretHash,
		Admin:      identity.Admin,
		Issuer:     identity.Issuer,
	}
}

// RolePrincipal builds a role principal.
func (DefaultPrincipalFactory) RolePrincipal(role Role) RolePrincipal {
	return RolePrincipal{Role: role.Name}
}
