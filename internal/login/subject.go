// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import "sync"

// Subject is the caller's security context: the principals attached by
// committed logins plus any private credentials the caller stores.
// Subject is safe for concurrent use. Bulk additions and removals are applied
// under a single lock so no reader observes a partial principal set.
//
// Principals are reference counted by PrincipalKey. Two logins that commit
// the same principal (two modules of one issuer both add claim:issuer=x)
// each hold a reference, and the principal stays attached until both have
// removed it.
type Subject struct {
	mu                 sync.RWMutex
	principals         []Principal
	refs               map[string]int
	privateCredentials []any
}

// NewSubject creates an empty Subject.
func NewSubject() *Subject {
	return &Subject{refs: make(map[string]int)}
}

// Principals returns a snapshot of the attached principals.
func (s *Subject) Principals() []Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Principal, len(s.principals))
	copy(out, s.principals)
	return out
}

// HasPrincipal reports whether a principal with the same key is attached.
func (s *Subject) HasPrincipal(p Principal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.refs[PrincipalKey(p)] > 0
}

// AddPrincipals takes a reference on each principal, attaching the ones not
// already present, and returns the ones it newly attached.
func (s *Subject) AddPrincipals(principals ...Principal) []Principal {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []Principal
	for _, p := range principals {
		if p == nil {
			continue
		}
		key := PrincipalKey(p)
		s.refs[key]++
		if s.refs[key] > 1 {
			continue
		}
		s.principals = append(s.principals, p)
		added = append(added, p)
	}
	return added
}

// RemovePrincipals releases one reference on each given principal, detaches
// those left without references and returns how many were detached.
func (s *Subject) RemovePrincipals(principals ...Principal) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(principals))
	for _, p := range principals {
		if p == nil {
			continue
		}
		key := PrincipalKey(p)
		if s.refs[key] == 0 {
			continue
		}
		s.refs[key]--
		if s.refs[key] == 0 {
			drop[key] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}

	kept := s.principals[:0]
	for _, p := range s.principals {
		if _, ok := drop[PrincipalKey(p)]; ok {
			continue
		}
		kept = append(kept, p)
	}
	// Zero the tail so dropped principals can be collected.
	for i := len(kept); i < len(s.principals); i++ {
		s.principals[i] = nil
	}
	s.principals = kept
	for key := range drop {
		delete(s.refs, key)
	}
	return len(drop)
}

// AddPrivateCredential stores a private credential on the subject.
func (s *Subject) AddPrivateCredential(credential any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateCredentials = append(s.privateCredentials, credential)
}

// PrivateCredentials returns a snapshot of the private credentials.
func (s *Subject) PrivateCredentials() []any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]any, len(s.privateCredentials))
	copy(out, s.privateCredentials)
	return out
}
