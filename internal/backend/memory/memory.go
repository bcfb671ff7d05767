// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides in-process repositories for the backend service.
// Data does not survive a restart.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/loginmodule/internal/backend"
)

// AccountRepository stores accounts in memory. Usernames are case-insensitive.
type AccountRepository struct {
	mu         sync.RWMutex
	byID       map[ulid.ULID]*backend.Account
	byUsername map[string]ulid.ULID
}

// NewAccountRepository creates an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:       make(map[ulid.ULID]*backend.Account),
		byUsername: make(map[string]ulid.ULID),
	}
}

// Create stores a copy of account.
func (r *AccountRepository) Create(_ context.Context, account *backend.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(account.Username)
	if _, ok := r.byUsername[key]; ok {
		return oops.With("username", account.Username).Wrap(backend.ErrAccountExists)
	}
	stored := *account
	r.byID[account.ID] = &stored
	r.byUsername[key] = account.ID
	return nil
}

// GetByID returns a copy of the account.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*backend.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, oops.With("id", id.String()).Wrap(backend.ErrNotFound)
	}
	out := *account
	return &out, nil
}

// GetByUsername returns a copy of the account.
func (r *AccountRepository) GetByUsername(_ context.Context, username string) (*backend.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, oops.With("username", username).Wrap(backend.ErrNotFound)
	}
	out := *r.byID[id]
	return &out, nil
}

// Update replaces the stored account.
func (r *AccountRepository) Update(_ context.Context, account *backend.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[account.ID]
	if !ok {
		return oops.With("id", account.ID.String()).Wrap(backend.ErrNotFound)
	}
	oldKey := strings.ToLower(current.Username)
	newKey := strings.ToLower(account.Username)
	if oldKey != newKey {
		if _, taken := r.byUsername[newKey]; taken {
			return oops.With("username", account.Username).Wrap(backend.ErrAccountExists)
		}
		delete(r.byUsername, oldKey)
		r.byUsername[newKey] = account.ID
	}
	stored := *account
	r.byID[account.ID] = &stored
	return nil
}

// RecordFailure increments the failure counter under the write lock.
func (r *AccountRepository) RecordFailure(_ context.Context, id ulid.ULID, policy backend.LockoutPolicy, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return 0, oops.With("id", id.String()).Wrap(backend.ErrNotFound)
	}
	account.FailedAttempts++
	if until := policy.LockedUntil(account.FailedAttempts, now); until != nil {
		account.LockedUntil = until
	}
	account.UpdatedAt = now
	return account.FailedAttempts, nil
}

// RoleRepository stores role grants in memory.
type RoleRepository struct {
	mu     sync.RWMutex
	grants map[ulid.ULID][]string
}

// NewRoleRepository creates an empty RoleRepository.
func NewRoleRepository() *RoleRepository {
	return &RoleRepository{grants: make(map[ulid.ULID][]string)}
}

// ListRoles returns the account's roles in grant order.
func (r *RoleRepository) ListRoles(_ context.Context, accountID ulid.ULID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.grants[accountID]), nil
}

// GrantRole adds role unless already granted.
func (r *RoleRepository) GrantRole(_ context.Context, accountID ulid.ULID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.Contains(r.grants[accountID], role) {
		r.grants[accountID] = append(r.grants[accountID], role)
	}
	return nil
}

// RevokeRole removes role if granted.
func (r *RoleRepository) RevokeRole(_ context.Context, accountID ulid.ULID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.grants[accountID] = slices.DeleteFunc(r.grants[accountID], func(g string) bool { return g == role })
	return nil
}

// TokenRepository stores tokens in memory keyed by hash.
type TokenRepository struct {
	mu     sync.RWMutex
	byHash map[string]*backend.Token
}

// NewTokenRepository creates an empty TokenRepository.
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{byHash: make(map[string]*backend.Token)}
}

// Create stores a copy of token.
func (r *TokenRepository) Create(_ context.Context, token *backend.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *token
	r.byHash[token.Hash] = &stored
	return nil
}

// GetByHash returns a copy of the token.
func (r *TokenRepository) GetByHash(_ context.Context, hash string) (*backend.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.byHash[hash]
	if !ok {
		return nil, oops.Wrap(backend.ErrNotFound)
	}
	out := *token
	return &out, nil
}

// Delete removes a token.
func (r *TokenRepository) Delete(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHash[hash]; !ok {
		return oops.Wrap(backend.ErrNotFound)
	}
	delete(r.byHash, hash)
	return nil
}

// DeleteExpired removes tokens expired at now.
func (r *TokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, token := range r.byHash {
		if token.IsExpiredAt(now) {
			delete(r.byHash, hash)
			n++
		}
	}
	return n, nil
}

// NewService returns a backend.Service over fresh in-memory repositories.
func NewService(opts ...backend.Option) (*backend.Service, error) {
	return backend.NewService(NewAccountRepository(), NewRoleRepository(), NewTokenRepository(), opts...)
}
