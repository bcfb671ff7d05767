// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package backend

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

// Account is a stored identity.
type Account struct {
	ID             ulid.ULID
	Username       string
	PasswordHash   string
	Active         bool
	Admin          bool
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecordSuccess clears the failure counter and any lockout.
func (a *Account) RecordSuccess(now time.Time) {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = now
}

// ValidateUsername checks length and character rules.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, '.', '-' and '_'")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrAccountExists on a taken username.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// Update updates an existing account.
	Update(ctx context.Context, account *Account) error

	// RecordFailure atomically increments the account's failure counter,
	// locks it once policy's threshold is reached, and returns the new count.
	RecordFailure(ctx context.Context, id ulid.ULID, policy LockoutPolicy, now time.Time) (int, error)
}

// RoleRepository manages the roles granted to accounts.
type RoleRepository interface {
	// ListRoles returns the account's role names in grant order.
	ListRoles(ctx context.Context, accountID ulid.ULID) ([]string, error)

	// GrantRole adds a role. Granting an existing role is a no-op.
	GrantRole(ctx context.Context, accountID ulid.ULID, role string) error

	// RevokeRole removes a role. Revoking a missing role is a no-op.
	RevokeRole(ctx context.Context, accountID ulid.ULID, role string) error
}
