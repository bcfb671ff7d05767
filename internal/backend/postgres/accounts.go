// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/loginmodule/internal/backend"
)

const accountColumns = `id, username, password_hash, active, admin,
		       failed_attempts, locked_until, created_at, updated_at`

// AccountRepository implements backend.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *backend.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_accounts (
			id, username, password_hash, active, admin,
			failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		account.ID.String(),
		account.Username,
		account.PasswordHash,
		account.Active,
		account.Admin,
		account.FailedAttempts,
		account.LockedUntil,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.
				With("username", account.Username).
				Wrap(backend.ErrAccountExists)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*backend.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+`
		FROM login_accounts
		WHERE id = $1
	`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.
			With("id", id.String()).
			Wrap(backend.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*backend.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+`
		FROM login_accounts
		WHERE LOWER(username) = LOWER($1)
	`, username)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.
			With("username", username).
			Wrap(backend.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by username").
			With("username", username).
			Wrap(err)
	}
	return account, nil
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *backend.Account) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE login_accounts SET
			username = $2,
			password_hash = $3,
			active = $4,
			admin = $5,
			failed_attempts = $6,
			locked_until = $7,
			updated_at = $8
		WHERE id = $1
	`,
		account.ID.String(),
		account.Username,
		account.PasswordHash,
		account.Active,
		account.Admin,
		account.FailedAttempts,
		account.LockedUntil,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.
				With("username", account.Username).
				Wrap(backend.ErrAccountExists)
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.
			With("id", account.ID.String()).
			Wrap(backend.ErrNotFound)
	}
	return nil
}

// RecordFailure increments failed_attempts in a single statement so that
// concurrent failures are all counted.
func (r *AccountRepository) RecordFailure(ctx context.Context, id ulid.ULID, policy backend.LockoutPolicy, now time.Time) (int, error) {
	var failures int
	err := r.pool.QueryRow(ctx, `
		UPDATE login_accounts SET
			failed_attempts = failed_attempts + 1,
			locked_until = CASE
				WHEN $2::int > 0 AND failed_attempts + 1 >= $2::int THEN $3::timestamptz
				ELSE locked_until
			END,
			updated_at = $4
		WHERE id = $1
		RETURNING failed_attempts
	`, id.String(), policy.Threshold, now.Add(policy.Duration), now).Scan(&failures)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.
			With("id", id.String()).
			Wrap(backend.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "record login failure").
			With("id", id.String()).
			Wrap(err)
	}
	return failures, nil
}

func scanAccount(row pgx.Row) (*backend.Account, error) {
	var (
		idStr       string
		account     backend.Account
		lockedUntil *time.Time
	)
	if err := row.Scan(
		&idStr,
		&account.Username,
		&account.PasswordHash,
		&account.Active,
		&account.Admin,
		&account.FailedAttempts,
		&lockedUntil,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	account.ID = id
	account.LockedUntil = lockedUntil
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
