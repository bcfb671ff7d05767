// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/loginmodule/internal/backend"
)

// TokenRepository implements backend.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool poolIface
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(pool poolIface) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Create stores a new token.
func (r *TokenRepository) Create(ctx context.Context, token *backend.Token) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_tokens (id, account_id, issuer, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		token.ID.String(),
		token.AccountID.String(),
		token.Issuer,
		token.Hash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert token").
			With("account_id", token.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByHash retrieves a token by the hash of its plaintext.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*backend.Token, error) {
	var (
		idStr, accountStr string
		token             backend.Token
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, issuer, token_hash, expires_at, created_at
		FROM login_tokens
		WHERE token_hash = $1
	`, hash).Scan(&idStr, &accountStr, &token.Issuer, &token.Hash, &token.ExpiresAt, &token.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("operation", "get token by hash").Wrap(backend.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").With("operation", "get token by hash").Wrap(err)
	}

	if token.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("TOKEN_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if token.AccountID, err = ulid.Parse(accountStr); err != nil {
		return nil, oops.Code("TOKEN_CORRUPT_ID").With("account_id", accountStr).Wrap(err)
	}
	return &token, nil
}

// Delete removes a token by hash.
func (r *TokenRepository) Delete(ctx context.Context, hash string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM login_tokens WHERE token_hash = $1`, hash)
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("operation", "delete token").Wrap(backend.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes every token that expired at or before now.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM login_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("TOKEN_PURGE_FAILED").Wrap(err)
	}
	return result.RowsAffected(), nil
}
