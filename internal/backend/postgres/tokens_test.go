// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/loginmodule/internal/backend"
)

func TestTokenRepository_CreateAndGet(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := &backend.Token{
		ID:        ulid.Make(),
		AccountID: ulid.Make(),
		Issuer:    "holomush",
		Hash:      backend.HashToken("plaintext"),
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}

	mock := newMockPool(t)
	mock.ExpectExec(`INSERT INTO login_tokens`).
		WithArgs(token.ID.String(), token.AccountID.String(), "holomush", token.Hash, token.ExpiresAt, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	rows := pgxmock.NewRows([]string{"id", "account_id", "issuer", "token_hash", "expires_at", "created_at"}).
		AddRow(token.ID.String(), token.AccountID.String(), "holomush", token.Hash, token.ExpiresAt, now)
	mock.ExpectQuery(`WHERE token_hash = \$1`).WithArgs(token.Hash).WillReturnRows(rows)

	repo := NewTokenRepository(mock)
	require.NoError(t, repo.Create(context.Background(), token))

	got, err := repo.GetByHash(context.Background(), token.Hash)
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestTokenRepository_GetByHash_NotFound(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`FROM login_tokens`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := NewTokenRepository(mock).GetByHash(context.Background(), "missing")
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestTokenRepository_Delete(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec(`DELETE FROM login_tokens WHERE token_hash`).
		WithArgs("known").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM login_tokens WHERE token_hash`).
		WithArgs("unknown").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewTokenRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), "known"))
	require.ErrorIs(t, repo.Delete(context.Background(), "unknown"), backend.ErrNotFound)
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock := newMockPool(t)
	mock.ExpectExec(`DELETE FROM login_tokens WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := NewTokenRepository(mock).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
