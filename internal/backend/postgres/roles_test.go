// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/loginmodule/pkg/errutil"
)

func TestRoleRepository_ListRoles(t *testing.T) {
	id := ulid.Make()

	t.Run("returns roles in grant order", func(t *testing.T) {
		mock := newMockPool(t)
		rows := pgxmock.NewRows([]string{"role"}).AddRow("admin").AddRow("builder")
		mock.ExpectQuery(`SELECT role FROM login_account_roles`).
			WithArgs(id.String()).
			WillReturnRows(rows)

		got, err := NewRoleRepository(mock).ListRoles(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin", "builder"}, got)
	})

	t.Run("no roles", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT role FROM login_account_roles`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows([]string{"role"}))

		got, err := NewRoleRepository(mock).ListRoles(context.Background(), id)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("row error", func(t *testing.T) {
		mock := newMockPool(t)
		rows := pgxmock.NewRows([]string{"role"}).
			AddRow("admin").
			RowError(0, errors.New("stream reset"))
		mock.ExpectQuery(`SELECT role FROM login_account_roles`).
			WithArgs(id.String()).
			WillReturnRows(rows)

		_, err := NewRoleRepository(mock).ListRoles(context.Background(), id)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ROLE_LIST_FAILED")
	})
}

func TestRoleRepository_GrantAndRevoke(t *testing.T) {
	id := ulid.Make()
	mock := newMockPool(t)
	mock.ExpectExec(`ON CONFLICT \(account_id, role\) DO NOTHING`).
		WithArgs(id.String(), "builder").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(`DELETE FROM login_account_roles`).
		WithArgs(id.String(), "builder").
		WillReturnError(errors.New("connection refused"))

	repo := NewRoleRepository(mock)
	require.NoError(t, repo.GrantRole(context.Background(), id, "builder"))

	err := repo.RevokeRole(context.Background(), id, "builder")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "ROLE_REVOKE_FAILED")
	errutil.AssertErrorContext(t, err, "role", "builder")
}
