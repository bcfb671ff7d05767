// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RoleRepository implements backend.RoleRepository using PostgreSQL.
type RoleRepository struct {
	pool poolIface
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(pool poolIface) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// ListRoles returns the account's role names in grant order.
func (r *RoleRepository) ListRoles(ctx context.Context, accountID ulid.ULID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role FROM login_account_roles
		WHERE account_id = $1
		ORDER BY granted_at, role
	`, accountID.String())
	if err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").
			With("operation", "list roles").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, oops.Code("ROLE_LIST_FAILED").
				With("operation", "scan role").
				With("account_id", accountID.String()).
				Wrap(err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").
			With("operation", "iterate roles").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return roles, nil
}

// GrantRole adds a role. Granting an existing role is a no-op.
func (r *RoleRepository) GrantRole(ctx context.Context, accountID ulid.ULID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_account_roles (account_id, role)
		VALUES ($1, $2)
		ON CONFLICT (account_id, role) DO NOTHING
	`, accountID.String(), role)
	if err != nil {
		return oops.Code("ROLE_GRANT_FAILED").
			With("account_id", accountID.String()).
			With("role", role).
			Wrap(err)
	}
	return nil
}

// RevokeRole removes a role. Revoking a missing role is a no-op.
func (r *RoleRepository) RevokeRole(ctx context.Context, accountID ulid.ULID, role string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM login_account_roles
		WHERE account_id = $1 AND role = $2
	`, accountID.String(), role)
	if err != nil {
		return oops.Code("ROLE_REVOKE_FAILED").
			With("account_id", accountID.String()).
			With("role", role).
			Wrap(err)
	}
	return nil
}
