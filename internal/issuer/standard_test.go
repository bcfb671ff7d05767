// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package issuer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/loginmodule/internal/login"
	"github.com/holomush/loginmodule/internal/login/mocks"
	"github.com/holomush/loginmodule/pkg/errutil"
)

type roleFunc func(ctx context.Context, identity *login.Identity) ([]login.Role, error)

func (f roleFunc) Roles(ctx context.Context, identity *login.Identity) ([]login.Role, error) {
	return f(ctx, identity)
}

func fixedRoles(names ...string) roleFunc {
	return func(context.Context, *login.Identity) ([]login.Role, error) {
		roles := make([]login.Role, 0, len(names))
		for _, n := range names {
			roles = append(roles, login.Role{Name: n})
		}
		return roles, nil
	}
}

func TestStandardVariant_RoleFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters []string
		want    []login.Role
	}{
		{
			name: "no filters keeps everything",
			want: []login.Role{{Name: "admin"}, {Name: "game:builder"}, {Name: "game:staff:lead"}},
		},
		{
			name:    "single segment wildcard",
			filters: []string{"game:*"},
			want:    []login.Role{{Name: "game:builder"}},
		},
		{
			name:    "super wildcard crosses segments",
			filters: []string{"game:**"},
			want:    []login.Role{{Name: "game:builder"}, {Name: "game:staff:lead"}},
		},
		{
			name:    "any of several patterns",
			filters: []string{"admin", "game:staff:*"},
			want:    []login.Role{{Name: "admin"}, {Name: "game:staff:lead"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewStandardVariant("holomush", mocks.NewMockBackend(t),
				fixedRoles("admin", "game:builder", "game:staff:lead"),
				WithRoleFilters(tt.filters...))
			require.NoError(t, err)

			got, err := v.Roles(context.Background(), &login.Identity{ID: "01"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandardVariant_InvalidFilter(t *testing.T) {
	_, err := NewStandardVariant("holomush", mocks.NewMockBackend(t), fixedRoles(), WithRoleFilters("game:[a-"))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "ISSUER_INVALID_ROLE_FILTER")
	errutil.AssertErrorContext(t, err, "pattern", "game:[a-")
}

func TestStandardVariant_RoleError(t *testing.T) {
	boom := errors.New("directory unavailable")
	v, err := NewStandardVariant("holomush", mocks.NewMockBackend(t),
		roleFunc(func(context.Context, *login.Identity) ([]login.Role, error) { return nil, boom }))
	require.NoError(t, err)

	_, err = v.Roles(context.Background(), &login.Identity{ID: "01"})
	require.ErrorIs(t, err, boom)
	errutil.AssertErrorContext(t, err, "issuer", "holomush")
}

func TestStandardVariant_ExtendPrincipals(t *testing.T) {
	v, err := NewStandardVariant("holomush", mocks.NewMockBackend(t), fixedRoles())
	require.NoError(t, err)

	set := login.NewPrincipalSet()
	v.ExtendPrincipals(context.Background(), &login.Identity{ID: "01"}, set)
	assert.Equal(t, []login.Principal{login.ClaimPrincipal{Claim: ClaimIssuer, Value: "holomush"}}, set.Principals())

	set = login.NewPrincipalSet()
	v.ExtendPrincipals(context.Background(), &login.Identity{ID: "01", Admin: true}, set)
	assert.True(t, set.Contains(login.ClaimPrincipal{Claim: ClaimAdmin, Value: "true"}))
}

func TestStandardVariant_PostAuthenticationAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	v, err := NewStandardVariant("holomush", mocks.NewMockBackend(t), fixedRoles(), WithVariantLogger(logger))
	require.NoError(t, err)

	v.PostAuthentication(context.Background(), &login.Identity{ID: "01ABC"})

	assert.Contains(t, buf.String(), "identity authenticated")
	assert.Contains(t, buf.String(), "identity=01ABC")
	assert.Contains(t, buf.String(), "issuer=holomush")
}

func TestNewStandardVariant_RequiresDependencies(t *testing.T) {
	_, err := NewStandardVariant("holomush", nil, fixedRoles())
	errutil.AssertErrorCode(t, err, "ISSUER_INVALID_DEPENDENCY")

	_, err = NewStandardVariant("holomush", mocks.NewMockBackend(t), nil)
	errutil.AssertErrorCode(t, err, "ISSUER_INVALID_DEPENDENCY")
}

func TestStaticVariant(t *testing.T) {
	b := mocks.NewMockBackend(t)
	v := NewStaticVariant(b, "guest", "reader")

	assert.Same(t, b, v.Backend())
	roles, err := v.Roles(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []login.Role{{Name: "guest"}, {Name: "reader"}}, roles)

	roles[0].Name = "mutated"
	again, _ := v.Roles(context.Background(), nil)
	assert.Equal(t, "guest", again[0].Name)

	set := login.NewPrincipalSet()
	v.ExtendPrincipals(context.Background(), nil, set)
	assert.Zero(t, set.Len())
}
