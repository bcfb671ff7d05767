// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/loginmodule/internal/backend"
	"github.com/holomush/loginmodule/internal/login"
	"github.com/holomush/loginmodule/pkg/errutil"
)

func TestDefaultSeed_AdminAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	created, err := svc.ApplySeed(ctx, backend.DefaultSeed())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	identity, err := svc.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.True(t, identity.Admin)

	roles, err := svc.Roles(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, []login.Role{{Name: backend.DefaultAdminRole}}, roles)
}

func TestApplySeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.ApplySeed(ctx, backend.DefaultSeed())
	require.NoError(t, err)

	created, err := svc.ApplySeed(ctx, backend.DefaultSeed())
	require.NoError(t, err)
	assert.Zero(t, created)

	created, err = svc.ApplySeed(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()
	seed, err := backend.LoadSeed("testdata/seed.yaml")
	require.NoError(t, err)
	require.Len(t, seed.Accounts, 3)

	assert.Equal(t, []string{"admin", "builder"}, seed.Accounts[0].Roles)
	assert.NotEmpty(t, seed.Accounts[1].PasswordHash)
	require.NotNil(t, seed.Accounts[2].Active)
	assert.False(t, *seed.Accounts[2].Active)

	svc, _, _ := newTestService(t)
	created, err := svc.ApplySeed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	identity, err := svc.Login(ctx, "retired", "retired")
	require.NoError(t, err)
	assert.False(t, identity.Active)

	_, err = svc.Login(ctx, "wizard", "not-the-password")
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
}

func TestParseSeed_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantCode string
	}{
		{"malformed yaml", "accounts: [", "SEED_PARSE_FAILED"},
		{"missing username", "accounts:\n  - password: x\n", "SEED_INVALID"},
		{"missing secret", "accounts:\n  - username: admin\n", "SEED_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backend.ParseSeed([]byte(tt.doc))
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestLoadSeed_MissingFile(t *testing.T) {
	_, err := backend.LoadSeed("testdata/missing.yaml")
	errutil.AssertErrorCode(t, err, "SEED_READ_FAILED")
}
