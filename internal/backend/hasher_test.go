// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package backend_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/loginmodule/internal/backend"
	"github.com/holomush/loginmodule/pkg/errutil"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := backend.NewArgon2idHasher()

	t.Run("produces argon2id hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	})

	t.Run("salts every hash", func(t *testing.T) {
		hash1, err := hasher.Hash("same")
		require.NoError(t, err)
		hash2, err := hasher.Hash("same")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertCodedError(t, err, "AUTH_EMPTY_PASSWORD", backend.ErrEmptyPassword)
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := backend.NewArgon2idHasher()
	hash, err := hasher.Hash("correct")
	require.NoError(t, err)

	legacy, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{name: "argon2id match", password: "correct", hash: hash, want: true},
		{name: "argon2id mismatch", password: "wrong", hash: hash, want: false},
		{name: "argon2id empty password", password: "", hash: hash, want: false},
		{name: "bcrypt match", password: "correct", hash: string(legacy), want: true},
		{name: "bcrypt mismatch", password: "wrong", hash: string(legacy), want: false},
		{name: "malformed", password: "correct", hash: "not-a-hash", wantErr: true},
		{name: "unknown algorithm", password: "correct", hash: "$scrypt$a$b$c$d", wantErr: true},
		{name: "bad salt encoding", password: "x", hash: "$argon2id$v=19$m=65536,t=1,p=4$!!!$AAAA", wantErr: true},
		{name: "threads overflow", password: "x", hash: "$argon2id$v=19$m=65536,t=1,p=300$AAAA$AAAA", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify(tt.password, tt.hash)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestArgon2idHasher_NeedsUpgrade(t *testing.T) {
	hasher := backend.NewArgon2idHasher()

	assert.False(t, hasher.NeedsUpgrade("$argon2id$v=19$m=65536,t=1,p=4$a$b"))
	assert.True(t, hasher.NeedsUpgrade("$2a$10$abcdefghijklmnopqrstuv"))
	assert.True(t, hasher.NeedsUpgrade(""))
}
