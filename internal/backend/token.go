// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package backend

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token configuration.
const (
	TokenBytes      = 32
	DefaultTokenTTL = 24 * time.Hour
)

// Token is an issued session token. Only the hash of the plaintext is stored.
type Token struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	Issuer    string
	Hash      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpiredAt reports whether the token is expired at t.
func (t *Token) IsExpiredAt(at time.Time) bool {
	return at.After(t.ExpiresAt)
}

// TokenRepository persists issued tokens.
type TokenRepository interface {
	// Create stores a new token.
	Create(ctx context.Context, token *Token) error

	// GetByHash retrieves a token by the hash of its plaintext.
	GetByHash(ctx context.Context, hash string) (*Token, error)

	// Delete removes a token by hash.
	Delete(ctx context.Context, hash string) error

	// DeleteExpired removes tokens expired at now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GenerateToken returns a random hex token and its SHA-256 hash.
func GenerateToken() (token, hash string, err error) {
	raw := make([]byte, TokenBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(raw)
	return token, HashToken(token), nil
}

// HashToken computes the hex SHA-256 of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
