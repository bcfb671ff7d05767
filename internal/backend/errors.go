// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package backend

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccountExists is returned when creating an account whose username is taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials is returned for an unknown username or a wrong secret.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountLocked is returned while an account is locked out.
	ErrAccountLocked = errors.New("account is temporarily locked")

	// ErrInvalidToken is returned for an unknown or malformed token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for a token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
)
