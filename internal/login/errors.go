// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import "errors"

var (
	// ErrFailedAuthentication is wrapped by every LOGIN_FAILED error.
	ErrFailedAuthentication = errors.New("authentication failed")

	// ErrCredentialCollection is wrapped by every LOGIN_COLLECTION_FAILED error.
	ErrCredentialCollection = errors.New("credential collection failed")

	// ErrUnsupportedCallback is returned by a CallbackHandler that cannot fill
	// one of the callbacks it was given.
	ErrUnsupportedCallback = errors.New("unsupported callback")

	// ErrNotInitialized is returned when Login is called before Initialize.
	ErrNotInitialized = errors.New("login module not initialized")
)

// errNoIdentity tags a lookup where the backend returned neither an identity
// nor an error.
var errNoIdentity = errors.New("no identity found")
