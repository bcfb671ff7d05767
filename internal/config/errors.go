// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import "errors"

var (
	// ErrNoIssuerNameDefined means the issuer name key is absent from configuration.
	ErrNoIssuerNameDefined = errors.New("no issuer name defined")

	// ErrInvalid is wrapped by every CONFIG_INVALID error.
	ErrInvalid = errors.New("invalid configuration")
)
