// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package login implements a pluggable login-module protocol.
//
// A Module mediates between a credential Collector and an issuer-specific
// Variant. The lifecycle mirrors the classic pluggable authentication module
// contract:
//
//	Initialize -> Login -> Commit | Abort
//	Logout (any time)
//
// Login collects a Credential, asks the variant's Backend for an Identity and
// fetches the identity's roles. Commit turns the verified identity into a
// PrincipalSet and attaches it to the caller's Subject. Abort and a failed
// Login never touch the Subject.
//
// # Failures
//
// Every authentication failure (missing username, unknown identity, wrong
// secret, inactive identity, backend error) surfaces as one error kind coded
// LOGIN_FAILED and wrapping ErrFailedAuthentication. The cause is only logged.
// Collector failures propagate unchanged.
//
// # Concurrency
//
// A Module holds the state of exactly one in-flight authentication attempt and
// is not safe for concurrent use. Create one Module per attempt (for example
// per request). Subject is safe for concurrent use.
package login
