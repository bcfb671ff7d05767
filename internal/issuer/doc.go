// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package issuer builds login modules for a configured issuer. A Registry
// maps variant names to factories; the issuer name itself always comes from
// configuration and is never defaulted.
package issuer
