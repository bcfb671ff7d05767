// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package issuer

import "errors"

// ErrUnknownVariant is returned when no factory is registered for a variant.
var ErrUnknownVariant = errors.New("unknown issuer variant")
