// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import "github.com/samber/oops"

// IssuerNameKey is the configuration key holding the issuer name.
const IssuerNameKey = "authentication.issuer.name"

// Source is a read-only view of loaded configuration. *koanf.Koanf satisfies it.
type Source interface {
	Exists(key string) bool
	String(key string) string
}

// IssuerResolver reads the issuer name from a Source.
type IssuerResolver struct {
	source Source
}

// NewIssuerResolver creates an IssuerResolver backed by source.
func NewIssuerResolver(source Source) *IssuerResolver {
	return &IssuerResolver{source: source}
}

// IssuerName returns the configured issuer name. An absent key is an error;
// a key present with an empty value is returned as the empty string.
func (r *IssuerResolver) IssuerName() (string, error) {
	if r.source == nil || !r.source.Exists(IssuerNameKey) {
		return "", oops.Code("CONFIG_NO_ISSUER_NAME").
			With("key", IssuerNameKey).
			Wrap(ErrNoIssuerNameDefined)
	}
	return r.source.String(IssuerNameKey), nil
}
