// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import "context"

// Credential is the username and secret supplied for one login attempt.
// It is never persisted. Clear zeroes the secret in place.
type Credential struct {
	Username string
	Secret   []byte
}

// Clear wipes the secret bytes and forgets the username.
func (c *Credential) Clear() {
	for i := range c.Secret {
		c.Secret[i] = 0
	}
	c.Secret = nil
	c.Username = ""
}

// Collector supplies the credential for a login attempt.
// Collect is invoked synchronously once per Login call.
type Collector interface {
	Collect(ctx context.Context) (Credential, error)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ctx context.Context) (Credential, error)

// Collect calls f.
func (f CollectorFunc) Collect(ctx context.Context) (Credential, error) {
	return f(ctx)
}

// StaticCollector always yields the same username and secret.
// Each Collect returns a fresh copy of the secret, so the module wiping the
// collected credential does not affect later attempts.
type StaticCollector struct {
	username string
	secret   []byte
}

// NewStaticCollector creates a collector for fixed credentials.
func NewStaticCollector(username string, secret []byte) *StaticCollector {
	return &StaticCollector{username: username, secret: append([]byte(nil), secret...)}
}

// Collect returns a copy of the configured credential.
func (c *StaticCollector) Collect(_ context.Context) (Credential, error) {
	var secret []byte
	if c.secret != nil {
		secret = append([]byte(nil), c.secret...)
	}
	return Credential{Username: c.username, Secret: secret}, nil
}
