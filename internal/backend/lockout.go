// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package backend

import "time"

// Default lockout policy.
const (
	DefaultLockoutThreshold = 7
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy locks an account after Threshold consecutive failures.
// A zero Threshold disables lockout.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the default policy.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// LockoutStatus is the outcome of evaluating an account's lockout state.
type LockoutStatus struct {
	// Locked reports that the account is currently locked.
	Locked bool

	// Remaining is the time until the lockout expires.
	Remaining time.Duration
}

// Check evaluates the account's lockout at now. Expired locks do not count.
func (p LockoutPolicy) Check(account *Account, now time.Time) LockoutStatus {
	if account.LockedUntil == nil || !account.LockedUntil.After(now) {
		return LockoutStatus{}
	}
	return LockoutStatus{Locked: true, Remaining: account.LockedUntil.Sub(now)}
}

// LockedUntil returns the lockout expiry after failures consecutive failures,
// or nil when the threshold has not been reached.
func (p LockoutPolicy) LockedUntil(failures int, now time.Time) *time.Time {
	if p.Threshold <= 0 || failures < p.Threshold {
		return nil
	}
	until := now.Add(p.Duration)
	return &until
}
