// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import "time"

// Recorder receives lifecycle metrics from a Module.
type Recorder interface {
	RecordLoginAttempt(issuer string, success bool, duration time.Duration)
	RecordCommit(issuer string, principals int)
	RecordLogout(issuer string, principals int)
}

type noopRecorder struct{}

func (noopRecorder) RecordLoginAttempt(string, bool, time.Duration) {}
func (noopRecorder) RecordCommit(string, int)                       {}
func (noopRecorder) RecordLogout(string, int)                       {}
