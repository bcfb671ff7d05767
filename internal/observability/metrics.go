// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/loginmodule/internal/login"
)

const namespace = "loginmodule"

var _ login.Recorder = (*Metrics)(nil)

// Metrics records login lifecycle events. It implements login.Recorder.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	LoginDuration  *prometheus.HistogramVec
	Commits        *prometheus.CounterVec
	Logouts        *prometheus.CounterVec
	BackendLatency *prometheus.HistogramVec
}

// NewMetrics creates login metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Total number of login attempts by issuer and result",
			},
			[]string{"issuer", "success"},
		),
		LoginDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "login_duration_seconds",
				Help:      "Duration of login attempts by issuer",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"issuer"},
		),
		Commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_total",
				Help:      "Total number of committed logins by issuer",
			},
			[]string{"issuer"},
		),
		Logouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logouts_total",
				Help:      "Total number of logouts by issuer",
			},
			[]string{"issuer"},
		),
		BackendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Duration of backend calls by operation and result",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "success"},
		),
	}

	reg.MustRegister(m.LoginAttempts, m.LoginDuration, m.Commits, m.Logouts, m.BackendLatency)
	return m
}

// RecordLoginAttempt implements login.Recorder.
func (m *Metrics) RecordLoginAttempt(issuer string, success bool, duration time.Duration) {
	m.LoginAttempts.WithLabelValues(issuer, strconv.FormatBool(success)).Inc()
	m.LoginDuration.WithLabelValues(issuer).Observe(duration.Seconds())
}

// RecordCommit implements login.Recorder.
func (m *Metrics) RecordCommit(issuer string, _ int) {
	m.Commits.WithLabelValues(issuer).Inc()
}

// RecordLogout implements login.Recorder.
func (m *Metrics) RecordLogout(issuer string, _ int) {
	m.Logouts.WithLabelValues(issuer).Inc()
}

// InstrumentBackend wraps b so every call is timed. When b also provides
// roles, the wrapper does too.
func (m *Metrics) InstrumentBackend(b login.Backend) login.Backend {
	ib := &instrumentedBackend{next: b, latency: m.BackendLatency}
	if rp, ok := b.(login.RoleProvider); ok {
		return &instrumentedRoleBackend{instrumentedBackend: ib, roles: rp}
	}
	return ib
}

type instrumentedBackend struct {
	next    login.Backend
	latency *prometheus.HistogramVec
}

func (b *instrumentedBackend) observe(operation string, start time.Time, err error) {
	b.latency.WithLabelValues(operation, strconv.FormatBool(err == nil)).Observe(time.Since(start).Seconds())
}

func (b *instrumentedBackend) Login(ctx context.Context, username, secret string) (*login.Identity, error) {
	start := time.Now()
	identity, err := b.next.Login(ctx, username, secret)
	b.observe("login", start, err)
	return identity, err //nolint:wrapcheck // transparent decorator
}

func (b *instrumentedBackend) GenerateToken(ctx context.Context, identity *login.Identity) (string, error) {
	start := time.Now()
	token, err := b.next.GenerateToken(ctx, identity)
	b.observe("generate_token", start, err)
	return token, err //nolint:wrapcheck // transparent decorator
}

type instrumentedRoleBackend struct {
	*instrumentedBackend
	roles login.RoleProvider
}

func (b *instrumentedRoleBackend) Roles(ctx context.Context, identity *login.Identity) ([]login.Role, error) {
	start := time.Now()
	roles, err := b.roles.Roles(ctx, identity)
	b.observe("roles", start, err)
	return roles, err //nolint:wrapcheck // transparent decorator
}
