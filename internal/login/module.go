// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/holomush/loginmodule/internal/login"

// State is the lifecycle position of a Module.
type State int

// Module states.
const (
	StateIdle State = iota
	StateInitialized
	StateLoginAttempted
	StateCommitted
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialized:
		return "initialized"
	case StateLoginAttempted:
		return "login_attempted"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// attempt is the transient state of one login attempt. It never holds the
// raw secret and is wiped by Commit, Abort, Logout and Initialize.
type attempt struct {
	username  string
	identity  *Identity
	roles     []Role
	succeeded bool
}

func (a *attempt) clear() {
	*a = attempt{}
}

// lookupResult is the tagged outcome of a backend lookup. A non-nil cause
// means no identity was found; the cause is for logs only.
type lookupResult struct {
	identity *Identity
	cause    error
}

func (r lookupResult) found() bool {
	return r.cause == nil && r.identity != nil
}

// Module runs the login lifecycle for a single authentication attempt.
// It is not safe for concurrent use.
type Module struct {
	variant  Variant
	factory  PrincipalFactory
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	issuer   string

	state       State
	subject     *Subject
	collector   Collector
	sharedState map[string]any
	options     map[string]any

	attempt attempt
	// principals is the set built by the last successful Commit.
	principals *PrincipalSet
	// committed holds every principal this instance referenced on subject.
	committed []Principal
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder. A nil recorder is ignored.
func WithRecorder(recorder Recorder) Option {
	return func(m *Module) {
		if recorder != nil {
			m.recorder = recorder
		}
	}
}

// WithPrincipalFactory replaces DefaultPrincipalFactory.
func WithPrincipalFactory(factory PrincipalFactory) Option {
	return func(m *Module) {
		if factory != nil {
			m.factory = factory
		}
	}
}

// WithTracer sets the tracer used for lifecycle spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Module) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// WithIssuerName labels logs, spans and metrics with the issuer name.
func WithIssuerName(name string) Option {
	return func(m *Module) {
		m.issuer = name
	}
}

// New creates a Module for the given variant.
func New(variant Variant, opts ...Option) (*Module, error) {
	if variant == nil {
		return nil, oops.Code("LOGIN_INVALID_VARIANT").Errorf("variant is required")
	}

	m := &Module{
		variant:    variant,
		factory:    DefaultPrincipalFactory{},
		logger:     slog.Default(),
		recorder:   noopRecorder{},
		tracer:     otel.Tracer(tracerName),
		principals: NewPrincipalSet(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State returns the current lifecycle state.
func (m *Module) State() State {
	return m.state
}

// Issuer returns the issuer name the module was built for.
func (m *Module) Issuer() string {
	return m.issuer
}

// Principals returns the principals built by the last successful Commit.
func (m *Module) Principals() []Principal {
	return m.principals.Principals()
}

// SharedState returns the shared state map passed to Initialize.
func (m *Module) SharedState() map[string]any {
	return m.sharedState
}

// Options returns the options map passed to Initialize.
func (m *Module) Options() map[string]any {
	return m.options
}

// Initialize binds the module to a subject and collector and resets every
// piece of per-attempt state. It is safe to call at any time to start a new
// cycle.
func (m *Module) Initialize(subject *Subject, collector Collector, sharedState, options map[string]any) error {
	m.logger.Debug("initializing login module", "issuer", m.issuer)

	m.attempt.clear()
	m.principals = NewPrincipalSet()
	m.committed = nil
	m.state = StateIdle
	m.subject = nil
	m.collector = nil

	if subject == nil {
		return oops.Code("LOGIN_INVALID_ARGUMENT").Errorf("subject is required")
	}
	if collector == nil {
		return oops.Code("LOGIN_INVALID_ARGUMENT").Errorf("collector is required")
	}

	m.subject = subject
	m.collector = collector
	m.sharedState = sharedState
	m.options = options
	m.state = StateInitialized
	return nil
}

// Login collects a credential and verifies it against the variant's backend.
// It returns (true, nil) on success. Authentication failures return an error
// coded LOGIN_FAILED; collector failures are returned unchanged. Login is
// never retried internally.
func (m *Module) Login(ctx context.Context) (bool, error) {
	if m.state == StateIdle || m.collector == nil {
		return false, oops.Code("LOGIN_NOT_INITIALIZED").Wrap(ErrNotInitialized)
	}

	ctx, span := m.tracer.Start(ctx, "login.Login",
		trace.WithAttributes(attribute.String("login.issuer", m.issuer)))
	defer span.End()

	start := time.Now()
	m.attempt.clear()
	m.state = StateLoginAttempted

	cred, err := m.collector.Collect(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credential collection failed")
		return false, err //nolint:wrapcheck // collector errors propagate unchanged
	}
	defer cred.Clear()

	if cred.Username == "" {
		m.fail(ctx, span, start, "", "username is null", nil)
		return false, oops.Code("LOGIN_FAILED").Wrapf(ErrFailedAuthentication, "username is null")
	}

	m.logger.DebugContext(ctx, "login attempt", "username", cred.Username, "issuer", m.issuer)

	result := m.lookup(ctx, cred.Username, string(cred.Secret))
	if !result.found() {
		m.fail(ctx, span, start, cred.Username, "no identity found", result.cause)
		return false, failedAuthentication()
	}
	if !result.identity.Active {
		m.fail(ctx, span, start, cred.Username, "identity inactive", nil)
		return false, failedAuthentication()
	}

	roles, err := m.variant.Roles(ctx, result.identity)
	if err != nil {
		m.fail(ctx, span, start, cred.Username, "role lookup failed", err)
		return false, failedAuthentication()
	}

	m.variant.PostAuthentication(ctx, result.identity)

	m.attempt = attempt{
		username:  cred.Username,
		identity:  result.identity,
		roles:     roles,
		succeeded: true,
	}
	m.recorder.RecordLoginAttempt(m.issuer, true, time.Since(start))
	span.SetAttributes(attribute.Int("login.roles", len(roles)))
	return true, nil
}

// Commit attaches the principals of a successful Login to the subject.
// It returns false when no successful Login preceded it. Transient attempt
// state is cleared on every path.
func (m *Module) Commit(ctx context.Context) (bool, error) {
	defer m.attempt.clear()

	m.logger.DebugContext(ctx, "committing login",
		"username", m.attempt.username,
		"issuer", m.issuer,
		"login_succeeded", m.attempt.succeeded,
	)

	if !m.attempt.succeeded || m.attempt.identity == nil {
		if m.state != StateIdle {
			m.state = StateAborted
		}
		return false, nil
	}

	_, span := m.tracer.Start(ctx, "login.Commit",
		trace.WithAttributes(attribute.String("login.issuer", m.issuer)))
	defer span.End()

	set := NewPrincipalSet()
	set.Add(m.factory.IdentityPrincipal(m.attempt.identity))
	for _, role := range m.attempt.roles {
		set.Add(m.factory.RolePrincipal(role))
	}
	m.variant.ExtendPrincipals(ctx, m.attempt.identity, set)

	added := m.subject.AddPrincipals(set.Principals()...)
	m.principals = set
	m.committed = append(m.committed, set.Principals()...)
	m.state = StateCommitted

	m.recorder.RecordCommit(m.issuer, len(added))
	span.SetAttributes(attribute.Int("login.principals", len(added)))
	return true, nil
}

// Abort discards the current attempt. It never attaches principals.
func (m *Module) Abort(ctx context.Context) (bool, error) {
	m.logger.DebugContext(ctx, "aborting login", "issuer", m.issuer)
	m.attempt.clear()
	if m.state != StateIdle {
		m.state = StateAborted
	}
	return true, nil
}

// Logout releases the references this module holds on the subject's
// principals, detaching those no other login still holds, and returns
// the module to StateIdle. It may be called at any time.
func (m *Module) Logout(ctx context.Context) (bool, error) {
	_, span := m.tracer.Start(ctx, "login.Logout",
		trace.WithAttributes(attribute.String("login.issuer", m.issuer)))
	defer span.End()

	m.logger.DebugContext(ctx, "logging out", "issuer", m.issuer)

	removed := 0
	if m.subject != nil && len(m.committed) > 0 {
		removed = m.subject.RemovePrincipals(m.committed...)
	}
	m.committed = nil
	m.principals.Clear()
	m.attempt.clear()
	m.state = StateIdle

	m.recorder.RecordLogout(m.issuer, removed)
	return true, nil
}

// lookup calls the backend and folds every failure, including a panic, into
// a lookupResult without an identity.
func (m *Module) lookup(ctx context.Context, username, secret string) (result lookupResult) {
	backend := m.variant.Backend()
	if backend == nil {
		return lookupResult{cause: oops.Errorf("variant has no backend")}
	}

	defer func() {
		if r := recover(); r != nil {
			result = lookupResult{cause: oops.With("username", username).Errorf("backend panic: %v", r)}
		}
	}()

	identity, err := backend.Login(ctx, username, secret)
	if err != nil {
		return lookupResult{cause: err}
	}
	if identity == nil {
		return lookupResult{cause: errNoIdentity}
	}
	return lookupResult{identity: identity}
}

func (m *Module) fail(ctx context.Context, span trace.Span, start time.Time, username, reason string, cause error) {
	attrs := []any{"username", username, "issuer", m.issuer, "reason", reason}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	m.logger.WarnContext(ctx, "login failed", attrs...)

	span.SetStatus(codes.Error, reason)
	m.recorder.RecordLoginAttempt(m.issuer, false, time.Since(start))
}

func failedAuthentication() error {
	return oops.Code("LOGIN_FAILED").Wrap(ErrFailedAuthentication)
}
