// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package backend verifies credentials against stored accounts and issues
// session tokens. Storage is pluggable through the repository interfaces;
// see the memory and postgres subpackages.
package backend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/loginmodule/internal/login"
)

// dummyPasswordHash is verified when the username is unknown so that lookups
// for missing and existing accounts take the same time. It matches nothing.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

var _ login.Backend = (*Service)(nil)

// Service authenticates accounts and manages their tokens and roles.
type Service struct {
	accounts AccountRepository
	roles    RoleRepository
	tokens   TokenRepository
	hasher   PasswordHasher
	lockout  LockoutPolicy
	tokenTTL time.Duration
	issuer   string
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHasher replaces the default Argon2idHasher.
func WithHasher(h PasswordHasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithLockoutPolicy sets the lockout policy.
func WithLockoutPolicy(p LockoutPolicy) Option {
	return func(s *Service) { s.lockout = p }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

// WithIssuer stamps identities with the issuer name.
func WithIssuer(name string) Option {
	return func(s *Service) { s.issuer = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over the given repositories.
func NewService(accounts AccountRepository, roles RoleRepository, tokens TokenRepository, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("BACKEND_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	}
	if roles == nil {
		return nil, oops.Code("BACKEND_INVALID_DEPENDENCY").Errorf("roles repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("BACKEND_INVALID_DEPENDENCY").Errorf("tokens repository is required")
	}

	s := &Service{
		accounts: accounts,
		roles:    roles,
		tokens:   tokens,
		hasher:   NewArgon2idHasher(),
		lockout:  DefaultLockoutPolicy(),
		tokenTTL: DefaultTokenTTL,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		return nil, oops.Code("BACKEND_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	return s, nil
}

// Issuer returns the issuer name stamped on identities.
func (s *Service) Issuer() string {
	return s.issuer
}

// Login verifies username and secret. Unknown users and wrong secrets yield
// the same AUTH_INVALID_CREDENTIALS error. Inactive accounts with a correct
// secret are returned with Active false so the caller can reject them.
func (s *Service) Login(ctx context.Context, username, secret string) (*login.Identity, error) {
	account, lookupErr := s.accounts.GetByUsername(ctx, username)

	targetHash := dummyPasswordHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
		exists = true
	case !errors.Is(lookupErr, ErrNotFound):
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by username").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(secret, targetHash)
	if verifyErr != nil {
		if !exists {
			return nil, invalidCredentials(username)
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("username", username).
			Wrap(verifyErr)
	}

	now := s.now()
	if !exists || !valid {
		if exists {
			if _, err := s.accounts.RecordFailure(ctx, account.ID, s.lockout, now); err != nil {
				s.logger.WarnContext(ctx, "failed to record login failure", "username", username, "error", err)
			}
		}
		return nil, invalidCredentials(username)
	}

	// Lockout is checked after verification so both paths cost the same.
	if status := s.lockout.Check(account, now); status.Locked {
		return nil, oops.Code("AUTH_ACCOUNT_LOCKED").
			With("username", username).
			With("locked_until", account.LockedUntil).
			With("retry_after", status.Remaining).
			Wrap(ErrAccountLocked)
	}

	account.RecordSuccess(now)
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		if upgraded, err := s.hasher.Hash(secret); err == nil {
			account.PasswordHash = upgraded
		}
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "failed to record login success", "username", username, "error", err)
	}

	return s.identity(account), nil
}

// GenerateToken issues a session token for an identity returned by Login.
func (s *Service) GenerateToken(ctx context.Context, identity *login.Identity) (string, error) {
	if identity == nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").Errorf("identity is required")
	}
	accountID, err := ulid.Parse(identity.ID)
	if err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").With("identity", identity.ID).Wrap(err)
	}

	plaintext, hash, err := GenerateToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	token := &Token{
		ID:        ulid.Make(),
		AccountID: accountID,
		Issuer:    identity.Issuer,
		Hash:      hash,
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "persist token").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return plaintext, nil
}

// ValidateToken resolves a token back to the identity it was issued for.
func (s *Service) ValidateToken(ctx context.Context, plaintext string) (*login.Identity, error) {
	if plaintext == "" {
		return nil, oops.Code("TOKEN_EMPTY").Wrap(ErrInvalidToken)
	}

	token, err := s.tokens.GetByHash(ctx, HashToken(plaintext))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TOKEN_INVALID").Wrap(ErrInvalidToken)
		}
		return nil, oops.Code("TOKEN_VALIDATE_FAILED").With("operation", "get token by hash").Wrap(err)
	}
	if token.IsExpiredAt(s.now()) {
		return nil, oops.Code("TOKEN_EXPIRED").With("expires_at", token.ExpiresAt).Wrap(ErrTokenExpired)
	}

	account, err := s.accounts.GetByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TOKEN_INVALID").Wrap(ErrInvalidToken)
		}
		return nil, oops.Code("TOKEN_VALIDATE_FAILED").With("operation", "get account").Wrap(err)
	}
	if !account.Active {
		return nil, oops.Code("TOKEN_INVALID").With("account_id", account.ID.String()).Wrap(ErrInvalidToken)
	}

	identity := s.identity(account)
	identity.Issuer = token.Issuer
	return identity, nil
}

// RevokeToken deletes a token. Unknown tokens are reported as TOKEN_INVALID.
func (s *Service) RevokeToken(ctx context.Context, plaintext string) error {
	if err := s.tokens.Delete(ctx, HashToken(plaintext)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("TOKEN_INVALID").Wrap(ErrInvalidToken)
		}
		return oops.Code("TOKEN_REVOKE_FAILED").Wrap(err)
	}
	return nil
}

// PurgeExpiredTokens deletes every expired token.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, oops.Code("TOKEN_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}

// Roles returns the roles granted to the identity's account.
func (s *Service) Roles(ctx context.Context, identity *login.Identity) ([]login.Role, error) {
	accountID, err := ulid.Parse(identity.ID)
	if err != nil {
		return nil, oops.Code("ROLE_LOOKUP_FAILED").With("identity", identity.ID).Wrap(err)
	}
	names, err := s.roles.ListRoles(ctx, accountID)
	if err != nil {
		return nil, oops.Code("ROLE_LOOKUP_FAILED").With("account_id", accountID.String()).Wrap(err)
	}

	roles := make([]login.Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, login.Role{Name: name})
	}
	return roles, nil
}

// AccountRoles lists the roles granted to username.
func (s *Service) AccountRoles(ctx context.Context, username string) ([]string, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, oops.Code("ROLE_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	names, err := s.roles.ListRoles(ctx, account.ID)
	if err != nil {
		return nil, oops.Code("ROLE_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	return names, nil
}

// GrantRole grants role to username. Granting a held role is a no-op.
func (s *Service) GrantRole(ctx context.Context, username, role string) error {
	return s.editRole(ctx, username, role, "ROLE_GRANT_FAILED", s.roles.GrantRole)
}

// RevokeRole revokes role from username. Revoking a missing role is a no-op.
// Principals already committed for the account keep the role until logout.
func (s *Service) RevokeRole(ctx context.Context, username, role string) error {
	return s.editRole(ctx, username, role, "ROLE_REVOKE_FAILED", s.roles.RevokeRole)
}

func (s *Service) editRole(ctx context.Context, username, role, code string,
	edit func(context.Context, ulid.ULID, string) error,
) error {
	if strings.TrimSpace(role) == "" {
		return oops.Code(code).With("username", username).Errorf("role name cannot be empty")
	}
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return oops.Code(code).With("username", username).With("role", role).Wrap(err)
	}
	if err := edit(ctx, account.ID, role); err != nil {
		return oops.Code(code).With("username", username).With("role", role).Wrap(err)
	}
	return nil
}

// RegisterRequest describes an account to create. PasswordHash, when set, is
// stored as-is instead of hashing Password.
type RegisterRequest struct {
	Username     string
	Password     string
	PasswordHash string
	Admin        bool
	Inactive     bool
	Roles        []string
}

// Register creates an account and grants its roles.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	if err := ValidateUsername(req.Username); err != nil {
		return nil, err
	}

	hash := req.PasswordHash
	if hash == "" {
		var err error
		if hash, err = s.hasher.Hash(req.Password); err != nil {
			return nil, err
		}
	}

	now := s.now()
	account := &Account{
		ID:           ulid.Make(),
		Username:     req.Username,
		PasswordHash: hash,
		Active:       !req.Inactive,
		Admin:        req.Admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("username", req.Username).Wrap(err)
	}

	for _, role := range req.Roles {
		if err := s.roles.GrantRole(ctx, account.ID, role); err != nil {
			return nil, oops.Code("ROLE_GRANT_FAILED").
				With("username", req.Username).
				With("role", role).
				Wrap(err)
		}
	}
	return account, nil
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, username string, active bool) error {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("username", username).Wrap(err)
	}
	account.Active = active
	account.UpdatedAt = s.now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("username", username).Wrap(err)
	}
	return nil
}

func (s *Service) identity(account *Account) *login.Identity {
	return &login.Identity{
		ID:         account.ID.String(),
		SecretHash: account.PasswordHash,
		Active:     account.Active,
		Admin:      account.Admin,
		Issuer:     s.issuer,
	}
}

func invalidCredentials(username string) error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").With("username", username).Wrap(ErrInvalidCredentials)
}
