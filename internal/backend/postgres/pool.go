// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides PostgreSQL repositories for the backend service.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/loginmodule/internal/backend"
)

// poolIface is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Connection retry defaults.
const (
	DefaultConnectRetries   = 5
	DefaultConnectBaseDelay = 200 * time.Millisecond
)

// ConnectConfig controls how Connect waits for the database.
type ConnectConfig struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// Connect opens a pool and pings it with exponential backoff until the
// database answers or the retries run out.
func Connect(ctx context.Context, databaseURL string, cfg ConnectConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := waitForDatabase(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitForDatabase(ctx context.Context, db pinger, cfg ConnectConfig) error {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConnectBaseDelay
	}
	backoff := retry.WithMaxRetries(cfg.MaxRetries, retry.NewExponential(cfg.BaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping").
			With("max_retries", cfg.MaxRetries).
			Wrap(err)
	}
	return nil
}

// Repositories groups the PostgreSQL repositories over one pool.
type Repositories struct {
	Accounts *AccountRepository
	Roles    *RoleRepository
	Tokens   *TokenRepository
}

// NewRepositories creates all repositories over pool.
func NewRepositories(pool poolIface) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepository(pool),
		Roles:    NewRoleRepository(pool),
		Tokens:   NewTokenRepository(pool),
	}
}

// NewService returns a backend.Service over PostgreSQL repositories.
func NewService(pool poolIface, opts ...backend.Option) (*backend.Service, error) {
	repos := NewRepositories(pool)
	return backend.NewService(repos.Accounts, repos.Roles, repos.Tokens, opts...)
}
