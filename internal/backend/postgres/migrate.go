// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"cmp"
	"embed"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaStep is one embedded up migration.
type schemaStep struct {
	version uint
	name    string
}

// schemaCatalog lists the embedded up migrations by ascending version.
var schemaCatalog = sync.OnceValues(func() ([]schemaStep, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").Wrap(err)
	}
	var steps []schemaStep
	for _, entry := range entries {
		parsed, err := source.Parse(entry.Name())
		if err != nil {
			return nil, oops.Code("MIGRATION_LIST_FAILED").With("filename", entry.Name()).Wrap(err)
		}
		if parsed.Direction != source.Up {
			continue
		}
		steps = append(steps, schemaStep{
			version: parsed.Version,
			name:    strings.TrimSuffix(entry.Name(), "."+string(source.Up)+".sql"),
		})
	}
	slices.SortFunc(steps, func(a, b schemaStep) int { return cmp.Compare(a.version, b.version) })
	return steps, nil
})

// schemaRunner is the part of *migrate.Migrate the Migrator drives.
type schemaRunner interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded login schema.
type Migrator struct {
	m schemaRunner
}

// NewMigrator creates a Migrator for databaseURL. postgres:// and
// postgresql:// URLs are rewritten to the pgx5:// scheme.
func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		_ = src.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

func noChange(err error) bool {
	return err == nil || errors.Is(err, migrate.ErrNoChange)
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.m.Up(); !noChange(err) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down drops every login table.
func (m *Migrator) Down() error {
	if err := m.m.Down(); !noChange(err) {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Version returns the applied version and dirty flag. A database without
// the login schema is at version 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").
			With("source_failed", srcErr != nil).
			With("database_failed", dbErr != nil).
			Wrap(err)
	}
	return nil
}

// PendingMigrations returns the versions Up would apply, ascending.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	_, pending, err := m.partition()
	return pending, err
}

// AppliedMigrations returns the versions already applied, ascending.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	applied, _, err := m.partition()
	return applied, err
}

// partition splits the catalog around the current version.
func (m *Migrator) partition() (applied, pending []uint, err error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, nil, err
	}
	steps, err := schemaCatalog()
	if err != nil {
		return nil, nil, err
	}
	for _, step := range steps {
		if step.version <= current {
			applied = append(applied, step.version)
		} else {
			pending = append(pending, step.version)
		}
	}
	return applied, pending, nil
}

// MigrationName returns the file stem of the migration with version, such
// as 000001_accounts, or "" when there is none.
func MigrationName(version uint) (string, error) {
	steps, err := schemaCatalog()
	if err != nil {
		return "", err
	}
	for _, step := range steps {
		if step.version == version {
			return step.name, nil
		}
	}
	return "", nil
}
