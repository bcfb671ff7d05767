// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package issuer

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/loginmodule/internal/config"
	"github.com/holomush/loginmodule/internal/login"
)

// Built-in variant names.
const (
	VariantStandard = "standard"
	VariantStatic   = "static"
)

// Deps are the collaborators handed to a variant factory.
type Deps struct {
	Backend login.Backend
	Roles   login.RoleProvider
	Config  config.IssuerConfig
	Logger  *slog.Logger
}

// Factory builds a variant for the named issuer.
type Factory func(name string, deps Deps) (login.Variant, error)

// Registry maps variant names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the standard and static variants.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.factories[VariantStandard] = standardFactory
	r.factories[VariantStatic] = staticFactory
	return r
}

func standardFactory(name string, deps Deps) (login.Variant, error) {
	roles := deps.Roles
	if roles == nil {
		if rp, ok := deps.Backend.(login.RoleProvider); ok {
			roles = rp
		}
	}
	return NewStandardVariant(name, deps.Backend, roles,
		WithRoleFilters(deps.Config.RoleFilters...),
		WithVariantLogger(deps.Logger))
}

func staticFactory(_ string, deps Deps) (login.Variant, error) {
	if deps.Backend == nil {
		return nil, oops.Code("ISSUER_INVALID_DEPENDENCY").Errorf("backend is required")
	}
	return NewStaticVariant(deps.Backend, deps.Config.Roles...), nil
}

// Register adds a factory. Registering a name twice is an error.
func (r *Registry) Register(variant string, factory Factory) error {
	if variant == "" || factory == nil {
		return oops.Code("ISSUER_INVALID_FACTORY").With("variant", variant).Errorf("variant name and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[variant]; exists {
		return oops.Code("ISSUER_DUPLICATE_VARIANT").With("variant", variant).Errorf("variant already registered")
	}
	r.factories[variant] = factory
	return nil
}

// Variants returns the registered variant names, sorted.
func (r *Registry) Variants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve reads the issuer name and builds the variant. Configuration is
// checked before the factory runs, so a missing issuer name never reaches
// the backend.
func (r *Registry) Resolve(resolver *config.IssuerResolver, variant string, deps Deps) (login.Variant, string, error) {
	name, err := resolver.IssuerName()
	if err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	factory, ok := r.factories[variant]
	r.mu.RUnlock()
	if !ok {
		return nil, "", oops.Code("ISSUER_UNKNOWN_VARIANT").
			With("variant", variant).
			With("issuer", name).
			Wrap(ErrUnknownVariant)
	}

	v, err := factory(name, deps)
	if err != nil {
		return nil, "", oops.With("variant", variant).With("issuer", name).Wrap(err)
	}
	return v, name, nil
}

// NewModule resolves the variant and wraps it in a login.Module labelled
// with the issuer name.
func (r *Registry) NewModule(resolver *config.IssuerResolver, variant string, deps Deps, opts ...login.Option) (*login.Module, error) {
	v, name, err := r.Resolve(resolver, variant, deps)
	if err != nil {
		return nil, err
	}
	opts = append(opts, login.WithIssuerName(name))
	if deps.Logger != nil {
		opts = append([]login.Option{login.WithLogger(deps.Logger)}, opts...)
	}
	return login.New(v, opts...)
}
