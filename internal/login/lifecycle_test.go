// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/loginmodule/internal/login"
)

// directoryBackend is an in-memory backend keyed by username.
type directoryBackend struct {
	secrets    map[string]string
	identities map[string]*login.Identity
	calls      int
}

func (b *directoryBackend) Login(_ context.Context, username, secret string) (*login.Identity, error) {
	b.calls++
	want, ok := b.secrets[username]
	if !ok || want != secret {
		return nil, errors.New("invalid credentials")
	}
	return b.identities[username], nil
}

func (b *directoryBackend) GenerateToken(context.Context, *login.Identity) (string, error) {
	return "token", nil
}

// directoryVariant grants fixed roles and counts hook invocations.
type directoryVariant struct {
	backend  *directoryBackend
	roles    []login.Role
	postAuth int
}

func (v *directoryVariant) Backend() login.Backend { return v.backend }

func (v *directoryVariant) Roles(context.Context, *login.Identity) ([]login.Role, error) {
	return v.roles, nil
}

func (v *directoryVariant) ExtendPrincipals(context.Context, *login.Identity, *login.PrincipalSet) {}

func (v *directoryVariant) PostAuthentication(context.Context, *login.Identity) { v.postAuth++ }

var _ = Describe("Module lifecycle", func() {
	var (
		ctx     context.Context
		variant *directoryVariant
		module  *login.Module
		subject *login.Subject
	)

	initialize := func(username, secret string) {
		Expect(module.Initialize(subject, login.NewStaticCollector(username, []byte(secret)), nil, nil)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		variant = &directoryVariant{
			backend: &directoryBackend{
				secrets: map[string]string{"admin": "admin", "retired": "retired"},
				identities: map[string]*login.Identity{
					"admin":   {ID: "01ADMIN", SecretHash: "h1", Active: true, Admin: true, Issuer: "lifecycle"},
					"retired": {ID: "01RETIRED", SecretHash: "h2", Active: false, Issuer: "lifecycle"},
				},
			},
			roles: []login.Role{{Name: "admin"}, {Name: "player"}},
		}

		var err error
		module, err = login.New(variant, login.WithIssuerName("lifecycle"))
		Expect(err).NotTo(HaveOccurred())
		subject = login.NewSubject()
	})

	Describe("a successful attempt", func() {
		BeforeEach(func() {
			initialize("admin", "admin")
		})

		It("moves through every state and back to idle", func() {
			Expect(module.State()).To(Equal(login.StateInitialized))

			ok, err := module.Login(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(module.State()).To(Equal(login.StateLoginAttempted))
			Expect(variant.postAuth).To(Equal(1))

			ok, err = module.Commit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(module.State()).To(Equal(login.StateCommitted))
			Expect(subject.Principals()).To(HaveLen(3))

			ok, err = module.Logout(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(module.State()).To(Equal(login.StateIdle))
			Expect(subject.Principals()).To(BeEmpty())
		})

		It("requires a new Initialize after logout", func() {
			_, err := module.Login(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = module.Commit(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = module.Logout(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = module.Login(ctx)
			Expect(err).To(MatchError(login.ErrNotInitialized))
		})

		It("leaves the subject untouched when aborted", func() {
			_, err := module.Login(ctx)
			Expect(err).NotTo(HaveOccurred())

			ok, err := module.Abort(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(module.State()).To(Equal(login.StateAborted))
			Expect(subject.Principals()).To(BeEmpty())
		})
	})

	DescribeTable("rejected attempts never reach the subject",
		func(username, secret string, wantBackendCalls int) {
			initialize(username, secret)

			ok, err := module.Login(ctx)
			Expect(ok).To(BeFalse())
			Expect(err).To(MatchError(login.ErrFailedAuthentication))
			Expect(variant.backend.calls).To(Equal(wantBackendCalls))
			Expect(variant.postAuth).To(BeZero())

			ok, err = module.Commit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(subject.Principals()).To(BeEmpty())
		},
		Entry("wrong secret", "admin", "wrong", 1),
		Entry("unknown user", "nobody", "admin", 1),
		Entry("inactive identity", "retired", "retired", 1),
		Entry("empty username", "", "admin", 0),
	)

	It("indistinguishably rejects wrong secrets and inactive identities", func() {
		initialize("admin", "wrong")
		_, wrongErr := module.Login(ctx)

		initialize("retired", "retired")
		_, inactiveErr := module.Login(ctx)

		Expect(wrongErr.Error()).To(Equal(inactiveErr.Error()))
	})

	It("allows two independent modules to commit to the same subject", func() {
		other, err := login.New(variant, login.WithIssuerName("lifecycle"))
		Expect(err).NotTo(HaveOccurred())

		initialize("admin", "admin")
		Expect(other.Initialize(subject, login.NewStaticCollector("admin", []byte("admin")), nil, nil)).To(Succeed())

		for _, m := range []*login.Module{module, other} {
			_, err := m.Login(ctx)
			Expect(err).NotTo(HaveOccurred())
			ok, err := m.Commit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		}
		Expect(subject.Principals()).To(HaveLen(3))

		_, err = other.Logout(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(subject.Principals()).To(HaveLen(3), "second module added nothing, so it removes nothing")
	})
})
