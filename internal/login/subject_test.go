// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/loginmodule/internal/login"
)

func TestSubject_AddPrincipalsReturnsOnlyNew(t *testing.T) {
	s := login.NewSubject()
	existing := login.RolePrincipal{Role: "admin"}
	s.AddPrincipals(existing)

	added := s.AddPrincipals(existing, login.RolePrincipal{Role: "builder"}, nil)
	require.Len(t, added, 1)
	assert.Equal(t, login.RolePrincipal{Role: "builder"}, added[0])
	assert.Len(t, s.Principals(), 2)
}

func TestSubject_RemovePrincipals(t *testing.T) {
	s := login.NewSubject()
	a := login.RolePrincipal{Role: "a"}
	b := login.RolePrincipal{Role: "b"}
	c := login.RolePrincipal{Role: "c"}
	s.AddPrincipals(a, b, c)

	removed := s.RemovePrincipals(b, login.RolePrincipal{Role: "missing"})
	assert.Equal(t, 1, removed)
	assert.Equal(t, []login.Principal{a, c}, s.Principals())
	assert.False(t, s.HasPrincipal(b))

	assert.Equal(t, 0, s.RemovePrincipals())
	assert.True(t, s.AddPrincipals(b) != nil, "removed principal can be re-added")
}

func TestSubject_SharedPrincipalStaysUntilLastRemoval(t *testing.T) {
	s := login.NewSubject()
	claim := login.ClaimPrincipal{Claim: "issuer", Value: "holomush"}

	require.Len(t, s.AddPrincipals(claim), 1)
	assert.Empty(t, s.AddPrincipals(claim), "second reference does not attach again")
	assert.Len(t, s.Principals(), 1)

	assert.Equal(t, 0, s.RemovePrincipals(claim))
	assert.True(t, s.HasPrincipal(claim))

	assert.Equal(t, 1, s.RemovePrincipals(claim))
	assert.False(t, s.HasPrincipal(claim))
	assert.Equal(t, 0, s.RemovePrincipals(claim), "removing an absent principal is a no-op")
}

func TestSubject_PrivateCredentials(t *testing.T) {
	s := login.NewSubject()
	s.AddPrivateCredential("admin")
	s.AddPrivateCredential([]byte("other"))

	creds := s.PrivateCredentials()
	require.Len(t, creds, 2)
	assert.Equal(t, "admin", creds[0])

	creds[0] = "mutated"
	assert.Equal(t, "admin", s.PrivateCredentials()[0])
}

func TestSubject_ConcurrentAddRemove(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := login.NewSubject()
	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mine := []login.Principal{
				login.RolePrincipal{Role: fmt.Sprintf("r%d-a", i)},
				login.RolePrincipal{Role: fmt.Sprintf("r%d-b", i)},
			}
			added := s.AddPrincipals(mine...)
			assert.Len(t, added, 2)
			_ = s.Principals()
			assert.Equal(t, 2, s.RemovePrincipals(added...))
		}(i)
	}
	wg.Wait()

	assert.Empty(t, s.Principals())
}
