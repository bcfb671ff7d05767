// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/loginmodule/internal/backend"
	"github.com/holomush/loginmodule/internal/config"
	"github.com/holomush/loginmodule/internal/login"
	"github.com/holomush/loginmodule/internal/observability"
	"github.com/holomush/loginmodule/pkg/errutil"
)

func TestLogin_DefaultAdminWithMemoryBackend(t *testing.T) {
	res := runCLI(t, quietDeps(), "admin\n", "login", "--issuer", "holomush", "--username", "admin")
	require.NoError(t, res.err, res.stderr)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "identity:holomush/"), lines[0])
	assert.Equal(t, "role:admin", lines[1])
	assert.Equal(t, "claim:issuer=holomush", lines[2])
	assert.Equal(t, "claim:admin=true", lines[3])
	assert.Contains(t, res.stderr, login.PasswordPrompt)
	assert.NotContains(t, res.stderr, login.UsernamePrompt)
}

func TestLogin_PromptsForUsername(t *testing.T) {
	res := runCLI(t, quietDeps(), "admin\nadmin\n", "login", "--issuer", "holomush")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, login.UsernamePrompt)
	assert.Contains(t, res.stdout, "role:admin")
}

func TestLogin_WrongPassword(t *testing.T) {
	res := runCLI(t, quietDeps(), "nope\n", "login", "--issuer", "holomush", "-u", "admin")
	errutil.AssertCodedError(t, res.err, "LOGIN_FAILED", login.ErrFailedAuthentication)
	assert.Empty(t, res.stdout)
}

// countingOpener wraps the default backend opener and counts calls.
func countingOpener(deps *Deps, opened *int) {
	deps.BackendOpener = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend.Service, func(), error) {
		*opened++
		return openBackend(ctx, cfg, logger)
	}
}

func TestMissingIssuerName_NeverOpensBackend(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "login", args: []string{"login", "-u", "admin"}},
		{name: "token issue", args: []string{"token", "issue", "-u", "admin"}},
		{name: "serve", args: []string{"serve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := quietDeps()
			opened := 0
			countingOpener(deps, &opened)

			res := runCLI(t, deps, "admin\n", tt.args...)
			errutil.AssertCodedError(t, res.err, "CONFIG_NO_ISSUER_NAME", config.ErrNoIssuerNameDefined)
			assert.Zero(t, opened, "backend must not be opened without an issuer name")
		})
	}
}

func TestLogin_RecordsMetrics(t *testing.T) {
	deps := quietDeps()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	deps.Metrics = metrics

	require.NoError(t, runCLI(t, deps, "admin\n", "login", "--issuer", "holomush", "-u", "admin").err)
	require.Error(t, runCLI(t, deps, "nope\n", "login", "--issuer", "holomush", "-u", "admin").err)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LoginAttempts.WithLabelValues("holomush", "true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LoginAttempts.WithLabelValues("holomush", "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Commits.WithLabelValues("holomush")), 0)
	assert.Positive(t, testutil.CollectAndCount(metrics.BackendLatency, "loginmodule_backend_request_duration_seconds"))
}

func TestLogin_ConfigFileRoleFiltersAndStaticVariant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
authentication:
  issuer:
    name: guests
    variant: static
    roles: [guest]
`), 0o600))

	res := runCLI(t, quietDeps(), "admin\n", "--config", path, "login", "-u", "admin")
	require.NoError(t, res.err, res.stderr)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "identity:guests/"), lines[0])
	assert.Equal(t, "role:guest", lines[1])
}

func TestLoginConfig_Validate(t *testing.T) {
	cfg := &loginConfig{timeout: 0}
	errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")

	cfg.timeout = defaultCommandTimeout
	assert.NoError(t, cfg.Validate())
}

func TestCommittedIdentity(t *testing.T) {
	subject := login.NewSubject()
	_, err := committedIdentity(subject)
	require.ErrorIs(t, err, login.ErrFailedAuthentication)

	subject.AddPrincipals(
		login.RolePrincipal{Role: "admin"},
		login.IdentityPrincipal{EntityID: "01ABC", Issuer: "holomush", Admin: true},
	)
	identity, err := committedIdentity(subject)
	require.NoError(t, err)
	assert.Equal(t, "01ABC", identity.ID)
	assert.True(t, identity.Active)
	assert.True(t, identity.Admin)
}

func TestPromptHandler(t *testing.T) {
	t.Run("reads name and password lines", func(t *testing.T) {
		var out strings.Builder
		h := newPromptHandler(strings.NewReader("alice\r\nsecret"), &out, "")
		name := login.NewNameCallback(login.UsernamePrompt)
		pass := login.NewPasswordCallback(login.PasswordPrompt, false)

		require.NoError(t, h.Handle(context.Background(), []login.Callback{name, pass}))
		assert.Equal(t, "alice", name.Name())
		assert.Equal(t, []byte("secret"), pass.Password())
		assert.Equal(t, login.UsernamePrompt+login.PasswordPrompt, out.String())
	})

	t.Run("rejects unknown callbacks", func(t *testing.T) {
		h := newPromptHandler(strings.NewReader(""), &strings.Builder{}, "alice")
		err := h.Handle(context.Background(), []login.Callback{unknownCallback{}})
		errutil.AssertCodedError(t, err, "LOGIN_UNSUPPORTED_CALLBACK", login.ErrUnsupportedCallback)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		h := newPromptHandler(strings.NewReader("alice\n"), &strings.Builder{}, "")
		err := h.Handle(ctx, []login.Callback{login.NewNameCallback(login.UsernamePrompt)})
		errutil.AssertCodedError(t, err, "LOGIN_PROMPT_CANCELLED", context.Canceled)
	})

	t.Run("non-terminal input reads secrets as lines", func(t *testing.T) {
		h := newPromptHandler(strings.NewReader("secret\n"), &strings.Builder{}, "alice")
		assert.Nil(t, h.readHidden)
	})
}

func TestPromptHandler_HidesSecretOnTerminal(t *testing.T) {
	tests := []struct {
		name       string
		echoOn     bool
		wantHidden bool
		wantSecret string
	}{
		{name: "echo off reads hidden", echoOn: false, wantHidden: true, wantSecret: "hidden-secret"},
		{name: "echo on reads line", echoOn: true, wantHidden: false, wantSecret: "visible"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			h := newPromptHandler(strings.NewReader("visible\n"), &out, "alice")
			hiddenReads := 0
			h.readHidden = func() ([]byte, error) {
				hiddenReads++
				return []byte("hidden-secret"), nil
			}

			pass := login.NewPasswordCallback(login.PasswordPrompt, tt.echoOn)
			require.NoError(t, h.Handle(context.Background(), []login.Callback{pass}))

			assert.Equal(t, tt.wantSecret, string(pass.Password()))
			assert.Equal(t, tt.wantHidden, hiddenReads == 1)
			assert.True(t, strings.HasPrefix(out.String(), login.PasswordPrompt))
		})
	}

	t.Run("hidden read failure is coded", func(t *testing.T) {
		h := newPromptHandler(strings.NewReader(""), io.Discard, "alice")
		h.readHidden = func() ([]byte, error) { return nil, errors.New("inappropriate ioctl") }

		err := h.Handle(context.Background(), []login.Callback{login.NewPasswordCallback(login.PasswordPrompt, false)})
		errutil.AssertErrorCode(t, err, "LOGIN_PROMPT_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "read hidden input")
	})
}

type unknownCallback struct{}

func (unknownCallback) Prompt() string { return "Code: " }
