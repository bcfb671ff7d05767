// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/loginmodule/internal/backend"
	"github.com/holomush/loginmodule/internal/backend/memory"
	"github.com/holomush/loginmodule/internal/config"
)

// cliResult captures one command execution.
type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command with args, feeding stdin.
func runCLI(t *testing.T, deps *Deps, stdin string, args ...string) cliResult {
	t.Helper()
	configFile = ""

	cmd := newRootCmd(deps)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return cliResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

func quietDeps() *Deps {
	return &Deps{
		ConfigFinder: func() (string, error) { return "", nil },
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// sharedBackendDeps returns deps whose backend survives across commands.
func sharedBackendDeps(t *testing.T) (*Deps, *backend.Service) {
	t.Helper()
	svc, err := memory.NewService(backend.WithIssuer("holomush"))
	require.NoError(t, err)
	_, err = svc.ApplySeed(context.Background(), backend.DefaultSeed())
	require.NoError(t, err)

	deps := quietDeps()
	deps.BackendOpener = func(context.Context, *config.Config, *slog.Logger) (*backend.Service, func(), error) {
		return svc, func() {}, nil
	}
	return deps, svc
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	res := runCLI(t, nil, "", "--help")
	require.NoError(t, res.err)

	for _, sub := range []string{"login", "token", "migrate", "issuer", "serve", "seed", "role"} {
		assert.Contains(t, res.stdout, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "equals form",
			args:     []string{"--config=/etc/loginmodule.yaml", "--help"},
			wantFlag: "/etc/loginmodule.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""
			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_PersistentFlagsMatchConfigKeys(t *testing.T) {
	cmd := NewRootCmd()
	for name := range config.FlagKeys {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %q", name)
	}
}

func TestLoadEnvironment_UsesDiscoveredConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("authentication:\n  issuer:\n    name: discovered\n"), 0o600))

	deps := quietDeps()
	deps.ConfigFinder = func() (string, error) { return path, nil }

	res := runCLI(t, deps, "", "issuer")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, `Issuer: "discovered"`)
}

func TestLoadEnvironment_ExplicitConfigSkipsDiscovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("authentication:\n  issuer:\n    name: explicit\n"), 0o600))

	deps := quietDeps()
	deps.ConfigFinder = func() (string, error) {
		t.Fatal("config discovery must not run when --config is set")
		return "", nil
	}

	res := runCLI(t, deps, "", "issuer", "--config", path)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, `Issuer: "explicit"`)
}
