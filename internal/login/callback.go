// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Default prompts used by CallbackCollector.
const (
	UsernamePrompt = "Username: "
	PasswordPrompt = "Password: "
)

// Callback is a request for one piece of information from the user.
type Callback interface {
	Prompt() string
}

// NameCallback asks for a username.
type NameCallback struct {
	prompt string
	name   string
}

// NewNameCallback creates a NameCallback.
func NewNameCallback(prompt string) *NameCallback {
	return &NameCallback{prompt: prompt}
}

// Prompt returns the prompt text.
func (c *NameCallback) Prompt() string { return c.prompt }

// SetName records the username.
func (c *NameCallback) SetName(name string) { c.name = name }

// Name returns the recorded username, empty if none was set.
func (c *NameCallback) Name() string { return c.name }

// PasswordCallback asks for a secret.
type PasswordCallback struct {
	prompt   string
	echoOn   bool
	password []byte
}

// NewPasswordCallback creates a PasswordCallback.
func NewPasswordCallback(prompt string, echoOn bool) *PasswordCallback {
	return &PasswordCallback{prompt: prompt, echoOn: echoOn}
}

// Prompt returns the prompt text.
func (c *PasswordCallback) Prompt() string { return c.prompt }

// EchoOn reports whether the secret may be echoed while typed.
func (c *PasswordCallback) EchoOn() bool { return c.echoOn }

// SetPassword stores a copy of password.
func (c *PasswordCallback) SetPassword(password []byte) {
	c.ClearPassword()
	if password != nil {
		c.password = append([]byte(nil), password...)
	}
}

// Password returns a copy of the stored secret, nil if none was set.
func (c *PasswordCallback) Password() []byte {
	if c.password == nil {
		return nil
	}
	return append([]byte(nil), c.password...)
}

// ClearPassword zeroes the stored secret.
func (c *PasswordCallback) ClearPassword() {
	for i := range c.password {
		c.password[i] = 0
	}
	c.password = nil
}

// CallbackHandler fills callbacks from some interaction mechanism
// (terminal, form post, test fixture).
type CallbackHandler interface {
	Handle(ctx context.Context, callbacks []Callback) error
}

// CallbackHandlerFunc adapts a function to CallbackHandler.
type CallbackHandlerFunc func(ctx context.Context, callbacks []Callback) error

// Handle calls f.
func (f CallbackHandlerFunc) Handle(ctx context.Context, callbacks []Callback) error {
	return f(ctx, callbacks)
}

// CallbackCollector collects credentials by handing a NameCallback and a
// PasswordCallback to a CallbackHandler.
type CallbackCollector struct {
	handler CallbackHandler
}

// NewCallbackCollector creates a CallbackCollector.
func NewCallbackCollector(handler CallbackHandler) *CallbackCollector {
	return &CallbackCollector{handler: handler}
}

// Collect runs the handler and returns what it filled in.
func (c *CallbackCollector) Collect(ctx context.Context) (Credential, error) {
	if c.handler == nil {
		return Credential{}, oops.Code("LOGIN_COLLECTION_FAILED").
			Wrapf(ErrCredentialCollection, "no callback handler available")
	}

	name := NewNameCallback(UsernamePrompt)
	password := NewPasswordCallback(PasswordPrompt, false)
	defer password.ClearPassword()

	if err := c.handler.Handle(ctx, []Callback{name, password}); err != nil {
		if errors.Is(err, ErrUnsupportedCallback) {
			return Credential{}, oops.Code("LOGIN_COLLECTION_FAILED").
				With("handler", fmt.Sprintf("%T", c.handler)).
				Wrapf(ErrCredentialCollection, "%v not available to obtain information from user", err)
		}
		return Credential{}, oops.Code("LOGIN_COLLECTION_FAILED").
			With("handler", fmt.Sprintf("%T", c.handler)).
			Wrapf(ErrCredentialCollection, "%v", err)
	}

	return Credential{Username: name.Name(), Secret: password.Password()}, nil
}

// SubjectHandler fills callbacks from a Subject: the name of its first
// principal and its first private credential. It is used when the caller has
// already placed the claimed identity on the subject.
type SubjectHandler struct {
	subject *Subject
}

// NewSubjectHandler creates a SubjectHandler.
func NewSubjectHandler(subject *Subject) *SubjectHandler {
	return &SubjectHandler{subject: subject}
}

// NewSubjectCollector returns a Collector reading credentials from subject.
func NewSubjectCollector(subject *Subject) *CallbackCollector {
	return NewCallbackCollector(NewSubjectHandler(subject))
}

// Handle implements CallbackHandler.
func (h *SubjectHandler) Handle(_ context.Context, callbacks []Callback) error {
	if h.subject == nil {
		return oops.Code("LOGIN_SUBJECT_EMPTY").Errorf("login failed")
	}
	principals := h.subject.Principals()
	credentials := h.subject.PrivateCredentials()
	if len(principals) == 0 || len(credentials) == 0 {
		return oops.Code("LOGIN_SUBJECT_EMPTY").
			With("principals", len(principals)).
			With("credentials", len(credentials)).
			Errorf("login failed")
	}

	for _, cb := range callbacks {
		switch c := cb.(type) {
		case *NameCallback:
			c.SetName(principals[0].Name())
		case *PasswordCallback:
			c.SetPassword(secretBytes(credentials[0]))
		default:
			return UnsupportedCallback(cb)
		}
	}
	return nil
}

// UnsupportedCallback returns the error a CallbackHandler reports for a
// callback it cannot fill.
func UnsupportedCallback(cb Callback) error {
	return oops.Code("LOGIN_UNSUPPORTED_CALLBACK").
		With("callback", fmt.Sprintf("%T", cb)).
		Wrapf(ErrUnsupportedCallback, "%T", cb)
}

func secretBytes(v any) []byte {
	switch s := v.(type) {
	case nil:
		return nil
	case []byte:
		return s
	case string:
		return []byte(s)
	case fmt.Stringer:
		return []byte(s.String())
	default:
		return []byte(fmt.Sprint(s))
	}
}
