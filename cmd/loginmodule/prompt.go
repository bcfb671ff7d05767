// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/term"

	"github.com/holomush/loginmodule/internal/login"
)

// promptHandler answers login callbacks from line-oriented input. A
// username given up front skips the name prompt. When input is a terminal,
// callbacks that ask for no echo are read with echo disabled.
type promptHandler struct {
	in       *bufio.Reader
	out      io.Writer
	username string

	// readHidden reads one line without echo; nil when input is not a terminal.
	readHidden func() ([]byte, error)
}

func newPromptHandler(in io.Reader, out io.Writer, username string) *promptHandler {
	h := &promptHandler{in: bufio.NewReader(in), out: out, username: username}
	if f, ok := in.(*os.File); ok {
		fd := int(f.Fd()) //nolint:gosec // G115: file descriptors fit in int
		if term.IsTerminal(fd) {
			h.readHidden = func() ([]byte, error) { return term.ReadPassword(fd) }
		}
	}
	return h
}

// Handle implements login.CallbackHandler.
func (h *promptHandler) Handle(ctx context.Context, callbacks []login.Callback) error {
	for _, cb := range callbacks {
		if err := ctx.Err(); err != nil {
			return oops.Code("LOGIN_PROMPT_CANCELLED").Wrap(err)
		}
		switch c := cb.(type) {
		case *login.NameCallback:
			if h.username != "" {
				c.SetName(h.username)
				continue
			}
			line, err := h.ask(c.Prompt())
			if err != nil {
				return err
			}
			c.SetName(line)
		case *login.PasswordCallback:
			secret, err := h.askSecret(c.Prompt(), c.EchoOn())
			if err != nil {
				return err
			}
			c.SetPassword(secret)
			clear(secret)
		default:
			return login.UnsupportedCallback(cb)
		}
	}
	return nil
}

// ask prints prompt and reads one line. End of input ends the line.
func (h *promptHandler) ask(prompt string) (string, error) {
	if err := h.prompt(prompt); err != nil {
		return "", err
	}
	line, err := h.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Code("LOGIN_PROMPT_FAILED").With("operation", "read input").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askSecret reads a secret, hiding it when echo is off and input is a terminal.
func (h *promptHandler) askSecret(prompt string, echoOn bool) ([]byte, error) {
	if echoOn || h.readHidden == nil {
		line, err := h.ask(prompt)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	if err := h.prompt(prompt); err != nil {
		return nil, err
	}
	secret, err := h.readHidden()
	// The terminal swallowed the newline along with the echo.
	fmt.Fprintln(h.out) //nolint:errcheck // best-effort cosmetic newline
	if err != nil {
		return nil, oops.Code("LOGIN_PROMPT_FAILED").With("operation", "read hidden input").Wrap(err)
	}
	return secret, nil
}

func (h *promptHandler) prompt(prompt string) error {
	if _, err := fmt.Fprint(h.out, prompt); err != nil {
		return oops.Code("LOGIN_PROMPT_FAILED").With("operation", "write prompt").Wrap(err)
	}
	return nil
}
