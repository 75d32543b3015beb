// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/keri/lib/secret"
)

const passphraseVariable = "KERI_PASSPHRASE"

// readPassphrase returns the keystore passphrase from, in order, the
// --passphrase-file path, the KERI_PASSPHRASE variable, or an
// interactive prompt. A new keystore is confirmed by a second prompt.
func readPassphrase(path string, creating bool) (*secret.Buffer, error) {
	if path != "" {
		return secret.ReadPassphrase(path)
	}
	buffer, err := secret.FromEnvironment(passphraseVariable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", passphraseVariable, err)
	}
	if buffer != nil {
		return buffer, nil
	}

	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return nil, fmt.Errorf("no terminal available for a passphrase prompt (set %s or use --passphrase-file)", passphraseVariable)
	}

	first, err := prompt(stdinFd, "Keystore passphrase: ")
	if err != nil {
		return nil, err
	}
	if !creating {
		return first, nil
	}

	second, err := prompt(stdinFd, "Confirm passphrase: ")
	if err != nil {
		first.Close()
		return nil, err
	}
	defer second.Close()
	if !first.Equal(second) {
		first.Close()
		return nil, errors.New("passphrases do not match")
	}
	return first, nil
}

func prompt(fd int, label string) (*secret.Buffer, error) {
	fmt.Fprint(os.Stderr, label)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	if len(data) == 0 {
		return nil, secret.ErrEmpty
	}
	return secret.NewFromBytes(data)
}
