// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmpty is returned when a passphrase source holds only whitespace.
var ErrEmpty = errors.New("secret: passphrase is empty")

// ReadPassphrase reads a keystore passphrase from a file, or the first
// line of stdin when path is "-". Surrounding whitespace is trimmed.
func ReadPassphrase(path string) (*Buffer, error) {
	if path == "-" {
		return readFirstLine(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secret: reading passphrase file: %w", err)
	}
	return fromTrimmed(data)
}

// FromEnvironment reads a passphrase from the named environment
// variable. It returns (nil, nil) when the variable is unset.
func FromEnvironment(name string) (*Buffer, error) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return nil, nil
	}
	return fromTrimmed([]byte(value))
}

func readFirstLine(reader io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("secret: reading stdin: %w", err)
		}
		return nil, ErrEmpty
	}
	return fromTrimmed(scanner.Bytes())
}

func fromTrimmed(data []byte) (*Buffer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, ErrEmpty
	}
	buffer, err := NewFromBytes(trimmed)
	// Whitespace around trimmed is not covered by NewFromBytes.
	Zero(data)
	return buffer, err
}
