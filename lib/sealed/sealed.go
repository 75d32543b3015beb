// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/bureau-foundation/keri/lib/secret"
)

// DefaultWorkFactor is the scrypt log2 cost used when Options leaves
// WorkFactor at zero.
const DefaultWorkFactor = 18

// ErrWrongPassphrase is returned by Open when the passphrase does not
// unlock the ciphertext.
var ErrWrongPassphrase = errors.New("sealed: wrong passphrase")

// Options tunes the scrypt cost. Tests lower WorkFactor to keep runs
// fast; MaxWorkFactor bounds what Open will accept from a file header.
type Options struct {
	WorkFactor    int
	MaxWorkFactor int
}

func (o Options) workFactor() int {
	if o.WorkFactor == 0 {
		return DefaultWorkFactor
	}
	return o.WorkFactor
}

// Seal encrypts plaintext under passphrase. The passphrase buffer is
// borrowed and not closed.
func Seal(plaintext []byte, passphrase *secret.Buffer, options Options) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(string(passphrase.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	recipient.SetWorkFactor(options.workFactor())

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealed: writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finalizing encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}

// Open decrypts ciphertext produced by Seal into protected memory. The
// caller closes the returned buffer.
func Open(ciphertext []byte, passphrase *secret.Buffer, options Options) (*secret.Buffer, error) {
	identity, err := age.NewScryptIdentity(string(passphrase.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	if options.MaxWorkFactor != 0 {
		identity.SetMaxWorkFactor(options.MaxWorkFactor)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		var mismatch *age.NoIdentityMatchError
		if errors.As(err, &mismatch) {
			return nil, ErrWrongPassphrase
		}
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}

	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed: reading plaintext: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed: ciphertext holds an empty payload")
	}
	return secret.NewFromBytes(plaintext)
}
