// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/secret"
)

// ErrClosed is returned by Sign after the signer's key material has
// been released.
var ErrClosed = errors.New("keys: signer is closed")

// Signer produces signatures with one private key.
type Signer interface {
	Code() derivation.Basic
	PublicKey() prefix.Basic
	Sign(data []byte) (prefix.SelfSigning, error)
	Close() error
}

// exportable is implemented by signers whose seed can be written to a
// keystore.
type exportable interface {
	seed() (*secret.Buffer, error)
}

// Generate creates a signer with a fresh random key of the given code.
func Generate(code derivation.Basic) (Signer, error) {
	switch code {
	case derivation.Ed25519, derivation.Ed25519NT:
		return generateEd25519(code)
	case derivation.ECDSAsecp256k1, derivation.ECDSAsecp256k1NT:
		return generateSecp256k1(code)
	default:
		return nil, fmt.Errorf("keys: %w: %s", derivation.ErrUnsupportedAlgorithm, code)
	}
}

// FromSeed restores a signer from its seed. The seed slice is zeroed.
func FromSeed(code derivation.Basic, seed []byte) (Signer, error) {
	switch code {
	case derivation.Ed25519, derivation.Ed25519NT:
		return ed25519FromSeed(code, seed)
	case derivation.ECDSAsecp256k1, derivation.ECDSAsecp256k1NT:
		return secp256k1FromSeed(code, seed)
	default:
		secret.Zero(seed)
		return nil, fmt.Errorf("keys: %w: %s", derivation.ErrUnsupportedAlgorithm, code)
	}
}

// PublicKeys lists the public keys of signers in order.
func PublicKeys(signers ...Signer) []prefix.Basic {
	keys := make([]prefix.Basic, len(signers))
	for index, signer := range signers {
		keys[index] = signer.PublicKey()
	}
	return keys
}
