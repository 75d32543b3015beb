// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/secret"
)

// Ed25519Keypair signs with an Ed25519 key whose 32-byte seed is held
// in protected memory. The expanded private key exists on the heap
// only for the duration of a Sign call.
type Ed25519Keypair struct {
	code    derivation.Basic
	public  prefix.Basic
	private *secret.Buffer
}

func generateEd25519(code derivation.Basic) (*Ed25519Keypair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("keys: generating ed25519 seed: %w", err)
	}
	return ed25519FromSeed(code, seed)
}

func ed25519FromSeed(code derivation.Basic, seed []byte) (*Ed25519Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		secret.Zero(seed)
		return nil, fmt.Errorf("keys: ed25519 seed has %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	private := ed25519.NewKeyFromSeed(seed)
	defer secret.Zero(private)

	public, err := prefix.NewBasic(code, private.Public().(ed25519.PublicKey))
	if err != nil {
		secret.Zero(seed)
		return nil, err
	}
	buffer, err := secret.NewFromBytes(seed)
	if err != nil {
		return nil, fmt.Errorf("keys: protecting ed25519 seed: %w", err)
	}
	return &Ed25519Keypair{code: code, public: public, private: buffer}, nil
}

func (k *Ed25519Keypair) Code() derivation.Basic  { return k.code }
func (k *Ed25519Keypair) PublicKey() prefix.Basic { return k.public }

func (k *Ed25519Keypair) Sign(data []byte) (prefix.SelfSigning, error) {
	if k.private.Len() == 0 {
		return prefix.SelfSigning{}, ErrClosed
	}
	private := ed25519.NewKeyFromSeed(k.private.Bytes())
	defer secret.Zero(private)
	return prefix.SelfSigning{
		Code:      derivation.Ed25519Sha512,
		Signature: ed25519.Sign(private, data),
	}, nil
}

func (k *Ed25519Keypair) Close() error { return k.private.Close() }

func (k *Ed25519Keypair) seed() (*secret.Buffer, error) {
	if k.private.Len() == 0 {
		return nil, ErrClosed
	}
	return k.private, nil
}
