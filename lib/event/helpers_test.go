// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"crypto/ed25519"
	"testing"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
)

type testKeypair struct {
	public  prefix.Basic
	private ed25519.PrivateKey
}

// newTestKeypair derives an Ed25519 keypair from a one-byte seed so
// tests are reproducible.
func newTestKeypair(t *testing.T, seed byte) testKeypair {
	t.Helper()
	seedBytes := make([]byte, ed25519.SeedSize)
	for index := range seedBytes {
		seedBytes[index] = seed
	}
	private := ed25519.NewKeyFromSeed(seedBytes)
	public, err := prefix.NewBasic(derivation.Ed25519, private.Public().(ed25519.PublicKey))
	if err != nil {
		t.Fatalf("NewBasic: %v", err)
	}
	return testKeypair{public: public, private: private}
}

func (k testKeypair) sign(data []byte) prefix.SelfSigning {
	return prefix.SelfSigning{Code: derivation.Ed25519Sha512, Signature: ed25519.Sign(k.private, data)}
}

func (k testKeypair) attach(t *testing.T, index uint16, data []byte) prefix.AttachedSignature {
	t.Helper()
	attached, err := prefix.Attach(index, k.sign(data))
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return attached
}

func testInception(current, next testKeypair) *Inception {
	return &Inception{
		KeyConfig: NewKeyConfig(1, []prefix.Basic{current.public},
			NextKeyCommitment(derivation.Blake3_256, []prefix.Basic{next.public})),
	}
}

func mustIncept(t *testing.T, data *Inception, format codec.Format) Message {
	t.Helper()
	message, err := Incept(data, format, SelfAddressingDerivation(derivation.Blake3_256))
	if err != nil {
		t.Fatalf("Incept: %v", err)
	}
	return message
}

func mustDigest(t *testing.T, message Message) prefix.SelfAddressing {
	t.Helper()
	digest, err := message.Digest(derivation.Blake3_256)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	return digest
}
