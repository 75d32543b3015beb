// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/secret"
)

const secp256k1ScalarSize = 32

// Secp256k1Keypair signs SHA-256 digests with an ECDSA secp256k1 key.
// Signatures are the 64-byte r||s form with low s.
type Secp256k1Keypair struct {
	code    derivation.Basic
	public  prefix.Basic
	private *secret.Buffer
}

func generateSecp256k1(code derivation.Basic) (*Secp256k1Keypair, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("keys: generating secp256k1 key: %w", err)
	}
	defer key.Zero()
	return secp256k1FromSeed(code, key.Serialize())
}

func secp256k1FromSeed(code derivation.Basic, seed []byte) (*Secp256k1Keypair, error) {
	if len(seed) != secp256k1ScalarSize {
		secret.Zero(seed)
		return nil, fmt.Errorf("keys: secp256k1 scalar has %d bytes, want %d", len(seed), secp256k1ScalarSize)
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(seed); overflow || scalar.IsZero() {
		secret.Zero(seed)
		return nil, fmt.Errorf("keys: secp256k1 scalar out of range")
	}
	scalar.Zero()

	key, publicKey := btcec.PrivKeyFromBytes(seed)
	key.Zero()
	public, err := prefix.NewBasic(code, publicKey.SerializeCompressed())
	if err != nil {
		secret.Zero(seed)
		return nil, err
	}
	buffer, err := secret.NewFromBytes(seed)
	if err != nil {
		return nil, fmt.Errorf("keys: protecting secp256k1 scalar: %w", err)
	}
	return &Secp256k1Keypair{code: code, public: public, private: buffer}, nil
}

func (k *Secp256k1Keypair) Code() derivation.Basic  { return k.code }
func (k *Secp256k1Keypair) PublicKey() prefix.Basic { return k.public }

func (k *Secp256k1Keypair) Sign(data []byte) (prefix.SelfSigning, error) {
	if k.private.Len() == 0 {
		return prefix.SelfSigning{}, ErrClosed
	}
	key, _ := btcec.PrivKeyFromBytes(k.private.Bytes())
	defer key.Zero()

	hash := sha256.Sum256(data)
	// Compact form is a recovery byte followed by r||s.
	compact := ecdsa.SignCompact(key, hash[:], true)
	return prefix.SelfSigning{
		Code:      derivation.ECDSAsecp256k1Sha256,
		Signature: compact[1:],
	}, nil
}

func (k *Secp256k1Keypair) Close() error { return k.private.Close() }

func (k *Secp256k1Keypair) seed() (*secret.Buffer, error) {
	if k.private.Len() == 0 {
		return nil, ErrClosed
	}
	return k.private, nil
}
