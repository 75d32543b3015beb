// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package derivation

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Basic identifies a public key encoding.
type Basic uint8

const (
	Ed25519NT Basic = iota + 1
	X25519
	Ed25519
	X448
	ECDSAsecp256k1NT
	ECDSAsecp256k1
	Ed448NT
	Ed448
)

type basicInfo struct {
	code      string
	name      string
	rawLength int
}

var basicTable = map[Basic]basicInfo{
	Ed25519NT:        {"B", "Ed25519NT", ed25519.PublicKeySize},
	X25519:           {"C", "X25519", 32},
	Ed25519:          {"D", "Ed25519", ed25519.PublicKeySize},
	X448:             {"L", "X448", 56},
	ECDSAsecp256k1NT: {"1AAA", "ECDSAsecp256k1NT", btcec.PubKeyBytesLenCompressed},
	ECDSAsecp256k1:   {"1AAB", "ECDSAsecp256k1", btcec.PubKeyBytesLenCompressed},
	Ed448NT:          {"1AAC", "Ed448NT", 57},
	Ed448:            {"1AAD", "Ed448", 57},
}

var basicByCode = invert(basicTable, func(info basicInfo) string { return info.code })

// ParseBasic returns the Basic derivation named by code.
func ParseBasic(code string) (Basic, error) {
	if basic, ok := basicByCode[code]; ok {
		return basic, nil
	}
	return 0, fmt.Errorf("%w: basic %q", ErrUnknownCode, code)
}

// Code returns the text code.
func (b Basic) Code() string { return basicTable[b].code }

// RawLength returns the size of the public key in bytes.
func (b Basic) RawLength() int { return basicTable[b].rawLength }

// Valid reports whether b is one of the enumerated codes.
func (b Basic) Valid() bool {
	_, ok := basicTable[b]
	return ok
}

func (b Basic) String() string {
	if info, ok := basicTable[b]; ok {
		return info.name
	}
	return fmt.Sprintf("Basic(%d)", uint8(b))
}

// Transferable reports whether control of an identifier established
// with this key type may be rotated to other keys.
func (b Basic) Transferable() bool {
	switch b {
	case Ed25519NT, ECDSAsecp256k1NT, Ed448NT:
		return false
	default:
		return true
	}
}

// Verify checks signature over data under publicKey.
//
// A false result with a nil error means the signature is well-formed
// but does not verify. Errors are reserved for inputs that cannot be
// checked at all: malformed keys, key-agreement keys, and Ed448.
func (b Basic) Verify(publicKey, data, signature []byte) (bool, error) {
	switch b {
	case Ed25519, Ed25519NT:
		if len(publicKey) != ed25519.PublicKeySize {
			return false, fmt.Errorf("%w: ed25519 public key is %d bytes", ErrInvalidLength, len(publicKey))
		}
		if len(signature) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(publicKey, data, signature), nil
	case ECDSAsecp256k1, ECDSAsecp256k1NT:
		return verifySecp256k1(publicKey, data, signature)
	case X25519, X448:
		return false, fmt.Errorf("%w: %s", ErrNotSigningKey, b)
	case Ed448, Ed448NT:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, b)
	default:
		return false, fmt.Errorf("%w: basic %d", ErrUnknownCode, uint8(b))
	}
}

// verifySecp256k1 checks a 64-byte r||s signature over SHA-256(data).
func verifySecp256k1(publicKey, data, signature []byte) (bool, error) {
	key, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false, fmt.Errorf("parsing secp256k1 public key: %w", err)
	}
	if len(signature) != 64 {
		return false, nil
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return false, nil
	}
	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return false, nil
	}
	if r.IsZero() || s.IsZero() {
		return false, nil
	}
	hash := sha256.Sum256(data)
	return ecdsa.NewSignature(&r, &s).Verify(hash[:], key), nil
}

func invert[K comparable, V any](table map[K]V, code func(V) string) map[string]K {
	inverted := make(map[string]K, len(table))
	for key, value := range table {
		inverted[code(value)] = key
	}
	return inverted
}
