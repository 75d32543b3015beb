// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package derivation

import (
	"crypto/ed25519"
	"fmt"
)

// SelfSigning identifies a signature algorithm.
type SelfSigning uint8

const (
	Ed25519Sha512 SelfSigning = iota + 1
	ECDSAsecp256k1Sha256
	Ed448Signature
)

type signatureInfo struct {
	code      string
	name      string
	rawLength int
	keys      [2]Basic
}

var selfSigningTable = map[SelfSigning]signatureInfo{
	Ed25519Sha512:        {"0B", "Ed25519Sha512", ed25519.SignatureSize, [2]Basic{Ed25519, Ed25519NT}},
	ECDSAsecp256k1Sha256: {"0C", "ECDSAsecp256k1Sha256", 64, [2]Basic{ECDSAsecp256k1, ECDSAsecp256k1NT}},
	Ed448Signature:       {"1AAE", "Ed448", 114, [2]Basic{Ed448, Ed448NT}},
}

var selfSigningByCode = invert(selfSigningTable, func(info signatureInfo) string { return info.code })

// ParseSelfSigning returns the signature algorithm named by code.
func ParseSelfSigning(code string) (SelfSigning, error) {
	if signing, ok := selfSigningByCode[code]; ok {
		return signing, nil
	}
	return 0, fmt.Errorf("%w: self-signing %q", ErrUnknownCode, code)
}

func (s SelfSigning) Code() string   { return selfSigningTable[s].code }
func (s SelfSigning) RawLength() int { return selfSigningTable[s].rawLength }

func (s SelfSigning) Valid() bool {
	_, ok := selfSigningTable[s]
	return ok
}

func (s SelfSigning) String() string {
	if info, ok := selfSigningTable[s]; ok {
		return info.name
	}
	return fmt.Sprintf("SelfSigning(%d)", uint8(s))
}

// KeyFamily returns the transferable key code that produces
// signatures of this kind. [SelfSigning.Accepts] also admits the
// non-transferable variant.
func (s SelfSigning) KeyFamily() Basic { return selfSigningTable[s].keys[0] }

// Accepts reports whether a key of the given code can verify
// signatures of this kind.
func (s SelfSigning) Accepts(key Basic) bool {
	info, ok := selfSigningTable[s]
	return ok && (info.keys[0] == key || info.keys[1] == key)
}

// SigningCode returns the signature algorithm a key of this code
// produces, or false for key-agreement keys.
func (b Basic) SigningCode() (SelfSigning, bool) {
	for signing, info := range selfSigningTable {
		if info.keys[0] == b || info.keys[1] == b {
			return signing, true
		}
	}
	return 0, false
}
