// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package derivation

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// SelfAddressing identifies a digest algorithm.
type SelfAddressing uint8

const (
	Blake3_256 SelfAddressing = iota + 1
	Blake2B256
	Blake2S256
	SHA3_256
	SHA2_256
	Blake3_512
	SHA3_512
	Blake2B512
	SHA2_512
)

type digestInfo struct {
	code      string
	name      string
	rawLength int
	sum       func([]byte) []byte
}

var selfAddressingTable = map[SelfAddressing]digestInfo{
	Blake3_256: {"E", "Blake3_256", 32, func(data []byte) []byte { sum := blake3.Sum256(data); return sum[:] }},
	Blake2B256: {"F", "Blake2B256", 32, func(data []byte) []byte { sum := blake2b.Sum256(data); return sum[:] }},
	Blake2S256: {"G", "Blake2S256", 32, func(data []byte) []byte { sum := blake2s.Sum256(data); return sum[:] }},
	SHA3_256:   {"H", "SHA3_256", 32, func(data []byte) []byte { sum := sha3.Sum256(data); return sum[:] }},
	SHA2_256:   {"I", "SHA2_256", 32, func(data []byte) []byte { sum := sha256.Sum256(data); return sum[:] }},
	Blake3_512: {"0D", "Blake3_512", 64, func(data []byte) []byte { sum := blake3.Sum512(data); return sum[:] }},
	SHA3_512:   {"0E", "SHA3_512", 64, func(data []byte) []byte { sum := sha3.Sum512(data); return sum[:] }},
	Blake2B512: {"0F", "Blake2B512", 64, func(data []byte) []byte { sum := blake2b.Sum512(data); return sum[:] }},
	SHA2_512:   {"0G", "SHA2_512", 64, func(data []byte) []byte { sum := sha512.Sum512(data); return sum[:] }},
}

var selfAddressingByCode = invert(selfAddressingTable, func(info digestInfo) string { return info.code })

// ParseSelfAddressing returns the digest algorithm named by code.
func ParseSelfAddressing(code string) (SelfAddressing, error) {
	if digest, ok := selfAddressingByCode[code]; ok {
		return digest, nil
	}
	return 0, fmt.Errorf("%w: self-addressing %q", ErrUnknownCode, code)
}

func (s SelfAddressing) Code() string   { return selfAddressingTable[s].code }
func (s SelfAddressing) RawLength() int { return selfAddressingTable[s].rawLength }

func (s SelfAddressing) Valid() bool {
	_, ok := selfAddressingTable[s]
	return ok
}

func (s SelfAddressing) String() string {
	if info, ok := selfAddressingTable[s]; ok {
		return info.name
	}
	return fmt.Sprintf("SelfAddressing(%d)", uint8(s))
}

// Digest hashes data. Panics if s is not an enumerated code; callers
// obtain codes from [ParseSelfAddressing] or the constants.
func (s SelfAddressing) Digest(data []byte) []byte {
	info, ok := selfAddressingTable[s]
	if !ok {
		panic(fmt.Sprintf("derivation: digest with invalid code %d", uint8(s)))
	}
	return info.sum(data)
}
