// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefix

import (
	"bytes"
	"crypto/subtle"
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
)

// SelfAddressing is a digest with its algorithm.
type SelfAddressing struct {
	Code   derivation.SelfAddressing
	Digest []byte
}

// Digest hashes data under code.
func Digest(code derivation.SelfAddressing, data []byte) SelfAddressing {
	return SelfAddressing{Code: code, Digest: code.Digest(data)}
}

// DigestTextLength is the text length of a digest prefix under code,
// which is also the size of the placeholder used when a message must
// contain its own digest.
func DigestTextLength(code derivation.SelfAddressing) int {
	return derivation.TextLength(len(code.Code()), code.RawLength())
}

// ParseSelfAddressing decodes the text form of a digest.
func ParseSelfAddressing(text string) (SelfAddressing, error) {
	codeText, body, err := splitCode(text)
	if err != nil {
		return SelfAddressing{}, fmt.Errorf("prefix: parsing digest %q: %w", truncate(text), err)
	}
	code, err := derivation.ParseSelfAddressing(codeText)
	if err != nil {
		return SelfAddressing{}, fmt.Errorf("prefix: parsing digest %q: %w", truncate(text), err)
	}
	raw, err := decodeBody(codeText, body, code.RawLength())
	if err != nil {
		return SelfAddressing{}, fmt.Errorf("prefix: parsing digest %q: %w", truncate(text), err)
	}
	return SelfAddressing{Code: code, Digest: raw}, nil
}

// VerifyBinding reports whether this digest is the digest of data
// under its own algorithm.
func (s SelfAddressing) VerifyBinding(data []byte) bool {
	if !s.Code.Valid() {
		return false
	}
	return subtle.ConstantTimeCompare(s.Code.Digest(data), s.Digest) == 1
}

func (s SelfAddressing) String() string {
	if !s.Code.Valid() {
		return ""
	}
	return s.Code.Code() + derivation.EncodeRaw(s.Digest)
}

func (s SelfAddressing) IsZero() bool { return s.Code == 0 && len(s.Digest) == 0 }

func (s SelfAddressing) Equal(other SelfAddressing) bool {
	return s.Code == other.Code && bytes.Equal(s.Digest, other.Digest)
}

// MarshalText encodes the zero digest as the empty string, which is
// how an event commits to no next keys.
func (s SelfAddressing) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return []byte{}, nil
	}
	if !s.Code.Valid() {
		return nil, fmt.Errorf("prefix: marshaling digest with invalid code %d", uint8(s.Code))
	}
	return []byte(s.String()), nil
}

func (s *SelfAddressing) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = SelfAddressing{}
		return nil
	}
	parsed, err := ParseSelfAddressing(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
