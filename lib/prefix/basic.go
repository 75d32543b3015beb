// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefix

import (
	"bytes"
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
)

// Basic is a public key with its key type.
type Basic struct {
	Code      derivation.Basic
	PublicKey []byte
}

// NewBasic pairs a public key with its code, checking the key size.
func NewBasic(code derivation.Basic, publicKey []byte) (Basic, error) {
	if !code.Valid() {
		return Basic{}, fmt.Errorf("%w: basic %d", derivation.ErrUnknownCode, uint8(code))
	}
	if len(publicKey) != code.RawLength() {
		return Basic{}, fmt.Errorf("%w: %s key is %d bytes, want %d",
			derivation.ErrInvalidLength, code, len(publicKey), code.RawLength())
	}
	return Basic{Code: code, PublicKey: bytes.Clone(publicKey)}, nil
}

// ParseBasic decodes the text form of a public key.
func ParseBasic(text string) (Basic, error) {
	codeText, body, err := splitCode(text)
	if err != nil {
		return Basic{}, fmt.Errorf("prefix: parsing basic %q: %w", truncate(text), err)
	}
	code, err := derivation.ParseBasic(codeText)
	if err != nil {
		return Basic{}, fmt.Errorf("prefix: parsing basic %q: %w", truncate(text), err)
	}
	raw, err := decodeBody(codeText, body, code.RawLength())
	if err != nil {
		return Basic{}, fmt.Errorf("prefix: parsing basic %q: %w", truncate(text), err)
	}
	return Basic{Code: code, PublicKey: raw}, nil
}

func (b Basic) String() string {
	if !b.Code.Valid() {
		return ""
	}
	return b.Code.Code() + derivation.EncodeRaw(b.PublicKey)
}

// IsZero reports whether b holds no key.
func (b Basic) IsZero() bool { return b.Code == 0 && len(b.PublicKey) == 0 }

// Equal compares code and key bytes.
func (b Basic) Equal(other Basic) bool {
	return b.Code == other.Code && bytes.Equal(b.PublicKey, other.PublicKey)
}

// Transferable reports whether the key's identifier may rotate.
func (b Basic) Transferable() bool { return b.Code.Transferable() }

// Verify checks signature over data with this key. A signature of a
// different algorithm family is an error, not a failed verification.
func (b Basic) Verify(data []byte, signature SelfSigning) (bool, error) {
	if !signature.Code.Accepts(b.Code) {
		return false, fmt.Errorf("%w: %s signature for %s key", derivation.ErrKeyMismatch, signature.Code, b.Code)
	}
	return b.Code.Verify(b.PublicKey, data, signature.Signature)
}

func (b Basic) MarshalText() ([]byte, error) {
	if !b.Code.Valid() {
		return nil, fmt.Errorf("prefix: marshaling basic prefix with invalid code %d", uint8(b.Code))
	}
	return []byte(b.String()), nil
}

func (b *Basic) UnmarshalText(text []byte) error {
	parsed, err := ParseBasic(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
