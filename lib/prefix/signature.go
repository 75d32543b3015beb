// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefix

import (
	"bytes"
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
)

// SelfSigning is a signature with its algorithm.
type SelfSigning struct {
	Code      derivation.SelfSigning
	Signature []byte
}

// ParseSelfSigning decodes the text form of a signature.
func ParseSelfSigning(text string) (SelfSigning, error) {
	codeText, body, err := splitCode(text)
	if err != nil {
		return SelfSigning{}, fmt.Errorf("prefix: parsing signature %q: %w", truncate(text), err)
	}
	code, err := derivation.ParseSelfSigning(codeText)
	if err != nil {
		return SelfSigning{}, fmt.Errorf("prefix: parsing signature %q: %w", truncate(text), err)
	}
	raw, err := decodeBody(codeText, body, code.RawLength())
	if err != nil {
		return SelfSigning{}, fmt.Errorf("prefix: parsing signature %q: %w", truncate(text), err)
	}
	return SelfSigning{Code: code, Signature: raw}, nil
}

func (s SelfSigning) String() string {
	if !s.Code.Valid() {
		return ""
	}
	return s.Code.Code() + derivation.EncodeRaw(s.Signature)
}

func (s SelfSigning) Equal(other SelfSigning) bool {
	return s.Code == other.Code && bytes.Equal(s.Signature, other.Signature)
}

func (s SelfSigning) MarshalText() ([]byte, error) {
	if !s.Code.Valid() {
		return nil, fmt.Errorf("prefix: marshaling signature with invalid code %d", uint8(s.Code))
	}
	return []byte(s.String()), nil
}

func (s *SelfSigning) UnmarshalText(text []byte) error {
	parsed, err := ParseSelfSigning(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AttachedSignature is a signature together with the index of the
// signing key in the key list it is checked against.
type AttachedSignature struct {
	Code      derivation.AttachedSignature
	Index     uint16
	Signature []byte
}

// Attach indexes a signature.
func Attach(index uint16, signature SelfSigning) (AttachedSignature, error) {
	code, err := derivation.AttachedFor(signature.Code)
	if err != nil {
		return AttachedSignature{}, err
	}
	if int(index) >= 1<<(6*code.IndexWidth()) {
		return AttachedSignature{}, fmt.Errorf("%w: index %d exceeds %s range",
			derivation.ErrInvalidLength, index, code)
	}
	return AttachedSignature{Code: code, Index: index, Signature: bytes.Clone(signature.Signature)}, nil
}

// SelfSigning drops the index.
func (a AttachedSignature) SelfSigning() SelfSigning {
	return SelfSigning{Code: a.Code.SelfSigning(), Signature: a.Signature}
}

func (a AttachedSignature) String() string {
	if !a.Code.Valid() {
		return ""
	}
	index, err := derivation.EncodeIndex(a.Index, a.Code.IndexWidth())
	if err != nil {
		return ""
	}
	return a.Code.Code() + index + derivation.EncodeRaw(a.Signature)
}

func (a AttachedSignature) Equal(other AttachedSignature) bool {
	return a.Code == other.Code && a.Index == other.Index && bytes.Equal(a.Signature, other.Signature)
}

// ParseAttachedSignature decodes exactly one attached signature.
func ParseAttachedSignature(text string) (AttachedSignature, error) {
	signature, rest, err := NextAttachedSignature(text)
	if err != nil {
		return AttachedSignature{}, err
	}
	if rest != "" {
		return AttachedSignature{}, fmt.Errorf("prefix: %d trailing characters after attached signature", len(rest))
	}
	return signature, nil
}

// NextAttachedSignature decodes the attached signature at the start
// of text and returns the remainder.
func NextAttachedSignature(text string) (AttachedSignature, string, error) {
	codeLength, err := derivation.CodeLength(text)
	if err != nil {
		return AttachedSignature{}, "", fmt.Errorf("prefix: parsing attached signature: %w", err)
	}
	if len(text) < codeLength {
		return AttachedSignature{}, "", fmt.Errorf("prefix: parsing attached signature: %w: truncated code", derivation.ErrInvalidLength)
	}
	code, err := derivation.ParseAttachedSignature(text[:codeLength])
	if err != nil {
		return AttachedSignature{}, "", fmt.Errorf("prefix: parsing attached signature: %w", err)
	}
	total := code.TextLength()
	if len(text) < total {
		return AttachedSignature{}, "", fmt.Errorf("prefix: parsing attached signature: %w: have %d characters, want %d",
			derivation.ErrInvalidLength, len(text), total)
	}
	indexEnd := codeLength + code.IndexWidth()
	index, err := derivation.DecodeIndex(text[codeLength:indexEnd])
	if err != nil {
		return AttachedSignature{}, "", fmt.Errorf("prefix: parsing attached signature index: %w", err)
	}
	raw, err := derivation.DecodeRaw(text[indexEnd:total], code.RawLength())
	if err != nil {
		return AttachedSignature{}, "", fmt.Errorf("prefix: parsing attached signature: %w", err)
	}
	return AttachedSignature{Code: code, Index: index, Signature: raw}, text[total:], nil
}

func (a AttachedSignature) MarshalText() ([]byte, error) {
	text := a.String()
	if text == "" {
		return nil, fmt.Errorf("prefix: marshaling invalid attached signature (code %d, index %d)", uint8(a.Code), a.Index)
	}
	return []byte(text), nil
}

func (a *AttachedSignature) UnmarshalText(text []byte) error {
	parsed, err := ParseAttachedSignature(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
