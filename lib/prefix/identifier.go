// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefix

import (
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
)

// Kind says how an identifier was derived.
type Kind uint8

const (
	// Unset is the zero Identifier: the prefix of a log that has not
	// been incepted.
	Unset Kind = iota
	KindBasic
	KindSelfAddressing
	KindSelfSigning
)

func (k Kind) String() string {
	switch k {
	case Unset:
		return "unset"
	case KindBasic:
		return "basic"
	case KindSelfAddressing:
		return "self-addressing"
	case KindSelfSigning:
		return "self-signing"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Identifier is a self-certifying identifier prefix. The zero value is
// unset. Identifiers compare by text form; use [Identifier.Equal].
type Identifier struct {
	kind           Kind
	basic          Basic
	selfAddressing SelfAddressing
	selfSigning    SelfSigning
}

// FromBasic makes a basic identifier: the identifier is its key.
func FromBasic(key Basic) Identifier {
	return Identifier{kind: KindBasic, basic: key}
}

// FromSelfAddressing makes an identifier that is the digest of its
// inception event.
func FromSelfAddressing(digest SelfAddressing) Identifier {
	return Identifier{kind: KindSelfAddressing, selfAddressing: digest}
}

// FromSelfSigning makes an identifier that is a signature over its
// inception event.
func FromSelfSigning(signature SelfSigning) Identifier {
	return Identifier{kind: KindSelfSigning, selfSigning: signature}
}

// ParseIdentifier decodes an identifier from text. The empty string is
// the unset identifier. The derivation tables have disjoint codes, so
// the code alone selects the kind.
func ParseIdentifier(text string) (Identifier, error) {
	if text == "" {
		return Identifier{}, nil
	}
	length, err := derivation.CodeLength(text)
	if err != nil {
		return Identifier{}, fmt.Errorf("prefix: parsing identifier %q: %w", truncate(text), err)
	}
	if len(text) < length {
		return Identifier{}, fmt.Errorf("prefix: parsing identifier %q: %w", truncate(text), derivation.ErrInvalidLength)
	}
	code := text[:length]
	if _, err := derivation.ParseBasic(code); err == nil {
		key, err := ParseBasic(text)
		if err != nil {
			return Identifier{}, err
		}
		return FromBasic(key), nil
	}
	if _, err := derivation.ParseSelfAddressing(code); err == nil {
		digest, err := ParseSelfAddressing(text)
		if err != nil {
			return Identifier{}, err
		}
		return FromSelfAddressing(digest), nil
	}
	if _, err := derivation.ParseSelfSigning(code); err == nil {
		signature, err := ParseSelfSigning(text)
		if err != nil {
			return Identifier{}, err
		}
		return FromSelfSigning(signature), nil
	}
	return Identifier{}, fmt.Errorf("prefix: parsing identifier %q: %w: %q", truncate(text), derivation.ErrUnknownCode, code)
}

// MustParseIdentifier is ParseIdentifier for constants in tests and
// examples. Panics on error.
func MustParseIdentifier(text string) Identifier {
	identifier, err := ParseIdentifier(text)
	if err != nil {
		panic(err)
	}
	return identifier
}

func (i Identifier) Kind() Kind    { return i.kind }
func (i Identifier) IsUnset() bool { return i.kind == Unset }
func (i Identifier) IsZero() bool  { return i.kind == Unset }

// Basic returns the key of a basic identifier.
func (i Identifier) Basic() (Basic, bool) { return i.basic, i.kind == KindBasic }

// SelfAddressing returns the digest of a self-addressing identifier.
func (i Identifier) SelfAddressing() (SelfAddressing, bool) {
	return i.selfAddressing, i.kind == KindSelfAddressing
}

// SelfSigning returns the signature of a self-signing identifier.
func (i Identifier) SelfSigning() (SelfSigning, bool) {
	return i.selfSigning, i.kind == KindSelfSigning
}

func (i Identifier) String() string {
	switch i.kind {
	case KindBasic:
		return i.basic.String()
	case KindSelfAddressing:
		return i.selfAddressing.String()
	case KindSelfSigning:
		return i.selfSigning.String()
	default:
		return ""
	}
}

func (i Identifier) Equal(other Identifier) bool {
	return i.kind == other.kind && i.String() == other.String()
}

// TextLength returns the length of the text form.
func (i Identifier) TextLength() int { return len(i.String()) }

func (i Identifier) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
