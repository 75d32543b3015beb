// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// placeholderCharacter fills the prefix field while an inception is
// serialized to derive its own identifier.
const placeholderCharacter = "#"

// SignFunc produces a signature over data.
type SignFunc func(data []byte) (prefix.SelfSigning, error)

// Derivation selects how an inception's identifier is derived from
// the inception itself.
type Derivation struct {
	kind    prefix.Kind
	digest  derivation.SelfAddressing
	signing derivation.SelfSigning
	sign    SignFunc
}

// SelfAddressingDerivation derives the identifier as the digest of the
// inception, serialized with a placeholder prefix of the digest's
// text length.
func SelfAddressingDerivation(code derivation.SelfAddressing) Derivation {
	return Derivation{kind: prefix.KindSelfAddressing, digest: code}
}

// BasicDerivation uses the inception's single key as the identifier.
func BasicDerivation() Derivation {
	return Derivation{kind: prefix.KindBasic}
}

// SelfSigningDerivation derives the identifier as a signature over the
// placeholder inception by the holder of the first inception key.
func SelfSigningDerivation(code derivation.SelfSigning, sign SignFunc) Derivation {
	return Derivation{kind: prefix.KindSelfSigning, signing: code, sign: sign}
}

func (d Derivation) String() string {
	switch d.kind {
	case prefix.KindSelfAddressing:
		return "self-addressing/" + d.digest.String()
	case prefix.KindSelfSigning:
		return "self-signing/" + d.signing.String()
	default:
		return d.kind.String()
	}
}

// Incept builds an inception message at sequence number zero whose
// identifier is derived from its content.
func Incept(data *Inception, format codec.Format, how Derivation) (Message, error) {
	if err := data.Validate(); err != nil {
		return Message{}, err
	}
	ev := Event{SN: 0, Data: data}

	switch how.kind {
	case prefix.KindBasic:
		if len(data.KeyConfig.PublicKeys) != 1 {
			return Message{}, fmt.Errorf("%w: basic identifier needs exactly one key, have %d",
				ErrInvalidEvent, len(data.KeyConfig.PublicKeys))
		}
		ev.Prefix = prefix.FromBasic(data.KeyConfig.PublicKeys[0])

	case prefix.KindSelfAddressing:
		if !how.digest.Valid() {
			return Message{}, fmt.Errorf("event: invalid digest code %d", uint8(how.digest))
		}
		canonical, err := placeholderCanonical(ev, format, prefix.DigestTextLength(how.digest))
		if err != nil {
			return Message{}, err
		}
		ev.Prefix = prefix.FromSelfAddressing(prefix.Digest(how.digest, canonical))

	case prefix.KindSelfSigning:
		if !how.signing.Valid() || how.sign == nil {
			return Message{}, fmt.Errorf("event: self-signing derivation needs a signature code and a signer")
		}
		canonical, err := placeholderCanonical(ev, format, derivation.TextLength(len(how.signing.Code()), how.signing.RawLength()))
		if err != nil {
			return Message{}, err
		}
		signature, err := how.sign(canonical)
		if err != nil {
			return Message{}, fmt.Errorf("event: signing inception for self-signing identifier: %w", err)
		}
		if signature.Code != how.signing {
			return Message{}, fmt.Errorf("event: signer produced %s, want %s", signature.Code, how.signing)
		}
		ev.Prefix = prefix.FromSelfSigning(signature)

	default:
		return Message{}, fmt.Errorf("event: unsupported derivation %s", how)
	}
	return NewMessage(ev, format)
}

// placeholderCanonical returns the canonical bytes of ev with its
// prefix replaced by length placeholder characters. The version string
// is computed for the placeholder form, whose size equals the final
// form's because the placeholder has the derived prefix's length.
func placeholderCanonical(ev Event, format codec.Format, length int) ([]byte, error) {
	placeholder := strings.Repeat(placeholderCharacter, length)
	message, err := newMessage(ev, format, placeholder)
	if err != nil {
		return nil, err
	}
	return message.canonical(placeholder)
}

// VerifyInceptionPrefix checks that an inception message's identifier
// is the one its content derives.
func VerifyInceptionPrefix(m Message) error {
	data, ok := m.Event.Data.(*Inception)
	if !ok {
		return fmt.Errorf("%w: %s is not an inception", ErrPrefixDerivation, m.Event.Ilk())
	}
	identifier := m.Event.Prefix
	switch identifier.Kind() {
	case prefix.KindBasic:
		key, _ := identifier.Basic()
		if len(data.KeyConfig.PublicKeys) != 1 || !data.KeyConfig.PublicKeys[0].Equal(key) {
			return fmt.Errorf("%w: basic identifier %s is not the single inception key", ErrPrefixDerivation, identifier)
		}
		return nil

	case prefix.KindSelfAddressing:
		digest, _ := identifier.SelfAddressing()
		canonical, err := m.canonical(strings.Repeat(placeholderCharacter, identifier.TextLength()))
		if err != nil {
			return err
		}
		if !digest.VerifyBinding(canonical) {
			return fmt.Errorf("%w: digest of inception does not match %s", ErrPrefixDerivation, identifier)
		}
		return nil

	case prefix.KindSelfSigning:
		signature, _ := identifier.SelfSigning()
		if len(data.KeyConfig.PublicKeys) == 0 {
			return fmt.Errorf("%w: self-signing identifier without inception keys", ErrPrefixDerivation)
		}
		canonical, err := m.canonical(strings.Repeat(placeholderCharacter, identifier.TextLength()))
		if err != nil {
			return err
		}
		verified, err := data.KeyConfig.PublicKeys[0].Verify(canonical, signature)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPrefixDerivation, err)
		}
		if !verified {
			return fmt.Errorf("%w: identifier signature does not verify under the first inception key", ErrPrefixDerivation)
		}
		return nil

	default:
		return fmt.Errorf("%w: inception has no identifier", ErrPrefixDerivation)
	}
}
