// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"bytes"
	"slices"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// EstablishmentSeal locates the last establishment event.
type EstablishmentSeal struct {
	SN        uint64 `cbor:"sn"`
	Canonical []byte `cbor:"canonical"`
}

// IdentifierState is the key state of one identifier after folding
// its log. The zero value is the state before inception.
type IdentifierState struct {
	Prefix prefix.Identifier `cbor:"prefix"`
	SN     uint64            `cbor:"sn"`
	// Last is the canonical form of the last applied event.
	Last              []byte              `cbor:"last"`
	LastEstablishment EstablishmentSeal   `cbor:"last_establishment"`
	Current           event.KeyConfig     `cbor:"current"`
	Witnesses         event.WitnessState  `cbor:"witnesses"`
	Configuration     []event.ConfigTrait `cbor:"configuration"`
}

// Incepted reports whether the state belongs to an identifier.
func (s IdentifierState) Incepted() bool { return !s.Prefix.IsUnset() }

// Clone returns a deep copy.
func (s IdentifierState) Clone() IdentifierState {
	clone := s
	clone.Last = bytes.Clone(s.Last)
	clone.LastEstablishment.Canonical = bytes.Clone(s.LastEstablishment.Canonical)
	clone.Current = s.Current.Clone()
	clone.Witnesses.Witnesses = slices.Clone(s.Witnesses.Witnesses)
	clone.Configuration = slices.Clone(s.Configuration)
	return clone
}

// LastDigest is the digest of the last applied event.
func (s IdentifierState) LastDigest(code derivation.SelfAddressing) prefix.SelfAddressing {
	return prefix.Digest(code, s.Last)
}

// LocationSeal names this identifier's last event, the seal a receipt
// issued from this state carries.
func (s IdentifierState) LocationSeal(code derivation.SelfAddressing) event.EventSeal {
	return event.EventSeal{Prefix: s.Prefix, Digest: s.LastDigest(code)}
}

// EstablishmentOnly reports whether interaction events are forbidden.
func (s IdentifierState) EstablishmentOnly() bool {
	return event.HasTrait(s.Configuration, event.EstablishmentOnly)
}
