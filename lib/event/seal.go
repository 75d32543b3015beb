// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "github.com/bureau-foundation/keri/lib/prefix"

// Seal is anchored data in an event's "data" list. Implementations are
// EventSeal and DigestSeal.
type Seal interface {
	isSeal()
}

// EventSeal names an event of another identifier by its prefix and
// digest. In a receipt it is the validator location seal: the
// validator's prefix and the digest of the validator's last
// establishment event.
type EventSeal struct {
	Prefix prefix.Identifier
	Digest prefix.SelfAddressing
}

func (EventSeal) isSeal() {}

// DigestSeal anchors an arbitrary digest.
type DigestSeal struct {
	Digest prefix.SelfAddressing
}

func (DigestSeal) isSeal() {}

func validateSeals(seals []Seal) error {
	for index, seal := range seals {
		switch seal := seal.(type) {
		case EventSeal:
			if seal.Prefix.IsUnset() || seal.Digest.IsZero() {
				return invalid("event seal %d is incomplete", index)
			}
		case DigestSeal:
			if seal.Digest.IsZero() {
				return invalid("digest seal %d has no digest", index)
			}
		default:
			return invalid("seal %d has unsupported type %T", index, seal)
		}
	}
	return nil
}
