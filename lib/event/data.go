// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "github.com/bureau-foundation/keri/lib/prefix"

// Ilk is the event type tag.
type Ilk string

const (
	IlkInception   Ilk = "icp"
	IlkRotation    Ilk = "rot"
	IlkInteraction Ilk = "ixn"
	IlkReceipt     Ilk = "vrc"
)

// Establishment reports whether events of this type set keys.
func (i Ilk) Establishment() bool {
	return i == IlkInception || i == IlkRotation
}

// Data is the payload of an event. The set of implementations is
// closed: *Inception, *Rotation, *Interaction and *Receipt.
type Data interface {
	Ilk() Ilk
	// Validate checks the payload in isolation.
	Validate() error
	isData()
}

// Inception establishes an identifier.
type Inception struct {
	KeyConfig     KeyConfig
	WitnessConfig InceptionWitnessConfig
	Configuration []ConfigTrait
}

func (*Inception) Ilk() Ilk { return IlkInception }
func (*Inception) isData()  {}

func (d *Inception) Validate() error {
	if err := d.KeyConfig.Validate(); err != nil {
		return err
	}
	if err := d.WitnessConfig.Validate(); err != nil {
		return err
	}
	for _, trait := range d.Configuration {
		if !trait.Known() {
			return invalid("unknown configuration trait %q", trait)
		}
	}
	return nil
}

// Rotation replaces the key configuration.
type Rotation struct {
	PreviousEventHash prefix.SelfAddressing
	KeyConfig         KeyConfig
	WitnessConfig     WitnessConfig
	Data              []Seal
}

func (*Rotation) Ilk() Ilk { return IlkRotation }
func (*Rotation) isData()  {}

func (d *Rotation) Validate() error {
	if d.PreviousEventHash.IsZero() {
		return invalid("rotation without previous event digest")
	}
	if err := d.KeyConfig.Validate(); err != nil {
		return err
	}
	if err := d.WitnessConfig.Validate(); err != nil {
		return err
	}
	return validateSeals(d.Data)
}

// Interaction anchors data to the log without changing keys.
type Interaction struct {
	PreviousEventHash prefix.SelfAddressing
	Data              []Seal
}

func (*Interaction) Ilk() Ilk { return IlkInteraction }
func (*Interaction) isData()  {}

func (d *Interaction) Validate() error {
	if d.PreviousEventHash.IsZero() {
		return invalid("interaction without previous event digest")
	}
	return validateSeals(d.Data)
}

// Receipt is a transferable validator's receipt. The enclosing event's
// prefix and sequence number name the receipted event; the seal names
// the validator and the establishment event whose keys signed.
type Receipt struct {
	ReceiptedEventDigest  prefix.SelfAddressing
	ValidatorLocationSeal EventSeal
}

func (*Receipt) Ilk() Ilk { return IlkReceipt }
func (*Receipt) isData()  {}

func (d *Receipt) Validate() error {
	if d.ReceiptedEventDigest.IsZero() {
		return invalid("receipt without receipted event digest")
	}
	if d.ValidatorLocationSeal.Prefix.IsUnset() {
		return invalid("receipt seal without validator prefix")
	}
	if d.ValidatorLocationSeal.Digest.IsZero() {
		return invalid("receipt seal without establishment digest")
	}
	return nil
}
