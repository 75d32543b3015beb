// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
)

func TestInceptionEstablishesState(t *testing.T) {
	builder := newLogBuilder(t, codec.JSON, 0)
	inception := builder.incept()

	current := builder.state
	if !current.Prefix.Equal(inception.Event().Prefix) || current.SN != 0 {
		t.Fatalf("state = %s sn %d", current.Prefix, current.SN)
	}
	if len(current.Current.PublicKeys) != 1 || !current.Current.PublicKeys[0].Equal(builder.keys[0].public) {
		t.Errorf("current keys = %v", current.Current.PublicKeys)
	}
	canonical, _ := inception.Message.Canonical()
	if !bytes.Equal(current.Last, canonical) || !bytes.Equal(current.LastEstablishment.Canonical, canonical) {
		t.Error("Last and LastEstablishment should hold the inception's canonical form")
	}
}

func TestInteractionKeepsKeys(t *testing.T) {
	builder := newLogBuilder(t, codec.JSON, 0)
	builder.incept()
	afterInception := builder.state.Clone()
	builder.interact()

	if builder.state.SN != 1 {
		t.Errorf("sn = %d, want 1", builder.state.SN)
	}
	if !builder.state.Current.PublicKeys[0].Equal(afterInception.Current.PublicKeys[0]) {
		t.Error("interaction changed keys")
	}
	if !bytes.Equal(builder.state.LastEstablishment.Canonical, afterInception.LastEstablishment.Canonical) {
		t.Error("interaction moved the last establishment event")
	}
	if bytes.Equal(builder.state.Last, afterInception.Last) {
		t.Error("interaction did not advance Last")
	}
}

func TestRotationAdoptsCommittedKeys(t *testing.T) {
	builder := newLogBuilder(t, codec.CBOR, 2)
	builder.incept()
	builder.interact()
	builder.rotate()
	builder.rotate()

	if builder.state.SN != 3 {
		t.Fatalf("sn = %d, want 3", builder.state.SN)
	}
	if !builder.state.Current.PublicKeys[0].Equal(builder.keys[2].public) {
		t.Errorf("current key is not the second rotation's key")
	}
	if builder.state.LastEstablishment.SN != 3 {
		t.Errorf("last establishment sn = %d, want 3", builder.state.LastEstablishment.SN)
	}
}

func TestApplyRejections(t *testing.T) {
	builder := newLogBuilder(t, codec.JSON, 1)
	builder.incept()
	incepted := builder.state

	other := newLogBuilder(t, codec.JSON, 0)
	other.keys[0] = newKeypair(t, 77)
	otherInception := other.inceptionMessage()

	interaction := builder.interactionMessage()
	wrongSN := interaction.Message
	wrongSN.Event.SN = 5

	wrongPrefix := interaction.Message
	wrongPrefix.Event.Prefix = otherInception.Event().Prefix

	brokenChain := interaction.Message
	brokenChain.Event.Data = &event.Interaction{PreviousEventHash: prefix.Digest(derivation.Blake3_256, []byte("elsewhere"))}

	uncommitted := builder.rotationMessage().Message
	rotation := *uncommitted.Event.Data.(*event.Rotation)
	rotation.KeyConfig = event.NewKeyConfig(1, []prefix.Basic{newKeypair(t, 66).public}, rotation.KeyConfig.NextKeyDigest)
	uncommitted.Event.Data = &rotation

	receipt := interaction.Message
	receipt.Event.Data = &event.Receipt{
		ReceiptedEventDigest:  incepted.LastDigest(derivation.Blake3_256),
		ValidatorLocationSeal: incepted.LocationSeal(derivation.Blake3_256),
	}

	cases := []struct {
		name      string
		ev        event.Event
		prior     IdentifierState
		invariant Invariant
	}{
		{"second inception", otherInception.Event(), incepted, InvariantPrefix},
		{"interaction before inception", interaction.Event(), IdentifierState{}, InvariantPrefix},
		{"skipped sn", wrongSN.Event, incepted, InvariantSN},
		{"other identifier", wrongPrefix.Event, incepted, InvariantPrefix},
		{"broken chain", brokenChain.Event, incepted, InvariantPreviousEventHash},
		{"uncommitted rotation keys", uncommitted.Event, incepted, InvariantPreRotationCommitment},
		{"receipt in own log", receipt.Event, incepted, InvariantIlk},
		{"no payload", event.Event{Prefix: incepted.Prefix, SN: 1}, incepted, InvariantIlk},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Apply(testCase.ev, testCase.prior)
			var semantic *SemanticError
			if !errors.As(err, &semantic) {
				t.Fatalf("Apply error = %v, want *SemanticError", err)
			}
			if semantic.Invariant != testCase.invariant {
				t.Errorf("invariant = %s, want %s (%v)", semantic.Invariant, testCase.invariant, err)
			}
		})
	}

	if incepted.SN != 0 || !incepted.Prefix.Equal(builder.state.Prefix) {
		t.Error("rejections modified the prior state")
	}
}

func TestInceptionAtNonZeroSN(t *testing.T) {
	builder := newLogBuilder(t, codec.JSON, 0)
	inception := builder.inceptionMessage().Event()
	inception.SN = 1
	if _, err := Apply(inception, IdentifierState{}); !IsInvariant(err, InvariantSN) {
		t.Errorf("error = %v, want sn invariant", err)
	}
}

func TestEstablishmentOnlyRejectsInteraction(t *testing.T) {
	builder := newLogBuilder(t, codec.JSON, 1)
	builder.incept(event.EstablishmentOnly)

	_, err := VerifyAndApply(builder.interactionMessage(), builder.state)
	if !IsInvariant(err, InvariantEstablishmentOnly) {
		t.Fatalf("error = %v, want establishment_only invariant", err)
	}
	builder.rotate()
	if !builder.state.EstablishmentOnly() {
		t.Error("rotation dropped the establishment-only trait")
	}
}

func TestNonTransferableCannotRotate(t *testing.T) {
	key := newKeypair(t, 40)
	nonTransferable := prefix.Basic{Code: derivation.Ed25519NT, PublicKey: key.public.PublicKey}
	message, err := event.Incept(&event.Inception{
		KeyConfig: event.NewKeyConfig(1, []prefix.Basic{nonTransferable}, prefix.SelfAddressing{}),
	}, codec.JSON, event.BasicDerivation())
	if err != nil {
		t.Fatalf("Incept: %v", err)
	}
	canonical, _ := message.Canonical()
	incepted, err := VerifyAndApply(message.Sign(key.attach(t, 0, canonical)), IdentifierState{})
	if err != nil {
		t.Fatalf("VerifyAndApply(icp): %v", err)
	}

	next := newKeypair(t, 41)
	rotation, err := event.NewMessage(event.Event{
		Prefix: incepted.Prefix,
		SN:     1,
		Data: &event.Rotation{
			PreviousEventHash: incepted.LastDigest(derivation.Blake3_256),
			KeyConfig:         event.NewKeyConfig(1, []prefix.Basic{next.public}, prefix.SelfAddressing{}),
		},
	}, codec.JSON)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	canonical, _ = rotation.Canonical()
	if _, err := VerifyAndApply(rotation.Sign(next.attach(t, 0, canonical)), incepted); !IsInvariant(err, InvariantTransferable) {
		t.Errorf("error = %v, want transferable invariant", err)
	}
}

func TestStateCloneIsDeep(t *testing.T) {
	builder := newLogBuilder(t, codec.JSON, 0)
	builder.incept()
	original := builder.state
	clone := original.Clone()
	clone.Last[0] ^= 0xff
	clone.Current.PublicKeys[0].PublicKey[0] ^= 0xff
	if original.Last[0] == clone.Last[0] || original.Current.PublicKeys[0].PublicKey[0] == clone.Current.PublicKeys[0].PublicKey[0] {
		t.Error("Clone shares memory with the original")
	}
}
