// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"crypto/ed25519"
	"testing"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
)

type keypair struct {
	public  prefix.Basic
	private ed25519.PrivateKey
}

func newKeypair(t testing.TB, seed byte) keypair {
	t.Helper()
	seedBytes := make([]byte, ed25519.SeedSize)
	seedBytes[0] = seed
	seedBytes[1] = 0x5a
	private := ed25519.NewKeyFromSeed(seedBytes)
	public, err := prefix.NewBasic(derivation.Ed25519, private.Public().(ed25519.PublicKey))
	if err != nil {
		t.Fatalf("NewBasic: %v", err)
	}
	return keypair{public: public, private: private}
}

func (k keypair) attach(t testing.TB, index uint16, data []byte) prefix.AttachedSignature {
	t.Helper()
	attached, err := prefix.Attach(index, prefix.SelfSigning{
		Code:      derivation.Ed25519Sha512,
		Signature: ed25519.Sign(k.private, data),
	})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return attached
}

// logBuilder produces a valid single-key log. Establishment event i is
// signed by keys[i]; each establishment commits to keys[i+1].
type logBuilder struct {
	t      testing.TB
	format codec.Format
	keys   []keypair
	// establishments counts establishment events so far.
	establishments int
	state          IdentifierState
	log            []event.SignedMessage
}

func newLogBuilder(t testing.TB, format codec.Format, rotations int) *logBuilder {
	t.Helper()
	builder := &logBuilder{t: t, format: format}
	for index := 0; index <= rotations+1; index++ {
		builder.keys = append(builder.keys, newKeypair(t, byte(index+1)))
	}
	return builder
}

func (b *logBuilder) commitment(index int) prefix.SelfAddressing {
	return event.NextKeyCommitment(derivation.Blake3_256, []prefix.Basic{b.keys[index].public})
}

func (b *logBuilder) sign(message event.Message, key keypair) event.SignedMessage {
	b.t.Helper()
	canonical, err := message.Canonical()
	if err != nil {
		b.t.Fatalf("Canonical: %v", err)
	}
	return message.Sign(key.attach(b.t, 0, canonical))
}

func (b *logBuilder) accept(signed event.SignedMessage) event.SignedMessage {
	b.t.Helper()
	next, err := VerifyAndApply(signed, b.state)
	if err != nil {
		b.t.Fatalf("VerifyAndApply(%s sn %d): %v", signed.Event().Ilk(), signed.Event().SN, err)
	}
	b.state = next
	b.log = append(b.log, signed)
	return signed
}

func (b *logBuilder) inceptionMessage(traits ...event.ConfigTrait) event.SignedMessage {
	b.t.Helper()
	message, err := event.Incept(&event.Inception{
		KeyConfig:     event.NewKeyConfig(1, []prefix.Basic{b.keys[0].public}, b.commitment(1)),
		Configuration: traits,
	}, b.format, event.SelfAddressingDerivation(derivation.Blake3_256))
	if err != nil {
		b.t.Fatalf("Incept: %v", err)
	}
	return b.sign(message, b.keys[0])
}

func (b *logBuilder) incept(traits ...event.ConfigTrait) event.SignedMessage {
	b.t.Helper()
	signed := b.accept(b.inceptionMessage(traits...))
	b.establishments = 1
	return signed
}

func (b *logBuilder) interactionMessage() event.SignedMessage {
	b.t.Helper()
	message, err := event.NewMessage(event.Event{
		Prefix: b.state.Prefix,
		SN:     b.state.SN + 1,
		Data:   &event.Interaction{PreviousEventHash: b.state.LastDigest(derivation.Blake3_256)},
	}, b.format)
	if err != nil {
		b.t.Fatalf("NewMessage(ixn): %v", err)
	}
	return b.sign(message, b.keys[b.establishments-1])
}

func (b *logBuilder) interact() event.SignedMessage {
	b.t.Helper()
	return b.accept(b.interactionMessage())
}

func (b *logBuilder) rotationMessage() event.SignedMessage {
	b.t.Helper()
	revealed := b.establishments
	message, err := event.NewMessage(event.Event{
		Prefix: b.state.Prefix,
		SN:     b.state.SN + 1,
		Data: &event.Rotation{
			PreviousEventHash: b.state.LastDigest(derivation.Blake3_256),
			KeyConfig:         event.NewKeyConfig(1, []prefix.Basic{b.keys[revealed].public}, b.commitment(revealed+1)),
		},
	}, b.format)
	if err != nil {
		b.t.Fatalf("NewMessage(rot): %v", err)
	}
	return b.sign(message, b.keys[revealed])
}

func (b *logBuilder) rotate() event.SignedMessage {
	b.t.Helper()
	signed := b.accept(b.rotationMessage())
	b.establishments++
	return signed
}

func fold(t testing.TB, log []event.SignedMessage) (IdentifierState, error) {
	t.Helper()
	var current IdentifierState
	for _, signed := range log {
		next, err := VerifyAndApply(signed, current)
		if err != nil {
			return current, err
		}
		current = next
	}
	return current, nil
}
