// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/keys"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/state"
)

// DigestCode is the digest algorithm fixtures use everywhere.
const DigestCode = derivation.Blake3_256

// Identity is an in-memory controller for tests: every event it emits
// has already passed state.VerifyAndApply.
type Identity struct {
	t      testing.TB
	Format codec.Format
	Keys   *keys.Manager
	State  state.IdentifierState
	Log    []event.SignedMessage
}

// NewIdentity incepts a single-key identifier with an Ed25519 key.
func NewIdentity(t testing.TB, format codec.Format) *Identity {
	t.Helper()
	manager, err := keys.NewManager(derivation.Ed25519)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })

	identity := &Identity{t: t, Format: format, Keys: manager}
	inception := &event.Inception{
		KeyConfig: event.NewKeyConfig(1, keys.PublicKeys(manager.Current()), manager.NextCommitment(DigestCode)),
	}
	message, err := event.Incept(inception, format, event.SelfAddressingDerivation(DigestCode))
	if err != nil {
		t.Fatalf("Incept: %v", err)
	}
	identity.accept(identity.Sign(message, manager.Current()))
	return identity
}

// Prefix is the identifier.
func (i *Identity) Prefix() prefix.Identifier { return i.State.Prefix }

// Sign signs message's canonical form with signer at index 0.
func (i *Identity) Sign(message event.Message, signer keys.Signer) event.SignedMessage {
	i.t.Helper()
	canonical, err := message.Canonical()
	if err != nil {
		i.t.Fatalf("Canonical: %v", err)
	}
	signature, err := signer.Sign(canonical)
	if err != nil {
		i.t.Fatalf("Sign: %v", err)
	}
	attached, err := prefix.Attach(0, signature)
	if err != nil {
		i.t.Fatalf("Attach: %v", err)
	}
	return message.Sign(attached)
}

// Interact appends an interaction event carrying seals.
func (i *Identity) Interact(seals ...event.Seal) event.SignedMessage {
	i.t.Helper()
	message := i.message(&event.Interaction{
		PreviousEventHash: i.State.LastDigest(DigestCode),
		Data:              seals,
	})
	return i.accept(i.Sign(message, i.Keys.Current()))
}

// Rotate rotates onto the pre-committed next key.
func (i *Identity) Rotate() event.SignedMessage {
	i.t.Helper()
	staged, err := i.Keys.Stage()
	if err != nil {
		i.t.Fatalf("Stage: %v", err)
	}
	message := i.message(&event.Rotation{
		PreviousEventHash: i.State.LastDigest(DigestCode),
		KeyConfig:         event.NewKeyConfig(1, keys.PublicKeys(staged.Signer), staged.Commitment(DigestCode)),
	})
	signed := i.accept(i.Sign(message, staged.Signer))
	if err := i.Keys.Commit(staged); err != nil {
		i.t.Fatalf("Commit: %v", err)
	}
	return signed
}

// Receipt issues a receipt for target, signed by the current key and
// sealed with this identity's last event.
func (i *Identity) Receipt(target event.SignedMessage) event.SignedMessage {
	i.t.Helper()
	digest, err := target.Message.Digest(DigestCode)
	if err != nil {
		i.t.Fatalf("Digest: %v", err)
	}
	targetEvent := target.Event()
	message, err := event.Event{
		Prefix: targetEvent.Prefix,
		SN:     targetEvent.SN,
		Data: &event.Receipt{
			ReceiptedEventDigest:  digest,
			ValidatorLocationSeal: i.State.LocationSeal(DigestCode),
		},
	}.Message(i.Format)
	if err != nil {
		i.t.Fatalf("receipt Message: %v", err)
	}
	return i.Sign(message, i.Keys.Current())
}

func (i *Identity) message(data event.Data) event.Message {
	i.t.Helper()
	message, err := event.Event{Prefix: i.State.Prefix, SN: i.State.SN + 1, Data: data}.Message(i.Format)
	if err != nil {
		i.t.Fatalf("Message: %v", err)
	}
	return message
}

func (i *Identity) accept(signed event.SignedMessage) event.SignedMessage {
	i.t.Helper()
	next, err := state.VerifyAndApply(signed, i.State)
	if err != nil {
		i.t.Fatalf("VerifyAndApply %s: %v", signed.Event().Ilk(), err)
	}
	i.State = next
	i.Log = append(i.Log, signed)
	return signed
}
