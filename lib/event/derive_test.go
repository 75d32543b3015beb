// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
)

func TestSelfAddressingInception(t *testing.T) {
	for _, format := range []codec.Format{codec.JSON, codec.CBOR} {
		for _, code := range []derivation.SelfAddressing{derivation.Blake3_256, derivation.SHA2_512} {
			data := testInception(newTestKeypair(t, 1), newTestKeypair(t, 2))
			message, err := Incept(data, format, SelfAddressingDerivation(code))
			if err != nil {
				t.Fatalf("Incept: %v", err)
			}
			if message.Event.Prefix.Kind() != prefix.KindSelfAddressing {
				t.Fatalf("prefix kind = %v", message.Event.Prefix.Kind())
			}
			if err := VerifyInceptionPrefix(message); err != nil {
				t.Errorf("%s/%s VerifyInceptionPrefix: %v", format, code, err)
			}

			again, err := Incept(testInception(newTestKeypair(t, 1), newTestKeypair(t, 2)), format, SelfAddressingDerivation(code))
			if err != nil {
				t.Fatalf("second Incept: %v", err)
			}
			if !again.Event.Prefix.Equal(message.Event.Prefix) {
				t.Errorf("derivation is not deterministic: %s != %s", again.Event.Prefix, message.Event.Prefix)
			}
		}
	}
}

func TestSelfAddressingInceptionDetectsTampering(t *testing.T) {
	message := mustIncept(t, testInception(newTestKeypair(t, 1), newTestKeypair(t, 2)), codec.JSON)
	tampered := message
	data := *message.Event.Data.(*Inception)
	data.KeyConfig = NewKeyConfig(1, []prefix.Basic{newTestKeypair(t, 9).public}, data.KeyConfig.NextKeyDigest)
	tampered.Event.Data = &data

	if err := VerifyInceptionPrefix(tampered); !errors.Is(err, ErrPrefixDerivation) {
		t.Errorf("VerifyInceptionPrefix(tampered) error = %v, want ErrPrefixDerivation", err)
	}
}

func TestBasicInception(t *testing.T) {
	key := newTestKeypair(t, 5)
	data := &Inception{KeyConfig: NewKeyConfig(1, []prefix.Basic{key.public}, prefix.SelfAddressing{})}
	message, err := Incept(data, codec.JSON, BasicDerivation())
	if err != nil {
		t.Fatalf("Incept: %v", err)
	}
	if got, _ := message.Event.Prefix.Basic(); !got.Equal(key.public) {
		t.Errorf("basic prefix = %s, want the inception key %s", message.Event.Prefix, key.public)
	}
	if err := VerifyInceptionPrefix(message); err != nil {
		t.Errorf("VerifyInceptionPrefix: %v", err)
	}

	two := &Inception{KeyConfig: NewKeyConfig(1, []prefix.Basic{key.public, newTestKeypair(t, 6).public}, prefix.SelfAddressing{})}
	if _, err := Incept(two, codec.JSON, BasicDerivation()); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Incept(two keys, basic) error = %v, want ErrInvalidEvent", err)
	}
}

func TestSelfSigningInception(t *testing.T) {
	key := newTestKeypair(t, 7)
	data := testInception(key, newTestKeypair(t, 8))
	sign := func(data []byte) (prefix.SelfSigning, error) { return key.sign(data), nil }

	message, err := Incept(data, codec.CBOR, SelfSigningDerivation(derivation.Ed25519Sha512, sign))
	if err != nil {
		t.Fatalf("Incept: %v", err)
	}
	if message.Event.Prefix.Kind() != prefix.KindSelfSigning {
		t.Fatalf("prefix kind = %v", message.Event.Prefix.Kind())
	}
	if err := VerifyInceptionPrefix(message); err != nil {
		t.Errorf("VerifyInceptionPrefix: %v", err)
	}

	wrongSigner := func(data []byte) (prefix.SelfSigning, error) { return newTestKeypair(t, 99).sign(data), nil }
	forged, err := Incept(testInception(key, newTestKeypair(t, 8)), codec.CBOR, SelfSigningDerivation(derivation.Ed25519Sha512, wrongSigner))
	if err != nil {
		t.Fatalf("Incept(wrong signer): %v", err)
	}
	if err := VerifyInceptionPrefix(forged); !errors.Is(err, ErrPrefixDerivation) {
		t.Errorf("VerifyInceptionPrefix(forged) error = %v, want ErrPrefixDerivation", err)
	}
}

func TestVerifyInceptionPrefixRejectsOtherEvents(t *testing.T) {
	interaction := sampleLog(t, codec.JSON)[2].Message
	if err := VerifyInceptionPrefix(interaction); !errors.Is(err, ErrPrefixDerivation) {
		t.Errorf("error = %v, want ErrPrefixDerivation", err)
	}
}
