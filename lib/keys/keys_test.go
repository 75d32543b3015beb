// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/sealed"
	"github.com/bureau-foundation/keri/lib/secret"
)

func TestGenerateSignsVerifiably(t *testing.T) {
	tests := []struct {
		code    derivation.Basic
		signing derivation.SelfSigning
	}{
		{derivation.Ed25519, derivation.Ed25519Sha512},
		{derivation.Ed25519NT, derivation.Ed25519Sha512},
		{derivation.ECDSAsecp256k1, derivation.ECDSAsecp256k1Sha256},
		{derivation.ECDSAsecp256k1NT, derivation.ECDSAsecp256k1Sha256},
	}
	for _, test := range tests {
		t.Run(test.code.String(), func(t *testing.T) {
			signer, err := Generate(test.code)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			defer signer.Close()

			if signer.PublicKey().Code != test.code {
				t.Fatalf("public key code = %s, want %s", signer.PublicKey().Code, test.code)
			}
			data := []byte("event body")
			signature, err := signer.Sign(data)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if signature.Code != test.signing {
				t.Fatalf("signature code = %s, want %s", signature.Code, test.signing)
			}
			ok, err := signer.PublicKey().Verify(data, signature)
			if err != nil || !ok {
				t.Fatalf("Verify = (%v, %v), want (true, nil)", ok, err)
			}
			ok, err = signer.PublicKey().Verify([]byte("other body"), signature)
			if err != nil || ok {
				t.Fatalf("Verify(other data) = (%v, %v), want (false, nil)", ok, err)
			}
		})
	}
}

func TestGenerateRejectsNonSigningCodes(t *testing.T) {
	for _, code := range []derivation.Basic{derivation.X25519, derivation.X448, derivation.Ed448} {
		if _, err := Generate(code); !errors.Is(err, derivation.ErrUnsupportedAlgorithm) {
			t.Errorf("Generate(%s) error = %v, want ErrUnsupportedAlgorithm", code, err)
		}
	}
}

func TestFromSeedIsDeterministic(t *testing.T) {
	first, err := FromSeed(derivation.Ed25519, bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	defer first.Close()
	second, err := FromSeed(derivation.Ed25519, bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	defer second.Close()

	if !first.PublicKey().Equal(second.PublicKey()) {
		t.Fatal("same seed produced different public keys")
	}
}

func TestFromSeedZeroesInput(t *testing.T) {
	seed := bytes.Repeat([]byte{9}, 32)
	signer, err := FromSeed(derivation.ECDSAsecp256k1, seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	defer signer.Close()
	if !bytes.Equal(seed, make([]byte, 32)) {
		t.Fatal("seed was not zeroed")
	}
}

func TestFromSeedRejectsBadScalars(t *testing.T) {
	if _, err := FromSeed(derivation.ECDSAsecp256k1, make([]byte, 32)); err == nil {
		t.Error("accepted zero secp256k1 scalar")
	}
	if _, err := FromSeed(derivation.ECDSAsecp256k1, bytes.Repeat([]byte{0xff}, 32)); err == nil {
		t.Error("accepted secp256k1 scalar above the group order")
	}
	if _, err := FromSeed(derivation.Ed25519, []byte{1, 2, 3}); err == nil {
		t.Error("accepted short ed25519 seed")
	}
}

func TestSignAfterClose(t *testing.T) {
	signer, err := Generate(derivation.Ed25519)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	signer.Close()
	if _, err := signer.Sign([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Sign after Close error = %v, want ErrClosed", err)
	}
}

func TestManagerPromote(t *testing.T) {
	manager, err := NewManager(derivation.Ed25519)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer manager.Close()

	oldCurrent := manager.Current()
	oldNext := manager.Next()
	commitment := manager.NextCommitment(derivation.Blake3_256)

	if err := manager.Promote(); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if manager.Current() != oldNext {
		t.Fatal("Promote did not make the next key current")
	}
	if manager.Next() == oldNext {
		t.Fatal("Promote did not generate a fresh next key")
	}
	if _, err := oldCurrent.Sign([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("retired key still signs: %v", err)
	}

	want := event.NextKeyCommitment(derivation.Blake3_256, []prefix.Basic{manager.Current().PublicKey()})
	if !commitment.Equal(want) {
		t.Fatal("earlier commitment does not match the promoted key")
	}
}

func TestManagerDiscardLeavesKeysUntouched(t *testing.T) {
	manager, err := NewManager(derivation.Ed25519)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer manager.Close()

	current, next := manager.Current(), manager.Next()
	staged, err := manager.Stage()
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if staged.Signer != next {
		t.Fatal("staged signer is not the pre-rotated key")
	}
	if err := manager.Discard(staged); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if manager.Current() != current || manager.Next() != next {
		t.Fatal("Discard changed the manager's keys")
	}
	if _, err := current.Sign([]byte("x")); err != nil {
		t.Fatalf("current key unusable after Discard: %v", err)
	}
}

func TestManagerCommitStale(t *testing.T) {
	manager, err := NewManager(derivation.Ed25519)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer manager.Close()

	staged, err := manager.Stage()
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := manager.Promote(); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if err := manager.Commit(staged); !errors.Is(err, ErrStaleRotation) {
		t.Fatalf("Commit after Promote error = %v, want ErrStaleRotation", err)
	}
	manager.Discard(staged)
}

func TestKeystoreRoundTrip(t *testing.T) {
	manager, err := NewManager(derivation.ECDSAsecp256k1)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer manager.Close()

	store := Keystore{
		Path:    filepath.Join(t.TempDir(), "keystore.age"),
		Options: sealed.Options{WorkFactor: 10},
	}
	passphrase, _ := secret.NewFromBytes([]byte("passphrase"))
	defer passphrase.Close()

	if exists, err := store.Exists(); err != nil || exists {
		t.Fatalf("Exists before Save = (%v, %v)", exists, err)
	}
	if err := store.Save(manager, passphrase); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(store.Path)
	if err != nil {
		t.Fatalf("stat keystore: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("keystore mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := store.Load(passphrase)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loaded.Close()

	if !loaded.Current().PublicKey().Equal(manager.Current().PublicKey()) {
		t.Error("loaded current key differs")
	}
	if !loaded.Next().PublicKey().Equal(manager.Next().PublicKey()) {
		t.Error("loaded next key differs")
	}
	if loaded.Code() != derivation.ECDSAsecp256k1 {
		t.Errorf("loaded code = %s", loaded.Code())
	}
}

func TestKeystoreWrongPassphrase(t *testing.T) {
	manager, err := NewManager(derivation.Ed25519)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer manager.Close()

	store := Keystore{
		Path:    filepath.Join(t.TempDir(), "keystore.age"),
		Options: sealed.Options{WorkFactor: 10},
	}
	right, _ := secret.NewFromBytes([]byte("right"))
	defer right.Close()
	wrong, _ := secret.NewFromBytes([]byte("wrong"))
	defer wrong.Close()

	if err := store.Save(manager, right); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Load(wrong); !errors.Is(err, sealed.ErrWrongPassphrase) {
		t.Fatalf("Load with wrong passphrase error = %v, want ErrWrongPassphrase", err)
	}
}
