// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/sealed"
	"github.com/bureau-foundation/keri/lib/secret"
)

const keystoreVersion = 1

// ErrNotExportable is returned by Save when a signer's seed cannot be
// read, for example a signer backed by external hardware.
var ErrNotExportable = errors.New("keys: signer cannot be exported")

// Keystore persists a Manager's current and next seeds in one
// passphrase-encrypted file.
type Keystore struct {
	Path    string
	Options sealed.Options
}

type keystorePayload struct {
	Version int       `cbor:"1,keyasint"`
	Current keyRecord `cbor:"2,keyasint"`
	Next    keyRecord `cbor:"3,keyasint"`
}

type keyRecord struct {
	Code string `cbor:"1,keyasint"`
	Seed []byte `cbor:"2,keyasint"`
}

// Exists reports whether the keystore file is present.
func (k Keystore) Exists() (bool, error) {
	_, err := os.Stat(k.Path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("keys: checking keystore: %w", err)
}

// Save encrypts the manager's keys and atomically replaces the file.
func (k Keystore) Save(manager *Manager, passphrase *secret.Buffer) error {
	current, err := recordOf(manager.Current())
	if err != nil {
		return err
	}
	defer secret.Zero(current.Seed)
	next, err := recordOf(manager.Next())
	if err != nil {
		return err
	}
	defer secret.Zero(next.Seed)

	plaintext, err := codec.Marshal(keystorePayload{Version: keystoreVersion, Current: current, Next: next})
	if err != nil {
		return fmt.Errorf("keys: encoding keystore: %w", err)
	}
	defer secret.Zero(plaintext)

	ciphertext, err := sealed.Seal(plaintext, passphrase, k.Options)
	if err != nil {
		return err
	}
	return writeAtomic(k.Path, ciphertext)
}

// Load decrypts the keystore and rebuilds its Manager.
func (k Keystore) Load(passphrase *secret.Buffer) (*Manager, error) {
	ciphertext, err := os.ReadFile(k.Path)
	if err != nil {
		return nil, fmt.Errorf("keys: reading keystore: %w", err)
	}
	plaintext, err := sealed.Open(ciphertext, passphrase, k.Options)
	if err != nil {
		return nil, err
	}
	defer plaintext.Close()

	var payload keystorePayload
	if err := codec.UnmarshalStrict(plaintext.Bytes(), &payload); err != nil {
		return nil, fmt.Errorf("keys: decoding keystore: %w", err)
	}
	if payload.Version != keystoreVersion {
		return nil, fmt.Errorf("keys: unsupported keystore version %d", payload.Version)
	}

	current, err := signerOf(payload.Current)
	if err != nil {
		secret.Zero(payload.Next.Seed)
		return nil, fmt.Errorf("keys: current key: %w", err)
	}
	next, err := signerOf(payload.Next)
	if err != nil {
		current.Close()
		return nil, fmt.Errorf("keys: next key: %w", err)
	}
	manager, err := NewManagerFromSigners(current, next)
	if err != nil {
		current.Close()
		next.Close()
		return nil, err
	}
	return manager, nil
}

func recordOf(signer Signer) (keyRecord, error) {
	source, ok := signer.(exportable)
	if !ok {
		return keyRecord{}, ErrNotExportable
	}
	buffer, err := source.seed()
	if err != nil {
		return keyRecord{}, err
	}
	return keyRecord{Code: signer.Code().Code(), Seed: append([]byte(nil), buffer.Bytes()...)}, nil
}

func signerOf(record keyRecord) (Signer, error) {
	code, err := derivation.ParseBasic(record.Code)
	if err != nil {
		secret.Zero(record.Seed)
		return nil, err
	}
	return FromSeed(code, record.Seed)
}

func writeAtomic(path string, data []byte) error {
	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, ".keystore-*")
	if err != nil {
		return fmt.Errorf("keys: creating keystore: %w", err)
	}
	defer os.Remove(temporary.Name())

	if err := temporary.Chmod(0600); err != nil {
		temporary.Close()
		return fmt.Errorf("keys: setting keystore mode: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("keys: writing keystore: %w", err)
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("keys: syncing keystore: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("keys: closing keystore: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("keys: replacing keystore: %w", err)
	}
	return nil
}
