// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"slices"
	"strings"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// KeyConfig is the signing configuration set by an establishment
// event: the current keys, how many of them must sign, and a digest
// committing to the keys of the next rotation.
type KeyConfig struct {
	Threshold     uint64                `cbor:"threshold"`
	PublicKeys    []prefix.Basic        `cbor:"keys"`
	NextKeyDigest prefix.SelfAddressing `cbor:"next"`
}

// NewKeyConfig builds a key configuration. The keys slice is copied.
func NewKeyConfig(threshold uint64, keys []prefix.Basic, next prefix.SelfAddressing) KeyConfig {
	return KeyConfig{Threshold: threshold, PublicKeys: slices.Clone(keys), NextKeyDigest: next}
}

func (k KeyConfig) Validate() error {
	if len(k.PublicKeys) == 0 {
		return invalid("key configuration has no keys")
	}
	if k.Threshold == 0 {
		return invalid("signing threshold is zero")
	}
	if k.Threshold > uint64(len(k.PublicKeys)) {
		return invalid("signing threshold %d exceeds %d keys", k.Threshold, len(k.PublicKeys))
	}
	if duplicate, ok := firstDuplicate(k.PublicKeys); ok {
		return invalid("duplicate key %s", duplicate)
	}
	for _, key := range k.PublicKeys {
		if _, ok := key.Code.SigningCode(); !ok {
			return invalid("key %s (%s) cannot sign", key, key.Code)
		}
		if !key.Transferable() && !k.NextKeyDigest.IsZero() {
			return invalid("non-transferable key %s with a next key commitment", key)
		}
	}
	return nil
}

// Transferable reports whether this configuration can be rotated: it
// commits to next keys and none of its keys is non-transferable.
func (k KeyConfig) Transferable() bool {
	if k.NextKeyDigest.IsZero() {
		return false
	}
	for _, key := range k.PublicKeys {
		if !key.Transferable() {
			return false
		}
	}
	return true
}

// VerifyNext reports whether keys are exactly the keys this
// configuration committed to, in order.
func (k KeyConfig) VerifyNext(keys []prefix.Basic) bool {
	if k.NextKeyDigest.IsZero() || len(keys) == 0 {
		return false
	}
	return k.NextKeyDigest.VerifyBinding(nextKeyPreimage(keys))
}

// Index returns the position of key in the configuration.
func (k KeyConfig) Index(key prefix.Basic) (int, bool) {
	for index, candidate := range k.PublicKeys {
		if candidate.Equal(key) {
			return index, true
		}
	}
	return -1, false
}

// Clone returns a deep copy.
func (k KeyConfig) Clone() KeyConfig {
	clone := KeyConfig{Threshold: k.Threshold, NextKeyDigest: k.NextKeyDigest}
	clone.PublicKeys = make([]prefix.Basic, len(k.PublicKeys))
	for index, key := range k.PublicKeys {
		clone.PublicKeys[index] = prefix.Basic{Code: key.Code, PublicKey: slices.Clone(key.PublicKey)}
	}
	return clone
}

// NextKeyCommitment is the digest an establishment event carries to
// commit to keys: the digest of the keys' text forms concatenated in
// order. A single key commits as digest(text(key)).
func NextKeyCommitment(code derivation.SelfAddressing, keys []prefix.Basic) prefix.SelfAddressing {
	return prefix.Digest(code, nextKeyPreimage(keys))
}

func nextKeyPreimage(keys []prefix.Basic) []byte {
	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key.String())
	}
	return []byte(builder.String())
}

// InceptionWitnessConfig is the initial witness set.
type InceptionWitnessConfig struct {
	// Tally is the number of witness receipts required ("toad").
	Tally   uint64
	Initial []prefix.Basic
}

func (c InceptionWitnessConfig) Validate() error {
	if duplicate, ok := firstDuplicate(c.Initial); ok {
		return invalid("duplicate witness %s", duplicate)
	}
	return checkTally(c.Tally, len(c.Initial))
}

// WitnessConfig is a rotation's change to the witness set: witnesses
// pruned ("cuts") and grafted ("adds"), and the new tally.
type WitnessConfig struct {
	Tally uint64
	Prune []prefix.Basic
	Graft []prefix.Basic
}

func (c WitnessConfig) Validate() error {
	if duplicate, ok := firstDuplicate(c.Prune); ok {
		return invalid("witness %s pruned twice", duplicate)
	}
	if duplicate, ok := firstDuplicate(c.Graft); ok {
		return invalid("witness %s grafted twice", duplicate)
	}
	for _, witness := range c.Graft {
		if containsKey(c.Prune, witness) {
			return invalid("witness %s both pruned and grafted", witness)
		}
	}
	return nil
}

// WitnessState is the witness set in force after folding a log.
type WitnessState struct {
	Tally     uint64         `cbor:"tally"`
	Witnesses []prefix.Basic `cbor:"witnesses"`
}

// NewWitnessState returns the witness state an inception establishes.
func NewWitnessState(config InceptionWitnessConfig) (WitnessState, error) {
	if err := config.Validate(); err != nil {
		return WitnessState{}, err
	}
	return WitnessState{Tally: config.Tally, Witnesses: slices.Clone(config.Initial)}, nil
}

// Apply folds a rotation's witness change into the state. The receiver
// is not modified.
func (w WitnessState) Apply(config WitnessConfig) (WitnessState, error) {
	if err := config.Validate(); err != nil {
		return WitnessState{}, err
	}
	witnesses := make([]prefix.Basic, 0, len(w.Witnesses)+len(config.Graft))
	for _, witness := range config.Prune {
		if !containsKey(w.Witnesses, witness) {
			return WitnessState{}, invalid("pruned witness %s is not in the witness set", witness)
		}
	}
	for _, witness := range w.Witnesses {
		if !containsKey(config.Prune, witness) {
			witnesses = append(witnesses, witness)
		}
	}
	for _, witness := range config.Graft {
		if containsKey(witnesses, witness) {
			return WitnessState{}, invalid("grafted witness %s is already in the witness set", witness)
		}
		witnesses = append(witnesses, witness)
	}
	if err := checkTally(config.Tally, len(witnesses)); err != nil {
		return WitnessState{}, err
	}
	return WitnessState{Tally: config.Tally, Witnesses: witnesses}, nil
}

func checkTally(tally uint64, witnesses int) error {
	if tally > uint64(witnesses) {
		return invalid("witness tally %d exceeds %d witnesses", tally, witnesses)
	}
	if witnesses > 0 && tally == 0 {
		return invalid("witness tally is zero with %d witnesses", witnesses)
	}
	return nil
}

// ConfigTrait is an inception configuration flag ("cnfg").
type ConfigTrait string

// EstablishmentOnly forbids interaction events in the identifier's log.
const EstablishmentOnly ConfigTrait = "EO"

func (t ConfigTrait) Known() bool { return t == EstablishmentOnly }

// HasTrait reports whether traits contains trait.
func HasTrait(traits []ConfigTrait, trait ConfigTrait) bool {
	return slices.Contains(traits, trait)
}

func firstDuplicate(keys []prefix.Basic) (prefix.Basic, bool) {
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		text := key.String()
		if _, ok := seen[text]; ok {
			return key, true
		}
		seen[text] = struct{}{}
	}
	return prefix.Basic{}, false
}

func containsKey(keys []prefix.Basic, key prefix.Basic) bool {
	return slices.ContainsFunc(keys, key.Equal)
}
