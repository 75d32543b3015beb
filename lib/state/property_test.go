// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// buildLog makes a valid log from a script: true is a rotation, false
// an interaction, after the inception.
func buildLog(t *testing.T, script []bool) []event.SignedMessage {
	rotations := 0
	for _, rotate := range script {
		if rotate {
			rotations++
		}
	}
	builder := newLogBuilder(t, codec.JSON, rotations)
	builder.incept()
	for _, rotate := range script {
		if rotate {
			builder.rotate()
		} else {
			builder.interact()
		}
	}
	return builder.log
}

func properties(t *testing.T) *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	parameters.MaxSize = 8
	return gopter.NewProperties(parameters)
}

func TestFoldProperties(t *testing.T) {
	properties := properties(t)
	script := gen.SliceOf(gen.Bool())

	properties.Property("folding the same log twice yields identical state", prop.ForAll(
		func(script []bool) bool {
			log := buildLog(t, script)
			first, err := fold(t, log)
			if err != nil {
				return false
			}
			second, err := fold(t, log)
			if err != nil {
				return false
			}
			return first.Prefix.Equal(second.Prefix) &&
				first.SN == second.SN &&
				bytes.Equal(first.Last, second.Last) &&
				bytes.Equal(first.LastEstablishment.Canonical, second.LastEstablishment.Canonical) &&
				first.Current.PublicKeys[0].Equal(second.Current.PublicKeys[0])
		},
		script,
	))

	properties.Property("a valid log ends at sn equal to its length minus one", prop.ForAll(
		func(script []bool) bool {
			final, err := fold(t, buildLog(t, script))
			return err == nil && final.SN == uint64(len(script))
		},
		script,
	))

	properties.Property("skipping any non-inception event is rejected on sn", prop.ForAll(
		func(script []bool, skip int) bool {
			log := buildLog(t, script)
			if len(log) < 3 {
				return true
			}
			index := 1 + skip%(len(log)-2)
			gapped := append(append([]event.SignedMessage{}, log[:index]...), log[index+1:]...)
			_, err := fold(t, gapped)
			return IsInvariant(err, InvariantSN)
		},
		gen.SliceOfN(4, gen.Bool()),
		gen.IntRange(0, 100),
	))

	properties.Property("replaying an applied event is rejected on sn", prop.ForAll(
		func(script []bool, replay int) bool {
			log := buildLog(t, script)
			final, err := fold(t, log)
			if err != nil {
				return false
			}
			index := 1 + replay%len(log)
			if index >= len(log) {
				index = len(log) - 1
			}
			if index == 0 {
				return true
			}
			_, err = VerifyAndApply(log[index], final)
			return IsInvariant(err, InvariantSN)
		},
		gen.SliceOfN(3, gen.Bool()),
		gen.IntRange(0, 100),
	))

	properties.Property("rewriting an earlier event breaks the chain", prop.ForAll(
		func(script []bool, target int) bool {
			log := buildLog(t, script)
			if len(log) < 2 {
				return true
			}
			// Re-sign an interaction with different anchored data at
			// position index; the event after it no longer chains.
			index := 1 + target%(len(log)-1)
			if index == len(log)-1 {
				return true
			}
			original := log[index].Message
			if original.Event.Ilk() != event.IlkInteraction {
				return true
			}
			data := *original.Event.Data.(*event.Interaction)
			data.Data = []event.Seal{event.DigestSeal{Digest: prefix.Digest(derivation.Blake3_256, []byte("rewritten"))}}
			rewritten, err := event.NewMessage(event.Event{Prefix: original.Event.Prefix, SN: original.Event.SN, Data: &data}, codec.JSON)
			if err != nil {
				return false
			}
			prior, err := fold(t, log[:index])
			if err != nil {
				return false
			}
			canonical, _ := rewritten.Canonical()
			key := keyForState(t, prior, log)
			next, err := VerifyAndApply(rewritten.Sign(key.attach(t, 0, canonical)), prior)
			if err != nil {
				return false
			}
			_, err = VerifyAndApply(log[index+1], next)
			return IsInvariant(err, InvariantPreviousEventHash)
		},
		gen.SliceOfN(4, gen.Bool()).SuchThat(func(script []bool) bool { return len(script) > 0 && !script[0] }),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// keyForState finds the keypair whose public key is current in state
// by regenerating the deterministic test keys.
func keyForState(t *testing.T, current IdentifierState, log []event.SignedMessage) keypair {
	for seed := 1; seed <= len(log)+2; seed++ {
		candidate := newKeypair(t, byte(seed))
		if candidate.public.Equal(current.Current.PublicKeys[0]) {
			return candidate
		}
	}
	t.Fatalf("no test key matches the current state")
	return keypair{}
}
