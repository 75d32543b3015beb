// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/keri/lib/event"
)

// Apply folds ev into prior. It checks sequencing and chaining against
// prior.Last but does not set Last; [ApplyMessage] does, from the
// event's canonical form.
func Apply(ev event.Event, prior IdentifierState) (IdentifierState, error) {
	reject := func(invariant Invariant, err error, format string, args ...any) (IdentifierState, error) {
		return IdentifierState{}, &SemanticError{
			Invariant: invariant,
			Prefix:    ev.Prefix,
			SN:        ev.SN,
			Detail:    fmt.Sprintf(format, args...),
			Err:       err,
		}
	}

	switch data := ev.Data.(type) {
	case *event.Inception:
		if prior.Incepted() {
			return reject(InvariantPrefix, nil, "identifier %s is already incepted", prior.Prefix)
		}
		if ev.SN != 0 {
			return reject(InvariantSN, nil, "inception at sn %d", ev.SN)
		}
		if ev.Prefix.IsUnset() {
			return reject(InvariantPrefix, nil, "inception without identifier")
		}
		if err := data.Validate(); err != nil {
			return reject(InvariantWellFormed, err, "invalid inception")
		}
		witnesses, err := event.NewWitnessState(data.WitnessConfig)
		if err != nil {
			return reject(InvariantWellFormed, err, "invalid witness configuration")
		}
		return IdentifierState{
			Prefix:        ev.Prefix,
			SN:            0,
			Current:       data.KeyConfig.Clone(),
			Witnesses:     witnesses,
			Configuration: slices.Clone(data.Configuration),
		}, nil

	case *event.Rotation:
		if err := checkSequence(ev, prior); err != nil {
			return IdentifierState{}, err
		}
		if err := data.Validate(); err != nil {
			return reject(InvariantWellFormed, err, "invalid rotation")
		}
		if !prior.Current.Transferable() {
			return reject(InvariantTransferable, nil, "current keys are non-transferable")
		}
		if !prior.Current.VerifyNext(data.KeyConfig.PublicKeys) {
			return reject(InvariantPreRotationCommitment, nil, "disclosed keys do not match the committed next key digest")
		}
		if !data.PreviousEventHash.VerifyBinding(prior.Last) {
			return reject(InvariantPreviousEventHash, nil, "%s is not the digest of event %d", data.PreviousEventHash, prior.SN)
		}
		witnesses, err := prior.Witnesses.Apply(data.WitnessConfig)
		if err != nil {
			return reject(InvariantWellFormed, err, "invalid witness change")
		}
		next := prior.Clone()
		next.SN = ev.SN
		next.Current = data.KeyConfig.Clone()
		next.Witnesses = witnesses
		return next, nil

	case *event.Interaction:
		if err := checkSequence(ev, prior); err != nil {
			return IdentifierState{}, err
		}
		if err := data.Validate(); err != nil {
			return reject(InvariantWellFormed, err, "invalid interaction")
		}
		if prior.EstablishmentOnly() {
			return reject(InvariantEstablishmentOnly, nil, "interaction in an establishment-only log")
		}
		if !data.PreviousEventHash.VerifyBinding(prior.Last) {
			return reject(InvariantPreviousEventHash, nil, "%s is not the digest of event %d", data.PreviousEventHash, prior.SN)
		}
		next := prior.Clone()
		next.SN = ev.SN
		return next, nil

	case *event.Receipt:
		return reject(InvariantIlk, nil, "a receipt is not part of the receipted identifier's log")

	case nil:
		return reject(InvariantIlk, event.ErrInvalidEvent, "event has no payload")

	default:
		return reject(InvariantIlk, event.ErrUnknownIlk, "%T", data)
	}
}

func checkSequence(ev event.Event, prior IdentifierState) error {
	if !prior.Incepted() {
		return &SemanticError{Invariant: InvariantPrefix, Prefix: ev.Prefix, SN: ev.SN,
			Detail: fmt.Sprintf("%s before inception", ev.Ilk())}
	}
	if !ev.Prefix.Equal(prior.Prefix) {
		return &SemanticError{Invariant: InvariantPrefix, Prefix: ev.Prefix, SN: ev.SN,
			Detail: fmt.Sprintf("event for %s applied to %s", ev.Prefix, prior.Prefix)}
	}
	if ev.SN != prior.SN+1 {
		return &SemanticError{Invariant: InvariantSN, Prefix: ev.Prefix, SN: ev.SN,
			Detail: fmt.Sprintf("expected sn %d after %d", prior.SN+1, prior.SN)}
	}
	return nil
}

// ApplyMessage folds the message's event and records its canonical
// form as the last event (and last establishment event, for icp and
// rot).
func ApplyMessage(message event.Message, prior IdentifierState) (IdentifierState, error) {
	canonical, err := message.Canonical()
	if err != nil {
		return IdentifierState{}, &SemanticError{Invariant: InvariantWellFormed, Prefix: message.Event.Prefix,
			SN: message.Event.SN, Detail: "canonical form", Err: err}
	}
	next, err := Apply(message.Event, prior)
	if err != nil {
		return IdentifierState{}, err
	}
	next.Last = canonical
	if message.Event.Ilk().Establishment() {
		next.LastEstablishment = EstablishmentSeal{SN: message.Event.SN, Canonical: canonical}
	}
	return next, nil
}
