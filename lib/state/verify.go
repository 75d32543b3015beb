// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// VerifyAndApply checks an event's signatures (and, for an inception,
// its identifier derivation) and then folds it. Nothing is folded
// unless every check passes.
func VerifyAndApply(signed event.SignedMessage, prior IdentifierState) (IdentifierState, error) {
	message := signed.Message
	if err := checkPosition(message.Event, prior); err != nil {
		return IdentifierState{}, err
	}
	keys, err := signingKeys(message.Event, prior)
	if err != nil {
		return IdentifierState{}, err
	}
	canonical, err := message.Canonical()
	if err != nil {
		return IdentifierState{}, &SemanticError{Invariant: InvariantWellFormed, Prefix: message.Event.Prefix,
			SN: message.Event.SN, Detail: "canonical form", Err: err}
	}
	if err := verifyThreshold(keys, canonical, signed.Signatures); err != nil {
		return IdentifierState{}, err
	}
	if message.Event.Ilk() == event.IlkInception {
		if err := event.VerifyInceptionPrefix(message); err != nil {
			return IdentifierState{}, &SemanticError{Invariant: InvariantPrefixDerivation, Prefix: message.Event.Prefix,
				SN: message.Event.SN, Detail: "identifier does not derive from inception", Err: err}
		}
	}
	return ApplyMessage(message, prior)
}

// Verify checks that signed carries enough valid signatures under the
// keys current in state. It does not fold.
func Verify(signed event.SignedMessage, current IdentifierState) error {
	if !current.Incepted() {
		return &SemanticError{Invariant: InvariantPrefix, Detail: "no key state to verify against"}
	}
	canonical, err := signed.Message.Canonical()
	if err != nil {
		return &SemanticError{Invariant: InvariantWellFormed, Prefix: signed.Message.Event.Prefix,
			SN: signed.Message.Event.SN, Detail: "canonical form", Err: err}
	}
	return verifyThreshold(current.Current, canonical, signed.Signatures)
}

// checkPosition runs the sequencing checks of the fold ahead of
// signature verification, so a replayed or out-of-order event is
// reported by position rather than as a signature failure.
func checkPosition(ev event.Event, prior IdentifierState) error {
	switch ev.Data.(type) {
	case *event.Inception:
		if prior.Incepted() {
			return &SemanticError{Invariant: InvariantPrefix, Prefix: ev.Prefix, SN: ev.SN,
				Detail: fmt.Sprintf("identifier %s is already incepted", prior.Prefix)}
		}
		return nil
	case *event.Rotation, *event.Interaction:
		return checkSequence(ev, prior)
	default:
		return nil
	}
}

// signingKeys returns the key configuration an event must be signed
// under: its own for establishment events, the prior state's for
// interactions.
func signingKeys(ev event.Event, prior IdentifierState) (event.KeyConfig, error) {
	reject := func(invariant Invariant, err error, detail string) (event.KeyConfig, error) {
		return event.KeyConfig{}, &SemanticError{Invariant: invariant, Prefix: ev.Prefix, SN: ev.SN, Detail: detail, Err: err}
	}
	switch data := ev.Data.(type) {
	case *event.Inception:
		if err := data.KeyConfig.Validate(); err != nil {
			return reject(InvariantWellFormed, err, "invalid key configuration")
		}
		return data.KeyConfig, nil
	case *event.Rotation:
		if err := data.KeyConfig.Validate(); err != nil {
			return reject(InvariantWellFormed, err, "invalid key configuration")
		}
		return data.KeyConfig, nil
	case *event.Interaction:
		if !prior.Incepted() {
			return reject(InvariantPrefix, nil, "interaction before inception")
		}
		return prior.Current, nil
	case *event.Receipt:
		return reject(InvariantIlk, nil, "a receipt is not part of the receipted identifier's log")
	case nil:
		return reject(InvariantIlk, event.ErrInvalidEvent, "event has no payload")
	default:
		return reject(InvariantIlk, event.ErrUnknownIlk, fmt.Sprintf("%T", data))
	}
}

// verifyThreshold counts distinct key indexes with a valid signature
// over data and requires at least config.Threshold of them. Signatures
// that do not verify, including those naming a key index the
// configuration does not have, count for nothing.
func verifyThreshold(config event.KeyConfig, data []byte, signatures []prefix.AttachedSignature) error {
	verified := make(map[uint16]struct{}, len(signatures))
	var reason string
	var cryptoErr error
	note := func(detail string, err error) {
		if reason == "" {
			reason = detail
			cryptoErr = err
		}
	}

	for _, signature := range signatures {
		if int(signature.Index) >= len(config.PublicKeys) {
			note(fmt.Sprintf("signature index %d out of range for %d keys", signature.Index, len(config.PublicKeys)), nil)
			continue
		}
		key := config.PublicKeys[signature.Index]
		ok, err := key.Verify(data, signature.SelfSigning())
		if err != nil {
			note(fmt.Sprintf("signature %d cannot be checked", signature.Index), errors.Join(ErrCrypto, err))
			continue
		}
		if !ok {
			note(fmt.Sprintf("signature %d does not verify", signature.Index), nil)
			continue
		}
		verified[signature.Index] = struct{}{}
	}

	if config.Threshold == 0 || uint64(len(verified)) < config.Threshold {
		return &VerificationError{Required: config.Threshold, Verified: len(verified), Reason: reason, Err: cryptoErr}
	}
	return nil
}
