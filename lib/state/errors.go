// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/keri/lib/prefix"
)

// Invariant names the rule a rejected event breaks.
type Invariant string

const (
	InvariantPrefix                Invariant = "prefix"
	InvariantSN                    Invariant = "sn"
	InvariantPreviousEventHash     Invariant = "previous_event_hash"
	InvariantPreRotationCommitment Invariant = "pre_rotation_commitment"
	InvariantTransferable          Invariant = "transferable"
	InvariantEstablishmentOnly     Invariant = "establishment_only"
	InvariantIlk                   Invariant = "ilk"
	InvariantPrefixDerivation      Invariant = "prefix_derivation"
	InvariantWellFormed            Invariant = "well_formed"
)

// ErrCrypto marks failures of the cryptographic primitives themselves
// (malformed keys, unsupported algorithms), as opposed to signatures
// that are well-formed but wrong.
var ErrCrypto = errors.New("state: cryptographic failure")

// SemanticError is an event that cannot follow the state it was
// applied to.
type SemanticError struct {
	Invariant Invariant
	Prefix    prefix.Identifier
	SN        uint64
	Detail    string
	Err       error
}

func (e *SemanticError) Error() string {
	identifier := e.Prefix.String()
	if identifier == "" {
		identifier = "(unset)"
	}
	message := fmt.Sprintf("state: %s invariant violated by %s sn %d: %s", e.Invariant, identifier, e.SN, e.Detail)
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}
	return message
}

func (e *SemanticError) Unwrap() error { return e.Err }

// IsInvariant reports whether err is a SemanticError for invariant.
func IsInvariant(err error, invariant Invariant) bool {
	var semantic *SemanticError
	return errors.As(err, &semantic) && semantic.Invariant == invariant
}

// VerificationError is an event without enough valid signatures.
type VerificationError struct {
	Required uint64
	Verified int
	// Reason describes the first signature that did not count, if any.
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	message := fmt.Sprintf("state: %d of %d required signatures verified", e.Verified, e.Required)
	if e.Reason != "" {
		message += ": " + e.Reason
	}
	return message
}

func (e *VerificationError) Unwrap() error { return e.Err }
