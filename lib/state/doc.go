// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package state derives an identifier's key state from its event log.
//
// [Apply] is a pure fold: given the state after event n and event n+1
// it returns the state after n+1 or a [*SemanticError] naming the
// invariant the event breaks. It never mutates its input, so a caller
// that gets an error still holds the last good state.
//
// [VerifyAndApply] is the gate every event passes before the fold:
// it checks that enough distinct keys signed the event's canonical
// bytes (a [*VerificationError] otherwise) and, for an inception, that
// the identifier is the one the inception derives. Inception and
// rotation are checked against the keys they establish; interaction
// against the keys already in force. A rotation's keys are tied to the
// prior state by the fold's pre-rotation check.
//
// [Verify] runs the same threshold check against an existing state's
// keys without folding; receipts use it to check a validator's
// signatures.
package state
