// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/keri/lib/prefix"
)

var (
	// ErrNotIncepted is returned by controller operations that need an
	// identifier before Incept or Load has established one.
	ErrNotIncepted = errors.New("kel: controller has no identifier")

	// ErrAlreadyIncepted is returned by Incept on a controller that
	// already owns an identifier.
	ErrAlreadyIncepted = errors.New("kel: controller already owns an identifier")

	// ErrDuplicate marks an event that is already in the log. It is
	// joined with the sequencing error the state machine reported.
	ErrDuplicate = errors.New("kel: event already applied")

	// ErrOwnEvent is returned by Processor.Process for an event of the
	// controller's own identifier that the controller did not produce.
	ErrOwnEvent = errors.New("kel: event for the controller's own identifier")

	// ErrKeysMismatch is returned by Load when the key manager does not
	// hold the keys the log establishes.
	ErrKeysMismatch = errors.New("kel: keys do not match the key event log")
)

// Binding names the receipt field that failed to match.
type Binding string

const (
	// BindingSN: no local event exists at the receipted sequence
	// number.
	BindingSN Binding = "sn"
	// BindingPrefix: the receipt is about another identifier.
	BindingPrefix Binding = "prefix"
	// BindingDigest: the receipted digest is not the digest of the
	// local event at that sequence number.
	BindingDigest Binding = "digest"
	// BindingValidator: the seal names a different validator than the
	// state the receipt is checked against.
	BindingValidator Binding = "validator"
)

// ReceiptError is a receipt that does not bind to the event it claims
// to receipt. It is a hard rejection: the receipt is never escrowed.
type ReceiptError struct {
	Binding Binding
	Prefix  prefix.Identifier
	SN      uint64
	Detail  string
}

func (e *ReceiptError) Error() string {
	if e.Binding == BindingSN {
		return fmt.Sprintf("kel: incorrect receipt sn: %s has no event at sn %d", e.Prefix, e.SN)
	}
	return fmt.Sprintf("kel: receipt for %s sn %d fails %s binding: %s", e.Prefix, e.SN, e.Binding, e.Detail)
}

// IsBinding reports whether err is a ReceiptError for binding.
func IsBinding(err error, binding Binding) bool {
	var receiptErr *ReceiptError
	return errors.As(err, &receiptErr) && receiptErr.Binding == binding
}
