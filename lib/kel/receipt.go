// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/keri/lib/clock"
	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/database"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/keys"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/state"
)

// ReceiptOutcome is what happened to a receipt that was not rejected.
type ReceiptOutcome uint8

const (
	// ReceiptAccepted: the receipt verified and is recorded.
	ReceiptAccepted ReceiptOutcome = iota + 1
	// ReceiptEscrowed: the validator's key state is unknown or its last
	// event is not the sealed one.
	ReceiptEscrowed
)

func (o ReceiptOutcome) String() string {
	switch o {
	case ReceiptAccepted:
		return "accepted"
	case ReceiptEscrowed:
		return "escrowed"
	default:
		return fmt.Sprintf("ReceiptOutcome(%d)", uint8(o))
	}
}

// MakeReceipt issues a receipt for target on behalf of issuer. The
// receipt mirrors target's prefix and sequence number, carries the
// digest of target under code, and seals the issuer's last event. signer must hold one of the issuer's current
// keys; its position in the key list is the signature index.
func MakeReceipt(issuer state.IdentifierState, signer keys.Signer, target event.Message, format codec.Format, code derivation.SelfAddressing) (event.SignedMessage, error) {
	if !issuer.Incepted() {
		return event.SignedMessage{}, ErrNotIncepted
	}
	index, ok := issuer.Current.Index(signer.PublicKey())
	if !ok {
		return event.SignedMessage{}, fmt.Errorf("kel: signer key %s is not a current key of %s", signer.PublicKey(), issuer.Prefix)
	}
	digest, err := target.Digest(code)
	if err != nil {
		return event.SignedMessage{}, fmt.Errorf("kel: digesting receipted event: %w", err)
	}
	message, err := event.Event{
		Prefix: target.Event.Prefix,
		SN:     target.Event.SN,
		Data: &event.Receipt{
			ReceiptedEventDigest:  digest,
			ValidatorLocationSeal: issuer.LocationSeal(code),
		},
	}.Message(format)
	if err != nil {
		return event.SignedMessage{}, err
	}
	return signMessage(message, signer, index)
}

func signMessage(message event.Message, signer keys.Signer, index int) (event.SignedMessage, error) {
	canonical, err := message.Canonical()
	if err != nil {
		return event.SignedMessage{}, err
	}
	signature, err := signer.Sign(canonical)
	if err != nil {
		return event.SignedMessage{}, err
	}
	attached, err := prefix.Attach(uint16(index), signature)
	if err != nil {
		return event.SignedMessage{}, err
	}
	return message.Sign(attached), nil
}

// receiptBook checks receipts against stored logs and keeps the
// escrow. The controller and the processor share one per database.
type receiptBook struct {
	db        *database.EventDatabase
	clock     clock.Clock
	maxEscrow int
	logger    *slog.Logger
}

// check validates a receipt against the local log and, if available,
// the validator's key state. pending reports that the receipt cannot
// be verified yet and belongs in escrow.
func (b *receiptBook) check(ctx context.Context, receipt event.SignedMessage, validator *state.IdentifierState) (seal event.EventSeal, pending bool, err error) {
	ev := receipt.Event()
	data, ok := ev.Data.(*event.Receipt)
	if !ok {
		return seal, false, &state.SemanticError{Invariant: state.InvariantIlk, Prefix: ev.Prefix, SN: ev.SN,
			Detail: fmt.Sprintf("expected a receipt, got %q", ev.Ilk())}
	}
	seal = data.ValidatorLocationSeal

	local, found, err := b.db.Event(ctx, ev.Prefix, ev.SN)
	if err != nil {
		return seal, false, err
	}
	if !found {
		return seal, false, &ReceiptError{Binding: BindingSN, Prefix: ev.Prefix, SN: ev.SN}
	}
	canonical, err := local.Message.Canonical()
	if err != nil {
		return seal, false, fmt.Errorf("kel: canonical form of stored %s sn %d: %w", ev.Prefix, ev.SN, err)
	}
	if !data.ReceiptedEventDigest.VerifyBinding(canonical) {
		return seal, false, &ReceiptError{Binding: BindingDigest, Prefix: ev.Prefix, SN: ev.SN,
			Detail: "receipted digest does not match the stored event"}
	}

	if validator == nil || !validator.Incepted() {
		return seal, true, nil
	}
	if !seal.Prefix.Equal(validator.Prefix) {
		return seal, false, &ReceiptError{Binding: BindingValidator, Prefix: ev.Prefix, SN: ev.SN,
			Detail: fmt.Sprintf("seal names %s, validator state is %s", seal.Prefix, validator.Prefix)}
	}
	if !seal.Digest.VerifyBinding(validator.Last) {
		return seal, true, nil
	}
	return seal, false, state.Verify(receipt, *validator)
}

// add checks a receipt and records or escrows it.
func (b *receiptBook) add(ctx context.Context, receipt event.SignedMessage, validator *state.IdentifierState) (ReceiptOutcome, error) {
	seal, pending, err := b.check(ctx, receipt, validator)
	if err != nil {
		return 0, err
	}
	ev := receipt.Event()
	if pending {
		entry := database.EscrowEntry{Receipt: receipt, Arrived: b.clock.Now()}
		discarded, err := b.db.EscrowReceipt(ctx, seal.Prefix, entry, b.maxEscrow)
		if err != nil {
			return 0, err
		}
		if discarded > 0 {
			b.logger.Warn("escrow full, discarded oldest receipts",
				"validator", seal.Prefix.String(), "discarded", discarded)
		}
		b.logger.Debug("receipt escrowed",
			"prefix", ev.Prefix.String(), "sn", ev.SN, "validator", seal.Prefix.String())
		return ReceiptEscrowed, nil
	}
	added, err := b.db.AddReceipt(ctx, ev.Prefix, ev.SN, receipt)
	if err != nil {
		return 0, err
	}
	b.logger.Debug("receipt accepted",
		"prefix", ev.Prefix.String(), "sn", ev.SN, "validator", seal.Prefix.String(), "new", added)
	return ReceiptAccepted, nil
}

// IsRejection reports whether err condemns the message itself, as
// opposed to a storage failure that leaves it where it was. Rejected
// messages are dropped; retrying cannot make them valid.
func IsRejection(err error) bool {
	var (
		receiptErr      *ReceiptError
		semanticErr     *state.SemanticError
		verificationErr *state.VerificationError
	)
	return errors.As(err, &receiptErr) ||
		errors.As(err, &semanticErr) ||
		errors.As(err, &verificationErr) ||
		errors.Is(err, event.ErrInvalidEvent)
}
