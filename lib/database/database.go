// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/state"
	"github.com/bureau-foundation/keri/lib/store"
)

const (
	bucketKEL      = "kel"
	bucketReceipts = "receipts"
	bucketEscrow   = "escrow"
	bucketStates   = "states"
	bucketOwn      = "own"
)

var ownKey = []byte("identifier")

// ErrDuplicateEvent is returned when a log already holds an event at
// the sequence number being appended.
var ErrDuplicateEvent = errors.New("database: event already stored at this sequence number")

// ErrOwnIdentifierExists is returned by CommitInception when the
// database already belongs to a controller.
var ErrOwnIdentifierExists = errors.New("database: controller identifier already recorded")

// Options configures value encoding.
type Options struct {
	// Compression applies to stored events, receipts and states.
	Compression store.Compression
}

// EventDatabase is the typed view of a backend.
type EventDatabase struct {
	backend  store.Backend
	kel      *store.KeyedStore[event.SignedMessage]
	receipts *store.MultiKeyedStore[event.SignedMessage]
	escrow   *store.MultiKeyedStore[EscrowEntry]
	states   *store.KeyedStore[state.IdentifierState]
	own      *store.KeyedStore[prefix.Identifier]
}

// New wraps backend. The database does not own the backend; the
// caller closes it.
func New(backend store.Backend, options Options) (*EventDatabase, error) {
	var signed store.Codec[event.SignedMessage] = signedCodec{}
	var states store.Codec[state.IdentifierState] = store.CBORCodec[state.IdentifierState]{}
	if options.Compression != store.CompressionNone {
		signed = store.CompressedCodec[event.SignedMessage]{Inner: signed, Compression: options.Compression}
		states = store.CompressedCodec[state.IdentifierState]{Inner: states, Compression: options.Compression}
	}

	database := &EventDatabase{backend: backend}
	var err error
	if database.kel, err = store.NewKeyedStore(backend, bucketKEL, signed); err != nil {
		return nil, err
	}
	if database.receipts, err = store.NewMultiKeyedStore(backend, bucketReceipts, signed); err != nil {
		return nil, err
	}
	if database.escrow, err = store.NewMultiKeyedStore[EscrowEntry](backend, bucketEscrow, escrowCodec{}); err != nil {
		return nil, err
	}
	if database.states, err = store.NewKeyedStore(backend, bucketStates, states); err != nil {
		return nil, err
	}
	if database.own, err = store.NewKeyedStore[prefix.Identifier](backend, bucketOwn, nil); err != nil {
		return nil, err
	}
	return database, nil
}

func identifierKey(id prefix.Identifier) []byte {
	return []byte(id.String())
}

func eventKey(id prefix.Identifier, sn uint64) []byte {
	return binary.BigEndian.AppendUint64(identifierKey(id), sn)
}

// AppendEvent stores a verified event in its identifier's log.
func (d *EventDatabase) AppendEvent(ctx context.Context, signed event.SignedMessage) error {
	return d.backend.Update(ctx, func(tx store.Tx) error { return d.appendIn(tx, signed) })
}

// Commit appends a verified event and records the state it produced
// in one transaction.
func (d *EventDatabase) Commit(ctx context.Context, signed event.SignedMessage, folded state.IdentifierState) error {
	return d.backend.Update(ctx, func(tx store.Tx) error {
		if err := d.appendIn(tx, signed); err != nil {
			return err
		}
		return d.states.SetIn(tx, identifierKey(folded.Prefix), folded)
	})
}

func (d *EventDatabase) appendIn(tx store.Tx, signed event.SignedMessage) error {
	ev := signed.Event()
	err := d.kel.PutIn(tx, eventKey(ev.Prefix, ev.SN), signed)
	if errors.Is(err, store.ErrExists) {
		return fmt.Errorf("%w: %s sn %d", ErrDuplicateEvent, ev.Prefix, ev.SN)
	}
	return err
}

// Event returns the stored event at sn.
func (d *EventDatabase) Event(ctx context.Context, id prefix.Identifier, sn uint64) (event.SignedMessage, bool, error) {
	return d.kel.Get(ctx, eventKey(id, sn))
}

// Events returns an identifier's log in sequence order.
func (d *EventDatabase) Events(ctx context.Context, id prefix.Identifier) ([]event.SignedMessage, error) {
	var log []event.SignedMessage
	err := d.kel.Scan(ctx, identifierKey(id), func(_ []byte, signed event.SignedMessage) error {
		log = append(log, signed)
		return nil
	})
	return log, err
}

// CommitInception stores the inception of the identifier this
// database's controller owns, its state, and the ownership record in
// one transaction.
func (d *EventDatabase) CommitInception(ctx context.Context, signed event.SignedMessage, folded state.IdentifierState) error {
	return d.backend.Update(ctx, func(tx store.Tx) error {
		if err := d.own.PutIn(tx, ownKey, folded.Prefix); err != nil {
			if errors.Is(err, store.ErrExists) {
				return ErrOwnIdentifierExists
			}
			return err
		}
		if err := d.appendIn(tx, signed); err != nil {
			return err
		}
		return d.states.SetIn(tx, identifierKey(folded.Prefix), folded)
	})
}

// OwnIdentifier returns the identifier recorded by CommitInception.
func (d *EventDatabase) OwnIdentifier(ctx context.Context) (prefix.Identifier, bool, error) {
	return d.own.Get(ctx, ownKey)
}

// AddReceipt records an accepted receipt for the event at sn. A
// receipt identical to one already recorded is not stored again; the
// result reports whether this call stored it.
func (d *EventDatabase) AddReceipt(ctx context.Context, id prefix.Identifier, sn uint64, receipt event.SignedMessage) (added bool, err error) {
	err = d.backend.Update(ctx, func(tx store.Tx) error {
		added, err = d.addReceiptIn(tx, eventKey(id, sn), receipt)
		return err
	})
	return added, err
}

func (d *EventDatabase) addReceiptIn(tx store.Tx, key []byte, receipt event.SignedMessage) (bool, error) {
	wire, err := receipt.Serialize()
	if err != nil {
		return false, err
	}
	recorded, err := d.receipts.GetIn(tx, key)
	if err != nil {
		return false, err
	}
	for _, existing := range recorded {
		existingWire, err := existing.Serialize()
		if err != nil {
			return false, err
		}
		if bytes.Equal(existingWire, wire) {
			return false, nil
		}
	}
	return true, d.receipts.PutIn(tx, key, receipt)
}

// AddReceiptFromEscrow records an accepted receipt and removes its
// escrow entry in one transaction, so a resolved entry is recorded
// exactly once. It reports whether the receipt was stored; false means
// the entry was already gone or the receipt already recorded.
func (d *EventDatabase) AddReceiptFromEscrow(ctx context.Context, id prefix.Identifier, sn uint64, validator prefix.Identifier, entry EscrowEntry) (added bool, err error) {
	err = d.backend.Update(ctx, func(tx store.Tx) error {
		removed, err := d.escrow.DelValueIn(tx, identifierKey(validator), entry)
		if err != nil || !removed {
			return err
		}
		added, err = d.addReceiptIn(tx, eventKey(id, sn), entry.Receipt)
		return err
	})
	return added, err
}

// Receipts returns the accepted receipts for the event at sn.
func (d *EventDatabase) Receipts(ctx context.Context, id prefix.Identifier, sn uint64) ([]event.SignedMessage, error) {
	return d.receipts.Get(ctx, eventKey(id, sn))
}

// EscrowReceipt parks a receipt under its validator. When the
// validator already has limit entries the oldest are discarded;
// limit <= 0 means unbounded. It reports how many were discarded.
func (d *EventDatabase) EscrowReceipt(ctx context.Context, validator prefix.Identifier, entry EscrowEntry, limit int) (discarded int, err error) {
	key := identifierKey(validator)
	err = d.backend.Update(ctx, func(tx store.Tx) error {
		if limit > 0 {
			count, err := d.escrow.LenIn(tx, key)
			if err != nil {
				return err
			}
			if count >= limit {
				discarded = count - limit + 1
				if err := d.escrow.DelFirstIn(tx, key, discarded); err != nil {
					return err
				}
			}
		}
		return d.escrow.PutIn(tx, key, entry)
	})
	return discarded, err
}

// Escrowed returns the receipts waiting on validator, oldest first.
func (d *EventDatabase) Escrowed(ctx context.Context, validator prefix.Identifier) ([]EscrowEntry, error) {
	return d.escrow.Get(ctx, identifierKey(validator))
}

// RemoveEscrowed drops one escrow entry. It reports whether the entry
// was present.
func (d *EventDatabase) RemoveEscrowed(ctx context.Context, validator prefix.Identifier, entry EscrowEntry) (bool, error) {
	return d.escrow.DelValue(ctx, identifierKey(validator), entry)
}

// PurgeEscrow discards every escrow entry that arrived before cutoff
// and reports how many were removed.
func (d *EventDatabase) PurgeEscrow(ctx context.Context, cutoff time.Time) (int, error) {
	purged := 0
	err := d.backend.Update(ctx, func(tx store.Tx) error {
		var stale [][]byte
		err := tx.Scan(bucketEscrow, nil, func(key, data []byte) error {
			entry, err := escrowCodec{}.Decode(data)
			if err != nil {
				return &store.DecodeError{Bucket: bucketEscrow, Key: key, Err: err}
			}
			if entry.Arrived.Before(cutoff) {
				stale = append(stale, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(bucketEscrow, key); err != nil {
				return err
			}
		}
		purged = len(stale)
		return nil
	})
	return purged, err
}

// SaveState records the folded state of an identifier.
func (d *EventDatabase) SaveState(ctx context.Context, folded state.IdentifierState) error {
	return d.states.Set(ctx, identifierKey(folded.Prefix), folded)
}

// State returns the recorded state of an identifier.
func (d *EventDatabase) State(ctx context.Context, id prefix.Identifier) (state.IdentifierState, bool, error) {
	return d.states.Get(ctx, identifierKey(id))
}
