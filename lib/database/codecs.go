// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/event"
)

// signedCodec stores a signed message as its wire stream.
type signedCodec struct{}

func (signedCodec) Encode(signed event.SignedMessage) ([]byte, error) {
	return signed.Serialize()
}

func (signedCodec) Decode(data []byte) (event.SignedMessage, error) {
	signed, rest, err := event.ParseSignedMessage(data)
	if err != nil {
		return event.SignedMessage{}, err
	}
	if len(rest) != 0 {
		return event.SignedMessage{}, fmt.Errorf("%d trailing bytes after signed message", len(rest))
	}
	return signed, nil
}

// EscrowEntry is a receipt waiting for its validator's key state.
type EscrowEntry struct {
	Receipt event.SignedMessage
	Arrived time.Time
}

type escrowRecord struct {
	Stream  []byte `cbor:"stream"`
	Arrived int64  `cbor:"arrived"`
}

type escrowCodec struct{}

func (escrowCodec) Encode(entry EscrowEntry) ([]byte, error) {
	stream, err := signedCodec{}.Encode(entry.Receipt)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(escrowRecord{Stream: stream, Arrived: entry.Arrived.UnixNano()})
}

func (escrowCodec) Decode(data []byte) (EscrowEntry, error) {
	var record escrowRecord
	if err := codec.UnmarshalStrict(data, &record); err != nil {
		return EscrowEntry{}, err
	}
	receipt, err := signedCodec{}.Decode(record.Stream)
	if err != nil {
		return EscrowEntry{}, err
	}
	return EscrowEntry{Receipt: receipt, Arrived: time.Unix(0, record.Arrived).UTC()}, nil
}
