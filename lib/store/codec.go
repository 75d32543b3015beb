// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/bureau-foundation/keri/lib/codec"
)

// Codec converts values to and from their stored bytes.
type Codec[V any] interface {
	Encode(value V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// DecodeError reports stored bytes that do not decode to the expected
// shape. It always indicates corruption or a schema mismatch, never a
// missing key.
type DecodeError struct {
	Bucket string
	Key    []byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("store: decoding %s/%x: %v", e.Bucket, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CBORCodec stores values in deterministic CBOR and decodes strictly:
// unknown fields and duplicate keys are errors.
type CBORCodec[V any] struct{}

func (CBORCodec[V]) Encode(value V) ([]byte, error) {
	return codec.Marshal(value)
}

func (CBORCodec[V]) Decode(data []byte) (V, error) {
	var value V
	err := codec.UnmarshalStrict(data, &value)
	return value, err
}
