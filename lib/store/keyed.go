// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
)

// KeyedStore maps each key in one bucket to a single value.
//
// Every method has a transaction-scoped variant (suffix In) so callers
// can combine writes to several stores in one Update.
type KeyedStore[V any] struct {
	Backend Backend
	Bucket  string
	Codec   Codec[V]
}

// NewKeyedStore returns a store over bucket using CBORCodec when codec
// is nil.
func NewKeyedStore[V any](backend Backend, bucket string, codec Codec[V]) (*KeyedStore[V], error) {
	if err := ValidateBucket(bucket); err != nil {
		return nil, err
	}
	if codec == nil {
		codec = CBORCodec[V]{}
	}
	return &KeyedStore[V]{Backend: backend, Bucket: bucket, Codec: codec}, nil
}

// Put inserts value under key. It fails with ErrExists if the key is
// already present.
func (s *KeyedStore[V]) Put(ctx context.Context, key []byte, value V) error {
	return s.Backend.Update(ctx, func(tx Tx) error { return s.PutIn(tx, key, value) })
}

func (s *KeyedStore[V]) PutIn(tx Tx, key []byte, value V) error {
	_, exists, err := tx.Get(s.Bucket, key)
	if err != nil {
		return fmt.Errorf("store: %s: %w", s.Bucket, err)
	}
	if exists {
		return fmt.Errorf("%w: %s/%x", ErrExists, s.Bucket, key)
	}
	return s.write(tx, key, value)
}

// Set replaces whatever is stored under key with value.
func (s *KeyedStore[V]) Set(ctx context.Context, key []byte, value V) error {
	return s.Backend.Update(ctx, func(tx Tx) error { return s.SetIn(tx, key, value) })
}

func (s *KeyedStore[V]) SetIn(tx Tx, key []byte, value V) error {
	if err := tx.Delete(s.Bucket, key); err != nil {
		return fmt.Errorf("store: %s: %w", s.Bucket, err)
	}
	return s.write(tx, key, value)
}

// Get returns the value under key. A missing key is (zero, false, nil).
func (s *KeyedStore[V]) Get(ctx context.Context, key []byte) (value V, found bool, err error) {
	err = s.Backend.View(ctx, func(tx Tx) error {
		value, found, err = s.GetIn(tx, key)
		return err
	})
	return value, found, err
}

func (s *KeyedStore[V]) GetIn(tx Tx, key []byte) (V, bool, error) {
	var zero V
	data, found, err := tx.Get(s.Bucket, key)
	if err != nil {
		return zero, false, fmt.Errorf("store: %s: %w", s.Bucket, err)
	}
	if !found {
		return zero, false, nil
	}
	value, err := s.Codec.Decode(data)
	if err != nil {
		return zero, false, &DecodeError{Bucket: s.Bucket, Key: key, Err: err}
	}
	return value, true, nil
}

// Del removes key. Deleting a missing key is not an error.
func (s *KeyedStore[V]) Del(ctx context.Context, key []byte) error {
	return s.Backend.Update(ctx, func(tx Tx) error { return s.DelIn(tx, key) })
}

func (s *KeyedStore[V]) DelIn(tx Tx, key []byte) error {
	if err := tx.Delete(s.Bucket, key); err != nil {
		return fmt.Errorf("store: %s: %w", s.Bucket, err)
	}
	return nil
}

// Scan calls fn for every entry whose key starts with prefix, in key
// order.
func (s *KeyedStore[V]) Scan(ctx context.Context, prefix []byte, fn func(key []byte, value V) error) error {
	return s.Backend.View(ctx, func(tx Tx) error { return s.ScanIn(tx, prefix, fn) })
}

func (s *KeyedStore[V]) ScanIn(tx Tx, prefix []byte, fn func(key []byte, value V) error) error {
	return tx.Scan(s.Bucket, prefix, func(key, data []byte) error {
		value, err := s.Codec.Decode(data)
		if err != nil {
			return &DecodeError{Bucket: s.Bucket, Key: key, Err: err}
		}
		return fn(key, value)
	})
}

func (s *KeyedStore[V]) write(tx Tx, key []byte, value V) error {
	data, err := s.Codec.Encode(value)
	if err != nil {
		return fmt.Errorf("store: encoding %s/%x: %w", s.Bucket, key, err)
	}
	if err := tx.Put(s.Bucket, key, data); err != nil {
		return fmt.Errorf("store: %s: %w", s.Bucket, err)
	}
	return nil
}
