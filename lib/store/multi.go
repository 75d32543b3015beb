// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// MultiKeyedStore maps each key to an ordered list of values.
//
// Each value is stored under its own physical key: the logical key's
// length as two big-endian bytes, the logical key, then an eight-byte
// big-endian ordinal. The length prefix keeps one logical key from
// matching another it happens to prefix, and the ordinal keeps values
// in insertion order under a byte-ordered scan.
type MultiKeyedStore[V any] struct {
	Backend Backend
	Bucket  string
	Codec   Codec[V]
}

// NewMultiKeyedStore returns a store over bucket using CBORCodec when
// codec is nil.
func NewMultiKeyedStore[V any](backend Backend, bucket string, codec Codec[V]) (*MultiKeyedStore[V], error) {
	if err := ValidateBucket(bucket); err != nil {
		return nil, err
	}
	if codec == nil {
		codec = CBORCodec[V]{}
	}
	return &MultiKeyedStore[V]{Backend: backend, Bucket: bucket, Codec: codec}, nil
}

const ordinalSize = 8

func multiPrefix(key []byte) ([]byte, error) {
	if len(key) > math.MaxUint16 {
		return nil, fmt.Errorf("store: key of %d bytes exceeds multi-store limit", len(key))
	}
	prefix := make([]byte, 2, 2+len(key)+ordinalSize)
	binary.BigEndian.PutUint16(prefix, uint16(len(key)))
	return append(prefix, key...), nil
}

type entry struct {
	physical []byte
	data     []byte
}

func (s *MultiKeyedStore[V]) entries(tx Tx, key []byte) ([]entry, []byte, error) {
	prefix, err := multiPrefix(key)
	if err != nil {
		return nil, nil, err
	}
	var entries []entry
	err = tx.Scan(s.Bucket, prefix, func(physical, data []byte) error {
		if len(physical) != len(prefix)+ordinalSize {
			return &DecodeError{Bucket: s.Bucket, Key: physical, Err: fmt.Errorf("malformed multi-store key")}
		}
		entries = append(entries, entry{physical: physical, data: data})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store: %s: %w", s.Bucket, err)
	}
	return entries, prefix, nil
}

// Put appends value to the list under key.
func (s *MultiKeyedStore[V]) Put(ctx context.Context, key []byte, value V) error {
	return s.Backend.Update(ctx, func(tx Tx) error { return s.PutIn(tx, key, value) })
}

func (s *MultiKeyedStore[V]) PutIn(tx Tx, key []byte, value V) error {
	entries, prefix, err := s.entries(tx, key)
	if err != nil {
		return err
	}
	var ordinal uint64
	if len(entries) > 0 {
		last := entries[len(entries)-1].physical
		ordinal = binary.BigEndian.Uint64(last[len(prefix):]) + 1
	}
	return s.append(tx, prefix, ordinal, value)
}

// Set replaces the whole list under key with the single value.
func (s *MultiKeyedStore[V]) Set(ctx context.Context, key []byte, value V) error {
	return s.Backend.Update(ctx, func(tx Tx) error {
		if err := s.DelIn(tx, key); err != nil {
			return err
		}
		prefix, err := multiPrefix(key)
		if err != nil {
			return err
		}
		return s.append(tx, prefix, 0, value)
	})
}

// Get returns the values under key in insertion order. A missing key
// yields an empty list.
func (s *MultiKeyedStore[V]) Get(ctx context.Context, key []byte) (values []V, err error) {
	err = s.Backend.View(ctx, func(tx Tx) error {
		values, err = s.GetIn(tx, key)
		return err
	})
	return values, err
}

func (s *MultiKeyedStore[V]) GetIn(tx Tx, key []byte) ([]V, error) {
	entries, _, err := s.entries(tx, key)
	if err != nil {
		return nil, err
	}
	values := make([]V, 0, len(entries))
	for _, entry := range entries {
		value, err := s.Codec.Decode(entry.data)
		if err != nil {
			return nil, &DecodeError{Bucket: s.Bucket, Key: entry.physical, Err: err}
		}
		values = append(values, value)
	}
	return values, nil
}

// LenIn counts the values under key without decoding them.
func (s *MultiKeyedStore[V]) LenIn(tx Tx, key []byte) (int, error) {
	entries, _, err := s.entries(tx, key)
	return len(entries), err
}

// Del removes every value under key.
func (s *MultiKeyedStore[V]) Del(ctx context.Context, key []byte) error {
	return s.Backend.Update(ctx, func(tx Tx) error { return s.DelIn(tx, key) })
}

func (s *MultiKeyedStore[V]) DelIn(tx Tx, key []byte) error {
	entries, _, err := s.entries(tx, key)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := tx.Delete(s.Bucket, entry.physical); err != nil {
			return fmt.Errorf("store: %s: %w", s.Bucket, err)
		}
	}
	return nil
}

// DelValue removes the first value under key whose encoding equals
// value's. It reports whether a value was removed.
func (s *MultiKeyedStore[V]) DelValue(ctx context.Context, key []byte, value V) (removed bool, err error) {
	err = s.Backend.Update(ctx, func(tx Tx) error {
		removed, err = s.DelValueIn(tx, key, value)
		return err
	})
	return removed, err
}

func (s *MultiKeyedStore[V]) DelValueIn(tx Tx, key []byte, value V) (bool, error) {
	target, err := s.Codec.Encode(value)
	if err != nil {
		return false, fmt.Errorf("store: encoding %s value: %w", s.Bucket, err)
	}
	entries, _, err := s.entries(tx, key)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if bytes.Equal(entry.data, target) {
			if err := tx.Delete(s.Bucket, entry.physical); err != nil {
				return false, fmt.Errorf("store: %s: %w", s.Bucket, err)
			}
			return true, nil
		}
	}
	return false, nil
}

// DelFirstIn removes the n oldest values under key.
func (s *MultiKeyedStore[V]) DelFirstIn(tx Tx, key []byte, n int) error {
	entries, _, err := s.entries(tx, key)
	if err != nil {
		return err
	}
	for index := 0; index < n && index < len(entries); index++ {
		if err := tx.Delete(s.Bucket, entries[index].physical); err != nil {
			return fmt.Errorf("store: %s: %w", s.Bucket, err)
		}
	}
	return nil
}

func (s *MultiKeyedStore[V]) append(tx Tx, prefix []byte, ordinal uint64, value V) error {
	data, err := s.Codec.Encode(value)
	if err != nil {
		return fmt.Errorf("store: encoding %s value: %w", s.Bucket, err)
	}
	physical := binary.BigEndian.AppendUint64(append([]byte(nil), prefix...), ordinal)
	if err := tx.Put(s.Bucket, physical, data); err != nil {
		return fmt.Errorf("store: %s: %w", s.Bucket, err)
	}
	return nil
}
