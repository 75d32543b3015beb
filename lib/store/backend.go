// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExists is returned by KeyedStore.Put when the key already
	// holds a value.
	ErrExists = errors.New("store: key already exists")

	// ErrReadOnly is returned by Tx writes inside View.
	ErrReadOnly = errors.New("store: write in read-only transaction")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("store: backend is closed")
)

// Backend is a transactional, bucketed key-value engine.
//
// View runs fn against a consistent snapshot. Update runs fn in the
// single writer transaction and commits when fn returns nil; any error
// discards every write fn made.
type Backend interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is one transaction. Values returned by Get and passed to Scan
// callbacks belong to the caller. A Tx must not be used after its
// View or Update returns.
type Tx interface {
	Get(bucket string, key []byte) ([]byte, bool, error)
	Put(bucket string, key, value []byte) error
	Delete(bucket string, key []byte) error

	// Scan calls fn for every key in bucket starting with prefix, in
	// ascending byte order. An error from fn stops the scan and is
	// returned.
	Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error
}

// ValidateBucket rejects bucket names engines cannot represent.
// Engines that flatten buckets into one keyspace use NUL as the
// separator.
func ValidateBucket(bucket string) error {
	if bucket == "" {
		return fmt.Errorf("store: empty bucket name")
	}
	if strings.IndexByte(bucket, 0) >= 0 {
		return fmt.Errorf("store: bucket name %q contains NUL", bucket)
	}
	return nil
}

// FlatKey joins bucket and key for engines with a single keyspace.
func FlatKey(bucket string, key []byte) []byte {
	flat := make([]byte, 0, len(bucket)+1+len(key))
	flat = append(flat, bucket...)
	flat = append(flat, 0)
	return append(flat, key...)
}

// HasPrefix reports whether key starts with prefix.
func HasPrefix(key, prefix []byte) bool {
	return len(key) >= len(prefix) && string(key[:len(prefix)]) == string(prefix)
}
