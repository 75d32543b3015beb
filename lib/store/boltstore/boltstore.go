// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boltstore is the bbolt storage engine, registered as "bolt".
// Store buckets map one-to-one onto bolt buckets, created on first
// write.
package boltstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/bureau-foundation/keri/lib/store"
)

// EngineName is the registry name of this engine.
const EngineName = "bolt"

// lockTimeout bounds the wait for another process's file lock.
const lockTimeout = 5 * time.Second

func init() {
	store.Register(EngineName, func(ctx context.Context, options store.Options) (store.Backend, error) {
		return Open(options)
	})
}

// Backend wraps a bolt database file.
type Backend struct {
	db *bolt.DB
}

// Open opens or creates the database file at options.Path.
func Open(options store.Options) (*Backend, error) {
	if options.Path == "" {
		return nil, fmt.Errorf("boltstore: Path is required")
	}
	db, err := bolt.Open(options.Path, 0600, &bolt.Options{
		Timeout: lockTimeout,
		NoSync:  !options.SyncWrites,
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: opening %s: %w", options.Path, err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(boltTx *bolt.Tx) error { return fn(tx{boltTx}) })
}

func (b *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(boltTx *bolt.Tx) error { return fn(tx{boltTx}) })
}

func (b *Backend) Close() error { return b.db.Close() }

type tx struct {
	inner *bolt.Tx
}

func (t tx) Get(bucket string, key []byte) ([]byte, bool, error) {
	handle := t.inner.Bucket([]byte(bucket))
	if handle == nil {
		return nil, false, nil
	}
	value := handle.Get(key)
	if value == nil {
		return nil, false, nil
	}
	// bolt values are only valid for the life of the transaction.
	return bytes.Clone(value), true, nil
}

func (t tx) Put(bucket string, key, value []byte) error {
	if !t.inner.Writable() {
		return store.ErrReadOnly
	}
	if err := store.ValidateBucket(bucket); err != nil {
		return err
	}
	handle, err := t.inner.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("boltstore: bucket %s: %w", bucket, err)
	}
	if value == nil {
		value = []byte{}
	}
	return handle.Put(key, value)
}

func (t tx) Delete(bucket string, key []byte) error {
	if !t.inner.Writable() {
		return store.ErrReadOnly
	}
	handle := t.inner.Bucket([]byte(bucket))
	if handle == nil {
		return nil
	}
	return handle.Delete(key)
}

func (t tx) Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error {
	handle := t.inner.Bucket([]byte(bucket))
	if handle == nil {
		return nil
	}
	cursor := handle.Cursor()
	key, value := cursor.First()
	if len(prefix) > 0 {
		key, value = cursor.Seek(prefix)
	}
	for ; key != nil && store.HasPrefix(key, prefix); key, value = cursor.Next() {
		if err := fn(bytes.Clone(key), bytes.Clone(value)); err != nil {
			return err
		}
	}
	return nil
}
