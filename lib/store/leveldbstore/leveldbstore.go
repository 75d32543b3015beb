// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package leveldbstore is the goleveldb storage engine, registered as
// "leveldb". Buckets are flattened into the single keyspace as
// bucket, NUL, key.
//
// Readers use snapshots. Update uses a leveldb transaction, which
// excludes other writers and sees its own writes before Commit.
package leveldbstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bureau-foundation/keri/lib/store"
)

// EngineName is the registry name of this engine.
const EngineName = "leveldb"

func init() {
	store.Register(EngineName, func(ctx context.Context, options store.Options) (store.Backend, error) {
		return Open(options)
	})
}

// Backend wraps a leveldb database directory.
type Backend struct {
	db   *leveldb.DB
	sync bool
}

// Open opens or creates the database directory at options.Path,
// recovering it if the manifest is corrupted.
func Open(options store.Options) (*Backend, error) {
	if options.Path == "" {
		return nil, fmt.Errorf("leveldbstore: Path is required")
	}
	dbOptions := &opt.Options{
		BlockCacheCapacity: 16 * opt.MiB,
		WriteBuffer:        8 * opt.MiB,
		Filter:             filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(options.Path, dbOptions)
	var corrupted *leveldberrors.ErrCorrupted
	if errors.As(err, &corrupted) {
		options.Log().Warn("leveldb corrupted, recovering", "path", options.Path, "error", err)
		db, err = leveldb.RecoverFile(options.Path, dbOptions)
	}
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: opening %s: %w", options.Path, err)
	}
	return &Backend{db: db, sync: options.SyncWrites}, nil
}

func (b *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot, err := b.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("leveldbstore: snapshot: %w", err)
	}
	defer snapshot.Release()
	return fn(&tx{reader: snapshot})
}

func (b *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	transaction, err := b.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("leveldbstore: open transaction: %w", err)
	}
	if err := fn(&tx{reader: transaction, writer: transaction, sync: b.sync}); err != nil {
		transaction.Discard()
		return err
	}
	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("leveldbstore: commit: %w", err)
	}
	return nil
}

func (b *Backend) Close() error { return b.db.Close() }

type reader interface {
	Get(key []byte, options *opt.ReadOptions) ([]byte, error)
	NewIterator(slice *util.Range, options *opt.ReadOptions) iterator.Iterator
}

type tx struct {
	reader reader
	writer *leveldb.Transaction
	sync   bool
}

func (t *tx) Get(bucket string, key []byte) ([]byte, bool, error) {
	value, err := t.reader.Get(store.FlatKey(bucket, key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leveldbstore: get: %w", err)
	}
	return value, true, nil
}

func (t *tx) Put(bucket string, key, value []byte) error {
	if t.writer == nil {
		return store.ErrReadOnly
	}
	if err := store.ValidateBucket(bucket); err != nil {
		return err
	}
	return t.writer.Put(store.FlatKey(bucket, key), value, &opt.WriteOptions{Sync: t.sync})
}

func (t *tx) Delete(bucket string, key []byte) error {
	if t.writer == nil {
		return store.ErrReadOnly
	}
	return t.writer.Delete(store.FlatKey(bucket, key), &opt.WriteOptions{Sync: t.sync})
}

func (t *tx) Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error {
	flatPrefix := store.FlatKey(bucket, prefix)
	iter := t.reader.NewIterator(util.BytesPrefix(flatPrefix), nil)
	defer iter.Release()
	strip := len(bucket) + 1
	for iter.Next() {
		if err := fn(bytes.Clone(iter.Key()[strip:]), bytes.Clone(iter.Value())); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("leveldbstore: scan: %w", err)
	}
	return nil
}
