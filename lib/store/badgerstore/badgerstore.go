// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package badgerstore is the badger storage engine, registered as
// "badger". Buckets are flattened into one keyspace as bucket, NUL,
// key. Writers are serialized so optimistic transactions never
// conflict.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger"

	"github.com/bureau-foundation/keri/lib/store"
)

// EngineName is the registry name of this engine.
const EngineName = "badger"

func init() {
	store.Register(EngineName, func(ctx context.Context, options store.Options) (store.Backend, error) {
		return Open(options)
	})
}

// Backend wraps a badger database directory.
type Backend struct {
	db      *badger.DB
	writeMu sync.Mutex
}

// Open opens or creates the database directory at options.Path.
func Open(options store.Options) (*Backend, error) {
	if options.Path == "" {
		return nil, fmt.Errorf("badgerstore: Path is required")
	}
	dbOptions := badger.DefaultOptions(options.Path).
		WithSyncWrites(options.SyncWrites).
		WithLogger(slogLogger{options.Log().With("engine", EngineName)})
	db, err := badger.Open(dbOptions)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: opening %s: %w", options.Path, err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(txn *badger.Txn) error { return fn(&tx{txn: txn}) })
}

func (b *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.db.Update(func(txn *badger.Txn) error { return fn(&tx{txn: txn, writable: true}) })
}

func (b *Backend) Close() error { return b.db.Close() }

type tx struct {
	txn      *badger.Txn
	writable bool
}

func (t *tx) Get(bucket string, key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(store.FlatKey(bucket, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badgerstore: get: %w", err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, fmt.Errorf("badgerstore: reading value: %w", err)
	}
	return value, true, nil
}

func (t *tx) Put(bucket string, key, value []byte) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	if err := store.ValidateBucket(bucket); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	return t.txn.Set(store.FlatKey(bucket, key), value)
}

func (t *tx) Delete(bucket string, key []byte) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return t.txn.Delete(store.FlatKey(bucket, key))
}

func (t *tx) Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error {
	flatPrefix := store.FlatKey(bucket, prefix)
	iter := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()
	strip := len(bucket) + 1
	for iter.Seek(flatPrefix); iter.ValidForPrefix(flatPrefix); iter.Next() {
		item := iter.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("badgerstore: reading value: %w", err)
		}
		if err := fn(item.KeyCopy(nil)[strip:], value); err != nil {
			return err
		}
	}
	return nil
}

// slogLogger routes badger's printf-style logging into slog.
type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l slogLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l slogLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l slogLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
