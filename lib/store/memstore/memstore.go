// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package memstore is an in-memory storage engine, registered as
// "memory". Nothing survives Close.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/bureau-foundation/keri/lib/store"
)

// EngineName is the registry name of this engine.
const EngineName = "memory"

func init() {
	store.Register(EngineName, func(context.Context, store.Options) (store.Backend, error) {
		return New(), nil
	})
}

// Backend keeps buckets as maps guarded by a RWMutex. Readers share
// the lock; the writer holds it exclusively and buffers its writes
// until commit.
type Backend struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{buckets: map[string]map[string][]byte{}}
}

func (b *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return store.ErrClosed
	}
	return fn(&tx{backend: b})
}

func (b *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return store.ErrClosed
	}
	transaction := &tx{backend: b, writable: true, pending: map[string]map[string][]byte{}}
	if err := fn(transaction); err != nil {
		return err
	}
	transaction.commit()
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.buckets = nil
	return nil
}

// tx reads through pending writes to the committed maps. A nil value
// in pending marks a deletion.
type tx struct {
	backend  *Backend
	writable bool
	pending  map[string]map[string][]byte
}

func (t *tx) Get(bucket string, key []byte) ([]byte, bool, error) {
	if writes, ok := t.pending[bucket]; ok {
		if value, ok := writes[string(key)]; ok {
			if value == nil {
				return nil, false, nil
			}
			return clone(value), true, nil
		}
	}
	value, ok := t.backend.buckets[bucket][string(key)]
	if !ok {
		return nil, false, nil
	}
	return clone(value), true, nil
}

func (t *tx) Put(bucket string, key, value []byte) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	if err := store.ValidateBucket(bucket); err != nil {
		return err
	}
	t.stage(bucket)[string(key)] = append(make([]byte, 0, len(value)), value...)
	return nil
}

func (t *tx) Delete(bucket string, key []byte) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	t.stage(bucket)[string(key)] = nil
	return nil
}

func (t *tx) Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error {
	merged := map[string][]byte{}
	for key, value := range t.backend.buckets[bucket] {
		if store.HasPrefix([]byte(key), prefix) {
			merged[key] = value
		}
	}
	for key, value := range t.pending[bucket] {
		if !store.HasPrefix([]byte(key), prefix) {
			continue
		}
		if value == nil {
			delete(merged, key)
		} else {
			merged[key] = value
		}
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := fn([]byte(key), clone(merged[key])); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) stage(bucket string) map[string][]byte {
	writes, ok := t.pending[bucket]
	if !ok {
		writes = map[string][]byte{}
		t.pending[bucket] = writes
	}
	return writes
}

func (t *tx) commit() {
	for bucket, writes := range t.pending {
		committed, ok := t.backend.buckets[bucket]
		if !ok {
			committed = map[string][]byte{}
			t.backend.buckets[bucket] = committed
		}
		for key, value := range writes {
			if value == nil {
				delete(committed, key)
			} else {
				committed[key] = value
			}
		}
	}
}

func clone(value []byte) []byte {
	return append(make([]byte, 0, len(value)), value...)
}
