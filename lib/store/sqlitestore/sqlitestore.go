// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitestore is the SQLite storage engine, registered as
// "sqlite". All buckets share one WITHOUT ROWID table keyed by
// (bucket, key); BLOB comparison is memcmp, which gives the byte
// order Scan promises.
package sqlitestore

import (
	"context"
	"errors"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/keri/lib/sqlitepool"
	"github.com/bureau-foundation/keri/lib/store"
)

// EngineName is the registry name of this engine.
const EngineName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	bucket TEXT NOT NULL,
	key    BLOB NOT NULL,
	value  BLOB NOT NULL,
	PRIMARY KEY (bucket, key)
) WITHOUT ROWID;
`

func init() {
	store.Register(EngineName, func(ctx context.Context, options store.Options) (store.Backend, error) {
		return Open(options)
	})
}

// Backend stores buckets in a SQLite database file.
type Backend struct {
	pool *sqlitepool.Pool
}

// Open opens or creates the database at options.Path.
func Open(options store.Options) (*Backend, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     options.Path,
		Schema:   schema,
		SyncFull: options.SyncWrites,
		Logger:   options.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{pool: pool}, nil
}

func (b *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	return b.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return fn(&tx{conn: conn})
	})
}

func (b *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	return b.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return fn(&tx{conn: conn, writable: true})
	})
}

func (b *Backend) Close() error { return b.pool.Close() }

type tx struct {
	conn     *sqlite.Conn
	writable bool
}

func (t *tx) Get(bucket string, key []byte) ([]byte, bool, error) {
	var value []byte
	found := false
	err := sqlitex.Execute(t.conn, "SELECT value FROM kv WHERE bucket = ? AND key = ?", &sqlitex.ExecOptions{
		Args: []any{bucket, key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = columnBytes(stmt, 0)
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("sqlitestore: get: %w", err)
	}
	return value, found, nil
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
	err := sqlitex.Execute(t.conn,
		"INSERT INTO kv (bucket, key, value) VALUES (?, ?, ?) ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value",
		&sqlitex.ExecOptions{Args: []any{bucket, key, value}})
	if err != nil {
		return fmt.Errorf("sqlitestore: put: %w", err)
	}
	return nil
}

func (t *tx) Delete(bucket string, key []byte) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	err := sqlitex.Execute(t.conn, "DELETE FROM kv WHERE bucket = ? AND key = ?", &sqlitex.ExecOptions{
		Args: []any{bucket, key},
	})
	if err != nil {
		return fmt.Errorf("sqlitestore: delete: %w", err)
	}
	return nil
}

func (t *tx) Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error {
	if prefix == nil {
		prefix = []byte{}
	}
	err := sqlitex.Execute(t.conn, "SELECT key, value FROM kv WHERE bucket = ? AND key >= ? ORDER BY key", &sqlitex.ExecOptions{
		Args: []any{bucket, prefix},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			key := columnBytes(stmt, 0)
			if !store.HasPrefix(key, prefix) {
				return errScanDone
			}
			return fn(key, columnBytes(stmt, 1))
		},
	})
	if errors.Is(err, errScanDone) {
		return nil
	}
	return err
}

// errScanDone stops a scan once keys leave the prefix range.
var errScanDone = errors.New("sqlitestore: scan done")

func columnBytes(stmt *sqlite.Stmt, column int) []byte {
	data := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, data)
	return data
}
