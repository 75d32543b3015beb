// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool wraps zombiezen.com/go/sqlite's connection pool
// with the pragmas and transaction discipline the sqlite storage
// engine relies on.
//
// Every connection runs in WAL mode, so [Pool.Read] transactions see a
// stable snapshot while a [Pool.Write] transaction is open. Writes use
// BEGIN IMMEDIATE, taking the write lock up front instead of upgrading
// mid-transaction, and busy_timeout absorbs contention between
// writers. Schema statements run on each new connection.
//
// Connections are not safe for concurrent use. Read and Write lend one
// to the callback for its duration.
package sqlitepool
