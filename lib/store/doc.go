// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the storage contract under the event database.
//
// An engine implements [Backend]: bucketed byte keys and values, many
// concurrent snapshot readers, and one writer transaction at a time.
// Engines live in subpackages and register themselves by name, so a
// binary selects one with a blank import and [Open].
//
// On top of a Backend, [KeyedStore] maps a key to one typed value and
// [MultiKeyedStore] maps a key to an ordered list of typed values.
// Values pass through a [Codec]; [CBORCodec] is the default and
// [CompressedCodec] wraps any codec with zstd or lz4.
package store
