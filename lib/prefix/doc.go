// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefix holds derived values: a derivation code from
// lib/derivation paired with the raw bytes it describes.
//
// [Basic] is a public key, [SelfAddressing] a digest, [SelfSigning] a
// signature and [AttachedSignature] a signature indexed into a key
// list. [Identifier] is the self-certifying identifier itself, which
// may be derived in any of the first three ways (or be unset, before
// inception).
//
// Every type round-trips through its text form (code followed by the
// base64url body) and implements encoding.TextMarshaler, so prefixes
// serialize as plain strings in both JSON and CBOR. Parsing validates
// the code and the exact raw length; nothing is accepted on a best
// effort basis.
package prefix
