// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package derivation enumerates the algorithms that self-certifying
// identifiers are built from and the compact text codes that name them.
//
// There are four code tables:
//
//   - [Basic] names a public key encoding (Ed25519, secp256k1, ...).
//     The non-transferable variants (suffix NT) mark keys that can
//     never be rotated away from.
//   - [SelfAddressing] names a digest algorithm. A self-addressing
//     value is the digest of the data it names.
//   - [SelfSigning] names a signature algorithm.
//   - [AttachedSignature] names an indexed signature: a signature
//     plus the position of the signing key in the signer's key list.
//
// Every coded value has the text form
//
//	code || base64url-nopad(raw)
//
// where the code length is selected by its first character: a letter
// selects a one-character code, '0' a two-character code and '1' a
// four-character code. Code and raw sizes are chosen so that the text
// form is always a multiple of four characters, which lets a parser
// slice a value out of a stream without a length prefix.
//
// The algorithms behind the codes are pluggable in the sense that the
// rest of the module only ever calls [SelfAddressing.Digest] and
// [SelfSigning.Verify]; key generation and signing live in lib/keys.
package derivation
