// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the encodings shared by every package that
// puts events on the wire or on disk.
//
// Three encodings with a clear boundary:
//
//   - Transport formats ([Format]): an event message travels as JSON or
//     CBOR, announced by the version string ([VersionString]) that is
//     the first field of every message. The version string carries the
//     exact byte size of the message so a stream reader can slice one
//     message without a length prefix.
//   - The canonical form ([Canonical]): RFC 8785 JSON (sorted keys,
//     minimal whitespace, ES6 number formatting). Digests and
//     signatures are always computed over canonical bytes, never over
//     transport bytes, so the same event digests identically however
//     it arrived.
//   - Storage: CBOR with Core Deterministic Encoding (RFC 8949 §4.2)
//     for records in the event database and the keystore.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// Types that appear in event messages carry `json` tags; fxamacker/cbor
// reads `json` tags when `cbor` tags are absent, so one tag names the
// field in JSON, CBOR and the canonical form. Storage-only records use
// `cbor` tags. Never put both on the same field.
package codec
