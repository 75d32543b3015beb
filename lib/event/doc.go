// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package event defines key event messages: what they contain, how they
// are serialized and signed, and how they are parsed from a stream.
//
// An [Event] is a prefix, a sequence number and one of four payloads
// ([Data]):
//
//   - [Inception] (icp) establishes an identifier with its first key
//     configuration and witness set.
//   - [Rotation] (rot) replaces the keys, revealing the keys committed
//     to by the previous establishment event.
//   - [Interaction] (ixn) anchors seals without changing keys.
//   - [Receipt] (vrc) is a validator's signed acknowledgment of
//     another identifier's event. It is never part of the receipted
//     identifier's own log.
//
// A [Message] pairs an event with the [codec.VersionString] that
// announces its transport format and size. Messages have two byte
// forms: [Message.Serialize] produces transport bytes (JSON or CBOR,
// fields in protocol order) and [Message.Canonical] produces the RFC
// 8785 JSON that digests and signatures cover. A [SignedMessage] is a
// message followed by a counted group of indexed signatures:
//
//	message || "-A" || count || signature...
//
// [ParseSignedMessage] reverses that, returning [ErrIncomplete] when
// the input ends early so a stream reader knows to read more, and a
// [*ParseError] for anything malformed.
//
// Validation here is structural: each payload's Validate checks what
// can be checked from the event alone. Whether an event may follow a
// given state is decided by lib/state.
package event
