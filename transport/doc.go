// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport carries signed event messages between two nodes
// over a direct stream connection.
//
// The package defines two interfaces: [Listener] accepts inbound
// connections (Serve, Address, Close) and hands each one to a
// [Handler], and [Dialer] opens outbound connections (DialContext).
// [TCPListener] and [TCPDialer] are the TCP implementations.
//
// Messages are self-framing: every message starts with a version string
// that declares its size, and its counted signature group follows
// immediately. [Conn] exploits this to read one message at a time from
// the stream without any additional length prefix. A peer that sends a
// message larger than the connection's limit, or bytes that do not
// parse, gets its connection rejected; there is no way to resynchronize
// a stream after a framing error.
//
// Messages carry their own signatures, so the transport does not
// authenticate peers. Everything received is untrusted input for the
// kel package to verify.
package transport
