// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package database persists key event logs, receipts, the receipt
// escrow, and folded identifier states on any [store.Backend].
//
// Signed messages are stored as their exact wire bytes, so a log read
// back re-verifies byte for byte. Event and receipt keys are the
// identifier's text followed by the big-endian sequence number, which
// keeps a log in order under a prefix scan.
package database
