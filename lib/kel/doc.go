// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kel runs key event logs on top of the pure state machine in
// lib/state and the persistence in lib/database.
//
// A [Controller] owns one identifier: it incepts it, anchors data with
// interaction events, rotates onto the pre-committed next key, issues
// receipts for other identifiers' events, and accepts receipts for its
// own. A [Processor] tracks remote identifiers: it verifies and folds
// their events, persists them, and feeds every state change to escrow
// resolution.
//
// Receipts whose validator is unknown, or whose seal does not name the
// last event of the validator's known state, are escrowed under the validator's prefix. When the validator's state
// advances, [Controller.ResolveEscrow] (or the processor on its
// behalf) re-checks them. Each escrowed receipt is recorded at most
// once no matter how often resolution runs.
//
// Writers are serialized per identifier. Readers of [Controller.State]
// never block: the controller publishes each new state through an
// atomic pointer after it is durable.
package kel
