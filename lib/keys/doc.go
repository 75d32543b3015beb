// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keys manages a controller's signing keys: the current
// keypair that signs events and the pre-rotated next keypair whose
// digest is committed in the latest establishment event.
//
// Private seeds live in [secret.Buffer] memory. A [Manager] stages a
// rotation without touching the live keys, so a rotation that fails
// validation leaves the controller able to sign with what it had.
// [Keystore] persists both seeds encrypted under a passphrase.
package keys
