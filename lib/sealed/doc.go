// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts keystore payloads under a passphrase using
// age's scrypt recipient. Plaintext never leaves [secret.Buffer]
// memory on the decrypt side.
package sealed
