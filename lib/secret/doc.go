// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds private key seeds and keystore passphrases in
// memory that the garbage collector never sees.
//
// A [Buffer] is an anonymous mmap region locked into RAM and excluded
// from core dumps. Close zeroes it before unmapping. lib/keys keeps
// every signing seed in a Buffer; lib/sealed decrypts keystores into
// one.
//
// Passphrases come from [ReadPassphrase] (a file, or stdin for "-")
// or [FromEnvironment].
package secret
