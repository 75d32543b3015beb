// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock supplies time to escrow ageing and the periodic escrow
// purge. Production code uses [Real]; tests use [Fake] and move time
// with [FakeClock.Advance].
package clock
