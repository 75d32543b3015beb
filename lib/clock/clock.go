// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for components that stamp or age records.
type Clock interface {
	Now() time.Time

	// NewTicker delivers ticks on C every d. Panics if d <= 0. Ticks
	// are dropped when the consumer falls behind.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C until Stop.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns off the ticker. It does not close C.
func (t *Ticker) Stop() { t.stop() }
