// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/bureau-foundation/keri/lib/clock"
	"github.com/bureau-foundation/keri/lib/kel"
)

// purgeEscrow drops escrowed receipts older than maxAge once at start
// and then on every tick of interval, until ctx is cancelled.
func purgeEscrow(ctx context.Context, clk clock.Clock, controller *kel.Controller, maxAge, interval time.Duration, logger *slog.Logger) {
	purge := func() {
		purged, err := controller.PurgeEscrow(ctx, maxAge)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("purging escrow", "error", err)
			}
			return
		}
		if purged > 0 {
			logger.Info("purged stale escrow", "entries", purged, "max_age", maxAge)
		}
	}

	purge()
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purge()
		}
	}
}
