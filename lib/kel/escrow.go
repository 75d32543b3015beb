// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import (
	"context"
	"time"

	"github.com/bureau-foundation/keri/lib/state"
)

// Resolution counts what one escrow pass did with a validator's
// entries.
type Resolution struct {
	// Accepted entries verified and left escrow. Entries whose receipt
	// was already recorded count here but are not stored twice.
	Accepted int
	// Rejected entries failed a binding or their signatures and were
	// dropped.
	Rejected int
	// Pending entries still name an event the validator state has not
	// reached.
	Pending int
}

// resolve re-checks every receipt escrowed under validator's prefix.
// Running it again with the same state changes nothing.
func (b *receiptBook) resolve(ctx context.Context, validator state.IdentifierState) (Resolution, error) {
	var resolution Resolution
	if !validator.Incepted() {
		return resolution, nil
	}
	entries, err := b.db.Escrowed(ctx, validator.Prefix)
	if err != nil {
		return resolution, err
	}
	for _, entry := range entries {
		ev := entry.Receipt.Event()
		_, pending, err := b.check(ctx, entry.Receipt, &validator)
		switch {
		case err != nil && IsRejection(err):
			if _, err := b.db.RemoveEscrowed(ctx, validator.Prefix, entry); err != nil {
				return resolution, err
			}
			resolution.Rejected++
			b.logger.Info("escrowed receipt rejected",
				"prefix", ev.Prefix.String(), "sn", ev.SN, "validator", validator.Prefix.String(), "error", err)
		case err != nil:
			return resolution, err
		case pending:
			resolution.Pending++
		default:
			if _, err := b.db.AddReceiptFromEscrow(ctx, ev.Prefix, ev.SN, validator.Prefix, entry); err != nil {
				return resolution, err
			}
			resolution.Accepted++
			b.logger.Debug("escrowed receipt accepted",
				"prefix", ev.Prefix.String(), "sn", ev.SN, "validator", validator.Prefix.String())
		}
	}
	return resolution, nil
}

// purge drops escrow entries older than maxAge.
func (b *receiptBook) purge(ctx context.Context, maxAge time.Duration) (int, error) {
	purged, err := b.db.PurgeEscrow(ctx, b.clock.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		b.logger.Info("purged stale escrow entries", "purged", purged, "max_age", maxAge)
	}
	return purged, nil
}
